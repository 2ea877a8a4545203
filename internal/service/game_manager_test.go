package service

import (
	"encoding/json"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/notation"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
	"github.com/benbeisheim/chesscore-backend/internal/ws"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   []ws.Message
	closed bool
	fail   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, v.(ws.Message))
	return nil
}

func (c *fakeConn) WriteMessage(int, []byte) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) states(t *testing.T) []Snapshot {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Snapshot
	for _, m := range c.msgs {
		if m.Type != ws.MessageTypeGameState {
			continue
		}
		var s Snapshot
		if err := json.Unmarshal(m.Payload, &s); err != nil {
			t.Fatalf("unmarshal snapshot: %v", err)
		}
		out = append(out, s)
	}
	return out
}

func newTestService(t *testing.T) (*GameService, *storage.Archive) {
	t.Helper()
	archive, err := storage.Open("", true)
	if err != nil {
		t.Fatalf("storage.Open error: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return NewGameService(NewGameManager(archive)), archive
}

func seatedGame(t *testing.T, gs *GameService, fen string) string {
	t.Helper()
	id, err := gs.CreateGame(fen)
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if c, err := gs.JoinGame(id, "alice"); err != nil || c != model.White {
		t.Fatalf("JoinGame(alice) = %v, %v", c, err)
	}
	if c, err := gs.JoinGame(id, "bob"); err != nil || c != model.Black {
		t.Fatalf("JoinGame(bob) = %v, %v", c, err)
	}
	return id
}

func TestCreateGame(t *testing.T) {
	gs, _ := newTestService(t)

	id, err := gs.CreateGame("")
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	snap, err := gs.GetGameState(id)
	if err != nil {
		t.Fatalf("GetGameState error: %v", err)
	}
	if snap.FEN != notation.InitialFEN {
		t.Errorf("FEN = %q, want initial position", snap.FEN)
	}
	if snap.State.SideToMove != model.White || snap.State.Result != nil {
		t.Errorf("state = %s/%v, want white to move and no result", snap.State.SideToMove, snap.State.Result)
	}
	if snap.CreatedAt.IsZero() || snap.CreatedAt.After(time.Now()) {
		t.Errorf("CreatedAt = %v", snap.CreatedAt)
	}

	if _, err := gs.CreateGame("not/a/fen"); !errors.Is(err, notation.ErrInvalidFEN) {
		t.Errorf("CreateGame(bad fen) error = %v, want %v", err, notation.ErrInvalidFEN)
	}
	if _, err := gs.GetGameState("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GetGameState(missing) error = %v, want %v", err, ErrGameNotFound)
	}
}

func TestCreateGame_Duplicate(t *testing.T) {
	gm := NewGameManager(nil)
	if err := gm.CreateGame("g", ""); err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if err := gm.CreateGame("g", ""); !errors.Is(err, ErrGameExists) {
		t.Errorf("second CreateGame error = %v, want %v", err, ErrGameExists)
	}
}

func TestCreateGame_EndedPosition(t *testing.T) {
	gs, _ := newTestService(t)
	id, err := gs.CreateGame("k7/8/1Q6/8/8/8/8/7K b - - 0 1")
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	snap, _ := gs.GetGameState(id)
	if snap.State.Result == nil || *snap.State.Result != model.Stalemate {
		t.Errorf("Result = %v, want stalemate", snap.State.Result)
	}
}

func TestJoinGame(t *testing.T) {
	gs, _ := newTestService(t)
	id := seatedGame(t, gs, "")

	if c, err := gs.JoinGame(id, "alice"); err != nil || c != model.White {
		t.Errorf("rejoin = %v, %v, want white", c, err)
	}
	if _, err := gs.JoinGame(id, "carol"); !errors.Is(err, ErrGameFull) {
		t.Errorf("third player error = %v, want %v", err, ErrGameFull)
	}
	if _, err := gs.JoinGame("missing", "carol"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("missing game error = %v, want %v", err, ErrGameNotFound)
	}

	snap, _ := gs.GetGameState(id)
	if diff := cmp.Diff(Players{White: "alice", Black: "bob"}, snap.Players); diff != "" {
		t.Errorf("Players mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleMove_Turns(t *testing.T) {
	gs, _ := newTestService(t)
	id := seatedGame(t, gs, "")

	if _, err := gs.HandleMove(id, "bob", "e7:e5"); !errors.Is(err, model.ErrWrongTurn) {
		t.Errorf("black first error = %v, want %v", err, model.ErrWrongTurn)
	}
	if _, err := gs.HandleMove(id, "carol", "e2:e4"); !errors.Is(err, ErrNotInGame) {
		t.Errorf("outsider error = %v, want %v", err, ErrNotInGame)
	}
	if _, err := gs.HandleMove(id, "alice", "e2e4"); !errors.Is(err, notation.ErrInvalidMoveToken) {
		t.Errorf("bad token error = %v, want %v", err, notation.ErrInvalidMoveToken)
	}
	if _, err := gs.HandleMove(id, "alice", "e2:e5"); !errors.Is(err, model.ErrIllegalMove) {
		t.Errorf("illegal move error = %v, want %v", err, model.ErrIllegalMove)
	}

	snap, err := gs.HandleMove(id, "alice", "e2:e4")
	if err != nil {
		t.Fatalf("HandleMove error: %v", err)
	}
	if want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"; snap.FEN != want {
		t.Errorf("FEN = %q, want %q", snap.FEN, want)
	}
	if snap.LastMove == nil || snap.LastMove.Notation() != "e2:e4" {
		t.Errorf("LastMove = %+v, want e2:e4", snap.LastMove)
	}

	if _, err := gs.HandleMove(id, "alice", "d2:d4"); !errors.Is(err, model.ErrWrongTurn) {
		t.Errorf("white twice error = %v, want %v", err, model.ErrWrongTurn)
	}
	if _, err := gs.HandleMove(id, "bob", "e7:e5"); err != nil {
		t.Fatalf("HandleMove(bob) error: %v", err)
	}

	snap, _ = gs.GetGameState(id)
	if diff := cmp.Diff([]string{"e2:e4", "e7:e5"}, snap.MoveHistory); diff != "" {
		t.Errorf("MoveHistory mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleMove_FinishedGameIsArchived(t *testing.T) {
	gs, _ := newTestService(t)
	id := seatedGame(t, gs, "")

	moves := []struct{ player, token string }{
		{"alice", "f2:f3"},
		{"bob", "e7:e5"},
		{"alice", "g2:g4"},
		{"bob", "d8:h4"},
	}
	var snap Snapshot
	for _, m := range moves {
		var err error
		if snap, err = gs.HandleMove(id, m.player, m.token); err != nil {
			t.Fatalf("HandleMove(%s) error: %v", m.token, err)
		}
	}
	if snap.State.Result == nil || *snap.State.Result != model.BlackWin {
		t.Fatalf("Result = %v, want black_win", snap.State.Result)
	}
	if !snap.InCheck {
		t.Error("InCheck = false after mate")
	}

	if _, err := gs.HandleMove(id, "alice", "a2:a3"); !errors.Is(err, model.ErrGameEnded) {
		t.Errorf("move after mate error = %v, want %v", err, model.ErrGameEnded)
	}

	rec, err := gs.ArchivedGame(id)
	if err != nil {
		t.Fatalf("ArchivedGame error: %v", err)
	}
	want := storage.GameRecord{
		ID:       id,
		StartFEN: notation.InitialFEN,
		FinalFEN: "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
		Moves:    []string{"f2:f3", "e7:e5", "g2:g4", "d8:h4"},
		Result:   model.BlackWin,
	}
	if rec.StartedAt.IsZero() || rec.StartedAt.After(rec.FinishedAt) {
		t.Errorf("StartedAt = %v, FinishedAt = %v", rec.StartedAt, rec.FinishedAt)
	}
	rec.StartedAt, rec.FinishedAt = want.StartedAt, want.FinishedAt
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("archived record mismatch (-want +got):\n%s", diff)
	}
}

func TestArchivedGame_Errors(t *testing.T) {
	gs, _ := newTestService(t)
	if _, err := gs.ArchivedGame("nope"); !errors.Is(err, storage.ErrRecordNotFound) {
		t.Errorf("ArchivedGame error = %v, want %v", err, storage.ErrRecordNotFound)
	}

	plain := NewGameService(NewGameManager(nil))
	if _, err := plain.ArchivedGame("nope"); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("ArchivedGame without archive error = %v, want %v", err, ErrArchiveDisabled)
	}
	if _, err := plain.ArchivedGames(); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("ArchivedGames without archive error = %v, want %v", err, ErrArchiveDisabled)
	}
}

func TestArchivedGames(t *testing.T) {
	gs, _ := newTestService(t)
	recs, err := gs.ArchivedGames()
	if err != nil || len(recs) != 0 {
		t.Fatalf("ArchivedGames on empty archive = %v, %v", recs, err)
	}

	var ids []string
	for i := 0; i < 2; i++ {
		id := seatedGame(t, gs, "")
		playFoolsMate(t, gs, id)
		ids = append(ids, id)
	}

	recs, err = gs.ArchivedGames()
	if err != nil {
		t.Fatalf("ArchivedGames error: %v", err)
	}
	var got []string
	for _, rec := range recs {
		got = append(got, rec.ID)
	}
	if diff := cmp.Diff(ids, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("archived ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalMoves(t *testing.T) {
	gs, _ := newTestService(t)
	id := seatedGame(t, gs, "")

	dests, err := gs.LegalMoves(id, "g1")
	if err != nil {
		t.Fatalf("LegalMoves error: %v", err)
	}
	if diff := cmp.Diff(model.NewPositionSet(model.Pos(5, 5), model.Pos(5, 7)), dests); diff != "" {
		t.Errorf("LegalMoves(g1) mismatch (-want +got):\n%s", diff)
	}

	if _, err := gs.LegalMoves(id, "e4"); !errors.Is(err, ErrNoPieceOnSquare) {
		t.Errorf("empty square error = %v, want %v", err, ErrNoPieceOnSquare)
	}
	if _, err := gs.LegalMoves(id, "z9"); !errors.Is(err, notation.ErrInvalidSquare) {
		t.Errorf("bad square error = %v, want %v", err, notation.ErrInvalidSquare)
	}
}

func TestMatchmaking(t *testing.T) {
	gs, _ := newTestService(t)

	ev, err := gs.JoinMatchmaking("alice")
	if err != nil || ev != nil {
		t.Fatalf("JoinMatchmaking(alice) = %v, %v, want queued", ev, err)
	}
	if _, err := gs.JoinMatchmaking("alice"); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("double join error = %v, want %v", err, ErrAlreadyQueued)
	}

	ev, err = gs.JoinMatchmaking("bob")
	if err != nil || ev == nil {
		t.Fatalf("JoinMatchmaking(bob) = %v, %v, want a match", ev, err)
	}
	if ev.Color != model.Black {
		t.Errorf("bob colour = %s, want black", ev.Color)
	}

	aliceEv, ok := gs.MatchmakingStatus("alice")
	if !ok || aliceEv.GameID != ev.GameID || aliceEv.Color != model.White {
		t.Errorf("MatchmakingStatus(alice) = %+v, %v", aliceEv, ok)
	}
	if _, ok := gs.MatchmakingStatus("alice"); ok {
		t.Error("match handed out twice")
	}

	if _, err := gs.HandleMove(ev.GameID, "alice", "e2:e4"); err != nil {
		t.Errorf("first move in matched game: %v", err)
	}
}

func TestMatchmaking_QueuedSince(t *testing.T) {
	gs, _ := newTestService(t)
	if _, ok := gs.QueuedSince("alice"); ok {
		t.Error("QueuedSince before joining = true")
	}
	before := time.Now()
	if _, err := gs.JoinMatchmaking("alice"); err != nil {
		t.Fatalf("JoinMatchmaking error: %v", err)
	}
	since, ok := gs.QueuedSince("alice")
	if !ok || since.Before(before) {
		t.Errorf("QueuedSince(alice) = %v, %v, want a time after %v", since, ok, before)
	}
	gs.LeaveMatchmaking("alice")
	if _, ok := gs.QueuedSince("alice"); ok {
		t.Error("QueuedSince after leaving = true")
	}
}

func TestLeaveMatchmaking(t *testing.T) {
	gs, _ := newTestService(t)
	if _, err := gs.JoinMatchmaking("alice"); err != nil {
		t.Fatalf("JoinMatchmaking error: %v", err)
	}
	if !gs.LeaveMatchmaking("alice") {
		t.Error("LeaveMatchmaking(alice) = false")
	}
	if gs.LeaveMatchmaking("alice") {
		t.Error("LeaveMatchmaking twice = true")
	}
}

func TestConnections_Broadcast(t *testing.T) {
	gs, _ := newTestService(t)
	id := seatedGame(t, gs, "")

	white, black := &fakeConn{}, &fakeConn{}
	if err := gs.RegisterConnection(id, "alice", white); err != nil {
		t.Fatalf("RegisterConnection(alice) error: %v", err)
	}
	if err := gs.RegisterConnection(id, "bob", black); err != nil {
		t.Fatalf("RegisterConnection(bob) error: %v", err)
	}
	if _, err := gs.HandleMove(id, "alice", "d2:d4"); err != nil {
		t.Fatalf("HandleMove error: %v", err)
	}

	for name, c := range map[string]*fakeConn{"white": white, "black": black} {
		states := c.states(t)
		if len(states) == 0 {
			t.Errorf("%s received no state", name)
			continue
		}
		last := states[len(states)-1]
		if last.State.SideToMove != model.Black || len(last.MoveHistory) != 1 {
			t.Errorf("%s last state = %s with %d moves", name, last.State.SideToMove, len(last.MoveHistory))
		}
	}
}

func TestConnections_DuplicateAndAuthorization(t *testing.T) {
	gs, _ := newTestService(t)
	id := seatedGame(t, gs, "")

	first, second := &fakeConn{}, &fakeConn{}
	if err := gs.RegisterConnection(id, "alice", first); err != nil {
		t.Fatalf("RegisterConnection error: %v", err)
	}
	if err := gs.RegisterConnection(id, "alice", second); err != nil {
		t.Fatalf("duplicate RegisterConnection error: %v", err)
	}
	if !second.closed || first.closed {
		t.Errorf("closed = first %v second %v, want only the newcomer closed", first.closed, second.closed)
	}

	if err := gs.RegisterConnection(id, "carol", &fakeConn{}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("spectator on full game error = %v, want %v", err, ErrNotAuthorized)
	}

	game, _ := gs.gameManager.GetGame(id)
	gs.UnregisterConnection(id, "alice", second)
	if game.connectionCount() != 1 {
		t.Errorf("stale unregister removed the live connection")
	}
	gs.UnregisterConnection(id, "alice", first)
	if game.connectionCount() != 0 {
		t.Errorf("connectionCount = %d, want 0", game.connectionCount())
	}
}

func TestConnections_FailedWriteDropsConnection(t *testing.T) {
	gs, _ := newTestService(t)
	id := seatedGame(t, gs, "")

	bad := &fakeConn{fail: true}
	if err := gs.RegisterConnection(id, "alice", bad); err != nil {
		t.Fatalf("RegisterConnection error: %v", err)
	}
	game, _ := gs.gameManager.GetGame(id)
	if game.connectionCount() != 0 {
		t.Errorf("connectionCount = %d after failed write, want 0", game.connectionCount())
	}
}

func TestSetStartFEN(t *testing.T) {
	gm := NewGameManager(nil)
	fen := "4k3/8/8/8/8/8/8/R3K3 w - - 0 1"
	if err := gm.SetStartFEN("bogus"); !errors.Is(err, notation.ErrInvalidFEN) {
		t.Errorf("SetStartFEN(bogus) error = %v, want %v", err, notation.ErrInvalidFEN)
	}
	if err := gm.SetStartFEN(fen); err != nil {
		t.Fatalf("SetStartFEN error: %v", err)
	}
	if err := gm.CreateGame("g", ""); err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	snap, _ := gm.GetGameState("g")
	if snap.FEN != fen {
		t.Errorf("FEN = %q, want %q", snap.FEN, fen)
	}
}

func playFoolsMate(t *testing.T, gs *GameService, id string) {
	t.Helper()
	for i, token := range []string{"f2:f3", "e7:e5", "g2:g4", "d8:h4"} {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		if _, err := gs.HandleMove(id, player, token); err != nil {
			t.Fatalf("HandleMove(%s) error: %v", token, err)
		}
	}
}

type countingArchive struct {
	mu    sync.Mutex
	saved []storage.GameRecord
}

func (a *countingArchive) SaveGame(rec storage.GameRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, rec)
	return nil
}

func (a *countingArchive) LoadGame(id string) (storage.GameRecord, error) {
	return storage.GameRecord{}, storage.ErrRecordNotFound
}

func (a *countingArchive) List() ([]storage.GameRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]storage.GameRecord(nil), a.saved...), nil
}

// playWhenReady plays tokens in order for player, waiting for its turn.
func playWhenReady(gs *GameService, id, player string, tokens []string) error {
	for _, token := range tokens {
		for {
			_, err := gs.HandleMove(id, player, token)
			if errors.Is(err, model.ErrWrongTurn) {
				runtime.Gosched()
				continue
			}
			if err != nil {
				return err
			}
			break
		}
	}
	return nil
}

func TestHandleMove_ConcurrentPlayers(t *testing.T) {
	archive := &countingArchive{}
	gs := NewGameService(NewGameManager(archive))
	id := seatedGame(t, gs, "")

	watcher := &fakeConn{}
	gm := gs.gameManager
	game, _ := gm.GetGame(id)
	game.connections.mu.Lock()
	game.connections.connections["watcher"] = watcher
	game.connections.mu.Unlock()

	var white, black []string
	for i := 0; i < 10; i++ {
		white = append(white, "g1:f3", "f3:g1")
		black = append(black, "g8:f6", "f6:g8")
	}
	white = append(white, "f2:f3", "g2:g4")
	black = append(black, "e7:e5", "d8:h4")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for player, tokens := range map[string][]string{"alice": white, "bob": black} {
		wg.Add(1)
		go func(player string, tokens []string) {
			defer wg.Done()
			errs <- playWhenReady(gs, id, player, tokens)
		}(player, tokens)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("play error: %v", err)
		}
	}

	states := watcher.states(t)
	if len(states) != len(white)+len(black) {
		t.Fatalf("watcher got %d states, want %d", len(states), len(white)+len(black))
	}
	for i, s := range states {
		if len(s.MoveHistory) != i+1 {
			t.Fatalf("state %d carries %d moves, want %d", i, len(s.MoveHistory), i+1)
		}
	}
	if last := states[len(states)-1]; last.State.Result == nil || *last.State.Result != model.BlackWin {
		t.Errorf("final result = %v, want black_win", last.State.Result)
	}

	recs, _ := archive.List()
	if len(recs) != 1 {
		t.Errorf("game archived %d times, want once", len(recs))
	}
}
