// service/game_manager.go
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/notation"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
)

// Archive stores finished games. *storage.Archive satisfies it.
type Archive interface {
	SaveGame(rec storage.GameRecord) error
	LoadGame(id string) (storage.GameRecord, error)
	List() ([]storage.GameRecord, error)
}

type GameManager struct {
	games    map[string]*Game
	queue    *Queue
	matches  map[string]MatchFoundEvent // playerID -> pairing not yet collected
	archive  Archive
	startFEN string // used when a game is created without a position
	mu       sync.RWMutex
}

// NewGameManager returns a manager that archives finished games into
// archive. A nil archive disables archiving.
func NewGameManager(archive Archive) *GameManager {
	return &GameManager{
		games:    make(map[string]*Game),
		queue:    NewQueue(),
		matches:  make(map[string]MatchFoundEvent),
		archive:  archive,
		startFEN: notation.InitialFEN,
	}
}

// SetStartFEN changes the position new games start from when none is given.
func (gm *GameManager) SetStartFEN(fen string) error {
	if _, err := notation.ParseFEN(fen); err != nil {
		return err
	}
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.startFEN = fen
	return nil
}

// CreateGame registers a game starting from fen. An empty fen means the
// manager's start position.
func (gm *GameManager) CreateGame(gameID, fen string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if fen == "" {
		fen = gm.startFEN
	}
	state, err := notation.ParseFEN(fen)
	if err != nil {
		return err
	}

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}
	gm.games[gameID] = NewGame(gameID, state)
	log.Infof("created game %s from %q", gameID, fen)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	color, err := game.AddPlayer(playerID)
	if err != nil {
		return "", err
	}
	log.Infof("player %s joined game %s as %s", playerID, gameID, color)
	return color, nil
}

// JoinMatchmaking queues playerID and pairs waiting players. The returned
// event is set when playerID was matched right away.
func (gm *GameManager) JoinMatchmaking(playerID string) (*MatchFoundEvent, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if ev, ok := gm.matches[playerID]; ok {
		delete(gm.matches, playerID)
		return &ev, nil
	}
	if err := gm.queue.AddPlayer(Player{ID: playerID}); err != nil {
		return nil, err
	}
	gm.pairQueued()

	if ev, ok := gm.matches[playerID]; ok {
		delete(gm.matches, playerID)
		return &ev, nil
	}
	return nil, nil
}

// MatchFor hands out, once, the pairing made for a player who was waiting.
func (gm *GameManager) MatchFor(playerID string) (MatchFoundEvent, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	ev, ok := gm.matches[playerID]
	if ok {
		delete(gm.matches, playerID)
	}
	return ev, ok
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.Remove(playerID)
}

// pairQueued must be called with gm.mu held.
func (gm *GameManager) pairQueued() {
	for {
		p1, p2, ok := gm.queue.NextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := NewGame(gameID, notation.MustParseFEN(gm.startFEN))
		c1, err := game.AddPlayer(p1.ID)
		if err != nil {
			log.Errorf("matchmaking: seat %s: %v", p1.ID, err)
			continue
		}
		c2, err := game.AddPlayer(p2.ID)
		if err != nil {
			log.Errorf("matchmaking: seat %s: %v", p2.ID, err)
			continue
		}
		gm.games[gameID] = game
		gm.matches[p1.ID] = MatchFoundEvent{GameID: gameID, Color: c1}
		gm.matches[p2.ID] = MatchFoundEvent{GameID: gameID, Color: c2}
		log.Infof("matched %s and %s in game %s", p1.ID, p2.ID, gameID)
	}
}

func (gm *GameManager) GetGameState(gameID string) (Snapshot, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	return game.Snapshot(), nil
}

func (gm *GameManager) LegalDestinations(gameID string, from model.Position) (model.PositionSet, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.Destinations(from)
}

// MakeMove applies the move, broadcasts the new state and archives the game
// if the move ended it.
func (gm *GameManager) MakeMove(gameID string, playerID string, move notation.Move) (Snapshot, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	snap, finished, err := game.Move(playerID, move)
	if err != nil {
		return Snapshot{}, err
	}
	log.Debugf("game %s: %s played %s", gameID, playerID, snap.LastMove.Notation())

	if finished {
		log.Infof("game %s finished: %s", gameID, *snap.State.Result)
		gm.archiveGame(game)
	}
	return snap, nil
}

func (gm *GameManager) archiveGame(game *Game) {
	if gm.archive == nil {
		return
	}
	if err := gm.archive.SaveGame(game.Record()); err != nil {
		log.Errorf("archive game %s: %v", game.ID, err)
	}
}

func (gm *GameManager) ArchivedGame(gameID string) (storage.GameRecord, error) {
	if gm.archive == nil {
		return storage.GameRecord{}, ErrArchiveDisabled
	}
	rec, err := gm.archive.LoadGame(gameID)
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("load archived game %s: %w", gameID, err)
	}
	return rec, nil
}

// ArchivedGames lists every archived game, oldest first.
func (gm *GameManager) ArchivedGames() ([]storage.GameRecord, error) {
	if gm.archive == nil {
		return nil, ErrArchiveDisabled
	}
	recs, err := gm.archive.List()
	if err != nil {
		return nil, fmt.Errorf("list archived games: %w", err)
	}
	return recs, nil
}

// QueuedSince reports when playerID joined the matchmaking queue.
func (gm *GameManager) QueuedSince(playerID string) (time.Time, bool) {
	return gm.queue.JoinedAt(playerID)
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}
