package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/benbeisheim/chesscore-backend/internal/middleware"
	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/service"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	archive, err := storage.Open("", true)
	if err != nil {
		t.Fatalf("storage.Open error: %v", err)
	}
	t.Cleanup(func() { archive.Close() })

	gs := service.NewGameService(service.NewGameManager(archive))
	app := fiber.New()
	NewGameController(gs).RegisterRoutes(app.Group("/api", middleware.EnsurePlayerID()))
	return app
}

func do(t *testing.T, app *fiber.App, method, target, player, body string, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if player != "" {
		req.Header.Set("X-Player-ID", player)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode body: %v", method, target, err)
		}
	}
	return resp.StatusCode
}

func createSeated(t *testing.T, app *fiber.App, fen string) string {
	t.Helper()
	var created struct {
		GameID string `json:"gameId"`
	}
	body := ""
	if fen != "" {
		body = `{"fen":"` + fen + `"}`
	}
	if code := do(t, app, "POST", "/api/game/create", "alice", body, &created); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	for _, p := range []string{"alice", "bob"} {
		if code := do(t, app, "POST", "/api/game/join/"+created.GameID, p, "", nil); code != http.StatusOK {
			t.Fatalf("join(%s) status = %d", p, code)
		}
	}
	return created.GameID
}

func TestCreateAndGetGame(t *testing.T) {
	app := newTestApp(t)
	fen := "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1"
	id := createSeated(t, app, fen)

	var snap service.Snapshot
	if code := do(t, app, "GET", "/api/game/"+id, "carol", "", &snap); code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	if snap.FEN != fen || snap.ID != id {
		t.Errorf("snapshot = %s %q, want %s %q", snap.ID, snap.FEN, id, fen)
	}
	if diff := cmp.Diff(service.Players{White: "alice", Black: "bob"}, snap.Players); diff != "" {
		t.Errorf("Players mismatch (-want +got):\n%s", diff)
	}
	if got, ok := snap.State.Board.Get(model.Pos(6, 4)); !ok || got != model.NewPiece(model.Pawn, model.White) {
		t.Errorf("board e2 = %v, want white pawn", got)
	}
}

func TestRequestErrors(t *testing.T) {
	app := newTestApp(t)
	id := createSeated(t, app, "")

	tests := []struct {
		name   string
		method string
		target string
		player string
		body   string
		want   int
	}{
		{"no player id", "GET", "/api/game/" + id, "", "", http.StatusUnauthorized},
		{"bad fen", "POST", "/api/game/create", "alice", `{"fen":"8/8 w"}`, http.StatusBadRequest},
		{"missing game", "GET", "/api/game/nope", "alice", "", http.StatusNotFound},
		{"game full", "POST", "/api/game/join/" + id, "carol", "", http.StatusConflict},
		{"bad square", "GET", "/api/game/" + id + "/moves/k9", "alice", "", http.StatusBadRequest},
		{"empty square", "GET", "/api/game/" + id + "/moves/e4", "alice", "", http.StatusNotFound},
		{"bad token", "POST", "/api/game/" + id + "/move", "alice", `{"move":"e2e4"}`, http.StatusBadRequest},
		{"illegal move", "POST", "/api/game/" + id + "/move", "alice", `{"move":"e2:e5"}`, http.StatusConflict},
		{"wrong turn", "POST", "/api/game/" + id + "/move", "bob", `{"move":"e7:e5"}`, http.StatusConflict},
		{"outsider", "POST", "/api/game/" + id + "/move", "carol", `{"move":"e2:e4"}`, http.StatusForbidden},
		{"not archived", "GET", "/api/archive/" + id, "alice", "", http.StatusNotFound},
		{"leave without queue", "POST", "/api/game/matchmaking/leave", "alice", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]interface{}
			if got := do(t, app, tt.method, tt.target, tt.player, tt.body, &body); got != tt.want {
				t.Errorf("status = %d, want %d (body %v)", got, tt.want, body)
			}
			if _, ok := body["error"]; !ok {
				t.Errorf("body %v has no error field", body)
			}
		})
	}
}

func TestLegalMovesEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createSeated(t, app, "")

	var got struct {
		Square       string   `json:"square"`
		Destinations []string `json:"destinations"`
	}
	if code := do(t, app, "GET", "/api/game/"+id+"/moves/b1", "alice", "", &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if diff := cmp.Diff([]string{"a3", "c3"}, got.Destinations); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayToMateAndArchive(t *testing.T) {
	app := newTestApp(t)
	id := createSeated(t, app, "")

	moves := []struct{ player, move string }{
		{"alice", "f2:f3"},
		{"bob", "e7:e5"},
		{"alice", "g2:g4"},
		{"bob", "d8:h4"},
	}
	var snap service.Snapshot
	for _, m := range moves {
		if code := do(t, app, "POST", "/api/game/"+id+"/move", m.player, `{"move":"`+m.move+`"}`, &snap); code != http.StatusOK {
			t.Fatalf("move %s status = %d", m.move, code)
		}
	}
	if snap.State.Result == nil || *snap.State.Result != model.BlackWin {
		t.Fatalf("Result = %v, want black_win", snap.State.Result)
	}

	var body map[string]interface{}
	if code := do(t, app, "POST", "/api/game/"+id+"/move", "alice", `{"move":"a2:a3"}`, &body); code != http.StatusConflict {
		t.Errorf("move after mate status = %d, want 409", code)
	}

	var rec storage.GameRecord
	if code := do(t, app, "GET", "/api/archive/"+id, "carol", "", &rec); code != http.StatusOK {
		t.Fatalf("archive status = %d", code)
	}
	if rec.Result != model.BlackWin || len(rec.Moves) != 4 {
		t.Errorf("archived record = %+v", rec)
	}

	var recs []storage.GameRecord
	if code := do(t, app, "GET", "/api/archive", "carol", "", &recs); code != http.StatusOK {
		t.Fatalf("archive list status = %d", code)
	}
	if len(recs) != 1 || recs[0].ID != id {
		t.Errorf("archive list = %+v, want only %s", recs, id)
	}
}

func TestArchiveListEmpty(t *testing.T) {
	app := newTestApp(t)
	var recs []storage.GameRecord
	if code := do(t, app, "GET", "/api/archive", "alice", "", &recs); code != http.StatusOK {
		t.Fatalf("archive list status = %d", code)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("archive list = %#v, want an empty array", recs)
	}
}

func TestMatchmakingEndpoints(t *testing.T) {
	app := newTestApp(t)

	var first, second, status map[string]interface{}
	if code := do(t, app, "POST", "/api/game/matchmaking/join", "alice", "", &first); code != http.StatusOK || first["status"] != "queued" {
		t.Fatalf("alice join = %d %v", code, first)
	}
	if code := do(t, app, "GET", "/api/game/matchmaking/status", "alice", "", &status); code != http.StatusOK || status["status"] != "waiting" {
		t.Fatalf("alice status = %d %v", code, status)
	}
	if _, ok := status["queuedSince"].(string); !ok {
		t.Errorf("waiting status has no queuedSince: %v", status)
	}
	if code := do(t, app, "POST", "/api/game/matchmaking/join", "bob", "", &second); code != http.StatusOK || second["status"] != "matched" {
		t.Fatalf("bob join = %d %v", code, second)
	}
	if second["color"] != "black" {
		t.Errorf("bob colour = %v, want black", second["color"])
	}

	status = nil
	do(t, app, "GET", "/api/game/matchmaking/status", "alice", "", &status)
	if status["status"] != "matched" || status["gameId"] != second["gameId"] || status["color"] != "white" {
		t.Errorf("alice status = %v, want matched as white in %v", status, second["gameId"])
	}
}
