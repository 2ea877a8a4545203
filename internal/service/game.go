package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"

	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/notation"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
	"github.com/benbeisheim/chesscore-backend/internal/ws"
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// Game is one live session: a rules state, its seats, the moves played so
// far and the sockets watching it.
type Game struct {
	ID          string
	mu          sync.Mutex
	startFEN    string
	state       *model.GameState
	players     Players
	history     []string
	lastMove    *model.Ply
	createdAt   time.Time
	connections *GameConnections
}

// Snapshot is the client view of a game.
type Snapshot struct {
	ID          string           `json:"id"`
	FEN         string           `json:"fen"`
	State       *model.GameState `json:"state"`
	InCheck     bool             `json:"inCheck"`
	Players     Players          `json:"players"`
	MoveHistory []string         `json:"moveHistory"`
	LastMove    *model.Ply       `json:"lastMove"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NewGame starts a game from state. The result is evaluated immediately so
// a position that is already mate or stalemate is reported as such.
func NewGame(id string, state *model.GameState) *Game {
	state.CheckGameEnded()
	return &Game{
		ID:          id,
		startFEN:    notation.FormatFEN(state),
		state:       state,
		history:     make([]string, 0),
		createdAt:   time.Now(),
		connections: NewGameConnections(),
	}
}

func (g *Game) AddPlayer(playerID string) (model.Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		return color, nil
	}
	if g.players.White == "" {
		g.players.White = playerID
		return model.White, nil
	}
	if g.players.Black == "" {
		g.players.Black = playerID
		return model.Black, nil
	}
	return "", ErrGameFull
}

func (g *Game) colorOf(playerID string) (model.Color, bool) {
	switch {
	case playerID == "":
		return "", false
	case g.players.White == playerID:
		return model.White, true
	case g.players.Black == playerID:
		return model.Black, true
	}
	return "", false
}

func (g *Game) canSpectate() bool {
	return g.players.White == "" || g.players.Black == ""
}

func (g *Game) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Ended()
}

// Move applies m for playerID, who must hold the colour to move, and sends
// the new state to every connection before the game is unlocked. finished
// is true only for the move that ended the game.
func (g *Game) Move(playerID string, m notation.Move) (snap Snapshot, finished bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, ok := g.colorOf(playerID)
	if !ok {
		return Snapshot{}, false, ErrNotInGame
	}
	if !g.state.Ended() && color != g.state.SideToMove {
		return Snapshot{}, false, &model.MoveError{From: m.From, To: m.To, Err: model.ErrWrongTurn}
	}

	// Apply refuses moves once the game is over, so a successful move that
	// leaves it ended is the one that finished it.
	ply, err := g.state.Apply(m.From, m.To, m.PromotionPiece(color))
	if err != nil {
		return Snapshot{}, false, err
	}
	g.history = append(g.history, ply.Notation())
	g.lastMove = &ply

	snap = g.snapshot()
	g.broadcast(snap)
	return snap, g.state.Ended(), nil
}

// Destinations lists the legal destinations of the piece on from. Either
// colour may be queried.
func (g *Game) Destinations(from model.Position) (model.PositionSet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	piece, ok := g.state.Board.Get(from)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPieceOnSquare, from)
	}
	if g.state.Ended() {
		return model.NewPositionSet(), nil
	}
	return model.LegalDestinations(g.state, piece, from), nil
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Game) snapshot() Snapshot {
	history := make([]string, len(g.history))
	copy(history, g.history)
	var last *model.Ply
	if g.lastMove != nil {
		ply := *g.lastMove
		last = &ply
	}
	return Snapshot{
		ID:          g.ID,
		FEN:         notation.FormatFEN(g.state),
		State:       g.state.Clone(),
		InCheck:     model.InCheck(g.state, g.state.SideToMove),
		Players:     g.players,
		MoveHistory: history,
		LastMove:    last,
		CreatedAt:   g.createdAt,
	}
}

// Record builds the archive entry. It is only meaningful once the game has
// ended.
func (g *Game) Record() storage.GameRecord {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := storage.GameRecord{
		ID:         g.ID,
		StartFEN:   g.startFEN,
		FinalFEN:   notation.FormatFEN(g.state),
		Moves:      append([]string(nil), g.history...),
		StartedAt:  g.createdAt.UTC(),
		FinishedAt: time.Now().UTC(),
	}
	if g.state.Result != nil {
		rec.Result = *g.state.Result
	}
	return rec
}

func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	_, seated := g.colorOf(playerID)
	isAuthorized := seated || g.canSpectate()
	g.mu.Unlock()

	if !isAuthorized {
		return ErrNotAuthorized
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// Keep the healthy connection and turn the newcomer away.
		g.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "connection already exists"),
		)
		conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	log.Debugf("game %s: registered connection for player %s", g.ID, playerID)

	g.BroadcastState()
	return nil
}

// UnregisterConnection drops playerID's connection if it is still conn.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		delete(g.connections.connections, playerID)
		log.Debugf("game %s: unregistered connection for player %s", g.ID, playerID)
	}
}

// BroadcastState sends the current snapshot to every connection.
func (g *Game) BroadcastState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcast(g.snapshot())
}

// broadcast must be called with g.mu held, which keeps snapshots going out
// in move order. A connection that fails to take the write is dropped.
func (g *Game) broadcast(snap Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Errorf("game %s: marshal state: %v", g.ID, err)
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	for playerID, conn := range g.connections.connections {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnf("game %s: send state to player %s: %v", g.ID, playerID, err)
			delete(g.connections.connections, playerID)
		}
	}
}

func (g *Game) connectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}
