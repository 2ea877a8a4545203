package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/notation"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
)

// GameService is the string-typed surface the controllers talk to. It
// parses squares and move tokens and leaves the rest to the GameManager.
type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

func (gs *GameService) CreateGame(fen string) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID, fen); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) (*MatchFoundEvent, error) {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) MatchmakingStatus(playerID string) (MatchFoundEvent, bool) {
	return gs.gameManager.MatchFor(playerID)
}

func (gs *GameService) QueuedSince(playerID string) (time.Time, bool) {
	return gs.gameManager.QueuedSince(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (Snapshot, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) LegalMoves(gameID string, square string) (model.PositionSet, error) {
	from, err := notation.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	return gs.gameManager.LegalDestinations(gameID, from)
}

// HandleMove parses a "from:to[=P]" token and plays it for playerID.
func (gs *GameService) HandleMove(gameID string, playerID string, token string) (Snapshot, error) {
	move, err := notation.ParseMove(token)
	if err != nil {
		return Snapshot{}, err
	}
	return gs.gameManager.MakeMove(gameID, playerID, move)
}

func (gs *GameService) ArchivedGame(gameID string) (storage.GameRecord, error) {
	return gs.gameManager.ArchivedGame(gameID)
}

func (gs *GameService) ArchivedGames() ([]storage.GameRecord, error) {
	return gs.gameManager.ArchivedGames()
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}
