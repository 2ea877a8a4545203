package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/benbeisheim/chesscore-backend/internal/middleware"
	"github.com/benbeisheim/chesscore-backend/internal/service"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
	"github.com/benbeisheim/chesscore-backend/internal/ws"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type createGameRequest struct {
	FEN string `json:"fen"`
}

type moveRequest struct {
	Move string `json:"move"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	gameID, err := gc.gameService.CreateGame(req.FEN)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"gameId":  gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := middleware.PlayerID(c)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	snap, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

func (gc *GameController) GetLegalMoves(c *fiber.Ctx) error {
	square := c.Params("square")
	dests, err := gc.gameService.LegalMoves(c.Params("gameId"), square)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ws.MovesPayload{
		Square:       square,
		Destinations: destinationList(dests),
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	snap, err := gc.gameService.HandleMove(c.Params("gameId"), middleware.PlayerID(c), req.Move)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	ev, err := gc.gameService.JoinMatchmaking(middleware.PlayerID(c))
	if err != nil {
		return respondError(c, err)
	}
	if ev == nil {
		return c.JSON(fiber.Map{
			"status": "queued",
		})
	}
	return c.JSON(fiber.Map{
		"status": "matched",
		"gameId": ev.GameID,
		"color":  ev.Color,
	})
}

func (gc *GameController) MatchmakingStatus(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)
	ev, ok := gc.gameService.MatchmakingStatus(playerID)
	if !ok {
		resp := fiber.Map{
			"status": "waiting",
		}
		if since, queued := gc.gameService.QueuedSince(playerID); queued {
			resp["queuedSince"] = since
		}
		return c.JSON(resp)
	}
	return c.JSON(fiber.Map{
		"status": "matched",
		"gameId": ev.GameID,
		"color":  ev.Color,
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if !gc.gameService.LeaveMatchmaking(middleware.PlayerID(c)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "player is not queued",
		})
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}

func (gc *GameController) GetArchivedGame(c *fiber.Ctx) error {
	rec, err := gc.gameService.ArchivedGame(c.Params("gameId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

func (gc *GameController) ListArchivedGames(c *fiber.Ctx) error {
	recs, err := gc.gameService.ArchivedGames()
	if err != nil {
		return respondError(c, err)
	}
	if recs == nil {
		recs = []storage.GameRecord{}
	}
	return c.JSON(recs)
}

// RegisterRoutes mounts the REST API on router.
func (gc *GameController) RegisterRoutes(router fiber.Router) {
	gameRoutes := router.Group("/game")
	gameRoutes.Post("/matchmaking/join", gc.JoinMatchmaking)
	gameRoutes.Get("/matchmaking/status", gc.MatchmakingStatus)
	gameRoutes.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Post("/join/:gameId", gc.JoinGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Get("/:gameId/moves/:square", gc.GetLegalMoves)
	gameRoutes.Post("/:gameId/move", gc.MakeMove)

	router.Get("/archive", gc.ListArchivedGames)
	router.Get("/archive/:gameId", gc.GetArchivedGame)
}
