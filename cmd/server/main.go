package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	"github.com/benbeisheim/chesscore-backend/internal/config"
	"github.com/benbeisheim/chesscore-backend/internal/controller"
	"github.com/benbeisheim/chesscore-backend/internal/middleware"
	"github.com/benbeisheim/chesscore-backend/internal/service"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.Level())

	archive, err := storage.Open(cfg.DataDir, cfg.InMemoryArchive)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer archive.Close()

	gameManager := service.NewGameManager(archive)
	if err := gameManager.SetStartFEN(cfg.StartFEN); err != nil {
		log.Fatalf("start position: %v", err)
	}
	gameService := service.NewGameService(gameManager)

	app := newApp(cfg, gameService)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("listening on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Errorf("listen: %v", err)
	}
}

func newApp(cfg config.Config, gameService *service.GameService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "chesscore",
	})

	origins, credentials := allowedOrigins(cfg)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: credentials,
	}))
	app.Use(logger.New())

	gameController := controller.NewGameController(gameService)
	wsController := controller.NewWebSocketController(gameService)

	app.Use("/ws/*", middleware.EnsurePlayerID())
	app.Get("/ws/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}))

	gameController.RegisterRoutes(app.Group("/api", middleware.EnsurePlayerID()))
	return app
}
