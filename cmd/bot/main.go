package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wexpcoder/roadcrew/internal/application/services"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/config"
	infradiscord "github.com/wexpcoder/roadcrew/internal/infrastructure/discord"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/drive"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/repository"
	ifdiscord "github.com/wexpcoder/roadcrew/internal/interfaces/discord"
	"github.com/wexpcoder/roadcrew/internal/interfaces/http/routes"
	"github.com/wexpcoder/roadcrew/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := logger.Init(logger.Options{
		Level:     cfg.Log.Level,
		Output:    cfg.Log.Output,
		Format:    cfg.Log.Format,
		FilePath:  cfg.Log.FilePath,
		AddSource: cfg.Log.AddSource,
	}); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	storage, err := drive.NewClient(context.Background(), &cfg.Drive)
	if err != nil {
		log.Fatal("Failed to initialize drive client:", err)
	}

	repo, err := repository.NewRosterRepository(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to initialize roster repository:", err)
	}
	defer repo.Close()

	chat, err := infradiscord.NewClient(&cfg.Discord)
	if err != nil {
		log.Fatal("Failed to initialize discord client:", err)
	}

	container, err := services.NewServiceContainer(cfg, storage, chat, chat, repo)
	if err != nil {
		log.Fatal("Failed to initialize service container:", err)
	}
	defer container.Shutdown()

	handler := ifdiscord.NewHandler(chat, cfg.Discord.CommandPrefix,
		container.Sessions, container.Roster, container.Roles)
	handler.Register()

	if err := chat.Open(); err != nil {
		log.Fatal("Failed to connect to discord:", err)
	}
	defer chat.Close()

	if err := container.Scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}

	router := routes.SetupRoutes(container)
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Starting admin server", "address", addr)
		if err := router.Run(addr); err != nil {
			log.Fatal("Failed to start admin server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
}
