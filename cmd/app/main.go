package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/reosaurous172214/NovelNest-Backend/docs"

	"github.com/reosaurous172214/NovelNest-Backend/internal/config"
	"github.com/reosaurous172214/NovelNest-Backend/internal/db"
	"github.com/reosaurous172214/NovelNest-Backend/internal/email"
	"github.com/reosaurous172214/NovelNest-Backend/internal/logger"
	"github.com/reosaurous172214/NovelNest-Backend/internal/novel"
	"github.com/reosaurous172214/NovelNest-Backend/internal/search"
	"github.com/reosaurous172214/NovelNest-Backend/internal/server"
)

// @title NovelNest API
// @version 1.0
// @description API for the NovelNest serialized fiction platform.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting NovelNest application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	emailService := email.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer emailService.Close()
	logger.Info("Email service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	trie := search.NewTrie()
	if err := novel.ReindexAll(ctx, novel.NewRepository(database), trie); err != nil {
		logger.Errorf("Failed to build search index: %v", err)
	}
	logger.Infof("Search index built with %d titles", trie.Len())

	srv := server.New(database, cfg, emailService, trie)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
