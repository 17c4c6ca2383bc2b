package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagedoor/internal/config"
	"stagedoor/internal/indexer"
	"stagedoor/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// The indexer only makes sense with both backends present, regardless
	// of how the API is configured.
	cfg.NATS.Enabled = true
	cfg.NATS.ClientID = "stagedoor-indexer"
	cfg.Elasticsearch.Enabled = true

	svc, err := indexer.NewService(cfg)
	if err != nil {
		logger.Fatal("Failed to create indexer service", "error", err)
	}

	if err := svc.Start(); err != nil {
		logger.Fatal("Failed to start index consumers", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down indexer service")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("Indexer service stopped")
}
