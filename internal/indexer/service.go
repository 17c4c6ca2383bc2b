package indexer

import (
	"context"
	"log/slog"

	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/messaging"
	"stagedoor/internal/models"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
)

// Service keeps the Elasticsearch index in sync with the database by
// consuming booking lifecycle events. The database stays the source of
// truth; the index only ever lags behind it.
type Service struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewService(cfg *config.Config) (*Service, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		natsClient.Close()
		db.Close()
		return nil, err
	}

	repos := repository.NewRepositories(db)
	handlers := NewHandlers(repos, esClient)

	return &Service{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (s *Service) Start() error {
	slog.Info("Starting index consumers")

	if _, err := s.nats.SubscribeQueue(models.EventShowCreated, "indexer", s.handlers.HandleShowCreated); err != nil {
		return err
	}
	if _, err := s.nats.SubscribeQueue(models.EventBookingCreated, "indexer", s.handlers.HandleBookingChanged); err != nil {
		return err
	}
	if _, err := s.nats.SubscribeQueue(models.EventBookingCancelled, "indexer", s.handlers.HandleBookingChanged); err != nil {
		return err
	}

	slog.Info("Index consumers started")
	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down indexer")

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
