package indexer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"stagedoor/internal/repository"
	"stagedoor/internal/search"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"
)

const reindexTimeout = 10 * time.Second

type Handlers struct {
	repos    *repository.Repositories
	esClient *search.ElasticsearchClient
}

func NewHandlers(repos *repository.Repositories, esClient *search.ElasticsearchClient) *Handlers {
	return &Handlers{
		repos:    repos,
		esClient: esClient,
	}
}

// HandleShowCreated indexes a freshly created show.
func (h *Handlers) HandleShowCreated(m *stan.Msg) {
	var event struct {
		ShowID string `json:"show_id"`
	}
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal show created event", "error", err)
		return
	}

	if h.reindexShow(event.ShowID) {
		m.Ack()
	}
}

// HandleBookingChanged refreshes the show document whenever a booking
// reserves or releases seats, so indexed availability tracks the database.
func (h *Handlers) HandleBookingChanged(m *stan.Msg) {
	var event struct {
		ShowID string `json:"show_id"`
	}
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking event", "error", err)
		return
	}

	if h.reindexShow(event.ShowID) {
		m.Ack()
	}
}

// reindexShow reads the show from the database and writes it to the index.
// Returns false when the message should be redelivered.
func (h *Handlers) reindexShow(showID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
	defer cancel()

	id, err := uuid.Parse(showID)
	if err != nil {
		slog.Error("Invalid show id in event", "show_id", showID, "error", err)
		return true
	}

	show, err := h.repos.Shows.GetByID(ctx, id)
	if err != nil {
		slog.Error("Failed to load show", "show_id", showID, "error", err)
		return false
	}
	if show == nil {
		slog.Warn("Show referenced by event no longer exists", "show_id", showID)
		if err := h.esClient.DeleteShow(ctx, showID); err != nil {
			slog.Error("Failed to remove stale show document", "show_id", showID, "error", err)
			return false
		}
		return true
	}

	if err := h.esClient.IndexShow(ctx, show); err != nil {
		slog.Error("Failed to index show", "show_id", showID, "error", err)
		return false
	}

	slog.Info("Reindexed show", "show_id", showID)
	return true
}
