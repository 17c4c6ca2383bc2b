package service

import (
	"context"

	"stagedoor/internal/cache"
	"stagedoor/internal/messaging"
	"stagedoor/internal/models"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"

	"github.com/google/uuid"
)

// ShowStore is the persistence surface the show service needs. Implemented
// by repository.ShowRepository; tests substitute an in-memory store.
type ShowStore interface {
	Create(ctx context.Context, show *models.Show) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Show, error)
	List(ctx context.Context, page, pageSize int) ([]*models.Show, int, error)
	Search(ctx context.Context, req *models.SearchShowsRequest) ([]*models.Show, int, error)
}

// ShowTimeStore is the persistence surface for scheduled performances.
type ShowTimeStore interface {
	Create(ctx context.Context, st *models.ShowTime) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ShowTime, error)
	GetByShowID(ctx context.Context, showID uuid.UUID) ([]models.ShowTime, error)
}

// BookingStore is the persistence surface for bookings. Reservation and
// release are atomic with the status change inside the store.
type BookingStore interface {
	CreateWithReservation(ctx context.Context, booking *models.Booking, reserveShowTime bool) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByContact(ctx context.Context, contactValue string) ([]*models.Booking, error)
	GetByShow(ctx context.Context, showID uuid.UUID) ([]*models.Booking, error)
	Search(ctx context.Context, filter *models.BookingFilter) ([]*models.Booking, int, error)
	Confirm(ctx context.Context, id string) (bool, error)
	Cancel(ctx context.Context, booking *models.Booking) (bool, error)
	StatsByShow(ctx context.Context, showID uuid.UUID) (*models.BookingStats, error)
}

type Services struct {
	Shows    *ShowService
	Bookings *BookingService
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, showCache *cache.ShowCache, esClient *search.ElasticsearchClient) *Services {
	showService := NewShowService(repos.Shows, repos.ShowTimes, showCache, esClient, natsClient)
	bookingService := NewBookingService(repos.Bookings, repos.Shows, repos.ShowTimes, showCache, natsClient)

	return &Services{
		Shows:    showService,
		Bookings: bookingService,
	}
}
