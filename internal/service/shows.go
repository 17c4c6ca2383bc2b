package service

import (
	"context"
	"fmt"
	"time"

	"stagedoor/internal/cache"
	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/logger"
	"stagedoor/internal/messaging"
	"stagedoor/internal/models"
	"stagedoor/internal/search"

	"github.com/google/uuid"
)

type ShowService struct {
	shows      ShowStore
	showTimes  ShowTimeStore
	showCache  *cache.ShowCache
	esClient   *search.ElasticsearchClient
	natsClient *messaging.NATSClient
}

func NewShowService(shows ShowStore, showTimes ShowTimeStore, showCache *cache.ShowCache, esClient *search.ElasticsearchClient, natsClient *messaging.NATSClient) *ShowService {
	return &ShowService{
		shows:      shows,
		showTimes:  showTimes,
		showCache:  showCache,
		esClient:   esClient,
		natsClient: natsClient,
	}
}

func (s *ShowService) Create(ctx context.Context, req *models.CreateShowRequest) (*models.ShowResponse, error) {
	showDate := time.Now().UTC().AddDate(0, 0, 30)
	if req.ShowDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.ShowDate)
		if err != nil {
			return nil, fmt.Errorf("%w: show_date must be RFC 3339", apperrors.ErrValidation)
		}
		showDate = parsed
	}

	showNumber := req.ShowNumber
	if showNumber == "" {
		showNumber = models.NewShowNumber()
	}

	show := &models.Show{
		ID:           uuid.New(),
		Name:         req.Name,
		Details:      req.Details,
		Price:        req.Price,
		TotalTickets: req.TotalTickets,
		Location:     req.Location,
		ShowNumber:   showNumber,
		ShowDate:     showDate,
		Images:       req.Images,
		Videos:       req.Videos,
	}

	if err := s.shows.Create(ctx, show); err != nil {
		return nil, fmt.Errorf("failed to create show: %w", err)
	}

	s.indexShow(ctx, show)
	s.publish(ctx, models.EventShowCreated, models.ShowCreatedEvent{
		ShowID:    show.ID.String(),
		Name:      show.Name,
		Timestamp: time.Now().UTC(),
	})

	return models.NewShowResponse(show, nil), nil
}

// Get resolves a show by id, cache first. A cache failure is logged and
// falls through to the database; it never fails the read.
func (s *ShowService) Get(ctx context.Context, id string) (*models.ShowResponse, error) {
	showID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid show id %q", apperrors.ErrValidation, id)
	}

	show := s.cachedShow(ctx, showID)
	if show == nil {
		show, err = s.shows.GetByID(ctx, showID)
		if err != nil {
			return nil, fmt.Errorf("failed to get show: %w", err)
		}
		if show == nil {
			return nil, fmt.Errorf("show %s: %w", id, apperrors.ErrNotFound)
		}
		s.cacheShow(ctx, show)
	}

	times, err := s.showTimes.GetByShowID(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to get show times: %w", err)
	}

	return models.NewShowResponse(show, times), nil
}

func (s *ShowService) List(ctx context.Context, page, pageSize int) (*models.ListShowsResponse, error) {
	shows, total, err := s.shows.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}

	return &models.ListShowsResponse{
		Shows:      s.toResponses(shows),
		Pagination: models.NewPagination(page, pageSize, total),
	}, nil
}

// Search filters the catalog. When Elasticsearch is configured it answers
// the query and the matching rows are re-read from the database, so results
// always reflect committed state; any index failure falls back to the
// database search path.
func (s *ShowService) Search(ctx context.Context, req *models.SearchShowsRequest) (*models.SearchShowsResponse, error) {
	req.Normalize()

	if s.esClient != nil {
		if resp, err := s.searchWithIndex(ctx, req); err == nil {
			return resp, nil
		} else {
			logger.WithContext(ctx).Warn("Search index unavailable, falling back to database",
				"error", err)
		}
	}

	shows, total, err := s.shows.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search shows: %w", err)
	}

	return &models.SearchShowsResponse{
		Shows:      s.toResponses(shows),
		Pagination: models.NewPagination(req.Page, req.PageSize, total),
	}, nil
}

func (s *ShowService) searchWithIndex(ctx context.Context, req *models.SearchShowsRequest) (*models.SearchShowsResponse, error) {
	ids, total, err := s.esClient.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	shows := make([]*models.Show, 0, len(ids))
	for _, id := range ids {
		showID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		show, err := s.shows.GetByID(ctx, showID)
		if err != nil {
			return nil, err
		}
		if show != nil {
			shows = append(shows, show)
		}
	}

	return &models.SearchShowsResponse{
		Shows:      s.toResponses(shows),
		Pagination: models.NewPagination(req.Page, req.PageSize, total),
	}, nil
}

// CreateShowTime schedules a performance for an existing show. A showtime
// with total_seats carries its own inventory; without it, bookings draw
// from the parent show's aggregate counts.
func (s *ShowService) CreateShowTime(ctx context.Context, showID string, req *models.CreateShowTimeRequest) (*models.ShowTime, error) {
	parentID, err := uuid.Parse(showID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid show id %q", apperrors.ErrValidation, showID)
	}

	if req.TotalSeats != nil && *req.TotalSeats < 0 {
		return nil, fmt.Errorf("%w: total_seats must not be negative", apperrors.ErrValidation)
	}

	show, err := s.shows.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("show %s: %w", showID, apperrors.ErrNotFound)
	}

	st := &models.ShowTime{
		ID:         uuid.New(),
		ShowID:     parentID,
		Date:       req.Date,
		Time:       req.Time,
		TotalSeats: req.TotalSeats,
	}
	if st.TotalSeats != nil {
		booked := int32(0)
		st.BookedSeats = &booked
	}

	if err := s.showTimes.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create show time: %w", err)
	}

	return st, nil
}

func (s *ShowService) ListShowTimes(ctx context.Context, showID string) ([]models.ShowTime, error) {
	parentID, err := uuid.Parse(showID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid show id %q", apperrors.ErrValidation, showID)
	}

	show, err := s.shows.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("show %s: %w", showID, apperrors.ErrNotFound)
	}

	return s.showTimes.GetByShowID(ctx, parentID)
}

func (s *ShowService) toResponses(shows []*models.Show) []*models.ShowResponse {
	result := make([]*models.ShowResponse, len(shows))
	for i, show := range shows {
		result[i] = models.NewShowResponse(show, nil)
	}
	return result
}

func (s *ShowService) cachedShow(ctx context.Context, id uuid.UUID) *models.Show {
	if s.showCache == nil {
		return nil
	}
	show, err := s.showCache.GetShow(ctx, id.String())
	if err != nil {
		logger.WithContext(ctx).Warn("Show cache lookup failed", "error", err, "show_id", id)
		return nil
	}
	return show
}

func (s *ShowService) cacheShow(ctx context.Context, show *models.Show) {
	if s.showCache == nil {
		return
	}
	if err := s.showCache.SetShow(ctx, show); err != nil {
		logger.WithContext(ctx).Warn("Failed to cache show", "error", err, "show_id", show.ID)
	}
}

func (s *ShowService) indexShow(ctx context.Context, show *models.Show) {
	if s.esClient == nil {
		return
	}
	if err := s.esClient.IndexShow(ctx, show); err != nil {
		logger.WithContext(ctx).Warn("Failed to index show", "error", err, "show_id", show.ID)
	}
}

func (s *ShowService) publish(ctx context.Context, subject string, data interface{}) {
	if s.natsClient == nil {
		return
	}
	if err := s.natsClient.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err, "subject", subject)
	}
}
