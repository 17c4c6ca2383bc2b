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

	"github.com/google/uuid"
)

type BookingService struct {
	bookings   BookingStore
	shows      ShowStore
	showTimes  ShowTimeStore
	showCache  *cache.ShowCache
	natsClient *messaging.NATSClient
}

func NewBookingService(bookings BookingStore, shows ShowStore, showTimes ShowTimeStore, showCache *cache.ShowCache, natsClient *messaging.NATSClient) *BookingService {
	return &BookingService{
		bookings:   bookings,
		shows:      shows,
		showTimes:  showTimes,
		showCache:  showCache,
		natsClient: natsClient,
	}
}

// Create validates the request, snapshots the price, and reserves seats
// atomically with the booking insert. The booking starts as pending; the
// explicit confirm step is a separate call. On any failure nothing is
// persisted and no seats move.
func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	if req.NumberOfTickets < 1 {
		return nil, fmt.Errorf("%w: number_of_tickets must be at least 1", apperrors.ErrValidation)
	}
	if !req.ValidContact() {
		return nil, fmt.Errorf("%w: contact_type must be mobile or email with a matching contact_value", apperrors.ErrValidation)
	}

	showID, err := uuid.Parse(req.ShowID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid show id %q", apperrors.ErrValidation, req.ShowID)
	}

	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("show %s: %w", req.ShowID, apperrors.ErrNotFound)
	}

	var showTimeID *uuid.UUID
	reserveShowTime := false
	if req.ShowTimeID != "" {
		stID, err := uuid.Parse(req.ShowTimeID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid show_time id %q", apperrors.ErrValidation, req.ShowTimeID)
		}
		st, err := s.showTimes.GetByID(ctx, stID)
		if err != nil {
			return nil, fmt.Errorf("failed to get show time: %w", err)
		}
		if st == nil {
			return nil, fmt.Errorf("showtime %s: %w", req.ShowTimeID, apperrors.ErrNotFound)
		}
		if st.ShowID != showID {
			return nil, fmt.Errorf("%w: showtime %s does not belong to show %s", apperrors.ErrValidation, req.ShowTimeID, req.ShowID)
		}
		showTimeID = &stID
		reserveShowTime = st.HasOwnInventory()
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:              models.NewBookingID(showID, req.ContactType, req.ContactValue, now, req.NumberOfTickets),
		ShowID:          showID,
		ShowTimeID:      showTimeID,
		ContactType:     req.ContactType,
		ContactValue:    req.ContactValue,
		NumberOfTickets: req.NumberOfTickets,
		CustomerName:    req.CustomerName,
		TotalAmount:     show.Price * int64(req.NumberOfTickets),
		BookingDate:     now,
		Status:          models.BookingStatusPending,
	}

	if err := s.bookings.CreateWithReservation(ctx, booking, reserveShowTime); err != nil {
		return nil, err
	}

	s.invalidateShow(ctx, showID)
	s.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:       booking.ID,
		ShowID:          booking.ShowID.String(),
		ShowTimeID:      req.ShowTimeID,
		NumberOfTickets: booking.NumberOfTickets,
		TotalAmount:     booking.TotalAmount,
		Timestamp:       now,
	})

	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", id, apperrors.ErrNotFound)
	}
	return booking, nil
}

// Confirm transitions a pending booking to confirmed. Seats were reserved
// at creation, so nothing moves on the counters.
func (s *BookingService) Confirm(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.CanConfirm() {
		return nil, fmt.Errorf("%w: cannot confirm booking %s in status %s", apperrors.ErrInvalidStateTransition, id, booking.Status)
	}

	applied, err := s.bookings.Confirm(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if !applied {
		// Raced with another transition between read and update.
		return nil, fmt.Errorf("%w: booking %s is no longer pending", apperrors.ErrInvalidStateTransition, id)
	}

	booking.Status = models.BookingStatusConfirmed
	booking.UpdatedAt = time.Now().UTC()

	s.publish(ctx, models.EventBookingConfirmed, models.BookingConfirmedEvent{
		BookingID: booking.ID,
		ShowID:    booking.ShowID.String(),
		Timestamp: booking.UpdatedAt,
	})

	return booking, nil
}

// Cancel transitions the booking to cancelled and releases its seats.
// Cancelling an already-cancelled booking is a no-op that returns the
// terminal state; the seats are never released twice.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return booking, nil
	}

	applied, err := s.bookings.Cancel(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	booking.Status = models.BookingStatusCancelled
	booking.UpdatedAt = time.Now().UTC()

	if applied {
		s.invalidateShow(ctx, booking.ShowID)
		s.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
			BookingID:       booking.ID,
			ShowID:          booking.ShowID.String(),
			NumberOfTickets: booking.NumberOfTickets,
			Timestamp:       booking.UpdatedAt,
		})
	}

	return booking, nil
}

func (s *BookingService) GetByContact(ctx context.Context, contactValue string) ([]*models.Booking, error) {
	if contactValue == "" {
		return nil, fmt.Errorf("%w: contact_value is required", apperrors.ErrValidation)
	}
	return s.bookings.GetByContact(ctx, contactValue)
}

func (s *BookingService) GetByShow(ctx context.Context, showID string) ([]*models.Booking, error) {
	id, err := uuid.Parse(showID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid show id %q", apperrors.ErrValidation, showID)
	}
	return s.bookings.GetByShow(ctx, id)
}

// Search filters bookings by show, contact, status and booking date. Dates
// are RFC 3339; malformed filter values fail validation instead of silently
// matching nothing.
func (s *BookingService) Search(ctx context.Context, req *models.SearchBookingsRequest) (*models.SearchBookingsResponse, error) {
	req.Normalize()

	filter := &models.BookingFilter{
		ContactValue: req.ContactValue,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}

	if req.ShowID != "" {
		id, err := uuid.Parse(req.ShowID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid show id %q", apperrors.ErrValidation, req.ShowID)
		}
		filter.ShowID = &id
	}

	if req.ContactType != "" {
		if !models.IsValidContactType(req.ContactType) {
			return nil, fmt.Errorf("%w: unknown contact_type %q", apperrors.ErrValidation, req.ContactType)
		}
		filter.ContactType = req.ContactType
	}

	if req.Status != "" {
		if !models.IsValidStatus(req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, req.Status)
		}
		filter.Status = req.Status
	}

	if req.DateFrom != "" {
		from, err := time.Parse(time.RFC3339, req.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: date_from must be RFC 3339", apperrors.ErrValidation)
		}
		filter.DateFrom = &from
	}

	if req.DateTo != "" {
		to, err := time.Parse(time.RFC3339, req.DateTo)
		if err != nil {
			return nil, fmt.Errorf("%w: date_to must be RFC 3339", apperrors.ErrValidation)
		}
		filter.DateTo = &to
	}

	bookings, total, err := s.bookings.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search bookings: %w", err)
	}

	return &models.SearchBookingsResponse{
		Bookings:   bookings,
		Pagination: models.NewPagination(req.Page, req.PageSize, total),
	}, nil
}

// Stats aggregates booking counts and revenue for one show.
func (s *BookingService) Stats(ctx context.Context, showID string) (*models.BookingStats, error) {
	id, err := uuid.Parse(showID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid show id %q", apperrors.ErrValidation, showID)
	}

	show, err := s.shows.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("show %s: %w", showID, apperrors.ErrNotFound)
	}

	return s.bookings.StatsByShow(ctx, id)
}

func (s *BookingService) invalidateShow(ctx context.Context, showID uuid.UUID) {
	if s.showCache == nil {
		return
	}
	if err := s.showCache.InvalidateShow(ctx, showID.String()); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate show cache",
			"error", err, "show_id", showID)
	}
}

func (s *BookingService) publish(ctx context.Context, subject string, data interface{}) {
	if s.natsClient == nil {
		return
	}
	if err := s.natsClient.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err, "subject", subject)
	}
}
