// Package servicetest provides an in-memory store implementing the service
// layer's store interfaces, with the same conditional-update semantics the
// SQL repositories have. Reservation and release mutate counters under one
// lock, so concurrent bookings contend the way they would on the database.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"

	"github.com/google/uuid"
)

// Store holds shows, show times and bookings in memory. The zero value is
// not usable; call NewStore.
type Store struct {
	mu        sync.Mutex
	shows     map[uuid.UUID]*models.Show
	showTimes map[uuid.UUID]*models.ShowTime
	bookings  map[string]*models.Booking
}

func NewStore() *Store {
	return &Store{
		shows:     make(map[uuid.UUID]*models.Show),
		showTimes: make(map[uuid.UUID]*models.ShowTime),
		bookings:  make(map[string]*models.Booking),
	}
}

func copyShow(s *models.Show) *models.Show {
	c := *s
	return &c
}

func copyShowTime(st *models.ShowTime) *models.ShowTime {
	c := *st
	if st.TotalSeats != nil {
		v := *st.TotalSeats
		c.TotalSeats = &v
	}
	if st.BookedSeats != nil {
		v := *st.BookedSeats
		c.BookedSeats = &v
	}
	return &c
}

func copyBooking(b *models.Booking) *models.Booking {
	c := *b
	if b.ShowTimeID != nil {
		v := *b.ShowTimeID
		c.ShowTimeID = &v
	}
	return &c
}

// Create stores the show. Timestamps are filled in like the database would.
func (s *Store) Create(ctx context.Context, show *models.Show) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	show.CreatedAt = now
	show.UpdatedAt = now
	s.shows[show.ID] = copyShow(show)
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	show, ok := s.shows[id]
	if !ok {
		return nil, nil
	}
	return copyShow(show), nil
}

func (s *Store) List(ctx context.Context, page, pageSize int) ([]*models.Show, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return paginate(s.sortedShows(), page, pageSize)
}

// Search applies the same filters the SQL repository does.
func (s *Store) Search(ctx context.Context, req *models.SearchShowsRequest) ([]*models.Show, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Show
	for _, show := range s.sortedShows() {
		if !matches(show, req) {
			continue
		}
		matched = append(matched, show)
	}
	return paginate(matched, req.Page, req.PageSize)
}

func matches(show *models.Show, req *models.SearchShowsRequest) bool {
	if req.Search != "" {
		term := strings.ToLower(req.Search)
		if !strings.Contains(strings.ToLower(show.Name), term) &&
			!strings.Contains(strings.ToLower(show.Details), term) {
			return false
		}
	}
	if req.Location != "" &&
		!strings.Contains(strings.ToLower(show.Location), strings.ToLower(req.Location)) {
		return false
	}
	if req.MinPrice != nil && show.Price < *req.MinPrice {
		return false
	}
	if req.MaxPrice != nil && show.Price > *req.MaxPrice {
		return false
	}
	if req.MinAvailable != nil && show.AvailableTickets() < *req.MinAvailable {
		return false
	}
	if req.OnlyAvailable && show.AvailableTickets() <= 0 {
		return false
	}
	return true
}

func (s *Store) sortedShows() []*models.Show {
	shows := make([]*models.Show, 0, len(s.shows))
	for _, show := range s.shows {
		shows = append(shows, copyShow(show))
	}
	sort.Slice(shows, func(i, j int) bool {
		if !shows[i].ShowDate.Equal(shows[j].ShowDate) {
			return shows[i].ShowDate.Before(shows[j].ShowDate)
		}
		return shows[i].ID.String() < shows[j].ID.String()
	})
	return shows
}

func paginate(shows []*models.Show, page, pageSize int) ([]*models.Show, int, error) {
	total := len(shows)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return shows[start:end], total, nil
}

func (s *Store) createShowTime(st *models.ShowTime) {
	st.CreatedAt = time.Now().UTC()
	s.showTimes[st.ID] = copyShowTime(st)
}

func (s *Store) getShowTime(id uuid.UUID) *models.ShowTime {
	st, ok := s.showTimes[id]
	if !ok {
		return nil
	}
	return copyShowTime(st)
}

// ShowTimeView adapts Store to the show time store interface. The show
// methods live on Store itself, so the showtime methods need their own
// receiver to keep the method sets apart.
type ShowTimeView struct {
	s *Store
}

// ShowTimes returns the store's show time view.
func (s *Store) ShowTimes() *ShowTimeView {
	return &ShowTimeView{s: s}
}

func (v *ShowTimeView) Create(ctx context.Context, st *models.ShowTime) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.createShowTime(st)
	return nil
}

func (v *ShowTimeView) GetByID(ctx context.Context, id uuid.UUID) (*models.ShowTime, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.s.getShowTime(id), nil
}

func (v *ShowTimeView) GetByShowID(ctx context.Context, showID uuid.UUID) ([]models.ShowTime, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var out []models.ShowTime
	for _, st := range v.s.showTimes {
		if st.ShowID == showID {
			out = append(out, *copyShowTime(st))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// BookingView adapts Store to the booking store interface.
type BookingView struct {
	s *Store
}

// Bookings returns the store's booking view.
func (s *Store) Bookings() *BookingView {
	return &BookingView{s: s}
}

// CreateWithReservation reserves seats and inserts the booking under one
// lock. On reservation failure nothing is stored, matching the SQL
// transaction's all-or-nothing behavior.
func (v *BookingView) CreateWithReservation(ctx context.Context, booking *models.Booking, reserveShowTime bool) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if reserveShowTime {
		st, ok := v.s.showTimes[*booking.ShowTimeID]
		if !ok {
			return fmt.Errorf("showtime %s: %w", booking.ShowTimeID, apperrors.ErrNotFound)
		}
		var booked int32
		if st.BookedSeats != nil {
			booked = *st.BookedSeats
		}
		if st.TotalSeats == nil || booked+booking.NumberOfTickets > *st.TotalSeats {
			return fmt.Errorf("showtime %s: %w", booking.ShowTimeID, apperrors.ErrInsufficientAvailability)
		}
		booked += booking.NumberOfTickets
		st.BookedSeats = &booked
	} else {
		show, ok := v.s.shows[booking.ShowID]
		if !ok {
			return fmt.Errorf("show %s: %w", booking.ShowID, apperrors.ErrNotFound)
		}
		if show.BookedTickets+booking.NumberOfTickets > show.TotalTickets {
			return fmt.Errorf("show %s: %w", booking.ShowID, apperrors.ErrInsufficientAvailability)
		}
		show.BookedTickets += booking.NumberOfTickets
		show.UpdatedAt = time.Now().UTC()
	}

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	v.s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (v *BookingView) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	b, ok := v.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(b), nil
}

func (v *BookingView) GetByContact(ctx context.Context, contactValue string) ([]*models.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.s.collect(func(b *models.Booking) bool { return b.ContactValue == contactValue }), nil
}

func (v *BookingView) GetByShow(ctx context.Context, showID uuid.UUID) ([]*models.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.s.collect(func(b *models.Booking) bool { return b.ShowID == showID }), nil
}

// Search applies the same filters the SQL booking search does, newest
// booking_date first.
func (v *BookingView) Search(ctx context.Context, filter *models.BookingFilter) ([]*models.Booking, int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	matched := v.s.collect(func(b *models.Booking) bool {
		if filter.ShowID != nil && b.ShowID != *filter.ShowID {
			return false
		}
		if filter.ContactValue != "" && b.ContactValue != filter.ContactValue {
			return false
		}
		if filter.ContactType != "" && b.ContactType != filter.ContactType {
			return false
		}
		if filter.Status != "" && b.Status != filter.Status {
			return false
		}
		if filter.DateFrom != nil && b.BookingDate.Before(*filter.DateFrom) {
			return false
		}
		if filter.DateTo != nil && b.BookingDate.After(*filter.DateTo) {
			return false
		}
		return true
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].BookingDate.After(matched[j].BookingDate) })

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *Store) collect(keep func(*models.Booking) bool) []*models.Booking {
	var out []*models.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Confirm applies the pending -> confirmed transition only when the stored
// status is still pending.
func (v *BookingView) Confirm(ctx context.Context, id string) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	b, ok := v.s.bookings[id]
	if !ok || b.Status != models.BookingStatusPending {
		return false, nil
	}
	b.Status = models.BookingStatusConfirmed
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Cancel transitions to cancelled and releases seats, at most once.
func (v *BookingView) Cancel(ctx context.Context, booking *models.Booking) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	b, ok := v.s.bookings[booking.ID]
	if !ok || b.Status == models.BookingStatusCancelled {
		return false, nil
	}
	b.Status = models.BookingStatusCancelled
	b.UpdatedAt = time.Now().UTC()

	if b.ShowTimeID != nil {
		if st, ok := v.s.showTimes[*b.ShowTimeID]; ok && st.TotalSeats != nil {
			var booked int32
			if st.BookedSeats != nil {
				booked = *st.BookedSeats
			}
			booked -= b.NumberOfTickets
			if booked < 0 {
				booked = 0
			}
			st.BookedSeats = &booked
			return true, nil
		}
	}

	if show, ok := v.s.shows[b.ShowID]; ok {
		show.BookedTickets -= b.NumberOfTickets
		if show.BookedTickets < 0 {
			show.BookedTickets = 0
		}
		show.UpdatedAt = time.Now().UTC()
	}
	return true, nil
}

func (v *BookingView) StatsByShow(ctx context.Context, showID uuid.UUID) (*models.BookingStats, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	stats := &models.BookingStats{ShowID: showID.String()}
	for _, b := range v.s.bookings {
		if b.ShowID != showID {
			continue
		}
		stats.TotalBookings++
		stats.TotalTickets += b.NumberOfTickets
		switch b.Status {
		case models.BookingStatusPending:
			stats.PendingBookings++
			stats.TotalRevenue += b.TotalAmount
		case models.BookingStatusConfirmed:
			stats.ConfirmedBookings++
			stats.TotalRevenue += b.TotalAmount
		case models.BookingStatusCancelled:
			stats.CancelledBookings++
		}
	}
	return stats, nil
}
