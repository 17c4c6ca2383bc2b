package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"
	"stagedoor/internal/service/servicetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(store *servicetest.Store) (*ShowService, *BookingService) {
	shows := NewShowService(store, store.ShowTimes(), nil, nil, nil)
	bookings := NewBookingService(store.Bookings(), store, store.ShowTimes(), nil, nil)
	return shows, bookings
}

func seedShow(t *testing.T, store *servicetest.Store, name string, price int64, totalTickets int32) *models.Show {
	t.Helper()
	show := &models.Show{
		ID:           uuid.New(),
		Name:         name,
		Details:      "details for " + name,
		Price:        price,
		TotalTickets: totalTickets,
		Location:     "Test Theatre",
		ShowNumber:   models.NewShowNumber(),
		ShowDate:     time.Now().AddDate(0, 0, 7),
	}
	require.NoError(t, store.Create(context.Background(), show))
	return show
}

func bookingRequest(showID uuid.UUID, tickets int32) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		ShowID:          showID.String(),
		ContactType:     models.ContactTypeEmail,
		ContactValue:    "alice@example.com",
		NumberOfTickets: tickets,
		CustomerName:    "Alice",
	}
}

func availableTickets(t *testing.T, store *servicetest.Store, showID uuid.UUID) int32 {
	t.Helper()
	show, err := store.GetByID(context.Background(), showID)
	require.NoError(t, err)
	require.NotNil(t, show)
	return show.AvailableTickets()
}

func TestCreateBooking_PendingWithReservation(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	booking, err := bookings.Create(context.Background(), bookingRequest(show.ID, 3))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(booking.ID, "BK-"))
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, int64(3*12500), booking.TotalAmount)
	assert.Equal(t, int32(97), availableTickets(t, store, show.ID))
}

func TestCreateBooking_InsufficientAvailability(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Small Venue", 5000, 5)

	_, err := bookings.Create(context.Background(), bookingRequest(show.ID, 6))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientAvailability)

	// The failed attempt must not move the counter or leave a booking.
	assert.Equal(t, int32(5), availableTickets(t, store, show.ID))
	remaining, err := bookings.GetByShow(context.Background(), show.ID.String())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCreateBooking_ExactlyFillsShow(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Small Venue", 5000, 5)

	_, err := bookings.Create(context.Background(), bookingRequest(show.ID, 5))
	require.NoError(t, err)
	assert.Equal(t, int32(0), availableTickets(t, store, show.ID))

	_, err = bookings.Create(context.Background(), bookingRequest(show.ID, 1))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientAvailability)
}

func TestCreateBooking_Validation(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	tests := []struct {
		name    string
		mutate  func(*models.CreateBookingRequest)
		wantErr error
	}{
		{
			name:    "zero tickets",
			mutate:  func(r *models.CreateBookingRequest) { r.NumberOfTickets = 0 },
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "negative tickets",
			mutate:  func(r *models.CreateBookingRequest) { r.NumberOfTickets = -2 },
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "bad contact type",
			mutate:  func(r *models.CreateBookingRequest) { r.ContactType = "carrier-pigeon" },
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "mobile contact with letters",
			mutate: func(r *models.CreateBookingRequest) {
				r.ContactType = models.ContactTypeMobile
				r.ContactValue = "not-a-number"
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "malformed show id",
			mutate:  func(r *models.CreateBookingRequest) { r.ShowID = "not-a-uuid" },
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "unknown show",
			mutate:  func(r *models.CreateBookingRequest) { r.ShowID = uuid.NewString() },
			wantErr: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookingRequest(show.ID, 2)
			tt.mutate(req)
			_, err := bookings.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateBooking_ConcurrentNoOvercommit(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Contended Show", 8000, 50)

	const (
		workers    = 20
		perBooking = 5
	)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, rejected int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bookings.Create(context.Background(), bookingRequest(show.ID, perBooking))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, apperrors.ErrInsufficientAvailability)
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, workers-10, rejected)
	assert.Equal(t, int32(0), availableTickets(t, store, show.ID))
}

func TestConfirmBooking(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	booking, err := bookings.Create(context.Background(), bookingRequest(show.ID, 2))
	require.NoError(t, err)

	confirmed, err := bookings.Confirm(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	// Confirming does not move the seat counter, the seats were already
	// reserved at creation.
	assert.Equal(t, int32(98), availableTickets(t, store, show.ID))

	_, err = bookings.Confirm(context.Background(), booking.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

	_, err = bookings.Confirm(context.Background(), "BK-DOESNOTEXIST")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCancelBooking_ReleasesSeatsOnce(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	booking, err := bookings.Create(context.Background(), bookingRequest(show.ID, 4))
	require.NoError(t, err)
	assert.Equal(t, int32(96), availableTickets(t, store, show.ID))

	cancelled, err := bookings.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, int32(100), availableTickets(t, store, show.ID))

	// Cancelling again succeeds but must not release a second time.
	again, err := bookings.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, again.Status)
	assert.Equal(t, int32(100), availableTickets(t, store, show.ID))
}

func TestCancelBooking_ConfirmedBooking(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	booking, err := bookings.Create(context.Background(), bookingRequest(show.ID, 2))
	require.NoError(t, err)
	_, err = bookings.Confirm(context.Background(), booking.ID)
	require.NoError(t, err)

	cancelled, err := bookings.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, int32(100), availableTickets(t, store, show.ID))

	// Cancelled is terminal.
	_, err = bookings.Confirm(context.Background(), booking.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestBooking_AmountSnapshotSurvivesPriceChange(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 10000, 100)

	booking, err := bookings.Create(context.Background(), bookingRequest(show.ID, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(20000), booking.TotalAmount)

	// Reprice the show after the booking exists.
	show.Price = 99999
	require.NoError(t, store.Create(context.Background(), show))

	got, err := bookings.Get(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), got.TotalAmount)
}

func TestCreateBooking_ShowTimeInventory(t *testing.T) {
	store := servicetest.NewStore()
	shows, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	total := int32(10)
	st, err := shows.CreateShowTime(context.Background(), show.ID.String(), &models.CreateShowTimeRequest{
		Date:       "2026-09-10",
		Time:       "19:00",
		TotalSeats: &total,
	})
	require.NoError(t, err)

	req := bookingRequest(show.ID, 6)
	req.ShowTimeID = st.ID.String()
	booking, err := bookings.Create(context.Background(), req)
	require.NoError(t, err)

	// Seats come out of the showtime's own inventory, not the show's.
	assert.Equal(t, int32(100), availableTickets(t, store, show.ID))

	req2 := bookingRequest(show.ID, 5)
	req2.ShowTimeID = st.ID.String()
	_, err = bookings.Create(context.Background(), req2)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientAvailability)

	// Cancelling returns the seats to the showtime.
	_, err = bookings.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = bookings.Create(context.Background(), req2)
	assert.NoError(t, err)
}

func TestCreateBooking_ShowTimeOfOtherShow(t *testing.T) {
	store := servicetest.NewStore()
	shows, bookings := newTestServices(store)
	showA := seedShow(t, store, "Show A", 5000, 50)
	showB := seedShow(t, store, "Show B", 5000, 50)

	st, err := shows.CreateShowTime(context.Background(), showA.ID.String(), &models.CreateShowTimeRequest{
		Date: "2026-09-10",
		Time: "19:00",
	})
	require.NoError(t, err)

	req := bookingRequest(showB.ID, 1)
	req.ShowTimeID = st.ID.String()
	_, err = bookings.Create(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateBooking_ShowTimeSharedInventory(t *testing.T) {
	store := servicetest.NewStore()
	shows, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	// No total_seats: the showtime draws from the parent show's counter.
	st, err := shows.CreateShowTime(context.Background(), show.ID.String(), &models.CreateShowTimeRequest{
		Date: "2026-09-10",
		Time: "19:00",
	})
	require.NoError(t, err)

	req := bookingRequest(show.ID, 7)
	req.ShowTimeID = st.ID.String()
	booking, err := bookings.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, booking.ShowTimeID)
	assert.Equal(t, st.ID, *booking.ShowTimeID)
	assert.Equal(t, int32(93), availableTickets(t, store, show.ID))

	// Cancelling a showtime booking without its own inventory releases back
	// to the show.
	_, err = bookings.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(100), availableTickets(t, store, show.ID))
}

func TestSearchBookings(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	ctx := context.Background()
	showA := seedShow(t, store, "Show A", 10000, 100)
	showB := seedShow(t, store, "Show B", 10000, 100)

	alice, err := bookings.Create(ctx, bookingRequest(showA.ID, 1))
	require.NoError(t, err)

	bob := bookingRequest(showA.ID, 2)
	bob.ContactType = models.ContactTypeMobile
	bob.ContactValue = "15551234567"
	confirmed, err := bookings.Create(ctx, bob)
	require.NoError(t, err)
	_, err = bookings.Confirm(ctx, confirmed.ID)
	require.NoError(t, err)

	carol := bookingRequest(showB.ID, 3)
	carol.ContactValue = "carol@example.com"
	cancelled, err := bookings.Create(ctx, carol)
	require.NoError(t, err)
	_, err = bookings.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  models.SearchBookingsRequest
		want []string
	}{
		{
			name: "no filter matches everything",
			req:  models.SearchBookingsRequest{},
			want: []string{alice.ID, confirmed.ID, cancelled.ID},
		},
		{
			name: "by status",
			req:  models.SearchBookingsRequest{Status: models.BookingStatusConfirmed},
			want: []string{confirmed.ID},
		},
		{
			name: "by show",
			req:  models.SearchBookingsRequest{ShowID: showB.ID.String()},
			want: []string{cancelled.ID},
		},
		{
			name: "by contact type",
			req:  models.SearchBookingsRequest{ContactType: models.ContactTypeMobile},
			want: []string{confirmed.ID},
		},
		{
			name: "status and show combined",
			req:  models.SearchBookingsRequest{ShowID: showA.ID.String(), Status: models.BookingStatusPending},
			want: []string{alice.ID},
		},
		{
			name: "date window covering now",
			req: models.SearchBookingsRequest{
				DateFrom: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
				DateTo:   time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
			},
			want: []string{alice.ID, confirmed.ID, cancelled.ID},
		},
		{
			name: "date window in the future",
			req:  models.SearchBookingsRequest{DateFrom: time.Now().UTC().Add(time.Hour).Format(time.RFC3339)},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := bookings.Search(ctx, &tt.req)
			require.NoError(t, err)

			var ids []string
			for _, b := range resp.Bookings {
				ids = append(ids, b.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
			assert.Equal(t, len(tt.want), resp.Pagination.Total)
		})
	}
}

func TestSearchBookings_Validation(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	ctx := context.Background()

	_, err := bookings.Search(ctx, &models.SearchBookingsRequest{Status: "refunded"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = bookings.Search(ctx, &models.SearchBookingsRequest{ContactType: "fax"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = bookings.Search(ctx, &models.SearchBookingsRequest{ShowID: "not-a-uuid"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = bookings.Search(ctx, &models.SearchBookingsRequest{DateFrom: "yesterday"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetBookingsByContact(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 12500, 100)

	first, err := bookings.Create(context.Background(), bookingRequest(show.ID, 1))
	require.NoError(t, err)

	other := bookingRequest(show.ID, 2)
	other.ContactValue = "bob@example.com"
	_, err = bookings.Create(context.Background(), other)
	require.NoError(t, err)

	got, err := bookings.GetByContact(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)

	_, err = bookings.GetByContact(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	empty, err := bookings.GetByContact(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBookingStats(t *testing.T) {
	store := servicetest.NewStore()
	_, bookings := newTestServices(store)
	show := seedShow(t, store, "Hamilton", 10000, 100)

	_, err := bookings.Create(context.Background(), bookingRequest(show.ID, 1))
	require.NoError(t, err)

	confirmed, err := bookings.Create(context.Background(), bookingRequest(show.ID, 2))
	require.NoError(t, err)
	_, err = bookings.Confirm(context.Background(), confirmed.ID)
	require.NoError(t, err)

	cancelled, err := bookings.Create(context.Background(), bookingRequest(show.ID, 3))
	require.NoError(t, err)
	_, err = bookings.Cancel(context.Background(), cancelled.ID)
	require.NoError(t, err)

	stats, err := bookings.Stats(context.Background(), show.ID.String())
	require.NoError(t, err)

	assert.Equal(t, int32(3), stats.TotalBookings)
	assert.Equal(t, int32(6), stats.TotalTickets)
	assert.Equal(t, int32(1), stats.PendingBookings)
	assert.Equal(t, int32(1), stats.ConfirmedBookings)
	assert.Equal(t, int32(1), stats.CancelledBookings)
	// Revenue counts pending and confirmed, never cancelled.
	assert.Equal(t, int64(1*10000+2*10000), stats.TotalRevenue)

	_, err = bookings.Stats(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// TestBookingLifecycle walks the full customer flow: browse, book, watch
// availability drop, confirm, cancel, watch it come back.
func TestBookingLifecycle(t *testing.T) {
	store := servicetest.NewStore()
	shows, bookings := newTestServices(store)
	ctx := context.Background()

	created, err := shows.Create(ctx, &models.CreateShowRequest{
		Name:         "The Tempest",
		Details:      "Shakespeare's final play.",
		Price:        7500,
		TotalTickets: 40,
		Location:     "Globe Theatre, London",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(40), created.AvailableTickets)

	booking, err := bookings.Create(ctx, &models.CreateBookingRequest{
		ShowID:          created.ID.String(),
		ContactType:     models.ContactTypeMobile,
		ContactValue:    "15551234567",
		NumberOfTickets: 4,
		CustomerName:    "Miranda",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)

	afterBooking, err := shows.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int32(36), afterBooking.AvailableTickets)

	_, err = bookings.Confirm(ctx, booking.ID)
	require.NoError(t, err)

	afterConfirm, err := shows.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int32(36), afterConfirm.AvailableTickets)

	_, err = bookings.Cancel(ctx, booking.ID)
	require.NoError(t, err)

	afterCancel, err := shows.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int32(40), afterCancel.AvailableTickets)
}
