package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagedoor/internal/models"
	"stagedoor/internal/service"
	"stagedoor/internal/service/servicetest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(store *servicetest.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)

	services := &service.Services{
		Shows:    service.NewShowService(store, store.ShowTimes(), nil, nil, nil),
		Bookings: service.NewBookingService(store.Bookings(), store, store.ShowTimes(), nil, nil),
	}
	h := NewHandlers(services)

	r := gin.New()
	api := r.Group("/api/v1")
	{
		shows := api.Group("/shows")
		{
			shows.POST("", h.CreateShow)
			shows.GET("", h.ListShows)
			shows.GET("/search", h.SearchShows)
			shows.GET("/:id", h.GetShow)
			shows.POST("/:id/show-times", h.CreateShowTime)
			shows.GET("/:id/show-times", h.ListShowTimes)
			shows.GET("/:id/booking-stats", h.ShowBookingStats)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/search", h.SearchBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.PUT("/:id/confirm", h.ConfirmBooking)
			bookings.PUT("/:id/cancel", h.CancelBooking)
		}
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func seedStoreShow(t *testing.T, store *servicetest.Store, totalTickets int32) *models.Show {
	t.Helper()
	show := &models.Show{
		ID:           uuid.New(),
		Name:         "Hamilton",
		Details:      "The story of America then, told by America now.",
		Price:        12500,
		TotalTickets: totalTickets,
		Location:     "Richard Rodgers Theatre, New York",
		ShowNumber:   models.NewShowNumber(),
		ShowDate:     time.Now().AddDate(0, 0, 14),
	}
	require.NoError(t, store.Create(context.Background(), show))
	return show
}

func bookingBody(showID uuid.UUID, tickets int32) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		ShowID:          showID.String(),
		ContactType:     models.ContactTypeEmail,
		ContactValue:    "alice@example.com",
		NumberOfTickets: tickets,
	}
}

func TestCreateShowEndpoint(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)

	w := doJSON(t, r, "POST", "/api/v1/shows", models.CreateShowRequest{
		Name:         "Hamilton",
		Price:        12500,
		TotalTickets: 300,
		Location:     "New York",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.ShowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, int32(300), resp.AvailableTickets)
}

func TestCreateShowEndpoint_MissingFields(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)

	w := doJSON(t, r, "POST", "/api/v1/shows", gin.H{"name": "No Price"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", decodeError(t, w).Code)
}

func TestGetShowEndpoint_NotFound(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)

	w := doJSON(t, r, "GET", "/api/v1/shows/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decodeError(t, w).Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 100)

	w := doJSON(t, r, "POST", "/api/v1/bookings", bookingBody(show.ID, 3))
	require.Equal(t, http.StatusCreated, w.Code)

	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, int64(3*12500), booking.TotalAmount)

	// Availability on the show reflects the reservation immediately.
	g := doJSON(t, r, "GET", "/api/v1/shows/"+show.ID.String(), nil)
	require.Equal(t, http.StatusOK, g.Code)
	var shown models.ShowResponse
	require.NoError(t, json.Unmarshal(g.Body.Bytes(), &shown))
	assert.Equal(t, int32(97), shown.AvailableTickets)
}

func TestCreateBookingEndpoint_Oversell(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 5)

	w := doJSON(t, r, "POST", "/api/v1/bookings", bookingBody(show.ID, 6))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InsufficientAvailability", decodeError(t, w).Code)
}

func TestConfirmBookingEndpoint_Twice(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 100)

	w := doJSON(t, r, "POST", "/api/v1/bookings", bookingBody(show.ID, 2))
	require.Equal(t, http.StatusCreated, w.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))

	first := doJSON(t, r, "PUT", "/api/v1/bookings/"+booking.ID+"/confirm", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, r, "PUT", "/api/v1/bookings/"+booking.ID+"/confirm", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, second.Code)
	assert.Equal(t, "InvalidStateTransition", decodeError(t, second).Code)
}

func TestCancelBookingEndpoint_Idempotent(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 100)

	w := doJSON(t, r, "POST", "/api/v1/bookings", bookingBody(show.ID, 2))
	require.Equal(t, http.StatusCreated, w.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))

	for i := 0; i < 2; i++ {
		c := doJSON(t, r, "PUT", "/api/v1/bookings/"+booking.ID+"/cancel", nil)
		require.Equal(t, http.StatusOK, c.Code)

		var cancelled models.Booking
		require.NoError(t, json.Unmarshal(c.Body.Bytes(), &cancelled))
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	}

	g := doJSON(t, r, "GET", "/api/v1/shows/"+show.ID.String(), nil)
	var shown models.ShowResponse
	require.NoError(t, json.Unmarshal(g.Body.Bytes(), &shown))
	assert.Equal(t, int32(100), shown.AvailableTickets)
}

func TestListBookingsEndpoint_SelectorRequired(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 100)

	w := doJSON(t, r, "POST", "/api/v1/bookings", bookingBody(show.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code)

	none := doJSON(t, r, "GET", "/api/v1/bookings", nil)
	assert.Equal(t, http.StatusBadRequest, none.Code)

	both := doJSON(t, r, "GET", "/api/v1/bookings?contact_value=x&show_id=y", nil)
	assert.Equal(t, http.StatusBadRequest, both.Code)

	byContact := doJSON(t, r, "GET", "/api/v1/bookings?contact_value=alice@example.com", nil)
	require.Equal(t, http.StatusOK, byContact.Code)
	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(byContact.Body.Bytes(), &resp))
	assert.Len(t, resp.Bookings, 1)

	byShow := doJSON(t, r, "GET", "/api/v1/bookings?show_id="+show.ID.String(), nil)
	require.Equal(t, http.StatusOK, byShow.Code)
	require.NoError(t, json.Unmarshal(byShow.Body.Bytes(), &resp))
	assert.Len(t, resp.Bookings, 1)
}

func TestSearchBookingsEndpoint(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 100)

	w := doJSON(t, r, "POST", "/api/v1/bookings", bookingBody(show.ID, 2))
	require.Equal(t, http.StatusCreated, w.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))

	c := doJSON(t, r, "PUT", "/api/v1/bookings/"+booking.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, c.Code)

	var resp models.SearchBookingsResponse

	byStatus := doJSON(t, r, "GET", "/api/v1/bookings/search?status=cancelled", nil)
	require.Equal(t, http.StatusOK, byStatus.Code)
	require.NoError(t, json.Unmarshal(byStatus.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, booking.ID, resp.Bookings[0].ID)
	assert.Equal(t, 1, resp.Total)

	miss := doJSON(t, r, "GET", "/api/v1/bookings/search?status=pending", nil)
	require.Equal(t, http.StatusOK, miss.Code)
	require.NoError(t, json.Unmarshal(miss.Body.Bytes(), &resp))
	assert.Empty(t, resp.Bookings)

	bad := doJSON(t, r, "GET", "/api/v1/bookings/search?status=refunded", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "ValidationError", decodeError(t, bad).Code)
}

func TestSearchShowsEndpoint(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	seedStoreShow(t, store, 100)

	w := doJSON(t, r, "GET", "/api/v1/shows/search?search=hamilton&only_available=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SearchShowsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Shows, 1)
	assert.Equal(t, "Hamilton", resp.Shows[0].Name)
	assert.Equal(t, 1, resp.Total)

	miss := doJSON(t, r, "GET", "/api/v1/shows/search?search=cats", nil)
	require.Equal(t, http.StatusOK, miss.Code)
	require.NoError(t, json.Unmarshal(miss.Body.Bytes(), &resp))
	assert.Empty(t, resp.Shows)
}

func TestShowTimeEndpoints(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 100)

	seats := int32(40)
	w := doJSON(t, r, "POST", "/api/v1/shows/"+show.ID.String()+"/show-times", models.CreateShowTimeRequest{
		Date:       "2026-09-10",
		Time:       "19:00",
		TotalSeats: &seats,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	l := doJSON(t, r, "GET", "/api/v1/shows/"+show.ID.String()+"/show-times", nil)
	require.Equal(t, http.StatusOK, l.Code)

	var resp struct {
		ShowTimes []models.ShowTime `json:"show_times"`
	}
	require.NoError(t, json.Unmarshal(l.Body.Bytes(), &resp))
	require.Len(t, resp.ShowTimes, 1)
	require.NotNil(t, resp.ShowTimes[0].TotalSeats)
	assert.Equal(t, int32(40), *resp.ShowTimes[0].TotalSeats)
}

func TestBookingStatsEndpoint(t *testing.T) {
	store := servicetest.NewStore()
	r := setupRouter(store)
	show := seedStoreShow(t, store, 100)

	w := doJSON(t, r, "POST", "/api/v1/bookings", bookingBody(show.ID, 2))
	require.Equal(t, http.StatusCreated, w.Code)

	s := doJSON(t, r, "GET", "/api/v1/shows/"+show.ID.String()+"/booking-stats", nil)
	require.Equal(t, http.StatusOK, s.Code)

	var stats models.BookingStats
	require.NoError(t, json.Unmarshal(s.Body.Bytes(), &stats))
	assert.Equal(t, int32(1), stats.TotalBookings)
	assert.Equal(t, int32(2), stats.TotalTickets)
	assert.Equal(t, int64(25000), stats.TotalRevenue)
}
