package handlers

import (
	"net/http"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/middleware"
	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateBooking handles POST /api/v1/bookings. The booking is created in
// pending status with its seats already reserved.
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body: "+err.Error())
		middleware.CountBookingRejected("ValidationError")
		return
	}

	booking, err := h.services.Bookings.Create(c.Request.Context(), &req)
	if err != nil {
		middleware.CountBookingRejected(apperrors.Code(err))
		h.writeError(c, err)
		return
	}

	middleware.CountBookingCreated()
	c.JSON(http.StatusCreated, booking)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *Handlers) GetBooking(c *gin.Context) {
	booking, err := h.services.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListBookings handles GET /api/v1/bookings. Exactly one of contact_value
// or show_id selects the result set.
func (h *Handlers) ListBookings(c *gin.Context) {
	contactValue := c.Query("contact_value")
	showID := c.Query("show_id")

	if (contactValue == "") == (showID == "") {
		h.badRequest(c, "Provide exactly one of contact_value or show_id")
		return
	}

	var (
		bookings []*models.Booking
		err      error
	)
	if contactValue != "" {
		bookings, err = h.services.Bookings.GetByContact(c.Request.Context(), contactValue)
	} else {
		bookings, err = h.services.Bookings.GetByShow(c.Request.Context(), showID)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// SearchBookings handles GET /api/v1/bookings/search with optional show,
// contact, status and booking-date filters.
func (h *Handlers) SearchBookings(c *gin.Context) {
	var req models.SearchBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "Invalid search parameters: "+err.Error())
		return
	}

	resp, err := h.services.Bookings.Search(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConfirmBooking handles PUT /api/v1/bookings/:id/confirm.
func (h *Handlers) ConfirmBooking(c *gin.Context) {
	booking, err := h.services.Bookings.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles PUT /api/v1/bookings/:id/cancel. Cancelling an
// already cancelled booking succeeds without touching availability.
func (h *Handlers) CancelBooking(c *gin.Context) {
	booking, err := h.services.Bookings.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ShowBookingStats handles GET /api/v1/shows/:id/booking-stats.
func (h *Handlers) ShowBookingStats(c *gin.Context) {
	stats, err := h.services.Bookings.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
