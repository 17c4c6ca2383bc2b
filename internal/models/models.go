package models

import "strings"

// CreateShowRequest - payload for creating a show.
type CreateShowRequest struct {
	Name         string   `json:"name" binding:"required"`
	Details      string   `json:"details"`
	Price        int64    `json:"price" binding:"required,min=0"`
	TotalTickets int32    `json:"total_tickets" binding:"required,min=1"`
	Location     string   `json:"location" binding:"required"`
	ShowNumber   string   `json:"show_number"`
	ShowDate     string   `json:"show_date"`
	Images       []string `json:"images"`
	Videos       []string `json:"videos"`
}

// CreateShowTimeRequest - payload for scheduling a performance of a show.
// TotalSeats is optional; when omitted the showtime shares the parent show's
// aggregate inventory.
type CreateShowTimeRequest struct {
	Date       string `json:"date" binding:"required"`
	Time       string `json:"time" binding:"required"`
	TotalSeats *int32 `json:"total_seats,omitempty"`
}

// CreateBookingRequest - payload for creating a booking.
type CreateBookingRequest struct {
	ShowID          string `json:"show_id" binding:"required"`
	ShowTimeID      string `json:"show_time_id"`
	ContactType     string `json:"contact_type" binding:"required"`
	ContactValue    string `json:"contact_value" binding:"required"`
	NumberOfTickets int32  `json:"number_of_tickets" binding:"required"`
	CustomerName    string `json:"customer_name"`
}

// ValidContact performs the contact checks the binding tags cannot express.
func (r *CreateBookingRequest) ValidContact() bool {
	if !IsValidContactType(r.ContactType) {
		return false
	}
	switch r.ContactType {
	case ContactTypeMobile:
		return len(r.ContactValue) >= 10 && len(r.ContactValue) <= 15 &&
			strings.ContainsAny(r.ContactValue, "0123456789")
	case ContactTypeEmail:
		return len(r.ContactValue) > 5 &&
			strings.Contains(r.ContactValue, "@") && strings.Contains(r.ContactValue, ".")
	}
	return false
}

// ShowResponse is a Show plus its derived availability and scheduled times.
type ShowResponse struct {
	Show
	AvailableTickets int32      `json:"available_tickets"`
	ShowTimes        []ShowTime `json:"show_times,omitempty"`
}

// NewShowResponse builds the outward projection of a show.
func NewShowResponse(s *Show, times []ShowTime) *ShowResponse {
	return &ShowResponse{
		Show:             *s,
		AvailableTickets: s.AvailableTickets(),
		ShowTimes:        times,
	}
}

// SearchShowsRequest carries all supported show search filters. Price bounds
// are in minor currency units.
type SearchShowsRequest struct {
	Search        string `json:"search,omitempty" form:"search"`
	Location      string `json:"location,omitempty" form:"location"`
	MinPrice      *int64 `json:"min_price,omitempty" form:"min_price"`
	MaxPrice      *int64 `json:"max_price,omitempty" form:"max_price"`
	MinAvailable  *int32 `json:"min_available,omitempty" form:"min_available"`
	OnlyAvailable bool   `json:"only_available,omitempty" form:"only_available"`
	Page          int    `json:"page,omitempty" form:"page"`
	PageSize      int    `json:"page_size,omitempty" form:"page_size"`
}

// Normalize clamps pagination to sane bounds.
func (r *SearchShowsRequest) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = 20
	}
	if r.PageSize > 100 {
		r.PageSize = 100
	}
}

// Pagination is the envelope metadata for paginated responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes the envelope for a total row count.
func NewPagination(page, pageSize, total int) Pagination {
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// SearchShowsResponse - paginated search results.
type SearchShowsResponse struct {
	Shows []*ShowResponse `json:"shows"`
	Pagination
}

// ListShowsResponse - paginated show listing.
type ListShowsResponse struct {
	Shows []*ShowResponse `json:"shows"`
	Pagination
}

// SearchBookingsRequest filters bookings. All fields are optional; date
// bounds apply to booking_date and are inclusive.
type SearchBookingsRequest struct {
	ShowID       string `json:"show_id,omitempty" form:"show_id"`
	ContactValue string `json:"contact_value,omitempty" form:"contact_value"`
	ContactType  string `json:"contact_type,omitempty" form:"contact_type"`
	Status       string `json:"status,omitempty" form:"status"`
	DateFrom     string `json:"date_from,omitempty" form:"date_from"`
	DateTo       string `json:"date_to,omitempty" form:"date_to"`
	Page         int    `json:"page,omitempty" form:"page"`
	PageSize     int    `json:"page_size,omitempty" form:"page_size"`
}

// Normalize clamps pagination to sane bounds.
func (r *SearchBookingsRequest) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = 20
	}
	if r.PageSize > 100 {
		r.PageSize = 100
	}
}

// SearchBookingsResponse - paginated booking search results.
type SearchBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
	Pagination
}

// BookingStats aggregates bookings for one show, split by status. Revenue
// counts only non-cancelled bookings.
type BookingStats struct {
	ShowID            string `json:"show_id"`
	TotalBookings     int32  `json:"total_bookings"`
	TotalTickets      int32  `json:"total_tickets"`
	PendingBookings   int32  `json:"pending_bookings"`
	ConfirmedBookings int32  `json:"confirmed_bookings"`
	CancelledBookings int32  `json:"cancelled_bookings"`
	TotalRevenue      int64  `json:"total_revenue"`
}

// ErrorResponse is the structured error body returned by every failing
// request.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// HealthResponse reports per-dependency status for the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
	Search   string `json:"search,omitempty"`
	Service  string `json:"service"`
	Version  string `json:"version"`
}
