package models

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Booking lifecycle statuses. Transitions are one-way: a pending booking may
// be confirmed or cancelled, a confirmed booking may only be cancelled, and
// cancelled is terminal.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Contact channel types accepted on a booking.
const (
	ContactTypeMobile = "mobile"
	ContactTypeEmail  = "email"
)

// Show represents a theatrical production with aggregate ticket inventory.
// Price is stored in minor currency units (cents).
type Show struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Details       string    `json:"details" db:"details"`
	Price         int64     `json:"price" db:"price"`
	TotalTickets  int32     `json:"total_tickets" db:"total_tickets"`
	BookedTickets int32     `json:"booked_tickets" db:"booked_tickets"`
	Location      string    `json:"location" db:"location"`
	ShowNumber    string    `json:"show_number" db:"show_number"`
	ShowDate      time.Time `json:"show_date" db:"show_date"`
	Images        []string  `json:"images,omitempty"`
	Videos        []string  `json:"videos,omitempty"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AvailableTickets is derived, never stored.
func (s *Show) AvailableTickets() int32 {
	return s.TotalTickets - s.BookedTickets
}

// NewShowNumber generates a human-facing show code.
func NewShowNumber() string {
	return fmt.Sprintf("SH-%d", time.Now().Unix())
}

// ShowTime is one scheduled performance of a show. TotalSeats/BookedSeats are
// optional: when TotalSeats is nil the parent show's aggregate inventory is
// the one bookings draw from.
type ShowTime struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ShowID      uuid.UUID `json:"show_id" db:"show_id"`
	Date        string    `json:"date" db:"date"`
	Time        string    `json:"time" db:"time"`
	TotalSeats  *int32    `json:"total_seats,omitempty" db:"total_seats"`
	BookedSeats *int32    `json:"booked_seats,omitempty" db:"booked_seats"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// HasOwnInventory reports whether this show time tracks its own seat counts.
func (st *ShowTime) HasOwnInventory() bool {
	return st != nil && st.TotalSeats != nil
}

// AvailableSeats returns the per-showtime availability, or nil when the
// showtime falls back to the parent show's counts.
func (st *ShowTime) AvailableSeats() *int32 {
	if !st.HasOwnInventory() {
		return nil
	}
	var booked int32
	if st.BookedSeats != nil {
		booked = *st.BookedSeats
	}
	n := *st.TotalSeats - booked
	return &n
}

// Booking is a customer's reservation of tickets against a show. It only
// references the show by id; TotalAmount and NumberOfTickets are its own
// snapshot and never change after creation, even if the show's price does.
type Booking struct {
	ID              string     `json:"booking_id" db:"id"`
	ShowID          uuid.UUID  `json:"show_id" db:"show_id"`
	ShowTimeID      *uuid.UUID `json:"show_time_id,omitempty" db:"show_time_id"`
	ContactType     string     `json:"contact_type" db:"contact_type"`
	ContactValue    string     `json:"contact_value" db:"contact_value"`
	NumberOfTickets int32      `json:"number_of_tickets" db:"number_of_tickets"`
	CustomerName    string     `json:"customer_name,omitempty" db:"customer_name"`
	TotalAmount     int64      `json:"total_amount" db:"total_amount"`
	BookingDate     time.Time  `json:"booking_date" db:"booking_date"`
	Status          string     `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// NewBookingID derives the "BK-" id from the booking's identifying fields:
// sha256 over show, contact, creation time and ticket count, truncated to
// 16 hex chars.
func NewBookingID(showID uuid.UUID, contactType, contactValue string, createdAt time.Time, tickets int32) string {
	input := fmt.Sprintf("%s:%s:%s:%d:%d", showID, contactType, contactValue, createdAt.UnixNano(), tickets)
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("BK-%X", sum)[:19]
}

// CanConfirm reports whether the booking may transition to confirmed.
func (b *Booking) CanConfirm() bool {
	return b.Status == BookingStatusPending
}

// CanCancel reports whether cancelling would change state. Cancelling an
// already-cancelled booking is a no-op, not an error.
func (b *Booking) CanCancel() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// BookingFilter is the parsed form of a booking search: ids and dates are
// validated upstream so the storage layer only sees well-formed values.
type BookingFilter struct {
	ShowID       *uuid.UUID
	ContactValue string
	ContactType  string
	Status       string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
}

// IsValidContactType reports whether t is a supported contact channel.
func IsValidContactType(t string) bool {
	return t == ContactTypeMobile || t == ContactTypeEmail
}

// IsValidStatus reports whether s is a known booking status.
func IsValidStatus(s string) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}
