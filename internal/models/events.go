package models

import "time"

// NATS subjects for booking lifecycle events.
const (
	EventShowCreated      = "show.created"
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// ShowCreatedEvent is published when a show is created, so the search index
// consumer can pick it up.
type ShowCreatedEvent struct {
	ShowID    string    `json:"show_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent is published after a booking and its seat reservation
// commit together.
type BookingCreatedEvent struct {
	BookingID       string    `json:"booking_id"`
	ShowID          string    `json:"show_id"`
	ShowTimeID      string    `json:"show_time_id,omitempty"`
	NumberOfTickets int32     `json:"number_of_tickets"`
	TotalAmount     int64     `json:"total_amount"`
	Timestamp       time.Time `json:"timestamp"`
}

// BookingConfirmedEvent is published on the pending -> confirmed transition.
type BookingConfirmedEvent struct {
	BookingID string    `json:"booking_id"`
	ShowID    string    `json:"show_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent is published when a booking is cancelled and its
// seats released.
type BookingCancelledEvent struct {
	BookingID       string    `json:"booking_id"`
	ShowID          string    `json:"show_id"`
	NumberOfTickets int32     `json:"number_of_tickets"`
	Timestamp       time.Time `json:"timestamp"`
}
