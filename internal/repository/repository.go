package repository

import (
	"stagedoor/internal/database"
)

// Repositories bundles all repositories for dependency injection.
type Repositories struct {
	Shows     *ShowRepository
	ShowTimes *ShowTimeRepository
	Bookings  *BookingRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Shows:     NewShowRepository(db),
		ShowTimes: NewShowTimeRepository(db),
		Bookings:  NewBookingRepository(db),
	}
}
