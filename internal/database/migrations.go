package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createShowsTable,
		createShowTimesTable,
		createBookingsTable,
		createBookingIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createShowsTable = `
CREATE TABLE IF NOT EXISTS shows (
    id UUID PRIMARY KEY,
    name VARCHAR(500) NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    price BIGINT NOT NULL,
    total_tickets INTEGER NOT NULL,
    booked_tickets INTEGER NOT NULL DEFAULT 0,
    location VARCHAR(255) NOT NULL,
    show_number VARCHAR(100) NOT NULL,
    show_date TIMESTAMP NOT NULL,
    images JSONB NOT NULL DEFAULT '[]',
    videos JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (price >= 0),
    CHECK (total_tickets >= 0),
    CHECK (booked_tickets >= 0 AND booked_tickets <= total_tickets)
);`

const createShowTimesTable = `
CREATE TABLE IF NOT EXISTS show_times (
    id UUID PRIMARY KEY,
    show_id UUID NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
    date VARCHAR(10) NOT NULL,
    time VARCHAR(5) NOT NULL,
    total_seats INTEGER,
    booked_seats INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (total_seats IS NULL OR total_seats >= 0),
    CHECK (
        booked_seats IS NULL
        OR (total_seats IS NOT NULL AND booked_seats >= 0 AND booked_seats <= total_seats)
    )
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id VARCHAR(32) PRIMARY KEY,
    show_id UUID NOT NULL,
    show_time_id UUID,
    contact_type VARCHAR(10) NOT NULL,
    contact_value VARCHAR(255) NOT NULL,
    number_of_tickets INTEGER NOT NULL,
    customer_name VARCHAR(255) NOT NULL DEFAULT '',
    total_amount BIGINT NOT NULL,
    booking_date TIMESTAMP NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (number_of_tickets > 0),
    CHECK (contact_type IN ('mobile', 'email')),
    CHECK (status IN ('pending', 'confirmed', 'cancelled'))
);`

// Bookings keep only a weak reference to their show, so no foreign key on
// show_id: history outlives catalog edits.
const createBookingIndexes = `
CREATE INDEX IF NOT EXISTS bookings_show_id_idx ON bookings (show_id);
CREATE INDEX IF NOT EXISTS bookings_contact_value_idx ON bookings (contact_value);
CREATE INDEX IF NOT EXISTS show_times_show_id_idx ON show_times (show_id);
CREATE INDEX IF NOT EXISTS shows_location_idx ON shows (LOWER(location));`
