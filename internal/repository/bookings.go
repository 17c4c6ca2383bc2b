package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stagedoor/internal/database"
	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"

	"github.com/google/uuid"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, show_id, show_time_id, contact_type, contact_value,
       number_of_tickets, customer_name, total_amount, booking_date, status,
       created_at, updated_at`

// CreateWithReservation reserves seats and inserts the booking in one
// transaction. The reservation is a conditional UPDATE: it only succeeds
// while enough seats remain, so concurrent bookings against the same show
// can never overcommit. When reserveShowTime is true the showtime's own
// inventory is charged, otherwise the parent show's aggregate counter.
// Either everything commits or nothing does.
func (r *BookingRepository) CreateWithReservation(ctx context.Context, booking *models.Booking, reserveShowTime bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if reserveShowTime {
		err = reserveShowTimeSeats(ctx, tx, *booking.ShowTimeID, booking.NumberOfTickets)
	} else {
		err = reserveShowSeats(ctx, tx, booking.ShowID, booking.NumberOfTickets)
	}
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (id, show_id, show_time_id, contact_type, contact_value,
			number_of_tickets, customer_name, total_amount, booking_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		booking.ID,
		booking.ShowID,
		booking.ShowTimeID,
		booking.ContactType,
		booking.ContactValue,
		booking.NumberOfTickets,
		booking.CustomerName,
		booking.TotalAmount,
		booking.BookingDate,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	return tx.Commit()
}

func reserveShowSeats(ctx context.Context, tx *sql.Tx, showID uuid.UUID, tickets int32) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE shows
		SET booked_tickets = booked_tickets + $1, updated_at = NOW()
		WHERE id = $2 AND booked_tickets + $1 <= total_tickets`,
		tickets, showID)
	if err != nil {
		return fmt.Errorf("reserve show seats: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM shows WHERE id = $1)`, showID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("show %s: %w", showID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("show %s: %w", showID, apperrors.ErrInsufficientAvailability)
	}
	return nil
}

func reserveShowTimeSeats(ctx context.Context, tx *sql.Tx, showTimeID uuid.UUID, tickets int32) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE show_times
		SET booked_seats = COALESCE(booked_seats, 0) + $1
		WHERE id = $2
		  AND total_seats IS NOT NULL
		  AND COALESCE(booked_seats, 0) + $1 <= total_seats`,
		tickets, showTimeID)
	if err != nil {
		return fmt.Errorf("reserve showtime seats: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM show_times WHERE id = $1)`, showTimeID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("showtime %s: %w", showTimeID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("showtime %s: %w", showTimeID, apperrors.ErrInsufficientAvailability)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return booking, err
}

func (r *BookingRepository) GetByContact(ctx context.Context, contactValue string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE contact_value = $1
		ORDER BY created_at DESC`

	return r.queryBookings(ctx, query, contactValue)
}

func (r *BookingRepository) GetByShow(ctx context.Context, showID uuid.UUID) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE show_id = $1
		ORDER BY created_at DESC`

	return r.queryBookings(ctx, query, showID)
}

// Search filters bookings with a dynamic WHERE clause. Date bounds are
// inclusive and apply to booking_date.
func (r *BookingRepository) Search(ctx context.Context, filter *models.BookingFilter) ([]*models.Booking, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	argIndex := 1

	if filter.ShowID != nil {
		where += fmt.Sprintf(" AND show_id = $%d", argIndex)
		args = append(args, *filter.ShowID)
		argIndex++
	}

	if filter.ContactValue != "" {
		where += fmt.Sprintf(" AND contact_value = $%d", argIndex)
		args = append(args, filter.ContactValue)
		argIndex++
	}

	if filter.ContactType != "" {
		where += fmt.Sprintf(" AND contact_type = $%d", argIndex)
		args = append(args, filter.ContactType)
		argIndex++
	}

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.DateFrom != nil {
		where += fmt.Sprintf(" AND booking_date >= $%d", argIndex)
		args = append(args, *filter.DateFrom)
		argIndex++
	}

	if filter.DateTo != nil {
		where += fmt.Sprintf(" AND booking_date <= $%d", argIndex)
		args = append(args, *filter.DateTo)
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY booking_date DESC, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	bookings, err := r.queryBookings(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// Confirm flips a pending booking to confirmed. The status guard is in the
// WHERE clause so a concurrent cancel cannot be overwritten; the return
// value reports whether the transition applied.
func (r *BookingRepository) Confirm(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		models.BookingStatusConfirmed, id, models.BookingStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	return affected == 1, err
}

// Cancel transitions the booking to cancelled and releases its seats, both
// in one transaction. The status guard makes the release happen at most
// once: a booking that is already cancelled leaves the seat counters
// untouched. Returns whether this call performed the transition.
func (r *BookingRepository) Cancel(ctx context.Context, booking *models.Booking) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $1`,
		models.BookingStatusCancelled, booking.ID)
	if err != nil {
		return false, fmt.Errorf("cancel booking: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Lost a race with another cancel; seats were already released.
		return false, tx.Commit()
	}

	if err := releaseSeats(ctx, tx, booking); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// releaseSeats mirrors the reservation: if the booking charged a showtime
// with its own inventory, the release goes there, otherwise to the show's
// aggregate counter. The showtime update's total_seats guard affects zero
// rows for inventory-less showtimes, falling through to the show.
func releaseSeats(ctx context.Context, tx *sql.Tx, booking *models.Booking) error {
	if booking.ShowTimeID != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE show_times
			SET booked_seats = GREATEST(COALESCE(booked_seats, 0) - $1, 0)
			WHERE id = $2 AND total_seats IS NOT NULL`,
			booking.NumberOfTickets, *booking.ShowTimeID)
		if err != nil {
			return fmt.Errorf("release showtime seats: %w", err)
		}
		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 1 {
			return nil
		}
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE shows
		SET booked_tickets = GREATEST(booked_tickets - $1, 0), updated_at = NOW()
		WHERE id = $2`,
		booking.NumberOfTickets, booking.ShowID)
	if err != nil {
		return fmt.Errorf("release show seats: %w", err)
	}
	return nil
}

// StatsByShow aggregates booking counts and revenue for one show. Revenue
// only counts non-cancelled bookings.
func (r *BookingRepository) StatsByShow(ctx context.Context, showID uuid.UUID) (*models.BookingStats, error) {
	stats := &models.BookingStats{ShowID: showID.String()}
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(number_of_tickets), 0),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'confirmed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(total_amount) FILTER (WHERE status <> 'cancelled'), 0)
		FROM bookings
		WHERE show_id = $1`

	err := r.db.QueryRowContext(ctx, query, showID).Scan(
		&stats.TotalBookings,
		&stats.TotalTickets,
		&stats.PendingBookings,
		&stats.ConfirmedBookings,
		&stats.CancelledBookings,
		&stats.TotalRevenue,
	)
	return stats, err
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var showTimeID uuid.NullUUID

	err := row.Scan(
		&booking.ID,
		&booking.ShowID,
		&showTimeID,
		&booking.ContactType,
		&booking.ContactValue,
		&booking.NumberOfTickets,
		&booking.CustomerName,
		&booking.TotalAmount,
		&booking.BookingDate,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if showTimeID.Valid {
		booking.ShowTimeID = &showTimeID.UUID
	}
	return booking, nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
