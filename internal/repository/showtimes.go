package repository

import (
	"context"
	"database/sql"

	"stagedoor/internal/database"
	"stagedoor/internal/models"

	"github.com/google/uuid"
)

type ShowTimeRepository struct {
	db *database.DB
}

func NewShowTimeRepository(db *database.DB) *ShowTimeRepository {
	return &ShowTimeRepository{db: db}
}

func (r *ShowTimeRepository) Create(ctx context.Context, st *models.ShowTime) error {
	query := `
		INSERT INTO show_times (id, show_id, date, time, total_seats, booked_seats)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		st.ID,
		st.ShowID,
		st.Date,
		st.Time,
		st.TotalSeats,
		st.BookedSeats,
	).Scan(&st.CreatedAt)
}

func (r *ShowTimeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ShowTime, error) {
	st := &models.ShowTime{}
	query := `
		SELECT id, show_id, date, time, total_seats, booked_seats, created_at
		FROM show_times
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&st.ID,
		&st.ShowID,
		&st.Date,
		&st.Time,
		&st.TotalSeats,
		&st.BookedSeats,
		&st.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return st, err
}

func (r *ShowTimeRepository) GetByShowID(ctx context.Context, showID uuid.UUID) ([]models.ShowTime, error) {
	var times []models.ShowTime
	query := `
		SELECT id, show_id, date, time, total_seats, booked_seats, created_at
		FROM show_times
		WHERE show_id = $1
		ORDER BY date, time`

	rows, err := r.db.QueryContext(ctx, query, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var st models.ShowTime
		err := rows.Scan(
			&st.ID,
			&st.ShowID,
			&st.Date,
			&st.Time,
			&st.TotalSeats,
			&st.BookedSeats,
			&st.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		times = append(times, st)
	}

	return times, rows.Err()
}
