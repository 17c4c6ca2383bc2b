package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"stagedoor/internal/database"
	"stagedoor/internal/models"

	"github.com/google/uuid"
)

type ShowRepository struct {
	db *database.DB
}

func NewShowRepository(db *database.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

const showColumns = `id, name, details, price, total_tickets, booked_tickets,
       location, show_number, show_date, images, videos, created_at, updated_at`

func (r *ShowRepository) Create(ctx context.Context, show *models.Show) error {
	images, err := json.Marshal(show.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	videos, err := json.Marshal(show.Videos)
	if err != nil {
		return fmt.Errorf("marshal videos: %w", err)
	}

	query := `
		INSERT INTO shows (id, name, details, price, total_tickets, booked_tickets,
			location, show_number, show_date, images, videos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		show.ID,
		show.Name,
		show.Details,
		show.Price,
		show.TotalTickets,
		show.BookedTickets,
		show.Location,
		show.ShowNumber,
		show.ShowDate,
		images,
		videos,
	).Scan(&show.CreatedAt, &show.UpdatedAt)
}

func (r *ShowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1`

	show, err := scanShow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return show, err
}

// List returns a page of shows ordered by show date, plus the total count.
func (r *ShowRepository) List(ctx context.Context, page, pageSize int) ([]*models.Show, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + showColumns + `
		FROM shows
		ORDER BY show_date, id
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	shows, err := collectShows(rows)
	return shows, total, err
}

// Search filters shows by free text, location, price range and availability.
// The WHERE clause is built incrementally, same shape for the page query and
// the count query so the pagination envelope stays consistent.
func (r *ShowRepository) Search(ctx context.Context, req *models.SearchShowsRequest) ([]*models.Show, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	argIndex := 1

	if req.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR details ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+req.Search+"%")
		argIndex++
	}

	if req.Location != "" {
		where += fmt.Sprintf(" AND location ILIKE $%d", argIndex)
		args = append(args, "%"+req.Location+"%")
		argIndex++
	}

	if req.MinPrice != nil {
		where += fmt.Sprintf(" AND price >= $%d", argIndex)
		args = append(args, *req.MinPrice)
		argIndex++
	}

	if req.MaxPrice != nil {
		where += fmt.Sprintf(" AND price <= $%d", argIndex)
		args = append(args, *req.MaxPrice)
		argIndex++
	}

	if req.MinAvailable != nil {
		where += fmt.Sprintf(" AND total_tickets - booked_tickets >= $%d", argIndex)
		args = append(args, *req.MinAvailable)
		argIndex++
	}

	if req.OnlyAvailable {
		where += " AND total_tickets - booked_tickets > 0"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + showColumns + ` FROM shows` + where +
		fmt.Sprintf(" ORDER BY show_date, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, req.PageSize, (req.Page-1)*req.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	shows, err := collectShows(rows)
	return shows, total, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShow(row rowScanner) (*models.Show, error) {
	show := &models.Show{}
	var images, videos []byte

	err := row.Scan(
		&show.ID,
		&show.Name,
		&show.Details,
		&show.Price,
		&show.TotalTickets,
		&show.BookedTickets,
		&show.Location,
		&show.ShowNumber,
		&show.ShowDate,
		&images,
		&videos,
		&show.CreatedAt,
		&show.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &show.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	if err := json.Unmarshal(videos, &show.Videos); err != nil {
		return nil, fmt.Errorf("unmarshal videos: %w", err)
	}

	return show, nil
}

func collectShows(rows *sql.Rows) ([]*models.Show, error) {
	var shows []*models.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, show)
	}
	return shows, rows.Err()
}
