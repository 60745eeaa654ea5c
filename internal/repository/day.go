package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgDayRepository handles database operations for journal days
type PgDayRepository struct {
	db *pgxpool.Pool
}

// NewDayRepository creates a new day repository
func NewDayRepository(db *pgxpool.Pool) *PgDayRepository {
	return &PgDayRepository{db: db}
}

func scanDay(row pgx.Row) (*models.Day, error) {
	var day models.Day
	err := row.Scan(&day.ID, &day.UserID, &day.Year, &day.Month, &day.Day, &day.Memo, &day.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// Find retrieves the user's day for a date
func (r *PgDayRepository) Find(ctx context.Context, userID string, year, month, day int) (*models.Day, error) {
	defer observeDB(ctx, "days.find")()
	query := `
		SELECT id, user_id, year, month, day, memo, created_at
		FROM days
		WHERE user_id = $1 AND year = $2 AND month = $3 AND day = $4
	`
	d, err := scanDay(r.db.QueryRow(ctx, query, userID, year, month, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("day not found")
		}
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	return d, nil
}

// CreateIfAbsent inserts a day row, returning the existing row when one is already stored
func (r *PgDayRepository) CreateIfAbsent(ctx context.Context, day *models.Day) (*models.Day, bool, error) {
	defer observeDB(ctx, "days.create_if_absent")()
	query := `
		INSERT INTO days (id, user_id, year, month, day, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, year, month, day) DO NOTHING
		RETURNING id, user_id, year, month, day, memo, created_at
	`
	created, err := scanDay(r.db.QueryRow(ctx, query,
		day.ID, day.UserID, day.Year, day.Month, day.Day, day.Memo, day.CreatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create day: %w", err)
	}

	existing, err := r.Find(ctx, day.UserID, day.Year, day.Month, day.Day)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// UpdateMemo overwrites the memo of a day
func (r *PgDayRepository) UpdateMemo(ctx context.Context, dayID string, memo *string) error {
	defer observeDB(ctx, "days.update_memo")()
	result, err := r.db.Exec(ctx, `UPDATE days SET memo = $1 WHERE id = $2`, memo, dayID)
	if err != nil {
		return fmt.Errorf("failed to update memo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("day not found")
	}
	return nil
}

// ListByMonth retrieves the user's days for a month ordered by date
func (r *PgDayRepository) ListByMonth(ctx context.Context, userID string, year, month int) ([]*models.Day, error) {
	defer observeDB(ctx, "days.list_by_month")()
	query := `
		SELECT id, user_id, year, month, day, memo, created_at
		FROM days
		WHERE user_id = $1 AND year = $2 AND month = $3
		ORDER BY day
	`
	rows, err := r.db.Query(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	defer rows.Close()

	var days []*models.Day
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating days: %w", err)
	}
	return days, nil
}
