package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgEventRepository handles database operations for events
type PgEventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *PgEventRepository {
	return &PgEventRepository{db: db}
}

// Create creates a new event
func (r *PgEventRepository) Create(ctx context.Context, event *models.Event) error {
	defer observeDB(ctx, "events.create")()
	query := `
		INSERT INTO events (id, title, start_date, end_date, active_status, room_maker_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID, event.Title, event.StartDate, event.EndDate, event.ActiveStatus, event.RoomMakerID, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *PgEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	defer observeDB(ctx, "events.get_by_id")()
	query := `
		SELECT id, title, start_date, end_date, active_status, room_maker_id, created_at
		FROM events
		WHERE id = $1
	`
	var event models.Event
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Title, &event.StartDate, &event.EndDate,
		&event.ActiveStatus, &event.RoomMakerID, &event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// UpdateTitle renames an event
func (r *PgEventRepository) UpdateTitle(ctx context.Context, id, title string) error {
	defer observeDB(ctx, "events.update_title")()
	result, err := r.db.Exec(ctx, `UPDATE events SET title = $1 WHERE id = $2`, title, id)
	if err != nil {
		return fmt.Errorf("failed to update event title: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("event not found")
	}
	return nil
}

// UpdateDates reschedules an event
func (r *PgEventRepository) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	defer observeDB(ctx, "events.update_dates")()
	result, err := r.db.Exec(ctx, `UPDATE events SET start_date = $1, end_date = $2 WHERE id = $3`, start, end, id)
	if err != nil {
		return fmt.Errorf("failed to update event dates: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("event not found")
	}
	return nil
}

// CompareAndSetActive flips the active flag only when it currently equals from
func (r *PgEventRepository) CompareAndSetActive(ctx context.Context, id string, from, to bool) (bool, error) {
	defer observeDB(ctx, "events.compare_and_set_active")()
	query := `UPDATE events SET active_status = $1 WHERE id = $2 AND active_status = $3`
	result, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update event status: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// AddMember adds a user to an event unless already a member
func (r *PgEventRepository) AddMember(ctx context.Context, eventID, userID string) (bool, error) {
	defer observeDB(ctx, "events.add_member")()
	query := `
		INSERT INTO event_members (event_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add event member: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// IsMember checks if a user belongs to an event
func (r *PgEventRepository) IsMember(ctx context.Context, eventID, userID string) (bool, error) {
	defer observeDB(ctx, "events.is_member")()
	query := `SELECT EXISTS(SELECT 1 FROM event_members WHERE event_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, eventID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check event membership: %w", err)
	}
	return exists, nil
}

// ListMembers returns the members of an event in join order
func (r *PgEventRepository) ListMembers(ctx context.Context, eventID string) ([]*models.User, error) {
	defer observeDB(ctx, "events.list_members")()
	query := `
		SELECT u.id, u.nickname, u.profile_url, u.social_id, u.refresh_token, u.push_token,
		       u.check_status, u.event_id, u.created_at
		FROM event_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.event_id = $1
		ORDER BY m.seq
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event members: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event member: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event members: %w", err)
	}
	return users, nil
}
