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

const userColumns = `id, nickname, profile_url, social_id, refresh_token, push_token, check_status, event_id, created_at`

// PgUserRepository handles database operations for users
type PgUserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Nickname, &user.ProfileURL, &user.SocialID, &user.RefreshToken,
		&user.PushToken, &user.CheckStatus, &user.EventID, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) error {
	defer observeDB(ctx, "users.create")()
	query := `
		INSERT INTO users (id, nickname, profile_url, social_id, refresh_token, push_token, check_status, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Nickname, user.ProfileURL, user.SocialID, user.RefreshToken,
		user.PushToken, user.CheckStatus, user.EventID, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observeDB(ctx, "users.get_by_id")()
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetBySocialID retrieves a user by social login reference
func (r *PgUserRepository) GetBySocialID(ctx context.Context, socialID string) (*models.User, error) {
	defer observeDB(ctx, "users.get_by_social_id")()
	query := `SELECT ` + userColumns + ` FROM users WHERE social_id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, socialID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user by social id: %w", err)
	}
	return user, nil
}

// UpdateProfile updates nickname, profile image and refresh token
func (r *PgUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	defer observeDB(ctx, "users.update_profile")()
	query := `UPDATE users SET nickname = $1, profile_url = $2, refresh_token = $3 WHERE id = $4`
	result, err := r.db.Exec(ctx, query, user.Nickname, user.ProfileURL, user.RefreshToken, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// UpdateEvent sets or clears the event a user belongs to
func (r *PgUserRepository) UpdateEvent(ctx context.Context, userID string, eventID *string) error {
	defer observeDB(ctx, "users.update_event")()
	query := `UPDATE users SET event_id = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to update user event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// ReleaseEvent clears the event reference of every user pointing at eventID
func (r *PgUserRepository) ReleaseEvent(ctx context.Context, eventID string) error {
	defer observeDB(ctx, "users.release_event")()
	query := `UPDATE users SET event_id = NULL, check_status = FALSE WHERE event_id = $1`
	if _, err := r.db.Exec(ctx, query, eventID); err != nil {
		return fmt.Errorf("failed to release event: %w", err)
	}
	return nil
}

// UpdateCheckStatus updates the check-in status for a user
func (r *PgUserRepository) UpdateCheckStatus(ctx context.Context, userID string, status bool) error {
	defer observeDB(ctx, "users.update_check_status")()
	query := `UPDATE users SET check_status = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, status, userID)
	if err != nil {
		return fmt.Errorf("failed to update check status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *PgUserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	defer observeDB(ctx, "users.update_push_token")()
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}
