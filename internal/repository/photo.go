package repository

import (
	"context"
	"fmt"

	"photo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgEventPhotoRepository handles database operations for event photos
type PgEventPhotoRepository struct {
	db *pgxpool.Pool
}

// NewEventPhotoRepository creates a new event photo repository
func NewEventPhotoRepository(db *pgxpool.Pool) *PgEventPhotoRepository {
	return &PgEventPhotoRepository{db: db}
}

// CreateBatch inserts photos in a single round trip
func (r *PgEventPhotoRepository) CreateBatch(ctx context.Context, photos []*models.EventPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	defer observeDB(ctx, "event_photos.create_batch")()

	query := `
		INSERT INTO event_photos (id, event_id, user_id, url, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	batch := &pgx.Batch{}
	for _, photo := range photos {
		batch.Queue(query, photo.ID, photo.EventID, photo.UserID, photo.URL, photo.Position, photo.CreatedAt)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to create event photos: %w", err)
	}
	return nil
}

// ListByUserAndEvent retrieves a user's photos for an event in upload order
func (r *PgEventPhotoRepository) ListByUserAndEvent(ctx context.Context, userID, eventID string) ([]*models.EventPhoto, error) {
	defer observeDB(ctx, "event_photos.list_by_user_and_event")()
	query := `
		SELECT id, event_id, user_id, url, position, created_at
		FROM event_photos
		WHERE user_id = $1 AND event_id = $2
		ORDER BY position, created_at
	`
	rows, err := r.db.Query(ctx, query, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.EventPhoto
	for rows.Next() {
		var photo models.EventPhoto
		err := rows.Scan(
			&photo.ID, &photo.EventID, &photo.UserID, &photo.URL, &photo.Position, &photo.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event photo: %w", err)
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event photos: %w", err)
	}

	return photos, nil
}

// DeleteByIDs removes event photo rows
func (r *PgEventPhotoRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	defer observeDB(ctx, "event_photos.delete_by_ids")()
	if _, err := r.db.Exec(ctx, `DELETE FROM event_photos WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete event photos: %w", err)
	}
	return nil
}
