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

const dayPhotoColumns = `id, day_id, url, thumbnail, position, created_at`

// PgDayPhotoRepository handles database operations for day photos
type PgDayPhotoRepository struct {
	db *pgxpool.Pool
}

// NewDayPhotoRepository creates a new day photo repository
func NewDayPhotoRepository(db *pgxpool.Pool) *PgDayPhotoRepository {
	return &PgDayPhotoRepository{db: db}
}

func scanDayPhoto(row pgx.Row) (*models.DayPhoto, error) {
	var photo models.DayPhoto
	err := row.Scan(&photo.ID, &photo.DayID, &photo.URL, &photo.Thumbnail, &photo.Position, &photo.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// FindThumbnail retrieves the thumbnail row of a day
func (r *PgDayPhotoRepository) FindThumbnail(ctx context.Context, dayID string) (*models.DayPhoto, error) {
	defer observeDB(ctx, "day_photos.find_thumbnail")()
	query := `
		SELECT ` + dayPhotoColumns + `
		FROM day_photos
		WHERE day_id = $1 AND thumbnail
		ORDER BY created_at DESC
		LIMIT 1
	`
	photo, err := scanDayPhoto(r.db.QueryRow(ctx, query, dayID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("thumbnail not found")
		}
		return nil, fmt.Errorf("failed to get thumbnail: %w", err)
	}
	return photo, nil
}

// ListGallery retrieves the non-thumbnail photos of a day in upload order
func (r *PgDayPhotoRepository) ListGallery(ctx context.Context, dayID string) ([]*models.DayPhoto, error) {
	defer observeDB(ctx, "day_photos.list_gallery")()
	query := `
		SELECT ` + dayPhotoColumns + `
		FROM day_photos
		WHERE day_id = $1 AND NOT thumbnail
		ORDER BY position, created_at
	`
	rows, err := r.db.Query(ctx, query, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list day photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.DayPhoto
	for rows.Next() {
		photo, err := scanDayPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day photo: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day photos: %w", err)
	}
	return photos, nil
}

// CreateBatch inserts day photos in a single round trip
func (r *PgDayPhotoRepository) CreateBatch(ctx context.Context, photos []*models.DayPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	defer observeDB(ctx, "day_photos.create_batch")()

	query := `
		INSERT INTO day_photos (id, day_id, url, thumbnail, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	batch := &pgx.Batch{}
	for _, photo := range photos {
		batch.Queue(query, photo.ID, photo.DayID, photo.URL, photo.Thumbnail, photo.Position, photo.CreatedAt)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to create day photos: %w", err)
	}
	return nil
}

// DeleteByIDs removes day photo rows
func (r *PgDayPhotoRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	defer observeDB(ctx, "day_photos.delete_by_ids")()
	if _, err := r.db.Exec(ctx, `DELETE FROM day_photos WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete day photos: %w", err)
	}
	return nil
}
