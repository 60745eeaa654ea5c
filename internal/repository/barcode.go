package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const barcodeColumns = `b.id, b.url, b.title, b.start_date, b.end_date, b.type, b.event_id, b.blur_hash, b.created_at`

// PgBarcodeRepository handles database operations for barcodes
type PgBarcodeRepository struct {
	db *pgxpool.Pool
}

// NewBarcodeRepository creates a new barcode repository
func NewBarcodeRepository(db *pgxpool.Pool) *PgBarcodeRepository {
	return &PgBarcodeRepository{db: db}
}

func scanBarcode(row pgx.Row) (*models.Barcode, error) {
	var b models.Barcode
	err := row.Scan(&b.ID, &b.URL, &b.Title, &b.StartDate, &b.EndDate, &b.Type, &b.EventID, &b.BlurHash, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateWithGrants inserts a barcode and its user grants in one transaction
func (r *PgBarcodeRepository) CreateWithGrants(ctx context.Context, barcode *models.Barcode, userIDs []string) ([]*models.UserBarcode, error) {
	defer observeDB(ctx, "barcodes.create_with_grants")()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	query := `
		INSERT INTO barcodes (id, url, title, start_date, end_date, type, event_id, blur_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, query,
		barcode.ID, barcode.URL, barcode.Title, barcode.StartDate, barcode.EndDate,
		barcode.Type, barcode.EventID, barcode.BlurHash, barcode.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create barcode: %w", err)
	}

	grants := make([]*models.UserBarcode, 0, len(userIDs))
	batch := &pgx.Batch{}
	for _, userID := range userIDs {
		grant := &models.UserBarcode{
			ID:        uuid.New().String(),
			UserID:    userID,
			BarcodeID: barcode.ID,
			CreatedAt: barcode.CreatedAt,
		}
		batch.Queue(
			`INSERT INTO user_barcodes (id, user_id, barcode_id, created_at) VALUES ($1, $2, $3, $4)`,
			grant.ID, grant.UserID, grant.BarcodeID, grant.CreatedAt,
		)
		grants = append(grants, grant)
	}
	if len(grants) > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("failed to create user barcodes: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit barcode: %w", err)
	}
	return grants, nil
}

// GetByID retrieves a barcode by ID
func (r *PgBarcodeRepository) GetByID(ctx context.Context, id string) (*models.Barcode, error) {
	defer observeDB(ctx, "barcodes.get_by_id")()
	query := `SELECT ` + barcodeColumns + ` FROM barcodes b WHERE b.id = $1`
	b, err := scanBarcode(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("barcode not found")
		}
		return nil, fmt.Errorf("failed to get barcode: %w", err)
	}
	return b, nil
}

// ListByUser retrieves barcodes granted to a user, newest first
func (r *PgBarcodeRepository) ListByUser(ctx context.Context, userID string) ([]*models.Barcode, error) {
	defer observeDB(ctx, "barcodes.list_by_user")()
	query := `
		SELECT ` + barcodeColumns + `
		FROM user_barcodes ub
		JOIN barcodes b ON b.id = ub.barcode_id
		WHERE ub.user_id = $1
		ORDER BY b.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list barcodes: %w", err)
	}
	defer rows.Close()

	var barcodes []*models.Barcode
	for rows.Next() {
		b, err := scanBarcode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan barcode: %w", err)
		}
		barcodes = append(barcodes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating barcodes: %w", err)
	}
	return barcodes, nil
}

// ListGrants retrieves the user grants of a barcode
func (r *PgBarcodeRepository) ListGrants(ctx context.Context, barcodeID string) ([]*models.UserBarcode, error) {
	defer observeDB(ctx, "user_barcodes.list_by_barcode")()
	query := `
		SELECT id, user_id, barcode_id, created_at
		FROM user_barcodes
		WHERE barcode_id = $1
		ORDER BY created_at, user_id
	`
	rows, err := r.db.Query(ctx, query, barcodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user barcodes: %w", err)
	}
	defer rows.Close()

	var grants []*models.UserBarcode
	for rows.Next() {
		var g models.UserBarcode
		if err := rows.Scan(&g.ID, &g.UserID, &g.BarcodeID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user barcode: %w", err)
		}
		grants = append(grants, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user barcodes: %w", err)
	}
	return grants, nil
}
