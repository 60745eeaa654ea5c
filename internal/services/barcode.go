package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photo-journal-backend/internal/barcode"
	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/metrics"
	"photo-journal-backend/internal/models"
	"photo-journal-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BarcodeService renders, stores and lists barcodes
type BarcodeService struct {
	barcodeRepo repository.BarcodeRepository
	store       ObjectStore
	generator   BarcodeGenerator
	workDir     string
	dir         string
}

// NewBarcodeService creates a new barcode service. workDir holds rendered
// files until they are uploaded under dir.
func NewBarcodeService(
	barcodeRepo repository.BarcodeRepository,
	store ObjectStore,
	generator BarcodeGenerator,
	workDir, dir string,
) *BarcodeService {
	return &BarcodeService{
		barcodeRepo: barcodeRepo,
		store:       store,
		generator:   generator,
		workDir:     workDir,
		dir:         dir,
	}
}

// barcodeDraft describes the barcode row to persist once the artifact exists
type barcodeDraft struct {
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Type      models.BarcodeType
	EventID   *string
}

// create renders urls, uploads the artifact and persists the barcode with
// one grant per user. Nothing is persisted unless rendering and upload succeed.
func (s *BarcodeService) create(ctx context.Context, urls []string, draft barcodeDraft, userIDs []string) (result *models.Barcode, err error) {
	defer func() {
		metrics.BarcodeGenerated(string(draft.Type), err)
	}()

	if len(urls) == 0 {
		return nil, apperrors.Generation("no photos to render", barcode.ErrNoPhotos)
	}

	name := s.store.GenerateName()
	outputPath := filepath.Join(s.workDir, name+".jpg")

	path, err := s.generator.Generate(ctx, urls, outputPath)
	if err != nil {
		return nil, apperrors.Generation("failed to render barcode", err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove rendered barcode")
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Internal("failed to read rendered barcode", err)
	}

	blurHash, err := barcode.ComputeBlurHash(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to compute barcode blurhash")
		blurHash = ""
	}

	url, err := s.store.Put(ctx, data, name+".jpg", s.dir)
	if err != nil {
		return nil, apperrors.Storage("failed to upload barcode", err)
	}

	bc := &models.Barcode{
		ID:        uuid.New().String(),
		URL:       url,
		Title:     draft.Title,
		StartDate: draft.StartDate,
		EndDate:   draft.EndDate,
		Type:      draft.Type,
		EventID:   draft.EventID,
		BlurHash:  blurHash,
		CreatedAt: time.Now(),
	}
	if _, err := s.barcodeRepo.CreateWithGrants(ctx, bc, userIDs); err != nil {
		deleteQuietly(ctx, s.store, url)
		return nil, fmt.Errorf("failed to save barcode: %w", err)
	}

	log.Info().
		Str("barcode_id", bc.ID).
		Str("type", string(bc.Type)).
		Int("photos", len(urls)).
		Int("grants", len(userIDs)).
		Msg("Barcode created")

	return bc, nil
}

// ListUserBarcodes returns the barcodes granted to a user, newest first
func (s *BarcodeService) ListUserBarcodes(ctx context.Context, userID string) ([]*models.Barcode, error) {
	barcodes, err := s.barcodeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list barcodes: %w", err)
	}
	if barcodes == nil {
		barcodes = []*models.Barcode{}
	}
	return barcodes, nil
}
