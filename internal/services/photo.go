package services

import (
	"context"
	"fmt"
	"time"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"
	"photo-journal-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PhotoService handles the lifecycle of event photos
type PhotoService struct {
	userRepo  repository.UserRepository
	eventRepo repository.EventRepository
	photoRepo repository.EventPhotoRepository
	store     ObjectStore
	dir       string
}

// NewPhotoService creates a new photo service storing files under dir
func NewPhotoService(
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
	photoRepo repository.EventPhotoRepository,
	store ObjectStore,
	dir string,
) *PhotoService {
	return &PhotoService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		photoRepo: photoRepo,
		store:     store,
		dir:       dir,
	}
}

// activeEvent resolves the caller and the event, which must still accept photos
func (s *PhotoService) activeEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.ActiveStatus {
		return nil, apperrors.ErrEventNotActive
	}
	return event, nil
}

// ReplaceEventPhotos swaps the caller's photo set for the event with files.
// Every upload completes before the old set is removed; the old set is fully
// removed before the new set is written.
func (s *PhotoService) ReplaceEventPhotos(ctx context.Context, userID, eventID string, files []Upload) ([]*models.EventPhoto, error) {
	event, err := s.activeEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	urls, err := uploadAll(ctx, s.store, files, s.dir)
	if err != nil {
		return nil, err
	}

	if err := s.deletePhotos(ctx, userID, event.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	photos := make([]*models.EventPhoto, 0, len(urls))
	for i, url := range urls {
		photos = append(photos, &models.EventPhoto{
			ID:        uuid.New().String(),
			EventID:   event.ID,
			UserID:    userID,
			URL:       url,
			Position:  i,
			CreatedAt: now,
		})
	}
	if len(photos) > 0 {
		if err := s.photoRepo.CreateBatch(ctx, photos); err != nil {
			return nil, fmt.Errorf("failed to save photos: %w", err)
		}
	}

	log.Info().
		Str("event_id", event.ID).
		Str("user_id", userID).
		Int("photos", len(photos)).
		Msg("Event photos replaced")

	return photos, nil
}

// DeleteEventPhotos removes the caller's photos for the event. Having no
// photos is not an error.
func (s *PhotoService) DeleteEventPhotos(ctx context.Context, userID, eventID string) error {
	event, err := s.activeEvent(ctx, userID, eventID)
	if err != nil {
		return err
	}
	return s.deletePhotos(ctx, userID, event.ID)
}

func (s *PhotoService) deletePhotos(ctx context.Context, userID, eventID string) error {
	existing, err := s.photoRepo.ListByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	urls := make([]string, 0, len(existing))
	ids := make([]string, 0, len(existing))
	for _, photo := range existing {
		urls = append(urls, photo.URL)
		ids = append(ids, photo.ID)
	}

	if err := deleteObjects(ctx, s.store, urls); err != nil {
		return err
	}
	if err := s.photoRepo.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete photos: %w", err)
	}
	return nil
}
