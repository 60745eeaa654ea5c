package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"
	"photo-journal-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DayService manages journal days, their photos and calendar views
type DayService struct {
	userRepo     repository.UserRepository
	dayRepo      repository.DayRepository
	dayPhotoRepo repository.DayPhotoRepository
	barcodes     *BarcodeService
	store        ObjectStore
	dir          string
}

// NewDayService creates a new day service storing files under dir
func NewDayService(store *repository.Store, barcodes *BarcodeService, objects ObjectStore, dir string) *DayService {
	return &DayService{
		userRepo:     store.Users,
		dayRepo:      store.Days,
		dayPhotoRepo: store.DayPhotos,
		barcodes:     barcodes,
		store:        objects,
		dir:          dir,
	}
}

// DayResolution tags the outcome of GetOrCreateDay
type DayResolution int

const (
	DayExisting DayResolution = iota
	DayCreated
)

// DayView is a day's memo and photos
type DayView struct {
	Date         string   `json:"date"`
	Memo         *string  `json:"memo"`
	ThumbnailURL *string  `json:"thumbnail_url"`
	PhotoURLs    []string `json:"photo_urls"`
}

// CalendarEntry is one date of a calendar range
type CalendarEntry struct {
	Date         string  `json:"date"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// Calendar is a range of dates and whether every date has a thumbnail
type Calendar struct {
	Days         []CalendarEntry `json:"days"`
	ButtonStatus bool            `json:"button_status"`
}

// DayContent is the replacement content of a day. A nil Thumbnail clears
// the thumbnail; an empty Photos clears the gallery.
type DayContent struct {
	Memo      *string
	Thumbnail *Upload
	Photos    []Upload
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidDate(fmt.Sprintf("invalid date %q", value))
	}
	return date, nil
}

// GetOrCreateDay returns the user's day for date, creating it on first access
func (s *DayService) GetOrCreateDay(ctx context.Context, userID string, date time.Time) (*models.Day, DayResolution, error) {
	day, created, err := s.dayRepo.CreateIfAbsent(ctx, &models.Day{
		ID:        uuid.New().String(),
		UserID:    userID,
		Year:      date.Year(),
		Month:     int(date.Month()),
		Day:       date.Day(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, DayExisting, fmt.Errorf("failed to resolve day: %w", err)
	}
	if created {
		return day, DayCreated, nil
	}
	return day, DayExisting, nil
}

// ShowDay returns the caller's memo and photos for a date
func (s *DayService) ShowDay(ctx context.Context, userID, date string) (*DayView, error) {
	parsed, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	day, _, err := s.GetOrCreateDay(ctx, userID, parsed)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, day)
}

func (s *DayService) view(ctx context.Context, day *models.Day) (*DayView, error) {
	thumbnailURL, err := s.thumbnailURL(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	gallery, err := s.dayPhotoRepo.ListGallery(ctx, day.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}

	urls := make([]string, 0, len(gallery))
	for _, photo := range gallery {
		if photo.URL != nil {
			urls = append(urls, *photo.URL)
		}
	}

	return &DayView{
		Date:         day.Date().Format(models.DateLayout),
		Memo:         day.Memo,
		ThumbnailURL: thumbnailURL,
		PhotoURLs:    urls,
	}, nil
}

// thumbnailURL returns nil when the day has no thumbnail or it was cleared
func (s *DayService) thumbnailURL(ctx context.Context, dayID string) (*string, error) {
	thumbnail, err := s.dayPhotoRepo.FindThumbnail(ctx, dayID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find thumbnail: %w", err)
	}
	return thumbnail.URL, nil
}

// ReplaceDayContent overwrites the memo, thumbnail and gallery of the
// caller's day. The thumbnail and gallery are replaced independently.
func (s *DayService) ReplaceDayContent(ctx context.Context, userID, date string, content DayContent) (*DayView, error) {
	parsed, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	day, _, err := s.GetOrCreateDay(ctx, userID, parsed)
	if err != nil {
		return nil, err
	}

	if err := s.dayRepo.UpdateMemo(ctx, day.ID, content.Memo); err != nil {
		return nil, fmt.Errorf("failed to update memo: %w", err)
	}
	day.Memo = content.Memo

	// Neither replacement cancels the other
	var g errgroup.Group
	g.Go(func() error {
		return s.replaceThumbnail(ctx, day.ID, content.Thumbnail)
	})
	g.Go(func() error {
		return s.replaceGallery(ctx, day.ID, content.Photos)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("date", date).
		Bool("thumbnail", content.Thumbnail != nil).
		Int("photos", len(content.Photos)).
		Msg("Day content replaced")

	return s.view(ctx, day)
}

func (s *DayService) replaceThumbnail(ctx context.Context, dayID string, file *Upload) error {
	var url *string
	if file != nil {
		urls, err := uploadAll(ctx, s.store, []Upload{*file}, s.dir)
		if err != nil {
			return err
		}
		url = &urls[0]
	}

	existing, err := s.dayPhotoRepo.FindThumbnail(ctx, dayID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to find thumbnail: %w", err)
	}
	if existing != nil {
		if existing.URL != nil {
			if err := deleteObjects(ctx, s.store, []string{*existing.URL}); err != nil {
				return err
			}
		}
		if err := s.dayPhotoRepo.DeleteByIDs(ctx, []string{existing.ID}); err != nil {
			return fmt.Errorf("failed to delete thumbnail: %w", err)
		}
	}

	thumbnail := &models.DayPhoto{
		ID:        uuid.New().String(),
		DayID:     dayID,
		URL:       url,
		Thumbnail: true,
		CreatedAt: time.Now(),
	}
	if err := s.dayPhotoRepo.CreateBatch(ctx, []*models.DayPhoto{thumbnail}); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

func (s *DayService) replaceGallery(ctx context.Context, dayID string, files []Upload) error {
	urls, err := uploadAll(ctx, s.store, files, s.dir)
	if err != nil {
		return err
	}

	existing, err := s.dayPhotoRepo.ListGallery(ctx, dayID)
	if err != nil {
		return fmt.Errorf("failed to list gallery: %w", err)
	}
	if len(existing) > 0 {
		var oldURLs []string
		ids := make([]string, 0, len(existing))
		for _, photo := range existing {
			if photo.URL != nil {
				oldURLs = append(oldURLs, *photo.URL)
			}
			ids = append(ids, photo.ID)
		}
		if err := deleteObjects(ctx, s.store, oldURLs); err != nil {
			return err
		}
		if err := s.dayPhotoRepo.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("failed to delete gallery: %w", err)
		}
	}

	if len(urls) == 0 {
		return nil
	}
	now := time.Now()
	photos := make([]*models.DayPhoto, 0, len(urls))
	for i := range urls {
		photos = append(photos, &models.DayPhoto{
			ID:        uuid.New().String(),
			DayID:     dayID,
			URL:       &urls[i],
			Position:  i,
			CreatedAt: now,
		})
	}
	if err := s.dayPhotoRepo.CreateBatch(ctx, photos); err != nil {
		return fmt.Errorf("failed to save gallery: %w", err)
	}
	return nil
}

// BuildCalendar lists every date after start up to and including end with
// its thumbnail. ButtonStatus is true only when every listed date has one.
// Days are looked up, never created.
func (s *DayService) BuildCalendar(ctx context.Context, userID, startDate, endDate string) (*Calendar, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, apperrors.InvalidDate("end date is before start date")
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	calendar := &Calendar{Days: []CalendarEntry{}, ButtonStatus: true}
	for cursor := start; cursor.Before(end); {
		cursor = cursor.AddDate(0, 0, 1)

		entry := CalendarEntry{Date: cursor.Format(models.DateLayout)}
		day, err := s.dayRepo.Find(ctx, userID, cursor.Year(), int(cursor.Month()), cursor.Day())
		switch {
		case err == nil:
			entry.ThumbnailURL, err = s.thumbnailURL(ctx, day.ID)
			if err != nil {
				return nil, err
			}
		case !apperrors.Is(err, apperrors.ErrNotFound):
			return nil, fmt.Errorf("failed to find day: %w", err)
		}

		if entry.ThumbnailURL == nil {
			calendar.ButtonStatus = false
		}
		calendar.Days = append(calendar.Days, entry)
	}

	return calendar, nil
}

// BuildMonthBarcode renders every photo of the caller's days in a month into
// a barcode owned by the caller alone
func (s *DayService) BuildMonthBarcode(ctx context.Context, userID, year, month string) (*models.Barcode, error) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return nil, apperrors.InvalidDate(fmt.Sprintf("invalid year %q", year))
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return nil, apperrors.InvalidDate(fmt.Sprintf("invalid month %q", month))
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	days, err := s.dayRepo.ListByMonth(ctx, userID, y, m)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}

	var urls []string
	for _, day := range days {
		dayURLs, err := s.photoURLs(ctx, day.ID)
		if err != nil {
			return nil, err
		}
		urls = append(urls, dayURLs...)
	}

	first := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	return s.barcodes.create(context.WithoutCancel(ctx), urls, barcodeDraft{
		Title:     first.Format("January 2006"),
		StartDate: first,
		EndDate:   last,
		Type:      models.BarcodeTypeDay,
	}, []string{userID})
}

// photoURLs returns the thumbnail followed by the gallery in upload order
func (s *DayService) photoURLs(ctx context.Context, dayID string) ([]string, error) {
	var urls []string
	thumbnailURL, err := s.thumbnailURL(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if thumbnailURL != nil {
		urls = append(urls, *thumbnailURL)
	}

	gallery, err := s.dayPhotoRepo.ListGallery(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}
	for _, photo := range gallery {
		if photo.URL != nil {
			urls = append(urls, *photo.URL)
		}
	}
	return urls, nil
}
