package repository

import (
	"context"
	"time"

	"photo-journal-backend/internal/metrics"
	"photo-journal-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetBySocialID(ctx context.Context, socialID string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateEvent(ctx context.Context, userID string, eventID *string) error
	ReleaseEvent(ctx context.Context, eventID string) error
	UpdateCheckStatus(ctx context.Context, userID string, status bool) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// EventRepository defines persistence operations for events and their members
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	UpdateTitle(ctx context.Context, id, title string) error
	UpdateDates(ctx context.Context, id string, start, end time.Time) error
	// CompareAndSetActive flips active_status from -> to and reports whether a row changed
	CompareAndSetActive(ctx context.Context, id string, from, to bool) (bool, error)
	// AddMember is idempotent and reports whether a new membership was written
	AddMember(ctx context.Context, eventID, userID string) (bool, error)
	IsMember(ctx context.Context, eventID, userID string) (bool, error)
	// ListMembers returns members in join order
	ListMembers(ctx context.Context, eventID string) ([]*models.User, error)
}

// EventPhotoRepository defines persistence operations for event photos
type EventPhotoRepository interface {
	CreateBatch(ctx context.Context, photos []*models.EventPhoto) error
	// ListByUserAndEvent returns photos in upload order
	ListByUserAndEvent(ctx context.Context, userID, eventID string) ([]*models.EventPhoto, error)
	DeleteByIDs(ctx context.Context, ids []string) error
}

// DayRepository defines persistence operations for journal days
type DayRepository interface {
	Find(ctx context.Context, userID string, year, month, day int) (*models.Day, error)
	// CreateIfAbsent inserts the day unless one exists for the same date and
	// returns the stored row together with whether it was created
	CreateIfAbsent(ctx context.Context, day *models.Day) (*models.Day, bool, error)
	UpdateMemo(ctx context.Context, dayID string, memo *string) error
	// ListByMonth returns the user's days for a month ordered by date
	ListByMonth(ctx context.Context, userID string, year, month int) ([]*models.Day, error)
}

// DayPhotoRepository defines persistence operations for day photos
type DayPhotoRepository interface {
	FindThumbnail(ctx context.Context, dayID string) (*models.DayPhoto, error)
	// ListGallery returns non-thumbnail photos in upload order
	ListGallery(ctx context.Context, dayID string) ([]*models.DayPhoto, error)
	CreateBatch(ctx context.Context, photos []*models.DayPhoto) error
	DeleteByIDs(ctx context.Context, ids []string) error
}

// BarcodeRepository defines persistence operations for barcodes and their grants
type BarcodeRepository interface {
	// CreateWithGrants stores the barcode and one UserBarcode per user atomically
	CreateWithGrants(ctx context.Context, barcode *models.Barcode, userIDs []string) ([]*models.UserBarcode, error)
	GetByID(ctx context.Context, id string) (*models.Barcode, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Barcode, error)
	ListGrants(ctx context.Context, barcodeID string) ([]*models.UserBarcode, error)
}

// Store aggregates the repositories used by the services
type Store struct {
	Users       UserRepository
	Events      EventRepository
	EventPhotos EventPhotoRepository
	Days        DayRepository
	DayPhotos   DayPhotoRepository
	Barcodes    BarcodeRepository
}

// New wires the PostgreSQL repositories to a shared pool
func New(db *pgxpool.Pool) *Store {
	return &Store{
		Users:       NewUserRepository(db),
		Events:      NewEventRepository(db),
		EventPhotos: NewEventPhotoRepository(db),
		Days:        NewDayRepository(db),
		DayPhotos:   NewDayPhotoRepository(db),
		Barcodes:    NewBarcodeRepository(db),
	}
}

// NewMemory wires in-memory repositories sharing one dataset
func NewMemory() *Store {
	m := newMemoryDB()
	return &Store{
		Users:       &memoryUsers{db: m},
		Events:      &memoryEvents{db: m},
		EventPhotos: &memoryEventPhotos{db: m},
		Days:        &memoryDays{db: m},
		DayPhotos:   &memoryDayPhotos{db: m},
		Barcodes:    &memoryBarcodes{db: m},
	}
}

func observeDB(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveDBLatency(ctx, operation, start)
	}
}
