package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"
	"photo-journal-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventService coordinates event membership, editing and finalization
type EventService struct {
	userRepo  repository.UserRepository
	eventRepo repository.EventRepository
	photoRepo repository.EventPhotoRepository
	barcodes  *BarcodeService
	publisher Publisher
	pusher    PushNotifier
}

// NewEventService creates a new event service
func NewEventService(
	store *repository.Store,
	barcodes *BarcodeService,
	publisher Publisher,
	pusher PushNotifier,
) *EventService {
	return &EventService{
		userRepo:  store.Users,
		eventRepo: store.Events,
		photoRepo: store.EventPhotos,
		barcodes:  barcodes,
		publisher: publisher,
		pusher:    pusher,
	}
}

// CreateEventRequest represents a request to create an event
type CreateEventRequest struct {
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// DateRange is an inclusive pair of calendar dates
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Membership tags the outcome of EnsureMembership
type Membership int

const (
	MembershipExisting Membership = iota
	MembershipAdded
)

// MemberPhotos is one member's photo summary within an event
type MemberPhotos struct {
	UserID      string   `json:"user_id"`
	Nickname    string   `json:"nickname"`
	PhotoURLs   []string `json:"photo_urls"`
	CheckStatus bool     `json:"check_status"`
	PhotoCount  int      `json:"photo_count"`
}

// EventSummary is the view of an event returned to a member
type EventSummary struct {
	EventID      string          `json:"event_id"`
	Title        string          `json:"title"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	ActiveStatus bool            `json:"active_status"`
	IsRoomMaker  bool            `json:"is_room_maker"`
	ProfileURLs  []*string       `json:"profile_urls"`
	Members      []*MemberPhotos `json:"members"`
}

// EventStatus reports whether a user currently has an active event
type EventStatus struct {
	HasEvent bool    `json:"has_event"`
	EventID  *string `json:"event_id,omitempty"`
}

// parseDateRange parses YYYY-MM-DD bounds and rejects end before start
func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidDate(fmt.Sprintf("invalid start date %q", start))
	}
	endDate, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidDate(fmt.Sprintf("invalid end date %q", end))
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, apperrors.InvalidDate("end date is before start date")
	}
	return startDate, endDate, nil
}

// CreateEvent creates an event with the caller as room maker and sole member
func (s *EventService) CreateEvent(ctx context.Context, userID string, req CreateEventRequest) (*models.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.Validation("title is required")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EventID != nil {
		return nil, apperrors.ErrAlreadyInEvent
	}

	event := &models.Event{
		ID:           uuid.New().String(),
		Title:        title,
		StartDate:    start,
		EndDate:      end,
		ActiveStatus: true,
		RoomMakerID:  user.ID,
		CreatedAt:    time.Now(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	if _, err := s.eventRepo.AddMember(ctx, event.ID, user.ID); err != nil {
		return nil, fmt.Errorf("failed to add room maker: %w", err)
	}
	if err := s.userRepo.UpdateEvent(ctx, user.ID, &event.ID); err != nil {
		return nil, fmt.Errorf("failed to attach event: %w", err)
	}

	log.Info().Str("event_id", event.ID).Str("user_id", user.ID).Msg("Event created")
	return event, nil
}

// EnsureMembership makes the caller a member of the event. Calling it again
// for an existing member changes nothing.
func (s *EventService) EnsureMembership(ctx context.Context, userID, eventID string) (Membership, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return MembershipExisting, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return MembershipExisting, err
	}

	isMember, err := s.eventRepo.IsMember(ctx, event.ID, user.ID)
	if err != nil {
		return MembershipExisting, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return MembershipExisting, nil
	}

	if user.EventID != nil && *user.EventID != event.ID {
		return MembershipExisting, apperrors.ErrAlreadyInEvent
	}
	if !event.ActiveStatus {
		return MembershipExisting, apperrors.ErrEventNotActive
	}

	added, err := s.eventRepo.AddMember(ctx, event.ID, user.ID)
	if err != nil {
		return MembershipExisting, fmt.Errorf("failed to add member: %w", err)
	}
	if err := s.userRepo.UpdateEvent(ctx, user.ID, &event.ID); err != nil {
		return MembershipExisting, fmt.Errorf("failed to attach event: %w", err)
	}
	if !added {
		return MembershipExisting, nil
	}

	log.Info().Str("event_id", event.ID).Str("user_id", user.ID).Msg("Member joined event")
	return MembershipAdded, nil
}

// ViewEvent summarizes an event for the caller without mutating anything.
// Members with no photos are left out of the per-member list.
func (s *EventService) ViewEvent(ctx context.Context, userID, eventID string) (*EventSummary, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	members, err := s.eventRepo.ListMembers(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	summary := &EventSummary{
		EventID:      event.ID,
		Title:        event.Title,
		StartDate:    event.StartDate.Format(models.DateLayout),
		EndDate:      event.EndDate.Format(models.DateLayout),
		ActiveStatus: event.ActiveStatus,
		IsRoomMaker:  event.IsRoomMaker(userID),
		ProfileURLs:  make([]*string, 0, len(members)),
		Members:      []*MemberPhotos{},
	}

	for _, member := range members {
		summary.ProfileURLs = append(summary.ProfileURLs, member.ProfileURL)

		photos, err := s.photoRepo.ListByUserAndEvent(ctx, member.ID, event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list photos: %w", err)
		}
		if len(photos) == 0 {
			continue
		}

		urls := make([]string, 0, len(photos))
		for _, photo := range photos {
			urls = append(urls, photo.URL)
		}
		summary.Members = append(summary.Members, &MemberPhotos{
			UserID:      member.ID,
			Nickname:    member.Nickname,
			PhotoURLs:   urls,
			CheckStatus: member.CheckStatus,
			PhotoCount:  len(urls),
		})
	}

	return summary, nil
}

// JoinOrViewEvent ensures the caller's membership and then returns the event summary
func (s *EventService) JoinOrViewEvent(ctx context.Context, userID, eventID string) (*EventSummary, error) {
	if _, err := s.EnsureMembership(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.ViewEvent(ctx, userID, eventID)
}

// roomMakerEvent loads an event and checks the caller created it
func (s *EventService) roomMakerEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsRoomMaker(userID) {
		return nil, apperrors.ErrNotRoomMaker
	}
	return event, nil
}

// RenameEvent changes the event title
func (s *EventService) RenameEvent(ctx context.Context, userID, eventID, title string) (*models.Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Validation("title is required")
	}
	event, err := s.roomMakerEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.UpdateTitle(ctx, event.ID, title); err != nil {
		return nil, fmt.Errorf("failed to rename event: %w", err)
	}
	event.Title = title
	return event, nil
}

// RescheduleEvent changes the event date range
func (s *EventService) RescheduleEvent(ctx context.Context, userID, eventID string, dates DateRange) (*models.Event, error) {
	start, end, err := parseDateRange(dates.StartDate, dates.EndDate)
	if err != nil {
		return nil, err
	}
	event, err := s.roomMakerEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.UpdateDates(ctx, event.ID, start, end); err != nil {
		return nil, fmt.Errorf("failed to reschedule event: %w", err)
	}
	event.StartDate, event.EndDate = start, end
	return event, nil
}

// GenerateEventBarcode renders every member's photos into a barcode, grants
// it to all members and deactivates the event. Only one invocation can win
// the active -> inactive transition; a failed render reactivates the event.
func (s *EventService) GenerateEventBarcode(ctx context.Context, userID, eventID string) (*models.Barcode, error) {
	event, err := s.roomMakerEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	won, err := s.eventRepo.CompareAndSetActive(ctx, event.ID, true, false)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate event: %w", err)
	}
	if !won {
		return nil, apperrors.ErrEventNotActive
	}

	// Once the event is deactivated the workflow must finish or revert even
	// if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	barcode, err := s.finalize(ctx, event)
	if err != nil {
		if _, revertErr := s.eventRepo.CompareAndSetActive(ctx, event.ID, false, true); revertErr != nil {
			log.Error().Err(revertErr).Str("event_id", event.ID).Msg("Failed to reactivate event")
		}
		return nil, err
	}

	if err := s.userRepo.ReleaseEvent(ctx, event.ID); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to release event members")
	}

	return barcode, nil
}

func (s *EventService) finalize(ctx context.Context, event *models.Event) (*models.Barcode, error) {
	members, err := s.eventRepo.ListMembers(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	var urls []string
	memberIDs := make([]string, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
		photos, err := s.photoRepo.ListByUserAndEvent(ctx, member.ID, event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list photos: %w", err)
		}
		for _, photo := range photos {
			urls = append(urls, photo.URL)
		}
	}

	eventID := event.ID
	barcode, err := s.barcodes.create(ctx, urls, barcodeDraft{
		Title:     event.Title,
		StartDate: event.StartDate,
		EndDate:   event.EndDate,
		Type:      models.BarcodeTypeEvent,
		EventID:   &eventID,
	}, memberIDs)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(Notification{
		Type:    NotificationBarcodeReady,
		EventID: event.ID,
		Data:    barcode,
	})
	s.pushBarcodeReady(ctx, event, barcode, members)

	return barcode, nil
}

func (s *EventService) pushBarcodeReady(ctx context.Context, event *models.Event, barcode *models.Barcode, members []*models.User) {
	var tokens []string
	for _, member := range members {
		if member.PushToken != nil && *member.PushToken != "" {
			tokens = append(tokens, *member.PushToken)
		}
	}
	if len(tokens) == 0 {
		return
	}

	err := s.pusher.Notify(ctx, tokens, event.Title, "Your event barcode is ready", map[string]string{
		"event_id":   event.ID,
		"barcode_id": barcode.ID,
	})
	if err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to push barcode notification")
	}
}

// GetUserEventStatus reports the caller's current active event, if any
func (s *EventService) GetUserEventStatus(ctx context.Context, userID string) (*EventStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EventID == nil {
		return &EventStatus{}, nil
	}

	event, err := s.eventRepo.GetByID(ctx, *user.EventID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return &EventStatus{}, nil
		}
		return nil, err
	}
	if !event.ActiveStatus {
		return &EventStatus{}, nil
	}

	return &EventStatus{HasEvent: true, EventID: &event.ID}, nil
}
