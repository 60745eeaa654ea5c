package services

import (
	"context"
	"fmt"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// CheckInService tracks member check-in and broadcasts the event-wide status
type CheckInService struct {
	userRepo  repository.UserRepository
	eventRepo repository.EventRepository
	publisher Publisher
}

// NewCheckInService creates a new check-in service
func NewCheckInService(userRepo repository.UserRepository, eventRepo repository.EventRepository, publisher Publisher) *CheckInService {
	return &CheckInService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		publisher: publisher,
	}
}

// CheckStatusResult is the acting user's check-in status after an update
type CheckStatusResult struct {
	UserID      string `json:"user_id"`
	EventID     string `json:"event_id"`
	CheckStatus bool   `json:"check_status"`
}

// UpdateCheckInStatus sets the user's check-in status and publishes whether
// every member of their event is now checked in. A notification is published
// on every call, whatever the aggregate.
func (s *CheckInService) UpdateCheckInStatus(ctx context.Context, userID string, status bool) (*CheckStatusResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EventID == nil {
		return nil, apperrors.NotFound("user has no event")
	}
	eventID := *user.EventID

	if err := s.userRepo.UpdateCheckStatus(ctx, user.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update check status: %w", err)
	}

	members, err := s.eventRepo.ListMembers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	allChecked := len(members) > 0
	for _, member := range members {
		if !member.CheckStatus {
			allChecked = false
			break
		}
	}

	s.publisher.Publish(Notification{
		Type:    NotificationButtonStatus,
		EventID: eventID,
		Data: ButtonStatus{
			EventID:      eventID,
			ButtonStatus: allChecked,
		},
	})

	log.Debug().
		Str("user_id", user.ID).
		Str("event_id", eventID).
		Bool("check_status", status).
		Bool("button_status", allChecked).
		Msg("Check-in status updated")

	return &CheckStatusResult{UserID: user.ID, EventID: eventID, CheckStatus: status}, nil
}
