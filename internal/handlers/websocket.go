package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origins are enforced by the CORS layer on the REST API
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	userService    *services.UserService
	eventService   *services.EventService
	checkInService *services.CheckInService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	eventService *services.EventService,
	checkInService *services.CheckInService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		userService:    userService,
		eventService:   eventService,
		checkInService: checkInService,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	status, err := h.eventService.GetUserEventStatus(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load event status")
		status = &services.EventStatus{}
	}
	if status.EventID != nil {
		h.hub.Subscribe(userID, *status.EventID)
	}
	if err := h.hub.SendToUser(userID, services.WSMessage{Type: "event_status", Data: status}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send event_status message")
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendErrorToUser(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case "check_status":
		return h.handleCheckStatus(ctx, userID, msg)
	default:
		return h.sendErrorToUser(userID, "Unknown message type")
	}
}

// handleCheckStatus updates the sender's check-in and replies with their status;
// the event-wide status reaches every subscriber through the hub
func (h *WebSocketHandler) handleCheckStatus(ctx context.Context, userID string, msg services.WSMessage) error {
	if msg.CheckStatus == nil {
		return h.sendErrorToUser(userID, "check_status is required")
	}

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		return h.sendErrorToUser(userID, errorMessage(err))
	}
	if user.EventID != nil {
		h.hub.Subscribe(userID, *user.EventID)
	}

	result, err := h.checkInService.UpdateCheckInStatus(ctx, userID, *msg.CheckStatus)
	if err != nil {
		return h.sendErrorToUser(userID, errorMessage(err))
	}

	return h.hub.SendToUser(userID, services.WSMessage{Type: "check_status", Data: result})
}

// sendErrorToUser sends an error message to a user
func (h *WebSocketHandler) sendErrorToUser(userID, message string) error {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	return h.hub.SendToUser(userID, msg)
}

func errorMessage(err error) string {
	var domainErr *apperrors.Error
	if apperrors.As(err, &domainErr) && domainErr.Code != apperrors.CodeInternal {
		return domainErr.Message
	}
	return "internal error"
}
