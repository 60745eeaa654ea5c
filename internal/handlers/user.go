package handlers

import (
	"encoding/json"
	"net/http"

	"photo-journal-backend/internal/middleware"
	"photo-journal-backend/internal/models"
	"photo-journal-backend/internal/services"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService  *services.UserService
	eventService *services.EventService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, eventService *services.EventService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		eventService: eventService,
	}
}

// CreateUserResponse is returned after login
type CreateUserResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UpdatePushTokenRequest carries an APNs device token
type UpdatePushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.CreateUser(r.Context(), req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CreateUserResponse{User: user, Token: token})
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdatePushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetEventStatus handles GET /api/v1/users/me/event
func (h *UserHandler) GetEventStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.eventService.GetUserEventStatus(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
