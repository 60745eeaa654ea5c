package handlers

import (
	"encoding/json"
	"net/http"

	"photo-journal-backend/internal/middleware"
	"photo-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// RenameEventRequest represents the request body for renaming an event
type RenameEventRequest struct {
	Title string `json:"title"`
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.eventService.CreateEvent(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /api/v1/events/{event_id}; viewing an event joins it
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.eventService.JoinOrViewEvent(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "event_id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// RenameEvent handles PATCH /api/v1/events/{event_id}/name
func (h *EventHandler) RenameEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RenameEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.eventService.RenameEvent(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "event_id"), req.Title)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// RescheduleEvent handles PATCH /api/v1/events/{event_id}/date
func (h *EventHandler) RescheduleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.DateRange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.eventService.RescheduleEvent(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "event_id"), req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// GenerateBarcode handles POST /api/v1/events/{event_id}/barcode
func (h *EventHandler) GenerateBarcode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	barcode, err := h.eventService.GenerateEventBarcode(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "event_id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, barcode)
}
