package handlers

import (
	"net/http"

	"photo-journal-backend/internal/middleware"
	"photo-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler handles event photo HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
	maxUpload    int64
}

// NewPhotoHandler creates a new photo handler accepting up to maxUpload bytes per request
func NewPhotoHandler(photoService *services.PhotoService, maxUpload int64) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		maxUpload:    maxUpload,
	}
}

// ReplacePhotos handles PUT /api/v1/events/{event_id}/photos
func (h *PhotoHandler) ReplacePhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	uploads, err := readUploads(r.MultipartForm.File["photos"])
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to read uploaded photos")
		respondError(w, "Failed to read photos", http.StatusBadRequest)
		return
	}

	photos, err := h.photoService.ReplaceEventPhotos(ctx, userID, chi.URLParam(r, "event_id"), uploads)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"photos": photos,
		"total":  len(photos),
	})
}

// DeletePhotos handles DELETE /api/v1/events/{event_id}/photos
func (h *PhotoHandler) DeletePhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.photoService.DeleteEventPhotos(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "event_id")); err != nil {
		respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
