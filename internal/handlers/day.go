package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"photo-journal-backend/internal/middleware"
	"photo-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// DayHandler handles journal day HTTP requests
type DayHandler struct {
	dayService *services.DayService
	maxUpload  int64
}

// NewDayHandler creates a new day handler accepting up to maxUpload bytes per request
func NewDayHandler(dayService *services.DayService, maxUpload int64) *DayHandler {
	return &DayHandler{
		dayService: dayService,
		maxUpload:  maxUpload,
	}
}

// MonthBarcodeRequest selects a calendar month
type MonthBarcodeRequest struct {
	Year  string `json:"year"`
	Month string `json:"month"`
}

// GetCalendar handles GET /api/v1/days/calendar?start_date=&end_date=
func (h *DayHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	calendar, err := h.dayService.BuildCalendar(ctx, middleware.GetUserID(ctx), query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, calendar)
}

// GetDay handles GET /api/v1/days/{date}
func (h *DayHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day, err := h.dayService.ShowDay(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "date"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, day)
}

// ReplaceDay handles PUT /api/v1/days/{date}. The memo, thumbnail and
// photos fields are all optional; anything missing is cleared.
func (h *DayHandler) ReplaceDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	var content services.DayContent
	if memo := r.FormValue("memo"); memo != "" {
		content.Memo = &memo
	}

	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File["thumbnail"]; len(headers) > 0 {
			thumbnail, err := readUpload(headers[0])
			if err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to read thumbnail")
				respondError(w, "Failed to read thumbnail", http.StatusBadRequest)
				return
			}
			content.Thumbnail = &thumbnail
		}

		photos, err := readUploads(r.MultipartForm.File["photos"])
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to read photos")
			respondError(w, "Failed to read photos", http.StatusBadRequest)
			return
		}
		content.Photos = photos
	}

	day, err := h.dayService.ReplaceDayContent(ctx, userID, chi.URLParam(r, "date"), content)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, day)
}

// CreateMonthBarcode handles POST /api/v1/days/barcode
func (h *DayHandler) CreateMonthBarcode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MonthBarcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	barcode, err := h.dayService.BuildMonthBarcode(ctx, middleware.GetUserID(ctx), req.Year, req.Month)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, barcode)
}
