package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/middleware"
	"photo-journal-backend/internal/push"
	"photo-journal-backend/internal/repository"
	"photo-journal-backend/internal/services"
	"photo-journal-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, urls []string, outputPath string) (string, error) {
	return "", errors.New("rendering disabled in handler tests")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := repository.NewMemory()
	objects := storage.NewMemoryStore("http://objects.test")
	hub := services.NewWSHub()
	t.Cleanup(hub.Close)

	userService := services.NewUserService(store.Users, "handler-secret")
	barcodeService := services.NewBarcodeService(store.Barcodes, objects, stubGenerator{}, t.TempDir(), "barcode/")
	eventService := services.NewEventService(store, barcodeService, hub, push.NoopNotifier{})
	photoService := services.NewPhotoService(store.Users, store.Events, store.EventPhotos, objects, "event/")
	dayService := services.NewDayService(store, barcodeService, objects, "day/")

	userHandler := NewUserHandler(userService, eventService)
	eventHandler := NewEventHandler(eventService)
	photoHandler := NewPhotoHandler(photoService, 8<<20)
	dayHandler := NewDayHandler(dayService, 8<<20)
	barcodeHandler := NewBarcodeHandler(barcodeService)

	r := chi.NewRouter()
	r.Post("/users", userHandler.CreateUser)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(userService))
		r.Get("/users/me/event", userHandler.GetEventStatus)
		r.Post("/events", eventHandler.CreateEvent)
		r.Get("/events/{event_id}", eventHandler.GetEvent)
		r.Patch("/events/{event_id}/name", eventHandler.RenameEvent)
		r.Post("/events/{event_id}/barcode", eventHandler.GenerateBarcode)
		r.Put("/events/{event_id}/photos", photoHandler.ReplacePhotos)
		r.Get("/days/calendar", dayHandler.GetCalendar)
		r.Put("/days/{date}", dayHandler.ReplaceDay)
		r.Post("/days/barcode", dayHandler.CreateMonthBarcode)
		r.Get("/barcodes", barcodeHandler.ListBarcodes)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, socialID string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/users", "", map[string]string{"social_id": socialID, "nickname": socialID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CreateUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestEventFlow(t *testing.T) {
	router := newTestRouter(t)
	ownerToken := login(t, router, "owner")
	memberToken := login(t, router, "member")

	rec := doJSON(t, router, http.MethodPost, "/events", ownerToken, services.CreateEventRequest{
		Title:     "Trip",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))

	rec = doJSON(t, router, http.MethodPost, "/events", ownerToken, services.CreateEventRequest{
		Title:     "Again",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-03",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeAlreadyInEvent, decodeError(t, rec).Code)

	rec = doJSON(t, router, http.MethodGet, "/events/"+event.ID, memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary services.EventSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.False(t, summary.IsRoomMaker)
	assert.Len(t, summary.ProfileURLs, 2)
	assert.Empty(t, summary.Members)

	rec = doJSON(t, router, http.MethodGet, "/users/me/event", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status services.EventStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.HasEvent)

	rec = doJSON(t, router, http.MethodPatch, "/events/"+event.ID+"/name", memberToken, RenameEventRequest{Title: "Mine"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperrors.CodeNotRoomMaker, decodeError(t, rec).Code)

	rec = doJSON(t, router, http.MethodPost, "/events/"+event.ID+"/barcode", ownerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apperrors.CodeGeneration, decodeError(t, rec).Code)

	rec = doJSON(t, router, http.MethodGet, "/events/unknown", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("data " + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestReplacePhotosMultipart(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "owner")

	rec := doJSON(t, router, http.MethodPost, "/events", token, services.CreateEventRequest{
		Title:     "Trip",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var event struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))

	body, contentType := multipartBody(t, nil, map[string][]string{"photos": {"a.jpg", "b.jpg"}})
	req := httptest.NewRequest(http.MethodPut, "/events/"+event.ID+"/photos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}

func TestDayEndpoints(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "writer")

	body, contentType := multipartBody(t,
		map[string]string{"memo": "sunny"},
		map[string][]string{"thumbnail": {"t.jpg"}, "photos": {"g1.jpg"}},
	)
	req := httptest.NewRequest(http.MethodPut, "/days/2024-01-02", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var day services.DayView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &day))
	require.NotNil(t, day.Memo)
	assert.Equal(t, "sunny", *day.Memo)
	assert.NotNil(t, day.ThumbnailURL)
	assert.Len(t, day.PhotoURLs, 1)

	rec = doJSON(t, router, http.MethodGet, "/days/calendar?start_date=2024-01-01&end_date=2024-01-03", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var calendar services.Calendar
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calendar))
	assert.Len(t, calendar.Days, 2)
	assert.False(t, calendar.ButtonStatus)

	rec = doJSON(t, router, http.MethodGet, "/days/calendar?start_date=2024-01-03&end_date=2024-01-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidDate, decodeError(t, rec).Code)

	rec = doJSON(t, router, http.MethodPost, "/days/barcode", token, MonthBarcodeRequest{Year: "2024", Month: "13"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/barcodes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"barcodes":[],"total":0}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	testCases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "bad token", header: "Bearer nope"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/barcodes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, apperrors.CodeUnauthorized, decodeError(t, rec).Code)
		})
	}
}

func TestRespondDomainError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperrors.Code
		wantMsg    string
	}{
		{name: "coded", err: apperrors.ErrEventNotActive, wantStatus: http.StatusConflict, wantCode: apperrors.CodeEventNotActive, wantMsg: "event is not active"},
		{name: "wrapped", err: fmt.Errorf("load: %w", apperrors.NotFound("day not found")), wantStatus: http.StatusNotFound, wantCode: apperrors.CodeNotFound, wantMsg: "day not found"},
		{name: "storage", err: apperrors.Storage("failed to upload photo", errors.New("timeout")), wantStatus: http.StatusBadGateway, wantCode: apperrors.CodeStorage, wantMsg: "failed to upload photo"},
		{name: "plain error is hidden", err: errors.New("pq: relation does not exist"), wantStatus: http.StatusInternalServerError, wantCode: apperrors.CodeInternal, wantMsg: "internal error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tc.wantCode, resp.Code)
			assert.Equal(t, tc.wantMsg, resp.Error)
			assert.False(t, strings.Contains(rec.Body.String(), "pq:"))
		})
	}
}
