package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondDomainError maps a service error to its code and HTTP status.
// Errors without a code are logged and reported as internal.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *apperrors.Error
	if !apperrors.As(err, &domainErr) || domainErr.Code == apperrors.CodeInternal {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "internal error", Code: apperrors.CodeInternal})
		return
	}

	if domainErr.HTTPStatus() >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("code", string(domainErr.Code)).Msg("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domainErr.HTTPStatus())
	json.NewEncoder(w).Encode(ErrorResponse{Error: domainErr.Message, Code: domainErr.Code})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// readUploads reads every file of a multipart field in order
func readUploads(headers []*multipart.FileHeader) ([]services.Upload, error) {
	uploads := make([]services.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader) (services.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return services.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.Upload{}, err
	}
	return services.Upload{Filename: header.Filename, Data: data}, nil
}
