package handlers

import (
	"net/http"

	"photo-journal-backend/internal/middleware"
	"photo-journal-backend/internal/services"
)

// BarcodeHandler handles barcode listing
type BarcodeHandler struct {
	barcodeService *services.BarcodeService
}

// NewBarcodeHandler creates a new barcode handler
func NewBarcodeHandler(barcodeService *services.BarcodeService) *BarcodeHandler {
	return &BarcodeHandler{
		barcodeService: barcodeService,
	}
}

// ListBarcodes handles GET /api/v1/barcodes
func (h *BarcodeHandler) ListBarcodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	barcodes, err := h.barcodeService.ListUserBarcodes(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"barcodes": barcodes,
		"total":    len(barcodes),
	})
}
