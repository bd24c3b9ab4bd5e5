package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/medinsights/backend/internal/catalog"
	"github.com/medinsights/backend/pkg/logger"
)

// CatalogHandler handles catalog API endpoints
type CatalogHandler struct {
	catalog *catalog.Service
	logger  *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *catalog.Service, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: svc, logger: log}
}

// GetMedicines lists medicines grouped by formula name
// GET /api/medicines
func (h *CatalogHandler) GetMedicines(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.catalog.MedicinesByFormula(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list medicines")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, grouped)
}

// GetStats returns dashboard stock counts
// GET /api/medicines/stats
func (h *CatalogHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute medicine stats")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetDistricts lists all districts
// GET /api/districts
func (h *CatalogHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.catalog.Districts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list districts")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, districts)
}

// GetFormulas lists all formulas
// GET /api/formulas
func (h *CatalogHandler) GetFormulas(w http.ResponseWriter, r *http.Request) {
	formulas, err := h.catalog.Formulas(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list formulas")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, formulas)
}

// GetDistrictFormulas lists formulas with sales in a district
// GET /api/districts/{id}/formulas
func (h *CatalogHandler) GetDistrictFormulas(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "district id must be an integer")
		return
	}

	formulas, err := h.catalog.DistrictFormulas(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, formulas)
}
