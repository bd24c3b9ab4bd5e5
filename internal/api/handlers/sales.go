package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/medinsights/backend/internal/contracts"
	"github.com/medinsights/backend/internal/inventory"
	"github.com/medinsights/backend/pkg/logger"
)

// SalesRecorder upserts sales records
type SalesRecorder interface {
	RecordSale(ctx context.Context, medicineID, districtID int64, date time.Time, quantity int64) (*inventory.RecordSaleResult, error)
}

// SalesLister lists sales records
type SalesLister interface {
	ListSales(ctx context.Context, medicineID, districtID int64, from, to time.Time) ([]contracts.SalesRecord, error)
}

// SalesHandler handles sales API endpoints
type SalesHandler struct {
	recorder SalesRecorder
	lister   SalesLister
	logger   *logger.Logger
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(recorder SalesRecorder, lister SalesLister, log *logger.Logger) *SalesHandler {
	return &SalesHandler{
		recorder: recorder,
		lister:   lister,
		logger:   log,
	}
}

type recordSaleRequest struct {
	MedicineID   int64  `json:"medicineId"`
	DistrictID   int64  `json:"districtId"`
	Date         string `json:"date"`
	SaleQuantity int64  `json:"saleQuantity"`
}

// RecordSale upserts a day's sales for a medicine in a district
// POST /api/medicines/sales
func (h *SalesHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.MedicineID == 0 {
		respondError(w, http.StatusBadRequest, "medicineId is required")
		return
	}
	if req.DistrictID == 0 {
		respondError(w, http.StatusBadRequest, "districtId is required")
		return
	}
	if req.Date == "" {
		respondError(w, http.StatusBadRequest, "date is required")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	result, err := h.recorder.RecordSale(ctx, req.MedicineID, req.DistrictID, date, req.SaleQuantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	message := "Sales record created successfully"
	if result.Status == inventory.StatusUpdated {
		message = "Sales record updated successfully"
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     message,
		"medicine":    result.Medicine,
		"salesRecord": saleJSON(result.Record),
	})
}

// ListSales lists sales records with optional filters
// GET /api/medicines/sales?medicineId=&districtId=&from=&to=
func (h *SalesHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	medicineID, err := optionalID(q.Get("medicineId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "medicineId must be an integer")
		return
	}
	districtID, err := optionalID(q.Get("districtId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "districtId must be an integer")
		return
	}
	from, err := optionalDate(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from must be in YYYY-MM-DD format")
		return
	}
	to, err := optionalDate(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "to must be in YYYY-MM-DD format")
		return
	}

	records, err := h.lister.ListSales(ctx, medicineID, districtID, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list sales records")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		out = append(out, saleJSON(rec))
	}

	respondJSON(w, http.StatusOK, out)
}

// saleJSON renders a record with its date as a plain calendar day
func saleJSON(rec contracts.SalesRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":         rec.ID,
		"medicineId": rec.MedicineID,
		"districtId": rec.DistrictID,
		"date":       rec.Date.Format(dateLayout),
		"quantity":   rec.Quantity,
	}
}

func optionalID(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func optionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}
