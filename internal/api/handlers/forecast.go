package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/medinsights/backend/internal/contracts"
	"github.com/medinsights/backend/pkg/logger"
	"github.com/medinsights/backend/pkg/redis"
)

const dateLayout = "2006-01-02"

// Resolver runs the forecast cascade
type Resolver interface {
	Resolve(ctx context.Context, district contracts.District, formula contracts.Formula, days int) (*contracts.ForecastResult, error)
}

// Catalog resolves names and lists brand names
type Catalog interface {
	ResolveDistrict(ctx context.Context, name string) (*contracts.District, error)
	ResolveFormula(ctx context.Context, name string) (*contracts.Formula, error)
	BrandNames(ctx context.Context, medicineIDs []int64) ([]string, error)
}

// Charter supplies the historical context shown alongside a forecast
type Charter interface {
	FormulaScope(ctx context.Context, formulaID int64) ([]int64, error)
	ChartSeries(ctx context.Context, districtID int64, medicineIDs []int64, windowDays int) ([]contracts.DatedQuantity, error)
}

// ForecastHandler handles forecast API endpoints
type ForecastHandler struct {
	resolver       Resolver
	catalog        Catalog
	charter        Charter
	cache          *redis.Cache
	cacheTTL       time.Duration
	defaultHorizon int
	historyDays    int
	logger         *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	resolver Resolver,
	catalog Catalog,
	charter Charter,
	cache *redis.Cache,
	cacheTTL time.Duration,
	defaultHorizon int,
	historyDays int,
	log *logger.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		resolver:       resolver,
		catalog:        catalog,
		charter:        charter,
		cache:          cache,
		cacheTTL:       cacheTTL,
		defaultHorizon: defaultHorizon,
		historyDays:    historyDays,
		logger:         log,
	}
}

type datePoint struct {
	Date     string `json:"date"`
	Quantity int64  `json:"quantity"`
}

type forecastPoint struct {
	Date              string `json:"date"`
	PredictedQuantity int64  `json:"predicted_quantity"`
	Source            string `json:"source"`
}

type forecastSummary struct {
	TotalForecast int64   `json:"total_forecast"`
	AvgDaily      float64 `json:"avg_daily"`
	ForecastStart string  `json:"forecast_start"`
	ForecastEnd   string  `json:"forecast_end"`
}

type forecastResponse struct {
	Area           string          `json:"area"`
	Formula        string          `json:"formula"`
	Days           int             `json:"days"`
	MedicinesCount int             `json:"medicines_count"`
	Medicines      []string        `json:"medicines"`
	HistoricalData []datePoint     `json:"historical_data"`
	Forecast       []forecastPoint `json:"forecast"`
	Summary        forecastSummary `json:"summary"`
}

// GetForecast resolves a demand forecast for an area and formula
// GET /api/forecast?area=&formula=&days=
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	area := r.URL.Query().Get("area")
	formulaName := r.URL.Query().Get("formula")
	if area == "" {
		respondError(w, http.StatusBadRequest, "area parameter is required")
		return
	}
	if formulaName == "" {
		respondError(w, http.StatusBadRequest, "formula parameter is required")
		return
	}

	days := h.defaultHorizon
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = parsed
	}
	if days < 1 || days > 365 {
		respondError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	district, err := h.catalog.ResolveDistrict(ctx, area)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	formula, err := h.catalog.ResolveFormula(ctx, formulaName)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	cacheKey := redis.ForecastKey(district.ID, formula.ID, days)
	var cached forecastResponse
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	result, err := h.resolver.Resolve(ctx, *district, *formula, days)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	response, err := h.buildResponse(ctx, result)
	if err != nil {
		h.logger.WithError(err).Error("Failed to assemble forecast response")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.cache.Set(ctx, cacheKey, response, h.cacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache forecast response")
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *ForecastHandler) buildResponse(ctx context.Context, result *contracts.ForecastResult) (*forecastResponse, error) {
	brands, err := h.catalog.BrandNames(ctx, result.MedicineIDs)
	if err != nil {
		return nil, err
	}

	chartScope, err := h.charter.FormulaScope(ctx, result.Formula.ID)
	if err != nil {
		return nil, err
	}
	historical, err := h.charter.ChartSeries(ctx, result.District.ID, chartScope, h.historyDays)
	if err != nil {
		return nil, err
	}

	response := &forecastResponse{
		Area:           result.District.Name,
		Formula:        result.Formula.Name,
		Days:           result.Days,
		MedicinesCount: len(result.MedicineIDs),
		Medicines:      brands,
		HistoricalData: []datePoint{},
		Forecast:       []forecastPoint{},
		Summary: forecastSummary{
			TotalForecast: result.TotalForecast,
			AvgDaily:      result.AvgDaily,
			ForecastStart: result.ForecastStart.Format(dateLayout),
			ForecastEnd:   result.ForecastEnd.Format(dateLayout),
		},
	}

	for _, dq := range historical {
		response.HistoricalData = append(response.HistoricalData, datePoint{
			Date:     dq.Date.Format(dateLayout),
			Quantity: dq.Quantity,
		})
	}
	for _, p := range result.Points {
		response.Forecast = append(response.Forecast, forecastPoint{
			Date:              p.Date.Format(dateLayout),
			PredictedQuantity: p.PredictedQuantity,
			Source:            p.Source,
		})
	}

	return response, nil
}
