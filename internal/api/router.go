package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medinsights/backend/internal/api/handlers"
	"github.com/medinsights/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	forecastHandler *handlers.ForecastHandler,
	salesHandler *handlers.SalesHandler,
	catalogHandler *handlers.CatalogHandler,
	limiter Limiter,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Forecasting
	api.HandleFunc("/forecast", forecastHandler.GetForecast).Methods("GET")

	// Sales; writes are rate limited per client
	api.Handle("/medicines/sales",
		rateLimitMiddleware(limiter, log)(http.HandlerFunc(salesHandler.RecordSale))).Methods("POST")
	api.HandleFunc("/medicines/sales", salesHandler.ListSales).Methods("GET")

	// Catalog
	api.HandleFunc("/medicines", catalogHandler.GetMedicines).Methods("GET")
	api.HandleFunc("/medicines/stats", catalogHandler.GetStats).Methods("GET")
	api.HandleFunc("/districts", catalogHandler.GetDistricts).Methods("GET")
	api.HandleFunc("/districts/{id:[0-9]+}/formulas", catalogHandler.GetDistrictFormulas).Methods("GET")
	api.HandleFunc("/formulas", catalogHandler.GetFormulas).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "medinsights-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
