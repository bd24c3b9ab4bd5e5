package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medinsights/backend/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondErrorHint(w http.ResponseWriter, status int, message, hint string) {
	respondJSON(w, status, map[string]string{
		"error": message,
		"hint":  hint,
	})
}

// respondDomainError maps contract errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic message.
func respondDomainError(w http.ResponseWriter, err error) {
	var notFound *contracts.NotFoundError
	if errors.As(err, &notFound) {
		if notFound.Hint != "" {
			respondErrorHint(w, http.StatusNotFound, notFound.Error(), notFound.Hint)
			return
		}
		respondError(w, http.StatusNotFound, notFound.Error())
		return
	}

	if contracts.IsValidation(err) || contracts.IsInsufficientStock(err) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errors.Is(err, contracts.ErrNoData) {
		respondErrorHint(w, http.StatusNotFound,
			"Insufficient historical data to generate forecast",
			"Add sales records for this area and formula first")
		return
	}

	respondError(w, http.StatusInternalServerError, "Internal server error")
}
