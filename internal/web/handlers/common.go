package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// errInvalidRequestBody is a shared error message for invalid request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStorageError maps the core error taxonomy to HTTP statuses.
func respondStorageError(w http.ResponseWriter, err error) {
	var dimErr *database.ErrDimensionMismatch
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.As(err, &dimErr):
		respondError(w, http.StatusUnprocessableEntity, dimErr.Error())
	case errors.Is(err, database.ErrLedgerUnavailable):
		respondError(w, http.StatusServiceUnavailable, "attendance ledger unavailable")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
