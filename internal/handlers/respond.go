// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/inventory-api/internal/core/domain"
)

const (
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "Internal server error"
)

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// mapError writes the response for a service error. Validation and not-found
// messages go to the client as is; anything else is logged and answered with
// a generic 500.
func mapError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, logger, http.StatusNotFound, err.Error())
	default:
		logger.ErrorContext(r.Context(), "failed to "+action,
			slog.String("error", err.Error()))
		respondError(w, logger, http.StatusInternalServerError, msgInternal)
	}
}

// MethodNotAllowed answers every request no route matched
func MethodNotAllowed(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondError(w, logger, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}
