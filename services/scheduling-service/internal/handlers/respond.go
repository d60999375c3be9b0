package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/apperr"
)

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps engine errors onto HTTP. Status-machine rejections are
// conflicts with the stored state rather than bad input.
func statusFor(e *apperr.Error) int {
	switch {
	case errors.Is(e, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(e, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(e, apperr.ErrConflict):
		return http.StatusConflict
	case e.Field == "status":
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if e, ok := apperr.As(err); ok {
		writeJSON(w, statusFor(e), errorBody{Error: e.Message, Field: e.Field, Reason: string(e.Reason)})
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
