package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Zergity/splitter/internal/calculator"
	"github.com/Zergity/splitter/internal/service"
	"github.com/Zergity/splitter/internal/storage"
)

// envelope is the uniform response shape of the JSON API.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps the service error taxonomy onto HTTP statuses:
// validation 400, permission 403, not-found 404, state conflicts 409.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotAllowed),
		errors.Is(err, service.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrGracePeriod),
		errors.Is(err, service.ErrSettlementForce),
		errors.Is(err, service.ErrMemberHasBalance),
		errors.Is(err, service.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, calculator.ErrNoParticipants),
		errors.Is(err, calculator.ErrNonPositiveAmount),
		errors.Is(err, calculator.ErrSplitSumMismatch),
		errors.Is(err, calculator.ErrPercentSumMismatch),
		errors.Is(err, calculator.ErrNonPositiveShares),
		errors.Is(err, calculator.ErrSettlementSplits):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		err = errors.New("internal server error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: err.Error()})
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
