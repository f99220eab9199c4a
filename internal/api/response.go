package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/cookoff-engine/internal/challenge"
	"github.com/terra-clan/cookoff-engine/internal/ranking"
	"github.com/terra-clan/cookoff-engine/internal/vocab"
)

// maxBodyBytes caps request bodies, compute snapshots included
const maxBodyBytes = 8 << 20

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, &apiError{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, status int, e *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: e}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondServiceError maps domain errors onto HTTP statuses. Anything it
// does not recognise is logged and reported as a 500 with the given message.
func respondServiceError(w http.ResponseWriter, err error, message string, attrs ...any) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, &apiError{Code: "validation_error", Message: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, challenge.ErrChallengeNotFound):
		respondError(w, http.StatusNotFound, "challenge_not_found", "challenge not found")
	case errors.Is(err, challenge.ErrRecipeNotFound):
		respondError(w, http.StatusNotFound, "recipe_not_found", "recipe not found")
	case errors.Is(err, challenge.ErrChallengeClosed):
		respondError(w, http.StatusConflict, "challenge_closed", err.Error())
	case errors.Is(err, challenge.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "already_submitted", err.Error())
	case errors.Is(err, challenge.ErrSubmissionLimit):
		respondError(w, http.StatusConflict, "submission_limit", err.Error())
	case errors.Is(err, vocab.ErrUnknownValue):
		respondError(w, http.StatusBadRequest, "unknown_filter", err.Error())
	case errors.Is(err, ranking.ErrInvariantViolated):
		slog.Error(message, append(attrs, "error", err)...)
		respondError(w, http.StatusInternalServerError, "ranking_error", message)
	default:
		slog.Error(message, append(attrs, "error", err)...)
		respondError(w, http.StatusInternalServerError, "internal_error", message)
	}
}

// decodeJSON reads a size-capped JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// idParam parses a positive integer URL parameter
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", fmt.Sprintf("invalid %s: %q", name, raw))
		return 0, false
	}
	return id, true
}
