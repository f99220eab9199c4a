package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/health"
	"github.com/terra-clan/cookoff-engine/internal/models"
)

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.CheckAll(r.Context())

	checks := make(map[string]string, len(results))
	for name, err := range results {
		checks[name] = "ok"
		if err != nil {
			checks[name] = err.Error()
		}
	}

	if !health.Healthy(results) {
		writeError(w, http.StatusServiceUnavailable, &apiError{
			Code:    "not_ready",
			Message: "service not ready",
			Fields:  checks,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}

// Challenge handlers

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	challenges, err := s.service.ListChallenges(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, err, "failed to list challenges")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"challenges": challenges,
		"total":      len(challenges),
	})
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		respondServiceError(w, err, "invalid challenge")
		return
	}

	ch, err := s.service.CreateChallenge(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create challenge")
		return
	}

	respondJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	ch, err := s.service.GetChallenge(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to get challenge", "challenge_id", id)
		return
	}

	respondJSON(w, http.StatusOK, ch)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	subs, err := s.service.Submissions(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to list submissions", "challenge_id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"total":       len(subs),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req models.CreateSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		respondServiceError(w, err, "invalid submission")
		return
	}

	sub, err := s.service.Submit(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, err, "failed to submit recipe", "challenge_id", id)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	entries, err := s.service.Leaderboard(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to compute leaderboard", "challenge_id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"challenge_id": id,
		"entries":      entries,
	})
}

func (s *Server) handleBestSubmissions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	best, err := s.service.BestSubmissions(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to compute best submissions", "challenge_id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"challenge_id": id,
		"submissions":  best,
	})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	n := s.service.DefaultTopN()
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "validation_error", "n must be a non-negative integer")
			return
		}
		n = parsed
	}

	// Top treats n <= 0 as "use the default"; an explicit n=0 means nobody
	if n == 0 {
		if _, err := s.service.GetChallenge(r.Context(), id); err != nil {
			respondServiceError(w, err, "failed to get challenge", "challenge_id", id)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"challenge_id": id, "n": 0, "submissions": []models.Submission{}})
		return
	}

	top, err := s.service.Top(r.Context(), id, n)
	if err != nil {
		respondServiceError(w, err, "failed to compute top submissions", "challenge_id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"challenge_id": id,
		"n":            n,
		"submissions":  top,
	})
}
