package api

import (
	"net/http"

	"github.com/terra-clan/cookoff-engine/internal/discovery"
	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ranking"
)

// rankRequest carries a caller-owned submission snapshot
type rankRequest struct {
	Submissions []models.Submission `json:"submissions" validate:"dive"`
	N           *int                `json:"n,omitempty" validate:"omitempty,gte=0"`
}

// discoverRequest carries a caller-owned catalog snapshot
type discoverRequest struct {
	Catalog  []models.Recipe    `json:"catalog"`
	Criteria discovery.Criteria `json:"criteria"`
}

func (s *Server) handleComputeLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		respondServiceError(w, err, "invalid submissions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"entries": ranking.ComputeLeaderboard(req.Submissions),
	})
}

func (s *Server) handleComputeBest(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		respondServiceError(w, err, "invalid submissions")
		return
	}

	best, err := ranking.ComputeBestSubmissions(req.Submissions)
	if err != nil {
		respondServiceError(w, err, "failed to compute best submissions")
		return
	}

	n := s.service.DefaultTopN()
	if req.N != nil {
		n = *req.N
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"best": best,
		"top":  ranking.TopN(best, n),
		"n":    n,
	})
}

func (s *Server) handleComputeDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recipes := s.service.FilterSnapshot(req.Catalog, req.Criteria)
	respondJSON(w, http.StatusOK, map[string]any{
		"recipes":        recipes,
		"total":          len(recipes),
		"active_filters": req.Criteria.Active(),
	})
}
