package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/cookoff-engine/internal/discovery"
	"github.com/terra-clan/cookoff-engine/internal/models"
)

// criteriaFromQuery reads the discovery filters from the query string
func criteriaFromQuery(r *http.Request) discovery.Criteria {
	q := r.URL.Query()
	return discovery.Criteria{
		Search:     q.Get("q"),
		Cuisine:    q.Get("cuisine"),
		Difficulty: q.Get("difficulty"),
		Ratings:    q.Get("ratings"),
		Tags:       q.Get("tags"),
		Recency:    q.Get("recency"),
	}
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	criteria := criteriaFromQuery(r)
	if err := s.vocabulary.Validate(criteria); err != nil {
		respondServiceError(w, err, "invalid filters")
		return
	}

	recipes, err := s.service.Discover(r.Context(), criteria)
	if err != nil {
		respondServiceError(w, err, "failed to discover recipes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"recipes":        recipes,
		"total":          len(recipes),
		"active_filters": criteria.Active(),
	})
}

func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"categories": discovery.Categories(),
		"values":     s.vocabulary.Categories(),
	})
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		respondServiceError(w, err, "invalid recipe")
		return
	}

	rc, err := s.service.CreateRecipe(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create recipe")
		return
	}

	respondJSON(w, http.StatusCreated, rc)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	rc, err := s.service.GetRecipe(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to get recipe", "recipe_id", id)
		return
	}

	respondJSON(w, http.StatusOK, rc)
}

func (s *Server) handleLikeRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	likes, err := s.service.LikeRecipe(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to like recipe", "recipe_id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"recipe_id": id,
		"likes":     likes,
	})
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var rv models.Review
	if !decodeJSON(w, r, &rv) {
		return
	}
	rv.RecipeID = id
	if err := s.validator.Validate(rv); err != nil {
		respondServiceError(w, err, "invalid review")
		return
	}

	rc, err := s.service.AddReview(r.Context(), rv)
	if err != nil {
		respondServiceError(w, err, "failed to add review", "recipe_id", id)
		return
	}

	respondJSON(w, http.StatusCreated, rc)
}

// Standings and rollover handlers

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := s.service.Standings(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to list standings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"standings": standings,
		"total":     len(standings),
	})
}

func (s *Server) handleFeaturedWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := s.service.FeaturedWinners(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to list featured winners")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"winners": winners,
	})
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	author := chi.URLParam(r, "author")

	badges, err := s.service.Badges(r.Context(), author)
	if err != nil {
		respondServiceError(w, err, "failed to list badges", "author", author)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"author": author,
		"badges": badges,
	})
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Settle(r.Context())
	if err != nil {
		respondServiceError(w, err, "rollover failed")
		return
	}

	respondJSON(w, http.StatusOK, st)
}
