package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/discovery"
	"github.com/terra-clan/cookoff-engine/internal/models"
)

// discoverInput is the full input of a discovery run. The clock is kept to
// the minute so repeated queries within a minute share a cache entry.
type discoverInput struct {
	Catalog  []models.Recipe    `json:"catalog"`
	Criteria discovery.Criteria `json:"criteria"`
	Minute   int64              `json:"minute"`
}

// Discover filters the public catalog
func (s *Service) Discover(ctx context.Context, c discovery.Criteria) ([]models.Recipe, error) {
	catalog, err := s.repo.ListRecipes(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	now := s.engine.Now().Truncate(time.Minute)
	input := discoverInput{Catalog: catalog, Criteria: c, Minute: now.Unix() / 60}

	result, err := cached(ctx, s.cache, kindDiscover, input, func() ([]models.Recipe, error) {
		return discovery.FilterCatalog(catalog, c, now), nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("catalog filtered", "active_filters", c.Active(), "catalog", len(catalog), "matched", len(result))
	return result, nil
}

// GetRecipe returns a recipe with its reviews or ErrRecipeNotFound
func (s *Service) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	rc, err := s.repo.GetRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if rc == nil {
		return nil, ErrRecipeNotFound
	}
	return rc, nil
}

// CreateRecipe adds a recipe to the catalog. Missing cuisine and difficulty
// default to "Not set" and recipes are public unless stated otherwise.
func (s *Service) CreateRecipe(ctx context.Context, req models.CreateRecipeRequest) (*models.Recipe, error) {
	rc := &models.Recipe{
		Title:      req.Title,
		Notes:      req.Notes,
		Author:     req.Author,
		Tags:       req.Tags,
		Cuisine:    req.Cuisine,
		Difficulty: req.Difficulty,
		IsPublic:   req.IsPublic == nil || *req.IsPublic,
	}
	if rc.Cuisine == "" {
		rc.Cuisine = models.NotSet
	}
	if rc.Difficulty == "" {
		rc.Difficulty = models.NotSet
	}
	if rc.Tags == nil {
		rc.Tags = []string{}
	}

	if err := s.repo.CreateRecipe(ctx, rc); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	slog.Info("recipe created", "recipe_id", rc.ID, "author", rc.Author, "public", rc.IsPublic)
	return rc, nil
}

// LikeRecipe adds a like to a recipe and returns its new like count
func (s *Service) LikeRecipe(ctx context.Context, id int64) (int, error) {
	rc, err := s.repo.GetRecipe(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to get recipe: %w", err)
	}
	if rc == nil {
		return 0, ErrRecipeNotFound
	}

	likes, err := s.repo.LikeRecipe(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to like recipe: %w", err)
	}
	return likes, nil
}

// AddReview rates a recipe and returns the recipe with its refreshed rating
func (s *Service) AddReview(ctx context.Context, rv models.Review) (*models.Recipe, error) {
	if _, err := s.GetRecipe(ctx, rv.RecipeID); err != nil {
		return nil, err
	}
	if err := s.repo.AddReview(ctx, &rv); err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	return s.GetRecipe(ctx, rv.RecipeID)
}

// FilterSnapshot runs the discovery engine over a caller-supplied catalog.
// Nothing is read from storage or cached.
func (s *Service) FilterSnapshot(catalog []models.Recipe, c discovery.Criteria) []models.Recipe {
	return s.engine.Filter(catalog, c)
}
