package storage

import (
	"context"
	"errors"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// ErrDuplicateSubmission is returned by CreateSubmission when the recipe is
// already entered in the challenge
var ErrDuplicateSubmission = errors.New("recipe already submitted to challenge")

// Repository defines the interface for challenge and catalog persistence.
// Getters return nil, nil when the row does not exist.
type Repository interface {
	// Recipes
	ListRecipes(ctx context.Context, publicOnly bool) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, r *models.Recipe) error
	LikeRecipe(ctx context.Context, id int64) (int, error)
	AddReview(ctx context.Context, rv *models.Review) error

	// Challenges
	ListChallenges(ctx context.Context, activeOnly bool) ([]*models.Challenge, error)
	GetChallenge(ctx context.Context, id int64) (*models.Challenge, error)
	CreateChallenge(ctx context.Context, ch *models.Challenge) error
	UpdateChallenge(ctx context.Context, ch *models.Challenge) error

	// Submissions carry the current like count of their recipe
	ListSubmissions(ctx context.Context, challengeID int64) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, s *models.Submission) error
	DeleteSubmissions(ctx context.Context, challengeID int64) (int, error)
	// LockChallenge blocks until the caller holds the challenge's submission
	// lock. The returned func releases it.
	LockChallenge(ctx context.Context, challengeID int64) (unlock func(), err error)

	// Global standings
	ReplaceStandings(ctx context.Context, standings []models.StandingEntry) error
	ListStandings(ctx context.Context) ([]models.StandingEntry, error)
	ReplaceFeaturedWinners(ctx context.Context, winners []models.FeaturedWinner) error
	ListFeaturedWinners(ctx context.Context) ([]models.FeaturedWinner, error)
	AwardBadge(ctx context.Context, author, badge string) error
	ListBadges(ctx context.Context, author string) ([]string, error)

	// API Clients
	CreateClient(ctx context.Context, c *models.ApiClient) error
	CountClients(ctx context.Context) (int, error)
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
