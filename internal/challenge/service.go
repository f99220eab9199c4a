package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/cache"
	"github.com/terra-clan/cookoff-engine/internal/discovery"
	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ranking"
	"github.com/terra-clan/cookoff-engine/internal/storage"
)

// Common errors
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrChallengeClosed   = errors.New("challenge is closed for submissions")
	ErrSubmissionLimit   = errors.New("submission limit reached for this challenge")
	ErrAlreadySubmitted  = errors.New("recipe has already been submitted to this challenge")
)

// Cache kinds
const (
	kindLeaderboard = "leaderboard"
	kindBest        = "best"
	kindDiscover    = "discover"
)

// Service runs the ranking and discovery engines over persisted challenges
// and recipes
type Service struct {
	repo   storage.Repository
	cache  cache.Cache
	engine *discovery.Engine
	now    func() time.Time
	topN   int

	// settleMu keeps the rollover worker and manual rollovers from overlapping
	settleMu sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithCache memoizes computed rankings and discovery results
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClock overrides the clock used for deadlines and settlements
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTopN sets the default podium size
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// NewService creates a Service
func NewService(repo storage.Repository, engine *discovery.Engine, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cache:  cache.NopCache{},
		engine: engine,
		now:    time.Now,
		topN:   ranking.DefaultTopN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultTopN returns the podium size used when callers do not pick one
func (s *Service) DefaultTopN() int {
	return s.topN
}

// ListChallenges returns challenges ordered by deadline
func (s *Service) ListChallenges(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	challenges, err := s.repo.ListChallenges(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

// GetChallenge returns a challenge or ErrChallengeNotFound
func (s *Service) GetChallenge(ctx context.Context, id int64) (*models.Challenge, error) {
	ch, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if ch == nil {
		return nil, ErrChallengeNotFound
	}
	return ch, nil
}

// CreateChallenge stores a new challenge. It is active until its deadline
// has passed.
func (s *Service) CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) (*models.Challenge, error) {
	ch := &models.Challenge{
		Title:          req.Title,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Deadline:       req.Deadline,
		Points:         req.Points,
		Featured:       req.Featured,
		MaxSubmissions: req.MaxSubmissions,
	}
	ch.Active = ch.IsOpen(s.now())

	if err := s.repo.CreateChallenge(ctx, ch); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	slog.Info("challenge created", "challenge_id", ch.ID, "title", ch.Title, "deadline", ch.Deadline.Format(time.DateOnly), "featured", ch.Featured)
	return ch, nil
}

// cached returns the memoized result of compute for input, computing and
// storing it on a miss. Cache failures are logged and never fail the call.
func cached[T any](ctx context.Context, c cache.Cache, kind string, input any, compute func() (T, error)) (T, error) {
	key, err := cache.Key(kind, input)
	if err != nil {
		slog.Warn("failed to build cache key", "kind", kind, "error", err)
		return compute()
	}

	var hit T
	ok, err := c.Get(ctx, key, &hit)
	if err != nil {
		slog.Warn("cache read failed", "kind", kind, "error", err)
	}
	if ok {
		return hit, nil
	}

	result, err := compute()
	if err != nil {
		return result, err
	}
	if err := c.Set(ctx, key, result); err != nil {
		slog.Warn("cache write failed", "kind", kind, "error", err)
	}
	return result, nil
}
