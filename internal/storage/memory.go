package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// MemoryRepository implements Repository in process memory. It backs tests
// and local runs with DATABASE_DSN=memory; nothing survives a restart.
type MemoryRepository struct {
	mu  sync.RWMutex
	now func() time.Time

	recipes     map[int64]*models.Recipe
	reviews     map[int64][]models.Review
	challenges  map[int64]*models.Challenge
	submissions []models.Submission
	standings   []models.StandingEntry
	winners     []models.FeaturedWinner
	badges      map[string][]string
	clients     map[string]*models.ApiClient

	// challengeLocks hold one token per challenge; a full channel is held
	locksMu        sync.Mutex
	challengeLocks map[int64]chan struct{}

	nextID int64
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:        time.Now,
		recipes:    make(map[int64]*models.Recipe),
		reviews:    make(map[int64][]models.Review),
		challenges: make(map[int64]*models.Challenge),
		badges:     make(map[string][]string),
		clients:    make(map[string]*models.ApiClient),

		challengeLocks: make(map[int64]chan struct{}),
	}
}

// SetClock overrides the clock used for generated timestamps
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryRepository) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryRepository) Ping(context.Context) error { return nil }

func (m *MemoryRepository) Close() error { return nil }

// --- Recipes ---

func (m *MemoryRepository) ListRecipes(_ context.Context, publicOnly bool) ([]models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recipes := make([]models.Recipe, 0, len(m.recipes))
	for _, rc := range m.recipes {
		if publicOnly && !rc.IsPublic {
			continue
		}
		recipes = append(recipes, m.recipeCopy(rc, false))
	}
	slices.SortFunc(recipes, func(a, b models.Recipe) int { return cmp.Compare(b.ID, a.ID) })
	return recipes, nil
}

func (m *MemoryRepository) GetRecipe(_ context.Context, id int64) (*models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rc, ok := m.recipes[id]
	if !ok {
		return nil, nil
	}
	out := m.recipeCopy(rc, true)
	return &out, nil
}

// recipeCopy returns a detached copy with the rating derived from reviews
func (m *MemoryRepository) recipeCopy(rc *models.Recipe, withReviews bool) models.Recipe {
	out := *rc
	out.Tags = slices.Clone(rc.Tags)
	reviews := m.reviews[rc.ID]
	out.AverageRating = models.RatingFromReviews(reviews)
	out.Reviews = nil
	if withReviews {
		out.Reviews = append(make([]models.Review, 0, len(reviews)), reviews...)
	}
	return out
}

func (m *MemoryRepository) CreateRecipe(_ context.Context, rc *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc.ID = m.id()
	if rc.CreatedAt == nil {
		rc.CreatedAt = models.Timestamp(m.now())
	}
	stored := *rc
	stored.Tags = slices.Clone(rc.Tags)
	stored.Reviews = nil
	m.recipes[rc.ID] = &stored
	return nil
}

func (m *MemoryRepository) LikeRecipe(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc, ok := m.recipes[id]
	if !ok {
		return 0, nil
	}
	rc.Likes++
	return rc.Likes, nil
}

func (m *MemoryRepository) AddReview(_ context.Context, rv *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[rv.RecipeID]; !ok {
		return fmt.Errorf("failed to add review: recipe %d not found", rv.RecipeID)
	}
	rv.ID = m.id()
	m.reviews[rv.RecipeID] = append(m.reviews[rv.RecipeID], *rv)
	return nil
}

// --- Challenges ---

func (m *MemoryRepository) ListChallenges(_ context.Context, activeOnly bool) ([]*models.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	challenges := make([]*models.Challenge, 0, len(m.challenges))
	for _, ch := range m.challenges {
		if activeOnly && !ch.Active {
			continue
		}
		c := *ch
		challenges = append(challenges, &c)
	}
	slices.SortFunc(challenges, func(a, b *models.Challenge) int {
		if c := a.Deadline.Compare(b.Deadline); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return challenges, nil
}

func (m *MemoryRepository) GetChallenge(_ context.Context, id int64) (*models.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ch, ok := m.challenges[id]
	if !ok {
		return nil, nil
	}
	c := *ch
	return &c, nil
}

func (m *MemoryRepository) CreateChallenge(_ context.Context, ch *models.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch.ID = m.id()
	ch.CreatedAt = m.now()
	c := *ch
	m.challenges[ch.ID] = &c
	return nil
}

func (m *MemoryRepository) UpdateChallenge(_ context.Context, ch *models.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.challenges[ch.ID]
	if !ok {
		return fmt.Errorf("challenge not found: %d", ch.ID)
	}
	c := *ch
	c.CreatedAt = existing.CreatedAt
	m.challenges[ch.ID] = &c
	return nil
}

// --- Submissions ---

func (m *MemoryRepository) ListSubmissions(_ context.Context, challengeID int64) ([]models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := make([]models.Submission, 0)
	for _, s := range m.submissions {
		if s.ChallengeID != challengeID {
			continue
		}
		rc, ok := m.recipes[s.RecipeID]
		if !ok {
			continue
		}
		s.ID = models.SubmissionID(*s.ID)
		s.Title = rc.Title
		s.Likes = rc.Likes
		subs = append(subs, s)
	}
	return subs, nil
}

func (m *MemoryRepository) CreateSubmission(_ context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.challenges[s.ChallengeID]; !ok {
		return fmt.Errorf("failed to create submission: challenge %d not found", s.ChallengeID)
	}
	if _, ok := m.recipes[s.RecipeID]; !ok {
		return fmt.Errorf("failed to create submission: recipe %d not found", s.RecipeID)
	}
	for _, existing := range m.submissions {
		if existing.ChallengeID == s.ChallengeID && existing.RecipeID == s.RecipeID {
			return ErrDuplicateSubmission
		}
	}

	s.ID = models.SubmissionID(m.id())
	s.CreatedAt = models.Timestamp(m.now())
	stored := *s
	stored.ID = models.SubmissionID(*s.ID)
	m.submissions = append(m.submissions, stored)
	return nil
}

func (m *MemoryRepository) DeleteSubmissions(_ context.Context, challengeID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.submissions)
	m.submissions = slices.DeleteFunc(m.submissions, func(s models.Submission) bool {
		return s.ChallengeID == challengeID
	})
	return before - len(m.submissions), nil
}

func (m *MemoryRepository) LockChallenge(ctx context.Context, challengeID int64) (func(), error) {
	m.locksMu.Lock()
	lock, ok := m.challengeLocks[challengeID]
	if !ok {
		lock = make(chan struct{}, 1)
		m.challengeLocks[challengeID] = lock
	}
	m.locksMu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to lock challenge %d: %w", challengeID, ctx.Err())
	}
}

// --- Standings ---

func (m *MemoryRepository) ReplaceStandings(_ context.Context, standings []models.StandingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.standings = slices.Clone(standings)
	return nil
}

func (m *MemoryRepository) ListStandings(context.Context) ([]models.StandingEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append(make([]models.StandingEntry, 0, len(m.standings)), m.standings...)
	slices.SortStableFunc(out, func(a, b models.StandingEntry) int { return cmp.Compare(a.Rank, b.Rank) })
	return out, nil
}

func (m *MemoryRepository) ReplaceFeaturedWinners(_ context.Context, winners []models.FeaturedWinner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.winners = slices.Clone(winners)
	return nil
}

func (m *MemoryRepository) ListFeaturedWinners(context.Context) ([]models.FeaturedWinner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]models.FeaturedWinner, 0, len(m.winners)), m.winners...), nil
}

func (m *MemoryRepository) AwardBadge(_ context.Context, author, badge string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(m.badges[author], badge) {
		m.badges[author] = append(m.badges[author], badge)
	}
	return nil
}

func (m *MemoryRepository) ListBadges(_ context.Context, author string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]string, 0), m.badges[author]...), nil
}

// --- API Clients ---

func (m *MemoryRepository) CreateClient(_ context.Context, c *models.ApiClient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[c.ApiKey]; exists {
		return fmt.Errorf("failed to create api client: duplicate key %s", c.MaskedApiKey())
	}
	c.ID = int(m.id())
	c.CreatedAt = m.now()
	stored := *c
	stored.Permissions = slices.Clone(c.Permissions)
	m.clients[c.ApiKey] = &stored
	return nil
}

func (m *MemoryRepository) CountClients(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients), nil
}

func (m *MemoryRepository) GetClientByApiKey(_ context.Context, apiKey string) (*models.ApiClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[apiKey]
	if !ok {
		return nil, nil
	}
	out := *c
	out.Permissions = slices.Clone(c.Permissions)
	return &out, nil
}

func (m *MemoryRepository) UpdateClientLastUsed(_ context.Context, apiKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[apiKey]; ok {
		now := m.now()
		c.LastUsedAt = &now
	}
	return nil
}
