package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)

func newRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return now })
	return repo
}

func TestMemoryRepository_Recipes(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	pub := &models.Recipe{Title: "Pasta", Author: "amy", Tags: []string{"Italian"}, IsPublic: true}
	priv := &models.Recipe{Title: "Secret", Author: "bob"}
	require.NoError(t, repo.CreateRecipe(ctx, pub))
	require.NoError(t, repo.CreateRecipe(ctx, priv))
	assert.NotZero(t, pub.ID)
	require.NotNil(t, pub.CreatedAt)
	assert.Equal(t, "2024-06-01T09:00:00Z", *pub.CreatedAt)

	require.NoError(t, repo.AddReview(ctx, &models.Review{RecipeID: pub.ID, Author: "x", Rating: 4}))
	require.NoError(t, repo.AddReview(ctx, &models.Review{RecipeID: pub.ID, Author: "y", Rating: 5}))
	assert.Error(t, repo.AddReview(ctx, &models.Review{RecipeID: 999, Rating: 3}))

	public, err := repo.ListRecipes(ctx, true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, 4.5, public[0].AverageRating)
	assert.Nil(t, public[0].Reviews)

	all, err := repo.ListRecipes(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.GetRecipe(ctx, pub.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reviews, 2)
	got.Tags[0] = "changed"

	again, err := repo.GetRecipe(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Italian", again.Tags[0])

	missing, err := repo.GetRecipe(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryRepository_SubmissionsFollowRecipeLikes(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ch := &models.Challenge{Title: "Soup week", Deadline: time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC), Active: true}
	require.NoError(t, repo.CreateChallenge(ctx, ch))
	rc := &models.Recipe{Title: "Borscht", Author: "amy", IsPublic: true}
	require.NoError(t, repo.CreateRecipe(ctx, rc))

	sub := &models.Submission{ChallengeID: ch.ID, RecipeID: rc.ID, Author: "amy"}
	require.NoError(t, repo.CreateSubmission(ctx, sub))
	require.NotNil(t, sub.ID)

	likes, err := repo.LikeRecipe(ctx, rc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
	_, err = repo.LikeRecipe(ctx, rc.ID)
	require.NoError(t, err)

	subs, err := repo.ListSubmissions(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 2, subs[0].Likes)
	assert.Equal(t, "Borscht", subs[0].Title)
	assert.Equal(t, *sub.ID, *subs[0].ID)

	assert.Error(t, repo.CreateSubmission(ctx, &models.Submission{ChallengeID: 999, RecipeID: rc.ID, Author: "amy"}))
	err = repo.CreateSubmission(ctx, &models.Submission{ChallengeID: ch.ID, RecipeID: rc.ID, Author: "bob"})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	n, err := repo.DeleteSubmissions(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	subs, err = repo.ListSubmissions(ctx, ch.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestMemoryRepository_LockChallenge(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	unlock, err := repo.LockChallenge(ctx, 1)
	require.NoError(t, err)

	// other challenges are not blocked
	other, err := repo.LockChallenge(ctx, 2)
	require.NoError(t, err)
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = repo.LockChallenge(waitCtx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		again, err := repo.LockChallenge(ctx, 1)
		if err == nil {
			again()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not acquired after release")
	}
}

func TestMemoryRepository_Challenges(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	late := &models.Challenge{Title: "late", Deadline: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Active: true}
	early := &models.Challenge{Title: "early", Deadline: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Active: true}
	done := &models.Challenge{Title: "done", Deadline: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	for _, ch := range []*models.Challenge{late, early, done} {
		require.NoError(t, repo.CreateChallenge(ctx, ch))
	}

	active, err := repo.ListChallenges(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "early", active[0].Title)

	early.Featured = true
	require.NoError(t, repo.UpdateChallenge(ctx, early))
	got, err := repo.GetChallenge(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, got.Featured)

	assert.Error(t, repo.UpdateChallenge(ctx, &models.Challenge{ID: 999}))
}

func TestMemoryRepository_StandingsAndBadges(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.ReplaceStandings(ctx, []models.StandingEntry{
		{Rank: 2, Author: "bob", TotalPoints: 70},
		{Rank: 1, Author: "amy", TotalPoints: 100},
	}))
	standings, err := repo.ListStandings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "amy", standings[0].Author)

	require.NoError(t, repo.AwardBadge(ctx, "amy", models.BadgeMasterChef))
	require.NoError(t, repo.AwardBadge(ctx, "amy", models.BadgeMasterChef))
	badges, err := repo.ListBadges(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, []string{models.BadgeMasterChef}, badges)

	none, err := repo.ListBadges(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryRepository_Clients(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	c := &models.ApiClient{Name: "mobile", ApiKey: "ck_test_key_1", IsActive: true, Permissions: []string{"*"}}
	require.NoError(t, repo.CreateClient(ctx, c))
	assert.Error(t, repo.CreateClient(ctx, &models.ApiClient{ApiKey: "ck_test_key_1"}))

	n, err := repo.CountClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.UpdateClientLastUsed(ctx, c.ApiKey))
	got, err := repo.GetClientByApiKey(ctx, c.ApiKey)
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)

	missing, err := repo.GetClientByApiKey(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
