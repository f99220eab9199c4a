package ranking

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

func sub(id int64, author string, likes int) models.Submission {
	return models.Submission{ID: models.SubmissionID(id), Author: author, Likes: likes}
}

func subNoID(author string, likes int) models.Submission {
	return models.Submission{Author: author, Likes: likes}
}

func TestComputeLeaderboard_ExcludesZeroLikeAuthors(t *testing.T) {
	subs := []models.Submission{
		sub(1, "bob", 5),
		sub(2, "bob", 3),
		sub(3, "amy", 0),
	}

	got := ComputeLeaderboard(subs)

	assert.Equal(t, []LeaderboardEntry{{Author: "bob", TotalLikes: 8, TieBreakID: 1}}, got)
}

func TestComputeLeaderboard_Ordering(t *testing.T) {
	tests := []struct {
		name string
		subs []models.Submission
		want []LeaderboardEntry
	}{
		{
			name: "more likes first",
			subs: []models.Submission{sub(1, "a", 2), sub(2, "b", 9)},
			want: []LeaderboardEntry{
				{Author: "b", TotalLikes: 9, TieBreakID: 2},
				{Author: "a", TotalLikes: 2, TieBreakID: 1},
			},
		},
		{
			name: "equal likes, earliest id wins",
			subs: []models.Submission{sub(4, "late", 3), sub(2, "early", 1), sub(7, "early", 2)},
			want: []LeaderboardEntry{
				{Author: "early", TotalLikes: 3, TieBreakID: 2},
				{Author: "late", TotalLikes: 3, TieBreakID: 4},
			},
		},
		{
			name: "missing id ranks after real id",
			subs: []models.Submission{subNoID("ghost", 5), sub(10, "real", 5)},
			want: []LeaderboardEntry{
				{Author: "real", TotalLikes: 5, TieBreakID: 10},
				{Author: "ghost", TotalLikes: 5, TieBreakID: math.MaxInt64},
			},
		},
		{
			name: "min id ignores missing ids within a group",
			subs: []models.Submission{subNoID("mixed", 1), sub(6, "mixed", 1)},
			want: []LeaderboardEntry{{Author: "mixed", TotalLikes: 2, TieBreakID: 6}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeLeaderboard(tt.subs))
		})
	}
}

func TestComputeLeaderboard_NormalizesAuthor(t *testing.T) {
	subs := []models.Submission{
		sub(3, "  Chef@Example.com ", 2),
		sub(1, "chef@example.com", 1),
		sub(2, "CHEF@EXAMPLE.COM", 4),
	}

	got := ComputeLeaderboard(subs)

	require.Len(t, got, 1)
	assert.Equal(t, "chef@example.com", got[0].Author)
	assert.Equal(t, 7, got[0].TotalLikes)
	assert.Equal(t, int64(1), got[0].TieBreakID)
}

func TestComputeLeaderboard_Empty(t *testing.T) {
	got := ComputeLeaderboard(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestComputeLeaderboard_StableWithoutIDs(t *testing.T) {
	subs := []models.Submission{subNoID("zed", 4), subNoID("ann", 4), subNoID("mo", 4)}

	first := ComputeLeaderboard(subs)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ComputeLeaderboard(subs))
	}
}

func TestComputeLeaderboard_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	subs := randomSubmissions(rng, 60)
	want := ComputeLeaderboard(subs)

	for i := 0; i < 25; i++ {
		shuffled := append([]models.Submission(nil), subs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, ComputeLeaderboard(shuffled))
	}
}

func TestComputeLeaderboard_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		subs := randomSubmissions(rng, rng.Intn(40))
		got := ComputeLeaderboard(subs)

		totals := make(map[string]int)
		for _, s := range subs {
			totals[NormalizeAuthor(s.Author)] += s.Likes
		}
		for _, e := range got {
			assert.Positive(t, e.TotalLikes, "zero-like author %q listed", e.Author)
			assert.Equal(t, totals[e.Author], e.TotalLikes)
		}
		for author, total := range totals {
			if total == 0 {
				for _, e := range got {
					assert.NotEqual(t, author, e.Author)
				}
			}
		}
		for i := 1; i < len(got); i++ {
			a, b := got[i-1], got[i]
			ok := a.TotalLikes > b.TotalLikes || (a.TotalLikes == b.TotalLikes && a.TieBreakID <= b.TieBreakID)
			assert.True(t, ok, "entries %d and %d out of order: %+v %+v", i-1, i, a, b)
		}
	}
}

func TestComputeLeaderboard_DoesNotMutateInput(t *testing.T) {
	subs := []models.Submission{sub(2, " B ", 1), sub(1, "a", 3)}
	snapshot := append([]models.Submission(nil), subs...)

	ComputeLeaderboard(subs)

	assert.Equal(t, snapshot, subs)
}

var authorPool = []string{"amy", "Amy", " bob", "carl", "dee@example.com", "eve", "Eve "}

func randomSubmissions(rng *rand.Rand, n int) []models.Submission {
	subs := make([]models.Submission, 0, n)
	for i := 0; i < n; i++ {
		s := models.Submission{
			Author: authorPool[rng.Intn(len(authorPool))],
			Likes:  rng.Intn(4),
		}
		if rng.Intn(5) != 0 {
			s.ID = models.SubmissionID(int64(i + 1))
		}
		subs = append(subs, s)
	}
	return subs
}
