package ranking

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// DefaultTopN is the size of the podium shown on a challenge
const DefaultTopN = 3

// ComputeBestSubmissions keeps one submission per raw author string.
//
// Selection picks the most liked submission; on equal likes the smaller id
// wins and a missing id counts as math.MinInt64, so it beats any real id.
// The winners are then ordered by likes descending and id ascending, where
// a missing id counts as math.MaxInt64 and sorts last. The two sentinels
// point in opposite directions on purpose.
//
// Grouping here uses the author exactly as stored, unlike ComputeLeaderboard.
func ComputeBestSubmissions(subs []models.Submission) ([]models.Submission, error) {
	groups := make(map[string][]models.Submission)
	for _, s := range subs {
		groups[s.Author] = append(groups[s.Author], s)
	}

	best := make([]models.Submission, 0, len(groups))
	for author, group := range groups {
		winner, ok := selectBest(group)
		if !ok {
			return nil, fmt.Errorf("%w: empty submission group for author %q", ErrInvariantViolated, author)
		}
		best = append(best, winner)
	}

	slices.SortFunc(best, compareDisplay)
	return best, nil
}

// TopN returns the first n entries of an already ordered list
func TopN(best []models.Submission, n int) []models.Submission {
	if n <= 0 {
		return []models.Submission{}
	}
	n = min(n, len(best))
	out := make([]models.Submission, n)
	copy(out, best[:n])
	return out
}

// selectBest returns the maximum of group under compareSelection. The first
// of several equal maxima is kept.
func selectBest(group []models.Submission) (models.Submission, bool) {
	if len(group) == 0 {
		return models.Submission{}, false
	}
	best := group[0]
	for _, s := range group[1:] {
		if compareSelection(s, best) > 0 {
			best = s
		}
	}
	return best, true
}

// compareSelection orders by likes ascending, then id descending with a
// missing id as math.MinInt64. The maximum is the most liked, smallest id.
func compareSelection(a, b models.Submission) int {
	if c := cmp.Compare(a.Likes, b.Likes); c != 0 {
		return c
	}
	return cmp.Compare(idOr(b.ID, math.MinInt64), idOr(a.ID, math.MinInt64))
}

func compareDisplay(a, b models.Submission) int {
	if c := cmp.Compare(b.Likes, a.Likes); c != 0 {
		return c
	}
	if c := cmp.Compare(idOr(a.ID, math.MaxInt64), idOr(b.ID, math.MaxInt64)); c != 0 {
		return c
	}
	return cmp.Compare(a.Author, b.Author)
}
