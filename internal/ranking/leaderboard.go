package ranking

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// LeaderboardEntry is one contestant's aggregate for a challenge
type LeaderboardEntry struct {
	Author     string `json:"author"`
	TotalLikes int    `json:"total_likes"`
	// TieBreakID is the smallest submission id of the author, standing in for
	// "earliest". math.MaxInt64 when none of the submissions carry an id.
	TieBreakID int64 `json:"tie_break_id"`
}

// NormalizeAuthor produces the grouping key used by the leaderboard
func NormalizeAuthor(author string) string {
	return strings.TrimSpace(strings.ToLower(author))
}

// ComputeLeaderboard aggregates likes per normalized author. Authors whose
// submissions have no likes at all are left out. Entries are ordered by
// total likes descending, then by TieBreakID ascending.
func ComputeLeaderboard(subs []models.Submission) []LeaderboardEntry {
	groups := make(map[string]*LeaderboardEntry)
	for _, s := range subs {
		key := NormalizeAuthor(s.Author)
		e, ok := groups[key]
		if !ok {
			e = &LeaderboardEntry{Author: key, TieBreakID: math.MaxInt64}
			groups[key] = e
		}
		e.TotalLikes += s.Likes
		e.TieBreakID = min(e.TieBreakID, idOr(s.ID, math.MaxInt64))
	}

	entries := make([]LeaderboardEntry, 0, len(groups))
	for _, e := range groups {
		if e.TotalLikes > 0 {
			entries = append(entries, *e)
		}
	}

	slices.SortFunc(entries, func(a, b LeaderboardEntry) int {
		if c := cmp.Compare(b.TotalLikes, a.TotalLikes); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TieBreakID, b.TieBreakID); c != 0 {
			return c
		}
		// only reachable when neither author has an id; keeps output stable
		return cmp.Compare(a.Author, b.Author)
	})

	return entries
}

func idOr(id *int64, fallback int64) int64 {
	if id == nil {
		return fallback
	}
	return *id
}
