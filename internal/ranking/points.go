package ranking

import (
	"cmp"
	"slices"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// payoutShare is the share of a challenge's points paid per placement.
// Placements past the table earn trailingPayoutShare.
var payoutShare = []float64{1, 0.7, 0.5}

const trailingPayoutShare = 0.1

// Award is the points one contestant earned in one challenge
type Award struct {
	ChallengeID  int64  `json:"challenge_id"`
	Author       string `json:"author"`
	Place        int    `json:"place"`
	Likes        int    `json:"likes"`
	Points       int    `json:"points"`
	SubmissionID *int64 `json:"submission_id,omitempty"`
}

// Payout returns the points paid for a 1-based place. The share is applied
// in floating point and truncated toward zero, so 90 points at 70% pays 62
// (90*0.7 is just below 63), not the 63 exact integer math would give.
func Payout(points, place int) int {
	if place < 1 {
		return 0
	}
	share := trailingPayoutShare
	if place <= len(payoutShare) {
		share = payoutShare[place-1]
	}
	return int(float64(points) * share)
}

// AwardPoints places each contestant of a challenge by their best
// submission and pays out the challenge points by place. Contestants are
// keyed by normalized author so one person is never paid twice. Only
// placements with at least one like score.
func AwardPoints(ch models.Challenge, subs []models.Submission) []Award {
	groups := make(map[string][]models.Submission)
	for _, s := range subs {
		key := NormalizeAuthor(s.Author)
		groups[key] = append(groups[key], s)
	}

	best := make([]models.Submission, 0, len(groups))
	for key, group := range groups {
		if winner, ok := selectBest(group); ok {
			winner.Author = key
			best = append(best, winner)
		}
	}
	slices.SortFunc(best, compareDisplay)

	awards := make([]Award, 0, len(best))
	for i, s := range best {
		if s.Likes <= 0 {
			continue
		}
		awards = append(awards, Award{
			ChallengeID:  ch.ID,
			Author:       s.Author,
			Place:        i + 1,
			Likes:        s.Likes,
			Points:       Payout(ch.Points, i+1),
			SubmissionID: s.ID,
		})
	}
	return awards
}

// ComputeStandings sums awards per author into the global standings.
// Equal totals are ordered by the author's earliest scoring submission id;
// authors without any id go last.
func ComputeStandings(awards []Award) []models.StandingEntry {
	byAuthor := make(map[string]*models.StandingEntry)
	for _, a := range awards {
		e, ok := byAuthor[a.Author]
		if !ok {
			e = &models.StandingEntry{Author: a.Author}
			byAuthor[a.Author] = e
		}
		e.TotalPoints += a.Points
		if a.SubmissionID != nil && (e.EarliestSubmissionID == nil || *a.SubmissionID < *e.EarliestSubmissionID) {
			id := *a.SubmissionID
			e.EarliestSubmissionID = &id
		}
	}

	standings := make([]models.StandingEntry, 0, len(byAuthor))
	for _, e := range byAuthor {
		standings = append(standings, *e)
	}

	slices.SortFunc(standings, func(a, b models.StandingEntry) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		switch {
		case a.EarliestSubmissionID == nil && b.EarliestSubmissionID != nil:
			return 1
		case a.EarliestSubmissionID != nil && b.EarliestSubmissionID == nil:
			return -1
		case a.EarliestSubmissionID != nil && b.EarliestSubmissionID != nil:
			if c := cmp.Compare(*a.EarliestSubmissionID, *b.EarliestSubmissionID); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Author, b.Author)
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// TopStandings returns the first n standings
func TopStandings(standings []models.StandingEntry, n int) []models.StandingEntry {
	if n <= 0 {
		return []models.StandingEntry{}
	}
	n = min(n, len(standings))
	out := make([]models.StandingEntry, n)
	copy(out, standings[:n])
	return out
}

var badgeByRank = []string{
	models.BadgeMasterChef,
	models.BadgeEliteCook,
	models.BadgeChallengerStar,
}

// Badges maps the top three authors of ordered standings to their badge
func Badges(standings []models.StandingEntry) map[string]string {
	badges := make(map[string]string, len(badgeByRank))
	for i, e := range TopStandings(standings, len(badgeByRank)) {
		badges[e.Author] = badgeByRank[i]
	}
	return badges
}
