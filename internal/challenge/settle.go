package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ranking"
)

// featuredWinnerCount is how many contestants enter the hall of fame per
// featured challenge
const featuredWinnerCount = 3

// Settlement summarizes one daily rollover
type Settlement struct {
	ID                 string                  `json:"id"`
	Day                string                  `json:"day"`
	ClosedChallenges   []int64                 `json:"closed_challenges"`
	SettledChallengeID *int64                  `json:"settled_challenge_id,omitempty"`
	FeaturedNextID     *int64                  `json:"featured_next_id,omitempty"`
	Winners            []models.FeaturedWinner `json:"winners"`
	SubmissionsDeleted int                     `json:"submissions_deleted"`
	Standings          []models.StandingEntry  `json:"standings"`
}

// Settle runs the daily rollover as of the service clock:
//
//   - non-featured challenges past their deadline lose their submissions and
//     become inactive;
//   - the featured challenge, once its deadline day has come, freezes the
//     top three of the global standings as featured winners, awards badges,
//     loses its submissions and is unfeatured, and the upcoming challenge
//     with the nearest deadline is featured in its place;
//   - the global standings are recalculated from what is left.
//
// Running it twice on the same day is harmless.
func (s *Service) Settle(ctx context.Context) (*Settlement, error) {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()

	now := s.now()
	today := dayOf(now)
	st := &Settlement{
		ID:               uuid.NewString(),
		Day:              today.Format(time.DateOnly),
		ClosedChallenges: []int64{},
		Winners:          []models.FeaturedWinner{},
	}
	log := slog.With("settlement_id", st.ID, "day", st.Day)
	log.Info("settlement started")

	challenges, err := s.repo.ListChallenges(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	for _, ch := range challenges {
		if ch.Featured || !dayOf(ch.Deadline).Before(today) {
			continue
		}
		n, err := s.repo.DeleteSubmissions(ctx, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to clear challenge %d: %w", ch.ID, err)
		}
		st.SubmissionsDeleted += n
		if ch.Active {
			ch.Active = false
			if err := s.repo.UpdateChallenge(ctx, ch); err != nil {
				return nil, fmt.Errorf("failed to close challenge %d: %w", ch.ID, err)
			}
			st.ClosedChallenges = append(st.ClosedChallenges, ch.ID)
		}
		if n > 0 {
			log.Info("expired challenge cleared", "challenge_id", ch.ID, "submissions_deleted", n)
		}
	}

	featured := dueFeatured(challenges, today)
	if featured != nil {
		if err := s.settleFeatured(ctx, st, featured, now); err != nil {
			return nil, err
		}
	}

	if !anyFeatured(challenges) {
		if next := nextToFeature(challenges, today); next != nil {
			next.Featured = true
			if err := s.repo.UpdateChallenge(ctx, next); err != nil {
				return nil, fmt.Errorf("failed to feature challenge %d: %w", next.ID, err)
			}
			st.FeaturedNextID = &next.ID
			log.Info("challenge featured", "challenge_id", next.ID, "title", next.Title, "deadline", next.Deadline.Format(time.DateOnly))
		} else {
			log.Warn("no upcoming challenge to feature")
		}
	}

	standings, err := s.RecalculateStandings(ctx)
	if err != nil {
		return nil, err
	}
	st.Standings = standings

	for _, kind := range []string{kindLeaderboard, kindBest} {
		if _, err := s.cache.Invalidate(ctx, kind); err != nil {
			log.Warn("failed to invalidate cache", "kind", kind, "error", err)
		}
	}

	log.Info("settlement finished",
		"closed_challenges", len(st.ClosedChallenges),
		"settled_challenge", st.SettledChallengeID != nil,
		"winners", len(st.Winners),
		"submissions_deleted", st.SubmissionsDeleted,
	)
	return st, nil
}

// settleFeatured crowns the winners of a featured challenge and clears it.
// ch is updated in place so later steps see it unfeatured.
func (s *Service) settleFeatured(ctx context.Context, st *Settlement, ch *models.Challenge, now time.Time) error {
	standings, err := s.RecalculateStandings(ctx)
	if err != nil {
		return err
	}

	top := ranking.TopStandings(standings, featuredWinnerCount)
	for _, e := range top {
		st.Winners = append(st.Winners, models.FeaturedWinner{
			Author:       e.Author,
			TotalPoints:  e.TotalPoints,
			SettlementID: st.ID,
			AwardedAt:    now,
		})
	}
	if err := s.repo.ReplaceFeaturedWinners(ctx, st.Winners); err != nil {
		return fmt.Errorf("failed to store featured winners: %w", err)
	}

	for author, badge := range ranking.Badges(standings) {
		if err := s.repo.AwardBadge(ctx, author, badge); err != nil {
			return fmt.Errorf("failed to award %q to %s: %w", badge, author, err)
		}
	}

	n, err := s.repo.DeleteSubmissions(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("failed to clear featured challenge %d: %w", ch.ID, err)
	}
	st.SubmissionsDeleted += n

	ch.Featured = false
	ch.Active = false
	if err := s.repo.UpdateChallenge(ctx, ch); err != nil {
		return fmt.Errorf("failed to unfeature challenge %d: %w", ch.ID, err)
	}

	st.SettledChallengeID = &ch.ID
	slog.Info("featured challenge settled",
		"settlement_id", st.ID,
		"challenge_id", ch.ID,
		"winners", len(st.Winners),
		"submissions_deleted", n,
	)
	return nil
}

// dueFeatured returns the first featured challenge whose deadline is today or earlier
func dueFeatured(challenges []*models.Challenge, today time.Time) *models.Challenge {
	for _, ch := range challenges {
		if ch.Featured && !dayOf(ch.Deadline).After(today) {
			return ch
		}
	}
	return nil
}

func anyFeatured(challenges []*models.Challenge) bool {
	for _, ch := range challenges {
		if ch.Featured {
			return true
		}
	}
	return false
}

// nextToFeature picks the challenge with the nearest deadline after today
func nextToFeature(challenges []*models.Challenge, today time.Time) *models.Challenge {
	var next *models.Challenge
	for _, ch := range challenges {
		if ch.Featured || !dayOf(ch.Deadline).After(today) {
			continue
		}
		if next == nil || dayOf(ch.Deadline).Before(dayOf(next.Deadline)) {
			next = ch
		}
	}
	return next
}

// dayOf truncates t to its UTC calendar day, the same day the rollover
// worker settles
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
