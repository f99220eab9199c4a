package challenge

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ranking"
)

// maxConcurrentLoads bounds the submission queries issued while recomputing standings
const maxConcurrentLoads = 8

// Submissions returns the current submissions of a challenge
func (s *Service) Submissions(ctx context.Context, challengeID int64) ([]models.Submission, error) {
	if _, err := s.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubmissions(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// Leaderboard ranks the contestants of a challenge by total likes
func (s *Service) Leaderboard(ctx context.Context, challengeID int64) ([]ranking.LeaderboardEntry, error) {
	subs, err := s.Submissions(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, kindLeaderboard, subs, func() ([]ranking.LeaderboardEntry, error) {
		return ranking.ComputeLeaderboard(subs), nil
	})
}

// BestSubmissions returns each contestant's strongest submission
func (s *Service) BestSubmissions(ctx context.Context, challengeID int64) ([]models.Submission, error) {
	subs, err := s.Submissions(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.best(ctx, subs)
}

func (s *Service) best(ctx context.Context, subs []models.Submission) ([]models.Submission, error) {
	return cached(ctx, s.cache, kindBest, subs, func() ([]models.Submission, error) {
		best, err := ranking.ComputeBestSubmissions(subs)
		if err != nil {
			slog.Error("best submission selection failed", "error", err)
			return nil, err
		}
		return best, nil
	})
}

// Top returns the first n best submissions; n <= 0 selects the default podium
func (s *Service) Top(ctx context.Context, challengeID int64, n int) ([]models.Submission, error) {
	if n <= 0 {
		n = s.topN
	}
	best, err := s.BestSubmissions(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return ranking.TopN(best, n), nil
}

// Standings returns the stored global standings
func (s *Service) Standings(ctx context.Context) ([]models.StandingEntry, error) {
	standings, err := s.repo.ListStandings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	return standings, nil
}

// FeaturedWinners returns the winners frozen by the last featured settlement
func (s *Service) FeaturedWinners(ctx context.Context) ([]models.FeaturedWinner, error) {
	winners, err := s.repo.ListFeaturedWinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured winners: %w", err)
	}
	return winners, nil
}

// Badges returns the badges an author has earned
func (s *Service) Badges(ctx context.Context, author string) ([]string, error) {
	badges, err := s.repo.ListBadges(ctx, ranking.NormalizeAuthor(author))
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

// RecalculateStandings awards points for every challenge's current
// submissions and replaces the stored global standings
func (s *Service) RecalculateStandings(ctx context.Context) ([]models.StandingEntry, error) {
	challenges, err := s.repo.ListChallenges(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	perChallenge := make([][]ranking.Award, len(challenges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, ch := range challenges {
		g.Go(func() error {
			subs, err := s.repo.ListSubmissions(gctx, ch.ID)
			if err != nil {
				return fmt.Errorf("failed to list submissions for challenge %d: %w", ch.ID, err)
			}
			perChallenge[i] = ranking.AwardPoints(*ch, subs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var awards []ranking.Award
	for _, a := range perChallenge {
		awards = append(awards, a...)
	}

	standings := ranking.ComputeStandings(awards)
	if err := s.repo.ReplaceStandings(ctx, standings); err != nil {
		return nil, fmt.Errorf("failed to store standings: %w", err)
	}

	slog.Info("standings recalculated", "challenges", len(challenges), "awards", len(awards), "contestants", len(standings))
	return standings, nil
}
