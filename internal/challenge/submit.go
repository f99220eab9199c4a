package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ranking"
	"github.com/terra-clan/cookoff-engine/internal/storage"
)

// Submit enters a recipe into a challenge on behalf of an author. The
// deadline day still accepts entries; a recipe can be entered once per
// challenge and MaxSubmissions, when set, caps entries per author.
// Submitters to one challenge are serialized by the repository lock.
func (s *Service) Submit(ctx context.Context, challengeID int64, req models.CreateSubmissionRequest) (*models.Submission, error) {
	unlock, err := s.repo.LockChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ch, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !ch.Active || !ch.IsOpen(s.now()) {
		return nil, ErrChallengeClosed
	}

	rc, err := s.GetRecipe(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListSubmissions(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	author := ranking.NormalizeAuthor(req.Author)
	count := 0
	for _, sub := range existing {
		if sub.RecipeID == rc.ID {
			return nil, ErrAlreadySubmitted
		}
		if ranking.NormalizeAuthor(sub.Author) == author {
			count++
		}
	}
	if ch.MaxSubmissions > 0 && count >= ch.MaxSubmissions {
		return nil, fmt.Errorf("%w (%d)", ErrSubmissionLimit, ch.MaxSubmissions)
	}

	sub := &models.Submission{
		ChallengeID: ch.ID,
		RecipeID:    rc.ID,
		Title:       rc.Title,
		Author:      req.Author,
		Likes:       rc.Likes,
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		if errors.Is(err, storage.ErrDuplicateSubmission) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	slog.Info("recipe submitted",
		"challenge_id", ch.ID,
		"recipe_id", rc.ID,
		"submission_id", *sub.ID,
		"author", author,
	)
	return sub, nil
}
