package models

import "time"

// Submission is a recipe entered into a challenge. ID is nullable because
// snapshots fetched from upstream may carry entries that were never
// persisted; ranking treats a missing ID through explicit sentinels.
type Submission struct {
	ID          *int64  `json:"id"`
	ChallengeID int64   `json:"challenge_id,omitempty"`
	RecipeID    int64   `json:"recipe_id,omitempty"`
	Title       string  `json:"title,omitempty"`
	Author      string  `json:"author" validate:"required"`
	Likes       int     `json:"likes" validate:"min=0"`
	CreatedAt   *string `json:"created_at,omitempty"`
}

// SubmissionID is a convenience for building submissions with a known ID
func SubmissionID(id int64) *int64 {
	return &id
}

// CreateSubmissionRequest is the body accepted when entering a recipe into a challenge
type CreateSubmissionRequest struct {
	RecipeID int64  `json:"recipe_id" validate:"required,gt=0"`
	Author   string `json:"author" validate:"required,max=320"`
}

// Timestamp formats an instant the way the API emits created_at values
func Timestamp(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339)
	return &s
}
