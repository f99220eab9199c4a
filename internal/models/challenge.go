package models

import "time"

// Challenge is a time-boxed cooking contest. Points is the reward paid to
// the first-placed contestant when the challenge is settled.
type Challenge struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"image_url,omitempty"`
	Deadline       time.Time `json:"deadline"`
	Points         int       `json:"points"`
	Active         bool      `json:"active"`
	Featured       bool      `json:"featured"`
	MaxSubmissions int       `json:"max_submissions"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsOpen reports whether submissions are still accepted on the given day.
// Days are UTC calendar days and the deadline day itself is still open.
func (c *Challenge) IsOpen(today time.Time) bool {
	return !dateOf(today).After(dateOf(c.Deadline))
}

// CreateChallengeRequest is the body accepted when creating a challenge
type CreateChallengeRequest struct {
	Title          string    `json:"title" validate:"required,max=200"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"image_url" validate:"omitempty,url"`
	Deadline       time.Time `json:"deadline" validate:"required"`
	Points         int       `json:"points" validate:"min=0"`
	MaxSubmissions int       `json:"max_submissions" validate:"min=0"`
	Featured       bool      `json:"featured"`
}

// StandingEntry is one row of the global leaderboard built across challenges
type StandingEntry struct {
	Rank        int    `json:"rank"`
	Author      string `json:"author"`
	TotalPoints int    `json:"total_points"`
	// EarliestSubmissionID breaks ties between equal point totals; nil sorts last
	EarliestSubmissionID *int64 `json:"earliest_submission_id,omitempty"`
}

// FeaturedWinner is a contestant frozen into the hall of fame when a
// featured challenge is settled
type FeaturedWinner struct {
	Author       string    `json:"author"`
	TotalPoints  int       `json:"total_points"`
	SettlementID string    `json:"settlement_id"`
	AwardedAt    time.Time `json:"awarded_at"`
}

// Badge names awarded to the top of the global standings
const (
	BadgeMasterChef     = "Master Chef"
	BadgeEliteCook      = "Elite Cook"
	BadgeChallengerStar = "Challenger Star"
)

// dateOf truncates t to its UTC calendar day
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
