// Package discovery filters the public recipe catalog for the discover screen.
package discovery

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// FilterCatalog returns the recipes matching every active criterion, newest
// first. now anchors the recency windows. The catalog is not modified.
func FilterCatalog(catalog []models.Recipe, c Criteria, now time.Time) []models.Recipe {
	m := newMatcher(c, now)

	out := make([]models.Recipe, 0, len(catalog))
	for i := range catalog {
		if m.match(&catalog[i]) {
			out = append(out, catalog[i])
		}
	}

	slices.SortStableFunc(out, func(a, b models.Recipe) int {
		return sortTime(&b).Compare(sortTime(&a))
	})
	return out
}

// Matches reports whether a single recipe passes the criteria
func Matches(r models.Recipe, c Criteria, now time.Time) bool {
	return newMatcher(c, now).match(&r)
}

type matcher struct {
	query      string
	cuisine    string
	difficulty string
	ratings    string
	tags       string
	recency    string
	now        time.Time
}

func newMatcher(c Criteria, now time.Time) *matcher {
	return &matcher{
		query:      c.query(),
		cuisine:    c.Cuisine,
		difficulty: c.Difficulty,
		ratings:    c.Ratings,
		tags:       c.Tags,
		recency:    c.Recency,
		now:        now,
	}
}

func (m *matcher) match(r *models.Recipe) bool {
	return r.IsPublic &&
		m.matchSearch(r) &&
		matchFieldOrTag(m.cuisine, r.Cuisine, r.Tags) &&
		matchFieldOrTag(m.difficulty, r.Difficulty, r.Tags) &&
		m.matchRating(r) &&
		(m.tags == "" || hasTag(r.Tags, m.tags)) &&
		m.matchRecency(r)
}

func (m *matcher) matchSearch(r *models.Recipe) bool {
	if m.query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), m.query) ||
		strings.Contains(strings.ToLower(r.Notes), m.query) ||
		hasTag(r.Tags, m.query)
}

func matchFieldOrTag(want, field string, tags []string) bool {
	if want == "" {
		return true
	}
	return strings.EqualFold(field, want) || hasTag(tags, want)
}

// matchRating compares the rating rounded half away from zero against the
// selected star count. A selection that is not a plain integer, padded
// ones included, selects 0 stars.
func (m *matcher) matchRating(r *models.Recipe) bool {
	if m.ratings == "" {
		return true
	}
	stars, err := strconv.Atoi(m.ratings)
	if err != nil {
		stars = 0
	}
	return math.Round(r.AverageRating) == float64(stars)
}

// matchRecency excludes recipes without a usable timestamp whenever a
// window is selected. Unknown window names do not filter.
func (m *matcher) matchRecency(r *models.Recipe) bool {
	if m.recency == "" {
		return true
	}
	if r.CreatedAt == nil {
		return false
	}
	created, ok := ParseCreatedAt(*r.CreatedAt)
	if !ok {
		return false
	}
	window, known := RecencyWindow(m.recency)
	if !known {
		return true
	}
	return created.After(m.now.Add(-window))
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
