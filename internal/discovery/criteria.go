package discovery

import (
	"strings"
	"time"
)

// Filter categories offered by the discovery screen
const (
	CategoryCuisine    = "Cuisine"
	CategoryDifficulty = "Difficulty"
	CategoryRatings    = "Ratings"
	CategoryTags       = "Tags"
	CategoryRecency    = "Recency"
)

// Recency windows understood by the recency filter
const (
	RecencyLast24Hours = "Last 24 Hours"
	RecencyLast7Days   = "Last 7 Days"
	RecencyLast30Days  = "Last 30 Days"
)

var recencyWindows = map[string]time.Duration{
	RecencyLast24Hours: 24 * time.Hour,
	RecencyLast7Days:   7 * 24 * time.Hour,
	RecencyLast30Days:  30 * 24 * time.Hour,
}

// Categories returns the filter categories in display order
func Categories() []string {
	return []string{CategoryCuisine, CategoryDifficulty, CategoryRatings, CategoryTags, CategoryRecency}
}

// RecencyWindow returns the look-back duration for a named window
func RecencyWindow(name string) (time.Duration, bool) {
	d, ok := recencyWindows[name]
	return d, ok
}

// Criteria is the user's current selection. An empty field disables that
// filter.
type Criteria struct {
	Search     string `json:"search,omitempty"`
	Cuisine    string `json:"cuisine,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Ratings    string `json:"ratings,omitempty"`
	Tags       string `json:"tags,omitempty"`
	Recency    string `json:"recency,omitempty"`
}

// CriteriaFromMap builds Criteria from a category -> value selection.
// Unknown categories are ignored.
func CriteriaFromMap(selected map[string]string, query string) Criteria {
	return Criteria{
		Search:     query,
		Cuisine:    selected[CategoryCuisine],
		Difficulty: selected[CategoryDifficulty],
		Ratings:    selected[CategoryRatings],
		Tags:       selected[CategoryTags],
		Recency:    selected[CategoryRecency],
	}
}

// Selected returns the non-empty category filters keyed by category name.
// The search query is not a category and is left out.
func (c Criteria) Selected() map[string]string {
	out := make(map[string]string)
	for _, kv := range []struct{ k, v string }{
		{CategoryCuisine, c.Cuisine},
		{CategoryDifficulty, c.Difficulty},
		{CategoryRatings, c.Ratings},
		{CategoryTags, c.Tags},
		{CategoryRecency, c.Recency},
	} {
		if kv.v != "" {
			out[kv.k] = kv.v
		}
	}
	return out
}

// Active lists the names of the filters currently in effect, search first
func (c Criteria) Active() []string {
	var active []string
	if c.query() != "" {
		active = append(active, "Search")
	}
	selected := c.Selected()
	for _, cat := range Categories() {
		if _, ok := selected[cat]; ok {
			active = append(active, cat)
		}
	}
	return active
}

// query is the lowercased search text. Whitespace is significant: a query
// of spaces is still a query.
func (c Criteria) query() string {
	return strings.ToLower(c.Search)
}
