package discovery

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func ts(t time.Time) *string {
	s := t.Format(time.RFC3339)
	return &s
}

func str(s string) *string { return &s }

func titles(recipes []models.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Title
	}
	return out
}

func TestFilterCatalog_CuisineIsCaseInsensitive(t *testing.T) {
	catalog := []models.Recipe{{ID: 1, Title: "Pasta", Cuisine: "Italian", IsPublic: true}}

	got := FilterCatalog(catalog, Criteria{Cuisine: "italian"}, fixedNow)

	assert.Equal(t, []string{"Pasta"}, titles(got))
}

func TestFilterCatalog_Predicates(t *testing.T) {
	base := models.Recipe{
		Title:         "Green Curry",
		Notes:         "Coconut milk and basil",
		Tags:          []string{"Spicy", "Dinner", "Thai"},
		Cuisine:       "Asian",
		Difficulty:    "Medium",
		AverageRating: 3.5,
		CreatedAt:     ts(fixedNow.Add(-2 * time.Hour)),
		IsPublic:      true,
	}

	tests := []struct {
		name   string
		modify func(r *models.Recipe)
		c      Criteria
		want   bool
	}{
		{"no criteria", nil, Criteria{}, true},
		{"private recipe never listed", func(r *models.Recipe) { r.IsPublic = false }, Criteria{}, false},

		{"search in title", nil, Criteria{Search: "CURRY"}, true},
		{"search in notes", nil, Criteria{Search: "basil"}, true},
		{"search exact tag", nil, Criteria{Search: "dinner"}, true},
		{"search partial tag does not match", nil, Criteria{Search: "dinn"}, false},
		{"search no match", nil, Criteria{Search: "sushi"}, false},
		{"search of spaces is still a search", nil, Criteria{Search: "   "}, false},
		{"search spaces match inside notes", nil, Criteria{Search: " "}, true},
		{"search is not trimmed", nil, Criteria{Search: " curry"}, true},
		{"search padding must match", nil, Criteria{Search: "curry "}, false},

		{"cuisine by field", nil, Criteria{Cuisine: "asian"}, true},
		{"cuisine by tag", nil, Criteria{Cuisine: "THAI"}, true},
		{"cuisine mismatch", nil, Criteria{Cuisine: "Italian"}, false},

		{"difficulty by field", nil, Criteria{Difficulty: "medium"}, true},
		{"difficulty mismatch", nil, Criteria{Difficulty: "Hard"}, false},

		{"rating rounds half away from zero", nil, Criteria{Ratings: "4"}, true},
		{"rating below", nil, Criteria{Ratings: "3"}, false},
		{"rating rounds down", func(r *models.Recipe) { r.AverageRating = 4.49 }, Criteria{Ratings: "4"}, true},
		{"unparseable rating selects zero stars", func(r *models.Recipe) { r.AverageRating = 0 }, Criteria{Ratings: "five"}, true},
		{"unparseable rating rejects rated recipe", nil, Criteria{Ratings: "five"}, false},
		{"padded rating is not a number", nil, Criteria{Ratings: " 4"}, false},
		{"padded rating selects zero stars", func(r *models.Recipe) { r.AverageRating = 0.2 }, Criteria{Ratings: " 4"}, true},

		{"tag exact", nil, Criteria{Tags: "spicy"}, true},
		{"tag substring rejected", nil, Criteria{Tags: "Spic"}, false},

		{"recency inside window", nil, Criteria{Recency: RecencyLast24Hours}, true},
		{"recency outside window", func(r *models.Recipe) { r.CreatedAt = ts(fixedNow.Add(-25 * time.Hour)) }, Criteria{Recency: RecencyLast24Hours}, false},
		{"recency 7 days", func(r *models.Recipe) { r.CreatedAt = ts(fixedNow.Add(-6 * 24 * time.Hour)) }, Criteria{Recency: RecencyLast7Days}, true},
		{"recency 30 days", func(r *models.Recipe) { r.CreatedAt = ts(fixedNow.Add(-31 * 24 * time.Hour)) }, Criteria{Recency: RecencyLast30Days}, false},
		{"recency missing timestamp", func(r *models.Recipe) { r.CreatedAt = nil }, Criteria{Recency: RecencyLast30Days}, false},
		{"recency unparseable timestamp", func(r *models.Recipe) { r.CreatedAt = str("yesterday") }, Criteria{Recency: RecencyLast30Days}, false},
		{"recency unknown window", nil, Criteria{Recency: "Last Century"}, true},
		{"recency unknown window still needs timestamp", func(r *models.Recipe) { r.CreatedAt = nil }, Criteria{Recency: "Last Century"}, false},

		{"all criteria together", nil, Criteria{Search: "curry", Cuisine: "Thai", Difficulty: "Medium", Ratings: "4", Tags: "Dinner", Recency: RecencyLast7Days}, true},
		{"one failing criterion rejects", nil, Criteria{Search: "curry", Cuisine: "Thai", Difficulty: "Easy"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			r.Tags = append([]string(nil), base.Tags...)
			if tt.modify != nil {
				tt.modify(&r)
			}
			got := FilterCatalog([]models.Recipe{r}, tt.c, fixedNow)
			assert.Equal(t, tt.want, len(got) == 1)
			assert.Equal(t, tt.want, Matches(r, tt.c, fixedNow))
		})
	}
}

func TestFilterCatalog_OrdersNewestFirst(t *testing.T) {
	catalog := []models.Recipe{
		{Title: "no date", IsPublic: true},
		{Title: "old", IsPublic: true, CreatedAt: ts(fixedNow.Add(-72 * time.Hour))},
		{Title: "garbage", IsPublic: true, CreatedAt: str("not a date")},
		{Title: "new", IsPublic: true, CreatedAt: ts(fixedNow.Add(-time.Hour))},
		{Title: "offset", IsPublic: true, CreatedAt: str("2024-06-15T10:30:00+02:00")},
	}

	got := FilterCatalog(catalog, Criteria{}, fixedNow)

	// offset is 08:30 UTC; undated recipes keep their catalog order at the end
	assert.Equal(t, []string{"new", "offset", "old", "no date", "garbage"}, titles(got))
}

func TestFilterCatalog_EmptyCatalog(t *testing.T) {
	got := FilterCatalog(nil, Criteria{Cuisine: "Thai"}, fixedNow)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterCatalog_DoesNotMutateCatalog(t *testing.T) {
	catalog := []models.Recipe{
		{Title: "b", IsPublic: true, CreatedAt: ts(fixedNow.Add(-2 * time.Hour))},
		{Title: "a", IsPublic: true, CreatedAt: ts(fixedNow.Add(-time.Hour))},
	}

	FilterCatalog(catalog, Criteria{}, fixedNow)

	assert.Equal(t, []string{"b", "a"}, titles(catalog))
}

func TestFilterCatalog_ANDComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	catalog := randomCatalog(rng, 80)

	for round := 0; round < 100; round++ {
		c := randomCriteria(rng)
		got := make(map[int64]bool)
		for _, r := range FilterCatalog(catalog, c, fixedNow) {
			got[r.ID] = true
		}

		singles := []Criteria{
			{Search: c.Search},
			{Cuisine: c.Cuisine},
			{Difficulty: c.Difficulty},
			{Ratings: c.Ratings},
			{Tags: c.Tags},
			{Recency: c.Recency},
		}
		for _, r := range catalog {
			want := true
			for _, single := range singles {
				want = want && Matches(r, single, fixedNow)
			}
			assert.Equal(t, want, got[r.ID], "recipe %d with %+v", r.ID, c)
		}
	}
}

func TestFilterCatalog_RecencyExcludesMissingTimestamps(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	catalog := randomCatalog(rng, 80)

	for _, window := range []string{RecencyLast24Hours, RecencyLast7Days, RecencyLast30Days, "Someday"} {
		c := randomCriteria(rng)
		c.Recency = window
		for _, r := range FilterCatalog(catalog, c, fixedNow) {
			require.NotNil(t, r.CreatedAt, "recipe %d listed without a timestamp", r.ID)
		}
	}
}

func TestEngine_WithClock(t *testing.T) {
	catalog := []models.Recipe{{Title: "fresh", IsPublic: true, CreatedAt: ts(fixedNow.Add(-time.Hour))}}
	c := Criteria{Recency: RecencyLast24Hours}

	now := fixedNow
	e := NewEngine(WithClock(func() time.Time { return now }))
	assert.Len(t, e.Filter(catalog, c), 1)

	now = fixedNow.Add(48 * time.Hour)
	assert.Empty(t, e.Filter(catalog, c))
	assert.Equal(t, now, e.Now())
}

var (
	pickTags       = []string{"Vegan", "Spicy", "Dinner", "Italian", "Easy", "Quick Meals"}
	pickCuisines   = []string{"Italian", "Thai", "Mexican", "Not set"}
	pickDifficulty = []string{"Easy", "Medium", "Hard"}
)

func randomCatalog(rng *rand.Rand, n int) []models.Recipe {
	catalog := make([]models.Recipe, 0, n)
	for i := 0; i < n; i++ {
		r := models.Recipe{
			ID:            int64(i + 1),
			Title:         []string{"Pasta", "Curry", "Tacos", "Soup"}[rng.Intn(4)],
			Notes:         []string{"", "with basil", "spicy broth"}[rng.Intn(3)],
			Cuisine:       pickCuisines[rng.Intn(len(pickCuisines))],
			Difficulty:    pickDifficulty[rng.Intn(len(pickDifficulty))],
			AverageRating: float64(rng.Intn(11)) / 2,
			IsPublic:      rng.Intn(4) != 0,
		}
		for _, tag := range pickTags {
			if rng.Intn(3) == 0 {
				r.Tags = append(r.Tags, tag)
			}
		}
		switch rng.Intn(4) {
		case 0:
		case 1:
			r.CreatedAt = str("bad")
		default:
			r.CreatedAt = ts(fixedNow.Add(-time.Duration(rng.Intn(40*24)) * time.Hour))
		}
		catalog = append(catalog, r)
	}
	return catalog
}

func randomCriteria(rng *rand.Rand) Criteria {
	pick := func(values []string) string {
		if rng.Intn(2) == 0 {
			return ""
		}
		return values[rng.Intn(len(values))]
	}
	return Criteria{
		Search:     pick([]string{"pasta", "basil", "vegan", "so"}),
		Cuisine:    pick(pickCuisines),
		Difficulty: pick(pickDifficulty),
		Ratings:    pick([]string{"1", "2", "3", "4", "5"}),
		Tags:       pick(pickTags),
		Recency:    pick([]string{RecencyLast24Hours, RecencyLast7Days, RecencyLast30Days}),
	}
}
