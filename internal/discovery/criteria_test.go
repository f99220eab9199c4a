package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCriteriaFromMap(t *testing.T) {
	c := CriteriaFromMap(map[string]string{
		CategoryCuisine: "Thai",
		CategoryRatings: "4",
		"Unknown":       "x",
	}, "curry")

	assert.Equal(t, Criteria{Search: "curry", Cuisine: "Thai", Ratings: "4"}, c)
	assert.Equal(t, map[string]string{CategoryCuisine: "Thai", CategoryRatings: "4"}, c.Selected())
	assert.Equal(t, []string{"Search", CategoryCuisine, CategoryRatings}, c.Active())
}

func TestCriteria_ActiveEmpty(t *testing.T) {
	assert.Empty(t, Criteria{}.Active())
}

func TestCriteria_ActiveSearchOfSpaces(t *testing.T) {
	assert.Equal(t, []string{"Search"}, Criteria{Search: "  "}.Active())
}

func TestRecencyWindow(t *testing.T) {
	d, ok := RecencyWindow(RecencyLast7Days)
	assert.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, d)

	_, ok = RecencyWindow("Last Year")
	assert.False(t, ok)
}

func TestParseCreatedAt(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2024-05-01T10:00:00+02:00", true, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		{"2024-05-01T08:00:00.250Z", true, time.Date(2024, 5, 1, 8, 0, 0, 250_000_000, time.UTC)},
		{"2024-05-01T08:00Z", true, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		{"2024-05-01T08:00:00", false, time.Time{}},
		{"2024-05-01", false, time.Time{}},
		{"", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCreatedAt(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
