package discovery

import (
	"time"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// createdAtLayouts are the ISO-8601 offset forms accepted for CreatedAt.
// Seconds are optional, the offset is not.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// ParseCreatedAt parses an ISO-8601 timestamp with a zone offset, e.g.
// "2024-05-01T10:00:00+02:00" or "2024-05-01T08:00:00.123Z".
func ParseCreatedAt(s string) (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var epoch = time.Unix(0, 0).UTC()

// sortTime is the instant used to order a recipe. Missing or unparseable
// timestamps count as the Unix epoch.
func sortTime(r *models.Recipe) time.Time {
	if r.CreatedAt == nil {
		return epoch
	}
	if t, ok := ParseCreatedAt(*r.CreatedAt); ok {
		return t
	}
	return epoch
}
