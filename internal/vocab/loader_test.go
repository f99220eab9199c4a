package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/cookoff-engine/internal/discovery"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewLoader_Defaults(t *testing.T) {
	l := NewLoader()

	assert.Len(t, l.Get(discovery.CategoryCuisine), 14)
	assert.Equal(t, []string{"Easy", "Medium", "Hard"}, l.Get(discovery.CategoryDifficulty))
	assert.Contains(t, l.Get(discovery.CategoryTags), "Quick Meals")
	assert.Nil(t, l.Get("Seasons"))
	assert.Len(t, l.Categories(), 5)
}

func TestLoadFromDir_MergesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "10-extra.yaml", `
categories:
  Cuisine: [Georgian, italian, " "]
  Tags: [Street Food]
`)
	writeFile(t, dir, "20-difficulty.yml", `
replace: true
categories:
  Difficulty: [Beginner, Chef]
`)
	writeFile(t, dir, "30-broken.yaml", "categories: [not, a, map")
	writeFile(t, dir, "40-unknown.yaml", "categories:\n  Seasons: [Winter]\n")
	writeFile(t, dir, "notes.txt", "ignored")

	l := NewLoader()
	require.NoError(t, l.LoadFromDir(dir))

	cuisines := l.Get(discovery.CategoryCuisine)
	assert.Len(t, cuisines, 15)
	assert.Equal(t, "Georgian", cuisines[len(cuisines)-1])
	assert.Contains(t, l.Get(discovery.CategoryTags), "Street Food")
	assert.Equal(t, []string{"Beginner", "Chef"}, l.Get(discovery.CategoryDifficulty))
	assert.Nil(t, l.Get("Seasons"))
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()

	assert.Error(t, l.LoadFromFile(filepath.Join(dir, "missing.yaml")))
	assert.Error(t, l.LoadFromFile(writeFile(t, dir, "empty.yaml", "replace: true\n")))
	assert.Error(t, l.LoadFromFile(writeFile(t, dir, "bad.yaml", "categories: [")))
}

func TestGet_ReturnsCopy(t *testing.T) {
	l := NewLoader()
	got := l.Get(discovery.CategoryDifficulty)
	got[0] = "Trivial"

	assert.Equal(t, "Easy", l.Get(discovery.CategoryDifficulty)[0])
}

func TestValidate(t *testing.T) {
	l := NewLoader()

	tests := []struct {
		name    string
		c       discovery.Criteria
		wantErr bool
	}{
		{"empty", discovery.Criteria{}, false},
		{"search is free text", discovery.Criteria{Search: "anything at all"}, false},
		{"known values any case", discovery.Criteria{Cuisine: "italian", Difficulty: "HARD", Ratings: "4", Tags: "low carb", Recency: "Last 7 Days"}, false},
		{"unknown cuisine", discovery.Criteria{Cuisine: "Martian"}, true},
		{"rating out of range", discovery.Criteria{Ratings: "6"}, true},
		{"unknown recency", discovery.Criteria{Recency: "Last Year"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Validate(tt.c)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownValue)
				return
			}
			assert.NoError(t, err)
		})
	}
}
