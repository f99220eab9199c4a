package vocab

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/cookoff-engine/internal/discovery"
)

// ErrUnknownValue is returned by Validate for a filter value outside the vocabulary
var ErrUnknownValue = errors.New("unknown filter value")

// Loader holds the selectable values of each discovery filter category
type Loader struct {
	mu         sync.RWMutex
	categories map[string][]string
}

// NewLoader creates a loader seeded with the built-in vocabularies
func NewLoader() *Loader {
	l := &Loader{categories: make(map[string][]string)}
	for name, values := range defaults() {
		l.categories[name] = values
	}
	return l
}

// LoadFromDir merges every YAML file found in dir. Files that fail to
// parse are logged and skipped.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading filter vocabularies", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to scan vocabulary dir: %w", err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load vocabulary", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("filter vocabularies loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile merges a single vocabulary file. Values are appended to the
// existing category unless the file sets replace: true.
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var vf vocabularyFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(vf.Categories) == 0 {
		return fmt.Errorf("no categories defined")
	}
	for name := range vf.Categories {
		if !slices.Contains(discovery.Categories(), name) {
			return fmt.Errorf("unknown category %q", name)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for name, values := range vf.Categories {
		if vf.Replace {
			l.categories[name] = dedupe(nil, values)
			continue
		}
		l.categories[name] = dedupe(l.categories[name], values)
	}

	slog.Info("vocabulary loaded", "file", filepath.Base(path), "categories", len(vf.Categories), "replace", vf.Replace)
	return nil
}

// Get returns the values of a category, or nil for an unknown one
func (l *Loader) Get(category string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.categories[category])
}

// Categories returns every category with its values
func (l *Loader) Categories() map[string][]string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string][]string, len(l.categories))
	for name, values := range l.categories {
		result[name] = slices.Clone(values)
	}
	return result
}

// Validate checks every selected filter against the vocabulary. Matching is
// case-insensitive, like the filters themselves.
func (l *Loader) Validate(c discovery.Criteria) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	selected := c.Selected()
	for _, category := range discovery.Categories() {
		value, ok := selected[category]
		if !ok {
			continue
		}
		if !slices.ContainsFunc(l.categories[category], func(v string) bool {
			return strings.EqualFold(v, value)
		}) {
			return fmt.Errorf("%w: %s %q", ErrUnknownValue, category, value)
		}
	}
	return nil
}

func dedupe(existing, add []string) []string {
	out := slices.Clone(existing)
	for _, v := range add {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !slices.ContainsFunc(out, func(e string) bool { return strings.EqualFold(e, v) }) {
			out = append(out, v)
		}
	}
	return out
}

// vocabularyFile represents the YAML structure of a vocabulary file
type vocabularyFile struct {
	Replace    bool                `yaml:"replace"`
	Categories map[string][]string `yaml:"categories"`
}
