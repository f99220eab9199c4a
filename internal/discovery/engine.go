package discovery

import (
	"time"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

// Engine runs FilterCatalog against a clock
type Engine struct {
	now func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used for recency windows
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine using time.Now unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Filter applies the criteria to the catalog as of the engine's current time
func (e *Engine) Filter(catalog []models.Recipe, c Criteria) []models.Recipe {
	return FilterCatalog(catalog, c, e.now())
}

// Now returns the engine's current time
func (e *Engine) Now() time.Time {
	return e.now()
}
