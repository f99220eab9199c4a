package health

import "context"

// Checker is a dependency whose availability is reported by /ready
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a function such as Repository.Ping to Checker
type CheckerFunc func(ctx context.Context) error

// HealthCheck calls f
func (f CheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}
