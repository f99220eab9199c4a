package rollover

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/challenge"
)

// Settler runs one daily settlement
type Settler interface {
	Settle(ctx context.Context) (*challenge.Settlement, error)
}

// Worker settles challenges once per calendar day (UTC). It wakes up every
// interval and settles when the day has changed since its last success.
type Worker struct {
	settler  Settler
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastDay string
}

// NewWorker creates a rollover worker
func NewWorker(settler Settler, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &Worker{
		settler:  settler,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the rollover worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	slog.Info("rollover worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// settle immediately so a restart after midnight catches up
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("rollover worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick settles if today has not been settled yet and reports whether a
// settlement ran
func (w *Worker) tick(ctx context.Context) bool {
	today := w.now().UTC().Format(time.DateOnly)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lastDay == today {
		slog.Debug("rollover already done today", "day", today)
		return false
	}

	st, err := w.settler.Settle(ctx)
	if err != nil {
		slog.Error("rollover failed", "day", today, "error", err)
		return false
	}

	w.lastDay = today
	slog.Info("rollover completed",
		"day", today,
		"settlement_id", st.ID,
		"winners", len(st.Winners),
		"closed_challenges", len(st.ClosedChallenges),
	)
	return true
}

// LastDay returns the last day settled by this worker, empty before the first run
func (w *Worker) LastDay() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastDay
}
