package rollover

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terra-clan/cookoff-engine/internal/challenge"
)

type fakeSettler struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSettler) Settle(context.Context) (*challenge.Settlement, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &challenge.Settlement{ID: "s-1"}, nil
}

func TestWorker_SettlesOncePerDay(t *testing.T) {
	settler := &fakeSettler{}
	w := NewWorker(settler, time.Hour)
	now := time.Date(2024, 6, 10, 0, 5, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	ctx := context.Background()
	assert.True(t, w.tick(ctx))
	assert.False(t, w.tick(ctx))
	assert.Equal(t, "2024-06-10", w.LastDay())

	now = now.Add(24 * time.Hour)
	assert.True(t, w.tick(ctx))
	assert.EqualValues(t, 2, settler.calls.Load())
}

func TestWorker_RetriesAfterFailure(t *testing.T) {
	settler := &fakeSettler{err: errors.New("database down")}
	w := NewWorker(settler, time.Hour)

	ctx := context.Background()
	assert.False(t, w.tick(ctx))
	assert.Empty(t, w.LastDay())

	settler.err = nil
	assert.True(t, w.tick(ctx))
	assert.EqualValues(t, 2, settler.calls.Load())
}

func TestWorker_StartStops(t *testing.T) {
	settler := &fakeSettler{}
	w := NewWorker(settler, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	assert.Eventually(t, func() bool { return settler.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestNewWorker_DefaultInterval(t *testing.T) {
	w := NewWorker(&fakeSettler{}, 0)
	assert.Equal(t, 15*time.Minute, w.interval)
}
