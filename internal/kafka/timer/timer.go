// Package timer schedules periodic callbacks.
//
// Periodic work needs a scheduler to host it: CoopTimer runs callbacks as
// coop tasks, NoopTimer is the stand-in when no cooperative scheduler is
// active and never fires.
package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vietddude/kafkaguard/internal/runtime/coop"
)

// ErrNoScheduler is returned when a CoopTimer is built outside a coop task.
var ErrNoScheduler = errors.New("no cooperative scheduler in context")

// Timer runs callbacks every interval until cleared.
type Timer interface {
	// Tick schedules fn every interval and returns an id for Clear.
	// A zero id means nothing was scheduled.
	Tick(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) int
	Clear(id int)
	ClearAll()
}

// NoopTimer never schedules anything.
type NoopTimer struct{}

func (NoopTimer) Tick(context.Context, time.Duration, func(context.Context)) int { return 0 }
func (NoopTimer) Clear(int)                                                     {}
func (NoopTimer) ClearAll()                                                     {}

// CoopTimer runs each tick as a task on a coop scheduler.
type CoopTimer struct {
	sched *coop.Scheduler

	mu      sync.Mutex
	nextID  int
	cancels map[int]context.CancelFunc
}

// NewCoopTimer creates a timer on the scheduler hosting ctx's task.
func NewCoopTimer(ctx context.Context) (*CoopTimer, error) {
	sched, ok := coop.FromContext(ctx)
	if !ok {
		return nil, ErrNoScheduler
	}
	return &CoopTimer{
		sched:   sched,
		cancels: make(map[int]context.CancelFunc),
	}, nil
}

// Tick starts a task that sleeps for interval and then calls fn, until the
// timer is cleared or ctx is done.
func (t *CoopTimer) Tick(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) int {
	if interval <= 0 {
		return 0
	}

	tickCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.cancels[id] = cancel
	t.mu.Unlock()

	t.sched.Go(tickCtx, func(ctx context.Context) {
		for {
			if err := coop.Sleep(ctx, interval); err != nil {
				return
			}
			fn(ctx)
		}
	})

	return id
}

// Clear stops the ticker with the given id.
func (t *CoopTimer) Clear(id int) {
	t.mu.Lock()
	cancel, ok := t.cancels[id]
	delete(t.cancels, id)
	t.mu.Unlock()

	if ok {
		cancel()
	}
}

// ClearAll stops every ticker.
func (t *CoopTimer) ClearAll() {
	t.mu.Lock()
	cancels := t.cancels
	t.cancels = make(map[int]context.CancelFunc)
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
