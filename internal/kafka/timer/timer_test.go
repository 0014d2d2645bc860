package timer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/kafkaguard/internal/runtime/coop"
)

func TestNoopTimer(t *testing.T) {
	var timer Timer = NoopTimer{}

	var calls atomic.Int32
	id := timer.Tick(context.Background(), time.Millisecond, func(context.Context) { calls.Add(1) })
	if id != 0 {
		t.Errorf("Tick() = %d, want 0", id)
	}

	time.Sleep(10 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("NoopTimer must never fire")
	}
	timer.Clear(id)
	timer.ClearAll()
}

func TestNewCoopTimer_OutsideTask(t *testing.T) {
	if _, err := NewCoopTimer(context.Background()); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("NewCoopTimer() error = %v, want ErrNoScheduler", err)
	}
}

func TestCoopTimer_TickAndClear(t *testing.T) {
	sched := coop.NewScheduler()

	var calls atomic.Int32
	sched.Go(context.Background(), func(ctx context.Context) {
		timer, err := NewCoopTimer(ctx)
		if err != nil {
			t.Errorf("NewCoopTimer() error = %v", err)
			return
		}

		id := timer.Tick(ctx, 5*time.Millisecond, func(context.Context) { calls.Add(1) })
		if id == 0 {
			t.Error("Tick() returned 0")
		}

		_ = coop.Sleep(ctx, 60*time.Millisecond)
		timer.Clear(id)
	})
	sched.Wait()

	if calls.Load() < 2 {
		t.Errorf("expected at least 2 ticks, got %d", calls.Load())
	}
}

func TestCoopTimer_ClearAll(t *testing.T) {
	sched := coop.NewScheduler()

	sched.Go(context.Background(), func(ctx context.Context) {
		timer, err := NewCoopTimer(ctx)
		if err != nil {
			t.Errorf("NewCoopTimer() error = %v", err)
			return
		}
		timer.Tick(ctx, time.Millisecond, func(context.Context) {})
		timer.Tick(ctx, time.Millisecond, func(context.Context) {})
		timer.ClearAll()
	})

	done := make(chan struct{})
	go func() {
		sched.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick tasks did not stop after ClearAll")
	}
}
