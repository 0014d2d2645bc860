package retry

import (
	"context"
	"time"

	"github.com/vietddude/kafkaguard/internal/runtime/coop"
	"github.com/vietddude/kafkaguard/internal/runtime/env"
)

// Sleeper pauses between attempts. It returns early with ctx.Err() when ctx
// is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// BlockingSleep blocks the calling goroutine.
func BlockingSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SleeperFor returns the sleeper matching a scheduling regime. Cooperative
// sleeps yield to other tasks.
func SleeperFor(mode env.Mode) Sleeper {
	if mode == env.Cooperative {
		return coop.Sleep
	}
	return BlockingSleep
}
