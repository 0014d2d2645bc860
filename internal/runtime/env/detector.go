// Package env decides which scheduling regime the calling code runs under.
//
// It is the only place that reads ambient runtime state. Everything else
// receives a Mode.
package env

import (
	"context"
	"fmt"

	"github.com/vietddude/kafkaguard/internal/runtime/coop"
)

// Mode is the scheduling regime of the caller.
type Mode int

const (
	Blocking    Mode = iota // Dedicated goroutine, waits block it
	Cooperative             // Inside a coop scheduler task, waits yield
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case Cooperative:
		return "cooperative"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Detector reports the scheduling regime of ctx.
type Detector interface {
	Detect(ctx context.Context) Mode
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context) Mode

func (fn DetectorFunc) Detect(ctx context.Context) Mode {
	return fn(ctx)
}

// Probe detects cooperative tasks started by a coop.Scheduler.
type Probe struct {
	// Disabled turns the cooperative capability off, so every context is
	// reported as Blocking.
	Disabled bool
}

// NewProbe returns a probe with the cooperative capability enabled.
func NewProbe() *Probe {
	return &Probe{}
}

// Detect returns Cooperative only when the capability is on, a scheduler is
// attached to ctx and ctx belongs to an active task.
func (p *Probe) Detect(ctx context.Context) Mode {
	if p == nil || p.Disabled {
		return Blocking
	}
	if _, ok := coop.FromContext(ctx); !ok {
		return Blocking
	}
	if coop.TaskID(ctx) == coop.NoTask {
		return Blocking
	}
	return Cooperative
}

// Fixed returns a detector that always reports mode.
func Fixed(mode Mode) Detector {
	return DetectorFunc(func(context.Context) Mode { return mode })
}

// IsCooperative reports whether d classifies ctx as cooperative.
func IsCooperative(ctx context.Context, d Detector) bool {
	return d.Detect(ctx) == Cooperative
}
