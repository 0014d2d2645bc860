// Package selector picks client, socket and timer implementations.
//
// An explicit override always wins. Without one, the scheduling regime
// reported by the env.Detector is looked up in a per-family table.
package selector

import (
	"context"
	"fmt"

	"github.com/vietddude/kafkaguard/internal/runtime/env"
)

// Identifier names an implementation within a family.
type Identifier string

const (
	ClientCoop Identifier = "coop"
	ClientSync Identifier = "sync"

	SocketCoop   Identifier = "coop"
	SocketStream Identifier = "stream"

	TimerCoop Identifier = "coop"
	TimerNoop Identifier = "noop"
)

// Family is a group of interchangeable implementations.
type Family int

const (
	FamilyClient Family = iota
	FamilySocket
	FamilyTimer
)

func (f Family) String() string {
	switch f {
	case FamilyClient:
		return "client"
	case FamilySocket:
		return "socket"
	case FamilyTimer:
		return "timer"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Without a cooperative scheduler there is nothing to run timer callbacks,
// so the blocking timer is the no-op one.
var defaults = map[Family]map[env.Mode]Identifier{
	FamilyClient: {env.Cooperative: ClientCoop, env.Blocking: ClientSync},
	FamilySocket: {env.Cooperative: SocketCoop, env.Blocking: SocketStream},
	FamilyTimer:  {env.Cooperative: TimerCoop, env.Blocking: TimerNoop},
}

// Selector resolves implementation identifiers.
type Selector struct {
	detector env.Detector
}

// New creates a selector. A nil detector uses env.NewProbe().
func New(detector env.Detector) *Selector {
	if detector == nil {
		detector = env.NewProbe()
	}
	return &Selector{detector: detector}
}

// Mode reports the scheduling regime of ctx.
func (s *Selector) Mode(ctx context.Context) env.Mode {
	return s.detector.Detect(ctx)
}

// Resolve returns override when set, otherwise the family default for ctx.
func (s *Selector) Resolve(ctx context.Context, family Family, override Identifier) Identifier {
	if override != "" {
		return override
	}
	return defaults[family][s.Mode(ctx)]
}

// ResolveClient picks the client transport.
func (s *Selector) ResolveClient(ctx context.Context, override Identifier) Identifier {
	return s.Resolve(ctx, FamilyClient, override)
}

// ResolveSocket picks the socket.
func (s *Selector) ResolveSocket(ctx context.Context, override Identifier) Identifier {
	return s.Resolve(ctx, FamilySocket, override)
}

// ResolveTimer picks the timer.
func (s *Selector) ResolveTimer(ctx context.Context, override Identifier) Identifier {
	return s.Resolve(ctx, FamilyTimer, override)
}
