package selector

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/kafkaguard/internal/kafka/client"
	"github.com/vietddude/kafkaguard/internal/kafka/socket"
	"github.com/vietddude/kafkaguard/internal/kafka/timer"
)

// ErrUnknownImplementation is returned for identifiers no family knows.
var ErrUnknownImplementation = errors.New("unknown implementation")

// Overrides pins implementations regardless of the detected regime.
// Empty fields are resolved from the environment.
type Overrides struct {
	Client Identifier `yaml:"client"`
	Socket Identifier `yaml:"socket"`
	Timer  Identifier `yaml:"timer"`
}

// Factory builds the implementations a Selector resolves.
type Factory struct {
	selector  *Selector
	overrides Overrides
}

// NewFactory creates a factory.
func NewFactory(s *Selector, overrides Overrides) *Factory {
	return &Factory{selector: s, overrides: overrides}
}

// Selector returns the selector backing the factory.
func (f *Factory) Selector() *Selector {
	return f.selector
}

func socketFactory(id Identifier) (client.SocketFactory, error) {
	switch id {
	case SocketCoop:
		return func(cfg socket.Config) socket.Socket { return socket.NewCoopSocket(cfg) }, nil
	case SocketStream:
		return func(cfg socket.Config) socket.Socket { return socket.NewStreamSocket(cfg) }, nil
	default:
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownImplementation, FamilySocket, id)
	}
}

// NewSocket creates the socket resolved for ctx.
func (f *Factory) NewSocket(ctx context.Context, cfg socket.Config) (socket.Socket, error) {
	newSocket, err := socketFactory(f.selector.ResolveSocket(ctx, f.overrides.Socket))
	if err != nil {
		return nil, err
	}
	return newSocket(cfg), nil
}

// NewClient creates the client resolved for ctx, talking through the socket
// resolved for ctx.
func (f *Factory) NewClient(ctx context.Context, cfg client.Config) (client.Client, error) {
	newSocket, err := socketFactory(f.selector.ResolveSocket(ctx, f.overrides.Socket))
	if err != nil {
		return nil, err
	}

	switch id := f.selector.ResolveClient(ctx, f.overrides.Client); id {
	case ClientCoop:
		return client.NewCoopClient(cfg, newSocket), nil
	case ClientSync:
		return client.NewSyncClient(cfg, newSocket), nil
	default:
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownImplementation, FamilyClient, id)
	}
}

// NewTimer creates the timer resolved for ctx.
func (f *Factory) NewTimer(ctx context.Context) (timer.Timer, error) {
	switch id := f.selector.ResolveTimer(ctx, f.overrides.Timer); id {
	case TimerCoop:
		return timer.NewCoopTimer(ctx)
	case TimerNoop:
		return timer.NoopTimer{}, nil
	default:
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownImplementation, FamilyTimer, id)
	}
}
