package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/kafkaguard/internal/kafka/client"
	"github.com/vietddude/kafkaguard/internal/kafka/socket"
	"github.com/vietddude/kafkaguard/internal/kafka/timer"
	"github.com/vietddude/kafkaguard/internal/runtime/coop"
	"github.com/vietddude/kafkaguard/internal/runtime/env"
)

func TestResolve_OverrideWins(t *testing.T) {
	ctx := context.Background()

	for _, mode := range []env.Mode{env.Blocking, env.Cooperative} {
		s := New(env.Fixed(mode))
		for _, family := range []Family{FamilyClient, FamilySocket, FamilyTimer} {
			if got := s.Resolve(ctx, family, "X"); got != "X" {
				t.Errorf("Resolve(%v, %v, X) = %q, want X", mode, family, got)
			}
		}
	}
}

func TestResolve_Defaults(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		mode   env.Mode
		client Identifier
		socket Identifier
		timer  Identifier
	}{
		{env.Cooperative, ClientCoop, SocketCoop, TimerCoop},
		{env.Blocking, ClientSync, SocketStream, TimerNoop},
	}

	for _, tt := range tests {
		s := New(env.Fixed(tt.mode))
		if got := s.ResolveClient(ctx, ""); got != tt.client {
			t.Errorf("%v: ResolveClient() = %q, want %q", tt.mode, got, tt.client)
		}
		if got := s.ResolveSocket(ctx, ""); got != tt.socket {
			t.Errorf("%v: ResolveSocket() = %q, want %q", tt.mode, got, tt.socket)
		}
		if got := s.ResolveTimer(ctx, ""); got != tt.timer {
			t.Errorf("%v: ResolveTimer() = %q, want %q", tt.mode, got, tt.timer)
		}
	}
}

func TestResolve_ProbeInsideTask(t *testing.T) {
	s := New(nil)

	if got := s.ResolveClient(context.Background(), ""); got != ClientSync {
		t.Errorf("outside task: ResolveClient() = %q, want %q", got, ClientSync)
	}

	sched := coop.NewScheduler()
	var got Identifier
	sched.Go(context.Background(), func(ctx context.Context) {
		got = s.ResolveClient(ctx, "")
	})
	sched.Wait()

	if got != ClientCoop {
		t.Errorf("inside task: ResolveClient() = %q, want %q", got, ClientCoop)
	}
}

func TestFactory_Blocking(t *testing.T) {
	f := NewFactory(New(env.Fixed(env.Blocking)), Overrides{})
	ctx := context.Background()

	c, err := f.NewClient(ctx, client.Config{Broker: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, ok := c.(*client.SyncClient); !ok {
		t.Errorf("NewClient() = %T, want *client.SyncClient", c)
	}

	s, err := f.NewSocket(ctx, socket.Config{Addr: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewSocket() error = %v", err)
	}
	if _, ok := s.(*socket.StreamSocket); !ok {
		t.Errorf("NewSocket() = %T, want *socket.StreamSocket", s)
	}

	tm, err := f.NewTimer(ctx)
	if err != nil {
		t.Fatalf("NewTimer() error = %v", err)
	}
	if _, ok := tm.(timer.NoopTimer); !ok {
		t.Errorf("NewTimer() = %T, want timer.NoopTimer", tm)
	}
}

func TestFactory_CooperativeTask(t *testing.T) {
	f := NewFactory(New(nil), Overrides{})
	sched := coop.NewScheduler()

	var (
		c   client.Client
		tm  timer.Timer
		err error
	)
	sched.Go(context.Background(), func(ctx context.Context) {
		if c, err = f.NewClient(ctx, client.Config{Broker: "127.0.0.1:1"}); err != nil {
			return
		}
		tm, err = f.NewTimer(ctx)
	})
	sched.Wait()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*client.CoopClient); !ok {
		t.Errorf("NewClient() = %T, want *client.CoopClient", c)
	}
	if _, ok := tm.(*timer.CoopTimer); !ok {
		t.Errorf("NewTimer() = %T, want *timer.CoopTimer", tm)
	}
}

func TestFactory_UnknownImplementation(t *testing.T) {
	f := NewFactory(New(env.Fixed(env.Blocking)), Overrides{Client: "carrier-pigeon"})

	if _, err := f.NewClient(context.Background(), client.Config{}); !errors.Is(err, ErrUnknownImplementation) {
		t.Errorf("NewClient() error = %v, want ErrUnknownImplementation", err)
	}

	f = NewFactory(New(env.Fixed(env.Blocking)), Overrides{Timer: "sundial"})
	if _, err := f.NewTimer(context.Background()); !errors.Is(err, ErrUnknownImplementation) {
		t.Errorf("NewTimer() error = %v, want ErrUnknownImplementation", err)
	}
}

func TestFactory_CoopTimerOverrideOutsideTask(t *testing.T) {
	f := NewFactory(New(env.Fixed(env.Blocking)), Overrides{Timer: TimerCoop})

	if _, err := f.NewTimer(context.Background()); !errors.Is(err, timer.ErrNoScheduler) {
		t.Errorf("NewTimer() error = %v, want timer.ErrNoScheduler", err)
	}
}
