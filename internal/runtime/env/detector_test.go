package env

import (
	"context"
	"testing"

	"github.com/vietddude/kafkaguard/internal/runtime/coop"
)

func TestProbe_OutsideScheduler(t *testing.T) {
	p := NewProbe()
	if got := p.Detect(context.Background()); got != Blocking {
		t.Errorf("Detect() = %v, want %v", got, Blocking)
	}
}

func TestProbe_InsideTask(t *testing.T) {
	p := NewProbe()
	s := coop.NewScheduler()

	var got Mode
	s.Go(context.Background(), func(ctx context.Context) {
		got = p.Detect(ctx)
	})
	s.Wait()

	if got != Cooperative {
		t.Errorf("Detect() = %v, want %v", got, Cooperative)
	}
}

func TestProbe_Disabled(t *testing.T) {
	p := &Probe{Disabled: true}
	s := coop.NewScheduler()

	var got Mode
	s.Go(context.Background(), func(ctx context.Context) {
		got = p.Detect(ctx)
	})
	s.Wait()

	if got != Blocking {
		t.Errorf("Detect() = %v, want %v", got, Blocking)
	}
}

func TestFixed(t *testing.T) {
	tests := []struct {
		mode Mode
		coop bool
	}{
		{Blocking, false},
		{Cooperative, true},
	}

	for _, tt := range tests {
		if got := IsCooperative(context.Background(), Fixed(tt.mode)); got != tt.coop {
			t.Errorf("IsCooperative(Fixed(%v)) = %v, want %v", tt.mode, got, tt.coop)
		}
	}
}
