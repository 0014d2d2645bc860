// Package control wires the prober, the failure journal and the health
// server into a running service.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/kafkaguard/internal/core/config"
	"github.com/vietddude/kafkaguard/internal/health"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
	"github.com/vietddude/kafkaguard/internal/kafka/selector"
	"github.com/vietddude/kafkaguard/internal/probe"
	"github.com/vietddude/kafkaguard/internal/runtime/coop"
	"github.com/vietddude/kafkaguard/internal/runtime/env"
)

// Guard is the main application struct that manages the prober lifecycle.
type Guard struct {
	cfg          *config.AppConfig
	factory      *selector.Factory
	prober       *probe.Prober
	backend      *JournalBackend
	healthMon    *health.Monitor
	healthServer *health.Server
	sched        *coop.Scheduler
	cancel       context.CancelFunc
	done         chan struct{}
	log          *slog.Logger
}

// NewGuard creates a new Guard instance with all dependencies initialized.
func NewGuard(cfg *config.AppConfig) (*Guard, error) {
	backend, err := OpenJournal(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	journal := backend.Journal

	detector := &env.Probe{Disabled: cfg.Runtime.DisableDetection}
	factory := selector.NewFactory(selector.New(detector), cfg.Kafka.Overrides)

	healthMon := health.NewMonitor(cfg.Kafka.Brokers, journal)
	log := slog.Default().With("component", "guard")

	prober := probe.New(factory, probe.Options{
		Brokers: cfg.Kafka.Brokers,
		Client:  cfg.Kafka.ClientConfig(""),
		Policy:  cfg.Retry.Policy(),
		Journal: journal,
		Monitor: healthMon,
	})

	return &Guard{
		cfg:          cfg,
		factory:      factory,
		prober:       prober,
		backend:      backend,
		healthMon:    healthMon,
		healthServer: health.NewServer(healthMon, cfg.Server.Port),
		log:          log,
	}, nil
}

// Journal returns the failure journal.
func (g *Guard) Journal() storage.FailureJournal {
	return g.backend.Journal
}

// ProbeOnce probes every broker once, as a scheduler task when the
// cooperative runtime is enabled.
func (g *Guard) ProbeOnce(ctx context.Context) []probe.Result {
	if !g.cfg.Runtime.Cooperative {
		return g.prober.ProbeAll(ctx)
	}

	var results []probe.Result
	sched := coop.NewScheduler()
	sched.Go(ctx, func(ctx context.Context) {
		results = g.prober.ProbeAll(ctx)
	})
	sched.Wait()
	return results
}

// Start starts the health server and the periodic prober.
func (g *Guard) Start(ctx context.Context) error {
	// Start Health Server
	go func() {
		if err := g.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("Health server failed", "error", err)
		}
	}()

	ctx, g.cancel = context.WithCancel(ctx)
	g.done = make(chan struct{})

	// Start DB Metrics Collector
	g.backend.StartMetricsCollector(ctx)

	if g.cfg.Runtime.Cooperative {
		g.sched = coop.NewScheduler()
		g.sched.Go(ctx, g.watch)
		go func() {
			g.sched.Wait()
			close(g.done)
		}()
	} else {
		go func() {
			g.watch(ctx)
			close(g.done)
		}()
	}

	g.log.Info("Prober started",
		"brokers", len(g.cfg.Kafka.Brokers),
		"interval", g.cfg.Kafka.ProbeInterval,
		"cooperative", g.cfg.Runtime.Cooperative,
	)
	return nil
}

// Stop stops the guard.
func (g *Guard) Stop(ctx context.Context) error {
	g.log.Info("Stopping Guard...")

	if g.cancel != nil {
		g.cancel()
		select {
		case <-g.done:
		case <-ctx.Done():
			g.log.Warn("Prober did not stop in time", "error", ctx.Err())
		}
	}

	// Close journal connections
	if err := g.backend.Close(); err != nil {
		g.log.Warn("Failed to close journal backend", "error", err)
	}

	// Stop Health Server
	return g.healthServer.Stop(ctx)
}

func (g *Guard) watch(ctx context.Context) {
	interval := g.cfg.Kafka.ProbeInterval
	g.prober.ProbeAll(ctx)

	tm, err := g.factory.NewTimer(ctx)
	if err != nil {
		g.log.Error("Failed to create timer", "error", err)
		return
	}
	defer tm.ClearAll()

	if id := tm.Tick(ctx, interval, func(ctx context.Context) { g.prober.ProbeAll(ctx) }); id != 0 {
		coop.Block(ctx, func() { <-ctx.Done() })
		return
	}

	// No timer outside the cooperative runtime, fall back to a ticker
	g.log.Debug("Timer inactive, using ticker", "timer", fmt.Sprintf("%T", tm))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.prober.ProbeAll(ctx)
		}
	}
}
