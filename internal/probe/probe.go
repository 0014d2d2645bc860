// Package probe checks brokers by sending ApiVersions through the retry path.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/kafkaguard/internal/core/domain"
	"github.com/vietddude/kafkaguard/internal/health"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
	"github.com/vietddude/kafkaguard/internal/kafka/client"
	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
	"github.com/vietddude/kafkaguard/internal/kafka/retry"
	"github.com/vietddude/kafkaguard/internal/kafka/selector"
	"github.com/vietddude/kafkaguard/internal/metrics"
	"github.com/vietddude/kafkaguard/internal/runtime/coop"
	"github.com/vietddude/kafkaguard/internal/runtime/env"
)

// Options configures a Prober.
type Options struct {
	Brokers []string

	// Client is the template for every broker's client; Broker is filled in.
	Client client.Config

	Policy retry.Policy

	// Journal receives terminal failures. Optional.
	Journal storage.FailureJournal

	// Monitor receives every probe outcome. Optional.
	Monitor *health.Monitor

	Logger *slog.Logger
}

// Result is the outcome of probing one broker.
type Result struct {
	Broker   string
	Latency  time.Duration
	Attempts int
	Versions *protocol.ApiVersionsResponse
	Err      error
}

// Prober probes brokers.
type Prober struct {
	factory *selector.Factory
	opts    Options
	log     *slog.Logger
}

// New creates a prober building its clients through factory.
func New(factory *selector.Factory, opts Options) *Prober {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Client.ClientID == "" {
		opts.Client.ClientID = client.DefaultClientID()
	}
	return &Prober{
		factory: factory,
		opts:    opts,
		log:     log.With("component", "prober"),
	}
}

// ProbeAll probes every configured broker. When the selector reports the
// cooperative regime each broker is probed by its own scheduler task.
func (p *Prober) ProbeAll(ctx context.Context) []Result {
	results := make([]Result, len(p.opts.Brokers))

	sched, ok := coop.FromContext(ctx)
	if !ok || p.factory.Selector().Mode(ctx) != env.Cooperative {
		for i, broker := range p.opts.Brokers {
			results[i] = p.Probe(ctx, broker)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, broker := range p.opts.Brokers {
		wg.Add(1)
		sched.Go(ctx, func(ctx context.Context) {
			defer wg.Done()
			results[i] = p.Probe(ctx, broker)
		})
	}
	coop.Block(ctx, wg.Wait)

	return results
}

// Probe sends ApiVersions to broker with the configured retry policy.
func (p *Prober) Probe(ctx context.Context, broker string) Result {
	res := Result{Broker: broker}
	start := time.Now()

	res.Versions, res.Attempts, res.Err = p.probe(ctx, broker)
	res.Latency = time.Since(start)

	metrics.ProbeLatency.WithLabelValues(broker).Observe(res.Latency.Seconds())
	if res.Err != nil {
		metrics.BrokerUp.WithLabelValues(broker).Set(0)
	} else {
		metrics.BrokerUp.WithLabelValues(broker).Set(1)
	}

	if p.opts.Monitor != nil {
		p.opts.Monitor.Record(broker, res.Latency, res.Err)
	}

	if res.Err != nil {
		p.log.Warn("Broker probe failed",
			"broker", broker,
			"attempts", res.Attempts,
			"error", res.Err,
		)
		if !errors.Is(res.Err, context.Canceled) {
			p.journal(ctx, broker, res)
		}
	} else {
		p.log.Debug("Broker probe succeeded",
			"broker", broker,
			"latency", res.Latency,
			"api_keys", len(res.Versions.APIKeys),
		)
	}

	return res
}

func (p *Prober) probe(ctx context.Context, broker string) (*protocol.ApiVersionsResponse, int, error) {
	cfg := p.opts.Client
	cfg.Broker = broker

	c, err := p.factory.NewClient(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	defer c.Close()

	policy := p.opts.Policy
	if policy.Sleeper == nil {
		policy.Sleeper = retry.SleeperFor(p.factory.Selector().Mode(ctx))
	}
	if policy.Logger == nil {
		policy.Logger = p.log.With("broker", broker)
	}

	counted := &countingClient{Client: c}
	resp, err := retry.Retry(ctx, counted, &protocol.ApiVersionsRequest{}, policy)
	attempts := int(counted.calls.Load())
	if err != nil {
		return nil, attempts, err
	}

	versions, ok := resp.(*protocol.ApiVersionsResponse)
	if !ok {
		return nil, attempts, errors.New("unexpected response type")
	}
	return versions, attempts, nil
}

func (p *Prober) journal(ctx context.Context, broker string, res Result) {
	if p.opts.Journal == nil {
		return
	}

	req := &protocol.ApiVersionsRequest{}
	fr := &domain.FailedRequest{
		ID:         uuid.NewString(),
		Broker:     broker,
		ClientID:   p.opts.Client.ClientID,
		APIKey:     req.APIKey(),
		APIVersion: req.APIVersion(),
		Attempts:   res.Attempts,
		Error:      res.Err.Error(),
		FailedAt:   time.Now(),
	}

	if code, ok := protocol.CodeOf(res.Err); ok {
		fr.ErrorCode = int16(code)
		fr.ErrorName = code.String()
		fr.Retriable = protocol.CanRetry(code)
	} else {
		fr.ErrorCode = int16(protocol.UnknownServerError)
		fr.ErrorName = "TRANSPORT_ERROR"
	}

	if err := p.opts.Journal.Add(ctx, fr); err != nil {
		metrics.JournalWriteErrorsTotal.Inc()
		p.log.Error("Failed to journal failed request", "broker", broker, "error", err)
	}
}

// countingClient counts send attempts.
type countingClient struct {
	client.Client
	calls atomic.Int32
}

func (c *countingClient) SendRecv(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	c.calls.Add(1)
	return c.Client.SendRecv(ctx, req)
}
