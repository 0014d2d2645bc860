// Package retry resends Kafka requests that fail with a retriable error code.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
	"github.com/vietddude/kafkaguard/internal/metrics"
)

// DefaultSleep is the pause between attempts used by DefaultPolicy.
const DefaultSleep = 10 * time.Millisecond

// Client is what Retry needs from a Kafka client.
type Client interface {
	SendRecv(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Close() error
}

// Policy defines retry behavior.
type Policy struct {
	// MaxRetries is the number of resends allowed after the first attempt.
	MaxRetries int

	// Sleep is the pause before every resend. Zero resends immediately.
	Sleep time.Duration

	// Callbacks override the terminal failure for specific error codes.
	Callbacks Callbacks

	// By default Callbacks are dropped once the first resend has happened,
	// so they only apply when the very first attempt is terminal.
	// CallbacksOnEveryAttempt keeps them for whichever attempt ends the loop.
	CallbacksOnEveryAttempt bool

	// Sleeper performs the pause. Nil uses BlockingSleep.
	Sleeper Sleeper

	Logger *slog.Logger
}

// DefaultPolicy returns a policy with the default pause.
func DefaultPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries: maxRetries,
		Sleep:      DefaultSleep,
	}
}

// Retry sends req through c and returns a response that is either
// successful, unclassifiable, or accepted by a callback.
//
// Every response carrying a non-success code closes c. Retriable codes are
// resent while the budget lasts. Once the budget is spent, or for codes that
// cannot be retried, a callback registered for the code may accept the
// response; otherwise Retry returns a *protocol.Error with the code.
// Transport errors from c are returned as is, without retrying.
func Retry(ctx context.Context, c Client, req protocol.Request, p Policy) (protocol.Response, error) {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	sleep := p.Sleeper
	if sleep == nil {
		sleep = BlockingSleep
	}

	apiKey := strconv.Itoa(int(req.APIKey()))
	outcome := func(o string) {
		metrics.RequestOutcomesTotal.WithLabelValues(apiKey, o).Inc()
	}

	remaining := max(p.MaxRetries, 0)
	callbacks := p.Callbacks

	for attempt := 1; ; attempt++ {
		metrics.RequestAttemptsTotal.WithLabelValues(apiKey).Inc()

		resp, err := c.SendRecv(ctx, req)
		if err != nil {
			outcome("transport_error")
			return nil, fmt.Errorf("api key %d attempt %d: %w", req.APIKey(), attempt, err)
		}

		coder, ok := resp.(protocol.ErrorCoder)
		if !ok {
			outcome("unclassified")
			return resp, nil
		}

		code := coder.ErrorCode()
		if protocol.Success(code) {
			outcome("success")
			return resp, nil
		}

		metrics.RequestErrorsTotal.WithLabelValues(apiKey, code.String()).Inc()

		if err := c.Close(); err != nil {
			log.Warn("Failed to close client after error response", "error", err)
		}

		if remaining > 0 && protocol.CanRetry(code) {
			log.Debug("Retrying request",
				"api_key", req.APIKey(),
				"error_code", code,
				"attempt", attempt,
				"remaining", remaining,
			)
			if p.Sleep > 0 {
				if err := sleep(ctx, p.Sleep); err != nil {
					outcome("cancelled")
					return nil, err
				}
			}
			remaining--
			if !p.CallbacksOnEveryAttempt {
				callbacks = nil
			}
			continue
		}

		if cb, ok := callbacks[code]; ok {
			switch res := cb(ctx, resp); res.kind {
			case kindConfirmed:
				outcome("confirmed")
				return resp, nil
			case kindResolved:
				if res.resp != nil {
					outcome("resolved")
					return res.resp, nil
				}
			}
		}

		if protocol.CanRetry(code) {
			outcome("exhausted")
		} else {
			outcome("fatal")
		}
		log.Warn("Request failed",
			"api_key", req.APIKey(),
			"error_code", code,
			"attempts", attempt,
		)
		return nil, protocol.Check(code)
	}
}
