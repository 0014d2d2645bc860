package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/kafkaguard/internal/infra/storage"
)

const (
	// DegradedAfter is the number of consecutive failed probes that degrade a broker.
	DegradedAfter = 1
	// CriticalAfter is the number of consecutive failed probes that make a broker critical.
	CriticalAfter = 3

	journalScanLimit = 100
)

type probeState struct {
	at       time.Time
	latency  time.Duration
	err      error
	failures int
}

// Monitor aggregates probe results per broker.
type Monitor struct {
	brokers []string
	journal storage.FailureJournal
	state   map[string]*probeState
	mu      sync.RWMutex
}

// NewMonitor creates a new health monitor. journal may be nil.
func NewMonitor(brokers []string, journal storage.FailureJournal) *Monitor {
	return &Monitor{
		brokers: brokers,
		journal: journal,
		state:   make(map[string]*probeState),
	}
}

// Record stores the outcome of a probe.
func (m *Monitor) Record(broker string, latency time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.state[broker]
	if !ok {
		st = &probeState{}
		m.state[broker] = st
	}

	st.at = time.Now()
	st.latency = latency
	st.err = err
	if err != nil {
		st.failures++
	} else {
		st.failures = 0
	}
}

// CheckHealth reports the health of every configured broker.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]BrokerHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := make(map[string]BrokerHealth, len(m.brokers))

	for _, broker := range m.brokers {
		health := BrokerHealth{
			Broker: broker,
			Status: StatusHealthy,
		}

		st, ok := m.state[broker]
		if !ok {
			// Not probed yet
			health.Status = StatusDegraded
		} else {
			health.LastProbe = st.at
			health.LastLatency = st.latency.String()
			health.ConsecutiveFailures = st.failures
			if st.err != nil {
				health.LastError = st.err.Error()
			}

			if st.failures >= CriticalAfter {
				health.Status = StatusCritical
			} else if st.failures >= DegradedAfter {
				health.Status = StatusDegraded
			}
		}

		if m.journal != nil {
			failed, err := m.journal.List(ctx, broker, journalScanLimit)
			if err != nil {
				slog.Warn("Failed to read failure journal", "broker", broker, "error", err)
			} else {
				health.FailedRequests = len(failed)
			}
		}

		report[broker] = health
	}

	return report
}
