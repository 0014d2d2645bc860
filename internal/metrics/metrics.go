package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestAttemptsTotal tracks every send attempt made by the retry loop
	RequestAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafkaguard_request_attempts_total",
			Help: "Total number of request send attempts",
		},
		[]string{"api_key"},
	)

	// RequestErrorsTotal tracks classified broker errors per error code
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafkaguard_request_errors_total",
			Help: "Total number of responses carrying a non-success error code",
		},
		[]string{"api_key", "error_code"},
	)

	// RequestOutcomesTotal tracks how each retry invocation ended
	RequestOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafkaguard_request_outcomes_total",
			Help: "Total number of retry invocations by outcome",
		},
		[]string{"api_key", "outcome"},
	)

	// ProbeLatency tracks end-to-end probe latency including retries
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafkaguard_probe_latency_seconds",
			Help:    "Broker probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"broker"},
	)

	// BrokerUp is 1 when the last probe of a broker succeeded
	BrokerUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kafkaguard_broker_up",
			Help: "Whether the last probe of the broker succeeded",
		},
		[]string{"broker"},
	)

	// JournalWriteErrorsTotal tracks failures to record terminal errors
	JournalWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kafkaguard_journal_write_errors_total",
			Help: "Total number of failed journal writes",
		},
	)

	// DBConnectionPoolUsage tracks the percentage of open journal database connections
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kafkaguard_db_connection_pool_usage_percent",
			Help: "Percentage of the journal database connection pool in use",
		},
	)
)
