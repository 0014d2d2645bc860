// Package health provides broker health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the system or a broker.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// BrokerHealth contains health data for a single broker.
type BrokerHealth struct {
	Broker              string       `json:"broker"`
	Status              SystemStatus `json:"status"`
	LastProbe           time.Time    `json:"last_probe,omitzero"`
	LastLatency         string       `json:"last_latency,omitempty"`
	LastError           string       `json:"last_error,omitempty"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	FailedRequests      int          `json:"failed_requests"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus            `json:"system_status"`
	Brokers      map[string]BrokerHealth `json:"brokers"`
}

// Aggregate returns the worst status in report.
func Aggregate(report map[string]BrokerHealth) SystemStatus {
	status := StatusHealthy
	for _, b := range report {
		if b.Status == StatusCritical {
			return StatusCritical
		}
		if b.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
