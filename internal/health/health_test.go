package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/kafkaguard/internal/core/domain"
	"github.com/vietddude/kafkaguard/internal/infra/storage/memory"
)

var errProbe = errors.New("probe failed")

func TestMonitor_Status(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		want     SystemStatus
	}{
		{"healthy", 0, StatusHealthy},
		{"degraded", 1, StatusDegraded},
		{"still degraded", CriticalAfter - 1, StatusDegraded},
		{"critical", CriticalAfter, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewMonitor([]string{"b1:9092"}, nil)
			monitor.Record("b1:9092", time.Millisecond, nil)
			for range tt.failures {
				monitor.Record("b1:9092", time.Millisecond, errProbe)
			}

			health := monitor.CheckHealth(context.Background())["b1:9092"]
			if health.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, health.Status)
			}
			if health.ConsecutiveFailures != tt.failures {
				t.Errorf("ConsecutiveFailures = %d, want %d", health.ConsecutiveFailures, tt.failures)
			}
		})
	}
}

func TestMonitor_RecoveryResetsFailures(t *testing.T) {
	monitor := NewMonitor([]string{"b1:9092"}, nil)
	for range CriticalAfter {
		monitor.Record("b1:9092", time.Millisecond, errProbe)
	}
	monitor.Record("b1:9092", time.Millisecond, nil)

	health := monitor.CheckHealth(context.Background())["b1:9092"]
	if health.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", health.Status)
	}
	if health.LastError != "" {
		t.Errorf("LastError = %q, want empty", health.LastError)
	}
}

func TestMonitor_UnprobedIsDegraded(t *testing.T) {
	monitor := NewMonitor([]string{"b1:9092"}, nil)

	health := monitor.CheckHealth(context.Background())["b1:9092"]
	if health.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", health.Status)
	}
}

func TestMonitor_CountsJournal(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal()
	journal.Add(ctx, &domain.FailedRequest{ID: "1", Broker: "b1:9092", FailedAt: time.Now()})
	journal.Add(ctx, &domain.FailedRequest{ID: "2", Broker: "b1:9092", FailedAt: time.Now()})
	journal.Add(ctx, &domain.FailedRequest{ID: "3", Broker: "b2:9092", FailedAt: time.Now()})

	monitor := NewMonitor([]string{"b1:9092"}, journal)
	monitor.Record("b1:9092", time.Millisecond, nil)

	if got := monitor.CheckHealth(ctx)["b1:9092"].FailedRequests; got != 2 {
		t.Errorf("FailedRequests = %d, want 2", got)
	}
}

func TestServer_Health(t *testing.T) {
	monitor := NewMonitor([]string{"b1:9092", "b2:9092"}, nil)
	monitor.Record("b1:9092", time.Millisecond, nil)
	monitor.Record("b2:9092", time.Millisecond, nil)
	srv := NewServer(monitor, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != string(StatusHealthy) {
		t.Errorf("status = %q, want healthy", body["status"])
	}

	for range CriticalAfter {
		monitor.Record("b2:9092", time.Millisecond, errProbe)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestServer_Detailed(t *testing.T) {
	monitor := NewMonitor([]string{"b1:9092"}, nil)
	monitor.Record("b1:9092", time.Millisecond, errProbe)
	srv := NewServer(monitor, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	var report HealthReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.SystemStatus != StatusDegraded {
		t.Errorf("SystemStatus = %s, want degraded", report.SystemStatus)
	}
	if got := report.Brokers["b1:9092"].LastError; got != errProbe.Error() {
		t.Errorf("LastError = %q, want %q", got, errProbe.Error())
	}
}
