package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/kafkaguard/internal/core/domain"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
)

var _ storage.FailureJournal = (*Journal)(nil)

// setupTestDB connects to KAFKAGUARD_TEST_DATABASE_URL and applies migrations.
func setupTestDB(t *testing.T, driver string) *DB {
	t.Helper()

	url := os.Getenv("KAFKAGUARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping postgres test. Set KAFKAGUARD_TEST_DATABASE_URL to run.")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: url, Driver: driver})
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestNewDB_UnsupportedDriver(t *testing.T) {
	if _, err := NewDB(context.Background(), Config{URL: "postgres://x", Driver: "mysql"}); err == nil {
		t.Error("expected an error for an unsupported driver")
	}
}

func TestJournal_RoundTrip(t *testing.T) {
	for _, driver := range []string{DriverPgx, DriverPq} {
		t.Run(driver, func(t *testing.T) {
			j := NewJournal(setupTestDB(t, driver))
			ctx := context.Background()

			broker := "pg-" + uuid.NewString()[:8] + ":9092"
			now := time.Now().UTC().Truncate(time.Millisecond)
			older := &domain.FailedRequest{
				ID: uuid.NewString(), Broker: broker, APIKey: 18, ErrorCode: 7,
				ErrorName: "REQUEST_TIMED_OUT", Retriable: true, Attempts: 4,
				FailedAt: now.Add(-time.Minute),
			}
			newer := &domain.FailedRequest{
				ID: uuid.NewString(), Broker: broker, APIKey: 18, ErrorCode: 31,
				ErrorName: "CLUSTER_AUTHORIZATION_FAILED", Attempts: 1,
				FailedAt: now,
			}
			for _, fr := range []*domain.FailedRequest{older, newer} {
				if err := j.Add(ctx, fr); err != nil {
					t.Fatalf("Add() error = %v", err)
				}
			}

			got, err := j.Get(ctx, older.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.ErrorCode != 7 || !got.Retriable || got.Attempts != 4 || !got.FailedAt.Equal(older.FailedAt) {
				t.Errorf("Get() = %+v", got)
			}

			list, err := j.List(ctx, broker, 0)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
				t.Errorf("List() not newest first: %+v", list)
			}

			list, _ = j.List(ctx, broker, 1)
			if len(list) != 1 || list[0].ID != newer.ID {
				t.Errorf("List(limit 1) = %+v", list)
			}

			if err := j.Remove(ctx, older.ID); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if _, err := j.Get(ctx, older.ID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("Get() after Remove error = %v, want ErrNotFound", err)
			}
			if err := j.Remove(ctx, older.ID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("second Remove() error = %v, want ErrNotFound", err)
			}
			_ = j.Remove(ctx, newer.ID)
		})
	}
}
