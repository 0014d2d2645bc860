package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/kafkaguard/internal/core/config"
	redisclient "github.com/vietddude/kafkaguard/internal/infra/redis"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
	"github.com/vietddude/kafkaguard/internal/infra/storage/memory"
	"github.com/vietddude/kafkaguard/internal/infra/storage/postgres"
)

// JournalBackend is the failure journal plus the connection backing it.
type JournalBackend struct {
	Journal storage.FailureJournal

	redisClient *redisclient.Client
	db          *postgres.DB
}

// OpenJournal creates the failure journal selected by cfg. The postgres
// backend applies schema migrations before returning.
func OpenJournal(ctx context.Context, cfg *config.AppConfig) (*JournalBackend, error) {
	switch cfg.Journal.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("Using PostgreSQL failure journal")
		return &JournalBackend{Journal: postgres.NewJournal(db), db: db}, nil
	case config.BackendRedis:
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		slog.Info("Using Redis failure journal")
		return &JournalBackend{
			Journal:     redisclient.NewJournal(rc, cfg.Journal.Prefix, cfg.Journal.TTL),
			redisClient: rc,
		}, nil
	case config.BackendMemory, "":
		slog.Info("Using Memory failure journal")
		return &JournalBackend{Journal: memory.NewJournal()}, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}
}

// StartMetricsCollector reports connection pool usage for database backends.
func (b *JournalBackend) StartMetricsCollector(ctx context.Context) {
	if b.db != nil {
		b.db.StartMetricsCollector(ctx)
	}
}

// Close closes the backing connection, if any.
func (b *JournalBackend) Close() error {
	var errs []error
	if b.redisClient != nil {
		errs = append(errs, b.redisClient.Close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	return errors.Join(errs...)
}
