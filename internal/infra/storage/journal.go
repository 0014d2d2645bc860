package storage

import (
	"context"
	"errors"

	"github.com/vietddude/kafkaguard/internal/core/domain"
)

var (
	// ErrNotFound is returned when a journal record doesn't exist
	ErrNotFound = errors.New("failed request not found")
)

// FailureJournal keeps requests that ended in a terminal error
type FailureJournal interface {
	// Add records a failed request
	Add(ctx context.Context, fr *domain.FailedRequest) error

	// Get retrieves a record by id
	Get(ctx context.Context, id string) (*domain.FailedRequest, error)

	// List returns up to limit records for a broker, newest first.
	// An empty broker lists every broker; limit <= 0 means no limit.
	List(ctx context.Context, broker string, limit int) ([]*domain.FailedRequest, error)

	// Remove deletes a record
	Remove(ctx context.Context, id string) error
}
