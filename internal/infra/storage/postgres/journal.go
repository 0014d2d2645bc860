// Package postgres stores the failure journal in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/kafkaguard/internal/core/domain"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
)

// Journal implements storage.FailureJournal using PostgreSQL.
type Journal struct {
	db *DB
}

// NewJournal creates a new PostgreSQL failure journal.
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

type failedRequestRow struct {
	ID         string    `db:"id"`
	Broker     string    `db:"broker"`
	ClientID   string    `db:"client_id"`
	APIKey     int16     `db:"api_key"`
	APIVersion int16     `db:"api_version"`
	ErrorCode  int16     `db:"error_code"`
	ErrorName  string    `db:"error_name"`
	Retriable  bool      `db:"retriable"`
	Attempts   int       `db:"attempts"`
	ErrorMsg   string    `db:"error_msg"`
	FailedAt   time.Time `db:"failed_at"`
}

func (r failedRequestRow) toDomain() *domain.FailedRequest {
	return &domain.FailedRequest{
		ID:         r.ID,
		Broker:     r.Broker,
		ClientID:   r.ClientID,
		APIKey:     r.APIKey,
		APIVersion: r.APIVersion,
		ErrorCode:  r.ErrorCode,
		ErrorName:  r.ErrorName,
		Retriable:  r.Retriable,
		Attempts:   r.Attempts,
		Error:      r.ErrorMsg,
		FailedAt:   r.FailedAt,
	}
}

const selectColumns = `id, broker, client_id, api_key, api_version, error_code, error_name, retriable, attempts, error_msg, failed_at`

// Add adds a failed request.
func (j *Journal) Add(ctx context.Context, fr *domain.FailedRequest) error {
	query := `
		INSERT INTO failed_requests (` + selectColumns + `)
		VALUES (:id, :broker, :client_id, :api_key, :api_version, :error_code, :error_name, :retriable, :attempts, :error_msg, :failed_at)
		ON CONFLICT (id) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			error_msg = EXCLUDED.error_msg,
			failed_at = EXCLUDED.failed_at
	`
	row := failedRequestRow{
		ID:         fr.ID,
		Broker:     fr.Broker,
		ClientID:   fr.ClientID,
		APIKey:     fr.APIKey,
		APIVersion: fr.APIVersion,
		ErrorCode:  fr.ErrorCode,
		ErrorName:  fr.ErrorName,
		Retriable:  fr.Retriable,
		Attempts:   fr.Attempts,
		ErrorMsg:   fr.Error,
		FailedAt:   fr.FailedAt,
	}
	if _, err := j.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to add failed request: %w", err)
	}
	return nil
}

// Get returns a failed request by id.
func (j *Journal) Get(ctx context.Context, id string) (*domain.FailedRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM failed_requests WHERE id = $1`

	var row failedRequestRow
	err := j.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed request: %w", err)
	}
	return row.toDomain(), nil
}

// List returns failed requests newest first.
func (j *Journal) List(ctx context.Context, broker string, limit int) ([]*domain.FailedRequest, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM failed_requests
		WHERE ($1 = '' OR broker = $1)
		ORDER BY failed_at DESC
	`
	args := []any{broker}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []failedRequestRow
	if err := j.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list failed requests: %w", err)
	}

	out := make([]*domain.FailedRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Remove deletes a failed request.
func (j *Journal) Remove(ctx context.Context, id string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM failed_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove failed request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove failed request: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
