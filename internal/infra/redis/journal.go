package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/kafkaguard/internal/core/domain"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
)

// DefaultJournalTTL is how long failed request records are kept.
const DefaultJournalTTL = 7 * 24 * time.Hour

// Journal implements storage.FailureJournal using Redis.
//
// Records are JSON values with a TTL. Two sorted sets scored by failure time
// index them: one across all brokers and one per broker. A hash maps ids to
// brokers so expired ids can be dropped from both indexes.
type Journal struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewJournal creates a Redis-backed failure journal.
func NewJournal(client *Client, prefix string, ttl time.Duration) *Journal {
	if prefix == "" {
		prefix = "kafkaguard"
	}
	if ttl <= 0 {
		ttl = DefaultJournalTTL
	}
	return &Journal{rdb: client.rdb, prefix: prefix, ttl: ttl}
}

// Key helpers
func (j *Journal) indexKey(broker string) string {
	if broker == "" {
		return fmt.Sprintf("%s:failed_requests", j.prefix)
	}
	return fmt.Sprintf("%s:failed_requests:%s", j.prefix, broker)
}

func (j *Journal) brokersKey() string {
	return fmt.Sprintf("%s:failed_request_brokers", j.prefix)
}

func (j *Journal) recordKey(id string) string {
	return fmt.Sprintf("%s:failed_request:%s", j.prefix, id)
}

// Add stores the record and indexes it.
func (j *Journal) Add(ctx context.Context, fr *domain.FailedRequest) error {
	data, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("failed to marshal failed request: %w", err)
	}

	score := float64(fr.FailedAt.UnixMilli())
	_, err = j.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, j.recordKey(fr.ID), data, j.ttl)
		pipe.ZAdd(ctx, j.indexKey(""), redis.Z{Score: score, Member: fr.ID})
		pipe.ZAdd(ctx, j.indexKey(fr.Broker), redis.Z{Score: score, Member: fr.ID})
		pipe.HSet(ctx, j.brokersKey(), fr.ID, fr.Broker)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store failed request: %w", err)
	}
	return nil
}

// Get retrieves a record by id.
func (j *Journal) Get(ctx context.Context, id string) (*domain.FailedRequest, error) {
	data, err := j.rdb.Get(ctx, j.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed request: %w", err)
	}

	var fr domain.FailedRequest
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed request: %w", err)
	}
	return &fr, nil
}

// List returns records newest first. Index entries whose record expired are
// pruned on the way.
func (j *Journal) List(ctx context.Context, broker string, limit int) ([]*domain.FailedRequest, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := j.rdb.ZRevRange(ctx, j.indexKey(broker), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	out := make([]*domain.FailedRequest, 0, len(ids))
	for _, id := range ids {
		fr, err := j.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			// Data expired but ID still indexed, remove it
			if err := j.prune(ctx, id); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, nil
}

// Remove deletes a record and its index entries.
func (j *Journal) Remove(ctx context.Context, id string) error {
	fr, err := j.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := j.unindex(ctx, id, fr.Broker); err != nil {
		return fmt.Errorf("failed to remove failed request: %w", err)
	}
	return nil
}

// prune drops an expired id from every index.
func (j *Journal) prune(ctx context.Context, id string) error {
	broker, err := j.rdb.HGet(ctx, j.brokersKey(), id).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to look up broker of %s: %w", id, err)
	}
	if err := j.unindex(ctx, id, broker); err != nil {
		return fmt.Errorf("failed to prune expired failed request: %w", err)
	}
	return nil
}

func (j *Journal) unindex(ctx context.Context, id, broker string) error {
	_, err := j.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, j.recordKey(id))
		pipe.ZRem(ctx, j.indexKey(""), id)
		if broker != "" {
			pipe.ZRem(ctx, j.indexKey(broker), id)
		}
		pipe.HDel(ctx, j.brokersKey(), id)
		return nil
	})
	return err
}
