package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/vietddude/kafkaguard/internal/core/domain"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
)

var _ storage.FailureJournal = (*Journal)(nil)

func newTestJournal(t *testing.T, ttl time.Duration) (*Journal, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewClient(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewJournal(client, "test", ttl), mr
}

func TestJournal_Keys(t *testing.T) {
	j := NewJournal(&Client{}, "", 0)

	if j.ttl != DefaultJournalTTL {
		t.Errorf("ttl = %v, want %v", j.ttl, DefaultJournalTTL)
	}

	tests := []struct {
		got  string
		want string
	}{
		{j.indexKey(""), "kafkaguard:failed_requests"},
		{j.indexKey("b1:9092"), "kafkaguard:failed_requests:b1:9092"},
		{j.recordKey("abc"), "kafkaguard:failed_request:abc"},
		{j.brokersKey(), "kafkaguard:failed_request_brokers"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestJournal_AddGet(t *testing.T) {
	j, mr := newTestJournal(t, time.Hour)
	ctx := context.Background()

	fr := &domain.FailedRequest{
		ID:        "a",
		Broker:    "b1:9092",
		APIKey:    18,
		ErrorCode: 7,
		ErrorName: "REQUEST_TIMED_OUT",
		Retriable: true,
		Attempts:  4,
		FailedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := j.Add(ctx, fr); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := j.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Broker != fr.Broker || got.ErrorCode != 7 || !got.Retriable || got.Attempts != 4 {
		t.Errorf("Get() = %+v", got)
	}
	if !got.FailedAt.Equal(fr.FailedAt) {
		t.Errorf("FailedAt = %v, want %v", got.FailedAt, fr.FailedAt)
	}

	if ttl := mr.TTL(j.recordKey("a")); ttl != time.Hour {
		t.Errorf("record TTL = %v, want 1h", ttl)
	}

	if _, err := j.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestJournal_ListNewestFirst(t *testing.T) {
	j, _ := newTestJournal(t, time.Hour)
	ctx := context.Background()
	now := time.Now()

	records := []*domain.FailedRequest{
		{ID: "a", Broker: "b1", FailedAt: now.Add(-2 * time.Minute)},
		{ID: "b", Broker: "b2", FailedAt: now.Add(-1 * time.Minute)},
		{ID: "c", Broker: "b1", FailedAt: now},
	}
	for _, fr := range records {
		if err := j.Add(ctx, fr); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		broker string
		limit  int
		want   []string
	}{
		{"all brokers", "", 0, []string{"c", "b", "a"}},
		{"one broker", "b1", 0, []string{"c", "a"}},
		{"limit", "", 2, []string{"c", "b"}},
		{"unknown broker", "b9", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.List(ctx, tt.broker, tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("List()[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestJournal_PrunesExpiredFromEveryIndex(t *testing.T) {
	j, mr := newTestJournal(t, time.Minute)
	ctx := context.Background()

	if err := j.Add(ctx, &domain.FailedRequest{ID: "old", Broker: "b1", FailedAt: time.Now()}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if err := j.Add(ctx, &domain.FailedRequest{ID: "new", Broker: "b1", FailedAt: time.Now()}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Listing the all-brokers index must also clean the per-broker one.
	got, err := j.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Errorf("List() = %+v, want only new", got)
	}

	for _, key := range []string{j.indexKey(""), j.indexKey("b1")} {
		members, err := mr.ZMembers(key)
		if err != nil {
			t.Fatalf("ZMembers(%s) error = %v", key, err)
		}
		if len(members) != 1 || members[0] != "new" {
			t.Errorf("%s members = %v, want [new]", key, members)
		}
	}
	if mr.HGet(j.brokersKey(), "old") != "" {
		t.Error("expired id still mapped to its broker")
	}
}

func TestJournal_Remove(t *testing.T) {
	j, mr := newTestJournal(t, time.Hour)
	ctx := context.Background()

	if err := j.Add(ctx, &domain.FailedRequest{ID: "a", Broker: "b1", FailedAt: time.Now()}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := j.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := j.Get(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrNotFound", err)
	}
	for _, key := range []string{j.indexKey(""), j.indexKey("b1")} {
		if mr.Exists(key) {
			members, _ := mr.ZMembers(key)
			if len(members) != 0 {
				t.Errorf("%s still has %v", key, members)
			}
		}
	}

	if err := j.Remove(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}
