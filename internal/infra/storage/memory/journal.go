package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/kafkaguard/internal/core/domain"
	"github.com/vietddude/kafkaguard/internal/infra/storage"
)

// Journal is an in-process FailureJournal.
type Journal struct {
	mu      sync.RWMutex
	records map[string]*domain.FailedRequest
}

func NewJournal() *Journal {
	return &Journal{records: make(map[string]*domain.FailedRequest)}
}

func (j *Journal) Add(ctx context.Context, fr *domain.FailedRequest) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := *fr
	j.records[fr.ID] = &cp
	return nil
}

func (j *Journal) Get(ctx context.Context, id string) (*domain.FailedRequest, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	fr, ok := j.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *fr
	return &cp, nil
}

func (j *Journal) List(ctx context.Context, broker string, limit int) ([]*domain.FailedRequest, error) {
	j.mu.RLock()
	var out []*domain.FailedRequest
	for _, fr := range j.records {
		if broker != "" && fr.Broker != broker {
			continue
		}
		cp := *fr
		out = append(out, &cp)
	}
	j.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		return out[a].FailedAt.After(out[b].FailedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j *Journal) Remove(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(j.records, id)
	return nil
}
