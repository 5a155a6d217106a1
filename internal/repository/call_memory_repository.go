package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/osvaldoandrade/soapgate/pkg/domain"
)

// memoryCallRepo is used when no Redis address is configured.
type memoryCallRepo struct {
	mu           sync.RWMutex
	calls        map[string]domain.CallRecord
	expireAt     map[string]time.Time
	byMethod     map[string][]string
	retention    time.Duration
	maxPerMethod int
	now          func() time.Time
}

func NewMemoryCallRepository(retention time.Duration, maxPerMethod int) CallRepository {
	return &memoryCallRepo{
		calls:        map[string]domain.CallRecord{},
		expireAt:     map[string]time.Time{},
		byMethod:     map[string][]string{},
		retention:    retention,
		maxPerMethod: maxPerMethod,
		now:          time.Now,
	}
}

func (r *memoryCallRepo) SaveCall(_ context.Context, rec *domain.CallRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("call record requires an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calls[rec.ID]; !exists {
		r.byMethod[rec.Method] = append(r.byMethod[rec.Method], rec.ID)
	}
	r.calls[rec.ID] = *rec
	r.expireAt[rec.ID] = r.now().Add(r.retention)

	ids := r.byMethod[rec.Method]
	sort.SliceStable(ids, func(i, j int) bool {
		return r.calls[ids[i]].StartedAt.Before(r.calls[ids[j]].StartedAt)
	})
	if r.maxPerMethod > 0 && len(ids) > r.maxPerMethod {
		for _, id := range ids[:len(ids)-r.maxPerMethod] {
			delete(r.calls, id)
			delete(r.expireAt, id)
		}
		ids = append([]string(nil), ids[len(ids)-r.maxPerMethod:]...)
	}
	r.byMethod[rec.Method] = ids
	return nil
}

func (r *memoryCallRepo) GetCall(_ context.Context, id string) (*domain.CallRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.calls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *memoryCallRepo) ListByMethod(_ context.Context, method string, limit int) ([]domain.CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byMethod[method]
	out := make([]domain.CallRecord, 0, min(limit, len(ids)))
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.calls[ids[i]])
	}
	return out, nil
}

func (r *memoryCallRepo) PurgeExpired(_ context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 1000
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	purged := 0
	for id, at := range r.expireAt {
		if purged >= limit {
			break
		}
		if at.After(now) {
			continue
		}
		method := r.calls[id].Method
		delete(r.calls, id)
		delete(r.expireAt, id)
		r.byMethod[method] = without(r.byMethod[method], id)
		purged++
	}
	return purged, nil
}

func (r *memoryCallRepo) Ping(context.Context) error { return nil }

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
