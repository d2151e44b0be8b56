package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
)

// PoolMetricsStore is an in-memory implementation of storage.PoolMetricsStore.
type PoolMetricsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolMetricsSnapshot // keyed by upsert key
}

// NewPoolMetricsStore creates a new in-memory pool metrics store.
func NewPoolMetricsStore() *PoolMetricsStore {
	return &PoolMetricsStore{
		data: make(map[string]*domain.PoolMetricsSnapshot),
	}
}

var _ storage.PoolMetricsStore = (*PoolMetricsStore)(nil)

// metricsKey generates the idempotent upsert key: one row per
// (pool, token, network, hour bucket).
func metricsKey(s *domain.PoolMetricsSnapshot, hour time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		s.Network, s.PoolAddress, s.PoolDisplayName, s.TokenSymbol, hour.Unix())
}

// Upsert inserts the snapshot, replacing any existing row for the same
// (pool, token, network, hour bucket).
func (s *PoolMetricsStore) Upsert(_ context.Context, snap *domain.PoolMetricsSnapshot) error {
	if snap == nil || snap.TokenSymbol == "" || !snap.Network.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *snap
	s.data[metricsKey(snap, snap.HourBucket())] = &copy
	return nil
}

// UpsertBulk upserts multiple snapshots atomically.
func (s *PoolMetricsStore) UpsertBulk(_ context.Context, snapshots []*domain.PoolMetricsSnapshot) error {
	for _, snap := range snapshots {
		if snap == nil || snap.TokenSymbol == "" || !snap.Network.Valid() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snapshots {
		copy := *snap
		s.data[metricsKey(snap, snap.HourBucket())] = &copy
	}
	return nil
}

// GetSince retrieves all snapshots with captured_at >= since, ordered by
// captured_at ASC.
func (s *PoolMetricsStore) GetSince(_ context.Context, since time.Time) ([]*domain.PoolMetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolMetricsSnapshot
	for _, snap := range s.data {
		if !snap.CapturedAt.Before(since) {
			copy := *snap
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CapturedAt.Equal(result[j].CapturedAt) {
			return result[i].CapturedAt.Before(result[j].CapturedAt)
		}
		if result[i].PoolAddress != result[j].PoolAddress {
			return result[i].PoolAddress < result[j].PoolAddress
		}
		return result[i].TokenSymbol < result[j].TokenSymbol
	})
	return result, nil
}
