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

// PositionSnapshotStore is an in-memory implementation of
// storage.PositionSnapshotStore.
type PositionSnapshotStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.PositionSnapshot // keyed by upsert key
	nextID int64
}

// NewPositionSnapshotStore creates a new in-memory position snapshot store.
func NewPositionSnapshotStore() *PositionSnapshotStore {
	return &PositionSnapshotStore{
		data:   make(map[string]*domain.PositionSnapshot),
		nextID: 1,
	}
}

var _ storage.PositionSnapshotStore = (*PositionSnapshotStore)(nil)

// positionKey generates the idempotent upsert key: one row per
// (position, network, hour bucket).
func positionKey(positionID string, network domain.Network, hour time.Time) string {
	return fmt.Sprintf("%s|%s|%d", positionID, network, hour.Unix())
}

// Upsert inserts the snapshot, replacing any existing row for the same
// (position_id, network, hour bucket).
func (s *PositionSnapshotStore) Upsert(_ context.Context, snap *domain.PositionSnapshot) error {
	if snap == nil || snap.PositionID == "" || !snap.Network.Valid() {
		return storage.ErrInvalidInput
	}
	if snap.HeldValueUSD < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(snap)
	return nil
}

// UpsertBulk upserts multiple snapshots atomically.
func (s *PositionSnapshotStore) UpsertBulk(_ context.Context, snapshots []*domain.PositionSnapshot) error {
	for _, snap := range snapshots {
		if snap == nil || snap.PositionID == "" || !snap.Network.Valid() || snap.HeldValueUSD < 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snapshots {
		s.upsertLocked(snap)
	}
	return nil
}

func (s *PositionSnapshotStore) upsertLocked(snap *domain.PositionSnapshot) {
	key := positionKey(snap.PositionID, snap.Network, snap.HourBucket())
	stored := *snap
	if existing, ok := s.data[key]; ok {
		stored.ID = existing.ID // retries keep the original row id
	} else {
		stored.ID = s.nextID
		s.nextID++
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.data[key] = &stored
}

// GetSince retrieves all snapshots with captured_at >= since, ordered by
// captured_at ASC.
func (s *PositionSnapshotStore) GetSince(_ context.Context, since time.Time) ([]*domain.PositionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PositionSnapshot
	for _, snap := range s.data {
		if !snap.CapturedAt.Before(since) {
			copy := *snap
			result = append(result, &copy)
		}
	}
	sortPositionSnapshots(result)
	return result, nil
}

// GetByPositionID retrieves the full history of one position, ordered by
// captured_at ASC.
func (s *PositionSnapshotStore) GetByPositionID(_ context.Context, positionID string) ([]*domain.PositionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PositionSnapshot
	for _, snap := range s.data {
		if snap.PositionID == positionID {
			copy := *snap
			result = append(result, &copy)
		}
	}
	sortPositionSnapshots(result)
	return result, nil
}

func sortPositionSnapshots(snapshots []*domain.PositionSnapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].CapturedAt.Equal(snapshots[j].CapturedAt) {
			return snapshots[i].CapturedAt.Before(snapshots[j].CapturedAt)
		}
		return snapshots[i].ID < snapshots[j].ID
	})
}
