package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu          sync.RWMutex
	rows        []*domain.ReportRow
	publishedAt time.Time
	published   bool
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

var _ storage.ReportStore = (*ReportStore)(nil)

// PublishCycle atomically replaces the current report with rows.
func (s *ReportStore) PublishCycle(_ context.Context, rows []*domain.ReportRow, publishedAt time.Time) error {
	for _, r := range rows {
		if r == nil || r.Token == "" || !r.Network.Valid() {
			return storage.ErrInvalidInput
		}
	}

	replacement := make([]*domain.ReportRow, len(rows))
	for i, r := range rows {
		copy := *r
		replacement[i] = &copy
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = replacement
	s.publishedAt = publishedAt
	s.published = true
	return nil
}

// GetCurrent retrieves the most recently published report rows, ordered by
// (token, network). Returns ErrNotFound when no cycle has ever published.
func (s *ReportStore) GetCurrent(_ context.Context) ([]*domain.ReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.published {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.ReportRow, len(s.rows))
	for i, r := range s.rows {
		copy := *r
		result[i] = &copy
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Token != result[j].Token {
			return result[i].Token < result[j].Token
		}
		return result[i].Network < result[j].Network
	})
	return result, nil
}

// PublishedAt returns the publish time of the current report.
func (s *ReportStore) PublishedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publishedAt
}
