package storage

import (
	"context"
	"time"

	"lp-gap-lab/internal/domain"
)

// PositionSnapshotStore provides access to position_snapshots storage.
// The stream is append-only history; writes are idempotent upserts keyed by
// (position_id, network, hour bucket of captured_at) so a collector
// retrying after a transient failure never duplicates a row.
type PositionSnapshotStore interface {
	// Upsert inserts the snapshot, replacing any existing row for the
	// same (position_id, network, hour bucket).
	Upsert(ctx context.Context, s *domain.PositionSnapshot) error

	// UpsertBulk upserts multiple snapshots atomically.
	UpsertBulk(ctx context.Context, snapshots []*domain.PositionSnapshot) error

	// GetSince retrieves all snapshots with captured_at >= since, across
	// all networks, ordered by captured_at ASC. This is the engine's
	// consistent read at cycle start.
	GetSince(ctx context.Context, since time.Time) ([]*domain.PositionSnapshot, error)

	// GetByPositionID retrieves the full history of one position,
	// ordered by captured_at ASC.
	GetByPositionID(ctx context.Context, positionID string) ([]*domain.PositionSnapshot, error)
}

// PoolMetricsStore provides access to pool_metrics_snapshots storage.
// Same append-only and idempotent-upsert discipline as positions, keyed by
// (network, pool_address, pool_display_name, token_symbol, hour bucket).
type PoolMetricsStore interface {
	// Upsert inserts the snapshot, replacing any existing row for the
	// same (pool, token, network, hour bucket).
	Upsert(ctx context.Context, s *domain.PoolMetricsSnapshot) error

	// UpsertBulk upserts multiple snapshots atomically.
	UpsertBulk(ctx context.Context, snapshots []*domain.PoolMetricsSnapshot) error

	// GetSince retrieves all snapshots with captured_at >= since, across
	// all networks, ordered by captured_at ASC.
	GetSince(ctx context.Context, since time.Time) ([]*domain.PoolMetricsSnapshot, error)
}

// ReportStore holds the published output of reconciliation cycles.
// A cycle's row set replaces the previous one atomically; a failed cycle
// publishes nothing.
type ReportStore interface {
	// PublishCycle atomically replaces the current report with rows.
	PublishCycle(ctx context.Context, rows []*domain.ReportRow, publishedAt time.Time) error

	// GetCurrent retrieves the most recently published report rows,
	// ordered by (token, network). Returns ErrNotFound when no cycle has
	// ever published.
	GetCurrent(ctx context.Context) ([]*domain.ReportRow, error)
}
