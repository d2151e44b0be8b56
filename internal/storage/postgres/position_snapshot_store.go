package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
)

// PositionSnapshotStore implements storage.PositionSnapshotStore using
// PostgreSQL. Idempotent writes are enforced by a unique index on
// (position_id, network, hour_bucket); retries upsert rather than
// duplicate.
type PositionSnapshotStore struct {
	pool *Pool
}

// NewPositionSnapshotStore creates a new PositionSnapshotStore.
func NewPositionSnapshotStore(pool *Pool) *PositionSnapshotStore {
	return &PositionSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionSnapshotStore = (*PositionSnapshotStore)(nil)

const upsertPositionSnapshot = `
	INSERT INTO position_snapshots (
		position_id, network, pool_address, pool_display_name,
		token0_symbol, token1_symbol, held_value_usd, fees_usd,
		captured_at, hour_bucket
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (position_id, network, hour_bucket) DO UPDATE SET
		pool_address = EXCLUDED.pool_address,
		pool_display_name = EXCLUDED.pool_display_name,
		token0_symbol = EXCLUDED.token0_symbol,
		token1_symbol = EXCLUDED.token1_symbol,
		held_value_usd = EXCLUDED.held_value_usd,
		fees_usd = EXCLUDED.fees_usd,
		captured_at = EXCLUDED.captured_at
`

// Upsert inserts the snapshot, replacing any existing row for the same
// (position_id, network, hour bucket).
func (s *PositionSnapshotStore) Upsert(ctx context.Context, snap *domain.PositionSnapshot) error {
	if err := validatePositionSnapshot(snap); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, upsertPositionSnapshot, upsertArgs(snap)...)
	if err != nil {
		return fmt.Errorf("upsert position snapshot: %w", err)
	}
	return nil
}

// UpsertBulk upserts multiple snapshots atomically.
func (s *PositionSnapshotStore) UpsertBulk(ctx context.Context, snapshots []*domain.PositionSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if err := validatePositionSnapshot(snap); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, snap := range snapshots {
		if _, err := tx.Exec(ctx, upsertPositionSnapshot, upsertArgs(snap)...); err != nil {
			return fmt.Errorf("upsert position snapshot in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetSince retrieves all snapshots with captured_at >= since, ordered by
// captured_at ASC. The read runs in one repeatable-read transaction so a
// reconciliation cycle observes a consistent view of the stream.
func (s *PositionSnapshotStore) GetSince(ctx context.Context, since time.Time) ([]*domain.PositionSnapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, position_id, network, pool_address, pool_display_name,
		       token0_symbol, token1_symbol, held_value_usd, fees_usd,
		       captured_at, created_at
		FROM position_snapshots
		WHERE captured_at >= $1
		ORDER BY captured_at ASC, id ASC
	`
	rows, err := tx.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("get position snapshots since: %w", err)
	}
	defer rows.Close()

	snapshots, err := scanPositionSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit read tx: %w", err)
	}
	return snapshots, nil
}

// GetByPositionID retrieves the full history of one position, ordered by
// captured_at ASC.
func (s *PositionSnapshotStore) GetByPositionID(ctx context.Context, positionID string) ([]*domain.PositionSnapshot, error) {
	query := `
		SELECT id, position_id, network, pool_address, pool_display_name,
		       token0_symbol, token1_symbol, held_value_usd, fees_usd,
		       captured_at, created_at
		FROM position_snapshots
		WHERE position_id = $1
		ORDER BY captured_at ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, positionID)
	if err != nil {
		return nil, fmt.Errorf("get position snapshots by position id: %w", err)
	}
	defer rows.Close()

	return scanPositionSnapshots(rows)
}

func validatePositionSnapshot(snap *domain.PositionSnapshot) error {
	if snap == nil || snap.PositionID == "" || !snap.Network.Valid() || snap.HeldValueUSD < 0 {
		return storage.ErrInvalidInput
	}
	return nil
}

func upsertArgs(snap *domain.PositionSnapshot) []any {
	return []any{
		snap.PositionID,
		string(snap.Network),
		snap.PoolAddress,
		snap.PoolDisplayName,
		snap.Token0Symbol,
		snap.Token1Symbol,
		snap.HeldValueUSD,
		snap.FeesUSD,
		snap.CapturedAt,
		snap.HourBucket(),
	}
}

// scanPositionSnapshots scans multiple rows into a slice of PositionSnapshot.
func scanPositionSnapshots(rows pgx.Rows) ([]*domain.PositionSnapshot, error) {
	var snapshots []*domain.PositionSnapshot

	for rows.Next() {
		var snap domain.PositionSnapshot
		var network string

		err := rows.Scan(
			&snap.ID,
			&snap.PositionID,
			&network,
			&snap.PoolAddress,
			&snap.PoolDisplayName,
			&snap.Token0Symbol,
			&snap.Token1Symbol,
			&snap.HeldValueUSD,
			&snap.FeesUSD,
			&snap.CapturedAt,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan position snapshot row: %w", err)
		}
		snap.Network = domain.Network(network)

		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position snapshot rows: %w", err)
	}

	return snapshots, nil
}
