package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
)

// PoolMetricsStore implements storage.PoolMetricsStore using ClickHouse.
// Hour-bucket idempotency comes from the table's ReplacingMergeTree keyed
// by (network, pool, token, hour_bucket): a collector retry within the
// same hour replaces on merge. Reads select through FINAL so unmerged
// duplicates never leak into a reconciliation cycle.
type PoolMetricsStore struct {
	conn *Conn
}

// NewPoolMetricsStore creates a new PoolMetricsStore.
func NewPoolMetricsStore(conn *Conn) *PoolMetricsStore {
	return &PoolMetricsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PoolMetricsStore = (*PoolMetricsStore)(nil)

// Upsert inserts the snapshot; the hour-bucket key deduplicates retries.
func (s *PoolMetricsStore) Upsert(ctx context.Context, snap *domain.PoolMetricsSnapshot) error {
	return s.UpsertBulk(ctx, []*domain.PoolMetricsSnapshot{snap})
}

// UpsertBulk inserts multiple snapshots in one batch.
func (s *PoolMetricsStore) UpsertBulk(ctx context.Context, snapshots []*domain.PoolMetricsSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.TokenSymbol == "" || !snap.Network.Valid() {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_metrics_snapshots (
			network, pool_address, pool_display_name, dex, token_symbol,
			tvl_usd, fdv_usd, market_cap_usd, token_price_usd,
			base_asset_price_usd, is_funding_pair, captured_at, hour_bucket
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		isFunding := uint8(0)
		if snap.IsFundingPair {
			isFunding = 1
		}
		err = batch.Append(
			string(snap.Network),
			snap.PoolAddress,
			snap.PoolDisplayName,
			snap.Dex,
			snap.TokenSymbol,
			snap.TVLUSD,
			snap.FDVUSD,
			snap.MarketCapUSD,
			snap.TokenPriceUSD,
			snap.BaseAssetPriceUSD,
			isFunding,
			snap.CapturedAt,
			snap.HourBucket(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetSince retrieves all snapshots with captured_at >= since, ordered by
// captured_at ASC.
func (s *PoolMetricsStore) GetSince(ctx context.Context, since time.Time) ([]*domain.PoolMetricsSnapshot, error) {
	query := `
		SELECT network, pool_address, pool_display_name, dex, token_symbol,
		       tvl_usd, fdv_usd, market_cap_usd, token_price_usd,
		       base_asset_price_usd, is_funding_pair, captured_at
		FROM pool_metrics_snapshots FINAL
		WHERE captured_at >= ?
		ORDER BY captured_at ASC, pool_address ASC, token_symbol ASC
	`
	rows, err := s.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query pool metrics since: %w", err)
	}
	defer rows.Close()

	return scanPoolMetrics(rows)
}

// scanPoolMetrics scans multiple rows into a slice of PoolMetricsSnapshot.
func scanPoolMetrics(rows driver.Rows) ([]*domain.PoolMetricsSnapshot, error) {
	var snapshots []*domain.PoolMetricsSnapshot

	for rows.Next() {
		var snap domain.PoolMetricsSnapshot
		var network string
		var isFunding uint8

		err := rows.Scan(
			&network,
			&snap.PoolAddress,
			&snap.PoolDisplayName,
			&snap.Dex,
			&snap.TokenSymbol,
			&snap.TVLUSD,
			&snap.FDVUSD,
			&snap.MarketCapUSD,
			&snap.TokenPriceUSD,
			&snap.BaseAssetPriceUSD,
			&isFunding,
			&snap.CapturedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pool metrics row: %w", err)
		}
		snap.Network = domain.Network(network)
		snap.IsFundingPair = isFunding == 1

		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool metrics rows: %w", err)
	}

	return snapshots, nil
}
