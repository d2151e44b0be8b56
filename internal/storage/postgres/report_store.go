package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL. A cycle's
// rows replace the previous report inside one transaction: the report area
// is a materialized projection, either fully replaced or untouched.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// PublishCycle atomically replaces the current report with rows.
func (s *ReportStore) PublishCycle(ctx context.Context, rows []*domain.ReportRow, publishedAt time.Time) error {
	for _, r := range rows {
		if r == nil || r.Token == "" || !r.Network.Valid() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM report_rows`); err != nil {
		return fmt.Errorf("clear previous report: %w", err)
	}

	query := `
		INSERT INTO report_rows (
			token, network, pool_display_name, status,
			fdv_usd, market_cap_usd, token_price_usd, base_asset_price_usd,
			target_value_usd, held_value_usd, fees_usd, position_count, gap_usd,
			last_observed_at, synthetic, missing_metrics, no_recent_positions,
			published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	for _, r := range rows {
		_, err := tx.Exec(ctx, query,
			r.Token,
			string(r.Network),
			r.PoolDisplayName,
			string(r.Status),
			r.FDVUSD,
			r.MarketCapUSD,
			r.TokenPriceUSD,
			r.BaseAssetPriceUSD,
			r.TargetValueUSD,
			r.HeldValueUSD,
			r.FeesUSD,
			r.PositionCount,
			r.GapUSD,
			r.LastObservedAt,
			r.Synthetic,
			r.MissingMetrics,
			r.NoRecentPositions,
			publishedAt,
		)
		if err != nil {
			return fmt.Errorf("insert report row: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO report_publications (published_at, row_count) VALUES ($1, $2)`,
		publishedAt, len(rows)); err != nil {
		return fmt.Errorf("record publication: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetCurrent retrieves the most recently published report rows, ordered by
// (token, network). Returns ErrNotFound when no cycle has ever published.
func (s *ReportStore) GetCurrent(ctx context.Context) ([]*domain.ReportRow, error) {
	query := `
		SELECT token, network, pool_display_name, status,
		       fdv_usd, market_cap_usd, token_price_usd, base_asset_price_usd,
		       target_value_usd, held_value_usd, fees_usd, position_count, gap_usd,
		       last_observed_at, synthetic, missing_metrics, no_recent_positions
		FROM report_rows
		ORDER BY token ASC, network ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get current report: %w", err)
	}
	defer rows.Close()

	result, err := scanReportRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		// Distinguish "never published" from "published empty" via the
		// publications marker row count.
		var published int
		if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM report_publications`).Scan(&published); err != nil {
			return nil, fmt.Errorf("check publication marker: %w", err)
		}
		if published == 0 {
			return nil, storage.ErrNotFound
		}
	}
	return result, nil
}

func scanReportRows(rows pgx.Rows) ([]*domain.ReportRow, error) {
	var result []*domain.ReportRow

	for rows.Next() {
		var r domain.ReportRow
		var network, status string

		err := rows.Scan(
			&r.Token,
			&network,
			&r.PoolDisplayName,
			&status,
			&r.FDVUSD,
			&r.MarketCapUSD,
			&r.TokenPriceUSD,
			&r.BaseAssetPriceUSD,
			&r.TargetValueUSD,
			&r.HeldValueUSD,
			&r.FeesUSD,
			&r.PositionCount,
			&r.GapUSD,
			&r.LastObservedAt,
			&r.Synthetic,
			&r.MissingMetrics,
			&r.NoRecentPositions,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.Network = domain.Network(network)
		r.Status = domain.Status(status)

		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return result, nil
}
