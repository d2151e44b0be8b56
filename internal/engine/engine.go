// Package engine coordinates one reconciliation cycle: a single-threaded,
// stateless batch pass that reads both snapshot streams as of cycle start,
// projects them to current state, derives funding gaps, and atomically
// publishes the full report row set or nothing.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/reconcile"
	"lp-gap-lab/internal/storage"
)

// Engine runs reconciliation cycles. It owns no persistent state of its
// own; given the same snapshot inputs, RunCycle produces identical output.
type Engine struct {
	positions storage.PositionSnapshotStore
	metrics   storage.PoolMetricsStore
	reports   storage.ReportStore

	policy            reconcile.Policy
	positionStaleness time.Duration
	metricsWindow     time.Duration
	mismatchTolerance int

	now    func() time.Time
	logger *zap.Logger
}

// Options for creating an Engine.
type Options struct {
	// Required stores.
	PositionStore storage.PositionSnapshotStore
	MetricsStore  storage.PoolMetricsStore
	ReportStore   storage.ReportStore

	// Funding policy, threaded explicitly.
	Policy reconcile.Policy

	// PositionStaleness bounds how old a position snapshot may be and
	// still count as current.
	PositionStaleness time.Duration

	// MetricsWindow bounds how far back pool metrics history is read.
	MetricsWindow time.Duration

	// MismatchTolerance is the allowed divergence between address-based
	// and name-based join yields before a KeyMismatch warning is logged.
	MismatchTolerance int

	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		positions:         opts.PositionStore,
		metrics:           opts.MetricsStore,
		reports:           opts.ReportStore,
		policy:            opts.Policy,
		positionStaleness: opts.PositionStaleness,
		metricsWindow:     opts.MetricsWindow,
		mismatchTolerance: opts.MismatchTolerance,
		now:               now,
		logger:            logger,
	}
}

// NetworkSummary totals one network's published rows.
type NetworkSummary struct {
	Rows           int
	HeldValueUSD   float64
	TargetValueUSD float64
	GapUSD         float64
}

// Diagnostics describes what a cycle saw and decided. Exposed so operators
// can detect silent key-mismatch regressions and data-quality drift.
type Diagnostics struct {
	StartedAt  time.Time
	FinishedAt time.Time

	PositionSnapshots int
	MetricsSnapshots  int
	PositionPools     int
	PairObservations  int
	TokensResolved    int

	Match       reconcile.MatchStats
	KeyMismatch bool // divergence exceeded the configured tolerance

	RealRows       int
	SyntheticRows  int
	MissingMetrics int
	StalePositions int

	PerNetwork map[domain.Network]NetworkSummary
}

// CycleResult is the published output of one cycle.
type CycleResult struct {
	Rows        []*domain.ReportRow
	Diagnostics Diagnostics
}

// RunCycle executes one full reconciliation pass and publishes the result.
// Per-pair problems degrade to zeroed/flagged rows; an error is returned
// only when a store read or the atomic publish fails, in which case nothing
// is published.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := e.now().UTC()
	diag := Diagnostics{StartedAt: start, PerNetwork: make(map[domain.Network]NetworkSummary)}

	horizon := start.Add(-e.positionStaleness)
	positionRows, err := e.positions.GetSince(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("read position snapshots: %w", err)
	}
	metricsRows, err := e.metrics.GetSince(ctx, start.Add(-e.metricsWindow))
	if err != nil {
		return nil, fmt.Errorf("read pool metrics snapshots: %w", err)
	}
	diag.PositionSnapshots = len(positionRows)
	diag.MetricsSnapshots = len(metricsRows)

	// Project both streams to current state.
	aggregates := reconcile.AggregatePositions(positionRows, horizon)
	observations := reconcile.LatestPairObservations(metricsRows)
	canonical := reconcile.CanonicalTokenMetrics(observations, e.policy.FDVHeuristic, e.policy.DefaultMarketCapRatio)
	diag.PositionPools = len(aggregates)
	diag.PairObservations = len(observations)
	diag.TokensResolved = len(canonical)

	// Bridge the two streams.
	join, stats := reconcile.JoinPositions(observations, aggregates)
	diag.Match = stats
	if stats.Divergence() > e.mismatchTolerance {
		diag.KeyMismatch = true
		e.logger.Warn("pool key mismatch between snapshot streams",
			zap.Int("address_matches", stats.AddressMatches),
			zap.Int("name_matches", stats.NameMatches),
			zap.String("strategy", string(stats.Strategy)))
	}

	rows := e.buildFundingRows(observations, canonical, join, &diag)

	covered := make(map[string]map[domain.Network]bool)
	for _, r := range rows {
		if covered[r.Token] == nil {
			covered[r.Token] = make(map[domain.Network]bool)
		}
		covered[r.Token][r.Network] = true
	}
	synthetic := reconcile.SynthesizeVirtualPairs(canonical, observations, covered, e.policy)
	diag.RealRows = len(rows)
	diag.SyntheticRows = len(synthetic)
	rows = append(rows, synthetic...)

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Token != rows[j].Token {
			return rows[i].Token < rows[j].Token
		}
		return rows[i].Network < rows[j].Network
	})

	for _, r := range rows {
		s := diag.PerNetwork[r.Network]
		s.Rows++
		s.HeldValueUSD += r.HeldValueUSD
		s.TargetValueUSD += r.TargetValueUSD
		s.GapUSD += r.GapUSD
		diag.PerNetwork[r.Network] = s
	}

	if err := e.reports.PublishCycle(ctx, rows, start); err != nil {
		return nil, fmt.Errorf("publish report rows: %w", err)
	}

	diag.FinishedAt = e.now().UTC()
	e.logger.Info("reconciliation cycle published",
		zap.Int("rows", len(rows)),
		zap.Int("synthetic", diag.SyntheticRows),
		zap.Int("tokens", diag.TokensResolved),
		zap.Int("address_matches", stats.AddressMatches),
		zap.Int("name_matches", stats.NameMatches),
		zap.Duration("elapsed", diag.FinishedAt.Sub(diag.StartedAt)))

	return &CycleResult{Rows: rows, Diagnostics: diag}, nil
}

// buildFundingRows produces one report row per (token, network) that has at
// least one real funding pair observation. Multiple funding pools for the
// same (token, network) merge into one row.
func (e *Engine) buildFundingRows(
	observations []*reconcile.PairObservation,
	canonical map[string]reconcile.TokenMetrics,
	join map[domain.PoolKey]*reconcile.PoolPositions,
	diag *Diagnostics,
) []*domain.ReportRow {
	type rowKey struct {
		token   string
		network domain.Network
	}
	rows := make(map[rowKey]*domain.ReportRow)
	merged := make(map[rowKey]map[*reconcile.PoolPositions]bool)

	for _, o := range observations {
		if !o.Snapshot.IsFundingPair || e.policy.BaseAssets.Contains(o.Token) {
			continue
		}
		k := rowKey{o.Token, o.Snapshot.Network}
		row, ok := rows[k]
		if !ok {
			row = &domain.ReportRow{
				Token:           o.Token,
				Network:         o.Snapshot.Network,
				PoolDisplayName: o.NameKey().Value,
			}
			rows[k] = row
			merged[k] = make(map[*reconcile.PoolPositions]bool)
		}
		if o.Snapshot.CapturedAt.After(row.LastObservedAt) {
			row.LastObservedAt = o.Snapshot.CapturedAt
		}
		agg := join[o.NameKey()]
		if agg == nil || merged[k][agg] {
			continue
		}
		merged[k][agg] = true
		row.HeldValueUSD += agg.HeldValueUSD
		row.FeesUSD += agg.FeesUSD
		row.PositionCount += agg.PositionCount
		if agg.LastCapturedAt.After(row.LastObservedAt) {
			row.LastObservedAt = agg.LastCapturedAt
		}
	}

	out := make([]*domain.ReportRow, 0, len(rows))
	for k, row := range rows {
		hasData := len(merged[k]) > 0
		if !hasData {
			row.NoRecentPositions = true
			diag.StalePositions++
		}

		m, ok := canonical[row.Token]
		if !ok || m.FDVUSD <= 0 {
			// Positions without a resolvable price. Zeroed metrics,
			// never a fabricated price.
			row.MissingMetrics = true
			row.Status = domain.StatusToDeploy
			diag.MissingMetrics++
			out = append(out, row)
			continue
		}

		row.FDVUSD = m.FDVUSD
		row.MarketCapUSD = m.MarketCapUSD
		row.TokenPriceUSD = m.TokenPriceUSD
		row.BaseAssetPriceUSD = m.BaseAssetPriceUSD
		row.TargetValueUSD = e.policy.TargetValue(m.FDVUSD)
		row.GapUSD = row.TargetValueUSD - row.HeldValueUSD
		row.Status = reconcile.ClassifyStatus(row.TargetValueUSD, row.HeldValueUSD, hasData, e.policy.Thresholds)
		out = append(out, row)
	}
	return out
}
