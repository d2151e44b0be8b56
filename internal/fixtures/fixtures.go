// Package fixtures seeds deterministic demo data for fixture-mode runs:
// a small multichain portfolio with funding pairs on every network, a
// token that has metrics but no pool yet, and a position whose pool
// address never appears in the metrics stream.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
)

// Seed loads the demo snapshot streams into the given stores. All
// timestamps are derived from now so the data always falls inside the
// default staleness windows.
func Seed(ctx context.Context, positions storage.PositionSnapshotStore, metrics storage.PoolMetricsStore, now time.Time) error {
	now = now.UTC()
	captured := now.Add(-30 * time.Minute)
	earlier := now.Add(-90 * time.Minute)

	metricsRows := []*domain.PoolMetricsSnapshot{
		// BIO/VITA on ethereum: healthy funding pair, two observations to
		// exercise latest-wins.
		pair("VITA", domain.NetworkEthereum, "0x1f98431c8ad98523631ae4a59f267346ea31f984", "uniswap-v3", 9_800_000, earlier),
		pair("VITA", domain.NetworkEthereum, "0x1f98431c8ad98523631ae4a59f267346ea31f984", "uniswap-v3", 10_000_000, captured),

		// BIO/GROW on base: tiny position against a large target.
		pair("GROW", domain.NetworkBase, "0x33128a8fc17869897dce68ed026d694621f6fdfd", "aerodrome", 24_000_000, captured),

		// BIO/QUEST on solana.
		pair("QUEST", domain.NetworkSolana, "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj", "raydium", 5_000_000, captured),

		// NEURON is observed trading against USDC only: no funding pair
		// anywhere, so the cycle synthesizes a to_deploy row.
		{
			Network:           domain.NetworkEthereum,
			PoolAddress:       "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640",
			PoolDisplayName:   "NEURON/USDC",
			Dex:               "uniswap-v3",
			TokenSymbol:       "NEURON",
			TVLUSD:            80_000,
			FDVUSD:            3_200_000,
			MarketCapUSD:      1_100_000,
			TokenPriceUSD:     0.032,
			BaseAssetPriceUSD: 0.41,
			IsFundingPair:     false,
			CapturedAt:        captured,
		},

		// ATH funding pair with positions but a broken FDV feed: row is
		// published flagged, never priced.
		{
			Network:           domain.NetworkBase,
			PoolAddress:       "0x9c1a1b9c5cfd6b27b9b7f9f8b1e8f1df3a2e4c01",
			PoolDisplayName:   "ATH/BIO",
			Dex:               "aerodrome",
			TokenSymbol:       "ATH",
			TVLUSD:            12_000,
			IsFundingPair:     true,
			CapturedAt:        captured,
		},
	}
	if err := metrics.UpsertBulk(ctx, metricsRows); err != nil {
		return fmt.Errorf("seed pool metrics: %w", err)
	}

	positionRows := []*domain.PositionSnapshot{
		// Two live positions in the ethereum BIO/VITA pool; pos-eth-1 also
		// has history to exercise latest-wins.
		pos("pos-eth-1", domain.NetworkEthereum, "0x1f98431c8ad98523631ae4a59f267346ea31f984", "BIO/VITA", "VITA", 38_000, 120, earlier),
		pos("pos-eth-1", domain.NetworkEthereum, "0x1f98431c8ad98523631ae4a59f267346ea31f984", "BIO/VITA", "VITA", 40_000, 140, captured),
		pos("pos-eth-2", domain.NetworkEthereum, "0x1f98431c8ad98523631ae4a59f267346ea31f984", "BIO/VITA", "VITA", 12_500, 30, captured),

		// Base position whose on-chain address was never registered in the
		// metrics stream; only the display-name join attaches it.
		pos("pos-base-1", domain.NetworkBase, "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef", "BIO/GROW", "GROW", 4_200, 8, captured),

		// Withdrawn solana position: latest snapshot reports zero held.
		pos("pos-sol-1", domain.NetworkSolana, "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj", "BIO/QUEST", "QUEST", 9_700, 55, earlier),
		pos("pos-sol-1", domain.NetworkSolana, "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj", "BIO/QUEST", "QUEST", 0, 55, captured),

		// Position in the broken-feed ATH pool.
		pos("pos-base-2", domain.NetworkBase, "0x9c1a1b9c5cfd6b27b9b7f9f8b1e8f1df3a2e4c01", "ATH/BIO", "ATH", 6_300, 15, captured),
	}
	if err := positions.UpsertBulk(ctx, positionRows); err != nil {
		return fmt.Errorf("seed position snapshots: %w", err)
	}

	return nil
}

func pair(token string, network domain.Network, pool, dex string, fdv float64, capturedAt time.Time) *domain.PoolMetricsSnapshot {
	return &domain.PoolMetricsSnapshot{
		Network:           network,
		PoolAddress:       pool,
		PoolDisplayName:   "BIO/" + token,
		Dex:               dex,
		TokenSymbol:       token,
		TVLUSD:            fdv / 50,
		FDVUSD:            fdv,
		MarketCapUSD:      fdv * 0.4,
		TokenPriceUSD:     fdv / 100_000_000,
		BaseAssetPriceUSD: 0.41,
		IsFundingPair:     true,
		CapturedAt:        capturedAt,
	}
}

func pos(id string, network domain.Network, pool, displayName, token string, held, fees float64, capturedAt time.Time) *domain.PositionSnapshot {
	return &domain.PositionSnapshot{
		PositionID:      id,
		Network:         network,
		PoolAddress:     pool,
		PoolDisplayName: displayName,
		Token0Symbol:    "BIO",
		Token1Symbol:    token,
		HeldValueUSD:    held,
		FeesUSD:         fees,
		CapturedAt:      capturedAt,
	}
}
