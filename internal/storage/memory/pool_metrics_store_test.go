package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
)

func TestPoolMetricsStore_UpsertAndGet(t *testing.T) {
	store := NewPoolMetricsStore()
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	snap := &domain.PoolMetricsSnapshot{
		Network:         domain.NetworkEthereum,
		PoolAddress:     "0xabc",
		PoolDisplayName: "BIO/VITA",
		Dex:             "uniswap_v3",
		TokenSymbol:     "VITA",
		FDVUSD:          10_000_000,
		TokenPriceUSD:   1.2,
		IsFundingPair:   true,
		CapturedAt:      t0,
	}

	if err := store.Upsert(ctx, snap); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	result, err := store.GetSince(ctx, t0.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetSince failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(result))
	}
	if result[0].FDVUSD != 10_000_000 {
		t.Errorf("FDVUSD mismatch: got %f", result[0].FDVUSD)
	}
}

func TestPoolMetricsStore_SameHourReplaces(t *testing.T) {
	store := NewPoolMetricsStore()
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 10, 10, 0, 0, time.UTC)

	mk := func(fdv float64, at time.Time) *domain.PoolMetricsSnapshot {
		return &domain.PoolMetricsSnapshot{
			Network: domain.NetworkBase, PoolAddress: "0xabc",
			PoolDisplayName: "BIO/VITA", TokenSymbol: "VITA",
			FDVUSD: fdv, CapturedAt: at,
		}
	}

	if err := store.Upsert(ctx, mk(9_000_000, t0)); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, mk(9_500_000, t0.Add(30*time.Minute))); err != nil {
		t.Fatalf("retry Upsert failed: %v", err)
	}

	result, err := store.GetSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("GetSince failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 row after same-hour upsert, got %d", len(result))
	}
	if result[0].FDVUSD != 9_500_000 {
		t.Errorf("retry did not replace: fdv = %f", result[0].FDVUSD)
	}
}

func TestPoolMetricsStore_DistinctTokensSameHour(t *testing.T) {
	store := NewPoolMetricsStore()
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	a := &domain.PoolMetricsSnapshot{
		Network: domain.NetworkSolana, PoolAddress: "pool1",
		PoolDisplayName: "BIO/VITA", TokenSymbol: "VITA", CapturedAt: t0,
	}
	b := &domain.PoolMetricsSnapshot{
		Network: domain.NetworkSolana, PoolAddress: "pool2",
		PoolDisplayName: "BIO/QUEST", TokenSymbol: "QUEST", CapturedAt: t0,
	}

	if err := store.UpsertBulk(ctx, []*domain.PoolMetricsSnapshot{a, b}); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	result, err := store.GetSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("GetSince failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(result))
	}
}

func TestPoolMetricsStore_RejectsInvalid(t *testing.T) {
	store := NewPoolMetricsStore()
	ctx := context.Background()

	err := store.Upsert(ctx, &domain.PoolMetricsSnapshot{
		Network: domain.NetworkBase, TokenSymbol: "",
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
