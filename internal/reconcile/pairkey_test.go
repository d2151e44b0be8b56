package reconcile

import (
	"testing"
	"time"

	"lp-gap-lab/internal/domain"
)

func TestJoinPositions_AddressMatch(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s := metricsSnap(domain.NetworkEthereum, "BIO/VITA", "VITA", 10_000_000, 1.0, t0)
	s.PoolAddress = "0xAbC"
	pairs := LatestPairObservations([]*domain.PoolMetricsSnapshot{s})

	positions := []*PoolPositions{{
		Network:      domain.NetworkEthereum,
		DisplayName:  "BIO/VITA",
		Addresses:    []string{"0xabc"},
		HeldValueUSD: 40_000,
	}}

	join, stats := JoinPositions(pairs, positions)

	if stats.AddressMatches != 1 || stats.NameMatches != 1 {
		t.Errorf("match counts = %+v, want 1/1", stats)
	}
	if got := join[pairs[0].NameKey()]; got == nil || got.HeldValueUSD != 40_000 {
		t.Errorf("join missed the matching aggregate: %+v", got)
	}
}

func TestJoinPositions_NameFallbackWinsWhenAddressesDiverge(t *testing.T) {
	// The two streams report different address strings for the same pool;
	// the display-name join yields more matches and must be used, with
	// both counts reported.
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s1 := metricsSnap(domain.NetworkEthereum, "BIO/VITA", "VITA", 10_000_000, 1.0, t0)
	s1.PoolAddress = "0xmetrics-side"
	s2 := metricsSnap(domain.NetworkSolana, "BIO/QUEST", "QUEST", 5_000_000, 0.5, t0)
	s2.PoolAddress = "metrics-quest"
	pairs := LatestPairObservations([]*domain.PoolMetricsSnapshot{s1, s2})

	positions := []*PoolPositions{
		{Network: domain.NetworkEthereum, DisplayName: "BIO/VITA", Addresses: []string{"0xposition-side"}, HeldValueUSD: 40_000},
		{Network: domain.NetworkSolana, DisplayName: "BIO/QUEST", Addresses: []string{"position-quest"}, HeldValueUSD: 10_000},
	}

	join, stats := JoinPositions(pairs, positions)

	if stats.AddressMatches != 0 {
		t.Errorf("address matches = %d, want 0", stats.AddressMatches)
	}
	if stats.NameMatches != 2 {
		t.Errorf("name matches = %d, want 2", stats.NameMatches)
	}
	if stats.Strategy != JoinByName {
		t.Errorf("strategy = %s, want display_name (higher yield)", stats.Strategy)
	}
	if len(join) != 2 {
		t.Errorf("join size = %d, want 2 (fallback result used)", len(join))
	}
}

func TestJoinPositions_AddressWinsWhenHigherYield(t *testing.T) {
	// Same pool, but one stream normalized the name differently enough
	// that only the address join finds it.
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s := metricsSnap(domain.NetworkEthereum, "BIO/VITA", "VITA", 10_000_000, 1.0, t0)
	s.PoolAddress = "0xsame"
	pairs := LatestPairObservations([]*domain.PoolMetricsSnapshot{s})

	positions := []*PoolPositions{{
		Network:      domain.NetworkEthereum,
		DisplayName:  "BIO-VITA LP", // not a parseable pair name
		Addresses:    []string{"0xSAME"},
		HeldValueUSD: 40_000,
	}}

	join, stats := JoinPositions(pairs, positions)

	if stats.AddressMatches != 1 || stats.NameMatches != 0 {
		t.Fatalf("match counts = %+v, want 1/0", stats)
	}
	if stats.Strategy != JoinByAddress {
		t.Errorf("strategy = %s, want address", stats.Strategy)
	}
	if join[pairs[0].NameKey()] == nil {
		t.Error("address join result not used")
	}
}

func TestMatchStats_Divergence(t *testing.T) {
	if d := (MatchStats{AddressMatches: 2, NameMatches: 7}).Divergence(); d != 5 {
		t.Errorf("divergence = %d, want 5", d)
	}
	if d := (MatchStats{AddressMatches: 7, NameMatches: 2}).Divergence(); d != 5 {
		t.Errorf("divergence = %d, want 5", d)
	}
}
