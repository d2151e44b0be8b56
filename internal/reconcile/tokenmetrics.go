package reconcile

import (
	"sort"

	"lp-gap-lab/internal/domain"
)

// FDVHeuristic selects how a token's canonical metrics are chosen across
// redundant observations from multiple pools and networks.
type FDVHeuristic string

const (
	// FDVHeuristicMax picks the observation with the maximum fdv_usd.
	// Rationale: FDV is expected to be venue-invariant, and the maximum
	// observed value is assumed least stale. A documented heuristic, not
	// a proven invariant; replaceable via configuration.
	FDVHeuristicMax FDVHeuristic = "max-fdv"

	// FDVHeuristicLatest picks the most recently captured observation.
	FDVHeuristicLatest FDVHeuristic = "latest-observed"
)

// Valid reports whether h is a known heuristic.
func (h FDVHeuristic) Valid() bool {
	return h == FDVHeuristicMax || h == FDVHeuristicLatest
}

// PairObservation is the latest metrics snapshot of one (token, network,
// pool) triple.
type PairObservation struct {
	Snapshot *domain.PoolMetricsSnapshot
	Token    string // normalized token symbol
}

// NameKey returns the observation's display-name pool key.
func (o *PairObservation) NameKey() domain.PoolKey {
	return o.Snapshot.NamePoolKey()
}

// TokenMetrics is the canonical market metrics triple resolved for one
// token symbol across all of its observations.
type TokenMetrics struct {
	Token             string
	FDVUSD            float64
	MarketCapUSD      float64
	TokenPriceUSD     float64
	BaseAssetPriceUSD float64
	ObservedAt        domain.PoolMetricsSnapshot // observation that supplied the triple
}

// LatestPairObservations projects pool metrics history to the single most
// recent observation per (token, network, pool display name). Output is
// sorted by (token, network, pool) for deterministic iteration.
func LatestPairObservations(snapshots []*domain.PoolMetricsSnapshot) []*PairObservation {
	type key struct {
		token   string
		network domain.Network
		pool    string
	}
	latest := Latest(snapshots, func(s *domain.PoolMetricsSnapshot) key {
		return key{
			token:   domain.NormalizeSymbol(s.TokenSymbol),
			network: s.Network,
			pool:    domain.NormalizeDisplayName(s.PoolDisplayName),
		}
	}, metricsLess)

	out := make([]*PairObservation, 0, len(latest))
	for k, s := range latest {
		out = append(out, &PairObservation{Snapshot: s, Token: k.token})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Token != b.Token {
			return a.Token < b.Token
		}
		if a.Snapshot.Network != b.Snapshot.Network {
			return a.Snapshot.Network < b.Snapshot.Network
		}
		return a.NameKey().Value < b.NameKey().Value
	})
	return out
}

// CanonicalTokenMetrics reduces pair observations to one metrics triple per
// token. Price and market cap are always taken from the same observation
// that supplied the chosen FDV; mixing fields across observations produces
// internally-inconsistent triples. When market cap is absent, it falls back
// to fdv x defaultMarketCapRatio.
func CanonicalTokenMetrics(observations []*PairObservation, heuristic FDVHeuristic, defaultMarketCapRatio float64) map[string]TokenMetrics {
	chosen := make(map[string]*domain.PoolMetricsSnapshot)
	for _, o := range observations {
		cur, ok := chosen[o.Token]
		if !ok {
			chosen[o.Token] = o.Snapshot
			continue
		}
		switch heuristic {
		case FDVHeuristicLatest:
			if metricsLess(cur, o.Snapshot) {
				chosen[o.Token] = o.Snapshot
			}
		default: // FDVHeuristicMax
			if o.Snapshot.FDVUSD > cur.FDVUSD ||
				(o.Snapshot.FDVUSD == cur.FDVUSD && metricsLess(cur, o.Snapshot)) {
				chosen[o.Token] = o.Snapshot
			}
		}
	}

	out := make(map[string]TokenMetrics, len(chosen))
	for token, s := range chosen {
		m := TokenMetrics{
			Token:             token,
			FDVUSD:            s.FDVUSD,
			MarketCapUSD:      s.MarketCapUSD,
			TokenPriceUSD:     s.TokenPriceUSD,
			BaseAssetPriceUSD: s.BaseAssetPriceUSD,
			ObservedAt:        *s,
		}
		if m.MarketCapUSD == 0 && m.FDVUSD > 0 {
			m.MarketCapUSD = m.FDVUSD * defaultMarketCapRatio
		}
		out[token] = m
	}
	return out
}
