package reconcile

import (
	"sort"

	"lp-gap-lab/internal/domain"
)

// SynthesizeVirtualPairs manufactures placeholder report rows for tokens
// that have valid canonical metrics but no real funding pair on a network
// where the token was observed. The synthetic row reports a 100% funding
// gap: held = 0, target = fdv x ratio, gap = target.
//
// Identity is keyed (token, network, synthetic), so the same token on two
// networks produces two distinct rows by construction; a collision cannot
// occur at runtime.
func SynthesizeVirtualPairs(
	metrics map[string]TokenMetrics,
	observations []*PairObservation,
	covered map[string]map[domain.Network]bool, // token -> networks with a real funding pair row
	policy Policy,
) []*domain.ReportRow {
	// Networks where each token was observed at all.
	observedOn := make(map[string]map[domain.Network]bool)
	for _, o := range observations {
		if observedOn[o.Token] == nil {
			observedOn[o.Token] = make(map[domain.Network]bool)
		}
		observedOn[o.Token][o.Snapshot.Network] = true
	}

	var rows []*domain.ReportRow
	seen := make(map[domain.PoolKey]bool)
	for token, m := range metrics {
		if policy.BaseAssets.Contains(token) || m.FDVUSD <= 0 {
			continue
		}
		for network := range observedOn[token] {
			if covered[token][network] {
				continue
			}
			identity := domain.SyntheticKey(network, token)
			if seen[identity] {
				continue
			}
			seen[identity] = true
			target := policy.TargetValue(m.FDVUSD)
			rows = append(rows, &domain.ReportRow{
				Token:             token,
				Network:           network,
				PoolDisplayName:   domain.DisplayNameFor(policy.FundingAsset, token),
				Status:            domain.StatusToDeploy,
				FDVUSD:            m.FDVUSD,
				MarketCapUSD:      m.MarketCapUSD,
				TokenPriceUSD:     m.TokenPriceUSD,
				BaseAssetPriceUSD: m.BaseAssetPriceUSD,
				TargetValueUSD:    target,
				HeldValueUSD:      0,
				PositionCount:     0,
				GapUSD:            target,
				LastObservedAt:    m.ObservedAt.CapturedAt,
				Synthetic:         true,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Token != rows[j].Token {
			return rows[i].Token < rows[j].Token
		}
		return rows[i].Network < rows[j].Network
	})
	return rows
}
