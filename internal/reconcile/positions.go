package reconcile

import (
	"sort"
	"time"

	"lp-gap-lab/internal/domain"
)

// PoolPositions is the aggregated current holding of one pool: the sum over
// the latest snapshot of every distinct position that resolves to the pool.
type PoolPositions struct {
	Network     domain.Network
	DisplayName string // normalized pair name, the grouping identity

	// Addresses holds every pool_address string the collectors reported
	// for this pool (lowercased). Different sources may disagree, which
	// is why the display name is the grouping key and addresses are kept
	// only for address-based matching against the metrics stream.
	Addresses []string

	HeldValueUSD   float64
	FeesUSD        float64
	PositionCount  int
	LastCapturedAt time.Time
}

// NameKey returns the aggregate's display-name pool key.
func (p *PoolPositions) NameKey() domain.PoolKey {
	return domain.NameKey(p.Network, p.DisplayName)
}

// AggregatePositions projects position snapshot history to current per-pool
// holdings. Only snapshots with captured_at >= horizon are eligible; the
// latest eligible snapshot per position_id is selected, then summed per
// (network, display name).
//
// A position whose latest snapshot holds 0 still counts toward the sum (as
// zero) and the position count, so a fully withdrawn position yields a pool
// showing no holding rather than stale nonzero history. The result is
// sorted by (network, display name) for deterministic output.
func AggregatePositions(snapshots []*domain.PositionSnapshot, horizon time.Time) []*PoolPositions {
	eligible := snapshots[:0:0]
	for _, s := range snapshots {
		if !s.CapturedAt.Before(horizon) {
			eligible = append(eligible, s)
		}
	}

	latest := Latest(eligible, func(s *domain.PositionSnapshot) string {
		return s.PositionID
	}, positionLess)

	type groupKey struct {
		network domain.Network
		name    string
	}
	groups := make(map[groupKey]*PoolPositions)
	seenAddr := make(map[groupKey]map[string]struct{})

	for _, s := range latest {
		k := groupKey{s.Network, domain.NormalizeDisplayName(s.PoolDisplayName)}
		g, ok := groups[k]
		if !ok {
			g = &PoolPositions{Network: k.network, DisplayName: k.name}
			groups[k] = g
			seenAddr[k] = make(map[string]struct{})
		}
		g.HeldValueUSD += s.HeldValueUSD
		g.FeesUSD += s.FeesUSD
		g.PositionCount++
		if s.CapturedAt.After(g.LastCapturedAt) {
			g.LastCapturedAt = s.CapturedAt
		}
		if addr := s.AddressPoolKey(); !addr.Zero() {
			if _, dup := seenAddr[k][addr.Value]; !dup {
				seenAddr[k][addr.Value] = struct{}{}
				g.Addresses = append(g.Addresses, addr.Value)
			}
		}
	}

	out := make([]*PoolPositions, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g.Addresses)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Network != out[j].Network {
			return out[i].Network < out[j].Network
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}
