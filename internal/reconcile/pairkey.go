package reconcile

import "lp-gap-lab/internal/domain"

// JoinStrategy names which natural key produced the join used by a cycle.
type JoinStrategy string

const (
	// JoinByAddress matched pools on case-insensitive pool_address equality.
	JoinByAddress JoinStrategy = "address"
	// JoinByName matched pools on normalized (display_name, network) equality.
	JoinByName JoinStrategy = "display_name"
)

// MatchStats exposes both join yields so operators can detect silent
// key-mismatch regressions between the two snapshot streams.
type MatchStats struct {
	AddressMatches int          // pairs matched to a position aggregate by address
	NameMatches    int          // pairs matched by (display_name, network)
	Strategy       JoinStrategy // the strategy whose result was used
}

// Divergence returns the absolute difference between the two match counts.
func (m MatchStats) Divergence() int {
	d := m.AddressMatches - m.NameMatches
	if d < 0 {
		d = -d
	}
	return d
}

// JoinPositions bridges the two snapshot streams, which do not share a
// reliable foreign key: pool address strings differ by source. Both joins
// are computed over the full input set; the higher-yield strategy wins and
// both counts are reported. Name-based matching wins ties since the display
// name is the stable identity.
//
// The result maps each pair observation's name key to its position
// aggregate; unmatched pairs are absent.
func JoinPositions(pairs []*PairObservation, positions []*PoolPositions) (map[domain.PoolKey]*PoolPositions, MatchStats) {
	byAddress := make(map[domain.PoolKey]*PoolPositions)
	byName := make(map[domain.PoolKey]*PoolPositions)
	for _, p := range positions {
		for _, addr := range p.Addresses {
			byAddress[domain.AddressKey(p.Network, addr)] = p
		}
		byName[p.NameKey()] = p
	}

	addrJoin := make(map[domain.PoolKey]*PoolPositions)
	nameJoin := make(map[domain.PoolKey]*PoolPositions)
	for _, pair := range pairs {
		nameKey := pair.NameKey()
		if addrKey := pair.Snapshot.AddressPoolKey(); !addrKey.Zero() {
			if p, ok := byAddress[addrKey]; ok {
				addrJoin[nameKey] = p
			}
		}
		if p, ok := byName[nameKey]; ok {
			nameJoin[nameKey] = p
		}
	}

	stats := MatchStats{
		AddressMatches: len(addrJoin),
		NameMatches:    len(nameJoin),
	}
	if stats.AddressMatches > stats.NameMatches {
		stats.Strategy = JoinByAddress
		return addrJoin, stats
	}
	stats.Strategy = JoinByName
	return nameJoin, stats
}
