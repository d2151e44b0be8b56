package domain

import "time"

// PositionSnapshot is an immutable point-in-time observation of one LP
// position, appended by a per-network collector.
// Corresponds to the position_snapshots table in PostgreSQL.
// Multiple rows may exist per PositionID (history); only the most recent
// one is "current". Collectors upsert at most one row per (position, hour).
type PositionSnapshot struct {
	ID              int64     // BIGSERIAL primary key, secondary recency tiebreak
	PositionID      string    // stable position identifier (NFT mint / LP token holding)
	Network         Network   // chain the position lives on
	PoolAddress     string    // pool address as reported by the collector (may differ per source)
	PoolDisplayName string    // "A/B" pair name, normalized via NormalizeDisplayName on ingest
	Token0Symbol    string    // first pool token symbol
	Token1Symbol    string    // second pool token symbol
	HeldValueUSD    float64   // current USD value of the position, >= 0
	FeesUSD         float64   // uncollected fees in USD
	CapturedAt      time.Time // observation time
	CreatedAt       time.Time // row creation time
}

// AddressPoolKey returns the address-based key of the snapshot's pool,
// or a zero key when the collector reported no address.
func (s *PositionSnapshot) AddressPoolKey() PoolKey {
	if s.PoolAddress == "" {
		return PoolKey{}
	}
	return AddressKey(s.Network, s.PoolAddress)
}

// NamePoolKey returns the display-name-based key of the snapshot's pool.
func (s *PositionSnapshot) NamePoolKey() PoolKey {
	return NameKey(s.Network, s.PoolDisplayName)
}

// HourBucket truncates CapturedAt to the hour, the collector upsert key.
func (s *PositionSnapshot) HourBucket() time.Time {
	return s.CapturedAt.UTC().Truncate(time.Hour)
}

// PoolMetricsSnapshot is an immutable point-in-time observation of a pool
// and the market metrics of its tracked token.
// Corresponds to the pool_metrics_snapshots table in ClickHouse.
type PoolMetricsSnapshot struct {
	Network           Network   // chain the pool lives on
	PoolAddress       string    // pool address as reported by the collector
	PoolDisplayName   string    // "A/B" pair name, normalized on ingest
	Dex               string    // venue identifier
	TokenSymbol       string    // tracked (non-base) token quoted by this pool
	TVLUSD            float64   // total value locked in the pool
	FDVUSD            float64   // fully diluted value of the tracked token
	MarketCapUSD      float64   // market cap of the tracked token, 0 when unknown
	TokenPriceUSD     float64   // tracked token price
	BaseAssetPriceUSD float64   // funding asset price at observation time
	IsFundingPair     bool      // structured flag from the collector: pairs token against the funding asset
	CapturedAt        time.Time // observation time
}

// AddressPoolKey returns the address-based key of the observed pool,
// or a zero key when no address was reported.
func (s *PoolMetricsSnapshot) AddressPoolKey() PoolKey {
	if s.PoolAddress == "" {
		return PoolKey{}
	}
	return AddressKey(s.Network, s.PoolAddress)
}

// NamePoolKey returns the display-name-based key of the observed pool.
func (s *PoolMetricsSnapshot) NamePoolKey() PoolKey {
	return NameKey(s.Network, s.PoolDisplayName)
}

// HourBucket truncates CapturedAt to the hour, the collector upsert key.
func (s *PoolMetricsSnapshot) HourBucket() time.Time {
	return s.CapturedAt.UTC().Truncate(time.Hour)
}
