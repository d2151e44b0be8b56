package domain

import "time"

// Status classifies a funding pair's held liquidity against its target.
type Status string

// Status values in precedence order (see reconcile.ClassifyStatus).
const (
	StatusToDeploy       Status = "to_deploy"
	StatusOverLiquified  Status = "over_liquified"
	StatusOptimal        Status = "optimal"
	StatusUnderLiquified Status = "under_liquified"
)

// ReportRow is one line of the investment-decision report: the reconciled
// state of one (token, network) funding pair. Rows are recomputed from
// scratch every cycle and published atomically; they are never mutated
// incrementally.
// Corresponds to the report_rows table in PostgreSQL.
type ReportRow struct {
	Token             string    // tracked token symbol
	Network           Network   // chain of the funding pair
	PoolDisplayName   string    // normalized pair name ("" never; synthetic rows get "BASE/TOKEN")
	Status            Status    // classification per the funding policy
	FDVUSD            float64   // resolved fully diluted value
	MarketCapUSD      float64   // resolved market cap
	TokenPriceUSD     float64   // resolved token price
	BaseAssetPriceUSD float64   // funding asset price from the same observation
	TargetValueUSD    float64   // fdv x funding ratio
	HeldValueUSD      float64   // sum of latest position values in the pool
	FeesUSD           float64   // sum of uncollected fees across those positions
	PositionCount     int       // distinct positions currently in the pool
	GapUSD            float64   // target - held
	LastObservedAt    time.Time // most recent snapshot feeding this row

	// Data-quality flags. Rows degrade to zeroed/flagged instead of
	// aborting the cycle.
	Synthetic         bool // no real funding pair discovered; manufactured row
	MissingMetrics    bool // positions exist but no resolvable FDV/price
	NoRecentPositions bool // no position snapshot inside the staleness window
}
