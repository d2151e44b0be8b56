package reconcile

import "lp-gap-lab/internal/domain"

// Policy holds the funding policy constants threaded explicitly through the
// engine. Never global state.
type Policy struct {
	// FundingAsset is the symbol of the designated base/funding asset
	// that tracked tokens pair against.
	FundingAsset string

	// FundingRatio is the fraction of a token's FDV targeted as held
	// liquidity in its funding pair (default 1%).
	FundingRatio float64

	// Thresholds classify held value against the target.
	Thresholds Thresholds

	// BaseAssets are excluded from gap analysis (the funding currency
	// and major quote assets).
	BaseAssets domain.BaseAssetSet

	// FDVHeuristic selects how CanonicalTokenMetrics reduces multiple
	// observations of one token to a single FDV.
	FDVHeuristic FDVHeuristic

	// DefaultMarketCapRatio is the market_cap = fdv x ratio fallback
	// used when a chosen observation carries no market cap.
	DefaultMarketCapRatio float64
}

// Thresholds are the status classification bounds. Ranges overlap; the
// classification order in ClassifyStatus is fixed and first match wins.
type Thresholds struct {
	DeployFraction  float64 // held < target * DeployFraction -> to_deploy (default 1/3)
	OverMultiple    float64 // held > target * OverMultiple -> over_liquified (default 2)
	OptimalFraction float64 // held > target * OptimalFraction -> optimal (default 0.8)
}

// DefaultThresholds returns the standard classification bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DeployFraction:  1.0 / 3.0,
		OverMultiple:    2.0,
		OptimalFraction: 0.8,
	}
}

// ClassifyStatus classifies a funding pair. hasData reports whether any
// position data existed for the pair inside the staleness window.
//
// The checks run in this exact order because the ranges overlap and first
// match wins:
//
//	no data and no holding      -> to_deploy
//	held < target/3             -> to_deploy
//	held > target*2             -> over_liquified
//	held > target*0.8           -> optimal
//	held > 0                    -> under_liquified
//	otherwise                   -> to_deploy
func ClassifyStatus(target, held float64, hasData bool, th Thresholds) domain.Status {
	switch {
	case !hasData && held == 0:
		return domain.StatusToDeploy
	case held < target*th.DeployFraction:
		return domain.StatusToDeploy
	case held > target*th.OverMultiple:
		return domain.StatusOverLiquified
	case held > target*th.OptimalFraction:
		return domain.StatusOptimal
	case held > 0:
		return domain.StatusUnderLiquified
	default:
		return domain.StatusToDeploy
	}
}

// TargetValue computes the policy-derived target liquidity for a token.
func (p Policy) TargetValue(fdvUSD float64) float64 {
	return fdvUSD * p.FundingRatio
}
