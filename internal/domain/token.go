package domain

import "strings"

// Token describes a tracked token.
// A token may not exist on every network; Addresses holds per-network
// contract addresses where known.
type Token struct {
	Symbol    string             // canonical upper-case symbol
	Decimals  int                // canonical decimals
	Addresses map[Network]string // per-network contract address (optional)
}

// NormalizeSymbol canonicalizes a token symbol for keying.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// BaseAssetSet is a fixed set of symbols excluded from gap analysis:
// the funding currency plus major quote assets.
type BaseAssetSet map[string]struct{}

// NewBaseAssetSet builds a set from raw symbols.
func NewBaseAssetSet(symbols []string) BaseAssetSet {
	set := make(BaseAssetSet, len(symbols))
	for _, s := range symbols {
		set[NormalizeSymbol(s)] = struct{}{}
	}
	return set
}

// Contains reports whether symbol is a base asset.
func (b BaseAssetSet) Contains(symbol string) bool {
	_, ok := b[NormalizeSymbol(symbol)]
	return ok
}
