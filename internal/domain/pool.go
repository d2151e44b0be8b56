package domain

import (
	"fmt"
	"strings"
)

// PoolKey identifies a pool by one of two independent natural keys.
// Collectors do not share a reliable pool_address (the same on-chain pool
// is reported with different address strings by different sources), so the
// engine carries both an address key and a name key with an explicit
// fallback order.
type PoolKey struct {
	Kind    PoolKeyKind
	Network Network
	Value   string // lowercased address or normalized display name
}

// PoolKeyKind tags which natural key a PoolKey carries.
type PoolKeyKind string

const (
	// PoolKeyAddress keys a pool by (network, pool_address).
	PoolKeyAddress PoolKeyKind = "address"
	// PoolKeyName keys a pool by (network, display_name).
	PoolKeyName PoolKeyKind = "name"
	// PoolKeySynthetic keys a manufactured pool for a token with no real
	// funding pair. Value is the token symbol; the kind keeps synthetic
	// rows on different networks from colliding with anything real.
	PoolKeySynthetic PoolKeyKind = "synthetic"
)

// AddressKey builds an address-based pool key. Addresses are compared
// case-insensitively everywhere.
func AddressKey(network Network, address string) PoolKey {
	return PoolKey{Kind: PoolKeyAddress, Network: network, Value: strings.ToLower(strings.TrimSpace(address))}
}

// NameKey builds a display-name-based pool key.
func NameKey(network Network, displayName string) PoolKey {
	return PoolKey{Kind: PoolKeyName, Network: network, Value: NormalizeDisplayName(displayName)}
}

// SyntheticKey builds the identity of a synthesized pool record for a token
// with no discovered real funding pair on the given network.
func SyntheticKey(network Network, tokenSymbol string) PoolKey {
	return PoolKey{Kind: PoolKeySynthetic, Network: network, Value: NormalizeSymbol(tokenSymbol)}
}

// String renders the key for logs and diagnostics.
func (k PoolKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.Network, k.Value)
}

// Zero reports whether the key carries no value.
func (k PoolKey) Zero() bool {
	return k.Value == ""
}

// NormalizeDisplayName canonicalizes a pool display name so that the same
// on-chain pool resolves to the same name regardless of which collector
// reported it. Symbols are upper-cased and ordered lexically, so "vita/BIO"
// and "BIO/VITA" normalize identically. Names that are not a two-symbol
// pair are upper-cased and trimmed only.
func NormalizeDisplayName(raw string) string {
	name := strings.ToUpper(strings.TrimSpace(raw))
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return name
	}
	a := strings.TrimSpace(parts[0])
	b := strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return name
	}
	if a > b {
		a, b = b, a
	}
	return a + "/" + b
}

// DisplayNameFor builds a normalized display name from two token symbols.
func DisplayNameFor(token0, token1 string) string {
	return NormalizeDisplayName(NormalizeSymbol(token0) + "/" + NormalizeSymbol(token1))
}
