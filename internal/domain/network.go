package domain

import "fmt"

// Network identifies one of the supported blockchains.
// Used as a partition key across all snapshot tables.
type Network string

// Supported networks.
const (
	NetworkEthereum Network = "ethereum"
	NetworkBase     Network = "base"
	NetworkSolana   Network = "solana"
)

// AllNetworks lists the supported networks in a fixed order.
var AllNetworks = []Network{NetworkEthereum, NetworkBase, NetworkSolana}

// Valid reports whether n is one of the supported networks.
func (n Network) Valid() bool {
	switch n {
	case NetworkEthereum, NetworkBase, NetworkSolana:
		return true
	}
	return false
}

// ParseNetwork converts a raw collector string into a Network.
func ParseNetwork(s string) (Network, error) {
	n := Network(s)
	if !n.Valid() {
		return "", fmt.Errorf("unknown network %q", s)
	}
	return n, nil
}
