package chains

import (
	"github.com/pkg/errors"
)

// Feature is a gateway-advertised capability of a chain.
type Feature string

const (
	// FeatureEIP1271 marks chains supporting gasless off-chain message
	// signing via EIP-1271 preimage signatures.
	FeatureEIP1271 Feature = "EIP1271"
)

// Chain is one entry of the known chain configuration list.
type Chain struct {
	ChainID   uint64
	ShortName string
	ChainName string
	Features  []Feature
}

// HasFeature reports whether the chain advertises the given feature.
func (c *Chain) HasFeature(f Feature) bool {
	for _, have := range c.Features {
		if have == f {
			return true
		}
	}

	return false
}

// Registry is a read-only lookup over the known chain configuration list.
type Registry struct {
	byID map[uint64]*Chain
}

// NewRegistry creates a registry over the given configuration list.
func NewRegistry(configs []Chain) *Registry {
	byID := make(map[uint64]*Chain, len(configs))
	for i := range configs {
		byID[configs[i].ChainID] = &configs[i]
	}

	return &Registry{byID: byID}
}

// NewDefaultRegistry creates a registry over the built-in chain list.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultChains())
}

// Get returns the configuration for the given chain id.
func (r *Registry) Get(chainID uint64) (*Chain, error) {
	chain, ok := r.byID[chainID]
	if !ok {
		return nil, errors.Errorf("chain %d not found", chainID)
	}

	return chain, nil
}

// ShortName resolves the human-readable short name for the given chain id.
func (r *Registry) ShortName(chainID uint64) (string, error) {
	chain, err := r.Get(chainID)
	if err != nil {
		return "", err
	}

	return chain.ShortName, nil
}

// DefaultChains returns the built-in chain configuration list.
func DefaultChains() []Chain {
	return []Chain{
		{ChainID: 1, ShortName: "eth", ChainName: "Ethereum", Features: []Feature{FeatureEIP1271}},
		{ChainID: 5, ShortName: "gor", ChainName: "Goerli", Features: []Feature{FeatureEIP1271}},
		{ChainID: 10, ShortName: "oeth", ChainName: "Optimism", Features: []Feature{FeatureEIP1271}},
		{ChainID: 56, ShortName: "bnb", ChainName: "BNB Smart Chain", Features: []Feature{FeatureEIP1271}},
		{ChainID: 100, ShortName: "gno", ChainName: "Gnosis Chain", Features: []Feature{FeatureEIP1271}},
		{ChainID: 137, ShortName: "matic", ChainName: "Polygon", Features: []Feature{FeatureEIP1271}},
		{ChainID: 8453, ShortName: "base", ChainName: "Base", Features: []Feature{FeatureEIP1271}},
		{ChainID: 42161, ShortName: "arb1", ChainName: "Arbitrum One", Features: []Feature{FeatureEIP1271}},
		{ChainID: 11155111, ShortName: "sep", ChainName: "Sepolia", Features: []Feature{FeatureEIP1271}},
		{ChainID: 1313161554, ShortName: "aurora", ChainName: "Aurora"},
	}
}
