package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/selector"
	"github.com/walletgate/rpc-gateway/internal/weight"
)

func TestPick_WeightedDistributionConverges(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	table.Register(provider.Infura, chainID, 3)
	table.Register(provider.Pokt, chainID, 1)

	sel := selector.New(table)

	const draws = 10000
	counts := map[provider.Kind]int{}
	for i := 0; i < draws; i++ {
		kind, err := sel.Pick(chainID, selector.NewExclusion())
		require.NoError(t, err)
		counts[kind]++
	}

	infuraRatio := float64(counts[provider.Infura]) / draws
	assert.InDelta(t, 0.75, infuraRatio, 0.05, "infura share should track its 3:1 weight advantage")
}

func TestPick_ExcludesZeroWeightCells(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	table.Register(provider.Infura, chainID, 0)
	table.Register(provider.Pokt, chainID, 1)

	sel := selector.New(table)
	kind, err := sel.Pick(chainID, selector.NewExclusion())
	require.NoError(t, err)
	assert.Equal(t, provider.Pokt, kind)
}

func TestPick_HonorsExclusionSet(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	table.Register(provider.Infura, chainID, 5)
	table.Register(provider.Pokt, chainID, 5)

	sel := selector.New(table)
	excl := selector.NewExclusion()
	excl.Add(provider.Infura)

	kind, err := sel.Pick(chainID, excl)
	require.NoError(t, err)
	assert.Equal(t, provider.Pokt, kind)
}

func TestPick_NoProviderAvailable(t *testing.T) {
	table := weight.NewTable()
	sel := selector.New(table)

	_, err := sel.Pick(chain.ID("eip155:999999"), selector.NewExclusion())
	assert.ErrorIs(t, err, selector.ErrNoProviderAvailable)
}

func TestPick_AllExcludedReturnsNoProviderAvailable(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	table.Register(provider.Infura, chainID, 5)

	sel := selector.New(table)
	excl := selector.NewExclusion()
	excl.Add(provider.Infura)

	_, err := sel.Pick(chainID, excl)
	assert.ErrorIs(t, err, selector.ErrNoProviderAvailable)
}
