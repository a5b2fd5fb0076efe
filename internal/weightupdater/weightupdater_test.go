package weightupdater_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/weight"
	"github.com/walletgate/rpc-gateway/internal/weightupdater"
)

type noopSink struct{}

func (noopSink) AddHTTPLatency(string, string, float64)     {}
func (noopSink) AddHTTPCall(string, string)                 {}
func (noopSink) AddProviderFinishedCall(string, string)     {}
func (noopSink) AddProviderStatusCode(string, string, int)  {}
func (noopSink) AddProviderLatency(string, string, float64) {}
func (noopSink) AddRateLimitedCall(string, string)          {}
func (noopSink) AddWebsocketConnection(string)              {}
func (noopSink) RemoveWebsocketConnection(string)           {}
func (noopSink) SetProviderWeight(string, string, uint32)   {}

func TestTick_NeverObservedPairHoldsCurrentWeight(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	cell := table.Register(provider.Infura, chainID, 7)

	u := weightupdater.New(table, emptyQuery, noopSink{}, zap.NewNop(), 0, 10, 3)
	require.NoError(t, u.Tick(context.Background()))

	assert.Equal(t, uint32(7), cell.Load())
}

func TestTick_AllSuccessScoresMaxWeight(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	cell := table.Register(provider.Infura, chainID, 1)

	q := fixedQuery([]weightupdater.Sample{
		{Provider: provider.Infura, Chain: chainID, Success: 10, Errors: 0},
	})
	u := weightupdater.New(table, q, noopSink{}, zap.NewNop(), 0, 10, 3)
	require.NoError(t, u.Tick(context.Background()))

	assert.Equal(t, uint32(10), cell.Load())
}

func TestTick_AllErrorFloorsAtOneBeforeGraceExpires(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	cell := table.Register(provider.Infura, chainID, 5)

	q := fixedQuery([]weightupdater.Sample{
		{Provider: provider.Infura, Chain: chainID, Success: 0, Errors: 10},
	})
	u := weightupdater.New(table, q, noopSink{}, zap.NewNop(), 0, 10, 3)

	require.NoError(t, u.Tick(context.Background()))
	assert.Equal(t, uint32(1), cell.Load())
	require.NoError(t, u.Tick(context.Background()))
	assert.Equal(t, uint32(1), cell.Load())
}

func TestTick_AllErrorDropsToZeroAfterGraceTicks(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	cell := table.Register(provider.Infura, chainID, 5)

	q := fixedQuery([]weightupdater.Sample{
		{Provider: provider.Infura, Chain: chainID, Success: 0, Errors: 10},
	})
	u := weightupdater.New(table, q, noopSink{}, zap.NewNop(), 0, 10, 2)

	require.NoError(t, u.Tick(context.Background()))
	require.NoError(t, u.Tick(context.Background()))
	assert.Equal(t, uint32(0), cell.Load())
}

func TestTick_PartialSuccessScalesToMaxWeight(t *testing.T) {
	table := weight.NewTable()
	chainID := chain.ID("eip155:1")
	cell := table.Register(provider.Infura, chainID, 1)

	q := fixedQuery([]weightupdater.Sample{
		{Provider: provider.Infura, Chain: chainID, Success: 3, Errors: 1},
	})
	u := weightupdater.New(table, q, noopSink{}, zap.NewNop(), 0, 4, 3)
	require.NoError(t, u.Tick(context.Background()))

	assert.Equal(t, uint32(3), cell.Load())
}

func emptyQuery(ctx context.Context) ([]weightupdater.Sample, error) {
	return nil, nil
}

func fixedQuery(samples []weightupdater.Sample) weightupdater.QueryFunc {
	return func(ctx context.Context) ([]weightupdater.Sample, error) {
		return samples, nil
	}
}
