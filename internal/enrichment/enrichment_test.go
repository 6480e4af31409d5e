package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-labs/poolsentinel/internal/aggregator"
	"github.com/nova-labs/poolsentinel/internal/chainrpc"
)

type fakeChain struct {
	holders   []chainrpc.HolderBalance
	holderErr error
	info      *chainrpc.TokenInfo
	infoErr   error
}

func (f *fakeChain) GetSlot(ctx context.Context) (uint64, error) { return 0, nil }
func (f *fakeChain) GetSignaturesForAddress(ctx context.Context, addr string, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeChain) GetParsedTransaction(ctx context.Context, signature string) (*chainrpc.Tx, error) {
	return nil, nil
}
func (f *fakeChain) OnLogs(ctx context.Context, addr string, cb func(chainrpc.Log)) (string, error) {
	return "", nil
}
func (f *fakeChain) RemoveOnLogsListener(ctx context.Context, subID string) error { return nil }
func (f *fakeChain) GetTokenHolders(ctx context.Context, mint string) ([]chainrpc.HolderBalance, error) {
	return f.holders, f.holderErr
}
func (f *fakeChain) GetTokenInfo(ctx context.Context, mint string) (*chainrpc.TokenInfo, error) {
	return f.info, f.infoErr
}

type fakeAgg struct {
	pairs []aggregator.PairStats
	err   error
}

func (f *fakeAgg) GetTokenPairs(ctx context.Context, mint string) ([]aggregator.PairStats, error) {
	return f.pairs, f.err
}
func (f *fakeAgg) GetPair(ctx context.Context, chain, pairAddr string) (*aggregator.PairStats, error) {
	return nil, nil
}
func (f *fakeAgg) Search(ctx context.Context, query string) ([]aggregator.PairStats, error) {
	return nil, nil
}

func TestEnrichCombinesAllSources(t *testing.T) {
	chain := &fakeChain{
		holders: []chainrpc.HolderBalance{{Owner: "A", Percent: 40}, {Owner: "B", Percent: 10}},
		info:    &chainrpc.TokenInfo{Mint: "MintA", MintAuthorityRevoked: true, FreezeAuthorityRevoked: true},
	}
	agg := &fakeAgg{pairs: []aggregator.PairStats{{LiquidityUsd: 20000, HasTwitter: true}}}

	e := New(chain, agg)
	facts, err := e.Enrich(context.Background(), "MintA")
	require.NoError(t, err)

	assert.Equal(t, 2, facts.Holders.TotalHolders)
	assert.True(t, facts.Contract.MintAuthorityRevoked)
	assert.Equal(t, 20000.0, facts.Liquidity.TotalLiquidityUsd)
	assert.True(t, facts.Social.HasTwitter)
}

func TestEnrichDegradesOnPartialFailure(t *testing.T) {
	chain := &fakeChain{holderErr: errors.New("rpc timeout"), infoErr: errors.New("rpc timeout")}
	agg := &fakeAgg{pairs: []aggregator.PairStats{{LiquidityUsd: 500}}}

	e := New(chain, agg)
	facts, err := e.Enrich(context.Background(), "MintB")
	require.NoError(t, err, "partial failure must degrade, not fail the whole enrichment")
	assert.Equal(t, 500.0, facts.Liquidity.TotalLiquidityUsd)
	assert.Equal(t, 0, facts.Holders.TotalHolders)
}

func TestEnrichFailsWhenEverythingFails(t *testing.T) {
	chain := &fakeChain{holderErr: errors.New("down"), infoErr: errors.New("down")}
	agg := &fakeAgg{err: errors.New("down")}

	e := New(chain, agg)
	_, err := e.Enrich(context.Background(), "MintC")
	assert.Error(t, err)
}
