package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/internal/chainrpc"
)

type fakeChainPort struct {
	subErr  error
	subID   string
	txBySig map[string]*chainrpc.Tx
}

func (f *fakeChainPort) GetSlot(ctx context.Context) (uint64, error) { return 0, nil }
func (f *fakeChainPort) GetSignaturesForAddress(ctx context.Context, addr string, limit int) ([]string, error) {
	sigs := make([]string, 0, len(f.txBySig))
	for sig := range f.txBySig {
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
func (f *fakeChainPort) GetParsedTransaction(ctx context.Context, signature string) (*chainrpc.Tx, error) {
	tx, ok := f.txBySig[signature]
	if !ok {
		return nil, nil
	}
	return tx, nil
}
func (f *fakeChainPort) OnLogs(ctx context.Context, addr string, cb func(chainrpc.Log)) (string, error) {
	if f.subErr != nil {
		return "", f.subErr
	}
	return f.subID, nil
}
func (f *fakeChainPort) RemoveOnLogsListener(ctx context.Context, subID string) error { return nil }
func (f *fakeChainPort) GetTokenHolders(ctx context.Context, mint string) ([]chainrpc.HolderBalance, error) {
	return nil, nil
}
func (f *fakeChainPort) GetTokenInfo(ctx context.Context, mint string) (*chainrpc.TokenInfo, error) {
	return nil, nil
}

func TestClassifyDetectsBuy(t *testing.T) {
	tx := &chainrpc.Tx{
		Signature: "sig1",
		BlockTime: time.Now(),
		PreBalances: []chainrpc.TokenBalance{
			{Owner: "WalletA", Mint: "MintA", Amount: decimal.NewFromInt(100)},
		},
		PostBalances: []chainrpc.TokenBalance{
			{Owner: "WalletA", Mint: "MintA", Amount: decimal.NewFromInt(500)},
		},
	}
	activity, ok := classify("WalletA", tx)
	require.True(t, ok)
	assert.Equal(t, poolsentinel.ActivityBuy, activity.Type)
	assert.InDelta(t, 400, activity.Amount, 0.001)
}

func TestClassifyDetectsSell(t *testing.T) {
	tx := &chainrpc.Tx{
		Signature: "sig2",
		PreBalances: []chainrpc.TokenBalance{
			{Owner: "WalletA", Mint: "MintA", Amount: decimal.NewFromInt(500)},
		},
		PostBalances: []chainrpc.TokenBalance{
			{Owner: "WalletA", Mint: "MintA", Amount: decimal.NewFromInt(100)},
		},
	}
	activity, ok := classify("WalletA", tx)
	require.True(t, ok)
	assert.Equal(t, poolsentinel.ActivitySell, activity.Type)
}

func TestClassifyIgnoresUnrelatedWallet(t *testing.T) {
	tx := &chainrpc.Tx{
		Signature: "sig3",
		PreBalances: []chainrpc.TokenBalance{
			{Owner: "SomeoneElse", Mint: "MintA", Amount: decimal.NewFromInt(100)},
		},
	}
	_, ok := classify("WalletA", tx)
	assert.False(t, ok)
}

func TestWatchFallsBackToPollingWhenSubscriptionFails(t *testing.T) {
	var received poolsentinel.WalletActivity
	done := make(chan struct{}, 1)

	chain := &fakeChainPort{
		subErr: assertErr,
		txBySig: map[string]*chainrpc.Tx{
			"sig1": {
				Signature: "sig1",
				PreBalances: []chainrpc.TokenBalance{
					{Owner: "WalletA", Mint: "MintA", Amount: decimal.NewFromInt(0)},
				},
				PostBalances: []chainrpc.TokenBalance{
					{Owner: "WalletA", Mint: "MintA", Amount: decimal.NewFromInt(50)},
				},
			},
		},
	}

	m := New(chain, func(a poolsentinel.WalletActivity) {
		received = a
		select {
		case done <- struct{}{}:
		default:
		}
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Watch(ctx, "WalletA"))
	m.mu.Lock()
	_, subscribed := m.subIDs["WalletA"]
	m.mu.Unlock()
	assert.False(t, subscribed, "a failed subscription must not be recorded")

	// directly exercise the poll path rather than waiting out the real
	// ticker interval.
	m.pollOnce(ctx, "WalletA")

	assert.Equal(t, "WalletA", received.WalletAddress)
	assert.Equal(t, poolsentinel.ActivityBuy, received.Type)
}

var assertErr = &fakeSubError{}

type fakeSubError struct{}

func (e *fakeSubError) Error() string { return "subscriptions disabled" }
