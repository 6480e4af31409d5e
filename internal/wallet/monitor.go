// Package wallet implements the wallet-activity monitor (C10): it watches
// a configured set of wallet addresses and classifies their transactions
// into buy/sell/transfer activity, preferring a log-subscription push
// stream and falling back to polling when subscriptions are unavailable.
package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/internal/chainrpc"
)

const (
	pollSignatureLimit = 20
	pollInterval       = 15 * time.Second
)

// Handler is invoked once per classified wallet activity.
type Handler func(poolsentinel.WalletActivity)

// Monitor watches a fixed set of wallet addresses for activity.
type Monitor struct {
	chain   chainrpc.Port
	handler Handler
	log     zerolog.Logger

	mu         sync.Mutex
	processing map[string]struct{}
	subIDs     map[string]string
}

// New builds a Monitor over the Chain RPC port, invoking handler for every
// classified activity it observes.
func New(chain chainrpc.Port, handler Handler, logger zerolog.Logger) *Monitor {
	return &Monitor{
		chain:      chain,
		handler:    handler,
		log:        logger,
		processing: make(map[string]struct{}),
		subIDs:     make(map[string]string),
	}
}

// Watch begins monitoring addr: first it attempts a push subscription via
// OnLogs, falling back to a polling ticker if the subscription attempt
// fails (many RPC providers disable logsSubscribe on free tiers).
func (m *Monitor) Watch(ctx context.Context, addr string) error {
	subID, err := m.chain.OnLogs(ctx, addr, func(l chainrpc.Log) {
		m.handleSignature(ctx, addr, l.Signature)
	})
	if err == nil {
		m.mu.Lock()
		m.subIDs[addr] = subID
		m.mu.Unlock()
		return nil
	}

	m.log.Warn().Err(err).Str("wallet", addr).Msg("log subscription unavailable, falling back to polling")
	go m.pollLoop(ctx, addr)
	return nil
}

// Unwatch stops monitoring addr, removing any active subscription.
func (m *Monitor) Unwatch(ctx context.Context, addr string) {
	m.mu.Lock()
	subID, ok := m.subIDs[addr]
	delete(m.subIDs, addr)
	m.mu.Unlock()

	if ok {
		if err := m.chain.RemoveOnLogsListener(ctx, subID); err != nil {
			m.log.Warn().Err(err).Str("wallet", addr).Msg("failed to remove log listener")
		}
	}
}

func (m *Monitor) pollLoop(ctx context.Context, addr string) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.pollOnce(ctx, addr)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) pollOnce(ctx context.Context, addr string) {
	sigs, err := m.chain.GetSignaturesForAddress(ctx, addr, pollSignatureLimit)
	if err != nil {
		m.log.Warn().Err(err).Str("wallet", addr).Msg("failed to poll signatures")
		return
	}
	for _, sig := range sigs {
		m.handleSignature(ctx, addr, sig)
	}
}

func (m *Monitor) handleSignature(ctx context.Context, addr, signature string) {
	key := addr + ":" + signature
	m.mu.Lock()
	if _, inFlight := m.processing[key]; inFlight {
		m.mu.Unlock()
		return
	}
	m.processing[key] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.processing, key)
		m.mu.Unlock()
	}()

	tx, err := m.chain.GetParsedTransaction(ctx, signature)
	if err != nil || tx == nil {
		return
	}
	if tx.Err != "" {
		return
	}

	activity, ok := classify(addr, tx)
	if !ok {
		return
	}
	m.handler(activity)
}

// classify derives a WalletActivity from the pre/post token-balance
// movement of addr within tx. A positive post-minus-pre delta is a buy, a
// negative delta a sell, and a zero delta a transfer. A tx with no balance
// entry owned by addr yields no activity (false).
func classify(addr string, tx *chainrpc.Tx) (poolsentinel.WalletActivity, bool) {
	pre := balanceFor(addr, tx.PreBalances)
	post := balanceFor(addr, tx.PostBalances)
	if pre == nil && post == nil {
		return poolsentinel.WalletActivity{}, false
	}

	mint := ""
	preAmt := 0.0
	postAmt := 0.0
	if pre != nil {
		mint = pre.Mint
		preAmt, _ = pre.Amount.Float64()
	}
	if post != nil {
		mint = post.Mint
		postAmt, _ = post.Amount.Float64()
	}

	delta := postAmt - preAmt
	activityType := poolsentinel.ActivityTransfer
	switch {
	case delta > 0:
		activityType = poolsentinel.ActivityBuy
	case delta < 0:
		activityType = poolsentinel.ActivitySell
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}

	return poolsentinel.WalletActivity{
		WalletAddress: addr,
		TokenMint:     mint,
		Type:          activityType,
		Amount:        amount,
		Signature:     tx.Signature,
		Timestamp:     tx.BlockTime,
	}, true
}

func balanceFor(addr string, balances []chainrpc.TokenBalance) *chainrpc.TokenBalance {
	for i := range balances {
		if balances[i].Owner == addr {
			return &balances[i]
		}
	}
	return nil
}
