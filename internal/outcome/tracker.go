// Package outcome implements the outcome tracker (C9): it periodically
// polls every tracked token's current market facts, updates running
// peak/current state, and classifies resolved tokens into
// {rug, pump, stable, slow_decline, unknown}.
package outcome

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/internal/aggregator"
	"github.com/nova-labs/poolsentinel/internal/persistence"
)

const (
	maxTrackedTokens  = 500
	monitoringWindow  = 48 * time.Hour
	batchSize         = 30
	earlyRugWindow    = 10 * time.Minute
	earlyRugThreshold = 0.9 // 90% liquidity drop within earlyRugWindow

	rugLiquidityRatio    = 0.20
	rugFinalPriceRatio   = 0.10
	pumpPeakMultiplier   = 2.0
	stableFinalRatioBand = 0.30

	missingMarketDataConfidence = 0.8
)

// Tracker owns the tracked-token map and the polling loop that resolves
// outcomes.
type Tracker struct {
	agg   aggregator.Port
	store *persistence.Store
	log   zerolog.Logger

	mu      sync.RWMutex
	tracked map[string]*poolsentinel.TrackedToken
}

// New builds a Tracker over the aggregator port and persistence store.
func New(agg aggregator.Port, store *persistence.Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		agg:     agg,
		store:   store,
		log:     logger,
		tracked: make(map[string]*poolsentinel.TrackedToken),
	}
}

// Track begins tracking mint at its initial facts, evicting nothing if
// under capacity; if at capacity, the new token is simply not tracked and
// a warning is logged (bounded resource, best-effort coverage).
func (t *Tracker) Track(ctx context.Context, mint string, initialPrice, initialLiquidity float64, initialHolders, initialRiskScore int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.tracked) >= maxTrackedTokens {
		t.log.Warn().Str("mint", mint).Msg("tracked-token table full, skipping new token")
		return
	}

	now := time.Now()
	t.tracked[mint] = &poolsentinel.TrackedToken{
		Mint:             mint,
		InitialPrice:     initialPrice,
		InitialLiquidity: initialLiquidity,
		InitialHolders:   initialHolders,
		InitialRiskScore: initialRiskScore,
		PeakPrice:        initialPrice,
		PeakLiquidity:    initialLiquidity,
		PeakHolders:      initialHolders,
		PeakAt:           now,
		CurrentPrice:     initialPrice,
		CurrentLiquidity: initialLiquidity,
		CurrentHolders:   initialHolders,
		DiscoveredAt:     now,
	}

	if err := t.store.SaveTokenOutcomeInitial(ctx, mint, initialPrice, initialLiquidity); err != nil {
		t.log.Warn().Err(err).Str("mint", mint).Msg("failed to persist initial token outcome snapshot")
	}
}

// Run polls every tracked token on a ticker until ctx is canceled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.updateAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (t *Tracker) mints() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.tracked))
	for m := range t.tracked {
		out = append(out, m)
	}
	return out
}

func (t *Tracker) updateAll(ctx context.Context) {
	mints := t.mints()
	for i := 0; i < len(mints); i += batchSize {
		end := i + batchSize
		if end > len(mints) {
			end = len(mints)
		}
		for _, mint := range mints[i:end] {
			t.updateOne(ctx, mint)
		}
	}
}

func (t *Tracker) updateOne(ctx context.Context, mint string) {
	pairs, err := t.agg.GetTokenPairs(ctx, mint)
	if err != nil || len(pairs) == 0 {
		t.resolveMissingMarketData(ctx, mint)
		return
	}
	pair := pairs[0]

	t.mu.Lock()
	tracked, ok := t.tracked[mint]
	if !ok {
		t.mu.Unlock()
		return
	}
	tracked.CurrentPrice = pair.PriceUsd
	tracked.CurrentLiquidity = pair.LiquidityUsd
	tracked.UpdateCount++
	if pair.PriceUsd > tracked.PeakPrice {
		tracked.PeakPrice = pair.PriceUsd
		tracked.PeakAt = time.Now()
	}
	if pair.LiquidityUsd > tracked.PeakLiquidity {
		tracked.PeakLiquidity = pair.LiquidityUsd
	}
	snapshot := *tracked
	t.mu.Unlock()

	if t.isEarlyRug(snapshot) {
		t.resolve(ctx, mint, classify(snapshot, true))
		return
	}

	if time.Since(snapshot.DiscoveredAt) >= monitoringWindow {
		t.resolve(ctx, mint, classify(snapshot, false))
	}
}

func (t *Tracker) isEarlyRug(tok poolsentinel.TrackedToken) bool {
	if time.Since(tok.DiscoveredAt) > earlyRugWindow {
		return false
	}
	if tok.InitialLiquidity <= 0 {
		return false
	}
	drop := 1 - tok.CurrentLiquidity/tok.InitialLiquidity
	return drop >= earlyRugThreshold
}

func classify(tok poolsentinel.TrackedToken, early bool) poolsentinel.TokenOutcome {
	multiplier := 0.0
	if tok.InitialPrice > 0 {
		multiplier = tok.PeakPrice / tok.InitialPrice
	}

	liquidityRatio := 1.0
	if tok.InitialLiquidity > 0 {
		liquidityRatio = tok.CurrentLiquidity / tok.InitialLiquidity
	}
	finalRatio := 1.0
	if tok.InitialPrice > 0 {
		finalRatio = tok.CurrentPrice / tok.InitialPrice
	}

	label := poolsentinel.OutcomeUnknown
	confidence := 0.5

	switch {
	case early, liquidityRatio < rugLiquidityRatio, finalRatio < rugFinalPriceRatio:
		label = poolsentinel.OutcomeRug
		confidence = math.Min(1, ((1-liquidityRatio)+(1-finalRatio))/2)
	case multiplier >= pumpPeakMultiplier:
		label = poolsentinel.OutcomePump
		confidence = math.Min(1, (multiplier-1)/5)
	case math.Abs(1-finalRatio) <= stableFinalRatioBand:
		label = poolsentinel.OutcomeStable
		confidence = 1 - math.Abs(1-finalRatio)/stableFinalRatioBand
	case finalRatio < 1:
		label = poolsentinel.OutcomeSlowDecline
		confidence = 1 - finalRatio
	}

	return poolsentinel.TokenOutcome{
		TokenMint:        tok.Mint,
		Label:            label,
		Confidence:       confidence,
		PeakMultiplier:   multiplier,
		TimeToPeakSec:    int64(tok.PeakAt.Sub(tok.DiscoveredAt).Seconds()),
		TimeToOutcomeSec: int64(time.Since(tok.DiscoveredAt).Seconds()),
		InitialPrice:     tok.InitialPrice,
		PeakPrice:        tok.PeakPrice,
		FinalPrice:       tok.CurrentPrice,
		CreatedAt:        time.Now(),
	}
}

func (t *Tracker) resolve(ctx context.Context, mint string, outcome poolsentinel.TokenOutcome) {
	t.mu.Lock()
	delete(t.tracked, mint)
	t.mu.Unlock()

	if err := t.store.SaveTokenOutcomeFinal(ctx, outcome); err != nil {
		t.log.Warn().Err(err).Str("mint", mint).Msg("failed to persist resolved token outcome")
	}
}

// resolveMissingMarketData immediately resolves mint as a rug when its
// market data could not be fetched at all, rather than waiting out the
// rest of the monitoring window.
func (t *Tracker) resolveMissingMarketData(ctx context.Context, mint string) {
	t.mu.RLock()
	tracked, ok := t.tracked[mint]
	t.mu.RUnlock()
	if !ok {
		return
	}

	outcome := poolsentinel.TokenOutcome{
		TokenMint:        mint,
		Label:            poolsentinel.OutcomeRug,
		Confidence:       missingMarketDataConfidence,
		PeakMultiplier:   0,
		TimeToPeakSec:    int64(tracked.PeakAt.Sub(tracked.DiscoveredAt).Seconds()),
		TimeToOutcomeSec: int64(time.Since(tracked.DiscoveredAt).Seconds()),
		InitialPrice:     tracked.InitialPrice,
		PeakPrice:        tracked.PeakPrice,
		FinalPrice:       tracked.CurrentPrice,
		CreatedAt:        time.Now(),
	}
	t.resolve(ctx, mint, outcome)
}

// Get returns a snapshot of one tracked token, for tests/introspection.
func (t *Tracker) Get(mint string) (poolsentinel.TrackedToken, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tok, ok := t.tracked[mint]
	if !ok {
		return poolsentinel.TrackedToken{}, false
	}
	return *tok, true
}
