// Package enrichment implements the enrichment stage (C5): fanning out
// liquidity, holder, contract, and social fact-gathering for one token
// across the chain RPC and aggregator ports, tolerating partial failure.
package enrichment

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/internal/aggregator"
	"github.com/nova-labs/poolsentinel/internal/chainrpc"
)

const subFetchTimeout = 5 * time.Second

// Enricher fans out a single token's enrichment across chainrpc and
// aggregator ports.
type Enricher struct {
	chain chainrpc.Port
	agg   aggregator.Port
}

// New builds an Enricher over the given chain RPC and aggregator ports.
func New(chain chainrpc.Port, agg aggregator.Port) *Enricher {
	return &Enricher{chain: chain, agg: agg}
}

// Enrich gathers EnrichmentFacts for mint. Each sub-fetch degrades to its
// documented default on its own failure; Enrich only returns an error when
// the token itself could not be resolved at all (every sub-fetch failed).
func (e *Enricher) Enrich(ctx context.Context, mint string) (poolsentinel.EnrichmentFacts, error) {
	facts := poolsentinel.EnrichmentFacts{TokenMint: mint, FetchedAt: time.Now()}

	var holders []chainrpc.HolderBalance
	var tokenInfo *chainrpc.TokenInfo
	var pairs []aggregator.PairStats

	var anySucceeded bool

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, subFetchTimeout)
		defer cancel()
		result, err := e.chain.GetTokenHolders(fctx, mint)
		if err != nil {
			return nil // degrade: holders left nil
		}
		holders = result
		return nil
	})

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, subFetchTimeout)
		defer cancel()
		result, err := e.chain.GetTokenInfo(fctx, mint)
		if err != nil {
			return nil
		}
		tokenInfo = result
		return nil
	})

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, subFetchTimeout)
		defer cancel()
		result, err := e.agg.GetTokenPairs(fctx, mint)
		if err != nil {
			return nil
		}
		pairs = result
		return nil
	})

	_ = g.Wait()

	if tokenInfo != nil {
		facts.Contract.MintAuthorityRevoked = tokenInfo.MintAuthorityRevoked
		facts.Contract.FreezeAuthorityRevoked = tokenInfo.FreezeAuthorityRevoked
		anySucceeded = true
	}

	if holders != nil {
		applyHolderFacts(&facts, holders)
		anySucceeded = true
	}

	if len(pairs) > 0 {
		applyPairFacts(&facts, pairs[0])
		anySucceeded = true
	}

	if !anySucceeded {
		return facts, poolsentinel.Classify(poolsentinel.KindNotFound, errNoData(mint))
	}
	return facts, nil
}

func applyHolderFacts(facts *poolsentinel.EnrichmentFacts, holders []chainrpc.HolderBalance) {
	facts.Holders.TotalHolders = len(holders)

	var top10, top20, largest float64
	var whales []string
	for i, h := range holders {
		if i < 10 {
			top10 += h.Percent
		}
		if i < 20 {
			top20 += h.Percent
		}
		if i == 0 {
			largest = h.Percent
		}
		if h.Percent >= 5 {
			whales = append(whales, h.Owner)
		}
	}
	facts.Holders.Top10HoldersPercent = &top10
	facts.Holders.Top20HoldersPercent = &top20
	facts.Holders.LargestHolderPercent = &largest
	facts.Holders.WhaleAddresses = whales
}

func applyPairFacts(facts *poolsentinel.EnrichmentFacts, pair aggregator.PairStats) {
	facts.Liquidity.TotalLiquidityUsd = pair.LiquidityUsd
	facts.Social.HasTwitter = pair.HasTwitter
	facts.Social.HasTelegram = pair.HasTelegram
	facts.Social.HasWebsite = pair.HasWebsite
}

type noDataError struct{ mint string }

func (e *noDataError) Error() string { return "enrichment: no data available for " + e.mint }

func errNoData(mint string) error { return &noDataError{mint: mint} }
