// Package aggregator implements the Aggregator HTTP port: a thin typed
// wrapper over internal/httpclient exposing a DEX aggregator's token, pair,
// and search endpoints.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/nova-labs/poolsentinel/internal/httpclient"
)

// PairStats is the market-facing facts one aggregator pair lookup returns.
type PairStats struct {
	PriceUsd          float64 `json:"priceUsd"`
	LiquidityUsd      float64 `json:"liquidityUsd"`
	Volume24hUsd      float64 `json:"volume24hUsd"`
	HasTwitter        bool    `json:"hasTwitter"`
	HasTelegram       bool    `json:"hasTelegram"`
	HasWebsite        bool    `json:"hasWebsite"`
}

// Port is the Aggregator HTTP port the enrichment and outcome-tracking
// stages depend on.
type Port interface {
	GetTokenPairs(ctx context.Context, mint string) ([]PairStats, error)
	GetPair(ctx context.Context, chain, pairAddr string) (*PairStats, error)
	Search(ctx context.Context, query string) ([]PairStats, error)
}

// Client implements Port over a shared resilient httpclient.Client.
type Client struct {
	http *httpclient.Client
}

// New builds a Client over an already-configured resilient HTTP client.
func New(http *httpclient.Client) *Client {
	return &Client{http: http}
}

// GetTokenPairs returns every known trading pair for mint.
func (c *Client) GetTokenPairs(ctx context.Context, mint string) ([]PairStats, error) {
	path := fmt.Sprintf("/tokens/%s", mint)
	pairs, err := httpclient.Get(ctx, c.http, path, httpclient.GetOptions[[]PairStats]{
		Cache:     true,
		CacheTTL:  30 * time.Second,
		Validator: httpclient.HasFields("pairs"),
		Transform: transformPairList,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregator: get token pairs: %w", err)
	}
	return pairs, nil
}

// GetPair returns one specific pair's stats.
func (c *Client) GetPair(ctx context.Context, chain, pairAddr string) (*PairStats, error) {
	path := fmt.Sprintf("/pairs/%s/%s", chain, pairAddr)
	pairs, err := httpclient.Get(ctx, c.http, path, httpclient.GetOptions[[]PairStats]{
		Cache:     true,
		CacheTTL:  30 * time.Second,
		Validator: httpclient.HasFields("pairs"),
		Transform: transformPairList,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregator: get pair: %w", err)
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	return &pairs[0], nil
}

// Search looks up pairs matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]PairStats, error) {
	path := fmt.Sprintf("/search?q=%s", query)
	pairs, err := httpclient.Get(ctx, c.http, path, httpclient.GetOptions[[]PairStats]{
		Validator: httpclient.HasFields("pairs"),
		Transform: transformPairList,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregator: search: %w", err)
	}
	return pairs, nil
}

func transformPairList(payload any) ([]PairStats, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("aggregator: unexpected payload shape")
	}
	rawPairs, ok := m["pairs"].([]any)
	if !ok {
		return nil, nil
	}

	out := make([]PairStats, 0, len(rawPairs))
	for _, rp := range rawPairs {
		entry, ok := rp.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, PairStats{
			PriceUsd:     floatField(entry, "priceUsd"),
			LiquidityUsd: nestedFloatField(entry, "liquidity", "usd"),
			Volume24hUsd: nestedFloatField(entry, "volume", "h24"),
			HasTwitter:   hasInfoLink(entry, "twitter"),
			HasTelegram:  hasInfoLink(entry, "telegram"),
			HasWebsite:   hasInfoLink(entry, "website"),
		})
	}
	return out, nil
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		fmt.Sscanf(v, "%f", &f)
		return f
	default:
		return 0
	}
}

func nestedFloatField(m map[string]any, outer, inner string) float64 {
	nested, ok := m[outer].(map[string]any)
	if !ok {
		return 0
	}
	return floatField(nested, inner)
}

func hasInfoLink(m map[string]any, kind string) bool {
	info, ok := m["info"].(map[string]any)
	if !ok {
		return false
	}
	links, ok := info["socials"].([]any)
	if !ok {
		return false
	}
	for _, l := range links {
		entry, ok := l.(map[string]any)
		if !ok {
			continue
		}
		if entry["type"] == kind {
			return true
		}
	}
	return false
}
