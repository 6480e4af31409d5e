package poolsource

import (
	"context"
	"encoding/json"
	"time"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/internal/httpclient"
)

// ParseRaydiumLogFrame extracts a PoolEvent from a logsSubscribe
// notification carrying a Raydium pool-initialization instruction. Raydium
// itself does not push a dedicated "new pool" event; pool creation is
// inferred from the account addresses Raydium's AMM program logs on
// initialize2.
func ParseRaydiumLogFrame(raw []byte) (poolsentinel.PoolEvent, bool) {
	var notif struct {
		Params struct {
			Result struct {
				Value struct {
					Signature string `json:"signature"`
					Logs      []string
					Accounts  struct {
						Pool      string `json:"pool"`
						TokenMint string `json:"tokenMint"`
						BaseMint  string `json:"baseMint"`
						QuoteMint string `json:"quoteMint"`
					} `json:"accounts"`
				} `json:"value"`
			} `json:"result"`
		} `json:"params"`
	}
	if err := json.Unmarshal(raw, &notif); err != nil {
		return poolsentinel.PoolEvent{}, false
	}
	acc := notif.Params.Result.Value.Accounts
	if acc.Pool == "" || acc.TokenMint == "" {
		return poolsentinel.PoolEvent{}, false
	}
	return poolsentinel.PoolEvent{
		PoolAddress:  acc.Pool,
		TokenMint:    acc.TokenMint,
		BaseMint:     acc.BaseMint,
		QuoteMint:    acc.QuoteMint,
		Source:       poolsentinel.SourceRaydium,
		DiscoveredAt: time.Now(),
	}, true
}

// decodeAs re-marshals the loosely-typed JSON payload httpclient decoded
// and re-decodes it into T, since the client's default transform requires
// an exact type assertion that a generic `any` decode can never satisfy.
func decodeAs[T any](payload any) (T, error) {
	var zero T
	raw, err := json.Marshal(payload)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type pumpfunCoin struct {
	Mint          string `json:"mint"`
	BondingCurve  string `json:"bondingCurve"`
	RaydiumPool   string `json:"raydiumPool"`
	VirtualSolQty string `json:"virtualSolReserves"`
}

// FetchPumpfunNewPools polls the Pump.fun "newly created" coin listing and
// maps each entry to a PoolEvent, keyed by the coin's Raydium pool when it
// has one and otherwise by its bonding curve (its pool-equivalent before it
// graduates to Raydium).
func FetchPumpfunNewPools(ctx context.Context, http *httpclient.Client) ([]poolsentinel.PoolEvent, error) {
	coins, err := httpclient.Get(ctx, http, "/coins/newly-created?limit=50", httpclient.GetOptions[[]pumpfunCoin]{
		Cache:     true,
		CacheTTL:  5 * time.Second,
		Transform: decodeAs[[]pumpfunCoin],
	})
	if err != nil {
		return nil, err
	}

	out := make([]poolsentinel.PoolEvent, 0, len(coins))
	for _, c := range coins {
		poolAddr := c.RaydiumPool
		if poolAddr == "" {
			poolAddr = c.BondingCurve
		}
		if poolAddr == "" || c.Mint == "" {
			continue
		}
		out = append(out, poolsentinel.PoolEvent{
			PoolAddress:  poolAddr,
			TokenMint:    c.Mint,
			Source:       poolsentinel.SourcePumpfun,
			DiscoveredAt: time.Now(),
		})
	}
	return out, nil
}

type jupiterPool struct {
	ID        string `json:"id"`
	BaseMint  string `json:"baseMint"`
	QuoteMint string `json:"quoteMint"`
}

// FetchJupiterNewPools polls Jupiter's recently-indexed pool listing.
func FetchJupiterNewPools(ctx context.Context, http *httpclient.Client) ([]poolsentinel.PoolEvent, error) {
	pools, err := httpclient.Get(ctx, http, "/pools/new?limit=50", httpclient.GetOptions[[]jupiterPool]{
		Cache:     true,
		CacheTTL:  5 * time.Second,
		Transform: decodeAs[[]jupiterPool],
	})
	if err != nil {
		return nil, err
	}

	out := make([]poolsentinel.PoolEvent, 0, len(pools))
	for _, p := range pools {
		if p.ID == "" || p.BaseMint == "" {
			continue
		}
		out = append(out, poolsentinel.PoolEvent{
			PoolAddress:  p.ID,
			TokenMint:    p.BaseMint,
			BaseMint:     p.BaseMint,
			QuoteMint:    p.QuoteMint,
			Source:       poolsentinel.SourceJupiter,
			DiscoveredAt: time.Now(),
		})
	}
	return out, nil
}
