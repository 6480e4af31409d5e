package chainrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// Client is the HTTP JSON-RPC implementation of Port. Unary calls go over
// net/http; log subscriptions are handled by the companion logSubscriber
// in ws.go, which Client delegates to.
type Client struct {
	rpcURL string
	http   *http.Client
	subs   *logSubscriber
	log    zerolog.Logger
}

// New builds a Client dialing rpcURL for unary calls and wsURL for log
// subscriptions.
func New(rpcURL, wsURL string, logger zerolog.Logger) *Client {
	return &Client{
		rpcURL: rpcURL,
		http:   &http.Client{Timeout: 15 * time.Second},
		subs:   newLogSubscriber(wsURL, logger),
		log:    logger,
	}
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	reqBody, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("chainrpc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("chainrpc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return poolsentinel.Classify(poolsentinel.KindTransient, fmt.Errorf("chainrpc: %s: %w", method, err))
	}
	defer resp.Body.Close()

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("chainrpc: %s: decode response: %w", method, err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("chainrpc: %s: rpc error %d: %s", method, parsed.Error.Code, parsed.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(parsed.Result, out); err != nil {
		return fmt.Errorf("chainrpc: %s: decode result: %w", method, err)
	}
	return nil
}

// GetSlot returns the most recent confirmed slot.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.call(ctx, "getSlot", nil, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// GetSignaturesForAddress returns up to limit recent transaction
// signatures touching addr, newest first.
func (c *Client) GetSignaturesForAddress(ctx context.Context, addr string, limit int) ([]string, error) {
	if _, err := base58.Decode(addr); err != nil {
		return nil, poolsentinel.Classify(poolsentinel.KindValidation, fmt.Errorf("chainrpc: invalid address %q: %w", addr, err))
	}

	var raw []struct {
		Signature string `json:"signature"`
	}
	if err := c.call(ctx, "getSignaturesForAddress", []any{addr, map[string]any{"limit": limit}}, &raw); err != nil {
		return nil, err
	}
	sigs := make([]string, 0, len(raw))
	for _, r := range raw {
		sigs = append(sigs, r.Signature)
	}
	return sigs, nil
}

// GetParsedTransaction fetches and decodes one transaction by signature.
func (c *Client) GetParsedTransaction(ctx context.Context, signature string) (*Tx, error) {
	var tx Tx
	params := []any{signature, map[string]any{"encoding": "jsonParsed", "maxSupportedTransactionVersion": 0}}
	if err := c.call(ctx, "getTransaction", params, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// OnLogs delegates to the WebSocket log subscriber.
func (c *Client) OnLogs(ctx context.Context, addr string, cb func(Log)) (string, error) {
	return c.subs.subscribe(ctx, addr, cb)
}

// RemoveOnLogsListener delegates to the WebSocket log subscriber.
func (c *Client) RemoveOnLogsListener(ctx context.Context, subID string) error {
	return c.subs.unsubscribe(subID)
}

// GetTokenHolders returns the largest token accounts of mint and each
// one's percent of the combined balance of the returned accounts (not of
// total supply).
func (c *Client) GetTokenHolders(ctx context.Context, mint string) ([]HolderBalance, error) {
	var raw []struct {
		Owner  string `json:"owner"`
		Amount string `json:"amount"`
	}
	if err := c.call(ctx, "getTokenLargestAccounts", []any{mint}, &raw); err != nil {
		return nil, err
	}

	total := decimal.Zero
	amounts := make([]decimal.Decimal, len(raw))
	for i, r := range raw {
		d, err := decimal.NewFromString(r.Amount)
		if err != nil {
			continue
		}
		amounts[i] = d
		total = total.Add(d)
	}

	holders := make([]HolderBalance, 0, len(raw))
	for i, r := range raw {
		pct := 0.0
		if total.IsPositive() {
			pct, _ = amounts[i].Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		holders = append(holders, HolderBalance{Owner: r.Owner, Amount: amounts[i], Percent: pct})
	}
	return holders, nil
}

// GetTokenInfo fetches mint-level metadata and authority state.
func (c *Client) GetTokenInfo(ctx context.Context, mint string) (*TokenInfo, error) {
	var raw struct {
		Decimals       int32  `json:"decimals"`
		Supply         string `json:"supply"`
		MintAuthority  *string `json:"mintAuthority"`
		FreezeAuthority *string `json:"freezeAuthority"`
	}
	if err := c.call(ctx, "getTokenSupply", []any{mint}, &raw); err != nil {
		return nil, err
	}

	supply, err := decimal.NewFromString(raw.Supply)
	if err != nil {
		supply = decimal.Zero
	}

	return &TokenInfo{
		Mint:                   mint,
		Decimals:               raw.Decimals,
		Supply:                 supply,
		MintAuthorityRevoked:   raw.MintAuthority == nil,
		FreezeAuthorityRevoked: raw.FreezeAuthority == nil,
	}, nil
}
