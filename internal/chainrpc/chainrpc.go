// Package chainrpc implements the read-only Chain RPC port against a
// Solana-flavored JSON-RPC and WebSocket endpoint: slots, signatures,
// parsed transactions, log subscriptions, token holders, and token info.
package chainrpc

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Log is one log-subscription notification.
type Log struct {
	Signature string   `json:"signature"`
	ProgramID string   `json:"programId"`
	Logs      []string `json:"logs"`
	Slot      uint64   `json:"slot"`
}

// TokenBalance is one pre/post token-balance entry on a parsed transaction.
type TokenBalance struct {
	Owner    string          `json:"owner"`
	Mint     string          `json:"mint"`
	Amount   decimal.Decimal `json:"amount"`
	Decimals int32           `json:"decimals"`
}

// Instruction is one parsed instruction within a transaction.
type Instruction struct {
	ProgramID string         `json:"programId"`
	Accounts  []string       `json:"accounts"`
	Data      map[string]any `json:"data,omitempty"`
}

// Tx is a parsed transaction, enough of one for wallet-activity and
// pool-discovery classification.
type Tx struct {
	Signature    string         `json:"signature"`
	Slot         uint64         `json:"slot"`
	BlockTime    time.Time      `json:"blockTime"`
	Instructions []Instruction  `json:"instructions"`
	PreBalances  []TokenBalance `json:"preTokenBalances"`
	PostBalances []TokenBalance `json:"postTokenBalances"`
	Err          string         `json:"err,omitempty"`
}

// HolderBalance is one entry from GetTokenHolders.
type HolderBalance struct {
	Owner   string          `json:"owner"`
	Amount  decimal.Decimal `json:"amount"`
	Percent float64         `json:"percent"`
}

// TokenInfo is the mint-level metadata GetTokenInfo returns.
type TokenInfo struct {
	Mint                   string `json:"mint"`
	Decimals               int32  `json:"decimals"`
	Supply                 decimal.Decimal `json:"supply"`
	MintAuthorityRevoked   bool   `json:"mintAuthorityRevoked"`
	FreezeAuthorityRevoked bool   `json:"freezeAuthorityRevoked"`
}

// Port is the read-only interface the rest of the pipeline depends on.
// chainrpc.Client is its concrete implementation; tests substitute a fake.
type Port interface {
	GetSlot(ctx context.Context) (uint64, error)
	GetSignaturesForAddress(ctx context.Context, addr string, limit int) ([]string, error)
	GetParsedTransaction(ctx context.Context, signature string) (*Tx, error)
	OnLogs(ctx context.Context, addr string, cb func(Log)) (string, error)
	RemoveOnLogsListener(ctx context.Context, subID string) error
	GetTokenHolders(ctx context.Context, mint string) ([]HolderBalance, error)
	GetTokenInfo(ctx context.Context, mint string) (*TokenInfo, error)
}
