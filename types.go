// Package poolsentinel holds the shared domain types for the pool discovery
// and risk-alerting pipeline: pool events, enrichment facts, risk verdicts,
// and the tracked-token/outcome records used for post-discovery analysis.
package poolsentinel

import (
	"errors"
	"time"
)

// PoolSource identifies which adapter discovered a pool.
type PoolSource string

const (
	SourceRaydium PoolSource = "raydium"
	SourcePumpfun PoolSource = "pumpfun"
	SourceJupiter PoolSource = "jupiter"
)

// PoolEvent is emitted once per newly discovered pool. It is immutable
// after emission and unique by PoolAddress.
type PoolEvent struct {
	PoolAddress  string     `json:"poolAddress"`
	TokenMint    string     `json:"tokenMint"`
	BaseMint     string     `json:"baseMint"`
	QuoteMint    string     `json:"quoteMint"`
	Source       PoolSource `json:"source"`
	DiscoveredAt time.Time  `json:"discoveredAt"`
}

// Validate enforces the invariants PoolEvent must satisfy before it can
// enter the analysis queue.
func (p PoolEvent) Validate() error {
	if p.PoolAddress == "" {
		return errors.New("pool event: poolAddress is required")
	}
	if p.TokenMint == "" {
		return errors.New("pool event: tokenMint is required")
	}
	if p.Source == "" {
		return errors.New("pool event: source is required")
	}
	if p.TokenMint == p.QuoteMint {
		return errors.New("pool event: tokenMint must not equal quoteMint")
	}
	return nil
}

// LiquidityFacts describes a token's liquidity-pool health.
type LiquidityFacts struct {
	TotalLiquidityUsd float64 `json:"totalLiquidityUsd"`
	LpBurnedPercent   float64 `json:"lpBurnedPercent"`
	LpLockedPercent   float64 `json:"lpLockedPercent"`
	LpLockDurationSec *int64  `json:"lpLockDurationSec,omitempty"`
}

// HolderFacts describes a token's holder distribution.
//
// Top10HoldersPercent and Top20HoldersPercent are nil when the upstream
// holder-list query failed; a nil value means
// "no data", never zero (see risk classification §4.6).
type HolderFacts struct {
	TotalHolders         int      `json:"totalHolders"`
	Top10HoldersPercent  *float64 `json:"top10HoldersPercent,omitempty"`
	Top20HoldersPercent  *float64 `json:"top20HoldersPercent,omitempty"`
	LargestHolderPercent *float64 `json:"largestHolderPercent,omitempty"`
	WhaleAddresses       []string `json:"whaleAddresses,omitempty"`
}

// ContractFacts describes a token mint's on-chain authority and safety flags.
type ContractFacts struct {
	MintAuthorityRevoked   bool     `json:"mintAuthorityRevoked"`
	FreezeAuthorityRevoked bool     `json:"freezeAuthorityRevoked"`
	IsHoneypot             bool     `json:"isHoneypot"`
	HasTransferFee         bool     `json:"hasTransferFee"`
	TransferFeePercent     *float64 `json:"transferFeePercent,omitempty"`
}

// SocialFacts records which off-chain presence signals were found.
type SocialFacts struct {
	HasTwitter  bool `json:"hasTwitter"`
	HasTelegram bool `json:"hasTelegram"`
	HasWebsite  bool `json:"hasWebsite"`
}

// EnrichmentFacts is the read-only output of the enrichment stage (C5) for
// a single token mint. Produced once per analysis.
type EnrichmentFacts struct {
	TokenMint     string         `json:"tokenMint"`
	Liquidity     LiquidityFacts `json:"liquidity"`
	Holders       HolderFacts    `json:"holders"`
	Contract      ContractFacts  `json:"contract"`
	Social        SocialFacts    `json:"social"`
	RugcheckScore *float64       `json:"rugcheckScore,omitempty"`
	FetchedAt     time.Time      `json:"fetchedAt"`
}

// RiskLevel is the banded classification derived from RiskVerdict.Score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
	RiskExtreme  RiskLevel = "EXTREME"
)

// RiskFactor is one named, signed contribution to a RiskVerdict's score.
type RiskFactor struct {
	Name        string `json:"name"`
	Impact      int    `json:"impact"`
	Passed      bool   `json:"passed"`
	Description string `json:"description"`
}

// RiskVerdict is the deterministic output of the risk classifier (C6).
type RiskVerdict struct {
	TokenMint string       `json:"tokenMint"`
	Score     int          `json:"score"`
	Level     RiskLevel    `json:"level"`
	Factors   []RiskFactor `json:"factors"`
}

// TrackedToken is the outcome tracker's (C9) mutable per-token state. Only
// the tracker's own update loop may mutate it.
type TrackedToken struct {
	Mint             string    `json:"mint"`
	Symbol           string    `json:"symbol"`
	InitialPrice     float64   `json:"initialPrice"`
	InitialLiquidity float64   `json:"initialLiquidity"`
	InitialHolders   int       `json:"initialHolders"`
	InitialRiskScore int       `json:"initialRiskScore"`
	PeakPrice        float64   `json:"peakPrice"`
	PeakLiquidity    float64   `json:"peakLiquidity"`
	PeakHolders      int       `json:"peakHolders"`
	PeakAt           time.Time `json:"peakAt"`
	CurrentPrice     float64   `json:"currentPrice"`
	CurrentLiquidity float64   `json:"currentLiquidity"`
	CurrentHolders   int       `json:"currentHolders"`
	DiscoveredAt     time.Time `json:"discoveredAt"`
	UpdateCount      int       `json:"updateCount"`
}

// OutcomeLabel is the terminal classification a tracked token resolves to.
type OutcomeLabel string

const (
	OutcomeRug         OutcomeLabel = "rug"
	OutcomePump        OutcomeLabel = "pump"
	OutcomeStable      OutcomeLabel = "stable"
	OutcomeSlowDecline OutcomeLabel = "slow_decline"
	OutcomeUnknown     OutcomeLabel = "unknown"
)

// TokenOutcome is an immutable record of how a tracked token resolved.
type TokenOutcome struct {
	TokenMint        string       `json:"tokenMint"`
	Label            OutcomeLabel `json:"label"`
	Confidence       float64      `json:"confidence"`
	PeakMultiplier   float64      `json:"peakMultiplier"`
	TimeToPeakSec    int64        `json:"timeToPeakSec"`
	TimeToOutcomeSec int64        `json:"timeToOutcomeSec"`
	InitialPrice     float64      `json:"initialPrice"`
	PeakPrice        float64      `json:"peakPrice"`
	FinalPrice       float64      `json:"finalPrice"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// MLSample is a denormalized row joining a finalized TokenOutcome with the
// EnrichmentFacts and RiskVerdict that produced it, giving the (out-of-scope)
// training pipeline a stable read surface.
type MLSample struct {
	TokenMint            string       `json:"tokenMint"`
	TotalLiquidityUsd    float64      `json:"totalLiquidityUsd"`
	LpBurnedPercent      float64      `json:"lpBurnedPercent"`
	TotalHolders         int          `json:"totalHolders"`
	Top10HoldersPercent  *float64     `json:"top10HoldersPercent,omitempty"`
	MintAuthorityRevoked bool         `json:"mintAuthorityRevoked"`
	RiskScore            int          `json:"riskScore"`
	OutcomeLabel         OutcomeLabel `json:"outcomeLabel"`
	Confidence           float64      `json:"confidence"`
	CreatedAt            time.Time    `json:"createdAt"`
}

// WalletActivityType classifies a WalletActivity.
type WalletActivityType string

const (
	ActivityBuy      WalletActivityType = "buy"
	ActivitySell     WalletActivityType = "sell"
	ActivityTransfer WalletActivityType = "transfer"
)

// WalletActivity is one classified transaction touching a monitored wallet.
type WalletActivity struct {
	WalletAddress string             `json:"walletAddress"`
	TokenMint     string             `json:"tokenMint"`
	Type          WalletActivityType `json:"type"`
	Amount        float64            `json:"amount"`
	SolAmount     float64            `json:"solAmount"`
	Signature     string             `json:"signature"`
	Timestamp     time.Time          `json:"timestamp"`
}

// CooldownEntry tracks the last alert sent for one (chat, token) pair.
type CooldownEntry struct {
	LastAlertTime time.Time `json:"lastAlertTime"`
	AlertCount    int       `json:"alertCount"`
	HourStartTime time.Time `json:"hourStartTime"`
}

// ClientStats are the process-lifetime counters for one named HTTP client.
type ClientStats struct {
	Name         string `json:"name"`
	Requests     int64  `json:"requests"`
	Successes    int64  `json:"successes"`
	Failures     int64  `json:"failures"`
	Retries      int64  `json:"retries"`
	CacheHits    int64  `json:"cacheHits"`
	CircuitOpens int64  `json:"circuitOpens"`
}
