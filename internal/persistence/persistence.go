// Package persistence implements the Persistence port (C13): a
// gorm-backed relational store for analyses, alerts, pool discoveries,
// token outcomes, and ML samples, generalized from a single-table
// recorder into the five tables the pipeline needs.
package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// AnalysisRecord is one completed enrichment+classification run.
type AnalysisRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	TokenMint string    `gorm:"index;not null"`
	Score     int       `gorm:"not null"`
	Level     string    `gorm:"not null"`
	FactsJSON string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
}

func (AnalysisRecord) TableName() string { return "analyses" }

// AlertRecord is one dispatched (or attempted) alert.
type AlertRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ChatID    string    `gorm:"index;not null"`
	TokenMint string    `gorm:"index;not null"`
	Kind      string    `gorm:"not null"`
	Delivered bool      `gorm:"not null"`
	Error     string    `gorm:"type:text"`
	SentAt    time.Time `gorm:"index;autoCreateTime"`
}

func (AlertRecord) TableName() string { return "alerts" }

// PoolDiscoveryRecord is one emitted PoolEvent, recorded for audit/replay.
type PoolDiscoveryRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	PoolAddress  string    `gorm:"uniqueIndex;not null"`
	TokenMint    string    `gorm:"index;not null"`
	Source       string    `gorm:"not null"`
	DiscoveredAt time.Time `gorm:"index;not null"`
}

func (PoolDiscoveryRecord) TableName() string { return "pool_discoveries" }

// TokenOutcomeRecord is one tracked token's initial snapshot and, once
// resolved, its terminal classification.
type TokenOutcomeRecord struct {
	ID               uint       `gorm:"primaryKey;autoIncrement"`
	TokenMint        string     `gorm:"uniqueIndex;not null"`
	InitialPrice     float64    `gorm:"not null"`
	InitialLiquidity float64    `gorm:"not null"`
	PeakPrice        float64
	FinalPrice       float64
	Label            string
	Confidence       float64
	Pending          bool      `gorm:"index;not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	ResolvedAt       *time.Time
}

func (TokenOutcomeRecord) TableName() string { return "token_outcomes" }

// MLSampleRecord is one denormalized feature/label row for the (out-of-scope)
// training pipeline to read.
type MLSampleRecord struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement"`
	TokenMint           string    `gorm:"index;not null"`
	TotalLiquidityUsd   float64   `gorm:"not null"`
	LpBurnedPercent     float64   `gorm:"not null"`
	TotalHolders        int       `gorm:"not null"`
	Top10HoldersPercent *float64
	MintAuthorityRevoked bool     `gorm:"not null"`
	RiskScore           int       `gorm:"not null"`
	OutcomeLabel        string    `gorm:"not null"`
	Confidence          float64   `gorm:"not null"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
}

func (MLSampleRecord) TableName() string { return "ml_samples" }

// Store implements the Persistence port over GORM/MySQL.
type Store struct {
	db *gorm.DB
}

// New opens dsn and auto-migrates every table the port needs.
// dsn format: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: connect to MySQL: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing *gorm.DB (used by tests against sqlmock).
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&AnalysisRecord{},
		&AlertRecord{},
		&PoolDiscoveryRecord{},
		&TokenOutcomeRecord{},
		&MLSampleRecord{},
	); err != nil {
		return nil, fmt.Errorf("persistence: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveAnalysis persists one completed risk verdict.
func (s *Store) SaveAnalysis(ctx context.Context, verdict poolsentinel.RiskVerdict, factsJSON string) error {
	record := AnalysisRecord{
		TokenMint: verdict.TokenMint,
		Score:     verdict.Score,
		Level:     string(verdict.Level),
		FactsJSON: factsJSON,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("persistence: save analysis: %w", err)
	}
	return nil
}

// SaveAlert persists one dispatched (or failed) alert attempt.
func (s *Store) SaveAlert(ctx context.Context, chatID, tokenMint, kind string, delivered bool, errMsg string) error {
	record := AlertRecord{ChatID: chatID, TokenMint: tokenMint, Kind: kind, Delivered: delivered, Error: errMsg}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("persistence: save alert: %w", err)
	}
	return nil
}

// WasAlertSent reports whether chatID received a kind alert for tokenMint
// within the last withinSec seconds.
func (s *Store) WasAlertSent(ctx context.Context, tokenMint, chatID, kind string, withinSec int64) (bool, error) {
	var count int64
	since := time.Now().Add(-time.Duration(withinSec) * time.Second)
	err := s.db.WithContext(ctx).Model(&AlertRecord{}).
		Where("chat_id = ? AND token_mint = ? AND kind = ? AND sent_at >= ? AND delivered = ?", chatID, tokenMint, kind, since, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("persistence: was alert sent: %w", err)
	}
	return count > 0, nil
}

// GetRecentAnalyses returns up to limit analyses created since sinceMs
// (unix millis), newest first.
func (s *Store) GetRecentAnalyses(ctx context.Context, sinceMs int64, limit int) ([]AnalysisRecord, error) {
	since := time.UnixMilli(sinceMs)
	var records []AnalysisRecord
	err := s.db.WithContext(ctx).Where("created_at >= ?", since).
		Order("created_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("persistence: get recent analyses: %w", err)
	}
	return records, nil
}

// SaveTokenOutcomeInitial records a tracked token's starting snapshot.
func (s *Store) SaveTokenOutcomeInitial(ctx context.Context, tokenMint string, initialPrice, initialLiquidity float64) error {
	record := TokenOutcomeRecord{
		TokenMint:        tokenMint,
		InitialPrice:     initialPrice,
		InitialLiquidity: initialLiquidity,
		Pending:          true,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("persistence: save token outcome initial: %w", err)
	}
	return nil
}

// SaveTokenOutcomeFinal resolves a pending token outcome with its terminal
// classification.
func (s *Store) SaveTokenOutcomeFinal(ctx context.Context, outcome poolsentinel.TokenOutcome) error {
	now := time.Now()
	updates := map[string]any{
		"peak_price":  outcome.PeakPrice,
		"final_price": outcome.FinalPrice,
		"label":       string(outcome.Label),
		"confidence":  outcome.Confidence,
		"pending":     false,
		"resolved_at": &now,
	}
	err := s.db.WithContext(ctx).Model(&TokenOutcomeRecord{}).
		Where("token_mint = ?", outcome.TokenMint).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("persistence: save token outcome final: %w", err)
	}
	return nil
}

// GetPendingOutcomes returns every token outcome still awaiting resolution.
func (s *Store) GetPendingOutcomes(ctx context.Context) ([]TokenOutcomeRecord, error) {
	var records []TokenOutcomeRecord
	err := s.db.WithContext(ctx).Where("pending = ?", true).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("persistence: get pending outcomes: %w", err)
	}
	return records, nil
}

// SaveMLSample persists one denormalized feature/label row.
func (s *Store) SaveMLSample(ctx context.Context, sample poolsentinel.MLSample) error {
	record := MLSampleRecord{
		TokenMint:            sample.TokenMint,
		TotalLiquidityUsd:    sample.TotalLiquidityUsd,
		LpBurnedPercent:      sample.LpBurnedPercent,
		TotalHolders:         sample.TotalHolders,
		Top10HoldersPercent:  sample.Top10HoldersPercent,
		MintAuthorityRevoked: sample.MintAuthorityRevoked,
		RiskScore:            sample.RiskScore,
		OutcomeLabel:         string(sample.OutcomeLabel),
		Confidence:           sample.Confidence,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("persistence: save ml sample: %w", err)
	}
	return nil
}

// SavePoolDiscovery records one emitted PoolEvent for audit/replay.
func (s *Store) SavePoolDiscovery(ctx context.Context, event poolsentinel.PoolEvent) error {
	record := PoolDiscoveryRecord{
		PoolAddress:  event.PoolAddress,
		TokenMint:    event.TokenMint,
		Source:       string(event.Source),
		DiscoveredAt: event.DiscoveredAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("persistence: save pool discovery: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("persistence: get underlying DB: %w", err)
	}
	return sqlDB.Close()
}
