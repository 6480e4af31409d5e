// Package alertfilter implements the alert filter (C7): a pure predicate
// deciding whether one recipient's configured thresholds permit an alert
// for a given risk verdict and enrichment facts.
package alertfilter

import (
	"time"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// AlertCategory groups the kinds of alert a recipient can toggle.
type AlertCategory string

const (
	CategoryNewPool      AlertCategory = "new_pool"
	CategoryRiskWarning  AlertCategory = "risk_warning"
	CategoryOutcome      AlertCategory = "outcome"
	CategoryWalletActivity AlertCategory = "wallet_activity"
)

// lpBurnedThreshold is the LP-burn percentage at or above which the "lpBurned"
// required flag is considered satisfied.
const lpBurnedThreshold = 80.0

// RecipientConfig is one chat/user's alert thresholds and preferences.
type RecipientConfig struct {
	AlertsDisabled   bool // true suppresses every alert for this recipient
	MinLiquidityUsd  float64
	MinHolders       int
	MinScore         int
	MaxScore         int
	// MaxTopHolderConcentrationPercent, if > 0, rejects alerts whose
	// Top10HoldersPercent exceeds it. A nil Top10HoldersPercent (no data)
	// never fails this check.
	MaxTopHolderConcentrationPercent float64
	RequireFlags       []string // e.g. "mintAuthorityRevoked", "freezeAuthorityRevoked", "lpBurned", "socials"
	BlacklistedMints   map[string]struct{}
	EnabledCategories  map[AlertCategory]bool
	QuietHoursStartUTC int // hour 0-23, inclusive
	QuietHoursEndUTC   int // hour 0-23, exclusive
	MinPriority        int
}

// ShouldAlert reports whether verdict/facts clear cfg's thresholds for
// category at the given alert priority, evaluated at "now".
func ShouldAlert(now time.Time, verdict poolsentinel.RiskVerdict, facts poolsentinel.EnrichmentFacts, category AlertCategory, priority int, cfg RecipientConfig) bool {
	if cfg.AlertsDisabled {
		return false
	}

	if cfg.BlacklistedMints != nil {
		if _, blocked := cfg.BlacklistedMints[facts.TokenMint]; blocked {
			return false
		}
	}

	if cfg.EnabledCategories != nil {
		if enabled, known := cfg.EnabledCategories[category]; known && !enabled {
			return false
		}
	}

	if inQuietHours(now, cfg.QuietHoursStartUTC, cfg.QuietHoursEndUTC) {
		return false
	}

	if facts.Liquidity.TotalLiquidityUsd < cfg.MinLiquidityUsd {
		return false
	}
	if facts.Holders.TotalHolders < cfg.MinHolders {
		return false
	}
	if cfg.MaxTopHolderConcentrationPercent > 0 && facts.Holders.Top10HoldersPercent != nil &&
		*facts.Holders.Top10HoldersPercent > cfg.MaxTopHolderConcentrationPercent {
		return false
	}
	if verdict.Score < cfg.MinScore {
		return false
	}
	if cfg.MaxScore > 0 && verdict.Score > cfg.MaxScore {
		return false
	}
	if priority < cfg.MinPriority {
		return false
	}

	for _, flag := range cfg.RequireFlags {
		if !hasFlag(facts, flag) {
			return false
		}
	}

	return true
}

func inQuietHours(now time.Time, startUTC, endUTC int) bool {
	if startUTC == endUTC {
		return false
	}
	hour := now.UTC().Hour()
	if startUTC < endUTC {
		return hour >= startUTC && hour < endUTC
	}
	// wraps past midnight, e.g. 22 -> 6
	return hour >= startUTC || hour < endUTC
}

func hasFlag(facts poolsentinel.EnrichmentFacts, flag string) bool {
	switch flag {
	case "mintAuthorityRevoked":
		return facts.Contract.MintAuthorityRevoked
	case "freezeAuthorityRevoked":
		return facts.Contract.FreezeAuthorityRevoked
	case "notHoneypot":
		return !facts.Contract.IsHoneypot
	case "lpBurned":
		return facts.Liquidity.LpBurnedPercent >= lpBurnedThreshold
	case "socials":
		return facts.Social.HasTwitter || facts.Social.HasTelegram || facts.Social.HasWebsite
	default:
		return false
	}
}
