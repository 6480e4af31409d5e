// Package risk implements the deterministic risk classifier (C6): a pure
// function turning EnrichmentFacts into a bounded, explainable RiskVerdict.
package risk

import (
	poolsentinel "github.com/nova-labs/poolsentinel"
)

const baseScore = 50

// Classify turns facts into a RiskVerdict. It is a pure function: same
// input always produces the same output, with an ordered, explainable
// factor list.
func Classify(facts poolsentinel.EnrichmentFacts) poolsentinel.RiskVerdict {
	if facts.Contract.IsHoneypot {
		return poolsentinel.RiskVerdict{
			TokenMint: facts.TokenMint,
			Score:     0,
			Level:     poolsentinel.RiskExtreme,
			Factors: []poolsentinel.RiskFactor{{
				Name:        "honeypot",
				Impact:      -baseScore,
				Passed:      false,
				Description: "token contract blocks sells",
			}},
		}
	}

	score := baseScore
	var factors []poolsentinel.RiskFactor

	add := func(name string, impact int, passed bool, desc string) {
		score += impact
		factors = append(factors, poolsentinel.RiskFactor{
			Name:        name,
			Impact:      impact,
			Passed:      passed,
			Description: desc,
		})
	}

	if facts.Liquidity.LpBurnedPercent >= 90 {
		add("lp_burned", 15, true, "liquidity provider tokens are burned")
	}
	if facts.Liquidity.LpLockedPercent >= 90 {
		impact := 10
		if facts.Liquidity.LpLockDurationSec != nil && *facts.Liquidity.LpLockDurationSec < int64(30*24*3600) {
			impact = 5
		}
		add("lp_locked", impact, true, "liquidity provider tokens are locked")
	}

	if facts.Contract.MintAuthorityRevoked {
		add("mint_authority_revoked", 10, true, "mint authority has been revoked")
	} else {
		add("mint_authority_active", -15, false, "mint authority can still create new supply")
	}

	if facts.Contract.FreezeAuthorityRevoked {
		add("freeze_authority_revoked", 10, true, "freeze authority has been revoked")
	} else {
		add("freeze_authority_active", -15, false, "freeze authority could halt transfers")
	}

	if top10 := facts.Holders.Top10HoldersPercent; top10 != nil {
		switch {
		case *top10 >= 95:
			add("top10_concentration", -30, false, "top 10 holders control nearly all supply")
		case *top10 >= 80:
			add("top10_concentration", -15, false, "top 10 holders control most supply")
		}
	}

	if largest := facts.Holders.LargestHolderPercent; largest != nil {
		switch {
		case *largest >= 50:
			add("largest_holder", -20, false, "single holder controls over half of supply")
		case *largest >= 20:
			add("largest_holder", -10, false, "single holder controls a large share of supply")
		}
	}

	switch {
	case facts.Holders.TotalHolders < 10:
		add("holder_count_low", -10, false, "fewer than 10 holders")
	case facts.Holders.TotalHolders >= 500:
		add("holder_count_high", 5, true, "500 or more holders")
	}

	if len(facts.Holders.WhaleAddresses) > 5 {
		add("whale_concentration", -10, false, "more than 5 whale wallets hold over 5% each")
	}

	socialImpact := 0
	if facts.Social.HasTwitter {
		socialImpact += 3
	}
	if facts.Social.HasTelegram {
		socialImpact += 3
	}
	if facts.Social.HasWebsite {
		socialImpact += 4
	}
	if socialImpact > 0 {
		add("social_presence", socialImpact, true, "has off-chain social presence")
	}

	if facts.RugcheckScore != nil {
		impact := int((*facts.RugcheckScore - 50) / 5)
		add("external_rugcheck_score", impact, impact >= 0, "external rugcheck score contribution")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return poolsentinel.RiskVerdict{
		TokenMint: facts.TokenMint,
		Score:     score,
		Level:     levelFor(score),
		Factors:   factors,
	}
}

func levelFor(score int) poolsentinel.RiskLevel {
	switch {
	case score >= 80:
		return poolsentinel.RiskLow
	case score >= 60:
		return poolsentinel.RiskMedium
	case score >= 40:
		return poolsentinel.RiskHigh
	case score >= 20:
		return poolsentinel.RiskVeryHigh
	default:
		return poolsentinel.RiskExtreme
	}
}
