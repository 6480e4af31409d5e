package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

func TestClassifyHoneypotOverridesEverything(t *testing.T) {
	facts := poolsentinel.EnrichmentFacts{
		TokenMint: "MintHoneypot",
		Contract:  poolsentinel.ContractFacts{IsHoneypot: true, MintAuthorityRevoked: true, FreezeAuthorityRevoked: true},
		Liquidity: poolsentinel.LiquidityFacts{LpBurnedPercent: 100},
	}

	verdict := Classify(facts)
	assert.Equal(t, 0, verdict.Score)
	assert.Equal(t, poolsentinel.RiskExtreme, verdict.Level)
	assert.Len(t, verdict.Factors, 1)
	assert.Equal(t, "honeypot", verdict.Factors[0].Name)
}

func TestClassifyTop10UndefinedSkipsFactor(t *testing.T) {
	facts := poolsentinel.EnrichmentFacts{
		TokenMint: "MintA",
		Contract:  poolsentinel.ContractFacts{MintAuthorityRevoked: true, FreezeAuthorityRevoked: true},
		Holders:   poolsentinel.HolderFacts{TotalHolders: 50},
	}

	verdict := Classify(facts)
	for _, f := range verdict.Factors {
		assert.NotEqual(t, "top10_concentration", f.Name, "undefined top10 must not produce a concentration penalty")
	}
}

func TestClassifyHighQualityTokenScoresLow(t *testing.T) {
	top10 := 20.0
	largest := 5.0
	facts := poolsentinel.EnrichmentFacts{
		TokenMint: "MintGood",
		Liquidity: poolsentinel.LiquidityFacts{LpBurnedPercent: 100},
		Holders: poolsentinel.HolderFacts{
			TotalHolders:         800,
			Top10HoldersPercent:  &top10,
			LargestHolderPercent: &largest,
		},
		Contract: poolsentinel.ContractFacts{MintAuthorityRevoked: true, FreezeAuthorityRevoked: true},
		Social:   poolsentinel.SocialFacts{HasTwitter: true, HasTelegram: true, HasWebsite: true},
	}

	verdict := Classify(facts)
	assert.GreaterOrEqual(t, verdict.Score, 80)
	assert.Equal(t, poolsentinel.RiskLow, verdict.Level)
}

func TestClassifyRiskyTokenScoresExtreme(t *testing.T) {
	top10 := 97.0
	largest := 60.0
	facts := poolsentinel.EnrichmentFacts{
		TokenMint: "MintRisky",
		Holders: poolsentinel.HolderFacts{
			TotalHolders:         3,
			Top10HoldersPercent:  &top10,
			LargestHolderPercent: &largest,
		},
		Contract: poolsentinel.ContractFacts{MintAuthorityRevoked: false, FreezeAuthorityRevoked: false},
	}

	verdict := Classify(facts)
	assert.LessOrEqual(t, verdict.Score, 20)
	assert.Equal(t, poolsentinel.RiskExtreme, verdict.Level)
}

func TestClassifyScoreNeverExceedsBounds(t *testing.T) {
	top10 := 0.0
	facts := poolsentinel.EnrichmentFacts{
		TokenMint: "MintEdge",
		Liquidity: poolsentinel.LiquidityFacts{LpBurnedPercent: 100, LpLockedPercent: 100},
		Holders: poolsentinel.HolderFacts{
			TotalHolders:        1000,
			Top10HoldersPercent: &top10,
		},
		Contract: poolsentinel.ContractFacts{MintAuthorityRevoked: true, FreezeAuthorityRevoked: true},
		Social:   poolsentinel.SocialFacts{HasTwitter: true, HasTelegram: true, HasWebsite: true},
	}

	verdict := Classify(facts)
	assert.LessOrEqual(t, verdict.Score, 100)
	assert.GreaterOrEqual(t, verdict.Score, 0)
}
