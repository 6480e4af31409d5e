package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
solana:
  rpcUrl: "https://api.mainnet-beta.solana.com"
  wsUrl: "wss://api.mainnet-beta.solana.com"
telegram:
  botToken: "test-token"
  chatId: "12345"
adapters:
  raydium:
    enabled: true
  pumpfun:
    enabled: true
    pollInterval: 10s
  jupiter:
    enabled: false
    pollInterval: 30s
filters:
  minLiquidityUsd: 1000
  minRiskScore: 0
  maxRequestsPerMinute: 60
alerting:
  tokenCooldownMinutes: 30
  maxAlertsPerHour: 20
dataDir: "data"
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigValid(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Solana.RPCURL)
	assert.True(t, cfg.Adapters.Raydium.Enabled)
	assert.False(t, cfg.Adapters.Jupiter.Enabled)
	assert.Equal(t, 1000.0, cfg.Filters.MinLiquidityUsd)
}

func TestLoadConfigMissingRequiredField(t *testing.T) {
	path := writeTempConfig(t, `
adapters:
  raydium:
    enabled: true
filters:
  maxRequestsPerMinute: 60
alerting:
  tokenCooldownMinutes: 30
  maxAlertsPerHour: 20
dataDir: "data"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err, "missing solana.rpcUrl must fail validation")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	t.Setenv("MIN_LIQUIDITY_USD", "5000")
	t.Setenv("RAYDIUM_ENABLED", "false")
	t.Setenv("WATCHLIST_TOKENS", "MintA,MintB, MintC")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Filters.MinLiquidityUsd)
	assert.False(t, cfg.Adapters.Raydium.Enabled)
	assert.Equal(t, []string{"MintA", "MintB", "MintC"}, cfg.Watchlist.Tokens)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yml")
	assert.Error(t, err)
}
