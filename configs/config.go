// Package configs loads and validates the process configuration: a YAML
// file layered under .env and live environment-variable overrides.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the fully-resolved process configuration, after YAML, .env,
// and live-environment layering.
type Config struct {
	Solana    SolanaConfig    `yaml:"solana" validate:"required"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Adapters  AdaptersConfig  `yaml:"adapters" validate:"required"`
	Filters   FilterConfig    `yaml:"filters" validate:"required"`
	Alerting  AlertingConfig  `yaml:"alerting" validate:"required"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Log       LogConfig       `yaml:"log"`
	DataDir   string          `yaml:"dataDir" validate:"required"`
	DBDsn     string          `yaml:"dbDsn"`
}

// SolanaConfig holds the RPC/WS endpoints the chain-RPC adapter dials.
type SolanaConfig struct {
	RPCURL string `yaml:"rpcUrl" validate:"required,url"`
	WSURL  string `yaml:"wsUrl"`
}

// TelegramConfig configures the chat alert sink. Both fields may be empty
// if the chat sink is disabled.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// AdapterConfig is one pool-source adapter's enable flag and poll interval.
type AdapterConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

// AdaptersConfig groups the three pool-source adapters named in the port.
type AdaptersConfig struct {
	Raydium Adapter `yaml:"raydium"`
	Pumpfun Adapter `yaml:"pumpfun"`
	Jupiter Adapter `yaml:"jupiter"`
}

// Adapter is an alias kept distinct from AdapterConfig for YAML clarity.
type Adapter = AdapterConfig

// FilterConfig holds the global (non-per-chat) analysis thresholds.
type FilterConfig struct {
	AlertsDisabled                   bool    `yaml:"alertsDisabled"`
	MinLiquidityUsd                  float64 `yaml:"minLiquidityUsd"`
	MinRiskScore                     int     `yaml:"minRiskScore"`
	MaxRequestsPerMin                int     `yaml:"maxRequestsPerMinute" validate:"min=1"`
	MaxTopHolderConcentrationPercent float64 `yaml:"maxTopHolderConcentrationPercent"`
}

// AlertingConfig holds the alert-fan-out rate and cooldown controls.
type AlertingConfig struct {
	TokenCooldownMinutes int `yaml:"tokenCooldownMinutes" validate:"min=1"`
	MaxAlertsPerHour     int `yaml:"maxAlertsPerHour" validate:"min=1"`
}

// WatchlistConfig holds user-maintained wallet/token watchlists.
type WatchlistConfig struct {
	Wallets []string `yaml:"wallets"`
	Tokens  []string `yaml:"tokens"`
}

// LogConfig configures the zerolog base logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// LoadConfig reads path as YAML, loads a sibling .env (if present) and
// applies environment-variable overrides, then validates the result.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Adapters: AdaptersConfig{
			Raydium: Adapter{Enabled: true},
			Pumpfun: Adapter{Enabled: true, PollInterval: 10 * time.Second},
			Jupiter: Adapter{Enabled: true, PollInterval: 30 * time.Second},
		},
		Filters: FilterConfig{
			MinLiquidityUsd:   1000,
			MinRiskScore:      0,
			MaxRequestsPerMin: 60,
		},
		Alerting: AlertingConfig{
			TokenCooldownMinutes: 30,
			MaxAlertsPerHour:     20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		DataDir: "data",
	}
}

// applyEnvOverrides layers the environment variables named in the
// external-interfaces section on top of whatever the YAML file set, so a
// deployment can override individual values without editing the file.
func applyEnvOverrides(c *Config) {
	strVar(&c.Solana.RPCURL, "SOLANA_RPC_URL")
	strVar(&c.Solana.WSURL, "SOLANA_WS_URL")
	strVar(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	strVar(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")

	boolVar(&c.Filters.AlertsDisabled, "ALERTS_DISABLED")
	floatVar(&c.Filters.MinLiquidityUsd, "MIN_LIQUIDITY_USD")
	intVar(&c.Filters.MinRiskScore, "MIN_RISK_SCORE")
	intVar(&c.Filters.MaxRequestsPerMin, "MAX_REQUESTS_PER_MINUTE")
	floatVar(&c.Filters.MaxTopHolderConcentrationPercent, "MAX_TOP_HOLDER_CONCENTRATION_PERCENT")

	boolVar(&c.Adapters.Raydium.Enabled, "RAYDIUM_ENABLED")
	boolVar(&c.Adapters.Pumpfun.Enabled, "PUMPFUN_ENABLED")
	durationMsVar(&c.Adapters.Pumpfun.PollInterval, "PUMPFUN_POLL_INTERVAL")
	boolVar(&c.Adapters.Jupiter.Enabled, "JUPITER_ENABLED")
	durationMsVar(&c.Adapters.Jupiter.PollInterval, "JUPITER_POLL_INTERVAL")

	intVar(&c.Alerting.TokenCooldownMinutes, "TOKEN_COOLDOWN_MINUTES")
	intVar(&c.Alerting.MaxAlertsPerHour, "MAX_ALERTS_PER_HOUR")

	strVar(&c.DataDir, "DATA_DIR")
	strVar(&c.DBDsn, "DB_DSN")
	strVar(&c.Log.Level, "LOG_LEVEL")
	strVar(&c.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("WATCHLIST_WALLETS"); v != "" {
		c.Watchlist.Wallets = splitCSV(v)
	}
	if v := os.Getenv("WATCHLIST_TOKENS"); v != "" {
		c.Watchlist.Tokens = splitCSV(v)
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func strVar(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func boolVar(dst *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func intVar(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func floatVar(dst *float64, env string) {
	if v := os.Getenv(env); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func durationMsVar(dst *time.Duration, env string) {
	if v := os.Getenv(env); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(parsed) * time.Millisecond
		}
	}
}
