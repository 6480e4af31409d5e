// Command poolsentinel runs the pool discovery, enrichment, risk
// classification, and alerting pipeline as a single long-lived process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/configs"
	"github.com/nova-labs/poolsentinel/internal/aggregator"
	"github.com/nova-labs/poolsentinel/internal/alertfilter"
	"github.com/nova-labs/poolsentinel/internal/alerts"
	"github.com/nova-labs/poolsentinel/internal/chainrpc"
	"github.com/nova-labs/poolsentinel/internal/dedup"
	"github.com/nova-labs/poolsentinel/internal/enrichment"
	"github.com/nova-labs/poolsentinel/internal/httpclient"
	internallog "github.com/nova-labs/poolsentinel/internal/log"
	"github.com/nova-labs/poolsentinel/internal/outcome"
	"github.com/nova-labs/poolsentinel/internal/persistence"
	"github.com/nova-labs/poolsentinel/internal/poolsource"
	"github.com/nova-labs/poolsentinel/internal/queue"
	"github.com/nova-labs/poolsentinel/internal/risk"
	"github.com/nova-labs/poolsentinel/internal/wallet"
)

// Exit codes: 0 clean shutdown, 1 config error, 2 startup error, 3
// unrecoverable dependency failure (persistence store unreachable at start,
// or no running instance that stop can signal).
const (
	exitOK             = 0
	exitConfigError    = 1
	exitStartupError   = 2
	exitDependencyFail = 3
)

func main() {
	app := &cli.App{
		Name:  "poolsentinel",
		Usage: "Solana liquidity-pool discovery and risk-alerting pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "configs/config.yml",
				Usage: "path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "pid-file",
				Value: "poolsentinel.pid",
				Usage: "path to the PID file written by start and read by stop",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "run the pipeline until interrupted",
				Action: runStart,
			},
			{
				Name:   "stop",
				Usage:  "signal a running start process to shut down gracefully",
				Action: runStop,
			},
			{
				Name:  "health",
				Usage: "load configuration and verify it is valid, then exit",
				Action: func(c *cli.Context) error {
					if _, err := configs.LoadConfig(c.String("config")); err != nil {
						return cli.Exit(err.Error(), exitConfigError)
					}
					fmt.Println("configuration OK")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitStartupError)
	}
}

// runStop reads the PID file written by a running start process and sends
// it SIGTERM, letting it run its own graceful-shutdown path.
func runStop(c *cli.Context) error {
	pidPath := c.String("pid-file")
	raw, err := os.ReadFile(pidPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("no running instance found at %s: %v", pidPath, err), exitDependencyFail)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return cli.Exit(fmt.Sprintf("corrupt pid file %s: %v", pidPath, err), exitDependencyFail)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return cli.Exit(fmt.Sprintf("could not find process %d: %v", pid, err), exitDependencyFail)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return cli.Exit(fmt.Sprintf("failed to signal process %d: %v", pid, err), exitDependencyFail)
	}

	fmt.Printf("sent SIGTERM to pid %d\n", pid)
	return nil
}

func runStart(c *cli.Context) error {
	cfg, err := configs.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("config error: %v", err), exitConfigError)
	}

	logger := internallog.New(cfg.Log.Level, cfg.Log.Format)

	pidPath := c.String("pid-file")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		logger.Warn().Err(err).Str("path", pidPath).Msg("failed to write pid file, stop command will not find this process")
	} else {
		defer os.Remove(pidPath)
	}

	store, err := persistence.New(cfg.DBDsn)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open persistence store: %v", err), exitDependencyFail)
	}
	defer store.Close()

	chain := chainrpc.New(cfg.Solana.RPCURL, cfg.Solana.WSURL, internallog.Component(logger, "chainrpc"))

	aggHTTP := httpclient.New(httpclient.Options{
		Name:             "aggregator",
		BaseURL:          "https://api.dexscreener.com",
		MaxTokens:        20,
		RefillPerSec:     5,
		BreakerThreshold: 5,
		BreakerResetTime: 30 * time.Second,
		RetryMaxElapsed:  15 * time.Second,
		DefaultCacheTTL:  30 * time.Second,
		Timeout:          10 * time.Second,
	}, internallog.Component(logger, "httpclient.aggregator"))
	agg := aggregator.New(aggHTTP)

	enricher := enrichment.New(chain, agg)
	cooldown := dedup.New(time.Duration(cfg.Alerting.TokenCooldownMinutes)*time.Minute, cfg.Alerting.MaxAlertsPerHour)
	outcomeTracker := outcome.New(agg, store, internallog.Component(logger, "outcome"))

	var sinks []alerts.Sink
	sinks = append(sinks, alerts.NewPersistenceSink(store))
	dashboard := alerts.NewDashboardSink(200)
	sinks = append(sinks, dashboard)
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		telegramHTTP := httpclient.New(httpclient.Options{
			Name:             "telegram",
			BaseURL:          "https://api.telegram.org",
			MaxTokens:        10,
			RefillPerSec:     2,
			BreakerThreshold: 5,
			BreakerResetTime: 30 * time.Second,
			RetryMaxElapsed:  10 * time.Second,
			Timeout:          10 * time.Second,
		}, internallog.Component(logger, "httpclient.telegram"))
		sinks = append(sinks, alerts.NewChatSink(telegramHTTP, cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	dispatcher := alerts.New(cooldown, internallog.Component(logger, "alerts"), sinks...)

	recipient := alertfilter.RecipientConfig{
		AlertsDisabled:                   cfg.Filters.AlertsDisabled,
		MinLiquidityUsd:                  cfg.Filters.MinLiquidityUsd,
		MinScore:                         cfg.Filters.MinRiskScore,
		MaxScore:                         100,
		MaxTopHolderConcentrationPercent: cfg.Filters.MaxTopHolderConcentrationPercent,
		BlacklistedMints:                 map[string]struct{}{},
		EnabledCategories:                map[alertfilter.AlertCategory]bool{alertfilter.CategoryNewPool: true, alertfilter.CategoryRiskWarning: true},
		QuietHoursStartUTC:               0,
		QuietHoursEndUTC:                 0,
	}

	handler := func(ctx context.Context, event poolsentinel.PoolEvent) {
		facts, err := enricher.Enrich(ctx, event.TokenMint)
		if err != nil {
			logger.Warn().Err(err).Str("mint", event.TokenMint).Msg("enrichment failed, skipping analysis")
			return
		}
		verdict := risk.Classify(facts)

		if err := store.SaveAnalysis(ctx, verdict, ""); err != nil {
			logger.Warn().Err(err).Str("mint", event.TokenMint).Msg("failed to persist analysis")
		}
		if err := store.SavePoolDiscovery(ctx, event); err != nil {
			logger.Warn().Err(err).Str("mint", event.TokenMint).Msg("failed to persist pool discovery")
		}

		initialPrice := 0.0
		if pairs, err := agg.GetTokenPairs(ctx, event.TokenMint); err == nil && len(pairs) > 0 {
			initialPrice = pairs[0].PriceUsd
		}
		outcomeTracker.Track(ctx, event.TokenMint, initialPrice, facts.Liquidity.TotalLiquidityUsd, facts.Holders.TotalHolders, verdict.Score)

		if !alertfilter.ShouldAlert(time.Now(), verdict, facts, alertfilter.CategoryNewPool, verdict.Score, recipient) {
			return
		}

		dispatcher.Dispatch(ctx, alerts.Alert{
			ChatID:    cfg.Telegram.ChatID,
			TokenMint: event.TokenMint,
			Kind:      string(alertfilter.CategoryNewPool),
			Verdict:   verdict,
			Facts:     facts,
			CreatedAt: time.Now(),
		})
	}

	analysisQueue := queue.New(1000, 8, handler, cooldown, cfg.Telegram.ChatID, internallog.Component(logger, "queue"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var adapters []poolsource.Adapter
	if cfg.Adapters.Raydium.Enabled {
		adapters = append(adapters, newRaydiumAdapter(cfg, internallog.Component(logger, "poolsource.raydium")))
	}
	if cfg.Adapters.Pumpfun.Enabled {
		adapters = append(adapters, newPumpfunAdapter(cfg, internallog.Component(logger, "poolsource.pumpfun")))
	}
	if cfg.Adapters.Jupiter.Enabled {
		adapters = append(adapters, newJupiterAdapter(cfg, internallog.Component(logger, "poolsource.jupiter")))
	}

	for _, a := range adapters {
		a.Subscribe(func(ev poolsentinel.PoolEvent) {
			analysisQueue.Enqueue(ev)
		})
		if err := a.Start(ctx); err != nil {
			logger.Warn().Err(err).Msg("pool-source adapter failed to start")
		}
	}

	walletMonitor := wallet.New(chain, func(activity poolsentinel.WalletActivity) {
		logger.Info().Str("wallet", activity.WalletAddress).Str("type", string(activity.Type)).Msg("wallet activity observed")
	}, internallog.Component(logger, "wallet"))
	for _, addr := range cfg.Watchlist.Wallets {
		if err := walletMonitor.Watch(ctx, addr); err != nil {
			logger.Warn().Err(err).Str("wallet", addr).Msg("failed to watch wallet")
		}
	}

	go analysisQueue.Run(ctx)
	go outcomeTracker.Run(ctx, time.Minute)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cooldown.Cleanup(24 * time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info().Msg("poolsentinel started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	for _, a := range adapters {
		a.Stop()
	}
	cancel()

	return nil
}

func newRaydiumAdapter(cfg *configs.Config, logger zerolog.Logger) poolsource.Adapter {
	return poolsource.NewWSAdapter(poolsentinel.SourceRaydium, cfg.Solana.WSURL, poolsource.ParseRaydiumLogFrame, logger)
}

func newPumpfunAdapter(cfg *configs.Config, logger zerolog.Logger) poolsource.Adapter {
	http := httpclient.New(httpclient.Options{
		Name:             "pumpfun",
		BaseURL:          "https://frontend-api.pump.fun",
		MaxTokens:        20,
		RefillPerSec:     5,
		BreakerThreshold: 5,
		BreakerResetTime: 30 * time.Second,
		RetryMaxElapsed:  15 * time.Second,
		Timeout:          10 * time.Second,
	}, internallog.Component(logger, "httpclient"))

	interval := cfg.Adapters.Pumpfun.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return poolsource.NewPollAdapter(poolsentinel.SourcePumpfun, http, poolsource.FetchPumpfunNewPools, interval, logger)
}

func newJupiterAdapter(cfg *configs.Config, logger zerolog.Logger) poolsource.Adapter {
	http := httpclient.New(httpclient.Options{
		Name:             "jupiter",
		BaseURL:          "https://token.jup.ag",
		MaxTokens:        20,
		RefillPerSec:     5,
		BreakerThreshold: 5,
		BreakerResetTime: 30 * time.Second,
		RetryMaxElapsed:  15 * time.Second,
		Timeout:          10 * time.Second,
	}, internallog.Component(logger, "httpclient"))

	interval := cfg.Adapters.Jupiter.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return poolsource.NewPollAdapter(poolsentinel.SourceJupiter, http, poolsource.FetchJupiterNewPools, interval, logger)
}
