// Command churn generates spot trading volume on Hyperliquid by running
// buy-then-sell round trips on a single pair and reporting volume, cost,
// fees and P&L.
//
// Usage:
//
//	churn --setup                 (interactive config wizard)
//	churn --check --pair UETH/USDC (read-only connectivity check)
//	churn --config churn.yaml
//	churn --pair UETH/USDC --trips 50
//
// Required environment variable: HL_PRIVATE_KEY (hex signing key).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/volumelab/churn/config"
	"github.com/volumelab/churn/internal/clients"
	"github.com/volumelab/churn/internal/preflight"
	"github.com/volumelab/churn/internal/report"
	"github.com/volumelab/churn/internal/services/account"
	"github.com/volumelab/churn/internal/services/batch"
	"github.com/volumelab/churn/internal/services/executor"
	"github.com/volumelab/churn/internal/services/market"
	"github.com/volumelab/churn/internal/services/trader"
	"github.com/volumelab/churn/internal/setup"
	"github.com/volumelab/churn/pkg/clock"
)

func main() {
	runSetup := flag.Bool("setup", false, "run the interactive config wizard")
	runCheck := flag.Bool("check", false, "run read-only venue checks without trading")

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if *runSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	privateKey := os.Getenv("HL_PRIVATE_KEY")
	if privateKey == "" {
		log.Fatal("HL_PRIVATE_KEY environment variable must be set")
	}

	baseURL := clients.MainnetAPIURL
	if cfg.Testnet {
		baseURL = clients.TestnetAPIURL
	}

	client, err := clients.NewHyperliquidClient(privateKey, baseURL)
	if err != nil {
		log.Fatal(err)
	}
	logger.Info("connected to hyperliquid",
		zap.String("account", client.AccountAddress()),
		zap.Bool("testnet", cfg.Testnet))

	resolver := market.NewResolver(client, logger)
	pricer := market.NewPricer(client)
	balances := account.NewReader(client)
	fees := account.NewFeeEstimator(client)

	// cancellation takes effect between round trips, never mid-trip
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *runCheck {
		runner := preflight.New(cfg.Pair, resolver, pricer, balances, fees, logger)
		if err := runner.Run(ctx); err != nil {
			log.Fatal(err)
		}
		logger.Info("all venue checks passed")
		return
	}

	pair, err := resolver.Resolve(ctx, cfg.Pair)
	if err != nil {
		log.Fatal(err)
	}

	orders, err := trader.NewHyperliquid(client.Exchange(), logger)
	if err != nil {
		log.Fatal(err)
	}

	clk := clock.New()
	exec := executor.New(pair, pricer, balances, orders, executor.Config{
		MaxSlippage:  cfg.MaxSlippage,
		MinNotional:  cfg.MinNotional,
		FillTimeout:  cfg.FillTimeout,
		PollInterval: cfg.PollInterval,
	}, clk, logger)

	orchestrator := batch.New(pair, exec, fees, balances, batch.Config{
		SettlingDelay: cfg.SettlingDelay,
		ProgressEvery: cfg.ProgressEvery,
	}, clk, logger)

	summary, err := orchestrator.RunBatch(ctx, cfg.Trips)
	if err != nil {
		logger.Warn("batch stopped early", zap.Error(err))
	}

	fmt.Println(report.Render(pair.String(), summary, cfg.TargetVolumeUSD))
}
