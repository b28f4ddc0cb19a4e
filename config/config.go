// Package config loads churn settings from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of one churn run.
type Config struct {
	// Pair display name, e.g. "UETH/USDC".
	Pair string
	// Trips is the number of round trips to attempt.
	Trips int
	// MaxSlippage is the order price tolerance as a fraction (0.001 = 0.1%).
	MaxSlippage decimal.Decimal
	// MinNotional is the quote-asset dust threshold below which sizing fails.
	MinNotional decimal.Decimal
	// SettlingDelay between round trips.
	SettlingDelay time.Duration
	// FillTimeout bounds the wait for each leg's balance delta.
	FillTimeout time.Duration
	// PollInterval is the balance poll cadence while waiting for a fill.
	PollInterval time.Duration
	// ProgressEvery logs running totals every N completed trips.
	ProgressEvery int
	// TargetVolumeUSD drives the volume projection in the final report.
	TargetVolumeUSD decimal.Decimal
	// Testnet selects the Hyperliquid testnet API.
	Testnet bool
}

type configTmp struct {
	Pair            string `yaml:"pair"`
	Trips           int    `yaml:"trips"`
	MaxSlippage     string `yaml:"max_slippage,omitempty"`
	MinNotional     string `yaml:"min_notional,omitempty"`
	SettlingDelay   string `yaml:"settling_delay,omitempty"`
	FillTimeout     string `yaml:"fill_timeout,omitempty"`
	PollInterval    string `yaml:"poll_interval,omitempty"`
	ProgressEvery   int    `yaml:"progress_every,omitempty"`
	TargetVolumeUSD string `yaml:"target_volume_usd,omitempty"`
	Testnet         bool   `yaml:"testnet,omitempty"`
}

func defaults() Config {
	return Config{
		Trips:           1,
		MaxSlippage:     decimal.NewFromFloat(0.001),
		MinNotional:     decimal.NewFromInt(1),
		SettlingDelay:   time.Second,
		FillTimeout:     10 * time.Second,
		PollInterval:    500 * time.Millisecond,
		ProgressEvery:   10,
		TargetVolumeUSD: decimal.NewFromInt(100000),
	}
}

// Get reads configuration from --config YAML when given, otherwise from CLI
// flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "UETH/USDC", "trading pair, example: UETH/USDC")
	trips := flag.Int("trips", 1, "number of round trips to run")
	slippage := flag.String("slippage", "0.001", "max slippage fraction, example: 0.001 for 0.1%")
	settling := flag.Duration("settling", time.Second, "settling delay between round trips")
	fillTimeout := flag.Duration("filltimeout", 10*time.Second, "fill confirmation timeout per leg")
	testnet := flag.Bool("testnet", false, "use Hyperliquid testnet")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := defaults()
	cfg.Trips = *trips
	cfg.SettlingDelay = *settling
	cfg.FillTimeout = *fillTimeout
	cfg.Testnet = *testnet

	pair, err := validatePair(*pairFlag)
	if err != nil {
		return Config{}, err
	}
	cfg.Pair = pair

	cfg.MaxSlippage, err = decimal.NewFromString(*slippage)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --slippage provided, --slippage=%s", *slippage)
	}

	return validate(cfg)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	cfg := defaults()
	cfg.Testnet = tmp.Testnet

	cfg.Pair, err = validatePair(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %w", err)
	}
	if tmp.Trips > 0 {
		cfg.Trips = tmp.Trips
	}
	if tmp.MaxSlippage != "" {
		cfg.MaxSlippage, err = decimal.NewFromString(tmp.MaxSlippage)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'max_slippage' param in yaml config (must be a decimal), error: %w", err)
		}
	}
	if tmp.MinNotional != "" {
		cfg.MinNotional, err = decimal.NewFromString(tmp.MinNotional)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'min_notional' param in yaml config (must be a decimal), error: %w", err)
		}
	}
	if tmp.SettlingDelay != "" {
		cfg.SettlingDelay, err = time.ParseDuration(tmp.SettlingDelay)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'settling_delay' param in yaml config (must be a duration like 1s), error: %w", err)
		}
	}
	if tmp.FillTimeout != "" {
		cfg.FillTimeout, err = time.ParseDuration(tmp.FillTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'fill_timeout' param in yaml config (must be a duration like 10s), error: %w", err)
		}
	}
	if tmp.PollInterval != "" {
		cfg.PollInterval, err = time.ParseDuration(tmp.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'poll_interval' param in yaml config (must be a duration like 500ms), error: %w", err)
		}
	}
	if tmp.ProgressEvery > 0 {
		cfg.ProgressEvery = tmp.ProgressEvery
	}
	if tmp.TargetVolumeUSD != "" {
		cfg.TargetVolumeUSD, err = decimal.NewFromString(tmp.TargetVolumeUSD)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'target_volume_usd' param in yaml config (must be a decimal), error: %w", err)
		}
	}

	return validate(cfg)
}

func validatePair(pair string) (string, error) {
	pair = strings.TrimSpace(pair)
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("pair must look like BASE/QUOTE, got %q", pair)
	}
	return pair, nil
}

func validate(cfg Config) (Config, error) {
	if cfg.Trips < 1 {
		return Config{}, fmt.Errorf("trips must be at least 1, got %d", cfg.Trips)
	}
	if cfg.MaxSlippage.LessThanOrEqual(decimal.Zero) || cfg.MaxSlippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("max slippage must be a fraction in (0, 1), got %s", cfg.MaxSlippage.String())
	}
	if cfg.SettlingDelay < 0 {
		return Config{}, fmt.Errorf("settling delay cannot be negative")
	}
	if cfg.FillTimeout <= 0 {
		return Config{}, fmt.Errorf("fill timeout must be positive")
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("poll interval must be positive")
	}
	return cfg, nil
}
