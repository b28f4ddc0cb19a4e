// Package setup provides an interactive wizard that writes the YAML config.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)
)

type wizardConfig struct {
	Pair          string `yaml:"pair"`
	Trips         int    `yaml:"trips"`
	MaxSlippage   string `yaml:"max_slippage"`
	SettlingDelay string `yaml:"settling_delay"`
	FillTimeout   string `yaml:"fill_timeout"`
	Testnet       bool   `yaml:"testnet"`
}

// RunTUI launches the terminal configuration wizard and writes churn.yaml.
func RunTUI() error {
	pair := "UETH/USDC"
	tripsStr := "1"
	slippageStr := "0.001"
	settlingStr := "1s"
	fillTimeoutStr := "10s"
	testnet := false
	confirm := false

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("CHURN CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Spot volume generation, one round trip at a time.\n"))

	fmt.Println(stepStyle.Render("STEP 1: MARKET"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("Must contain a slash (e.g. UETH/USDC)").
				Validate(func(s string) error {
					parts := strings.Split(s, "/")
					if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
						return fmt.Errorf("pair must look like BASE/QUOTE")
					}
					return nil
				}).
				Value(&pair),
			huh.NewConfirm().
				Title("Use testnet?").
				Value(&testnet),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 2: BATCH"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Round trips").
				Description("How many buy-then-sell cycles to run").
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return fmt.Errorf("must be a positive integer")
					}
					return nil
				}).
				Value(&tripsStr),
			huh.NewInput().
				Title("Max slippage").
				Description("Fraction of the mid price (0.001 = 0.1%)").
				Validate(func(s string) error {
					d, err := decimal.NewFromString(s)
					if err != nil || d.LessThanOrEqual(decimal.Zero) || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
						return fmt.Errorf("must be a fraction in (0, 1)")
					}
					return nil
				}).
				Value(&slippageStr),
			huh.NewInput().
				Title("Settling delay").
				Description("Pause between round trips (e.g. 1s)").
				Validate(validateDuration).
				Value(&settlingStr),
			huh.NewInput().
				Title("Fill timeout").
				Description("Max wait per leg for a fill (e.g. 10s)").
				Validate(validateDuration).
				Value(&fillTimeoutStr),
		),
	).Run()
	if err != nil {
		return err
	}

	trips, _ := strconv.Atoi(tripsStr)

	cfg := wizardConfig{
		Pair:          pair,
		Trips:         trips,
		MaxSlippage:   slippageStr,
		SettlingDelay: settlingStr,
		FillTimeout:   fillTimeoutStr,
		Testnet:       testnet,
	}

	fmt.Println(stepStyle.Render("STEP 3: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Write config for %d round trip(s) on %s to churn.yaml?", trips, pair)).
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Aborted, nothing written.")
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile("churn.yaml", data, 0o644); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("churn.yaml written. Run: churn --config churn.yaml"))
	return nil
}

func validateDuration(s string) error {
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("must be a Go duration like 500ms or 2s")
	}
	return nil
}
