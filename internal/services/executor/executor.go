// Package executor drives one buy-then-sell round trip as a state machine.
package executor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/volumelab/churn/internal/domain"
	"github.com/volumelab/churn/pkg/clock"
)

// State of the round trip machine.
type State int

const (
	StateIdle State = iota
	StateSizing
	StateBuySubmitted
	StateBuyConfirmed
	StateSellSubmitted
	StateSellConfirmed
	StateDone
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSizing:
		return "sizing"
	case StateBuySubmitted:
		return "buy_submitted"
	case StateBuyConfirmed:
		return "buy_confirmed"
	case StateSellSubmitted:
		return "sell_submitted"
	case StateSellConfirmed:
		return "sell_confirmed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Pricer interface {
	MidPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

type BalanceReader interface {
	BalanceOf(ctx context.Context, asset string) (domain.Balance, error)
}

type OrderPlacer interface {
	PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderOutcome, error)
}

// Config holds executor tuning.
type Config struct {
	// MaxSlippage is the acceptable fractional deviation from the mid.
	MaxSlippage decimal.Decimal
	// MinNotional is the venue's practical dust threshold in quote units;
	// sizing fails below it.
	MinNotional decimal.Decimal
	// FillTimeout bounds how long a leg waits for its balance delta.
	FillTimeout time.Duration
	// PollInterval is the balance poll cadence while waiting for a fill.
	PollInterval time.Duration
}

// Executor runs one round trip. It is not safe for concurrent use: fill
// detection is balance-delta based, so two in-flight trades on the same
// account would alias each other's balance changes.
type Executor struct {
	pair     domain.Pair
	pricer   Pricer
	balances BalanceReader
	orders   OrderPlacer
	cfg      Config
	clk      clock.Clock
	logger   *zap.Logger

	state State
}

// New creates a round trip executor for the given pair.
func New(pair domain.Pair, pricer Pricer, balances BalanceReader, orders OrderPlacer,
	cfg Config, clk clock.Clock, logger *zap.Logger) *Executor {
	return &Executor{
		pair:     pair,
		pricer:   pricer,
		balances: balances,
		orders:   orders,
		cfg:      cfg,
		clk:      clk,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the machine's current state.
func (e *Executor) State() State {
	return e.state
}

func (e *Executor) transition(next State) {
	e.logger.Debug("state transition",
		zap.String("pair", e.pair.String()),
		zap.String("from", e.state.String()),
		zap.String("to", next.String()))
	e.state = next
}

func (e *Executor) fail(err error) (domain.RoundTripResult, error) {
	e.state = StateFailed
	e.logger.Warn("round trip failed",
		zap.String("pair", e.pair.String()),
		zap.Error(err))
	return domain.RoundTripResult{Success: false, FailureReason: err.Error()}, err
}

// Execute runs one full round trip: size from the fresh quote balance and
// mid, buy, confirm the fill via the base balance delta, sell exactly the
// observed delta, confirm via the quote balance delta, and settle the result
// from the four quote/base snapshots. Orders are never retried here; retry is
// a batch-level decision.
func (e *Executor) Execute(ctx context.Context) (domain.RoundTripResult, error) {
	e.state = StateIdle
	e.transition(StateSizing)

	quoteBefore, err := e.balances.BalanceOf(ctx, e.pair.Quote)
	if err != nil {
		return e.fail(err)
	}

	// Sizing standardizes on available, not raw total: encumbered funds
	// would get the buy rejected outright.
	available := quoteBefore.Available()
	if available.LessThan(e.cfg.MinNotional) {
		return e.fail(errors.Wrapf(domain.ErrInsufficientFunds,
			"%s available %s, minimum notional %s",
			e.pair.Quote, available.String(), e.cfg.MinNotional.String()))
	}

	// Mid is sourced fresh at every sizing step, never cached from a
	// previous round trip.
	mid, err := e.pricer.MidPrice(ctx, e.pair)
	if err != nil {
		return e.fail(err)
	}

	// Round down to the base asset's minimum increment. Rounding up could
	// exceed the available balance and get the order rejected. SzDecimals
	// comes straight from venue metadata; 0 means the asset trades in whole
	// units.
	size := available.Div(mid).RoundFloor(e.pair.SzDecimals)
	if size.LessThanOrEqual(decimal.Zero) {
		return e.fail(errors.Wrapf(domain.ErrInsufficientFunds,
			"%s available %s buys zero %s at mid %s",
			e.pair.Quote, available.String(), e.pair.Base, mid.String()))
	}

	baseBefore, err := e.balances.BalanceOf(ctx, e.pair.Base)
	if err != nil {
		return e.fail(err)
	}

	e.logger.Info("sized round trip",
		zap.String("pair", e.pair.String()),
		zap.String("available", available.String()),
		zap.String("mid", mid.String()),
		zap.String("size", size.String()))

	e.transition(StateBuySubmitted)
	outcome, err := e.orders.PlaceMarketOrder(ctx, domain.OrderRequest{
		InstrumentID: e.pair.InstrumentID,
		Side:         domain.SideBuy,
		Size:         size,
		MaxSlippage:  e.cfg.MaxSlippage,
	})
	if err != nil {
		return e.fail(errors.Wrapf(err, "buy %s %s", size.String(), e.pair.Base))
	}
	if !outcome.Accepted {
		return e.fail(errors.Wrapf(domain.ErrOrderRejected,
			"buy %s %s: %s", size.String(), e.pair.Base, outcome.ErrorDetail))
	}

	// The actual quantity acquired is the observed balance delta, not the
	// requested size. It seeds the sell leg so no residual position is left.
	bought, err := e.waitForIncrease(ctx, e.pair.Base, baseBefore.Total)
	if err != nil {
		return e.fail(errors.Wrapf(err, "buy leg of %s", e.pair.String()))
	}
	e.transition(StateBuyConfirmed)

	quoteAfterBuy, err := e.balances.BalanceOf(ctx, e.pair.Quote)
	if err != nil {
		return e.fail(err)
	}
	quoteSpent := quoteBefore.Total.Sub(quoteAfterBuy.Total)

	e.logger.Info("buy confirmed",
		zap.String("pair", e.pair.String()),
		zap.String("bought", bought.String()),
		zap.String("spent", quoteSpent.String()))

	e.transition(StateSellSubmitted)
	outcome, err = e.orders.PlaceMarketOrder(ctx, domain.OrderRequest{
		InstrumentID: e.pair.InstrumentID,
		Side:         domain.SideSell,
		Size:         bought,
		MaxSlippage:  e.cfg.MaxSlippage,
	})
	if err != nil {
		return e.fail(errors.Wrapf(err, "sell %s %s", bought.String(), e.pair.Base))
	}
	if !outcome.Accepted {
		return e.fail(errors.Wrapf(domain.ErrOrderRejected,
			"sell %s %s: %s", bought.String(), e.pair.Base, outcome.ErrorDetail))
	}

	if _, err := e.waitForIncrease(ctx, e.pair.Quote, quoteAfterBuy.Total); err != nil {
		return e.fail(errors.Wrapf(err, "sell leg of %s", e.pair.String()))
	}
	e.transition(StateSellConfirmed)

	quoteAfterSell, err := e.balances.BalanceOf(ctx, e.pair.Quote)
	if err != nil {
		return e.fail(err)
	}
	quoteReceived := quoteAfterSell.Total.Sub(quoteAfterBuy.Total)

	result := domain.RoundTripResult{
		Success:   true,
		BaseQty:   bought,
		VolumeUSD: quoteSpent.Add(quoteReceived),
		CostUSD:   quoteSpent.Sub(quoteReceived),
		BuyPrice:  quoteSpent.Div(bought),
		SellPrice: quoteReceived.Div(bought),
	}
	e.transition(StateDone)

	e.logger.Info("round trip done",
		zap.String("pair", e.pair.String()),
		zap.String("volume_usd", result.VolumeUSD.String()),
		zap.String("cost_usd", result.CostUSD.String()))

	return result, nil
}

// waitForIncrease polls the asset balance until its total rises above before
// or the fill timeout elapses. At the deadline a zero delta classifies as
// ErrNoFillObserved (nothing happened), anything else as ErrFillTimeout with
// the observed delta for diagnostics.
func (e *Executor) waitForIncrease(ctx context.Context, asset string, before decimal.Decimal) (decimal.Decimal, error) {
	deadline := e.clk.Now().Add(e.cfg.FillTimeout)

	for {
		bal, err := e.balances.BalanceOf(ctx, asset)
		if err != nil {
			return decimal.Zero, err
		}

		delta := bal.Total.Sub(before)
		if delta.GreaterThan(decimal.Zero) {
			return delta, nil
		}

		if !e.clk.Now().Before(deadline) {
			if delta.IsZero() {
				return decimal.Zero, errors.Wrapf(domain.ErrNoFillObserved,
					"%s balance unchanged after %s", asset, e.cfg.FillTimeout)
			}
			return delta, errors.Wrapf(domain.ErrFillTimeout,
				"%s delta %s after %s", asset, delta.String(), e.cfg.FillTimeout)
		}

		if err := e.clk.Sleep(ctx, e.cfg.PollInterval); err != nil {
			return delta, err
		}
	}
}
