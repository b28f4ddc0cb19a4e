package executor

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/volumelab/churn/internal/domain"
)

var testPair = domain.Pair{
	Base:         "UETH",
	Quote:        "USDC",
	InstrumentID: "@151",
	SzDecimals:   4,
}

// fakeClock advances instantly on Sleep so poll loops run without real time.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

// fakeVenue plays pricer, balance reader and order placer in one. Orders
// mutate balances through onOrder, which is how the executor observes fills.
type fakeVenue struct {
	mid      decimal.Decimal
	balances map[string]domain.Balance
	orders   []domain.OrderRequest
	onOrder  func(req domain.OrderRequest) domain.OrderOutcome
}

func (v *fakeVenue) MidPrice(_ context.Context, _ domain.Pair) (decimal.Decimal, error) {
	return v.mid, nil
}

func (v *fakeVenue) BalanceOf(_ context.Context, asset string) (domain.Balance, error) {
	if b, ok := v.balances[asset]; ok {
		return b, nil
	}
	return domain.ZeroBalance(asset), nil
}

func (v *fakeVenue) PlaceMarketOrder(_ context.Context, req domain.OrderRequest) (domain.OrderOutcome, error) {
	v.orders = append(v.orders, req)
	return v.onOrder(req), nil
}

func (v *fakeVenue) setBalance(asset string, total, hold decimal.Decimal) {
	v.balances[asset] = domain.Balance{Asset: asset, Total: total, Hold: hold}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestExecutor(v *fakeVenue, clk *fakeClock) *Executor {
	return newTestExecutorForPair(testPair, v, clk)
}

func newTestExecutorForPair(pair domain.Pair, v *fakeVenue, clk *fakeClock) *Executor {
	return New(pair, v, v, v, Config{
		MaxSlippage:  dec("0.001"),
		MinNotional:  decimal.NewFromInt(1),
		FillTimeout:  10 * time.Second,
		PollInterval: 500 * time.Millisecond,
	}, clk, zap.NewNop())
}

func TestExecute_SuccessfulRoundTrip(t *testing.T) {
	v := &fakeVenue{
		mid:      decimal.NewFromInt(3000),
		balances: map[string]domain.Balance{},
	}
	v.setBalance("USDC", dec("115"), decimal.Zero)

	// the venue fills partially below the requested size; the executor must
	// sell the observed delta, not the request
	v.onOrder = func(req domain.OrderRequest) domain.OrderOutcome {
		switch req.Side {
		case domain.SideBuy:
			v.setBalance("UETH", dec("0.0380"), decimal.Zero)
			v.setBalance("USDC", dec("0.62"), decimal.Zero) // spent 114.38
		case domain.SideSell:
			v.setBalance("UETH", decimal.Zero, decimal.Zero)
			v.setBalance("USDC", dec("114.52"), decimal.Zero) // received 113.90
		}
		return domain.OrderOutcome{Accepted: true, VenueStatus: "ok"}
	}

	exec := newTestExecutor(v, newFakeClock())
	result, err := exec.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateDone, exec.State())
	require.True(t, result.Success)

	// sizing: floor(115/3000 * 10^4)/10^4, never exceeding available funds
	require.Len(t, v.orders, 2)
	require.True(t, v.orders[0].Size.Equal(dec("0.0383")), "buy size %s", v.orders[0].Size)
	require.True(t, v.orders[0].Size.Mul(v.mid).LessThanOrEqual(dec("115")))

	// sell leg equals the observed buy delta, not the requested size
	require.Equal(t, domain.SideSell, v.orders[1].Side)
	require.True(t, v.orders[1].Size.Equal(dec("0.0380")), "sell size %s", v.orders[1].Size)
	require.True(t, result.BaseQty.Equal(dec("0.0380")))

	spent := dec("114.38")
	received := dec("113.90")
	require.True(t, result.VolumeUSD.Equal(spent.Add(received)), "volume %s", result.VolumeUSD)
	require.True(t, result.CostUSD.Equal(spent.Sub(received)), "cost %s", result.CostUSD)
	require.True(t, result.BuyPrice.Equal(spent.Div(dec("0.0380"))))
	require.True(t, result.SellPrice.Equal(received.Div(dec("0.0380"))))

	// volume = (buyPrice + sellPrice) * qty and cost = (buyPrice - sellPrice) * qty
	require.True(t, result.VolumeUSD.Sub(result.BuyPrice.Add(result.SellPrice).Mul(result.BaseQty)).Abs().
		LessThan(dec("0.0000001")))
	require.True(t, result.CostUSD.Sub(result.BuyPrice.Sub(result.SellPrice).Mul(result.BaseQty)).Abs().
		LessThan(dec("0.0000001")))
}

func TestExecute_WholeUnitSizing(t *testing.T) {
	// SzDecimals 0 is a valid metadata value meaning the base trades in
	// whole units; sizing must floor to an integer, not a fraction
	pair := domain.Pair{Base: "HYPE", Quote: "USDC", InstrumentID: "@12", SzDecimals: 0}

	v := &fakeVenue{mid: decimal.NewFromInt(10), balances: map[string]domain.Balance{}}
	v.setBalance("USDC", dec("55"), decimal.Zero)
	v.onOrder = func(req domain.OrderRequest) domain.OrderOutcome {
		switch req.Side {
		case domain.SideBuy:
			v.setBalance("HYPE", dec("5"), decimal.Zero)
			v.setBalance("USDC", dec("4.95"), decimal.Zero) // spent 50.05
		case domain.SideSell:
			v.setBalance("HYPE", decimal.Zero, decimal.Zero)
			v.setBalance("USDC", dec("54.90"), decimal.Zero) // received 49.95
		}
		return domain.OrderOutcome{Accepted: true, VenueStatus: "ok"}
	}

	exec := newTestExecutorForPair(pair, v, newFakeClock())
	result, err := exec.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, v.orders, 2)
	require.True(t, v.orders[0].Size.Equal(dec("5")), "buy size %s must floor 55/10 to a whole unit", v.orders[0].Size)
	require.True(t, v.orders[0].Size.IsInteger())
	require.True(t, v.orders[0].Size.Mul(v.mid).LessThanOrEqual(dec("55")))
	require.True(t, v.orders[1].Size.Equal(dec("5")), "sell leg carries the observed whole-unit delta")
}

func TestExecute_InsufficientFunds(t *testing.T) {
	tests := []struct {
		name  string
		total decimal.Decimal
		hold  decimal.Decimal
	}{
		{name: "below minimum notional", total: dec("0.50"), hold: decimal.Zero},
		// sizing must use available = total - hold, not raw total
		{name: "encumbered funds", total: dec("5"), hold: dec("4.50")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVenue{mid: decimal.NewFromInt(3000), balances: map[string]domain.Balance{}}
			v.setBalance("USDC", tt.total, tt.hold)
			v.onOrder = func(domain.OrderRequest) domain.OrderOutcome {
				t.Fatal("no order must be submitted")
				return domain.OrderOutcome{}
			}

			exec := newTestExecutor(v, newFakeClock())
			result, err := exec.Execute(context.Background())
			require.ErrorIs(t, err, domain.ErrInsufficientFunds)
			require.Equal(t, StateFailed, exec.State())
			require.False(t, result.Success)
			require.NotEmpty(t, result.FailureReason)
			require.Empty(t, v.orders)
		})
	}
}

func TestExecute_BuyRejected(t *testing.T) {
	v := &fakeVenue{mid: decimal.NewFromInt(3000), balances: map[string]domain.Balance{}}
	v.setBalance("USDC", dec("115"), decimal.Zero)
	v.onOrder = func(domain.OrderRequest) domain.OrderOutcome {
		return domain.OrderOutcome{Accepted: false, VenueStatus: "rejected", ErrorDetail: "order has invalid size"}
	}

	exec := newTestExecutor(v, newFakeClock())
	result, err := exec.Execute(context.Background())
	require.ErrorIs(t, err, domain.ErrOrderRejected)
	require.Equal(t, StateFailed, exec.State())
	require.Contains(t, result.FailureReason, "order has invalid size")
	require.Len(t, v.orders, 1, "a rejected order must never be retried")
}

func TestExecute_NoFillObserved(t *testing.T) {
	v := &fakeVenue{mid: decimal.NewFromInt(3000), balances: map[string]domain.Balance{}}
	v.setBalance("USDC", dec("115"), decimal.Zero)
	// accepted but never filled: base balance stays flat until the deadline
	v.onOrder = func(domain.OrderRequest) domain.OrderOutcome {
		return domain.OrderOutcome{Accepted: true, VenueStatus: "ok"}
	}

	clk := newFakeClock()
	exec := newTestExecutor(v, clk)
	result, err := exec.Execute(context.Background())

	// zero delta at the deadline classifies as no fill, not timeout
	require.ErrorIs(t, err, domain.ErrNoFillObserved)
	require.NotErrorIs(t, err, domain.ErrFillTimeout)
	require.Equal(t, StateFailed, exec.State())
	require.False(t, result.Success)
	require.Len(t, v.orders, 1, "the executor must not retry the submission")
	require.NotEmpty(t, clk.sleeps, "waiting must poll, not block")
}

func TestExecute_FillTimeoutOnNegativeDelta(t *testing.T) {
	v := &fakeVenue{mid: decimal.NewFromInt(3000), balances: map[string]domain.Balance{}}
	v.setBalance("USDC", dec("115"), decimal.Zero)
	v.setBalance("UETH", dec("0.0100"), decimal.Zero)
	v.onOrder = func(req domain.OrderRequest) domain.OrderOutcome {
		// something else drained the base balance while waiting
		v.setBalance("UETH", dec("0.0099"), decimal.Zero)
		return domain.OrderOutcome{Accepted: true, VenueStatus: "ok"}
	}

	exec := newTestExecutor(v, newFakeClock())
	_, err := exec.Execute(context.Background())
	require.ErrorIs(t, err, domain.ErrFillTimeout)
	require.NotErrorIs(t, err, domain.ErrNoFillObserved)
}

func TestExecute_SellLegNoFill(t *testing.T) {
	v := &fakeVenue{mid: decimal.NewFromInt(3000), balances: map[string]domain.Balance{}}
	v.setBalance("USDC", dec("115"), decimal.Zero)
	v.onOrder = func(req domain.OrderRequest) domain.OrderOutcome {
		if req.Side == domain.SideBuy {
			v.setBalance("UETH", dec("0.0383"), decimal.Zero)
			v.setBalance("USDC", dec("0.10"), decimal.Zero)
		}
		// sell accepted but the quote balance never increases
		return domain.OrderOutcome{Accepted: true, VenueStatus: "ok"}
	}

	exec := newTestExecutor(v, newFakeClock())
	result, err := exec.Execute(context.Background())
	require.ErrorIs(t, err, domain.ErrNoFillObserved)
	require.Equal(t, StateFailed, exec.State())
	require.False(t, result.Success)
	require.Contains(t, errors.Cause(err).Error(), "no fill")
	require.Len(t, v.orders, 2)
}

func TestExecute_SlippagePassedThrough(t *testing.T) {
	v := &fakeVenue{mid: decimal.NewFromInt(3000), balances: map[string]domain.Balance{}}
	v.setBalance("USDC", dec("115"), decimal.Zero)
	v.onOrder = func(req domain.OrderRequest) domain.OrderOutcome {
		if req.Side == domain.SideBuy {
			v.setBalance("UETH", dec("0.0383"), decimal.Zero)
			v.setBalance("USDC", decimal.Zero, decimal.Zero)
		} else {
			v.setBalance("UETH", decimal.Zero, decimal.Zero)
			v.setBalance("USDC", dec("114.50"), decimal.Zero)
		}
		return domain.OrderOutcome{Accepted: true, VenueStatus: "ok"}
	}

	exec := newTestExecutor(v, newFakeClock())
	_, err := exec.Execute(context.Background())
	require.NoError(t, err)
	for _, o := range v.orders {
		require.True(t, o.MaxSlippage.Equal(dec("0.001")))
		require.Equal(t, "@151", o.InstrumentID)
	}
}
