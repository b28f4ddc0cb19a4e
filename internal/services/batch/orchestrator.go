// Package batch repeats round trips and aggregates a summary.
package batch

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/volumelab/churn/internal/domain"
	"github.com/volumelab/churn/pkg/clock"
)

type RoundTripper interface {
	Execute(ctx context.Context) (domain.RoundTripResult, error)
}

type FeeEstimator interface {
	Estimate(ctx context.Context, volumeUSD decimal.Decimal) (domain.FeeEstimate, error)
}

type BalanceReader interface {
	BalanceOf(ctx context.Context, asset string) (domain.Balance, error)
}

// Config holds batch tuning.
type Config struct {
	// SettlingDelay is imposed between round trips so the venue's account
	// state stabilizes before the next sizing read. May be zero.
	SettlingDelay time.Duration
	// ProgressEvery logs running totals every N completed trips; 0 disables.
	ProgressEvery int
}

// Orchestrator executes round trips strictly sequentially. Concurrent trips
// on the same account would alias each other's balance deltas, so there is
// deliberately no parallelism here.
type Orchestrator struct {
	pair     domain.Pair
	exec     RoundTripper
	fees     FeeEstimator
	balances BalanceReader
	cfg      Config
	clk      clock.Clock
	logger   *zap.Logger
}

// New creates a batch orchestrator.
func New(pair domain.Pair, exec RoundTripper, fees FeeEstimator, balances BalanceReader,
	cfg Config, clk clock.Clock, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		pair:     pair,
		exec:     exec,
		fees:     fees,
		balances: balances,
		cfg:      cfg,
		clk:      clk,
		logger:   logger,
	}
}

// RunOne executes a single round trip.
func (o *Orchestrator) RunOne(ctx context.Context) (domain.RoundTripResult, error) {
	return o.exec.Execute(ctx)
}

// RunBatch runs up to n round trips, stopping on the first failure: a failed
// trip usually signals a structural problem (exhausted balance, venue outage)
// that would recur on every subsequent attempt. Cancellation is honored
// between trips only, never mid-trip, so a started buy leg always gets its
// matching sell attempt. The returned error is non-nil only for cancellation;
// trade failures are visible in the summary itself.
func (o *Orchestrator) RunBatch(ctx context.Context, n int) (domain.BatchSummary, error) {
	summary := domain.BatchSummary{
		TotalVolumeUSD: decimal.Zero,
		TotalCostUSD:   decimal.Zero,
		Results:        make([]domain.RoundTripResult, 0, n),
	}

	start := o.clk.Now()
	summary.StartQuote = o.quoteBalance(ctx)

	for i := 1; i <= n; i++ {
		if i > 1 {
			select {
			case <-ctx.Done():
				o.logger.Info("batch cancelled between round trips",
					zap.Int("completed", summary.Attempted))
				o.finish(ctx, &summary, start)
				return summary, ctx.Err()
			default:
			}

			if err := o.clk.Sleep(ctx, o.cfg.SettlingDelay); err != nil {
				o.finish(ctx, &summary, start)
				return summary, err
			}
		}

		o.logger.Info("starting round trip",
			zap.String("pair", o.pair.String()),
			zap.Int("trip", i),
			zap.Int("of", n))

		result, err := o.exec.Execute(ctx)
		summary.Attempted++
		summary.Results = append(summary.Results, result)

		if err != nil {
			summary.Failed++
			o.logger.Warn("stopping batch on first failure",
				zap.Int("trip", i),
				zap.String("reason", result.FailureReason))
			break
		}

		summary.Succeeded++
		summary.TotalVolumeUSD = summary.TotalVolumeUSD.Add(result.VolumeUSD)
		summary.TotalCostUSD = summary.TotalCostUSD.Add(result.CostUSD)

		if o.cfg.ProgressEvery > 0 && i%o.cfg.ProgressEvery == 0 {
			o.logger.Info("batch progress",
				zap.Int("completed", i),
				zap.Int("of", n),
				zap.String("volume_usd", summary.TotalVolumeUSD.String()),
				zap.String("cost_usd", summary.TotalCostUSD.String()))
		}
	}

	o.finish(ctx, &summary, start)
	return summary, nil
}

// finish closes the summary: end balance framing, elapsed time and the fee
// projection. The fee query is the sole non-fatal failure — the trades'
// economic effect is already irreversible, so a missing rate only degrades
// the report.
func (o *Orchestrator) finish(ctx context.Context, summary *domain.BatchSummary, start time.Time) {
	summary.EndQuote = o.quoteBalance(ctx)
	summary.ElapsedSeconds = o.clk.Now().Sub(start).Seconds()

	fee, err := o.fees.Estimate(ctx, summary.TotalVolumeUSD)
	if err != nil {
		o.logger.Warn("fee estimate unavailable, reporting without fee breakdown", zap.Error(err))
		return
	}
	summary.Fee = &fee
}

// quoteBalance reads the quote asset total for report framing; best effort.
func (o *Orchestrator) quoteBalance(ctx context.Context) decimal.Decimal {
	bal, err := o.balances.BalanceOf(ctx, o.pair.Quote)
	if err != nil {
		o.logger.Warn("quote balance read failed", zap.Error(err))
		return decimal.Zero
	}
	return bal.Total
}
