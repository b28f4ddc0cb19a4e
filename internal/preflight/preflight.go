// Package preflight runs read-only venue checks before any trading.
package preflight

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/volumelab/churn/internal/domain"
)

type PairResolver interface {
	Resolve(ctx context.Context, displayName string) (domain.Pair, error)
}

type Pricer interface {
	MidPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

type BalanceReader interface {
	BalanceOf(ctx context.Context, asset string) (domain.Balance, error)
}

type FeeEstimator interface {
	Estimate(ctx context.Context, volumeUSD decimal.Decimal) (domain.FeeEstimate, error)
}

// Runner exercises every venue surface the churner depends on: metadata,
// market data, balances and fee rates. Nothing here trades.
type Runner struct {
	pairName string
	resolver PairResolver
	pricer   Pricer
	balances BalanceReader
	fees     FeeEstimator
	logger   *zap.Logger
}

// New creates a preflight runner for the given pair.
func New(pairName string, resolver PairResolver, pricer Pricer, balances BalanceReader,
	fees FeeEstimator, logger *zap.Logger) *Runner {
	return &Runner{
		pairName: pairName,
		resolver: resolver,
		pricer:   pricer,
		balances: balances,
		fees:     fees,
		logger:   logger,
	}
}

// Run performs all checks and returns the combined failures, if any.
func (r *Runner) Run(ctx context.Context) error {
	var errs error

	pair, err := r.resolver.Resolve(ctx, r.pairName)
	if err != nil {
		r.logger.Error("pair resolution check failed", zap.Error(err))
		return multierr.Append(errs, err) // remaining checks need the pair
	}
	r.logger.Info("pair resolution ok",
		zap.String("pair", pair.String()),
		zap.String("instrument", pair.InstrumentID))

	if mid, err := r.pricer.MidPrice(ctx, pair); err != nil {
		r.logger.Error("market data check failed", zap.Error(err))
		errs = multierr.Append(errs, err)
	} else {
		r.logger.Info("market data ok", zap.String("mid", mid.String()))
	}

	for _, asset := range []string{pair.Quote, pair.Base} {
		bal, err := r.balances.BalanceOf(ctx, asset)
		if err != nil {
			r.logger.Error("balance check failed", zap.String("asset", asset), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		r.logger.Info("balance ok",
			zap.String("asset", asset),
			zap.String("total", bal.Total.String()),
			zap.String("available", bal.Available().String()))
	}

	if fee, err := r.fees.Estimate(ctx, decimal.NewFromInt(1)); err != nil {
		r.logger.Error("fee rate check failed", zap.Error(err))
		errs = multierr.Append(errs, err)
	} else {
		r.logger.Info("fee rate ok", zap.String("taker_rate", fee.Rate.String()))
	}

	return errs
}
