package account

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/volumelab/churn/internal/domain"
)

// FeeSource returns the account's current taker fee rate.
type FeeSource interface {
	TakerFeeRate(ctx context.Context) (decimal.Decimal, error)
}

// FeeEstimator projects venue fees for a given notional volume. Estimation
// failures are non-fatal to a batch: the trade's economic effect is already
// irreversible by the time fees are estimated, so callers degrade the report
// instead of aborting.
type FeeEstimator struct {
	source FeeSource
}

// NewFeeEstimator creates a fee estimator.
func NewFeeEstimator(source FeeSource) *FeeEstimator {
	return &FeeEstimator{source: source}
}

// Estimate reads the current taker rate and projects the fee for volumeUSD.
func (f *FeeEstimator) Estimate(ctx context.Context, volumeUSD decimal.Decimal) (domain.FeeEstimate, error) {
	rate, err := f.source.TakerFeeRate(ctx)
	if err != nil {
		return domain.FeeEstimate{}, errors.Wrapf(domain.ErrFeeQueryFailed, "%v", err)
	}

	return domain.FeeEstimate{
		Rate:   rate,
		FeeUSD: volumeUSD.Mul(rate),
	}, nil
}
