package market

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/volumelab/churn/internal/domain"
)

// MidSource returns the current mid price for an instrument.
type MidSource interface {
	MidPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error)
}

// Pricer fetches the current mid price for a resolved pair. Prices are never
// cached: sizing must see a fresh mid on every round trip.
type Pricer struct {
	source MidSource
}

// NewPricer creates a mid price service.
func NewPricer(source MidSource) *Pricer {
	return &Pricer{source: source}
}

// MidPrice returns the instrument's current mid, rejecting non-positive
// values coming back from the venue.
func (p *Pricer) MidPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	mid, err := p.source.MidPrice(ctx, pair.InstrumentID)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "mid price for %s", pair.String())
	}
	if mid.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.Errorf("non-positive mid price %s for %s", mid.String(), pair.String())
	}
	return mid, nil
}
