// Package account reads balances and fee rates for the trading account.
package account

import (
	"context"

	"github.com/pkg/errors"

	"github.com/volumelab/churn/internal/domain"
)

// BalanceSource returns all spot balances of the account.
type BalanceSource interface {
	SpotBalances(ctx context.Context) ([]domain.Balance, error)
}

// Reader answers point-in-time balance queries. There is no caching: balances
// change as a side effect of trade execution this component does not control.
type Reader struct {
	source BalanceSource
}

// NewReader creates a balance reader.
func NewReader(source BalanceSource) *Reader {
	return &Reader{source: source}
}

// BalanceOf returns the current balance of asset. An asset absent from the
// account's balance set means "never held" and yields a zero balance, not an
// error.
func (r *Reader) BalanceOf(ctx context.Context, asset string) (domain.Balance, error) {
	balances, err := r.source.SpotBalances(ctx)
	if err != nil {
		return domain.Balance{}, errors.Wrapf(err, "balance of %s", asset)
	}

	for _, b := range balances {
		if b.Asset == asset {
			return b, nil
		}
	}
	return domain.ZeroBalance(asset), nil
}
