package account

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/volumelab/churn/internal/domain"
)

type fakeBalances struct {
	balances []domain.Balance
	err      error
}

func (f *fakeBalances) SpotBalances(_ context.Context) ([]domain.Balance, error) {
	return f.balances, f.err
}

func TestReader_BalanceOf(t *testing.T) {
	src := &fakeBalances{balances: []domain.Balance{
		{Asset: "USDC", Total: decimal.NewFromInt(115), Hold: decimal.NewFromInt(15)},
		{Asset: "UETH", Total: decimal.NewFromFloat(0.0383), Hold: decimal.Zero},
	}}
	r := NewReader(src)

	t.Run("held asset", func(t *testing.T) {
		bal, err := r.BalanceOf(context.Background(), "USDC")
		require.NoError(t, err)
		require.True(t, bal.Total.Equal(decimal.NewFromInt(115)))
		require.True(t, bal.Hold.Equal(decimal.NewFromInt(15)))
		require.True(t, bal.Available().Equal(decimal.NewFromInt(100)))
	})

	t.Run("asset never held is a zero balance, not an error", func(t *testing.T) {
		bal, err := r.BalanceOf(context.Background(), "UBTC")
		require.NoError(t, err)
		require.Equal(t, "UBTC", bal.Asset)
		require.True(t, bal.Total.IsZero())
		require.True(t, bal.Hold.IsZero())
	})

	t.Run("source error propagates", func(t *testing.T) {
		r := NewReader(&fakeBalances{err: errors.New("venue unavailable")})
		_, err := r.BalanceOf(context.Background(), "USDC")
		require.Error(t, err)
	})
}
