package market

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/volumelab/churn/internal/domain"
)

type fakeMetadata struct {
	instruments []domain.Instrument
	err         error
	calls       int
}

func (f *fakeMetadata) SpotInstruments(_ context.Context) ([]domain.Instrument, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.instruments, nil
}

func universe() []domain.Instrument {
	return []domain.Instrument{
		{ID: "@107", Base: "UBTC", Quote: "USDC", SzDecimals: 5},
		{ID: "@151", Base: "UETH", Quote: "USDC", SzDecimals: 4},
		{ID: "@166", Base: "USDE", Quote: "USDC", SzDecimals: 2},
	}
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		display string
		wantID  string
		wantErr error
	}{
		{name: "exact match", display: "UETH/USDC", wantID: "@151"},
		{name: "another market", display: "USDE/USDC", wantID: "@166"},
		{name: "unknown pair", display: "DOGE/USDC", wantErr: domain.ErrPairNotFound},
		{name: "matching is case sensitive", display: "ueth/usdc", wantErr: domain.ErrPairNotFound},
		{name: "no partial matches", display: "UETH", wantErr: domain.ErrPairNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&fakeMetadata{instruments: universe()}, zap.NewNop())
			pair, err := r.Resolve(context.Background(), tt.display)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, pair.InstrumentID)
			require.Equal(t, tt.display, pair.String())
		})
	}
}

func TestResolver_CachesForProcessLifetime(t *testing.T) {
	src := &fakeMetadata{instruments: universe()}
	r := NewResolver(src, zap.NewNop())

	first, err := r.Resolve(context.Background(), "UETH/USDC")
	require.NoError(t, err)

	second, err := r.Resolve(context.Background(), "UETH/USDC")
	require.NoError(t, err)

	require.Equal(t, first.InstrumentID, second.InstrumentID, "resolution must be idempotent")
	require.Equal(t, first, second)
	require.Equal(t, 1, src.calls, "one metadata query per pair, then the cache answers")
}

func TestResolver_MetadataError(t *testing.T) {
	r := NewResolver(&fakeMetadata{err: errors.New("venue unavailable")}, zap.NewNop())
	_, err := r.Resolve(context.Background(), "UETH/USDC")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrPairNotFound)
}
