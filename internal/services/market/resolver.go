// Package market resolves trading pairs and sources mid prices.
package market

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/volumelab/churn/internal/domain"
)

// MetadataSource returns the venue's spot instrument universe.
type MetadataSource interface {
	SpotInstruments(ctx context.Context) ([]domain.Instrument, error)
}

// Resolver maps a display name like "UETH/USDC" to the venue's internal
// instrument identifier. A resolved pair is cached for the process lifetime.
type Resolver struct {
	source MetadataSource
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]domain.Pair
}

// NewResolver creates a pair resolver.
func NewResolver(source MetadataSource, logger *zap.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logger,
		cache:  make(map[string]domain.Pair),
	}
}

// Resolve matches displayName against the universe by exact, case-sensitive
// string equality on "BASE/QUOTE". Ambiguity must not silently pick the wrong
// instrument, so no fuzzy or partial matching. Issues exactly one metadata
// query per uncached name.
func (r *Resolver) Resolve(ctx context.Context, displayName string) (domain.Pair, error) {
	r.mu.Lock()
	if pair, ok := r.cache[displayName]; ok {
		r.mu.Unlock()
		return pair, nil
	}
	r.mu.Unlock()

	instruments, err := r.source.SpotInstruments(ctx)
	if err != nil {
		return domain.Pair{}, errors.Wrapf(err, "resolve %s", displayName)
	}

	for _, inst := range instruments {
		if inst.DisplayName() != displayName {
			continue
		}

		pair := domain.Pair{
			Base:         inst.Base,
			Quote:        inst.Quote,
			InstrumentID: inst.ID,
			SzDecimals:   inst.SzDecimals,
		}

		r.mu.Lock()
		r.cache[displayName] = pair
		r.mu.Unlock()

		r.logger.Info("resolved trading pair",
			zap.String("pair", displayName),
			zap.String("instrument", pair.InstrumentID),
			zap.Int32("sz_decimals", pair.SzDecimals))

		return pair, nil
	}

	return domain.Pair{}, errors.Wrapf(domain.ErrPairNotFound, "no instrument matches %q", displayName)
}
