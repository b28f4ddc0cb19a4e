package domain

import "github.com/pkg/errors"

// Error kinds surfaced by the core. Callers match them with errors.Is;
// wrapping attaches pair, size and venue detail.
var (
	ErrPairNotFound      = errors.New("trading pair not found")
	ErrInsufficientFunds = errors.New("insufficient quote balance")
	ErrOrderRejected     = errors.New("order rejected by venue")
	ErrFillTimeout       = errors.New("fill confirmation timed out")
	ErrNoFillObserved    = errors.New("no fill observed")
	ErrFeeQueryFailed    = errors.New("fee query failed")
)
