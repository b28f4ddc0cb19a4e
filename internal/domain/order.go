package domain

import "github.com/shopspring/decimal"

// Side of an order.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// String returns the string representation of the side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderRequest describes a market order to submit. Size is always in
// base-asset units. MaxSlippage bounds the acceptable execution price
// deviation from the current mid, as a fraction (0.001 = 0.1%).
type OrderRequest struct {
	InstrumentID string
	Side         Side
	Size         decimal.Decimal
	MaxSlippage  decimal.Decimal
}

// OrderOutcome is the venue's synchronous response to a submission.
// Acceptance does not confirm a fill; fills are observed via balance deltas.
type OrderOutcome struct {
	Accepted    bool
	VenueStatus string
	ErrorDetail string
}
