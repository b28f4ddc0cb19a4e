package domain

import "github.com/shopspring/decimal"

// Balance is a read-only snapshot of one asset in the account.
// It is superseded by the next query, never mutated in place.
type Balance struct {
	Asset string
	Total decimal.Decimal
	Hold  decimal.Decimal
}

// Available returns the part of the balance not encumbered by open orders.
func (b Balance) Available() decimal.Decimal {
	return b.Total.Sub(b.Hold)
}

// ZeroBalance represents an asset the account never held.
func ZeroBalance(asset string) Balance {
	return Balance{Asset: asset}
}
