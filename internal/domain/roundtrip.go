package domain

import "github.com/shopspring/decimal"

// RoundTripResult is the outcome of one buy-then-sell cycle.
// Immutable once produced.
type RoundTripResult struct {
	Success       bool
	BaseQty       decimal.Decimal
	VolumeUSD     decimal.Decimal
	CostUSD       decimal.Decimal
	BuyPrice      decimal.Decimal
	SellPrice     decimal.Decimal
	FailureReason string
}

// FeeEstimate is a projection of venue fees for a given notional volume.
type FeeEstimate struct {
	Rate   decimal.Decimal
	FeeUSD decimal.Decimal
}

// BatchSummary accumulates results across a batch of round trips.
type BatchSummary struct {
	Attempted      int
	Succeeded      int
	Failed         int
	TotalVolumeUSD decimal.Decimal
	TotalCostUSD   decimal.Decimal
	Results        []RoundTripResult
	ElapsedSeconds float64

	// Quote balance framing for the report.
	StartQuote decimal.Decimal
	EndQuote   decimal.Decimal

	// Fee is nil when the fee query failed; the batch itself is unaffected.
	Fee *FeeEstimate
}
