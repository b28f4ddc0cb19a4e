// Package domain defines core data structures used throughout the volume churner.
package domain

import "fmt"

// Pair is a spot trading pair resolved against venue metadata.
type Pair struct {
	// Base asset symbol, e.g. "UETH".
	Base string
	// Quote asset symbol, e.g. "USDC".
	Quote string
	// InstrumentID is the venue's internal market identifier, e.g. "@151".
	InstrumentID string
	// SzDecimals is the number of decimals of the base asset's minimum
	// tradable increment.
	SzDecimals int32
}

// String returns the display representation, e.g. "UETH/USDC".
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

// Instrument is one entry of the venue's spot universe.
type Instrument struct {
	ID         string
	Base       string
	Quote      string
	SzDecimals int32
}

// DisplayName builds the "BASE/QUOTE" name from venue token ordering.
func (i Instrument) DisplayName() string {
	return fmt.Sprintf("%s/%s", i.Base, i.Quote)
}
