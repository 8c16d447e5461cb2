// Package currency converts amounts between a vendor's denomination and an
// operator's settlement denomination using fixed-point decimal arithmetic.
package currency

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Direction selects which way an amount is converted.
type Direction int

const (
	// Multiply converts vendor-denominated amounts to settlement currency.
	Multiply Direction = iota
	// Divide converts settlement-denominated amounts back to vendor currency.
	Divide
)

// DefaultScale is the ledger's fixed-point scale.
const DefaultScale int32 = 2

var ErrZeroRate = errors.New("currency: conversion rate is zero")

// Convert applies rate to amount in the given direction, rounded half-up to
// scale digits. Binary floating point is never used; cumulative rounding
// drift would corrupt a ledger.
func Convert(amount, rate decimal.Decimal, dir Direction, scale int32) (decimal.Decimal, error) {
	if dir == Divide && rate.IsZero() {
		return decimal.Zero, ErrZeroRate
	}
	var out decimal.Decimal
	switch dir {
	case Multiply:
		out = amount.Mul(rate)
	case Divide:
		out = amount.Div(rate)
	}
	return out.Round(scale), nil
}
