// Package core holds the domain model of the ledger: record and budget
// types, the fixed category enumerations, and amount parsing.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user-typed text into a positive decimal amount.
//
// It is tolerant of the way people actually type money: a comma works as
// the decimal separator, and regular or non-breaking spaces used for digit
// grouping are stripped ("1 250,50" -> 1250.50). Signed, zero, or otherwise
// malformed input yields ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// Round2 rounds to two decimal places, the precision every stored and
// displayed amount carries.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
