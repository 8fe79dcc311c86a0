// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and normalising them to two decimal places.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// maxAmount bounds the integer part so amounts fit NUMERIC(14,2) columns.
var maxAmount = decimal.New(1, 12)

// maxExponentDigits keeps scientific notation from allocating huge values.
const maxExponentDigits = 2

// ParseAmount converts a decimal string to an amount with two decimal places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators as well as
// scientific notation (1e3, 1.5E-1), which JSON encoders emit for large or
// small numbers, and performs half-up rounding on the third decimal place.
// The result is always positive.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (rounds up)
//	ParseAmount("1e3")    -> 1000, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	mantissa, exponent, scientific := strings.Cut(strings.ToLower(s), "e")
	if !validMantissa(mantissa) {
		return decimal.Zero, ErrInvalidAmount
	}
	if scientific && !validExponent(exponent) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = RoundAmount(d)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// validMantissa accepts unsigned digits with at most one dot.
func validMantissa(s string) bool {
	if s == "" || s == "." || strings.Count(s, ".") > 1 {
		return false
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// validExponent accepts an optionally signed exponent of a few digits.
func validExponent(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	if s == "" || len(s) > maxExponentDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RoundAmount rounds half-up to cents.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidateAmount accepts strictly positive amounts below the storage bound.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() || d.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}
