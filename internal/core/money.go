// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings,
// the rounding rule shared by every quota calculation, and apportionment
// of a building's monthly quota across its apartments.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// permillageBase is the nominal total share of a building.
var permillageBase = decimal.NewFromInt(1000)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is accepted because a
// payment can legitimately be recorded as pending with no amount.
// Returns an error for invalid formats or negative values.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// RoundHalfUp rounds d to the nearest integer, ties away from zero.
// Every apportioned amount goes through this one function.
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// ClampQuota treats a negative configured quota as zero.
func ClampQuota(base int64) int64 {
	if base < 0 {
		return 0
	}
	return base
}

// Apportion returns an apartment's monthly due amount.
//
// Flat buildings charge every apartment the base quota. Permillage buildings
// charge round(base * share / 1000). A share of zero or less means the share
// has not been configured yet, so the apartment is charged the full base
// quota rather than nothing.
func Apportion(base int64, mode QuotaMode, permillage float64) int64 {
	if mode != QuotaPermillage || permillage <= 0 {
		return base
	}
	share := decimal.NewFromFloat(permillage)
	return RoundHalfUp(decimal.NewFromInt(base).Mul(share).Div(permillageBase))
}

// FormatEuros formats cents as a euro string with comma decimals (e.g. "€1.234,56").
func FormatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := decimal.New(cents, -2).StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "€" + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}
