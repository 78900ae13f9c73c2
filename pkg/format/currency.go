// Package format renders amounts for people. Grouping follows the Indian
// system (last three digits, then pairs) and large amounts can be shown in
// lakh/crore notation. None of this belongs in the calculation packages.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes amounts rendered by Currency.
const CurrencySymbol = "₹"

var (
	lakh  = decimal.NewFromInt(100000)
	crore = decimal.NewFromInt(10000000)
)

// Currency returns an amount with the rupee sign and Indian digit grouping
// (e.g., "-₹12,34,567.89").
func Currency(amount float64) string {
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() {
		return "-" + CurrencySymbol + group(d.Abs().StringFixed(2))
	}
	return CurrencySymbol + group(d.StringFixed(2))
}

// Indian returns an amount with Indian digit grouping and no symbol
// (e.g., "-12,34,567.89").
func Indian(amount float64) string {
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() {
		return "-" + group(d.Abs().StringFixed(2))
	}
	return group(d.StringFixed(2))
}

// Whole returns an amount rounded to whole units with Indian grouping, the
// way schedule entries are shown.
func Whole(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(0)
	if d.IsNegative() {
		return "-" + group(d.Abs().String())
	}
	return group(d.String())
}

// Compact renders an amount in lakh/crore notation ("12.35 L", "1.20 Cr").
// Amounts under one lakh fall back to Indian grouping.
func Compact(amount float64) string {
	d := decimal.NewFromFloat(amount)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	switch {
	case d.GreaterThanOrEqual(crore):
		return sign + d.Div(crore).StringFixed(2) + " Cr"
	case d.GreaterThanOrEqual(lakh):
		return sign + d.Div(lakh).StringFixed(2) + " L"
	default:
		return sign + group(d.StringFixed(2))
	}
}

// group inserts separators into an unsigned decimal string: the last three
// integer digits form one group and every two digits before that another.
func group(value string) string {
	intPart, fracPart, hasFrac := strings.Cut(value, ".")
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var builder strings.Builder
		for i, digit := range head {
			if i > 0 && (len(head)-i)%2 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String() + "," + tail
	}
	if !hasFrac {
		return intPart
	}
	return intPart + "." + fracPart
}
