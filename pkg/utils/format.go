// Package utils provides formatting and normalization helpers shared by the
// report composer, the API and the CLI.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPrice formats a price in dollars with two decimals ("$189.84").
func FormatPrice(price float64) string {
	if price < 0 {
		return fmt.Sprintf("-$%.2f", math.Abs(price))
	}
	return fmt.Sprintf("$%.2f", price)
}

// FormatChange formats an absolute change with an explicit "+" for
// non-negative values. e.g., 2.45 → "+2.45", -1.23 → "-1.23"
func FormatChange(change float64) string {
	if change >= 0 {
		return fmt.Sprintf("+%.2f", change)
	}
	return fmt.Sprintf("%.2f", change)
}

// FormatChangePercent formats a percent move. The sign prefix follows the
// absolute change so a quote's two figures always read the same way.
func FormatChangePercent(change, pct float64) string {
	if change >= 0 {
		return fmt.Sprintf("+%.2f%%", math.Abs(pct))
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatGrowth formats a growth rate; only strictly positive values get "+".
// e.g., 8.1 → "+8.1%", 0 → "0%", -2.5 → "-2.5%"
func FormatGrowth(growth float64) string {
	s := formatWithDecimals(growth) + "%"
	if growth > 0 {
		return "+" + s
	}
	return s
}

// FormatPct formats a plain percentage without sign handling.
// e.g., 25.3 → "25.3%", 44 → "44%"
func FormatPct(pct float64) string {
	return formatWithDecimals(pct) + "%"
}

// FormatCompact formats a raw amount in short scale notation.
// e.g., 2.8e12 → "2.8T", 383.29e9 → "383.29B", 1500 → "1.5K"
func FormatCompact(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = math.Abs(amount)
	}
	switch {
	case amount >= 1e12:
		return sign + formatWithDecimals(amount/1e12) + "T"
	case amount >= 1e9:
		return sign + formatWithDecimals(amount/1e9) + "B"
	case amount >= 1e6:
		return sign + formatWithDecimals(amount/1e6) + "M"
	case amount >= 1e3:
		return sign + formatWithDecimals(amount/1e3) + "K"
	default:
		return sign + formatWithDecimals(amount)
	}
}

// FormatBillions formats an amount already expressed in billions of
// dollars. e.g., 383.3 → "$383.3B", 110 → "$110B"
func FormatBillions(v float64) string {
	if v < 0 {
		return "-$" + formatWithDecimals(math.Abs(v)) + "B"
	}
	return "$" + formatWithDecimals(v) + "B"
}

// FormatRatio formats a multiple such as P/E or current ratio ("29.2").
func FormatRatio(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
