// Package validate classifies raw identifiers, prices and counts scraped from
// product data sources. Every function is pure and total.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	identifierPattern = regexp.MustCompile(`^B0[A-Z0-9]{8}$`)

	// A thousands-grouped run ("1,234.50") is one number; otherwise the first
	// decimal or integer numeral wins.
	moneyPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+\.\d+|\d+`)
	intPattern   = regexp.MustCompile(`\d{1,3}(?:,\d{3})+|\d+`)
)

// NormalizeIdentifier upper-cases and trims an identifier.
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsValidIdentifier reports whether s has the canonical ASIN shape. Matching
// is case-insensitive.
func IsValidIdentifier(s string) bool {
	return identifierPattern.MatchString(strings.ToUpper(s))
}

// ParseMoney extracts the first numeral from free text such as "$12.34" or
// "4.5 out of 5".
func ParseMoney(s string) (decimal.Decimal, bool) {
	m := moneyPattern.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseInt extracts the first run of digits, e.g. "#1,234 in Kitchen" -> 1234.
func ParseInt(s string) (int, bool) {
	m := intPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}
