package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const isoDateFormat = "2006-01-02"

// parsePolishAmount normalizes a Polish-formatted number ("1 234,56",
// "-45.00") into a decimal. Spaces (including non-breaking) group
// thousands; the comma is the decimal separator.
func parsePolishAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// parseMT940Amount applies SWIFT amount conventions: a lone comma is the
// decimal separator; when both comma and dot appear the comma groups
// thousands and is stripped.
func parseMT940Amount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ",", "")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// parseFlexibleDate accepts the date shapes seen across bank exports.
func parseFlexibleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"02.01.2006", isoDateFormat, "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: unrecognized format", s)
}

// parseSwiftDate parses MT940 dates: 6-digit YYMMDD with a year pivot at 50
// (<=50 maps to 2000s), or 8-digit YYYYMMDD passed through.
func parseSwiftDate(s string) (time.Time, error) {
	switch len(s) {
	case 6:
		yy := int(s[0]-'0')*10 + int(s[1]-'0')
		year := 1900 + yy
		if yy <= 50 {
			year = 2000 + yy
		}
		t, err := time.Parse("20060102", fmt.Sprintf("%04d%s", year, s[2:]))
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing SWIFT date %q: %w", s, err)
		}
		return t, nil
	case 8:
		t, err := time.Parse("20060102", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing SWIFT date %q: %w", s, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("parsing SWIFT date %q: expected 6 or 8 digits", s)
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
