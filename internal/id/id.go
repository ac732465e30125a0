package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// descPrefixLen caps the description part of an external reference.
const descPrefixLen = 10

// ExternalRef builds the import identity for a transaction, like
// "mbank_20250103_45.00_BIEDRONKAW". Re-importing the same statement
// produces the same reference, which is how duplicates are detected.
func ExternalRef(source string, date time.Time, amount decimal.Decimal, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > descPrefixLen {
		prefix = prefix[:descPrefixLen]
	}
	return fmt.Sprintf("%s_%s_%s_%s", strings.ToLower(source), date.Format("20060102"), amount.StringFixed(2), strings.ToUpper(prefix))
}

// ParseExternalRef splits a reference back into its parts. The description
// prefix may be empty.
func ParseExternalRef(ref string) (source string, date time.Time, amount decimal.Decimal, prefix string, err error) {
	parts := strings.SplitN(ref, "_", 4)
	if len(parts) != 4 {
		return "", time.Time{}, decimal.Zero, "", fmt.Errorf("invalid external ref format: %q", ref)
	}
	date, err = time.Parse("20060102", parts[1])
	if err != nil {
		return "", time.Time{}, decimal.Zero, "", fmt.Errorf("invalid date in external ref %q: %w", ref, err)
	}
	amount, err = decimal.NewFromString(parts[2])
	if err != nil {
		return "", time.Time{}, decimal.Zero, "", fmt.Errorf("invalid amount in external ref %q: %w", ref, err)
	}
	return parts[0], date, amount, parts[3], nil
}
