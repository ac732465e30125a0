package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParsePolishAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1 234,56", "1234.56"},
		{"-45,00", "-45.00"},
		{"-45.00", "-45.00"},
		{"8 500,00", "8500.00"},
		{"0,99", "0.99"},
		{"1 234,56", "1234.56"}, // non-breaking space grouping
	}
	for _, tt := range tests {
		got, err := parsePolishAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(dec(tt.want)), "%s: got %s", tt.in, got)
	}

	_, err := parsePolishAmount("")
	assert.Error(t, err)
	_, err = parsePolishAmount("abc")
	assert.Error(t, err)
}

func TestParseMT940Amount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234,56", "1234.56"},      // comma is the decimal separator
		{"1,234.56", "1234.56"},     // comma groups when a dot is present
		{"45,00", "45.00"},
		{"1000.00", "1000.00"},
	}
	for _, tt := range tests {
		got, err := parseMT940Amount(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(dec(tt.want)), "%s: got %s", tt.in, got)
	}
}

func TestParseFlexibleDate(t *testing.T) {
	want := date(2025, 1, 3)
	for _, in := range []string{"03.01.2025", "2025-01-03", "03/01/2025", "03-01-2025"} {
		got, err := parseFlexibleDate(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), "%s: got %s", in, got)
	}

	_, err := parseFlexibleDate("January 3, 2025")
	assert.Error(t, err)
}

func TestParseSwiftDate(t *testing.T) {
	got, err := parseSwiftDate("250103")
	require.NoError(t, err)
	assert.True(t, got.Equal(date(2025, 1, 3)))

	// Years above the pivot fall into the 1900s.
	got, err = parseSwiftDate("990215")
	require.NoError(t, err)
	assert.True(t, got.Equal(date(1999, 2, 15)))

	got, err = parseSwiftDate("20250103")
	require.NoError(t, err)
	assert.True(t, got.Equal(date(2025, 1, 3)))

	_, err = parseSwiftDate("2501")
	assert.Error(t, err)
}
