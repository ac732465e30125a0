package id

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestExternalRef(t *testing.T) {
	date := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	ref := ExternalRef("mbank", date, d("45"), "BIEDRONKA 123 WARSZAWA")
	assert.Equal(t, "mbank_20250103_45.00_BIEDRONKA1", ref)

	// Deterministic: same input, same reference.
	assert.Equal(t, ref, ExternalRef("mbank", date, d("45.00"), "BIEDRONKA 123 WARSZAWA"))

	// Source is lowercased, prefix uppercased, punctuation dropped.
	ref = ExternalRef("MT940", date, d("8500"), "przelew: wynagrodzenie")
	assert.Equal(t, "mt940_20250103_8500.00_PRZELEWWYN", ref)

	// Short or empty descriptions keep whatever remains.
	ref = ExternalRef("ing", date, d("1.50"), "?!")
	assert.Equal(t, "ing_20250103_1.50_", ref)
}

func TestParseExternalRef(t *testing.T) {
	date := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	ref := ExternalRef("mbank", date, d("45.00"), "BIEDRONKA 123")

	source, gotDate, amount, prefix, err := ParseExternalRef(ref)
	require.NoError(t, err)
	assert.Equal(t, "mbank", source)
	assert.True(t, gotDate.Equal(date))
	assert.True(t, amount.Equal(d("45.00")))
	assert.Equal(t, "BIEDRONKA1", prefix)

	_, _, _, _, err = ParseExternalRef("not-a-ref")
	assert.Error(t, err)
}
