package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestDelimited_MBank(t *testing.T) {
	p := &DelimitedParser{}
	result, err := p.Parse(openFixture(t, "mbank.csv"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, DialectMBank, result.Bank)
	require.Len(t, result.Transactions, 2)

	grocery := result.Transactions[0]
	assert.True(t, grocery.Date.Equal(date(2025, 1, 3)))
	assert.True(t, grocery.Amount.Equal(dec("45.00")), "got %s", grocery.Amount)
	assert.Equal(t, model.TypeExpense, grocery.Type)
	assert.Equal(t, "BIEDRONKA 123 WARSZAWA", grocery.Description)
	assert.Equal(t, "PLN", grocery.Currency)

	salary := result.Transactions[1]
	assert.True(t, salary.Amount.Equal(dec("8500.00")), "got %s", salary.Amount)
	assert.Equal(t, model.TypeIncome, salary.Type)

	// The footer row cannot be parsed but does not fail the batch.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 4: Could not parse transaction", result.Errors[0])
}

func TestDelimited_ING(t *testing.T) {
	p := &DelimitedParser{}
	result, err := p.Parse(openFixture(t, "ing.csv"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, DialectING, result.Bank)
	require.Len(t, result.Transactions, 2)
	assert.Empty(t, result.Errors)

	grocery := result.Transactions[0]
	assert.True(t, grocery.Date.Equal(date(2025, 1, 3)))
	assert.True(t, grocery.Amount.Equal(dec("45.00")))
	assert.Equal(t, model.TypeExpense, grocery.Type)
	assert.Equal(t, "ZAKUP PRZY UŻYCIU KARTY", grocery.Description)
	assert.Equal(t, "BIEDRONKA 123 WARSZAWA", grocery.MerchantName)

	salary := result.Transactions[1]
	assert.Equal(t, model.TypeIncome, salary.Type)
	assert.Equal(t, "ACME SP Z O O", salary.MerchantName)
}

func TestDelimited_UnknownFormat(t *testing.T) {
	p := &DelimitedParser{}
	result, err := p.Parse(strings.NewReader("free text, not an export\n"))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Unrecognized")
}

func TestDelimited_EmptyDescriptionDefaults(t *testing.T) {
	input := "Data operacji;Opis operacji;X;Y;Kwota\n03.01.2025;;;;-12,50\n"
	p := &DelimitedParser{}
	result, err := p.Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, model.DefaultDescription, result.Transactions[0].Description)
}
