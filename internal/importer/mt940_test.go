package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

func TestMT940_Statement(t *testing.T) {
	p := &MT940Parser{}
	result, err := p.Parse(openFixture(t, "statement.sta"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "PL61109010140000071219812874", result.AccountNumber)
	assert.Equal(t, "1/2025", result.StatementNumber)

	require.NotNil(t, result.OpeningBalance)
	assert.True(t, result.OpeningBalance.Amount.Equal(dec("1000.00")))
	assert.Equal(t, "2025-01-01", result.OpeningBalance.Date)
	assert.Equal(t, "PLN", result.OpeningBalance.Currency)

	require.NotNil(t, result.ClosingBalance)
	assert.True(t, result.ClosingBalance.Amount.Equal(dec("9455.00")))

	require.Len(t, result.Transactions, 2)

	debit := result.Transactions[0]
	assert.True(t, debit.Date.Equal(date(2025, 1, 3)))
	assert.True(t, debit.Amount.Equal(dec("45.00")))
	assert.Equal(t, model.TypeExpense, debit.Type)
	assert.Equal(t, "REF123", debit.Reference)
	assert.Equal(t, "BIEDRONKA WARSZAWA", debit.MerchantName)
	assert.Contains(t, debit.Description, "ZAKUP KARTA")

	credit := result.Transactions[1]
	assert.True(t, credit.Date.Equal(date(2025, 1, 5)))
	assert.True(t, credit.Amount.Equal(dec("8500.00")))
	assert.Equal(t, model.TypeIncome, credit.Type)
	// Continuation line is folded into the description.
	assert.Contains(t, credit.Description, "WYNAGRODZENIE STYCZEN")
}

func TestMT940_MinimalCredit(t *testing.T) {
	input := ":20:X\n:61:250105C1234,56NTRF\n:86:PRZELEW PRZYCHODZACY  WYNAGRODZENIE\n"
	p := &MT940Parser{}
	result, err := p.Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	txn := result.Transactions[0]
	assert.Equal(t, model.TypeIncome, txn.Type)
	assert.True(t, txn.Amount.Equal(dec("1234.56")))
	assert.Equal(t, "PRZELEW PRZYCHODZACY WYNAGRODZENIE", txn.Description)
}

func TestMT940_Reversal(t *testing.T) {
	input := ":20:STMT\n:61:250110RC100,00NTRFREF789\n:86:ZWROT PLATNOSCI\n"
	p := &MT940Parser{}
	result, err := p.Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	txn := result.Transactions[0]
	assert.Equal(t, model.TypeIncome, txn.Type)
	assert.True(t, strings.HasPrefix(txn.Description, "[REVERSAL] "))
	assert.True(t, txn.Amount.Equal(dec("100.00")))
}

func TestMT940_DebitBalanceIsNegative(t *testing.T) {
	b := parseBalanceLine("D250101PLN250,75")
	require.NotNil(t, b)
	assert.True(t, b.Amount.Equal(dec("-250.75")))
}

func TestMT940_FormatMismatch(t *testing.T) {
	p := &MT940Parser{}
	result, err := p.Parse(strings.NewReader("hello world, definitely not swift\n"))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Not an MT940 statement")
}

func TestMT940_MalformedStatementLine(t *testing.T) {
	input := ":20:STMT\n:61:garbage\n:61:250103D45,00NTRFOK\n:86:OK\n"
	p := &MT940Parser{}
	result, err := p.Parse(strings.NewReader(input))
	require.NoError(t, err)

	// The bad line is reported; the good one still parses.
	assert.True(t, result.Success)
	require.Len(t, result.Transactions, 1)
	require.Len(t, result.Errors, 1)
}

func TestParseStatementLine(t *testing.T) {
	// Value date + booking date + debit + amount + NTRF code + reference.
	txn, err := parseStatementLine("2501030103D45,00NTRFREF123")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", txn.valueDate)
	assert.Equal(t, "D", txn.typeCode)
	assert.True(t, txn.amount.Equal(dec("45.00")))
	assert.Equal(t, "REF123", txn.reference)

	// No booking date, credit.
	txn, err = parseStatementLine("250105C8500,00NTRFREF456")
	require.NoError(t, err)
	assert.Equal(t, "C", txn.typeCode)
	assert.True(t, txn.amount.Equal(dec("8500.00")))

	_, err = parseStatementLine("250105X1,00")
	assert.Error(t, err)
}

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"PRZELEW NA RZECZ: JAN KOWALSKI", "JAN KOWALSKI"},
		{"ZAKUP ODBIORCA: BIEDRONKA 123", "BIEDRONKA 123"},
		{"ZLECENIODAWCA: ACME SP Z O O", "ACME SP Z O O"},
		{"BRAK ETYKIETY W OPISIE", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractMerchant(tt.desc), tt.desc)
	}
}
