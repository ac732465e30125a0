package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

// DelimitedParser parses semicolon-delimited exports from mBank and ING.
type DelimitedParser struct{}

// Format returns the parser name.
func (p *DelimitedParser) Format() string { return "delimited" }

// columnSpec resolves one canonical field: candidate header names in
// priority order, then a fixed positional fallback (-1 = absent).
type columnSpec struct {
	candidates []string
	fallback   int
}

type columnLayout struct {
	date     columnSpec
	desc     columnSpec
	merchant columnSpec
	amount   columnSpec
	currency columnSpec
}

var dialectLayouts = map[Dialect]columnLayout{
	DialectMBank: {
		date:     columnSpec{[]string{"data operacji", "data księgowania"}, 0},
		desc:     columnSpec{[]string{"opis operacji", "tytuł"}, 1},
		merchant: columnSpec{[]string{"nadawca/odbiorca", "odbiorca"}, -1},
		amount:   columnSpec{[]string{"kwota", "kwota operacji"}, 4},
		currency: columnSpec{[]string{"waluta"}, -1},
	},
	DialectING: {
		date:     columnSpec{[]string{"data transakcji", "data księgowania"}, 0},
		desc:     columnSpec{[]string{"tytuł", "opis"}, 3},
		merchant: columnSpec{[]string{"dane kontrahenta"}, 2},
		amount:   columnSpec{[]string{"kwota transakcji", "kwota"}, 8},
		currency: columnSpec{[]string{"waluta"}, -1},
	},
}

// Parse detects the bank dialect and maps each data row to a canonical
// transaction. Rows that fail date or amount parsing are recorded as
// non-fatal errors; the batch succeeds if at least one row parsed.
func (p *DelimitedParser) Parse(r io.Reader) (*ParseResult, error) {
	text, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading delimited statement: %w", err)
	}

	result := &ParseResult{Format: p.Format(), Bank: DialectUnknown}

	dialect := DetectDialect(text)
	result.Bank = dialect
	if dialect == DialectUnknown {
		result.Errors = append(result.Errors, "Unrecognized statement format")
		return result, nil
	}

	rows := splitRows(text)
	layout := dialectLayouts[dialect]
	idx := buildColumnIndex(rows[0])

	for i, row := range rows[1:] {
		lineNo := i + 2 // 1-based, header is line 1
		txn, ok := parseDelimitedRow(row, layout, idx)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Could not parse transaction", lineNo))
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	result.Success = len(result.Transactions) > 0
	return result, nil
}

// buildColumnIndex maps lowercased, trimmed header names to indices.
func buildColumnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// resolve returns the column index for a spec, preferring named candidates.
func (c columnSpec) resolve(idx map[string]int) int {
	for _, name := range c.candidates {
		if i, ok := idx[name]; ok {
			return i
		}
	}
	return c.fallback
}

func fieldAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDelimitedRow(row []string, layout columnLayout, idx map[string]int) (model.ParsedTransaction, bool) {
	rawDate := fieldAt(row, layout.date.resolve(idx))
	if rawDate == "" {
		return model.ParsedTransaction{}, false
	}
	date, err := parseFlexibleDate(rawDate)
	if err != nil {
		return model.ParsedTransaction{}, false
	}

	amount, err := parsePolishAmount(fieldAt(row, layout.amount.resolve(idx)))
	if err != nil {
		return model.ParsedTransaction{}, false
	}

	txnType := model.TypeIncome
	if amount.IsNegative() {
		txnType = model.TypeExpense
	}

	desc := fieldAt(row, layout.desc.resolve(idx))
	if desc == "" {
		desc = model.DefaultDescription
	}

	currency := fieldAt(row, layout.currency.resolve(idx))
	if currency == "" {
		currency = model.DefaultCurrency
	}

	return model.ParsedTransaction{
		Date:         date,
		Amount:       amount.Abs(),
		Description:  desc,
		MerchantName: fieldAt(row, layout.merchant.resolve(idx)),
		Type:         txnType,
		Currency:     currency,
		RawText:      strings.Join(row, ";"),
	}, true
}
