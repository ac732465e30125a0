package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

// MT940Parser parses SWIFT MT940 statement files.
type MT940Parser struct{}

// Format returns the parser name.
func (p *MT940Parser) Format() string { return "mt940" }

// Balance is an opening or closing balance record from a :60: or :62: tag.
type Balance struct {
	Amount   decimal.Decimal // signed: debit balances are negative
	Date     string          // ISO date
	Currency string
}

var (
	balancePattern = regexp.MustCompile(`^([CD])(\d{6})([A-Z]{3})([\d,\.]+)`)
	amountRun      = regexp.MustCompile(`^[\d,\.]+`)

	// Merchant label patterns, tried in order; first match wins.
	merchantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:NA RZECZ|ZLECENIODAWCA|ODBIORCA|DO|OD)[:\s]+([^/\n]+)`),
		regexp.MustCompile(`(?i)(?:PRZELEW|PAYMENT|TRANSFER)[:\s]+([^/\n]+)`),
	}
)

// mt940Txn is a transaction record under construction while scanning a
// statement block.
type mt940Txn struct {
	valueDate   string // ISO
	typeCode    string // C, D, RC, RD
	amount      decimal.Decimal
	reference   string
	description []string
	rawLines    []string
}

// scanState tracks the line scanner's position within a statement block.
type scanState int

const (
	stateIdle scanState = iota
	stateInTransaction
	stateInDescription
)

// Parse splits the input into statement blocks on :20: tags and runs a
// line-oriented state machine over each block. A file with none of
// :20:/:25:/:61: is a format mismatch; success requires at least one
// extracted transaction.
func (p *MT940Parser) Parse(r io.Reader) (*ParseResult, error) {
	text, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading MT940 statement: %w", err)
	}

	result := &ParseResult{Format: p.Format()}

	if !strings.Contains(text, ":20:") && !strings.Contains(text, ":25:") && !strings.Contains(text, ":61:") {
		result.Errors = append(result.Errors, "Not an MT940 statement: no :20:, :25: or :61: tags found")
		return result, nil
	}

	for _, block := range splitStatementBlocks(text) {
		p.parseBlock(block, result)
	}

	result.Success = len(result.Transactions) > 0
	if !result.Success && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No transactions found in MT940 statement")
	}
	return result, nil
}

// splitStatementBlocks cuts the input before each :20: tag. Content before
// the first :20: forms its own block so headerless fragments still parse.
func splitStatementBlocks(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var blocks []string
	var cur []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ":20:") && len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

func (p *MT940Parser) parseBlock(block string, result *ParseResult) {
	var current *mt940Txn
	state := stateIdle

	flush := func() {
		if current == nil {
			return
		}
		result.Transactions = append(result.Transactions, current.finalize())
		current = nil
	}

	for _, rawLine := range strings.Split(block, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, ":25:"):
			result.AccountNumber = strings.TrimSpace(strings.TrimPrefix(trimmed, ":25:"))
			state = stateIdle

		case strings.HasPrefix(trimmed, ":28C:"):
			result.StatementNumber = strings.TrimSpace(strings.TrimPrefix(trimmed, ":28C:"))
			state = stateIdle

		case strings.HasPrefix(trimmed, ":28:"):
			result.StatementNumber = strings.TrimSpace(strings.TrimPrefix(trimmed, ":28:"))
			state = stateIdle

		case strings.HasPrefix(trimmed, ":60F:") || strings.HasPrefix(trimmed, ":60M:"):
			if b := parseBalanceLine(trimmed[5:]); b != nil {
				result.OpeningBalance = b
			}
			state = stateIdle

		case strings.HasPrefix(trimmed, ":62F:") || strings.HasPrefix(trimmed, ":62M:"):
			if b := parseBalanceLine(trimmed[5:]); b != nil {
				result.ClosingBalance = b
			}
			state = stateIdle

		case strings.HasPrefix(trimmed, ":61:"):
			flush()
			txn, err := parseStatementLine(strings.TrimPrefix(trimmed, ":61:"))
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				state = stateIdle
				continue
			}
			txn.rawLines = append(txn.rawLines, trimmed)
			current = txn
			state = stateInTransaction

		case strings.HasPrefix(trimmed, ":86:"):
			if current != nil {
				current.description = append(current.description, strings.TrimSpace(strings.TrimPrefix(trimmed, ":86:")))
				current.rawLines = append(current.rawLines, trimmed)
				state = stateInDescription
			}

		case strings.HasPrefix(trimmed, ":"):
			// Any other tag ends description continuation.
			state = stateIdle

		default:
			// Unlabeled continuation line while inside transaction details.
			if current != nil && (state == stateInDescription || state == stateInTransaction) {
				current.description = append(current.description, trimmed)
				current.rawLines = append(current.rawLines, trimmed)
			}
		}
	}
	flush()
}

// parseBalanceLine matches "[C|D]YYMMDDCCYAMOUNT" and applies the sign
// from the C/D indicator.
func parseBalanceLine(s string) *Balance {
	m := balancePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	amount, err := parseMT940Amount(m[4])
	if err != nil {
		return nil
	}
	if m[1] == "D" {
		amount = amount.Neg()
	}
	date, err := parseSwiftDate(m[2])
	if err != nil {
		return nil
	}
	return &Balance{Amount: amount, Date: date.Format(isoDateFormat), Currency: m[3]}
}

// parseStatementLine extracts the positional fields of a :61: line:
// 6-digit value date, optional 4-digit booking date, 1-2 character type
// code (C/D/RC/RD), amount run, then the reference after an optional
// 4-character N-prefixed transaction type code.
func parseStatementLine(s string) (*mt940Txn, error) {
	s = strings.TrimSpace(s)
	if len(s) < 7 {
		return nil, fmt.Errorf("statement line too short: %q", s)
	}

	valueDate, err := parseSwiftDate(s[:6])
	if err != nil {
		return nil, fmt.Errorf("statement line %q: %w", s, err)
	}
	rest := s[6:]

	// Optional booking date: month and day only, year borrowed from the
	// value date. A borrow across a year boundary is not adjusted.
	if len(rest) >= 4 && allDigits(rest[:4]) {
		rest = rest[4:]
	}

	var typeCode string
	switch {
	case len(rest) >= 2 && rest[0] == 'R' && (rest[1] == 'C' || rest[1] == 'D'):
		typeCode = rest[:2]
		rest = rest[2:]
	case len(rest) >= 1 && (rest[0] == 'C' || rest[0] == 'D'):
		typeCode = rest[:1]
		rest = rest[1:]
	default:
		return nil, fmt.Errorf("statement line %q: missing C/D indicator", s)
	}

	amountStr := amountRun.FindString(rest)
	if amountStr == "" {
		return nil, fmt.Errorf("statement line %q: missing amount", s)
	}
	amount, err := parseMT940Amount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("statement line %q: %w", s, err)
	}
	rest = rest[len(amountStr):]

	// Skip the 4-character transaction type code (e.g. NTRF).
	if len(rest) >= 4 && rest[0] == 'N' {
		rest = rest[4:]
	}

	return &mt940Txn{
		valueDate: valueDate.Format(isoDateFormat),
		typeCode:  typeCode,
		amount:    amount,
		reference: strings.TrimSpace(rest),
	}, nil
}

// finalize converts an in-progress record into a canonical transaction.
func (t *mt940Txn) finalize() model.ParsedTransaction {
	txnType := model.TypeExpense
	if t.typeCode == "C" || t.typeCode == "RC" {
		txnType = model.TypeIncome
	}

	desc := normalizeWhitespace(strings.Join(t.description, " "))
	if desc == "" {
		desc = model.DefaultDescription
	}
	if t.typeCode == "RC" || t.typeCode == "RD" {
		desc = "[REVERSAL] " + desc
	}

	date, _ := parseFlexibleDate(t.valueDate)

	return model.ParsedTransaction{
		Date:         date,
		Amount:       t.amount.Abs(),
		Description:  desc,
		MerchantName: extractMerchant(desc),
		Type:         txnType,
		Currency:     model.DefaultCurrency,
		Reference:    t.reference,
		RawText:      strings.Join(t.rawLines, "\n"),
	}
}

// extractMerchant pulls a counterparty name out of description text using
// labeled patterns. Returns empty when nothing matches.
func extractMerchant(desc string) string {
	for _, pat := range merchantPatterns {
		if m := pat.FindStringSubmatch(desc); m != nil {
			name := normalizeWhitespace(m[1])
			if name != "" {
				return name
			}
		}
	}
	return ""
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
