package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

// DocumentType classifies text extracted from a PDF.
type DocumentType string

const (
	DocBankStatement DocumentType = "bank_statement"
	DocReceipt       DocumentType = "receipt"
	DocUnknown       DocumentType = "unknown"
)

// PDFTextParser runs heuristics over text already extracted from a PDF.
// Extracting text from the PDF binary (OCR included) is the caller's job.
type PDFTextParser struct {
	// Now is used as the fallback receipt date; tests pin it.
	Now func() time.Time
}

// Format returns the parser name.
func (p *PDFTextParser) Format() string { return "pdftext" }

var bankIndicators = []string{
	"wyciąg", "saldo", "saldo początkowe", "saldo końcowe", "nr rachunku",
	"data operacji", "data księgowania", "elixir", "przelew",
	"bank statement", "account statement", "opening balance", "closing balance",
}

var receiptIndicators = []string{
	"paragon", "paragon fiskalny", "nip", "suma", "razem", "do zapłaty",
	"kasa", "receipt", "total", "fiskalny",
}

var totalLabels = []string{
	"SUMA", "TOTAL", "RAZEM", "DO ZAPŁATY", "NALEŻNOŚĆ", "KWOTA", "AMOUNT",
}

var (
	// Polish grouped format first ("1 234,56"), then plain decimals.
	groupedAmountPattern = regexp.MustCompile(`-?\d{1,3}(?:[ \x{00a0}]\d{3})*,\d{2}`)
	plainAmountPattern   = regexp.MustCompile(`-?\d+[.,]\d{2}`)

	dottedDatePattern = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	isoDatePattern    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	slashDatePattern  = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	dashDatePattern   = regexp.MustCompile(`\d{2}-\d{2}-\d{4}`)

	anyDatePatterns = []*regexp.Regexp{
		dottedDatePattern, isoDatePattern, slashDatePattern, dashDatePattern,
	}

	digitsPattern = regexp.MustCompile(`\d+`)
)

const minExtractableText = 10

// minAmount filters out noise like "0,00" page artifacts.
var minAmount = decimal.NewFromFloat(0.01)

// Parse classifies the document and extracts transactions. Ambiguity is
// resolved by policy rather than failure: with several candidate amounts
// in a window the last one wins at reduced confidence.
func (p *PDFTextParser) Parse(r io.Reader) (*ParseResult, error) {
	text, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading PDF text: %w", err)
	}

	result := &ParseResult{Format: p.Format(), Bank: DialectUnknown, DocumentType: DocUnknown}

	if len(strings.TrimSpace(text)) < minExtractableText {
		result.Errors = append(result.Errors, "Document appears to be scanned or image-based: no extractable text")
		return result, nil
	}

	result.DocumentType = classifyDocument(text)

	switch result.DocumentType {
	case DocBankStatement:
		result.Bank = detectPDFBank(text)
		result.Transactions = p.extractStatementTransactions(text, result.Bank)
	case DocReceipt:
		result.Transactions = p.extractReceipt(text)
	default:
		// Unknown: try statement heuristics first, then receipt.
		result.Bank = detectPDFBank(text)
		result.Transactions = p.extractStatementTransactions(text, result.Bank)
		if len(result.Transactions) == 0 {
			result.Transactions = p.extractReceipt(text)
		}
	}

	result.Transactions = dedupeParsed(result.Transactions)
	result.Success = len(result.Transactions) > 0
	if !result.Success {
		result.Errors = append(result.Errors, "No transactions could be extracted from document text")
	}
	return result, nil
}

// classifyDocument scores bank-statement indicators against receipt
// indicators. A statement needs to outscore receipts and reach at least 2.
func classifyDocument(text string) DocumentType {
	lower := strings.ToLower(text)

	bankScore := 0
	for _, kw := range bankIndicators {
		bankScore += strings.Count(lower, kw)
	}
	receiptScore := 0
	for _, kw := range receiptIndicators {
		receiptScore += strings.Count(lower, kw)
	}

	switch {
	case bankScore > receiptScore && bankScore >= 2:
		return DocBankStatement
	case receiptScore > 0:
		return DocReceipt
	default:
		return DocUnknown
	}
}

// detectPDFBank sub-detects the issuing bank of a statement by substring.
func detectPDFBank(text string) Dialect {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "mbank") || strings.Contains(lower, "m bank"):
		return DialectMBank
	case strings.Contains(lower, "ing bank") || strings.Contains(lower, "ing ") || strings.Contains(lower, "ingbank"):
		return DialectING
	default:
		return DialectUnknown
	}
}

// statementDatePriority returns date patterns in the order the given bank
// prints them; the shared extraction strategy differs only in this.
func statementDatePriority(bank Dialect) []*regexp.Regexp {
	if bank == DialectING {
		return []*regexp.Regexp{isoDatePattern, dottedDatePattern}
	}
	return []*regexp.Regexp{dottedDatePattern, isoDatePattern}
}

// extractStatementTransactions scans lines that begin with a date token.
// Each hit opens a window of the line plus the next two lines; every
// candidate amount in the window is collected and the last one is taken
// as the transaction amount, since running-balance columns usually
// precede the movement column in statement layouts.
func (p *PDFTextParser) extractStatementTransactions(text string, bank Dialect) []model.ParsedTransaction {
	lines := strings.Split(text, "\n")
	datePatterns := statementDatePriority(bank)

	var txns []model.ParsedTransaction
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		var dateStr string
		for _, pat := range datePatterns {
			if loc := pat.FindStringIndex(trimmed); loc != nil && loc[0] == 0 {
				dateStr = trimmed[loc[0]:loc[1]]
				break
			}
		}
		if dateStr == "" {
			continue
		}
		date, err := parseFlexibleDate(dateStr)
		if err != nil {
			continue
		}

		window := trimmed
		for j := i + 1; j <= i+2 && j < len(lines); j++ {
			window += "\n" + strings.TrimSpace(lines[j])
		}

		amounts := findAmounts(window)
		if len(amounts) == 0 {
			continue
		}
		amount := amounts[len(amounts)-1]

		confidence := model.ConfidenceMedium
		if len(amounts) == 1 {
			confidence = model.ConfidenceHigh
		}

		txnType := model.TypeExpense
		if amount.signed.IsPositive() && strings.Contains(strings.ToLower(window), "przelew przych") {
			txnType = model.TypeIncome
		}

		desc := stripDateAndAmounts(trimmed, dateStr)
		if len(desc) < 3 && i+1 < len(lines) {
			desc = strings.TrimSpace(lines[i+1])
		}
		if desc == "" {
			desc = model.DefaultDescription
		}

		txns = append(txns, model.ParsedTransaction{
			Date:        date,
			Amount:      amount.signed.Abs(),
			Description: desc,
			Type:        txnType,
			Currency:    model.DefaultCurrency,
			Confidence:  confidence,
			RawText:     window,
		})
	}
	return txns
}

// candidateAmount pairs a matched amount with its position in the text.
type candidateAmount struct {
	signed decimal.Decimal
	pos    int
}

// scrubDates blanks out date tokens so the plain amount pattern cannot
// misread "02.01.2024" as the amount 2.01.
func scrubDates(s string) string {
	for _, pat := range anyDatePatterns {
		s = pat.ReplaceAllStringFunc(s, func(m string) string {
			return strings.Repeat(" ", len(m))
		})
	}
	return s
}

// findAmounts collects all candidate amounts in order of appearance,
// grouped Polish format first, skipping magnitudes at or below 0.01.
func findAmounts(window string) []candidateAmount {
	window = scrubDates(window)
	var out []candidateAmount
	taken := make([]bool, len(window))

	collect := func(pat *regexp.Regexp) {
		for _, loc := range pat.FindAllStringIndex(window, -1) {
			if taken[loc[0]] {
				continue
			}
			d, err := parsePolishAmount(window[loc[0]:loc[1]])
			if err != nil || d.Abs().LessThanOrEqual(minAmount) {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			out = append(out, candidateAmount{signed: d, pos: loc[0]})
		}
	}
	collect(groupedAmountPattern)
	collect(plainAmountPattern)

	// Restore appearance order across both passes.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].pos < out[j-1].pos; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// stripDateAndAmounts removes the date token and amount substrings from a
// line, leaving the description.
func stripDateAndAmounts(line, dateStr string) string {
	s := strings.Replace(line, dateStr, "", 1)
	s = groupedAmountPattern.ReplaceAllString(s, "")
	s = plainAmountPattern.ReplaceAllString(s, "")
	return normalizeWhitespace(s)
}

// extractReceipt pulls at most one expense transaction out of receipt text:
// the first date found anywhere (today if none), a labeled total falling
// back to the largest amount, and the first non-trivial line as merchant.
func (p *PDFTextParser) extractReceipt(text string) []model.ParsedTransaction {
	date := p.now()
	for _, pat := range anyDatePatterns {
		if m := pat.FindString(text); m != "" {
			if d, err := parseFlexibleDate(m); err == nil {
				date = d
				break
			}
		}
	}

	amount, ok := findReceiptTotal(text)
	if !ok {
		return nil
	}

	merchant := extractReceiptMerchant(text)
	desc := merchant
	if desc == "" {
		desc = model.DefaultDescription
	}

	return []model.ParsedTransaction{{
		Date:         date,
		Amount:       amount,
		Description:  desc,
		MerchantName: merchant,
		Type:         model.TypeExpense,
		Currency:     model.DefaultCurrency,
		Confidence:   model.ConfidenceMedium,
		RawText:      firstLines(text, 5),
	}}
}

// findReceiptTotal looks for a labeled total line first, then falls back
// to the maximum positive amount anywhere in the text.
func findReceiptTotal(text string) (decimal.Decimal, bool) {
	upper := strings.ToUpper(text)
	for _, label := range totalLabels {
		idx := strings.Index(upper, label)
		if idx == -1 {
			continue
		}
		// Search the remainder of the labeled line and the next line.
		tail := text[idx:]
		if nl := strings.Index(tail, "\n"); nl != -1 {
			if nl2 := strings.Index(tail[nl+1:], "\n"); nl2 != -1 {
				tail = tail[:nl+1+nl2]
			}
		}
		if amounts := findAmounts(tail); len(amounts) > 0 {
			return amounts[0].signed.Abs(), true
		}
	}

	var best decimal.Decimal
	found := false
	for _, a := range findAmounts(text) {
		if a.signed.IsPositive() && (!found || a.signed.GreaterThan(best)) {
			best = a.signed
			found = true
		}
	}
	return best, found
}

// extractReceiptMerchant returns the first non-trivial text line with
// digits stripped, falling back to the second line.
func extractReceiptMerchant(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	for i, line := range lines {
		if i > 1 {
			break
		}
		name := normalizeWhitespace(digitsPattern.ReplaceAllString(line, ""))
		if len(name) >= 3 {
			return name
		}
	}
	return ""
}

// dedupeParsed drops transactions sharing a (date, amount, type) key,
// keeping the first occurrence.
func dedupeParsed(txns []model.ParsedTransaction) []model.ParsedTransaction {
	seen := make(map[string]bool, len(txns))
	var out []model.ParsedTransaction
	for _, t := range txns {
		key := t.Date.Format(isoDateFormat) + "|" + t.Amount.String() + "|" + string(t.Type)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func (p *PDFTextParser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func firstLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
