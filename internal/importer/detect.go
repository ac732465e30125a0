package importer

import (
	"regexp"
	"strings"
)

// Dialect identifies the bank that produced a delimited export.
type Dialect string

const (
	DialectMBank   Dialect = "mbank"
	DialectING     Dialect = "ing"
	DialectUnknown Dialect = "unknown"
)

var (
	mbankDatePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	ingDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// splitFields tokenizes one semicolon-delimited row. Quotes toggle
// delimiter sensitivity; an embedded literal quote inside a quoted field
// is not supported.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ';' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// splitRows breaks raw text into non-empty tokenized rows.
func splitRows(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitFields(line))
	}
	return rows
}

// DetectDialect decides which bank produced a delimited export, first by
// header phrases and then by the date shape of the first data row.
// DialectUnknown is a hard failure: no row-level parsing is attempted.
func DetectDialect(text string) Dialect {
	rows := splitRows(text)
	if len(rows) == 0 {
		return DialectUnknown
	}

	header := strings.ToLower(strings.Join(rows[0], ";"))
	if strings.Contains(header, "data operacji") && strings.Contains(header, "opis operacji") {
		return DialectMBank
	}
	if strings.Contains(header, "data transakcji") ||
		strings.Contains(header, "dane kontrahenta") ||
		strings.Contains(header, "data księgowania") {
		return DialectING
	}

	// Headers inconclusive; inspect the first data row's date shape.
	if len(rows) > 1 && len(rows[1]) > 0 {
		first := rows[1][0]
		if mbankDatePattern.MatchString(first) {
			return DialectMBank
		}
		if ingDatePattern.MatchString(first) {
			return DialectING
		}
	}
	return DialectUnknown
}
