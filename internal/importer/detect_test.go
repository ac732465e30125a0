package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDialect_Headers(t *testing.T) {
	mbank := "Data operacji;Opis operacji;Kwota\n03.01.2025;Zakup;-45,00\n"
	assert.Equal(t, DialectMBank, DetectDialect(mbank))

	ing := "Data transakcji;Dane kontrahenta;Tytuł;Kwota transakcji\n2025-01-03;X;Y;-45,00\n"
	assert.Equal(t, DialectING, DetectDialect(ing))

	ingAlt := "Data księgowania;Dane kontrahenta;Kwota\n2025-01-03;X;-45,00\n"
	assert.Equal(t, DialectING, DetectDialect(ingAlt))
}

func TestDetectDialect_DateShapeFallback(t *testing.T) {
	// Headers say nothing; the first data row decides.
	mbank := "Kolumna A;Kolumna B\n03.01.2025;cos\n"
	assert.Equal(t, DialectMBank, DetectDialect(mbank))

	ing := "Kolumna A;Kolumna B\n2025-01-03;cos\n"
	assert.Equal(t, DialectING, DetectDialect(ing))
}

func TestDetectDialect_Unknown(t *testing.T) {
	assert.Equal(t, DialectUnknown, DetectDialect(""))
	assert.Equal(t, DialectUnknown, DetectDialect("just some text\nwithout structure\n"))
	assert.Equal(t, DialectUnknown, DetectDialect("Header A;Header B\nnot-a-date;cos\n"))
}

func TestSplitFields_QuotedDelimiter(t *testing.T) {
	fields := splitFields(`03.01.2025;"PRZELEW; Z TYTULEM";-45,00`)
	assert.Equal(t, []string{"03.01.2025", "PRZELEW; Z TYTULEM", "-45,00"}, fields)
}

func TestSplitRows_SkipsBlankLines(t *testing.T) {
	rows := splitRows("a;b\r\n\r\nc;d\n\n")
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"c", "d"}, rows[1])
}
