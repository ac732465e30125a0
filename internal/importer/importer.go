package importer

import (
	"io"
	"strings"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

// ParseResult is the structured outcome of parsing one statement document.
// Parse-time problems degrade the result instead of propagating as errors:
// row-level failures land in Errors, a format mismatch yields Success=false
// with no transactions.
type ParseResult struct {
	Success      bool
	Transactions []model.ParsedTransaction
	Errors       []string

	// Diagnostic fields, populated per format.
	Format       string       // parser that produced the result
	Bank         Dialect      // delimited dialect or PDF bank sub-detection
	DocumentType DocumentType // PDF classification

	// MT940 statement header data.
	AccountNumber   string
	StatementNumber string
	OpeningBalance  *Balance
	ClosingBalance  *Balance
}

// Parser converts one raw statement document into a ParseResult.
// The returned error covers I/O only; parse failures are in the result.
type Parser interface {
	Parse(r io.Reader) (*ParseResult, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		names = append(names, k)
	}
	return names
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&DelimitedParser{})
	r.Register(&MT940Parser{})
	r.Register(&PDFTextParser{})
	return r
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
