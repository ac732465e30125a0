// Package ingest orchestrates one statement import: format selection,
// parsing, duplicate skipping, persistence and insert-time categorization.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skarbnik-dev/skarbnik/internal/categorize"
	"github.com/skarbnik-dev/skarbnik/internal/id"
	"github.com/skarbnik-dev/skarbnik/internal/importer"
	"github.com/skarbnik-dev/skarbnik/internal/model"
	"github.com/skarbnik-dev/skarbnik/internal/store"
)

// ImportSummary reports what one import run did. Parser errors and
// duplicates are data here, never Go errors: the import boundary always
// returns a structured result for parse-time issues.
type ImportSummary struct {
	Format       string
	Bank         importer.Dialect
	DocumentType importer.DocumentType
	Parsed       int
	Imported     int
	Duplicates   int
	Categorized  int
	Errors       []string
}

// Succeeded reports whether the parse itself succeeded.
func (s ImportSummary) Succeeded() bool {
	return s.Parsed > 0
}

// Service runs statement imports against the persistence port.
type Service struct {
	store   store.Store
	parsers *importer.Registry
	matcher *categorize.Matcher
	log     zerolog.Logger
}

// NewService creates an ingest Service.
func NewService(s store.Store, parsers *importer.Registry, log zerolog.Logger) *Service {
	return &Service{
		store:   s,
		parsers: parsers,
		matcher: categorize.NewMatcher(s),
		log:     log,
	}
}

// Import parses raw statement bytes and persists the non-duplicate
// transactions. formatHint selects a parser directly; when empty the
// delimited/MT940 content checks decide. Only store failures surface as
// errors.
func (s *Service) Import(ctx context.Context, userID, accountID, formatHint string, raw []byte) (*ImportSummary, error) {
	parser := s.selectParser(formatHint, raw)
	if parser == nil {
		return &ImportSummary{
			Errors: []string{fmt.Sprintf("No parser for format %q", formatHint)},
		}, nil
	}

	result, err := parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing statement: %w", err)
	}

	summary := &ImportSummary{
		Format:       result.Format,
		Bank:         result.Bank,
		DocumentType: result.DocumentType,
		Parsed:       len(result.Transactions),
		Errors:       result.Errors,
	}
	if !result.Success {
		return summary, nil
	}

	rules, err := s.store.ListRules(ctx, userID)
	if err != nil {
		return summary, fmt.Errorf("fetching categorization rules: %w", err)
	}

	source := refSource(result)
	for _, p := range result.Transactions {
		ref := id.ExternalRef(source, p.Date, p.Amount, p.Description)

		exists, err := s.store.TransactionExists(ctx, userID, ref)
		if err != nil {
			return summary, fmt.Errorf("checking for duplicate: %w", err)
		}
		if exists {
			summary.Duplicates++
			continue
		}

		txn := &model.Transaction{
			UserID:      userID,
			AccountID:   accountID,
			Date:        p.Date,
			Amount:      p.Amount,
			Description: p.Description,
			Merchant:    p.MerchantName,
			Type:        p.Type,
			Currency:    p.Currency,
			ExternalRef: ref,
		}

		match := categorize.MatchRules(rules, txn.SearchText())
		if match.CategoryID != "" {
			txn.CategoryID = match.CategoryID
			summary.Categorized++
		}

		if err := s.store.InsertTransaction(ctx, txn); err != nil {
			return summary, fmt.Errorf("inserting transaction: %w", err)
		}
		summary.Imported++
	}

	s.log.Info().
		Str("format", summary.Format).
		Int("parsed", summary.Parsed).
		Int("imported", summary.Imported).
		Int("duplicates", summary.Duplicates).
		Int("errors", len(summary.Errors)).
		Msg("statement import finished")
	return summary, nil
}

// selectParser honors an explicit format hint, then falls back to content
// sniffing: MT940 tags first, then delimited dialect detection, then the
// PDF-text heuristics.
func (s *Service) selectParser(formatHint string, raw []byte) importer.Parser {
	if formatHint != "" {
		return s.parsers.Get(formatHint)
	}

	text := string(raw)
	if strings.Contains(text, ":20:") || strings.Contains(text, ":61:") {
		return s.parsers.Get("mt940")
	}
	if importer.DetectDialect(text) != importer.DialectUnknown {
		return s.parsers.Get("delimited")
	}
	return s.parsers.Get("pdftext")
}

// refSource names the import source used in external references, keeping
// the detected bank when there is one.
func refSource(result *importer.ParseResult) string {
	if result.Bank != "" && result.Bank != importer.DialectUnknown {
		return string(result.Bank)
	}
	return result.Format
}
