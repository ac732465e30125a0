package recurring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skarbnik-dev/skarbnik/internal/model"
	"github.com/skarbnik-dev/skarbnik/internal/store"
)

// Service runs generation and re-matching against the persistence port.
// Callers are expected to serialize runs per user; concurrent generation
// for the same month is additionally fenced by the store's uniqueness
// constraint on generated (template, month) pairs.
type Service struct {
	store store.Store
	log   zerolog.Logger
}

// NewService creates a recurring Service.
func NewService(s store.Store, log zerolog.Logger) *Service {
	return &Service{store: s, log: log}
}

// Generate synthesizes placeholder transactions for every active template
// due in the target month. Idempotent: templates that already have a
// generated transaction in the month, or are skipped by an override,
// produce nothing. Returns the number of transactions created.
func (s *Service) Generate(ctx context.Context, userID string, year int, month time.Month) (int, error) {
	templates, err := s.store.ListRecurringExpenses(ctx, userID, true)
	if err != nil {
		return 0, fmt.Errorf("listing recurring expenses: %w", err)
	}

	first, last := monthRange(year, month)
	created := 0

	for _, e := range templates {
		if !IsDue(e, year, month) {
			continue
		}

		existing, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{
			From:               first,
			To:                 last,
			RecurringExpenseID: e.ID,
			GeneratedOnly:      true,
		})
		if err != nil {
			return created, fmt.Errorf("checking generated transactions for %s: %w", e.Name, err)
		}
		if len(existing) > 0 {
			continue
		}

		override, err := s.store.GetOverride(ctx, e.ID, first)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return created, fmt.Errorf("reading override for %s: %w", e.Name, err)
		}
		if override != nil && override.IsSkipped {
			s.log.Debug().Str("expense", e.Name).Str("month", first.Format("2006-01")).
				Msg("generation skipped by override")
			continue
		}

		amount := e.Amount
		if override != nil && override.OverrideAmount != nil {
			amount = *override.OverrideAmount
		}

		txn := &model.Transaction{
			UserID:             userID,
			Date:               dueDate(e, year, month),
			Amount:             amount,
			Description:        e.Name,
			Type:               model.TypeExpense,
			Currency:           e.Currency,
			CategoryID:         e.CategoryID,
			RecurringExpenseID: e.ID,
			RecurringGenerated: true,
			PaymentStatus:      model.PaymentPlanned,
		}
		if err := s.store.InsertTransaction(ctx, txn); err != nil {
			return created, fmt.Errorf("inserting generated transaction for %s: %w", e.Name, err)
		}
		created++
	}
	return created, nil
}

// ConfirmPayment marks a generated transaction as completed. This is the
// only path to the completed status; re-matching never infers it.
func (s *Service) ConfirmPayment(ctx context.Context, userID, txnID string) error {
	if err := s.store.UpdateTransactionPaymentStatus(ctx, userID, txnID, model.PaymentCompleted); err != nil {
		return fmt.Errorf("confirming payment: %w", err)
	}
	return nil
}

// candidate is one potential (transaction, template) link found during the
// collection pass of a re-match run.
type candidate struct {
	txn      model.Transaction
	template model.RecurringExpense
	month    time.Time
}

// slotKey identifies the one-match-per-template-per-month slot.
func slotKey(recurringID string, month time.Time) string {
	return recurringID + "|" + month.Format("2006-01")
}

// Rematch links unlinked expense transactions to active templates whose
// keywords match the transaction text and whose due rule covers the
// transaction's month. Candidates are collected first, then applied
// greedily in (date, id) order under the one-match-per-(template, month)
// invariant, seeded with already-linked months. Returns the number of
// transactions linked.
func (s *Service) Rematch(ctx context.Context, userID string) (int, error) {
	templates, err := s.store.ListRecurringExpenses(ctx, userID, true)
	if err != nil {
		return 0, fmt.Errorf("listing recurring expenses: %w", err)
	}

	var matchable []model.RecurringExpense
	for _, e := range templates {
		if len(e.MatchKeywords) > 0 {
			matchable = append(matchable, e)
		}
	}
	if len(matchable) == 0 {
		return 0, nil
	}

	txns, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{UnlinkedExpenses: true})
	if err != nil {
		return 0, fmt.Errorf("listing unlinked transactions: %w", err)
	}

	// Collection pass: every keyword + due-month hit is a candidate.
	var candidates []candidate
	for _, t := range txns {
		text := t.SearchText()
		for _, e := range matchable {
			if !keywordsMatch(e.MatchKeywords, text) {
				continue
			}
			if !IsDue(e, t.Date.Year(), t.Date.Month()) {
				continue
			}
			candidates = append(candidates, candidate{txn: t, template: e, month: t.Month()})
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	// Occupancy pass: months already holding a linked transaction are
	// closed before any candidate is applied.
	occupied := make(map[string]bool)
	for _, e := range matchable {
		linked, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{RecurringExpenseID: e.ID})
		if err != nil {
			return 0, fmt.Errorf("listing linked transactions for %s: %w", e.Name, err)
		}
		for _, t := range linked {
			if !t.RecurringGenerated {
				occupied[slotKey(e.ID, t.Month())] = true
			}
		}
	}

	// Apply pass: first candidate per open slot wins; transactions arrive
	// in (date, id) order so the earlier transaction takes the month.
	linkedCount := 0
	lastOccurrence := make(map[string]time.Time)
	linkedTxn := make(map[string]bool)

	for _, c := range candidates {
		key := slotKey(c.template.ID, c.month)
		if occupied[key] || linkedTxn[c.txn.ID] {
			continue
		}
		if err := s.store.LinkTransactionRecurring(ctx, userID, c.txn.ID, c.template.ID, c.template.CategoryID); err != nil {
			return linkedCount, fmt.Errorf("linking transaction %s: %w", c.txn.ID, err)
		}
		occupied[key] = true
		linkedTxn[c.txn.ID] = true
		linkedCount++

		if c.txn.Date.After(lastOccurrence[c.template.ID]) {
			lastOccurrence[c.template.ID] = c.txn.Date
		}
		s.log.Debug().Str("expense", c.template.Name).Str("transaction", c.txn.ID).
			Str("month", c.month.Format("2006-01")).Msg("transaction linked to recurring expense")
	}

	for _, e := range matchable {
		last, ok := lastOccurrence[e.ID]
		if !ok || !last.After(e.LastOccurrenceDate) {
			continue
		}
		e.LastOccurrenceDate = last
		if err := s.store.UpdateRecurringExpense(ctx, &e); err != nil {
			return linkedCount, fmt.Errorf("updating last occurrence for %s: %w", e.Name, err)
		}
	}
	return linkedCount, nil
}

// keywordsMatch reports whether any keyword is a substring of the
// lowercased transaction text.
func keywordsMatch(keywords []string, text string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// FromTransaction derives a template from an existing transaction:
// the merchant (or description) becomes the name and match keywords, the
// transaction day the day-of-month, and its month the anchor.
func FromTransaction(t model.Transaction) model.RecurringExpense {
	name := t.Merchant
	if name == "" {
		name = t.Description
	}

	var keywords []string
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		if len(tok) >= 3 {
			keywords = append(keywords, tok)
		}
	}

	return model.RecurringExpense{
		UserID:         t.UserID,
		Name:           name,
		Amount:         t.Amount,
		Currency:       t.Currency,
		CategoryID:     t.CategoryID,
		DayOfMonth:     t.Date.Day(),
		IntervalMonths: 1,
		StartDate:      t.Month(),
		MatchKeywords:  keywords,
		IsActive:       true,
	}
}
