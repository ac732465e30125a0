// Package store defines the persistence port consumed by the ingestion,
// categorization and recurring-expense services, plus its sqlite and
// in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// TransactionFilter narrows ListTransactions. Zero values mean "no
// constraint".
type TransactionFilter struct {
	From time.Time // inclusive
	To   time.Time // inclusive

	Type               model.TransactionType
	Uncategorized      bool // only transactions with no category
	UnlinkedExpenses   bool // only expense transactions with no recurring link
	RecurringExpenseID string
	GeneratedOnly      bool
}

// Store is the persistence port. Every collection is scoped by the owning
// user; listing order is (date, id) ascending so callers that walk
// candidates chronologically behave deterministically.
type Store interface {
	// Accounts.
	InsertAccount(ctx context.Context, a *model.Account) error
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)

	// Transactions.
	InsertTransaction(ctx context.Context, t *model.Transaction) error
	TransactionExists(ctx context.Context, userID, externalRef string) (bool, error)
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, userID, txnID, categoryID string) error
	LinkTransactionRecurring(ctx context.Context, userID, txnID, recurringID, categoryID string) error
	UpdateTransactionPaymentStatus(ctx context.Context, userID, txnID string, status model.PaymentStatus) error

	// Categories.
	InsertCategory(ctx context.Context, c *model.Category) error
	ListCategories(ctx context.Context, userID string) ([]model.Category, error)

	// Categorization rules, ordered user rules first, then system rules,
	// each tier in creation order.
	InsertRule(ctx context.Context, r *model.CategorizationRule) error
	ListRules(ctx context.Context, userID string) ([]model.CategorizationRule, error)

	// Recurring expenses.
	InsertRecurringExpense(ctx context.Context, e *model.RecurringExpense) error
	UpdateRecurringExpense(ctx context.Context, e *model.RecurringExpense) error
	ListRecurringExpenses(ctx context.Context, userID string, activeOnly bool) ([]model.RecurringExpense, error)

	// Recurring overrides, at most one per (expense, month); UpsertOverride
	// replaces any existing row for the composite key.
	UpsertOverride(ctx context.Context, o *model.RecurringOverride) error
	GetOverride(ctx context.Context, recurringID string, month time.Time) (*model.RecurringOverride, error)
}

// matches reports whether a transaction satisfies a filter. Shared by the
// in-memory store and tests.
func (f TransactionFilter) matches(t model.Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Uncategorized && t.CategoryID != "" {
		return false
	}
	if f.UnlinkedExpenses && (t.Type != model.TypeExpense || t.RecurringExpenseID != "") {
		return false
	}
	if f.RecurringExpenseID != "" && t.RecurringExpenseID != f.RecurringExpenseID {
		return false
	}
	if f.GeneratedOnly && !t.RecurringGenerated {
		return false
	}
	return true
}
