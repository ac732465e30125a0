package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

// MemoryStore is a mutex-guarded map-based Store used by tests and
// ephemeral runs.
type MemoryStore struct {
	mu sync.RWMutex

	accounts     map[string]model.Account
	transactions map[string]model.Transaction
	categories   map[string]model.Category
	rules        map[string]model.CategorizationRule
	recurring    map[string]model.RecurringExpense
	overrides    map[string]model.RecurringOverride // keyed recurringID|month
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]model.Account),
		transactions: make(map[string]model.Transaction),
		categories:   make(map[string]model.Category),
		rules:        make(map[string]model.CategorizationRule),
		recurring:    make(map[string]model.RecurringExpense),
		overrides:    make(map[string]model.RecurringOverride),
	}
}

func overrideKey(recurringID string, month time.Time) string {
	return recurringID + "|" + model.MonthOf(month).Format("2006-01")
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// InsertAccount stores an account, assigning an ID if absent.
func (s *MemoryStore) InsertAccount(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&a.ID)
	s.accounts[a.ID] = *a
	return nil
}

// ListAccounts returns a user's accounts in name order.
func (s *MemoryStore) ListAccounts(_ context.Context, userID string) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InsertTransaction stores a transaction, assigning an ID if absent.
func (s *MemoryStore) InsertTransaction(_ context.Context, t *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&t.ID)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.transactions[t.ID] = *t
	return nil
}

// TransactionExists reports whether a user already has a transaction with
// the given external reference.
func (s *MemoryStore) TransactionExists(_ context.Context, userID, externalRef string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.UserID == userID && externalRef != "" && t.ExternalRef == externalRef {
			return true, nil
		}
	}
	return false, nil
}

// ListTransactions returns filtered transactions in (date, id) order.
func (s *MemoryStore) ListTransactions(_ context.Context, userID string, f TransactionFilter) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID && f.matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) updateTransaction(userID, txnID string, apply func(*model.Transaction)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[txnID]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	apply(&t)
	s.transactions[txnID] = t
	return nil
}

// UpdateTransactionCategory sets a transaction's category.
func (s *MemoryStore) UpdateTransactionCategory(_ context.Context, userID, txnID, categoryID string) error {
	return s.updateTransaction(userID, txnID, func(t *model.Transaction) {
		t.CategoryID = categoryID
	})
}

// LinkTransactionRecurring links a transaction to a recurring expense and,
// when non-empty, assigns the template's category.
func (s *MemoryStore) LinkTransactionRecurring(_ context.Context, userID, txnID, recurringID, categoryID string) error {
	return s.updateTransaction(userID, txnID, func(t *model.Transaction) {
		t.RecurringExpenseID = recurringID
		if categoryID != "" {
			t.CategoryID = categoryID
		}
	})
}

// UpdateTransactionPaymentStatus sets the payment status of a generated
// transaction.
func (s *MemoryStore) UpdateTransactionPaymentStatus(_ context.Context, userID, txnID string, status model.PaymentStatus) error {
	return s.updateTransaction(userID, txnID, func(t *model.Transaction) {
		t.PaymentStatus = status
	})
}

// InsertCategory stores a category, assigning an ID if absent.
func (s *MemoryStore) InsertCategory(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&c.ID)
	s.categories[c.ID] = *c
	return nil
}

// ListCategories returns system categories plus the user's own.
func (s *MemoryStore) ListCategories(_ context.Context, userID string) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Category
	for _, c := range s.categories {
		if c.UserID == "" || c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InsertRule stores a categorization rule, assigning an ID if absent.
func (s *MemoryStore) InsertRule(_ context.Context, r *model.CategorizationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&r.ID)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.rules[r.ID] = *r
	return nil
}

// ListRules returns the user's rules first, then system rules, each tier
// in creation order.
func (s *MemoryStore) ListRules(_ context.Context, userID string) ([]model.CategorizationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var user, system []model.CategorizationRule
	for _, r := range s.rules {
		switch {
		case r.IsSystem:
			system = append(system, r)
		case r.UserID == userID:
			user = append(user, r)
		}
	}
	byCreation := func(rules []model.CategorizationRule) {
		sort.Slice(rules, func(i, j int) bool {
			if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
				return rules[i].CreatedAt.Before(rules[j].CreatedAt)
			}
			return rules[i].ID < rules[j].ID
		})
	}
	byCreation(user)
	byCreation(system)
	return append(user, system...), nil
}

// InsertRecurringExpense stores a template, assigning an ID if absent.
func (s *MemoryStore) InsertRecurringExpense(_ context.Context, e *model.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&e.ID)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.recurring[e.ID] = *e
	return nil
}

// UpdateRecurringExpense replaces a stored template.
func (s *MemoryStore) UpdateRecurringExpense(_ context.Context, e *model.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[e.ID]; !ok {
		return ErrNotFound
	}
	s.recurring[e.ID] = *e
	return nil
}

// ListRecurringExpenses returns a user's templates in creation order.
func (s *MemoryStore) ListRecurringExpenses(_ context.Context, userID string, activeOnly bool) ([]model.RecurringExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.RecurringExpense
	for _, e := range s.recurring {
		if e.UserID != userID {
			continue
		}
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertOverride replaces any override for the (expense, month) key.
func (s *MemoryStore) UpsertOverride(_ context.Context, o *model.RecurringOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&o.ID)
	o.Month = model.MonthOf(o.Month)
	s.overrides[overrideKey(o.RecurringExpenseID, o.Month)] = *o
	return nil
}

// GetOverride returns the override for an (expense, month) key, or
// ErrNotFound.
func (s *MemoryStore) GetOverride(_ context.Context, recurringID string, month time.Time) (*model.RecurringOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[overrideKey(recurringID, month)]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}
