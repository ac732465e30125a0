// Package categorize assigns spending categories to transactions using
// keyword rules. User-defined rules outrank seeded system rules; within a
// tier the first rule in creation order wins.
package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/skarbnik-dev/skarbnik/internal/model"
	"github.com/skarbnik-dev/skarbnik/internal/store"
)

// Match is the outcome of categorizing one piece of transaction text.
type Match struct {
	CategoryID string
	RuleID     string
	Confidence model.Confidence // high for user rules, medium for system
}

// Matcher categorizes transactions against a user's rule set.
type Matcher struct {
	store store.Store
}

// NewMatcher creates a Matcher backed by the given store.
func NewMatcher(s store.Store) *Matcher {
	return &Matcher{store: s}
}

// Categorize returns the first matching rule for the given transaction
// text. A no-match result has Confidence none and an empty CategoryID.
func (m *Matcher) Categorize(ctx context.Context, userID, searchText string) (Match, error) {
	rules, err := m.store.ListRules(ctx, userID)
	if err != nil {
		return Match{}, fmt.Errorf("fetching categorization rules: %w", err)
	}
	return MatchRules(rules, searchText), nil
}

// MatchRules tests pre-ordered rules against the search text. Rules must
// arrive user-first in creation order; the first substring hit wins.
func MatchRules(rules []model.CategorizationRule, searchText string) Match {
	text := strings.ToLower(searchText)
	for _, r := range rules {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" || !strings.Contains(text, kw) {
			continue
		}
		confidence := model.ConfidenceHigh
		if r.IsSystem {
			confidence = model.ConfidenceMedium
		}
		return Match{CategoryID: r.CategoryID, RuleID: r.ID, Confidence: confidence}
	}
	return Match{Confidence: model.ConfidenceNone}
}

// Backfill categorizes every transaction of the user that has no category
// yet and persists non-empty results. Re-running it never touches already
// categorized transactions. Returns the number of transactions updated.
func (m *Matcher) Backfill(ctx context.Context, userID string) (int, error) {
	rules, err := m.store.ListRules(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("fetching categorization rules: %w", err)
	}

	txns, err := m.store.ListTransactions(ctx, userID, store.TransactionFilter{Uncategorized: true})
	if err != nil {
		return 0, fmt.Errorf("listing uncategorized transactions: %w", err)
	}

	updated := 0
	for _, t := range txns {
		match := MatchRules(rules, t.SearchText())
		if match.CategoryID == "" {
			continue
		}
		if err := m.store.UpdateTransactionCategory(ctx, userID, t.ID, match.CategoryID); err != nil {
			return updated, fmt.Errorf("categorizing transaction %s: %w", t.ID, err)
		}
		updated++
	}
	return updated, nil
}
