package categorize

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skarbnik-dev/skarbnik/internal/model"
	"github.com/skarbnik-dev/skarbnik/internal/store"
)

func dec(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func rule(userID, keyword, categoryID string, system bool, created time.Time) model.CategorizationRule {
	return model.CategorizationRule{
		UserID: userID, Keyword: keyword, CategoryID: categoryID,
		IsSystem: system, CreatedAt: created,
	}
}

func TestMatchRules_UserBeforeSystem(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []model.CategorizationRule{
		rule("u1", "biedronka", "user-cat", false, base),
		rule("", "biedronka", "sys-cat", true, base),
	}

	m := MatchRules(rules, "ZAKUP BIEDRONKA 123")
	assert.Equal(t, "user-cat", m.CategoryID)
	assert.Equal(t, model.ConfidenceHigh, m.Confidence)
}

func TestMatchRules_SystemConfidenceMedium(t *testing.T) {
	rules := []model.CategorizationRule{
		rule("", "netflix", "subs", true, time.Now()),
	}

	m := MatchRules(rules, "netflix.com monthly")
	assert.Equal(t, "subs", m.CategoryID)
	assert.Equal(t, model.ConfidenceMedium, m.Confidence)
}

func TestMatchRules_FirstMatchWins(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []model.CategorizationRule{
		rule("u1", "bied", "first", false, base),
		rule("u1", "biedronka", "second", false, base.Add(time.Hour)),
	}

	m := MatchRules(rules, "biedronka warszawa")
	assert.Equal(t, "first", m.CategoryID)
}

func TestMatchRules_NoMatch(t *testing.T) {
	rules := []model.CategorizationRule{
		rule("u1", "biedronka", "cat", false, time.Now()),
		rule("u1", "   ", "blank", false, time.Now()),
	}

	m := MatchRules(rules, "something else entirely")
	assert.Empty(t, m.CategoryID)
	assert.Equal(t, model.ConfidenceNone, m.Confidence)
}

func TestBackfill(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	matcher := NewMatcher(s)

	require.NoError(t, s.InsertRule(ctx, &model.CategorizationRule{
		UserID: "u1", Keyword: "biedronka", CategoryID: "groceries",
	}))

	txnDate := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	matched := model.Transaction{UserID: "u1", Date: txnDate, Amount: dec("45"), Type: model.TypeExpense, Description: "BIEDRONKA 123"}
	unmatched := model.Transaction{UserID: "u1", Date: txnDate, Amount: dec("10"), Type: model.TypeExpense, Description: "KIOSK"}
	already := model.Transaction{UserID: "u1", Date: txnDate, Amount: dec("5"), Type: model.TypeExpense, Description: "BIEDRONKA", CategoryID: "manual"}
	require.NoError(t, s.InsertTransaction(ctx, &matched))
	require.NoError(t, s.InsertTransaction(ctx, &unmatched))
	require.NoError(t, s.InsertTransaction(ctx, &already))

	updated, err := matcher.Backfill(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	// Manually assigned categories are never overwritten.
	out, err := s.ListTransactions(ctx, "u1", store.TransactionFilter{})
	require.NoError(t, err)
	for _, txn := range out {
		if txn.ID == already.ID {
			assert.Equal(t, "manual", txn.CategoryID)
		}
	}

	// Re-running finds nothing new.
	updated, err = matcher.Backfill(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestSeedDefaults(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, SeedDefaults(ctx, s))

	categories, err := s.ListCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, categories, len(defaultSeeds))

	rules, err := s.ListRules(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, rules)
	for _, r := range rules {
		assert.True(t, r.IsSystem)
		assert.NotEmpty(t, r.CategoryID)
	}

	// Seeded rules categorize a typical grocery line.
	m := MatchRules(rules, "zakup karta biedronka 123 warszawa")
	assert.NotEmpty(t, m.CategoryID)
	assert.Equal(t, model.ConfidenceMedium, m.Confidence)
}
