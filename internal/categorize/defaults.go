package categorize

import (
	"context"
	"fmt"

	"github.com/skarbnik-dev/skarbnik/internal/model"
	"github.com/skarbnik-dev/skarbnik/internal/store"
)

// seedCategory pairs a category with the keywords that map to it.
type seedCategory struct {
	name     string
	color    string
	keywords []string
}

// defaultSeeds is the seeded system rule set for Polish bank exports.
var defaultSeeds = []seedCategory{
	{"Groceries", "#4caf50", []string{"biedronka", "lidl", "żabka", "zabka", "carrefour", "auchan", "kaufland"}},
	{"Transport", "#2196f3", []string{"pkp", "mpk", "ztm", "orlen", "bp ", "uber", "bolt"}},
	{"Utilities", "#ff9800", []string{"pge", "tauron", "enea", "pgnig", "orange", "play", "t-mobile", "plus gsm"}},
	{"Housing", "#795548", []string{"czynsz", "wspólnota", "wspolnota", "spółdzielnia", "spoldzielnia"}},
	{"Subscriptions", "#9c27b0", []string{"netflix", "spotify", "hbo", "youtube premium", "disney"}},
	{"Health", "#f44336", []string{"apteka", "pharmacy", "przychodnia", "luxmed", "medicover"}},
	{"Dining", "#e91e63", []string{"restauracja", "pizzeria", "mcdonald", "kfc", "pyszne"}},
	{"Salary", "#00bcd4", []string{"wynagrodzenie", "pensja", "salary"}},
}

// SeedDefaults inserts the system categories and their rules. Safe to call
// once per store; callers decide when (the init command).
func SeedDefaults(ctx context.Context, s store.Store) error {
	for _, seed := range defaultSeeds {
		cat := &model.Category{Name: seed.name, Color: seed.color}
		if err := s.InsertCategory(ctx, cat); err != nil {
			return fmt.Errorf("seeding category %q: %w", seed.name, err)
		}
		for _, kw := range seed.keywords {
			rule := &model.CategorizationRule{
				Keyword:    kw,
				CategoryID: cat.ID,
				IsSystem:   true,
			}
			if err := s.InsertRule(ctx, rule); err != nil {
				return fmt.Errorf("seeding rule %q: %w", kw, err)
			}
		}
	}
	return nil
}
