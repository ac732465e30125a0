package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/skarbnik-dev/skarbnik/internal/model"
	"github.com/skarbnik-dev/skarbnik/internal/recurring"
	"github.com/skarbnik-dev/skarbnik/internal/store"
)

func newRecurringCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring expense templates",
	}

	cmd.AddCommand(newRecurringAddCommand(opts))
	cmd.AddCommand(newRecurringListCommand(opts))
	cmd.AddCommand(newRecurringGenerateCommand(opts))
	cmd.AddCommand(newRecurringRematchCommand(opts))
	cmd.AddCommand(newRecurringConfirmCommand(opts))
	cmd.AddCommand(newRecurringOverrideCommand(opts))
	cmd.AddCommand(newRecurringFromCommand(opts))

	return cmd
}

func newRecurringAddCommand(opts *rootOptions) *cobra.Command {
	var amountStr string
	var day, interval int
	var keywords, categoryID, startStr string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a recurring expense template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			amount, err := decimal.NewFromString(amountStr)
			if err != nil {
				return fmt.Errorf("parsing amount %q: %w", amountStr, err)
			}
			start := model.MonthOf(time.Now())
			if startStr != "" {
				d, err := time.Parse("2006-01", startStr)
				if err != nil {
					return fmt.Errorf("parsing start month %q: %w", startStr, err)
				}
				start = d
			}

			expense := &model.RecurringExpense{
				UserID:         e.userID,
				Name:           args[0],
				Amount:         amount,
				Currency:       e.cfg.Defaults.Currency,
				CategoryID:     categoryID,
				DayOfMonth:     day,
				IntervalMonths: interval,
				StartDate:      start,
				MatchKeywords:  splitKeywords(keywords),
				IsActive:       true,
			}
			if err := e.store.InsertRecurringExpense(cmd.Context(), expense); err != nil {
				return fmt.Errorf("saving recurring expense: %w", err)
			}
			fmt.Printf("Added recurring expense %s (%s)\n", expense.Name, expense.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&amountStr, "amount", "", "expected amount, e.g. 49.99")
	cmd.Flags().IntVar(&day, "day", 1, "day of month the expense is due (clamped to month end)")
	cmd.Flags().IntVar(&interval, "interval", 1, "interval in months between occurrences")
	cmd.Flags().StringVar(&keywords, "keywords", "", "comma-separated keywords for statement matching")
	cmd.Flags().StringVar(&categoryID, "category", "", "category id assigned to matched transactions")
	cmd.Flags().StringVar(&startStr, "start", "", "anchor month YYYY-MM (defaults to the current month)")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func newRecurringListCommand(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring expense templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			expenses, err := e.store.ListRecurringExpenses(cmd.Context(), e.userID, !all)
			if err != nil {
				return err
			}
			if len(expenses) == 0 {
				fmt.Println("No recurring expenses")
				return nil
			}
			for _, re := range expenses {
				status := "active"
				if !re.IsActive {
					status = "inactive"
				}
				fmt.Printf("%s  %-24s %10s %s  day %2d  every %dmo  [%s]\n",
					re.ID, re.Name, re.Amount.StringFixed(2), re.Currency,
					re.DayOfMonth, re.IntervalMonths, status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive templates")

	return cmd
}

func newRecurringGenerateCommand(opts *rootOptions) *cobra.Command {
	var monthStr string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate planned transactions for templates due in a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			month, err := resolveMonth(monthStr)
			if err != nil {
				return err
			}

			svc := recurring.NewService(e.store, e.log)
			created, err := svc.Generate(cmd.Context(), e.userID, month.Year(), month.Month())
			if err != nil {
				return err
			}
			fmt.Printf("Generated %d transactions for %s\n", created, month.Format("2006-01"))
			return nil
		},
	}

	cmd.Flags().StringVar(&monthStr, "month", "", "target month YYYY-MM (defaults to the current month)")

	return cmd
}

func newRecurringRematchCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rematch",
		Short: "Link imported transactions to recurring expense templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			svc := recurring.NewService(e.store, e.log)
			linked, err := svc.Rematch(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			fmt.Printf("Linked %d transactions\n", linked)
			return nil
		},
	}
	return cmd
}

func newRecurringConfirmCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <transaction-id>",
		Short: "Mark a generated transaction as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			svc := recurring.NewService(e.store, e.log)
			if err := svc.ConfirmPayment(cmd.Context(), e.userID, args[0]); err != nil {
				return err
			}
			fmt.Printf("Transaction %s confirmed\n", args[0])
			return nil
		},
	}
	return cmd
}

func newRecurringOverrideCommand(opts *rootOptions) *cobra.Command {
	var monthStr, amountStr, notes string
	var skip bool

	cmd := &cobra.Command{
		Use:   "override <expense-id>",
		Short: "Set a per-month exception for a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			month, err := resolveMonth(monthStr)
			if err != nil {
				return err
			}

			ov := &model.RecurringOverride{
				RecurringExpenseID: args[0],
				Month:              month,
				IsSkipped:          skip,
				Notes:              notes,
			}
			if amountStr != "" {
				amount, err := decimal.NewFromString(amountStr)
				if err != nil {
					return fmt.Errorf("parsing amount %q: %w", amountStr, err)
				}
				ov.OverrideAmount = &amount
			}
			if err := e.store.UpsertOverride(cmd.Context(), ov); err != nil {
				return fmt.Errorf("saving override: %w", err)
			}
			fmt.Printf("Override saved for %s %s\n", args[0], month.Format("2006-01"))
			return nil
		},
	}

	cmd.Flags().StringVar(&monthStr, "month", "", "target month YYYY-MM (defaults to the current month)")
	cmd.Flags().StringVar(&amountStr, "amount", "", "amount to use instead of the template amount")
	cmd.Flags().BoolVar(&skip, "skip", false, "skip generation for this month")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form note on the override")

	return cmd
}

func newRecurringFromCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "from-transaction <transaction-id>",
		Short: "Create a template from an existing transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			txns, err := e.store.ListTransactions(cmd.Context(), e.userID, store.TransactionFilter{})
			if err != nil {
				return err
			}
			var found *model.Transaction
			for i := range txns {
				if txns[i].ID == args[0] {
					found = &txns[i]
					break
				}
			}
			if found == nil {
				return fmt.Errorf("transaction %s not found", args[0])
			}

			expense := recurring.FromTransaction(*found)
			if err := e.store.InsertRecurringExpense(cmd.Context(), &expense); err != nil {
				return fmt.Errorf("saving recurring expense: %w", err)
			}
			if err := e.store.LinkTransactionRecurring(cmd.Context(), e.userID, found.ID, expense.ID, expense.CategoryID); err != nil {
				return fmt.Errorf("linking source transaction: %w", err)
			}
			fmt.Printf("Created recurring expense %s (%s) from transaction %s\n",
				expense.Name, expense.ID, found.ID)
			return nil
		},
	}
	return cmd
}

// resolveMonth parses YYYY-MM, defaulting to the current month.
func resolveMonth(s string) (time.Time, error) {
	if s == "" {
		return model.MonthOf(time.Now()), nil
	}
	d, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing month %q: %w", s, err)
	}
	return d, nil
}

// splitKeywords turns a comma-separated flag value into trimmed lowercase
// keywords.
func splitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
