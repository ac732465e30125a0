package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

func newRulesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
	}

	cmd.AddCommand(newRulesListCommand(opts))
	cmd.AddCommand(newRulesAddCommand(opts))
	cmd.AddCommand(newCategoriesCommand(opts))

	return cmd
}

func newRulesListCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			rules, err := e.store.ListRules(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			categories, err := e.store.ListCategories(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			names := make(map[string]string, len(categories))
			for _, c := range categories {
				names[c.ID] = c.Name
			}

			if len(rules) == 0 {
				fmt.Println("No rules")
				return nil
			}
			for _, r := range rules {
				tier := "user"
				if r.IsSystem {
					tier = "system"
				}
				fmt.Printf("%s  %-20q -> %-16s [%s]\n", r.ID, r.Keyword, names[r.CategoryID], tier)
			}
			return nil
		},
	}
	return cmd
}

func newRulesAddCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <keyword> <category-id>",
		Short: "Add a user rule mapping a keyword to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			rule := &model.CategorizationRule{
				UserID:     e.userID,
				Keyword:    args[0],
				CategoryID: args[1],
			}
			if err := e.store.InsertRule(cmd.Context(), rule); err != nil {
				return fmt.Errorf("saving rule: %w", err)
			}
			fmt.Printf("Added rule %s: %q -> %s\n", rule.ID, rule.Keyword, rule.CategoryID)
			return nil
		},
	}
	return cmd
}

func newCategoriesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List available categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			categories, err := e.store.ListCategories(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			for _, c := range categories {
				scope := "user"
				if c.UserID == "" {
					scope = "system"
				}
				fmt.Printf("%s  %-16s %s [%s]\n", c.ID, c.Name, c.Color, scope)
			}
			return nil
		},
	}
	return cmd
}
