package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skarbnik-dev/skarbnik/internal/categorize"
)

func newCategorizeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize transactions that have no category yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			matcher := categorize.NewMatcher(e.store)
			updated, err := matcher.Backfill(cmd.Context(), e.userID)
			if err != nil {
				return err
			}
			fmt.Printf("Categorized %d transactions\n", updated)
			return nil
		},
	}
	return cmd
}
