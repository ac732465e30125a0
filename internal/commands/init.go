package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skarbnik-dev/skarbnik/internal/categorize"
	"github.com/skarbnik-dev/skarbnik/internal/config"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dataDir
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd.Context(), opts, absDir, skipSeed)
		},
	}

	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not seed system categories and rules")

	return cmd
}

func runInit(ctx context.Context, opts *rootOptions, dir string, skipSeed bool) error {
	for _, d := range []string{"logs", "import"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(cfgPath, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
	}

	dirOpts := *opts
	dirOpts.dataDir = dir
	e, err := openEnv(&dirOpts)
	if err != nil {
		return err
	}
	defer e.close()

	if !skipSeed {
		if err := categorize.SeedDefaults(ctx, e.store); err != nil {
			return fmt.Errorf("seeding defaults: %w", err)
		}
	}

	fmt.Printf("Initialized skarbnik data directory at %s\n", dir)
	return nil
}
