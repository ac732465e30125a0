// Package commands wires the CLI: shared store/config setup and the
// import, categorize, recurring and rules subcommands.
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/skarbnik-dev/skarbnik/internal/buildinfo"
	"github.com/skarbnik-dev/skarbnik/internal/config"
	"github.com/skarbnik-dev/skarbnik/internal/logger"
	"github.com/skarbnik-dev/skarbnik/internal/store"
)

// rootOptions carries the persistent flags shared by all subcommands.
type rootOptions struct {
	dataDir string
	user    string
	memory  bool
}

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "skarbnik",
		Short:   "Bank statement ingestion and transaction normalization",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", ".", "data directory holding config, database and logs")
	rootCmd.PersistentFlags().StringVar(&opts.user, "user", "", "user id (defaults to the configured user)")
	rootCmd.PersistentFlags().BoolVar(&opts.memory, "memory", false, "use an ephemeral in-memory store")

	rootCmd.AddCommand(newInitCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newCategorizeCommand(opts))
	rootCmd.AddCommand(newRecurringCommand(opts))
	rootCmd.AddCommand(newRulesCommand(opts))

	return rootCmd
}

// env is the resolved runtime environment for one command invocation.
type env struct {
	cfg    *config.Config
	store  store.Store
	userID string
	log    zerolog.Logger
	close  func() error
}

// openEnv loads config and opens the configured store.
func openEnv(opts *rootOptions) (*env, error) {
	dataDir, err := filepath.Abs(opts.dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}

	cfg, err := config.LoadOrDefault(dataDir)
	if err != nil {
		return nil, err
	}

	userID := opts.user
	if userID == "" {
		userID = cfg.Defaults.UserID
	}

	log := logger.New(cfg.Log.Level)

	e := &env{cfg: cfg, userID: userID, log: log, close: func() error { return nil }}

	if opts.memory || cfg.Store.Driver == "memory" {
		e.store = store.NewMemoryStore()
		return e, nil
	}

	s, err := store.OpenSQLite(filepath.Join(dataDir, cfg.Store.Path))
	if err != nil {
		return nil, err
	}
	e.store = s
	e.close = s.Close
	return e, nil
}
