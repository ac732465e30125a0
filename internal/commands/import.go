package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skarbnik-dev/skarbnik/internal/importer"
	"github.com/skarbnik-dev/skarbnik/internal/importlog"
	"github.com/skarbnik-dev/skarbnik/internal/ingest"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var format string
	var accountID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank statement file",
		Long: "Parse a bank statement and persist its transactions.\n" +
			"The parser is chosen from the file content unless --format is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading statement file: %w", err)
			}

			svc := ingest.NewService(e.store, importer.DefaultRegistry(), e.log)
			summary, err := svc.Import(cmd.Context(), e.userID, accountID, format, raw)
			if err != nil {
				return err
			}

			if e.cfg.Imports.AuditLog {
				entry := importlog.Entry{
					Timestamp:  time.Now(),
					UserID:     e.userID,
					Filename:   filepath.Base(args[0]),
					Format:     summary.Format,
					Imported:   summary.Imported,
					Duplicates: summary.Duplicates,
					Failed:     len(summary.Errors),
				}
				if err := importlog.Append(opts.dataDir, []importlog.Entry{entry}); err != nil {
					e.log.Warn().Err(err).Msg("writing import audit log failed")
				}
			}

			printSummary(summary)
			if !summary.Succeeded() {
				return fmt.Errorf("no transactions imported from %s", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "",
		fmt.Sprintf("statement format (%s); detected from content when empty",
			strings.Join(importer.DefaultRegistry().Formats(), ", ")))
	cmd.Flags().StringVar(&accountID, "account", "", "account id to attach transactions to")

	return cmd
}

func printSummary(s *ingest.ImportSummary) {
	fmt.Printf("Format: %s", s.Format)
	if s.Bank != "" && s.Bank != importer.DialectUnknown {
		fmt.Printf(" (%s)", s.Bank)
	}
	fmt.Println()
	fmt.Printf("Parsed: %d  Imported: %d  Duplicates: %d  Categorized: %d\n",
		s.Parsed, s.Imported, s.Duplicates, s.Categorized)
	for _, e := range s.Errors {
		fmt.Printf("  warning: %s\n", e)
	}
}
