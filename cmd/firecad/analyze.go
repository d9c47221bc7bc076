package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/export"
	"github.com/nerrad567/firecad/internal/firesafety"
	"github.com/nerrad567/firecad/internal/infrastructure/database"
	"github.com/nerrad567/firecad/internal/infrastructure/logging"
	"github.com/nerrad567/firecad/internal/pipeline"
	"github.com/nerrad567/firecad/migrations"
)

type analyzeOptions struct {
	xlsxPath string
	pretty   bool
	archive  bool
}

// newAnalyzeCmd analyses one drawing and prints the outcome as JSON.
func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyse a drawing and print the outcome as JSON",
		Long: `Analyse a drawing and print the outcome envelope as JSON on stdout.

The command exits non-zero when the outcome status is not "ok"; the
outcome is still printed. Logs go to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log := logging.NewWithWriter(cfg.Logging, version, cmd.ErrOrStderr())

			analyzer := newAnalyzer(cfg)
			analyzer.SetLogger(log.Component("analyzer"))

			deps := pipeline.Deps{Analyzer: analyzer, Timeout: cfg.AnalysisTimeout()}
			if opts.archive {
				db, err := database.Open(cmd.Context(), database.Config{
					Path:        cfg.Database.Path,
					WALMode:     cfg.Database.WALMode,
					BusyTimeout: cfg.Database.BusyTimeout,
					Migrations:  migrations.FS,
				})
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close() //nolint:errcheck // Read-mostly one-shot connection
				if err := db.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				deps.Archive = archive.NewSQLiteRepository(db.DB)
			}

			p, err := pipeline.New(deps)
			if err != nil {
				return err
			}
			rec, err := p.AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.archive {
				log.Info("analysis archived", "id", rec.ID, "database", cfg.Database.Path)
			}

			out := rec.Outcome()
			if err := writeOutcome(cmd, out, opts.pretty); err != nil {
				return err
			}

			if opts.xlsxPath != "" && out.Result != nil {
				if err := writeWorkbook(opts.xlsxPath, out.Result); err != nil {
					return err
				}
				log.Info("device schedule written", "path", opts.xlsxPath)
			}

			if !out.OK() {
				return fmt.Errorf("analysis %s: %s", out.Status, out.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "also write the device schedule workbook to this path")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "store the analysis in the configured database")

	return cmd
}

func writeOutcome(cmd *cobra.Command, out firesafety.Outcome, pretty bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing outcome: %w", err)
	}
	return nil
}

func writeWorkbook(path string, result *firesafety.AnalysisResult) error {
	f, err := os.Create(path) //nolint:gosec // operator-supplied output path
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	if err := export.Write(f, result); err != nil {
		f.Close() //nolint:errcheck,gosec // Already failing
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing workbook: %w", err)
	}
	return nil
}
