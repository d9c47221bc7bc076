package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/firecad/internal/cad"
	"github.com/nerrad567/firecad/internal/cad/dxf"
	"github.com/nerrad567/firecad/internal/firesafety"
	"github.com/nerrad567/firecad/internal/infrastructure/config"
)

// configEnv names the config file when --config is not given.
const configEnv = "FIRECAD_CONFIG"

// Reasons reported for formats that cannot be analysed.
const (
	dwgUnavailableReason = "DWG decoding is not built in; export the drawing to DXF"
	formatDisabledReason = "disabled by analysis.enabled_formats"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
}

// newRootCmd creates the firecad command tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "firecad",
		Short: "Fire-safety layer analysis for CAD drawings",
		Long: `FireCAD reads CAD drawings, finds the layers that carry fire-safety
information and extracts a device inventory from their block insertions.

Examples:
  firecad analyze level1.dxf --pretty      # Analyse one drawing
  firecad analyze level1.dxf --xlsx out.xlsx
  firecad classify E-FIRE A-WALL           # Classify layer names
  firecad serve                            # Run the HTTP API`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(configEnv),
		"config file (default: built-in defaults, env "+configEnv+")")

	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig loads the config file named by --config, or the built-in
// defaults with environment overrides when none is given.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}

// newAnalyzer builds an analyzer over every drawing format FireCAD knows.
// Formats left out of analysis.enabled_formats stay registered as
// unavailable so their files get a structured outcome.
func newAnalyzer(cfg *config.Config) *firesafety.Analyzer {
	var dxfOpener cad.Opener = dxf.NewOpener(cfg.MaxFileSizeBytes())
	if !cfg.FormatEnabled("dxf") {
		dxfOpener = cad.Unsupported("dxf", formatDisabledReason, ".dxf")
	}

	dwgReason := dwgUnavailableReason
	if !cfg.FormatEnabled("dwg") {
		dwgReason = formatDisabledReason
	}

	return firesafety.NewAnalyzer(cad.NewRegistry(
		dxfOpener,
		cad.Unsupported("dwg", dwgReason, ".dwg"),
	))
}
