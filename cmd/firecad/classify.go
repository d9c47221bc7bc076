package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/firecad/internal/api"
)

// newClassifyCmd classifies layer names without opening a drawing.
func newClassifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <layer>...",
		Short: "Classify layer names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]api.LayerClassification, 0, len(args))
			for _, name := range args {
				results = append(results, api.ClassifyName(name))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LAYER\tCLASSIFICATION\tRELEVANCE\tAIA")
			for _, r := range results {
				aia := r.AIAStandard
				if aia == "" {
					aia = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Classification, r.Relevance, aia)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
