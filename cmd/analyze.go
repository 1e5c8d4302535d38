package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tierlens-cli/internal/analysis"
	"github.com/KaramelBytes/tierlens-cli/internal/parser"
	"github.com/KaramelBytes/tierlens-cli/internal/utils"
)

var (
	anaFlags      pipelineFlags
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/XLSX export and print tier and advisor breakdowns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		lo, opt, err := anaFlags.options(cmd)
		if err != nil {
			return err
		}
		t, err := parser.ParseFile(path, lo)
		if err != nil {
			return err
		}
		logger.Debug("table loaded", "file", t.Name, "rows", len(t.Rows), "columns", len(t.Columns))

		rep := analysis.Analyze(t, opt)
		logWarnings(rep)
		out, err := anaFlags.renderReport(rep, nil)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.bind(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
}
