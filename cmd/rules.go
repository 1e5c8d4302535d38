package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tierlens-cli/internal/utils"
)

var rulesFormat string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective dimension detection rules",
	Long: `Print the detection rules in effect: the built-in set, or the file named
by rules_file in the config. The YAML output is a valid --rules file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := effectiveConfig().AnalysisOptions()
		if err != nil {
			return err
		}
		var b []byte
		switch rulesFormat {
		case "yaml", "yml":
			b, err = opt.Rules.YAML()
		case "json":
			b, err = utils.PrettyJSON(opt.Rules)
			b = append(b, '\n')
		default:
			return fmt.Errorf("unsupported --format: %s (use yaml|json)", rulesFormat)
		}
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesFormat, "format", "yaml", "output format: yaml | json")
}
