package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tierlens-cli/internal/analysis"
	"github.com/KaramelBytes/tierlens-cli/internal/table"
	"github.com/KaramelBytes/tierlens-cli/internal/utils"
)

// pipelineFlags are the loading and analysis flags shared by analyze and
// analyze-batch. Unset flags defer to the config file.
type pipelineFlags struct {
	format      string
	previewRows int
	delimiter   string
	encoding    string
	rulesFile   string
	strict      bool
}

func (p *pipelineFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.format, "format", "markdown", "output format: markdown | json")
	f.IntVar(&p.previewRows, "preview-rows", 0, "number of leading rows in the preview (default from config, 10)")
	f.StringVar(&p.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' | any single character")
	f.StringVar(&p.encoding, "encoding", "", "CSV text encoding: utf-8 | gbk | gb18030")
	f.StringVar(&p.rulesFile, "rules", "", "YAML rules file replacing the built-in detection rules")
	f.BoolVar(&p.strict, "strict", false, "fail a dimension on unparseable amounts instead of counting them as the fallback")
}

// options merges config and flags.
func (p *pipelineFlags) options(cmd *cobra.Command) (table.LoadOptions, analysis.Options, error) {
	c := *effectiveConfig()
	f := cmd.Flags()
	if f.Changed("delimiter") {
		c.Delimiter = p.delimiter
	}
	if f.Changed("encoding") {
		c.Encoding = p.encoding
	}
	if f.Changed("preview-rows") {
		if p.previewRows <= 0 {
			return table.LoadOptions{}, analysis.Options{}, fmt.Errorf("--preview-rows must be positive")
		}
		c.PreviewRows = p.previewRows
	}
	if f.Changed("rules") {
		c.RulesFile = p.rulesFile
	}
	if f.Changed("strict") {
		c.StrictNumbers = p.strict
	}
	switch p.format {
	case "markdown", "md", "json":
	default:
		return table.LoadOptions{}, analysis.Options{}, fmt.Errorf("unsupported --format: %s (use markdown|json)", p.format)
	}
	lo, err := c.LoadOptions()
	if err != nil {
		return lo, analysis.Options{}, err
	}
	ao, err := c.AnalysisOptions()
	return lo, ao, err
}

func (p *pipelineFlags) isJSON() bool { return p.format == "json" }

// renderReport returns the report in the requested format. envelope, if
// non-nil, wraps the JSON output.
func (p *pipelineFlags) renderReport(rep *analysis.Report, envelope func(*analysis.Report) any) ([]byte, error) {
	if !p.isJSON() {
		return []byte(rep.Markdown()), nil
	}
	var v any = rep
	if envelope != nil {
		v = envelope(rep)
	}
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (p *pipelineFlags) suffix() string {
	if p.isJSON() {
		return ".json"
	}
	return ".summary.md"
}

// logWarnings forwards report warnings to the structured log.
func logWarnings(rep *analysis.Report) {
	for _, w := range rep.Warnings {
		logger.Warn("analysis warning", "file", rep.Filename, "warning", w)
	}
}

