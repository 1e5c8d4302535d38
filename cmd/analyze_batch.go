package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tierlens-cli/internal/analysis"
	"github.com/KaramelBytes/tierlens-cli/internal/parser"
	"github.com/KaramelBytes/tierlens-cli/internal/table"
	"github.com/KaramelBytes/tierlens-cli/internal/utils"
)

var (
	abFlags   pipelineFlags
	abWorkers int
	abOutDir  string
	abQuiet   bool
)

// batchRecord is the JSON envelope written per file.
type batchRecord struct {
	RunID  string           `json:"run_id"`
	Source string           `json:"source"`
	Report *analysis.Report `json:"report"`
}

type batchResult struct {
	path    string
	outFile string
	out     []byte
	rep     *analysis.Report
	err     error
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/XLSX files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		lo, opt, err := abFlags.options(cmd)
		if err != nil {
			return err
		}
		workers := abWorkers
		if !cmd.Flags().Changed("workers") {
			workers = effectiveConfig().BatchWorkers
		}
		if workers <= 0 {
			workers = 4
		}
		if abOutDir != "" {
			if err := os.MkdirAll(abOutDir, 0o755); err != nil {
				return fmt.Errorf("create out dir: %w", err)
			}
		}

		runID := uuid.NewString()
		out := cmd.OutOrStdout()
		if !abQuiet {
			fmt.Fprintf(out, "Batch %s: %d file(s), %d worker(s)\n", runID, len(files), workers)
		}
		results := make([]batchResult, len(files))
		for i, path := range files {
			results[i].path = path
		}
		if abOutDir != "" {
			assignOutputs(results, abOutDir, abFlags.suffix())
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(workers)
		for i := range results {
			res := &results[i]
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res.rep, res.out, res.err = analyzeOne(res.path, runID, lo, opt)
				if res.err == nil && res.outFile != "" {
					if err := utils.SafeWriteFile(res.outFile, res.out); err != nil {
						res.err = fmt.Errorf("write %s: %w", res.outFile, err)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		failed := 0
		for i, res := range results {
			if res.err != nil {
				failed++
				logger.Error("batch file failed", "run_id", runID, "file", res.path, "error", res.err)
				if !abQuiet {
					fmt.Fprintf(out, "[%d/%d] ✗ %s: %v\n", i+1, len(results), res.path, res.err)
				}
				continue
			}
			logWarnings(res.rep)
			if abQuiet {
				continue
			}
			if res.outFile != "" {
				fmt.Fprintf(out, "[%d/%d] ✓ %s → %s\n", i+1, len(results), res.path, res.outFile)
				continue
			}
			fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(results), res.path)
			_, _ = out.Write(res.out)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates, and
// returns them sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// assignOutputs picks one output file per input. Inputs sharing a base name
// get __2, __3, ... suffixes in input order.
func assignOutputs(results []batchResult, outDir, suffix string) {
	used := map[string]struct{}{}
	for i := range results {
		cand := utils.SummaryPath(outDir, results[i].path, suffix)
		base := strings.TrimSuffix(cand, suffix)
		for n := 2; ; n++ {
			if _, ok := used[cand]; !ok {
				break
			}
			cand = fmt.Sprintf("%s__%d%s", base, n, suffix)
		}
		used[cand] = struct{}{}
		results[i].outFile = cand
	}
}

func analyzeOne(path, runID string, lo table.LoadOptions, opt analysis.Options) (*analysis.Report, []byte, error) {
	t, err := parser.ParseFile(path, lo)
	if err != nil {
		return nil, nil, err
	}
	rep := analysis.Analyze(t, opt)
	out, err := abFlags.renderReport(rep, func(r *analysis.Report) any {
		return batchRecord{RunID: runID, Source: path, Report: r}
	})
	return rep, out, err
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.bind(analyzeBatchCmd)
	analyzeBatchCmd.Flags().IntVar(&abWorkers, "workers", 4, "number of files analyzed concurrently (default from config)")
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "write one summary per input into this directory instead of stdout")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}

