package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/ruslic/formatter"
	"github.com/gnolang/ruslic/internal/types"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary [logs...]",
	Short: "Aggregate the summary lines of earlier runs",
	Long: `Reads the lines printed by 'synth --json' from build logs, or from stdin when no log is given,
and prints the outcome counts with per-solution averages.`,
	Run: func(cmd *cobra.Command, args []string) {
		var results []types.SynthesisResult
		if len(args) == 0 {
			res, err := formatter.ParseSummaries(cmd.InOrStdin())
			if err != nil {
				logger.Fatal("Error reading summaries", zap.Error(err))
			}
			results = res
		}
		for _, path := range args {
			res, err := readSummaries(path)
			if err != nil {
				logger.Fatal("Error reading summaries", zap.String("path", path), zap.Error(err))
			}
			results = append(results, res...)
		}
		if err := printAggregate(cmd.OutOrStdout(), results, summaryJSON); err != nil {
			logger.Error("Error aggregating summaries", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Output the aggregate in JSON format")
}

func readSummaries(path string) ([]types.SynthesisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return formatter.ParseSummaries(f)
}

type aggregate struct {
	Summary   types.Summary     `json:"summary"`
	MeanStats []types.MeanStats `json:"mean_stats"`
	PureFns   types.UsedPureFns `json:"pure_fns"`
}

func printAggregate(out io.Writer, results []types.SynthesisResult, isJSON bool) error {
	pureFns, stats, err := types.CalculateMeanStats(formatter.SolvedOf(results))
	if err != nil {
		return err
	}
	summary := types.Summarise(results)

	if isJSON {
		d, err := json.Marshal(aggregate{Summary: summary, MeanStats: stats, PureFns: pureFns})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(d))
		return err
	}
	fmt.Fprint(out, formatter.FormatSummary(summary))
	fmt.Fprint(out, formatter.FormatMeanStats(pureFns, stats))
	return nil
}
