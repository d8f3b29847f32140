package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/ruslic/formatter"
	"github.com/gnolang/ruslic/internal/frontend"
	"github.com/gnolang/ruslic/internal/patch"
	"github.com/gnolang/ruslic/internal/types"
	"github.com/gnolang/ruslic/pipeline"
)

// variable for flags
var (
	fnTimeout  time.Duration
	threads    int
	solutions  int
	substitute bool
	dryRun     bool
	jsonOutput bool
	summarise  bool
	watch      bool
	emitOnly   bool
	cacheDir   string
)

var synthCmd = &cobra.Command{
	Use:   "synth [bundles...]",
	Short: "Synthesize the functions of contract bundles",
	Long: `Translates every goal of each bundle, runs the synthesizer on it and prints the solutions.
Example) ruslic synth --patch --summary target/ruslic/bank.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide bundle paths")
			os.Exit(1)
		}

		cfg := loadConfig()
		applySynthFlags(cmd, &cfg)

		out := cmd.OutOrStdout()
		if emitOnly {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := runEmit(ctx, logger, cfg, args, out); err != nil {
				logger.Error("Error emitting programs", zap.Error(err))
				os.Exit(1)
			}
			return
		}

		var opts []pipeline.Option
		if dryRun {
			opts = append(opts, pipeline.WithPatcher(patch.New(true, false, out)))
		}
		p, err := pipeline.New(cfg, logger, opts...)
		if err != nil {
			logger.Fatal("Failed to initialize pipeline", zap.Error(err))
		}

		if watch {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			runWatch(ctx, logger, p, cfg, args, out)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := runSynth(ctx, logger, p, cfg, args, out); err != nil {
			logger.Error("Error synthesizing bundles", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	synthCmd.Flags().DurationVar(&fnTimeout, "fn-timeout", 0, "Timeout for a single synthesizer run (overrides the configuration)")
	synthCmd.Flags().IntVar(&threads, "threads", 0, "Number of concurrent synthesizer runs")
	synthCmd.Flags().IntVar(&solutions, "solutions", 0, "Number of solutions to ask for")
	synthCmd.Flags().BoolVar(&substitute, "patch", false, "Write the first solution into the source file")
	synthCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show patches without applying them")
	synthCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print a machine-readable summary line")
	synthCmd.Flags().BoolVar(&summarise, "summary", false, "Print outcome counts")
	synthCmd.Flags().BoolVar(&watch, "watch", false, "Re-run bundles when they change")
	synthCmd.Flags().BoolVar(&emitOnly, "emit-only", false, "Print the programs without running the synthesizer")
	synthCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory of the result cache")
}

// applySynthFlags lets explicitly set flags override the configuration.
func applySynthFlags(cmd *cobra.Command, cfg *pipeline.Config) {
	flags := cmd.Flags()
	if flags.Changed("fn-timeout") {
		cfg.Timeout = fnTimeout
	}
	if flags.Changed("threads") {
		cfg.Threads = threads
	}
	if flags.Changed("solutions") {
		cfg.Solutions = solutions
	}
	if flags.Changed("patch") || dryRun {
		cfg.SubstResult = substitute || dryRun
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
}

func runSynth(ctx context.Context, logger *zap.Logger, p *pipeline.Pipeline, cfg pipeline.Config, paths []string, out io.Writer) error {
	var all []pipeline.Outcome
	for _, path := range paths {
		outcomes, err := synthBundle(ctx, logger, p, cfg, path, out)
		if err != nil {
			return err
		}
		all = append(all, outcomes...)
	}
	return printSummary(logger, all, out)
}

func synthBundle(ctx context.Context, logger *zap.Logger, p *pipeline.Pipeline, cfg pipeline.Config, path string, out io.Writer) ([]pipeline.Outcome, error) {
	b, err := frontend.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("Synthesizing bundle", zap.String("path", path), zap.Int("goals", len(b.Goals())))

	outcomes, err := p.Run(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprint(out, formatter.GenerateFormattedOutcomes(outcomes, cfg.PrintSlnAbove))
	return outcomes, nil
}

func printSummary(logger *zap.Logger, outcomes []pipeline.Outcome, out io.Writer) error {
	if summarise {
		results := make([]types.SynthesisResult, len(outcomes))
		for i, o := range outcomes {
			results[i] = o.Result
		}
		fmt.Fprint(out, formatter.FormatSummary(types.Summarise(results)))
	}
	if jsonOutput {
		line, err := formatter.FormatSummaryJSON(pipeline.Results(outcomes))
		if err != nil {
			logger.Error("Error marshalling summary to JSON", zap.Error(err))
			return err
		}
		fmt.Fprint(out, line)
	}
	return nil
}

// runWatch synthesizes paths once, then again whenever a bundle changes,
// until ctx is cancelled.
func runWatch(ctx context.Context, logger *zap.Logger, p *pipeline.Pipeline, cfg pipeline.Config, paths []string, out io.Writer) {
	if err := runSynth(ctx, logger, p, cfg, paths, out); err != nil {
		logger.Error("Error synthesizing bundles", zap.Error(err))
	}
	err := pipeline.Watch(ctx, logger, paths, func(ctx context.Context, path string) {
		outcomes, err := synthBundle(ctx, logger, p, cfg, path, out)
		if err != nil {
			logger.Error("Error synthesizing bundle", zap.String("path", path), zap.Error(err))
			return
		}
		_ = printSummary(logger, outcomes, out)
	})
	if err != nil {
		logger.Error("Error watching bundles", zap.Error(err))
	}
}
