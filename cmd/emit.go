package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/ruslic/internal/frontend"
	"github.com/gnolang/ruslic/pipeline"
)

var output string

var emitCmd = &cobra.Command{
	Use:   "emit [bundles...]",
	Short: "Print the synthesizer programs of contract bundles",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide bundle paths")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		out := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				logger.Fatal("Error creating output file", zap.Error(err))
			}
			defer f.Close()
			out = f
		}
		if err := runEmit(ctx, logger, loadConfig(), args, out); err != nil {
			logger.Error("Error emitting programs", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	emitCmd.Flags().StringVarP(&output, "output", "o", "", "Output path")
}

func runEmit(ctx context.Context, logger *zap.Logger, cfg pipeline.Config, paths []string, out io.Writer) error {
	cfg.CacheDir = ""
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	for _, path := range paths {
		b, err := frontend.Load(ctx, path)
		if err != nil {
			return err
		}
		if err := p.Emit(out, b); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
