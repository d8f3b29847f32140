package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/ruslic/pipeline"
)

var (
	cfgFile string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "ruslic [bundles...]",
	Short:            "ruslic - synthesize Rust function bodies from their contracts",
	TraverseChildren: true, // Prioritize subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		// no subcommand
		if len(args) == 0 {
			_ = cmd.Help()
			return
		}
		// Format: ruslic [bundle1 bundle2 ...] => behaves like the synth subcommand
		synthCmd.Run(synthCmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", pipeline.DefaultConfigFile, "Configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Hour, "Timeout for the whole run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(summaryCmd)
}

// loadConfig reads the configuration file, then RUSLIC_* variables.
func loadConfig() pipeline.Config {
	cfg, err := pipeline.LoadConfig(cfgFile)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.String("path", cfgFile), zap.Error(err))
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		logger.Fatal("Invalid environment override", zap.Error(err))
	}
	return cfg
}
