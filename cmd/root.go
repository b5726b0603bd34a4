package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags for the inference run
	configPath   string // Path to the YAML run configuration
	dbPath       string // Optional SQLite database for persisting results
	logLevel     string // Log verbosity level
	pixels       int    // Sky map size for the demo model
	workers      int    // Worker group size for the distributed evaluator
	samplerSeed  int64  // Seed for the Monte Carlo sampler
	mockNoiseStd float64
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "field-infer",
	Short: "Bayesian parameter inference over stochastic field models",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration file")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to persist the run (optional)")
	runCmd.Flags().IntVar(&pixels, "pixels", 48, "sky map size of the demo model")
	runCmd.Flags().IntVar(&workers, "workers", 1, "worker group size for the distributed evaluator")
	runCmd.Flags().Int64Var(&samplerSeed, "sampler-seed", 1, "seed for the Monte Carlo sampler")
	runCmd.Flags().Float64Var(&mockNoiseStd, "mock-noise", 0.1, "noise stddev of the generated mock data")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}
