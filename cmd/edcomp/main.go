/*
main.go - edcomp CLI entry point

PURPOSE:
  Sequences the compensation pipeline from the command line.

COMMANDS:
  run     Execute the pipeline for a date range (previous calendar
          month by default) and persist the report and issues
  serve   Start the HTTP API
  scrape  Fetch the external schedule and persist the snapshot

GLOBAL FLAGS:
  --config   Path to the YAML configuration (default: config.yaml)
  --verbose  Debug-level logging

EXAMPLES:
  edcomp run
  edcomp run --start 2026-03-01 --end 2026-03-31
  edcomp scrape --start 2026-03-01 --end 2026-03-31
  edcomp serve

SEE ALSO:
  - config/config.go: Configuration file format
  - api/server.go: Routes served by `serve`
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/medshift/comp-engine/comp"
	"github.com/medshift/comp-engine/config"
	"github.com/medshift/comp-engine/validate"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "edcomp",
	Short: "ED physician compensation engine",
	Long: `edcomp computes physician compensation from shift and billing records.

It reconciles the published Amion schedule against recorded shifts,
validates shift integrity, and produces payroll-ready compensation
summaries combining base pay, differentials, productivity bonuses, and
sustained-performance bonuses.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEngines loads the configuration and constructs the calculator and
// validator, failing fast on any bad parameter.
func loadEngines() (*config.Config, *comp.Calculator, *validate.Validator, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	plan, err := cfg.Plan()
	if err != nil {
		return nil, nil, nil, err
	}
	calc, err := comp.NewCalculator(plan)
	if err != nil {
		return nil, nil, nil, err
	}
	vcfg, err := cfg.ValidatorConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	validator, err := validate.New(vcfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, calc, validator, nil
}
