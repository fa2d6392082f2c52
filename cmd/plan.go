package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skyfreight/cargoplan/app"
	"github.com/skyfreight/cargoplan/config"
	"github.com/skyfreight/cargoplan/infra/logger"
	"github.com/skyfreight/cargoplan/infra/metrics"
	"github.com/skyfreight/cargoplan/infra/notify"
	"github.com/skyfreight/cargoplan/internal/eventbus"
)

var (
	planSeed    int64
	planDataDir string
	planOutDir  string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run the baseline optimization and write the output files",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().Int64Var(&planSeed, "seed", 0, "random seed (0 uses the configured seed)")
	planCmd.Flags().StringVar(&planDataDir, "data", "", "input directory override")
	planCmd.Flags().StringVar(&planOutDir, "out", "", "output directory override")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	pipeline, opts, cleanup, err := buildPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	if planSeed != 0 {
		opts.Seed = planSeed
	}
	if planDataDir != "" {
		opts.DataDir = planDataDir
	}
	if planOutDir != "" {
		opts.OutputDir = planOutDir
	}
	opts.WriteOutputs = true

	result, err := pipeline.Run(opts)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: margin %.2f, %d alerts\n", result.RunID, result.Plan.TotalMargin, len(result.Alerts))
	return nil
}

// buildPipeline assembles the pipeline and default options from the loaded
// configuration. The returned cleanup closes the notifier.
func buildPipeline() (app.Pipeline, app.Options, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return app.Pipeline{}, app.Options{}, nil, fmt.Errorf("load config: %w", err)
	}
	return assemblePipeline(cfg)
}

func assemblePipeline(cfg config.Config) (app.Pipeline, app.Options, func(), error) {
	log := logger.New("pipeline")
	sink, err := metrics.NewSink(cfg.Metrics, nil)
	if err != nil {
		return app.Pipeline{}, app.Options{}, nil, fmt.Errorf("metrics sink: %w", err)
	}
	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		return app.Pipeline{}, app.Options{}, nil, fmt.Errorf("notifier: %w", err)
	}

	pipeline := app.Pipeline{
		Log:      log,
		Bus:      eventbus.New(),
		Sink:     sink,
		Notifier: notifier,
	}
	opts := app.Options{
		DataDir:        cfg.DataDir,
		OutputDir:      cfg.OutputDir,
		Seed:           cfg.Seed,
		StrictCapacity: cfg.Strict,
		GA:             cfg.GA,
	}
	return pipeline, opts, notifier.Close, nil
}
