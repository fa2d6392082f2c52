package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skyfreight/cargoplan/core/disruption"
)

var (
	disruptEventsPath string
	disruptSeed       int64
	disruptWrite      bool
)

var disruptCmd = &cobra.Command{
	Use:   "disrupt",
	Short: "Re-optimize under a disruption scenario and report the differences",
	RunE:  runDisrupt,
}

func init() {
	disruptCmd.Flags().StringVar(&disruptEventsPath, "events", "", "JSON file with disruption events")
	disruptCmd.Flags().Int64Var(&disruptSeed, "seed", 0, "random seed (0 uses the configured seed)")
	disruptCmd.Flags().BoolVar(&disruptWrite, "write", true, "write the output files")
	if err := disruptCmd.MarkFlagRequired("events"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(disruptCmd)
}

func runDisrupt(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(disruptEventsPath)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	var events []disruption.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("parse events: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("events file %s holds no events", disruptEventsPath)
	}

	pipeline, opts, cleanup, err := buildPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	if disruptSeed != 0 {
		opts.Seed = disruptSeed
	}
	opts.Events = events
	opts.WriteOutputs = disruptWrite

	result, err := pipeline.Run(opts)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: baseline margin %.2f, scenario margin %.2f, %d alerts\n",
		result.RunID, result.Baseline.TotalMargin, result.Plan.TotalMargin, len(result.Alerts))
	for _, a := range result.Alerts {
		fmt.Printf("  [%s] %s: %s\n", a.Severity, a.Type, a.Message)
	}
	return nil
}
