// Package app wires the full planning pipeline: load data, optimize the
// baseline, apply what-if disruptions, emit alerts, reports, recommendations
// and metrics.
package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skyfreight/cargoplan/core/allocator"
	"github.com/skyfreight/cargoplan/core/disruption"
	"github.com/skyfreight/cargoplan/core/logger"
	coremetrics "github.com/skyfreight/cargoplan/core/metrics"
	"github.com/skyfreight/cargoplan/core/model"
	"github.com/skyfreight/cargoplan/core/optimizer"
	"github.com/skyfreight/cargoplan/core/simulate"
	"github.com/skyfreight/cargoplan/infra/notify"
	"github.com/skyfreight/cargoplan/internal/eventbus"
	"github.com/skyfreight/cargoplan/internal/loader"
	"github.com/skyfreight/cargoplan/internal/recommend"
	"github.com/skyfreight/cargoplan/internal/report"
)

// Options parameterizes one pipeline run.
type Options struct {
	DataDir        string
	OutputDir      string
	Seed           int64
	StrictCapacity bool
	Events         []disruption.Event
	WriteOutputs   bool
	GA             optimizer.Config
}

// Result is the outcome of one pipeline run. When no events were given the
// scenario plan is the baseline plan and Scenario is "baseline".
type Result struct {
	RunID           string
	Scenario        string
	Dataset         loader.Dataset
	Baseline        model.Plan
	Plan            model.Plan
	AdjustedFlights map[string]model.Flight
	Alerts          []disruption.Alert
	Events          []disruption.Event
	Recommendations recommend.Report
	Duration        time.Duration
}

// Pipeline runs plans end to end. Log is required; Bus, Sink and Notifier
// are optional.
type Pipeline struct {
	Log      logger.Logger
	Bus      eventbus.EventBus
	Sink     coremetrics.PlanSink
	Notifier notify.Notifier
}

// Run executes the pipeline with the given options.
func (p Pipeline) Run(opts Options) (Result, error) {
	started := time.Now()
	runID := uuid.NewString()

	dataset, err := loader.LoadAll(opts.DataDir)
	if err != nil {
		return Result{}, fmt.Errorf("load data: %w", err)
	}
	p.Log.Infof("loaded %d flights, %d cargo, %d connection rules",
		len(dataset.Flights), len(dataset.Cargo), len(dataset.Connections))

	opt := optimizer.Optimizer{
		Config: opts.GA,
		Sim: simulate.Simulator{
			Alloc: allocator.Allocator{Bus: p.Bus, StrictCapacity: opts.StrictCapacity},
			Log:   p.Log,
			Bus:   p.Bus,
		},
		Log: p.Log,
	}

	baseline := opt.Run(dataset.Cargo, dataset.Flights, dataset.Connections, opts.Seed)
	alerts := disruption.BaselineAlerts(baseline)

	scenario := "baseline"
	plan := baseline
	adjusted := dataset.Flights
	if len(opts.Events) > 0 {
		scenario = "disrupted"
		engine := disruption.Engine{Log: p.Log}
		var eventAlerts []disruption.Alert
		adjusted, eventAlerts = engine.AdjustFlights(dataset.Flights, opts.Events)
		plan = opt.Run(dataset.Cargo, adjusted, dataset.Connections, opts.Seed+1)
		alerts = append(alerts, eventAlerts...)
		alerts = append(alerts, disruption.CompareResults(baseline, plan)...)
	}

	result := Result{
		RunID:           runID,
		Scenario:        scenario,
		Dataset:         dataset,
		Baseline:        baseline,
		Plan:            plan,
		AdjustedFlights: adjusted,
		Alerts:          alerts,
		Events:          opts.Events,
		Recommendations: recommend.Generate(plan, dataset.Cargo, adjusted),
		Duration:        time.Since(started),
	}

	if opts.WriteOutputs {
		w := report.Writer{Dir: opts.OutputDir}
		if err := w.WriteAll(plan, adjusted, alerts); err != nil {
			return Result{}, fmt.Errorf("write outputs: %w", err)
		}
		p.Log.Infof("outputs written to %s", opts.OutputDir)
	}

	p.record(result, opts)
	if p.Notifier != nil {
		if err := p.Notifier.PublishAlerts(runID, alerts); err != nil {
			p.Log.Errorf("publish alerts: %v", err)
		}
	}
	p.Log.Infof("run %s finished: scenario=%s margin=%.2f alerts=%d took=%s",
		runID, scenario, plan.TotalMargin, len(alerts), result.Duration)
	return result, nil
}

// record pushes the run summary and flight loads to the metrics sink. Sink
// failures are logged, never fatal.
func (p Pipeline) record(result Result, opts Options) {
	if p.Sink == nil {
		return
	}
	counts := result.Plan.CountByStatus()
	breaches := 0
	samples := make([]coremetrics.FlightLoadSample, 0, len(result.Plan.FlightLoads))
	now := time.Now()
	for id, selection := range result.Plan.FlightLoads {
		if selection.CapacityBreached {
			breaches++
		}
		samples = append(samples, coremetrics.FlightLoadSample{
			RunID:             result.RunID,
			FlightID:          id,
			WeightUtilization: selection.WeightUtilization(),
			VolumeUtilization: selection.VolumeUtilization(),
			CargoCount:        len(selection.Selected),
			CapacityBreached:  selection.CapacityBreached,
			Time:              now,
		})
	}

	res := coremetrics.PlanResult{
		RunID:       result.RunID,
		Scenario:    result.Scenario,
		Seed:        opts.Seed,
		TotalMargin: result.Plan.TotalMargin,
		Delivered:   counts[model.StatusDelivered],
		Rolled:      counts[model.StatusRolled],
		Denied:      counts[model.StatusDenied],
		AlertCount:  len(result.Alerts),
		CargoCount:  len(result.Dataset.Cargo),
		FlightCount: len(result.AdjustedFlights),
		Breaches:    breaches,
		Duration:    result.Duration,
		CompletedAt: now,
	}
	if err := p.Sink.RecordPlanResult(res); err != nil {
		p.Log.Errorf("record plan result: %v", err)
	}
	if fr, ok := p.Sink.(coremetrics.FlightLoadRecorder); ok {
		if err := fr.RecordFlightLoads(samples); err != nil {
			p.Log.Errorf("record flight loads: %v", err)
		}
	}
}
