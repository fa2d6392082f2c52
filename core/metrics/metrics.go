// Package metrics defines the observability contract for plan runs. Sinks
// live in infra/metrics; core code depends only on these interfaces.
package metrics

import "time"

// PlanResult summarizes one optimization run for recording.
type PlanResult struct {
	RunID       string
	Scenario    string
	Seed        int64
	TotalMargin float64
	Delivered   int
	Rolled      int
	Denied      int
	AlertCount  int
	CargoCount  int
	FlightCount int
	Breaches    int
	Duration    time.Duration
	CompletedAt time.Time
}

// FlightLoadSample is a per-flight utilization observation from a plan.
type FlightLoadSample struct {
	RunID             string
	FlightID          string
	WeightUtilization float64
	VolumeUtilization float64
	CargoCount        int
	CapacityBreached  bool
	Time              time.Time
}

// PlanSink records plan runs for observability purposes.
type PlanSink interface {
	RecordPlanResult(res PlanResult) error
}

// FlightLoadRecorder records per-flight utilization samples.
type FlightLoadRecorder interface {
	RecordFlightLoads(samples []FlightLoadSample) error
}

// NopSink discards every record.
type NopSink struct{}

// RecordPlanResult implements PlanSink.
func (NopSink) RecordPlanResult(PlanResult) error { return nil }

// RecordFlightLoads implements FlightLoadRecorder.
func (NopSink) RecordFlightLoads([]FlightLoadSample) error { return nil }
