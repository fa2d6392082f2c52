package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/skyfreight/cargoplan/core/metrics"
)

// PromSink records plan runs in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	margin      prometheus.Gauge
	assignments *prometheus.GaugeVec
	duration    prometheus.Histogram
	utilization *prometheus.GaugeVec
}

// NewPromSink registers plan metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	sink := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_runs_total",
			Help: "Total number of optimization runs",
		}, []string{"scenario"}),
		margin: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plan_total_margin",
			Help: "Total margin of the latest plan",
		}),
		assignments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plan_assignments",
			Help: "Assignment counts of the latest plan by status",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plan_run_duration_seconds",
			Help:    "Wall-clock duration of optimization runs",
			Buckets: prometheus.DefBuckets,
		}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plan_flight_utilization",
			Help: "Per-flight utilization of the latest plan",
		}, []string{"flight_id", "dimension", "breached"}),
	}

	if err := registerCounterVec(reg, &sink.runs); err != nil {
		return nil, err
	}
	if err := registerGauge(reg, &sink.margin); err != nil {
		return nil, err
	}
	if err := registerGaugeVec(reg, &sink.assignments); err != nil {
		return nil, err
	}
	if err := registerHistogram(reg, &sink.duration); err != nil {
		return nil, err
	}
	if err := registerGaugeVec(reg, &sink.utilization); err != nil {
		return nil, err
	}
	return sink, nil
}

func registerCounterVec(reg prometheus.Registerer, c **prometheus.CounterVec) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*c = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return nil
}

func registerGaugeVec(reg prometheus.Registerer, c **prometheus.GaugeVec) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*c = are.ExistingCollector.(*prometheus.GaugeVec)
	}
	return nil
}

func registerGauge(reg prometheus.Registerer, c *prometheus.Gauge) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*c = are.ExistingCollector.(prometheus.Gauge)
	}
	return nil
}

func registerHistogram(reg prometheus.Registerer, c *prometheus.Histogram) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*c = are.ExistingCollector.(prometheus.Histogram)
	}
	return nil
}

// RecordPlanResult updates the run counters and latest-plan gauges.
func (s *PromSink) RecordPlanResult(res coremetrics.PlanResult) error {
	s.runs.WithLabelValues(res.Scenario).Inc()
	s.margin.Set(res.TotalMargin)
	s.assignments.WithLabelValues("delivered").Set(float64(res.Delivered))
	s.assignments.WithLabelValues("rolled").Set(float64(res.Rolled))
	s.assignments.WithLabelValues("denied").Set(float64(res.Denied))
	s.duration.Observe(res.Duration.Seconds())
	return nil
}

// RecordFlightLoads updates the per-flight utilization gauges.
func (s *PromSink) RecordFlightLoads(samples []coremetrics.FlightLoadSample) error {
	for _, sample := range samples {
		breached := strconv.FormatBool(sample.CapacityBreached)
		s.utilization.WithLabelValues(sample.FlightID, "weight", breached).Set(sample.WeightUtilization)
		s.utilization.WithLabelValues(sample.FlightID, "volume", breached).Set(sample.VolumeUtilization)
	}
	return nil
}
