package metrics

import coremetrics "github.com/skyfreight/cargoplan/core/metrics"

// MultiSink fans plan records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.PlanSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.PlanSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlanResult forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPlanResult(res coremetrics.PlanResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlanResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordFlightLoads forwards load samples to the sinks that support them.
func (m *MultiSink) RecordFlightLoads(samples []coremetrics.FlightLoadSample) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(coremetrics.FlightLoadRecorder); ok {
			if err := fr.RecordFlightLoads(samples); err != nil {
				return err
			}
		}
	}
	return nil
}
