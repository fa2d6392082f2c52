package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/skyfreight/cargoplan/core/metrics"
)

// Config selects and parameterizes the metrics sinks.
type Config struct {
	Sinks        []string `json:"sinks" yaml:"sinks" validate:"dive,oneof=prometheus influx nop"`
	InfluxURL    string   `json:"influx_url" yaml:"influx_url"`
	InfluxToken  string   `json:"influx_token" yaml:"influx_token"`
	InfluxOrg    string   `json:"influx_org" yaml:"influx_org"`
	InfluxBucket string   `json:"influx_bucket" yaml:"influx_bucket"`
}

// NewSink builds the configured sink set. No sinks means NopSink; several
// sinks are wrapped in a MultiSink.
func NewSink(cfg Config, reg prometheus.Registerer) (coremetrics.PlanSink, error) {
	var sinks []coremetrics.PlanSink
	for _, name := range cfg.Sinks {
		switch name {
		case "prometheus":
			s, err := NewPromSink(reg)
			if err != nil {
				return nil, fmt.Errorf("prometheus sink: %w", err)
			}
			sinks = append(sinks, s)
		case "influx":
			sinks = append(sinks, NewInfluxSinkWithFallback(cfg))
		case "nop":
			sinks = append(sinks, coremetrics.NopSink{})
		default:
			return nil, fmt.Errorf("unknown metrics sink %q", name)
		}
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
