package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/skyfreight/cargoplan/core/metrics"
	"github.com/skyfreight/cargoplan/infra/logger"
)

// InfluxSink writes plan runs to an InfluxDB instance using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg Config) coremetrics.PlanSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlanResult writes the plan summary as a single measurement point.
func (s *InfluxSink) RecordPlanResult(res coremetrics.PlanResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("run_id", res.RunID).
		AddTag("scenario", res.Scenario).
		AddField("seed", res.Seed).
		AddField("total_margin", round3(res.TotalMargin)).
		AddField("delivered", res.Delivered).
		AddField("rolled", res.Rolled).
		AddField("denied", res.Denied).
		AddField("alerts", res.AlertCount).
		AddField("cargo", res.CargoCount).
		AddField("flights", res.FlightCount).
		AddField("breaches", res.Breaches).
		AddField("duration_ms", res.Duration.Milliseconds()).
		SetTime(res.CompletedAt)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFlightLoads writes one point per flight of the latest plan.
func (s *InfluxSink) RecordFlightLoads(samples []coremetrics.FlightLoadSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, sample := range samples {
		p := write.NewPointWithMeasurement("flight_load").
			AddTag("run_id", sample.RunID).
			AddTag("flight_id", sample.FlightID).
			AddTag("breached", strconv.FormatBool(sample.CapacityBreached)).
			AddField("weight_utilization", round3(sample.WeightUtilization)).
			AddField("volume_utilization", round3(sample.VolumeUtilization)).
			AddField("cargo_count", sample.CargoCount).
			SetTime(sample.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
