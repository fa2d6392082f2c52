package metrics

import (
	"testing"

	coremetrics "github.com/skyfreight/cargoplan/core/metrics"
)

func TestNewInfluxSinkTrimsWritePath(t *testing.T) {
	sink := NewInfluxSink("http://localhost:8086/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	if sink.client.ServerURL() != "http://localhost:8086" {
		t.Errorf("server url = %q", sink.client.ServerURL())
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	// No InfluxDB listening here; the health check must fail and the factory
	// falls back to the no-op sink.
	cfg := Config{InfluxURL: "http://127.0.0.1:1", InfluxToken: "t", InfluxOrg: "o", InfluxBucket: "b"}
	sink := NewInfluxSinkWithFallback(cfg)
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Errorf("expected NopSink fallback, got %T", sink)
	}
}
