package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/skyfreight/cargoplan/core/disruption"
	"github.com/skyfreight/cargoplan/core/optimizer"
	infralogger "github.com/skyfreight/cargoplan/infra/logger"
)

const flightsCSV = `flight_id,origin,destination,departure_time,arrival_time,aircraft_type,weight_capacity_kg,volume_capacity_m3,operating_cost_per_kg,handling_penalty_per_hour,aircraft_swap_capacity_kg,aircraft_swap_volume_m3
F1,DEL,BOM,2024-03-01T08:00:00,2024-03-01T10:00:00,A320F,5000,50,10,100,8000,80
F2,DEL,BOM,2024-03-01T14:00:00,2024-03-01T16:00:00,A320F,5000,50,10,100,8000,80
F3,DEL,HYD,2024-03-01T08:00:00,2024-03-01T09:00:00,B737F,4000,40,12,120,6000,60
F4,HYD,BOM,2024-03-01T11:00:00,2024-03-01T13:00:00,B737F,4000,40,12,120,6000,60
`

const cargoCSV = `cargo_id,origin,destination,weight_kg,volume_m3,revenue_inr,priority,perishable,max_transit_hours,ready_time,due_by,handling_cost_per_kg,sla_penalty_per_hour
C1,DEL,BOM,1000,10,500000,high,no,12,2024-03-01T06:00:00,2024-03-01T22:00:00,5,2000
C2,DEL,BOM,800,8,300000,medium,no,12,2024-03-01T06:00:00,2024-03-01T22:00:00,4,1500
C3,DEL,BOM,700,7,200000,low,no,12,2024-03-01T06:00:00,2024-03-01T22:00:00,3,1000
`

const connectionsCSV = `origin,destination,connection_airport,min_connect_minutes,max_connect_hours
DEL,BOM,HYD,45,6
`

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"flights.csv":     flightsCSV,
		"cargo.csv":       cargoCSV,
		"connections.csv": connectionsCSV,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testPipeline() Pipeline {
	return Pipeline{Log: infralogger.NopLogger{}}
}

func testOptions(t *testing.T) Options {
	return Options{
		DataDir: writeDataset(t),
		Seed:    42,
		GA:      optimizer.Config{PopulationSize: 10, Generations: 5, Workers: 1},
	}
}

func TestRunBaseline(t *testing.T) {
	opts := testOptions(t)
	result, err := testPipeline().Run(opts)
	if err != nil {
		t.Fatal(err)
	}

	if result.Scenario != "baseline" {
		t.Errorf("scenario = %q", result.Scenario)
	}
	if result.RunID == "" {
		t.Errorf("missing run id")
	}
	if len(result.Plan.Assignments) != 3 {
		t.Errorf("assignments = %d", len(result.Plan.Assignments))
	}
	// Without events the scenario plan is the baseline plan.
	if result.Plan.TotalMargin != result.Baseline.TotalMargin {
		t.Errorf("baseline and plan margins diverge: %v vs %v",
			result.Baseline.TotalMargin, result.Plan.TotalMargin)
	}
	want := disruption.BaselineAlerts(result.Baseline)
	if !reflect.DeepEqual(alertTypes(result.Alerts), alertTypes(want)) {
		t.Errorf("baseline alerts = %v, want %v", alertTypes(result.Alerts), alertTypes(want))
	}
}

func TestRunDisrupted(t *testing.T) {
	opts := testOptions(t)
	opts.Events = []disruption.Event{
		{EventType: disruption.EventCancel, FlightID: "F1"},
	}

	result, err := testPipeline().Run(opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.Scenario != "disrupted" {
		t.Errorf("scenario = %q", result.Scenario)
	}
	if _, ok := result.AdjustedFlights["F1"]; ok {
		t.Errorf("cancelled flight survived adjustment")
	}
	if len(result.AdjustedFlights) != 3 {
		t.Errorf("adjusted flights = %d", len(result.AdjustedFlights))
	}

	found := false
	for _, a := range result.Alerts {
		if a.Type == disruption.EventCancel && a.Severity == disruption.SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Errorf("missing cancellation alert in %v", alertTypes(result.Alerts))
	}
	// The baseline is kept for comparison and untouched by the disruption.
	if _, ok := result.Dataset.Flights["F1"]; !ok {
		t.Errorf("dataset flights mutated")
	}
}

func TestRunWritesOutputs(t *testing.T) {
	opts := testOptions(t)
	opts.OutputDir = filepath.Join(t.TempDir(), "out")
	opts.WriteOutputs = true

	if _, err := testPipeline().Run(opts); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"plan_routes.csv", "flight_loads.csv", "alerts.csv", "plan_summary.json"} {
		if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

func TestRunBadDataDir(t *testing.T) {
	opts := testOptions(t)
	opts.DataDir = filepath.Join(t.TempDir(), "missing")
	if _, err := testPipeline().Run(opts); err == nil {
		t.Fatal("expected an error for a missing data directory")
	}
}

func TestBuildPayload(t *testing.T) {
	opts := testOptions(t)
	result, err := testPipeline().Run(opts)
	if err != nil {
		t.Fatal(err)
	}

	payload := BuildPayload(result)
	if payload.RunID != result.RunID || payload.Scenario != "baseline" {
		t.Errorf("payload header = %+v", payload)
	}
	if len(payload.Cargo) != 3 || len(payload.Flights) != 4 {
		t.Errorf("payload sizes: %d cargo, %d flights", len(payload.Cargo), len(payload.Flights))
	}
	if payload.Summary.Delivered+payload.Summary.Rolled+payload.Summary.Denied != 3 {
		t.Errorf("summary counts = %+v", payload.Summary)
	}
	if payload.Alerts == nil || payload.Events == nil {
		t.Errorf("alerts and events must never be nil")
	}
}

func alertTypes(alerts []disruption.Alert) []string {
	types := make([]string, len(alerts))
	for i, a := range alerts {
		types[i] = a.Type
	}
	return types
}
