package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skyfreight/cargoplan/app"
	"github.com/skyfreight/cargoplan/config"
	"github.com/skyfreight/cargoplan/core/optimizer"
	infralogger "github.com/skyfreight/cargoplan/infra/logger"
)

const flightsCSV = `flight_id,origin,destination,departure_time,arrival_time,aircraft_type,weight_capacity_kg,volume_capacity_m3,operating_cost_per_kg,handling_penalty_per_hour,aircraft_swap_capacity_kg,aircraft_swap_volume_m3
F1,DEL,BOM,2024-03-01T08:00:00,2024-03-01T10:00:00,A320F,5000,50,10,100,8000,80
F2,DEL,BOM,2024-03-01T14:00:00,2024-03-01T16:00:00,A320F,5000,50,10,100,8000,80
`

const cargoCSV = `cargo_id,origin,destination,weight_kg,volume_m3,revenue_inr,priority,perishable,max_transit_hours,ready_time,due_by,handling_cost_per_kg,sla_penalty_per_hour
C1,DEL,BOM,1000,10,500000,high,no,12,2024-03-01T06:00:00,2024-03-01T22:00:00,5,2000
C2,DEL,BOM,800,8,300000,low,no,12,2024-03-01T06:00:00,2024-03-01T22:00:00,4,1500
`

const connectionsCSV = `origin,destination,connection_airport,min_connect_minutes,max_connect_hours
DEL,BOM,HYD,45,6
`

func testHandler(t *testing.T) *Handler {
	t.Helper()
	dataDir := t.TempDir()
	for name, content := range map[string]string{
		"flights.csv":     flightsCSV,
		"cargo.csv":       cargoCSV,
		"connections.csv": connectionsCSV,
	} {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Config{
		DataDir:   dataDir,
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Seed:      42,
		GA:        optimizer.Config{PopulationSize: 10, Generations: 5, Workers: 1},
	}
	log := infralogger.NopLogger{}
	h := NewHandler(cfg, app.Pipeline{Log: log}, log)
	h.RegisterRoutes()
	return h
}

func TestHealth(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRunPlanEmptyBody(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plan/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload app.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Scenario != "baseline" {
		t.Errorf("scenario = %q", payload.Scenario)
	}
	if len(payload.Cargo) != 2 {
		t.Errorf("cargo entries = %d", len(payload.Cargo))
	}
}

func TestRunPlanWithEvents(t *testing.T) {
	h := testHandler(t)
	body := `{"events":[{"event_type":"cancel","flight_id":"F1"}],"seed":7}`
	req := httptest.NewRequest(http.MethodPost, "/plan/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload app.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Scenario != "disrupted" {
		t.Errorf("scenario = %q", payload.Scenario)
	}
	if _, ok := payload.Flights["F1"]; ok {
		t.Errorf("cancelled flight present in payload")
	}
	if len(payload.Alerts) == 0 {
		t.Errorf("expected alerts for a cancellation")
	}
}

func TestRunPlanInvalidEventType(t *testing.T) {
	h := testHandler(t)
	body := `{"events":[{"event_type":"strike","flight_id":"F1"}]}`
	req := httptest.NewRequest(http.MethodPost, "/plan/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRunPlanMalformedJSON(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/plan/run", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRunSample(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plan/sample", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload app.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.RunID == "" {
		t.Errorf("missing run id")
	}
}
