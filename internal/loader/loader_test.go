package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skyfreight/cargoplan/core/model"
)

const flightsCSV = `flight_id,origin,destination,departure_time,arrival_time,aircraft_type,weight_capacity_kg,volume_capacity_m3,operating_cost_per_kg,handling_penalty_per_hour,aircraft_swap_capacity_kg,aircraft_swap_volume_m3
F1,del,BOM,2024-03-01T08:00:00,2024-03-01T10:00:00,A320F,10000,100,10,100,15000,150
F2,DEL,HYD,2024-03-01T08:00:00+05:30,2024-03-01T09:30:00+05:30,B737F,8000,80,12,120,12000,120
`

const cargoCSV = `cargo_id,origin,destination,weight_kg,volume_m3,revenue_inr,priority,perishable,max_transit_hours,ready_time,due_by,handling_cost_per_kg,sla_penalty_per_hour
C1,DEL,bom,1000,10,500000,High,yes,10,2024-03-01T06:00:00,2024-03-01T20:00:00,5,2000
C2,DEL,HYD,500,5,200000,low,0,8,2024-03-01T06:00:00,2024-03-01T18:00:00,4,1500
`

const connectionsCSV = `origin,destination,connection_airport,min_connect_minutes,max_connect_hours
DEL,BOM,hyd,45,6
DEL,BOM,,60,8
`

func writeDataset(t *testing.T, flights, cargo, connections string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"flights.csv":     flights,
		"cargo.csv":       cargo,
		"connections.csv": connections,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadAll(t *testing.T) {
	dir := writeDataset(t, flightsCSV, cargoCSV, connectionsCSV)
	ds, err := LoadAll(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(ds.Flights) != 2 || len(ds.Cargo) != 2 || len(ds.Connections) != 2 {
		t.Fatalf("counts = %d flights, %d cargo, %d rules",
			len(ds.Flights), len(ds.Cargo), len(ds.Connections))
	}

	f1 := ds.Flights["F1"]
	if f1.Origin != "DEL" || f1.Destination != "BOM" {
		t.Errorf("airport codes not normalized: %s-%s", f1.Origin, f1.Destination)
	}
	// Naive timestamps are IST.
	want := time.Date(2024, 3, 1, 8, 0, 0, 0, defaultZone)
	if !f1.Departure.Equal(want) {
		t.Errorf("departure = %v, want %v", f1.Departure, want)
	}
	if f1.SwapWeightCapacityKg != 15000 || f1.SwapVolumeCapacityM3 != 150 {
		t.Errorf("swap capacities = %v / %v", f1.SwapWeightCapacityKg, f1.SwapVolumeCapacityM3)
	}

	// Offset timestamps are honored as-is.
	f2 := ds.Flights["F2"]
	if !f2.Departure.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, defaultZone)) {
		t.Errorf("offset departure = %v", f2.Departure)
	}

	c1 := ds.Cargo["C1"]
	if c1.Priority != model.PriorityHigh || !c1.Perishable {
		t.Errorf("C1 = %+v", c1)
	}
	c2 := ds.Cargo["C2"]
	if c2.Priority != model.PriorityLow || c2.Perishable {
		t.Errorf("C2 = %+v", c2)
	}

	if ds.Connections[0].ConnectionAirport != "HYD" {
		t.Errorf("connection airport = %q", ds.Connections[0].ConnectionAirport)
	}
	if ds.Connections[1].ConnectionAirport != "" {
		t.Errorf("wildcard rule airport = %q", ds.Connections[1].ConnectionAirport)
	}
}

func TestLoadFlightsMissingColumn(t *testing.T) {
	broken := `flight_id,origin,destination,departure_time,arrival_time
F1,DEL,BOM,2024-03-01T08:00:00,2024-03-01T10:00:00
`
	dir := writeDataset(t, broken, cargoCSV, connectionsCSV)
	_, err := LoadFlights(filepath.Join(dir, "flights.csv"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadFlightsNonPositiveCapacity(t *testing.T) {
	broken := `flight_id,origin,destination,departure_time,arrival_time,aircraft_type,weight_capacity_kg,volume_capacity_m3,operating_cost_per_kg,handling_penalty_per_hour,aircraft_swap_capacity_kg,aircraft_swap_volume_m3
F1,DEL,BOM,2024-03-01T08:00:00,2024-03-01T10:00:00,A320F,0,100,10,100,15000,150
`
	dir := writeDataset(t, broken, cargoCSV, connectionsCSV)
	_, err := LoadFlights(filepath.Join(dir, "flights.csv"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadFlightsArrivalBeforeDeparture(t *testing.T) {
	broken := `flight_id,origin,destination,departure_time,arrival_time,aircraft_type,weight_capacity_kg,volume_capacity_m3,operating_cost_per_kg,handling_penalty_per_hour,aircraft_swap_capacity_kg,aircraft_swap_volume_m3
F1,DEL,BOM,2024-03-01T10:00:00,2024-03-01T08:00:00,A320F,10000,100,10,100,15000,150
`
	dir := writeDataset(t, broken, cargoCSV, connectionsCSV)
	_, err := LoadFlights(filepath.Join(dir, "flights.csv"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadCargoBadPriority(t *testing.T) {
	broken := `cargo_id,origin,destination,weight_kg,volume_m3,revenue_inr,priority,perishable,max_transit_hours,ready_time,due_by,handling_cost_per_kg,sla_penalty_per_hour
C1,DEL,BOM,1000,10,500000,urgent,yes,10,2024-03-01T06:00:00,2024-03-01T20:00:00,5,2000
`
	dir := writeDataset(t, flightsCSV, broken, connectionsCSV)
	_, err := LoadCargo(filepath.Join(dir, "cargo.csv"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadCargoBadBool(t *testing.T) {
	broken := `cargo_id,origin,destination,weight_kg,volume_m3,revenue_inr,priority,perishable,max_transit_hours,ready_time,due_by,handling_cost_per_kg,sla_penalty_per_hour
C1,DEL,BOM,1000,10,500000,high,maybe,10,2024-03-01T06:00:00,2024-03-01T20:00:00,5,2000
`
	dir := writeDataset(t, flightsCSV, broken, connectionsCSV)
	_, err := LoadCargo(filepath.Join(dir, "cargo.csv"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadCargoBadTimestamp(t *testing.T) {
	broken := `cargo_id,origin,destination,weight_kg,volume_m3,revenue_inr,priority,perishable,max_transit_hours,ready_time,due_by,handling_cost_per_kg,sla_penalty_per_hour
C1,DEL,BOM,1000,10,500000,high,yes,10,yesterday,2024-03-01T20:00:00,5,2000
`
	dir := writeDataset(t, flightsCSV, broken, connectionsCSV)
	_, err := LoadCargo(filepath.Join(dir, "cargo.csv"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadConnectionsNegativeMinConnect(t *testing.T) {
	broken := `origin,destination,connection_airport,min_connect_minutes,max_connect_hours
DEL,BOM,HYD,-10,6
`
	dir := writeDataset(t, flightsCSV, cargoCSV, broken)
	_, err := LoadConnections(filepath.Join(dir, "connections.csv"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadAllMissingFile(t *testing.T) {
	if _, err := LoadAll(t.TempDir()); err == nil {
		t.Fatal("expected an error for an empty directory")
	}
}
