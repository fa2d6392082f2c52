package disruption

import (
	"fmt"
	"testing"
	"time"

	"github.com/skyfreight/cargoplan/core/model"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func testFlights() map[string]model.Flight {
	flights := make(map[string]model.Flight)
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("F%d", i)
		dep := base.Add(time.Duration(6+2*i) * time.Hour)
		flights[id] = model.Flight{
			ID:               id,
			Origin:           "DEL",
			Destination:      "BOM",
			Departure:        dep,
			Arrival:          dep.Add(2 * time.Hour),
			WeightCapacityKg: 1000,
			VolumeCapacityM3: 100,
		}
	}
	return flights
}

func TestAdjustFlightsDelay(t *testing.T) {
	flights := testFlights()
	adjusted, alerts := Engine{}.AdjustFlights(flights, []Event{
		{EventType: EventDelay, FlightID: "F2", DelayMinutes: 120},
	})

	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(alerts))
	}
	if alerts[0].Severity != SeverityInfo || alerts[0].Type != EventDelay {
		t.Errorf("alert = %+v", alerts[0])
	}
	if alerts[0].Message != "Flight F2 delayed by 120 minutes" {
		t.Errorf("message = %q", alerts[0].Message)
	}

	want := flights["F2"].Departure.Add(2 * time.Hour)
	if !adjusted["F2"].Departure.Equal(want) {
		t.Errorf("departure = %v, want %v", adjusted["F2"].Departure, want)
	}
	if !adjusted["F2"].Arrival.Equal(flights["F2"].Arrival.Add(2 * time.Hour)) {
		t.Errorf("arrival not shifted")
	}
	// Other flights untouched.
	if !adjusted["F1"].Departure.Equal(flights["F1"].Departure) {
		t.Errorf("F1 moved")
	}
}

func TestAdjustFlightsZeroDelayIsIgnored(t *testing.T) {
	flights := testFlights()
	adjusted, alerts := Engine{}.AdjustFlights(flights, []Event{
		{EventType: EventDelay, FlightID: "F1", DelayMinutes: 0},
	})
	if len(alerts) != 0 {
		t.Errorf("zero delay must not alert, got %v", alerts)
	}
	if !adjusted["F1"].Departure.Equal(flights["F1"].Departure) {
		t.Errorf("zero delay must not move the flight")
	}
}

func TestAdjustFlightsCancel(t *testing.T) {
	adjusted, alerts := Engine{}.AdjustFlights(testFlights(), []Event{
		{EventType: EventCancel, FlightID: "F3"},
	})
	if _, ok := adjusted["F3"]; ok {
		t.Errorf("cancelled flight still present")
	}
	if len(alerts) != 1 || alerts[0].Severity != SeverityCritical {
		t.Fatalf("alerts = %+v", alerts)
	}
}

func TestAdjustFlightsUnknownFlight(t *testing.T) {
	flights := testFlights()
	adjusted, alerts := Engine{}.AdjustFlights(flights, []Event{
		{EventType: EventCancel, FlightID: "F9"},
	})

	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(alerts))
	}
	if alerts[0].Severity != SeverityWarning {
		t.Errorf("severity = %q", alerts[0].Severity)
	}
	if len(adjusted) != len(flights) {
		t.Errorf("unknown flight event must leave the network unchanged")
	}
	for id := range flights {
		if adjusted[id].ID != id {
			t.Errorf("flight %s changed", id)
		}
	}
}

func TestAdjustFlightsSwap(t *testing.T) {
	weight := 2500.0
	adjusted, alerts := Engine{}.AdjustFlights(testFlights(), []Event{
		{EventType: EventSwap, FlightID: "F1", NewWeightCapacity: &weight},
	})
	if adjusted["F1"].WeightCapacityKg != 2500 {
		t.Errorf("weight capacity = %v", adjusted["F1"].WeightCapacityKg)
	}
	// Volume falls back to the current capacity when no override is given.
	if adjusted["F1"].VolumeCapacityM3 != 100 {
		t.Errorf("volume capacity = %v", adjusted["F1"].VolumeCapacityM3)
	}
	if len(alerts) != 1 || alerts[0].Severity != SeverityWarning {
		t.Fatalf("alerts = %+v", alerts)
	}
}

func TestAdjustFlightsDoesNotMutateInput(t *testing.T) {
	flights := testFlights()
	before := flights["F1"].Departure
	_, _ = Engine{}.AdjustFlights(flights, []Event{
		{EventType: EventDelay, FlightID: "F1", DelayMinutes: 60},
		{EventType: EventCancel, FlightID: "F2"},
	})
	if !flights["F1"].Departure.Equal(before) {
		t.Errorf("input map mutated")
	}
	if _, ok := flights["F2"]; !ok {
		t.Errorf("input map lost a flight")
	}
}
