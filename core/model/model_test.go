package model

import (
	"testing"
	"time"
)

func TestPriorityScore(t *testing.T) {
	if PriorityHigh.Score() <= PriorityMedium.Score() {
		t.Errorf("High must outrank Medium")
	}
	if PriorityMedium.Score() <= PriorityLow.Score() {
		t.Errorf("Medium must outrank Low")
	}
	if !PriorityHigh.Guaranteed() || !PriorityMedium.Guaranteed() {
		t.Errorf("High and Medium carry the delivery guarantee")
	}
	if PriorityLow.Guaranteed() {
		t.Errorf("Low must not be guaranteed")
	}
}

func TestConnectionIndexLookup(t *testing.T) {
	rules := []ConnectionRule{
		{Origin: "DEL", Destination: "BOM", ConnectionAirport: "HYD", MinConnectMinutes: 45, MaxConnectHours: 6},
		{Origin: "DEL", Destination: "BOM", ConnectionAirport: "", MinConnectMinutes: 60, MaxConnectHours: 8},
	}
	idx := BuildConnectionIndex(rules)

	r, ok := idx.Lookup("DEL", "BOM", "HYD")
	if !ok || r.MinConnectMinutes != 45 {
		t.Fatalf("expected airport-specific rule, got %+v ok=%v", r, ok)
	}

	r, ok = idx.Lookup("DEL", "BOM", "MAA")
	if !ok || r.MinConnectMinutes != 60 {
		t.Fatalf("expected wildcard fallback, got %+v ok=%v", r, ok)
	}

	if _, ok := idx.Lookup("BLR", "BOM", "MAA"); ok {
		t.Errorf("unknown pair should not resolve")
	}
}

func TestFlightValidate(t *testing.T) {
	dep := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := Flight{ID: "F1", Departure: dep, Arrival: dep.Add(2 * time.Hour), WeightCapacityKg: 1000, VolumeCapacityM3: 50}
	if err := f.Validate(); err != nil {
		t.Fatalf("valid flight rejected: %v", err)
	}

	f.Arrival = dep
	if err := f.Validate(); err == nil {
		t.Errorf("arrival equal to departure must fail")
	}
}

func TestCargoValidate(t *testing.T) {
	ready := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	c := Cargo{ID: "C1", WeightKg: 100, VolumeM3: 2, ReadyTime: ready, DueBy: ready.Add(24 * time.Hour)}
	if err := c.Validate(); err != nil {
		t.Fatalf("valid cargo rejected: %v", err)
	}

	c.DueBy = ready
	if err := c.Validate(); err == nil {
		t.Errorf("due_by equal to ready_time must fail")
	}
}
