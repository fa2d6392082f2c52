package allocator

import (
	"testing"
	"time"

	"github.com/skyfreight/cargoplan/core/model"
	"github.com/skyfreight/cargoplan/internal/eventbus"
)

func testFlight(weightCap, volumeCap float64) model.Flight {
	dep := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return model.Flight{
		ID:               "F1",
		Origin:           "DEL",
		Destination:      "BOM",
		Departure:        dep,
		Arrival:          dep.Add(2 * time.Hour),
		WeightCapacityKg: weightCap,
		VolumeCapacityM3: volumeCap,
	}
}

func candidate(id string, priority model.Priority, weight, volume, density float64) model.FlightCargoCandidate {
	return model.FlightCargoCandidate{
		Cargo: model.Cargo{
			ID:       id,
			WeightKg: weight,
			VolumeM3: volume,
			Priority: priority,
		},
		WeightKg:       weight,
		VolumeM3:       volume,
		Revenue:        density,
		RevenueDensity: density,
		PriorityScore:  priority.Score(),
	}
}

func selectedIDs(sel model.FlightSelection) map[string]bool {
	ids := make(map[string]bool, len(sel.Selected))
	for _, c := range sel.Selected {
		ids[c.Cargo.ID] = true
	}
	return ids
}

func TestSelectAllGuaranteedFit(t *testing.T) {
	flight := testFlight(2000, 100)
	waitlist := []model.FlightCargoCandidate{
		candidate("A", model.PriorityHigh, 600, 10, 900),
		candidate("B", model.PriorityMedium, 500, 10, 800),
		candidate("C", model.PriorityLow, 400, 10, 700),
	}

	sel := Allocator{}.SelectForFlight(flight, waitlist)
	ids := selectedIDs(sel)
	if !ids["A"] || !ids["B"] || !ids["C"] {
		t.Fatalf("all cargo fits, selected %v", ids)
	}
	if sel.CapacityBreached {
		t.Errorf("no breach expected")
	}
	if sel.TotalWeight != 1500 {
		t.Errorf("total weight = %v", sel.TotalWeight)
	}
}

func TestSelectGuaranteedOversubscribed(t *testing.T) {
	// High 600 + Medium 500 exceed 1000kg; both must still board, Low is out.
	flight := testFlight(1000, 100)
	waitlist := []model.FlightCargoCandidate{
		candidate("A", model.PriorityHigh, 600, 10, 900),
		candidate("B", model.PriorityMedium, 500, 10, 800),
		candidate("C", model.PriorityLow, 500, 10, 700),
	}

	bus := eventbus.New()
	events := bus.Subscribe()
	sel := Allocator{Bus: bus}.SelectForFlight(flight, waitlist)

	ids := selectedIDs(sel)
	if !ids["A"] || !ids["B"] {
		t.Fatalf("guaranteed cargo must be selected, got %v", ids)
	}
	if ids["C"] {
		t.Errorf("Low cargo must be rejected when guaranteed cargo overflows")
	}
	if !sel.CapacityBreached {
		t.Errorf("overflow must be recorded as a capacity breach")
	}

	select {
	case raw := <-events:
		ev, ok := raw.(eventbus.OverrideEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", raw)
		}
		if ev.Kind != "capacity_breach" {
			t.Errorf("event kind = %q", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Errorf("expected a capacity_breach event")
	}
}

func TestSelectStrictCapacityRejectsInsteadOfBreaching(t *testing.T) {
	flight := testFlight(1000, 100)
	waitlist := []model.FlightCargoCandidate{
		candidate("A", model.PriorityHigh, 600, 10, 900),
		candidate("B", model.PriorityMedium, 500, 10, 800),
	}

	sel := Allocator{StrictCapacity: true}.SelectForFlight(flight, waitlist)
	ids := selectedIDs(sel)
	if !ids["A"] {
		t.Fatalf("High cargo must keep its seat, got %v", ids)
	}
	if ids["B"] {
		t.Errorf("strict mode must reject instead of breaching")
	}
	if sel.CapacityBreached {
		t.Errorf("strict mode must not record a breach")
	}
}

func TestPlaceUnseatedEvictsCoveringLowerPriority(t *testing.T) {
	// An admitted Low that dominates the unseated High in both dimensions is
	// evicted instead of forcing a breach.
	flight := testFlight(1000, 100)
	admitted := []model.FlightCargoCandidate{
		candidate("L", model.PriorityLow, 800, 50, 300),
	}
	unseated := []model.FlightCargoCandidate{
		candidate("H", model.PriorityHigh, 700, 40, 900),
	}

	selected, evicted, breached := Allocator{}.placeUnseated(flight, admitted, unseated)
	if breached {
		t.Errorf("eviction must avoid the breach")
	}
	if len(evicted) != 1 || evicted[0].Cargo.ID != "L" {
		t.Fatalf("evicted = %v", evicted)
	}
	if len(selected) != 1 || selected[0].Cargo.ID != "H" {
		t.Fatalf("selected = %v", selected)
	}
}

func TestFindEvictableRequiresStrictlyLowerPriority(t *testing.T) {
	admitted := []model.FlightCargoCandidate{
		candidate("M", model.PriorityMedium, 900, 50, 300),
	}
	incoming := candidate("M2", model.PriorityMedium, 500, 20, 900)
	if idx := findEvictable(admitted, incoming); idx != -1 {
		t.Errorf("equal-tier eviction must not happen, got index %d", idx)
	}
}

func TestSelectLowFillPrefersUtilization(t *testing.T) {
	// With 1000kg left, {L1, L2} (densities 500+400, 90% util) must beat the
	// single denser L3 blocking the pair.
	flight := testFlight(1000, 100)
	waitlist := []model.FlightCargoCandidate{
		candidate("L1", model.PriorityLow, 450, 30, 500),
		candidate("L2", model.PriorityLow, 450, 31, 400),
		candidate("L3", model.PriorityLow, 700, 40, 600),
	}

	sel := Allocator{}.SelectForFlight(flight, waitlist)
	ids := selectedIDs(sel)
	if !ids["L1"] || !ids["L2"] || ids["L3"] {
		t.Fatalf("expected {L1,L2}, got %v", ids)
	}
}

func TestSelectEmptyWaitlist(t *testing.T) {
	sel := Allocator{}.SelectForFlight(testFlight(1000, 100), nil)
	if len(sel.Selected) != 0 || len(sel.Rejected) != 0 {
		t.Errorf("empty waitlist must produce an empty selection")
	}
}
