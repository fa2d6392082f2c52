// Package simulate replays one candidate plan flight-by-flight in time order,
// producing per-cargo outcomes and the plan margin. It enforces the hard
// delivery guarantee for High/Medium cargo through two redundant safety-net
// passes.
package simulate

import (
	"fmt"
	"sort"
	"time"

	"github.com/skyfreight/cargoplan/core/allocator"
	"github.com/skyfreight/cargoplan/core/logger"
	"github.com/skyfreight/cargoplan/core/model"
	"github.com/skyfreight/cargoplan/internal/eventbus"
)

// Simulator evaluates genomes against a fixed route catalog and flight set.
// Each evaluation is sequential, deterministic and free of shared state, so
// simulators may run concurrently on separate genomes.
type Simulator struct {
	Alloc allocator.Allocator
	Log   logger.Logger
	Bus   eventbus.EventBus
}

const statusPending model.AssignmentStatus = "pending"

type cargoState struct {
	cargo   model.Cargo
	route   model.RouteOption
	nextLeg int
	status  model.AssignmentStatus
	margin  float64
	penalty float64
	reason  string
}

// Run evaluates one genome: for each cargo the gene selects a route option
// (modulo the catalog length), then flights are processed in departure order
// with the allocator arbitrating capacity.
func (s Simulator) Run(cargoIDs []string, cargoSet map[string]model.Cargo, catalog map[string][]model.RouteOption, flights map[string]model.Flight, genome []int) model.Plan {
	assignments := make(map[string]model.CargoAssignment, len(cargoIDs))
	states := make(map[string]*cargoState)

	for i, cargoID := range cargoIDs {
		cargo := cargoSet[cargoID]
		options := catalog[cargoID]
		route := options[normalizeGene(genome[i], len(options))]
		if route.Empty() {
			// Zero-leg option: Low cargo is denied outright; guaranteed cargo
			// is rolled and waits for the safety net.
			status := model.StatusDenied
			reason := route.Notes
			if reason == "" {
				reason = "Denied load"
			}
			if cargo.Priority.Guaranteed() {
				status = model.StatusRolled
			}
			assignments[cargoID] = model.CargoAssignment{
				Cargo:  cargo,
				Route:  route,
				Status: status,
				Margin: route.TotalMargin,
				Reason: reason,
			}
			continue
		}
		states[cargoID] = &cargoState{cargo: cargo, route: route, status: statusPending}
	}

	flightLoads := s.replayFlights(states, flights)

	// Safety net, first pass: guaranteed cargo still pending after all
	// flights gets an emergency route instead of a rollover.
	s.rescuePending(states, flights)

	for cargoID, st := range states {
		if st.status == statusPending {
			st.status = model.StatusRolled
			st.penalty += st.route.RolloverPenalty
			st.reason = "Incomplete itinerary"
		}
		if st.status == model.StatusDelivered {
			assignments[cargoID] = model.CargoAssignment{
				Cargo:  st.cargo,
				Route:  st.route,
				Status: model.StatusDelivered,
				Margin: st.margin,
				Reason: st.reason,
			}
		} else {
			assignments[cargoID] = model.CargoAssignment{
				Cargo:  st.cargo,
				Route:  st.route,
				Status: model.StatusRolled,
				Margin: -st.penalty,
				Reason: st.reason,
			}
		}
	}

	// Safety net, final sweep: no guaranteed cargo may remain denied or
	// rolled. Redundant with the first pass on purpose; the guarantee is a
	// hard invariant, not a preference.
	s.sweepGuaranteed(assignments, flights)

	var total float64
	for _, a := range assignments {
		total += a.Margin
	}
	return model.Plan{TotalMargin: total, Assignments: assignments, FlightLoads: flightLoads}
}

// replayFlights processes flights in ascending departure order, collecting
// the pending cargo whose next leg is the flight and asking the allocator to
// arbitrate. Bumped cargo is rolled and charged its rollover penalty.
func (s Simulator) replayFlights(states map[string]*cargoState, flights map[string]model.Flight) map[string]model.FlightSelection {
	sequence := make([]model.Flight, 0, len(flights))
	for _, f := range flights {
		sequence = append(sequence, f)
	}
	sort.Slice(sequence, func(i, j int) bool {
		if sequence[i].Departure.Equal(sequence[j].Departure) {
			return sequence[i].ID < sequence[j].ID
		}
		return sequence[i].Departure.Before(sequence[j].Departure)
	})

	loads := make(map[string]model.FlightSelection)
	for _, flight := range sequence {
		var waiting []*cargoState
		var candidates []model.FlightCargoCandidate
		for _, id := range sortedStateIDs(states) {
			st := states[id]
			if st.status != statusPending || st.nextLeg >= len(st.route.Legs) {
				continue
			}
			if st.route.Legs[st.nextLeg].Flight.ID != flight.ID {
				continue
			}
			waiting = append(waiting, st)
			candidates = append(candidates, legCandidate(st, flight.ID))
		}
		if len(waiting) == 0 {
			continue
		}

		selection := s.Alloc.SelectForFlight(flight, candidates)
		loads[flight.ID] = selection
		selectedIDs := make(map[string]struct{}, len(selection.Selected))
		for _, c := range selection.Selected {
			selectedIDs[c.Cargo.ID] = struct{}{}
		}

		for _, st := range waiting {
			if _, ok := selectedIDs[st.cargo.ID]; ok {
				st.nextLeg++
				if st.nextLeg >= len(st.route.Legs) {
					st.status = model.StatusDelivered
					st.margin = st.route.TotalMargin
				}
				continue
			}
			st.status = model.StatusRolled
			st.penalty += st.route.RolloverPenalty
			st.reason = fmt.Sprintf("Capacity roll-over on %s", flight.ID)
		}
	}
	return loads
}

// rescuePending force-assigns an emergency route to guaranteed cargo that is
// still pending, marking it delivered when the emergency search found any
// flights.
func (s Simulator) rescuePending(states map[string]*cargoState, flights map[string]model.Flight) {
	for _, id := range sortedStateIDs(states) {
		st := states[id]
		if st.status != statusPending || !st.cargo.Priority.Guaranteed() {
			continue
		}
		s.applyEmergency(st, flights, fmt.Sprintf("%s priority - emergency routing", st.cargo.Priority))
	}
}

// sweepGuaranteed converts any remaining denied/rolled guaranteed assignment
// into a delivered emergency assignment. Assignments stay rolled only when
// the emergency search finds no flight at all; that impossibility is carried
// as data for downstream alerting.
func (s Simulator) sweepGuaranteed(assignments map[string]model.CargoAssignment, flights map[string]model.Flight) {
	for _, id := range sortedAssignmentIDs(assignments) {
		a := assignments[id]
		if a.Status == model.StatusDelivered || !a.Cargo.Priority.Guaranteed() {
			continue
		}
		route := EmergencyRoute(a.Cargo, flights)
		if route.Empty() {
			a.Route = route
			a.Margin = route.TotalMargin
			a.Status = model.StatusRolled
			a.Reason = fmt.Sprintf("%s priority - %s", a.Cargo.Priority, route.Notes)
			assignments[id] = a
			s.publish(eventbus.OverrideEvent{
				Kind:     "emergency_unrouted",
				CargoID:  a.Cargo.ID,
				Priority: string(a.Cargo.Priority),
				Detail:   route.Notes,
				Time:     time.Now(),
			})
			continue
		}
		if s.Log != nil {
			s.Log.Warnf("guaranteed cargo %s was %s; forcing emergency assignment", a.Cargo.ID, a.Status)
		}
		s.publish(eventbus.OverrideEvent{
			Kind:     "emergency_route",
			CargoID:  a.Cargo.ID,
			Priority: string(a.Cargo.Priority),
			Detail:   route.Notes,
			Time:     time.Now(),
		})
		assignments[id] = model.CargoAssignment{
			Cargo:  a.Cargo,
			Route:  route,
			Status: model.StatusDelivered,
			Margin: route.TotalMargin,
			Reason: fmt.Sprintf("%s priority - emergency forced assignment", a.Cargo.Priority),
		}
	}
}

func (s Simulator) applyEmergency(st *cargoState, flights map[string]model.Flight, reason string) {
	route := EmergencyRoute(st.cargo, flights)
	if route.Empty() {
		// Leave the state pending; the caller rolls it and the final sweep
		// records the no-flights marker.
		return
	}
	st.route = route
	st.status = model.StatusDelivered
	st.margin = route.TotalMargin
	st.reason = reason
	s.publish(eventbus.OverrideEvent{
		Kind:     "emergency_route",
		CargoID:  st.cargo.ID,
		Priority: string(st.cargo.Priority),
		Detail:   route.Notes,
		Time:     time.Now(),
	})
}

func (s Simulator) publish(ev eventbus.OverrideEvent) {
	if s.Bus != nil {
		s.Bus.Publish(ev)
	}
}

// legCandidate derives the allocator view of a pending cargo on one flight:
// the per-leg share of its route economics.
func legCandidate(st *cargoState, flightID string) model.FlightCargoCandidate {
	legCount := len(st.route.Legs)
	if legCount < 1 {
		legCount = 1
	}
	return model.FlightCargoCandidate{
		Cargo:          st.cargo,
		Margin:         st.route.TotalMargin / float64(legCount),
		Revenue:        st.cargo.Revenue / float64(legCount),
		WeightKg:       st.cargo.WeightKg,
		VolumeM3:       st.cargo.VolumeM3,
		RevenueDensity: st.route.RevenueDensityByFlight[flightID],
		PriorityScore:  st.cargo.Priority.Score(),
		DwellHours:     st.route.DwellByFlight[flightID],
	}
}

// normalizeGene maps any raw gene to a valid catalog index.
func normalizeGene(gene, optionCount int) int {
	if optionCount <= 0 {
		return 0
	}
	idx := gene % optionCount
	if idx < 0 {
		idx += optionCount
	}
	return idx
}

func sortedStateIDs(states map[string]*cargoState) []string {
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedAssignmentIDs(assignments map[string]model.CargoAssignment) []string {
	ids := make([]string, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
