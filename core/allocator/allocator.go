// Package allocator decides which cargo candidates board a flight. High and
// Medium priority candidates must end up selected whenever any seat can be
// made for them; only Low priority cargo may be rejected in normal
// operation.
package allocator

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/skyfreight/cargoplan/core/model"
	"github.com/skyfreight/cargoplan/internal/eventbus"
)

// minOverloadUtilization is the utilization floor below which an overload
// attempt is discarded in favour of the emergency path.
const minOverloadUtilization = 0.3

// Allocator selects capacity-respecting candidate subsets for one flight at
// a time. The zero value is usable; Bus and StrictCapacity are optional.
type Allocator struct {
	// Bus receives override diagnostics (evictions, breaches). Nil disables
	// emission.
	Bus eventbus.EventBus
	// StrictCapacity turns force-admits into rejections instead of recorded
	// capacity breaches.
	StrictCapacity bool
}

// SelectForFlight picks the boarding set for the flight from its waitlist.
func (a Allocator) SelectForFlight(flight model.Flight, waitlist []model.FlightCargoCandidate) model.FlightSelection {
	var high, medium, low []model.FlightCargoCandidate
	for _, c := range waitlist {
		switch {
		case c.PriorityScore >= model.PriorityHigh.Score():
			high = append(high, c)
		case c.PriorityScore == model.PriorityMedium.Score():
			medium = append(medium, c)
		default:
			low = append(low, c)
		}
	}

	guaranteedWeight := sumWeight(high) + sumWeight(medium)
	guaranteedVolume := sumVolume(high) + sumVolume(medium)

	if guaranteedWeight > flight.WeightCapacityKg || guaranteedVolume > flight.VolumeCapacityM3 {
		if sel, ok := a.overloadSelect(flight, high, medium, low); ok {
			return sel
		}
		return a.emergencySelect(flight, high, medium, low)
	}

	// Normal path: every guaranteed candidate fits, admit all of them in
	// priority order and fill the remainder with the best Low subset.
	remainingWeight := flight.WeightCapacityKg
	remainingVolume := flight.VolumeCapacityM3
	selected := make([]model.FlightCargoCandidate, 0, len(waitlist))
	for _, c := range concat(high, medium) {
		if c.WeightKg > remainingWeight || c.VolumeM3 > remainingVolume {
			// Cannot happen after the aggregate check unless one dimension is
			// oversubscribed by ordering; fall back to the emergency path.
			return a.emergencySelect(flight, high, medium, low)
		}
		selected = append(selected, c)
		remainingWeight -= c.WeightKg
		remainingVolume -= c.VolumeM3
	}

	lowSelected := bestLowSubset(low, remainingWeight, remainingVolume)
	selected = append(selected, lowSelected...)

	rejected := difference(low, lowSelected)
	return buildSelection(flight, selected, rejected, false)
}

// overloadSelect handles the case where guaranteed cargo alone exceeds
// capacity: admit High then Medium greedily by revenue density, fill the
// leftover with Low, then force a seat for every guaranteed candidate the
// greedy pass left behind. The attempt is discarded when both utilizations
// stay below the floor.
func (a Allocator) overloadSelect(flight model.Flight, high, medium, low []model.FlightCargoCandidate) (model.FlightSelection, bool) {
	remainingWeight := flight.WeightCapacityKg
	remainingVolume := flight.VolumeCapacityM3
	var admitted, unseated []model.FlightCargoCandidate
	for _, c := range concat(sortByDensityDesc(high), sortByDensityDesc(medium)) {
		if c.WeightKg <= remainingWeight && c.VolumeM3 <= remainingVolume {
			admitted = append(admitted, c)
			remainingWeight -= c.WeightKg
			remainingVolume -= c.VolumeM3
		} else {
			unseated = append(unseated, c)
		}
	}

	if len(low) > 0 && remainingWeight > 0 && remainingVolume > 0 {
		admitted = append(admitted, bestLowSubset(low, remainingWeight, remainingVolume)...)
	}

	if sumWeight(admitted)/flight.WeightCapacityKg < minOverloadUtilization &&
		sumVolume(admitted)/flight.VolumeCapacityM3 < minOverloadUtilization {
		return model.FlightSelection{}, false
	}

	admitted, evicted, breached := a.placeUnseated(flight, admitted, unseated)
	rejected := append(evicted, difference(concat(high, medium, low), concat(admitted, evicted))...)
	return buildSelection(flight, admitted, rejected, breached), true
}

// emergencySelect is the last-resort branch: greedy admission of guaranteed
// cargo in input order, then forced seating for the rest. All Low candidates
// are rejected here.
func (a Allocator) emergencySelect(flight model.Flight, high, medium, low []model.FlightCargoCandidate) model.FlightSelection {
	remainingWeight := flight.WeightCapacityKg
	remainingVolume := flight.VolumeCapacityM3
	var admitted, unseated []model.FlightCargoCandidate
	for _, c := range concat(high, medium) {
		if c.WeightKg <= remainingWeight && c.VolumeM3 <= remainingVolume {
			admitted = append(admitted, c)
			remainingWeight -= c.WeightKg
			remainingVolume -= c.VolumeM3
		} else {
			unseated = append(unseated, c)
		}
	}

	admitted, evicted, breached := a.placeUnseated(flight, admitted, unseated)
	rejected := append(evicted, low...)
	return buildSelection(flight, admitted, rejected, breached)
}

// placeUnseated forces a seat for each unseated guaranteed candidate: evict
// the lowest-priority admitted candidate whose weight and volume both cover
// it, or force-admit with a recorded capacity breach when nothing can be
// evicted.
func (a Allocator) placeUnseated(flight model.Flight, admitted, unseated []model.FlightCargoCandidate) (selected, evicted []model.FlightCargoCandidate, breached bool) {
	for _, c := range unseated {
		if idx := findEvictable(admitted, c); idx >= 0 {
			a.publish(eventbus.OverrideEvent{
				Kind:     "eviction",
				FlightID: flight.ID,
				CargoID:  admitted[idx].Cargo.ID,
				Priority: string(admitted[idx].Cargo.Priority),
				Detail:   fmt.Sprintf("evicted to seat %s", c.Cargo.ID),
				Time:     time.Now(),
			})
			evicted = append(evicted, admitted[idx])
			admitted = append(admitted[:idx], admitted[idx+1:]...)
			admitted = append(admitted, c)
			continue
		}
		if a.StrictCapacity {
			evicted = append(evicted, c)
			continue
		}
		// Force-admit: a deliberate capacity breach, recorded rather than
		// silent.
		breached = true
		admitted = append(admitted, c)
		a.publish(eventbus.OverrideEvent{
			Kind:     "capacity_breach",
			FlightID: flight.ID,
			CargoID:  c.Cargo.ID,
			Priority: string(c.Cargo.Priority),
			Detail:   "force-admitted beyond declared capacity",
			Time:     time.Now(),
		})
	}
	return admitted, evicted, breached
}

// findEvictable returns the index of the admitted candidate with the lowest
// priority score that is strictly below the incoming candidate's and whose
// weight and volume both cover it, or -1 when none qualifies.
func findEvictable(admitted []model.FlightCargoCandidate, incoming model.FlightCargoCandidate) int {
	best := -1
	for i, c := range admitted {
		if c.PriorityScore >= incoming.PriorityScore {
			continue
		}
		if c.WeightKg < incoming.WeightKg || c.VolumeM3 < incoming.VolumeM3 {
			continue
		}
		if best == -1 || c.PriorityScore < admitted[best].PriorityScore {
			best = i
		}
	}
	return best
}

func (a Allocator) publish(ev eventbus.OverrideEvent) {
	if a.Bus != nil {
		a.Bus.Publish(ev)
	}
}

func buildSelection(flight model.Flight, selected, rejected []model.FlightCargoCandidate, breached bool) model.FlightSelection {
	weights := make([]float64, len(selected))
	volumes := make([]float64, len(selected))
	densities := make([]float64, len(selected))
	for i, c := range selected {
		weights[i] = c.WeightKg
		volumes[i] = c.VolumeM3
		densities[i] = c.RevenueDensity
	}
	return model.FlightSelection{
		Flight:            flight,
		Selected:          selected,
		Rejected:          rejected,
		TotalWeight:       floats.Sum(weights),
		TotalVolume:       floats.Sum(volumes),
		RevenueDensitySum: floats.Sum(densities),
		CapacityBreached:  breached,
	}
}

func sortByDensityDesc(list []model.FlightCargoCandidate) []model.FlightCargoCandidate {
	out := append([]model.FlightCargoCandidate{}, list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RevenueDensity > out[j].RevenueDensity
	})
	return out
}

func concat(lists ...[]model.FlightCargoCandidate) []model.FlightCargoCandidate {
	var out []model.FlightCargoCandidate
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func sumWeight(list []model.FlightCargoCandidate) float64 {
	var total float64
	for _, c := range list {
		total += c.WeightKg
	}
	return total
}

func sumVolume(list []model.FlightCargoCandidate) float64 {
	var total float64
	for _, c := range list {
		total += c.VolumeM3
	}
	return total
}

// difference returns the candidates of all that are not in chosen, comparing
// by cargo id.
func difference(all, chosen []model.FlightCargoCandidate) []model.FlightCargoCandidate {
	chosenIDs := make(map[string]struct{}, len(chosen))
	for _, c := range chosen {
		chosenIDs[c.Cargo.ID] = struct{}{}
	}
	var out []model.FlightCargoCandidate
	for _, c := range all {
		if _, ok := chosenIDs[c.Cargo.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}
