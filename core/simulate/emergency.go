package simulate

import (
	"math"
	"sort"

	"github.com/skyfreight/cargoplan/core/model"
)

// emergencyCapacityCeiling is the utilization limit for the capacity-aware
// emergency passes; the last-resort passes ignore it.
const emergencyCapacityCeiling = 0.95

// emergencySLAHours is the elevated fixed penalty charged to every emergency
// assignment, expressed in SLA hours.
const emergencySLAHours = 8

// EmergencyRoute builds a last-resort itinerary for guaranteed cargo:
// a direct flight within the capacity ceiling, else any multi-leg path whose
// every leg is within the ceiling, else the best-fit direct flight regardless
// of capacity, else any flight leaving the origin. Connection-window
// feasibility is deliberately bypassed here. The returned option has no legs
// only when no flight departs the origin at all.
func EmergencyRoute(cargo model.Cargo, flights map[string]model.Flight) model.RouteOption {
	byOrigin := emergencyFlightsByOrigin(cargo, flights)
	path := findEmergencyPath(cargo, byOrigin)
	penalty := cargo.SLAPenaltyPerHour*emergencySLAHours + cargo.WeightKg*cargo.HandlingCostPerKg

	if len(path) == 0 {
		return model.RouteOption{
			CargoID:                cargo.ID,
			SLAPenalty:             penalty,
			TotalMargin:            -penalty,
			Arrival:                cargo.ReadyTime,
			Departure:              cargo.ReadyTime,
			RevenueDensityByFlight: map[string]float64{},
			DwellByFlight:          map[string]float64{},
			RolloverPenalty:        penalty,
			Feasible:               false,
			Notes:                  "no flights available, requires manual intervention",
		}
	}

	legs := make([]model.RouteLeg, 0, len(path))
	dwellByFlight := make(map[string]float64, len(path))
	densityByFlight := make(map[string]float64, len(path))
	var totalCost, handlingPenalty float64
	overCapacity := false

	for _, flight := range path {
		if capacityRatio(cargo, flight) > 1 {
			overCapacity = true
		}
		dwell := math.Max(0, model.HoursBetween(cargo.ReadyTime, flight.Departure))
		dwellByFlight[flight.ID] = dwell
		totalCost += cargo.WeightKg * flight.OperatingCostPerKg
		handlingPenalty += flight.HandlingPenaltyPerHr * dwell
		densityByFlight[flight.ID] = cargo.Revenue / math.Max(capacityRatio(cargo, flight), 1e-6)
		legs = append(legs, model.RouteLeg{
			Flight:           flight,
			Departure:        flight.Departure,
			Arrival:          flight.Arrival,
			DwellHoursBefore: dwell,
		})
	}

	notes := "Emergency route - guaranteed priority assignment"
	switch {
	case overCapacity:
		notes += " (capacity override - exceeds normal limits)"
	case len(path) == 1:
		notes += " (single flight assignment)"
	default:
		notes += " (multi-leg emergency routing)"
	}

	return model.RouteOption{
		CargoID:                cargo.ID,
		Legs:                   legs,
		TotalCost:              totalCost,
		HandlingPenalty:        handlingPenalty,
		SLAPenalty:             penalty,
		TotalMargin:            cargo.Revenue - totalCost - handlingPenalty - penalty,
		TotalRevenue:           cargo.Revenue,
		TransitHours:           model.HoursBetween(path[0].Departure, path[len(path)-1].Arrival),
		Arrival:                path[len(path)-1].Arrival,
		Departure:              path[0].Departure,
		RevenueDensityByFlight: densityByFlight,
		DwellByFlight:          dwellByFlight,
		RolloverPenalty:        penalty,
		Feasible:               true,
		Notes:                  notes,
	}
}

// findEmergencyPath applies the four escalation levels in order.
func findEmergencyPath(cargo model.Cargo, byOrigin map[string][]model.Flight) []model.Flight {
	// Direct flight with headroom.
	for _, f := range byOrigin[cargo.Origin] {
		if f.Destination == cargo.Destination && capacityRatio(cargo, f) <= emergencyCapacityCeiling {
			return []model.Flight{f}
		}
	}

	// Breadth-first search for any path where every leg has headroom.
	if path := bfsWithinCeiling(cargo, byOrigin); path != nil {
		return path
	}

	// Best-fit direct flight regardless of capacity.
	if f, ok := bestFit(cargo, byOrigin[cargo.Origin], true); ok {
		return []model.Flight{f}
	}
	// Any flight out of the origin; downstream legs are left to manual
	// follow-up.
	if f, ok := bestFit(cargo, byOrigin[cargo.Origin], false); ok {
		return []model.Flight{f}
	}
	return nil
}

func bfsWithinCeiling(cargo model.Cargo, byOrigin map[string][]model.Flight) []model.Flight {
	type node struct {
		airport string
		path    []model.Flight
	}
	visited := map[string]bool{}
	queue := []node{{airport: cargo.Origin}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.airport] {
			continue
		}
		visited[cur.airport] = true

		if cur.airport == cargo.Destination && len(cur.path) > 0 {
			ok := true
			for _, f := range cur.path {
				if capacityRatio(cargo, f) > emergencyCapacityCeiling {
					ok = false
					break
				}
			}
			if ok {
				return cur.path
			}
		}

		for _, f := range byOrigin[cur.airport] {
			if pathContains(cur.path, f.ID) {
				continue
			}
			next := make([]model.Flight, len(cur.path), len(cur.path)+1)
			copy(next, cur.path)
			queue = append(queue, node{airport: f.Destination, path: append(next, f)})
		}
	}
	return nil
}

// bestFit returns the flight with the lowest capacity ratio, optionally
// restricted to direct flights to the cargo destination.
func bestFit(cargo model.Cargo, flights []model.Flight, directOnly bool) (model.Flight, bool) {
	best := model.Flight{}
	bestRatio := math.Inf(1)
	found := false
	for _, f := range flights {
		if directOnly && f.Destination != cargo.Destination {
			continue
		}
		if r := capacityRatio(cargo, f); r < bestRatio {
			bestRatio = r
			best = f
			found = true
		}
	}
	return best, found
}

// emergencyFlightsByOrigin groups flights departing at or after the cargo
// ready time, sorted by departure.
func emergencyFlightsByOrigin(cargo model.Cargo, flights map[string]model.Flight) map[string][]model.Flight {
	byOrigin := make(map[string][]model.Flight)
	for _, f := range flights {
		if f.Departure.Before(cargo.ReadyTime) {
			continue
		}
		byOrigin[f.Origin] = append(byOrigin[f.Origin], f)
	}
	for origin := range byOrigin {
		list := byOrigin[origin]
		sort.Slice(list, func(i, j int) bool {
			if list[i].Departure.Equal(list[j].Departure) {
				return list[i].ID < list[j].ID
			}
			return list[i].Departure.Before(list[j].Departure)
		})
	}
	return byOrigin
}

// capacityRatio is the worst of the weight/volume ratios of the cargo on the
// flight.
func capacityRatio(cargo model.Cargo, flight model.Flight) float64 {
	return math.Max(cargo.WeightKg/flight.WeightCapacityKg, cargo.VolumeM3/flight.VolumeCapacityM3)
}

func pathContains(path []model.Flight, id string) bool {
	for _, f := range path {
		if f.ID == id {
			return true
		}
	}
	return false
}
