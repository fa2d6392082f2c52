package routes

import (
	"math"

	"github.com/skyfreight/cargoplan/core/model"
)

// connectMode selects how connection-rule bounds are applied when validating
// dwell between legs.
type connectMode int

const (
	// connectTolerant loosens the rule bounds by -15min/+2h (clamped to a
	// 30min..12h band) to increase route yield.
	connectTolerant connectMode = iota
	// connectExact applies the rule bounds as written.
	connectExact
)

const densityEpsilon = 1e-6

// buildOption validates a flight path leg by leg and prices it. It returns
// false when any leg violates the time-window or connection constraints.
func (b *Builder) buildOption(cargo model.Cargo, flights []model.Flight, mode connectMode, transitLimit float64) (model.RouteOption, bool) {
	if len(flights) == 0 {
		return model.RouteOption{}, false
	}
	firstDeparture := flights[0].Departure
	lastArrival := flights[len(flights)-1].Arrival

	transitHours := model.HoursBetween(firstDeparture, lastArrival)
	if transitHours > transitLimit {
		return model.RouteOption{}, false
	}

	legs := make([]model.RouteLeg, 0, len(flights))
	dwellByFlight := make(map[string]float64, len(flights))
	var prev model.Flight

	for i, flight := range flights {
		var dwell float64
		if i == 0 {
			if flight.Departure.Before(cargo.ReadyTime) {
				return model.RouteOption{}, false
			}
			dwell = math.Max(0, model.HoursBetween(cargo.ReadyTime, flight.Departure))
		} else {
			rule, ok := b.connections.Lookup(cargo.Origin, cargo.Destination, flights[i-1].Destination)
			if !ok {
				return model.RouteOption{}, false
			}
			dwellMinutes := model.MinutesBetween(prev.Arrival, flight.Departure)
			minConnect := float64(rule.MinConnectMinutes)
			maxConnect := rule.MaxConnectHours
			if mode == connectTolerant {
				minConnect = math.Max(30, minConnect-15)
				maxConnect = math.Min(12, maxConnect+2)
			}
			if dwellMinutes < minConnect {
				return model.RouteOption{}, false
			}
			dwell = dwellMinutes / 60.0
			if dwell > maxConnect {
				return model.RouteOption{}, false
			}
		}
		dwellByFlight[flight.ID] = dwell
		legs = append(legs, model.RouteLeg{
			Flight:           flight,
			Departure:        flight.Departure,
			Arrival:          flight.Arrival,
			DwellHoursBefore: dwell,
		})
		prev = flight
	}

	handlingCost := cargo.WeightKg * cargo.HandlingCostPerKg * float64(len(legs))
	var operatingCost, handlingPenalty float64
	for _, leg := range legs {
		operatingCost += cargo.WeightKg * leg.Flight.OperatingCostPerKg
		handlingPenalty += leg.Flight.HandlingPenaltyPerHr * leg.DwellHoursBefore
	}
	totalCost := operatingCost + handlingCost + handlingPenalty

	var slaPenalty float64
	if lastArrival.After(cargo.DueBy) {
		slaPenalty = model.HoursBetween(cargo.DueBy, lastArrival) * cargo.SLAPenaltyPerHour
	}

	return model.RouteOption{
		CargoID:                cargo.ID,
		Legs:                   legs,
		TotalCost:              totalCost,
		HandlingPenalty:        handlingPenalty,
		SLAPenalty:             slaPenalty,
		TotalMargin:            cargo.Revenue - totalCost - slaPenalty,
		TotalRevenue:           cargo.Revenue,
		TransitHours:           transitHours,
		Arrival:                lastArrival,
		Departure:              firstDeparture,
		RevenueDensityByFlight: revenueDensities(cargo, legs),
		DwellByFlight:          dwellByFlight,
		RolloverPenalty:        RolloverPenalty(cargo),
		Feasible:               true,
	}, true
}

// revenueDensities computes the bottleneck-normalized value of the cargo for
// each leg: revenue over the worst of the weight/volume capacity ratios.
func revenueDensities(cargo model.Cargo, legs []model.RouteLeg) map[string]float64 {
	densities := make(map[string]float64, len(legs))
	for _, leg := range legs {
		weightRatio := cargo.WeightKg / leg.Flight.WeightCapacityKg
		volumeRatio := cargo.VolumeM3 / leg.Flight.VolumeCapacityM3
		bottleneck := math.Max(math.Max(weightRatio, volumeRatio), densityEpsilon)
		densities[leg.Flight.ID] = cargo.Revenue / bottleneck
	}
	return densities
}

// RolloverPenalty is the cost charged when a cargo is bumped off its planned
// flight: four SLA hours plus re-handling of the full weight.
func RolloverPenalty(cargo model.Cargo) float64 {
	return cargo.SLAPenaltyPerHour*4 + cargo.WeightKg*cargo.HandlingCostPerKg
}

// FallbackRoute builds the zero-leg "no itinerary" option. Its margin is the
// negated penalty so choosing it always costs the plan.
func FallbackRoute(cargo model.Cargo, reason string) model.RouteOption {
	penalty := cargo.SLAPenaltyPerHour*6 + cargo.WeightKg*cargo.HandlingCostPerKg
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
		Notes:                  reason,
	}
}
