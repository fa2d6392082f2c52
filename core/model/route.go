package model

import "time"

// RouteLeg is one flight segment within a cargo itinerary, including the
// dwell accumulated before boarding it.
type RouteLeg struct {
	Flight           Flight
	Departure        time.Time
	Arrival          time.Time
	DwellHoursBefore float64
}

// RouteOption is one feasible (or fallback) itinerary for a cargo, with its
// derived economics. Immutable once built. An option with no legs represents
// "no itinerary" and carries only a penalty.
type RouteOption struct {
	CargoID         string
	Legs            []RouteLeg
	TotalCost       float64
	HandlingPenalty float64
	SLAPenalty      float64
	TotalMargin     float64
	TotalRevenue    float64
	TransitHours    float64
	Arrival         time.Time
	Departure       time.Time
	// RevenueDensityByFlight holds the bottleneck-normalized value of the
	// cargo on each leg's flight, used for tie-breaking during allocation.
	RevenueDensityByFlight map[string]float64
	DwellByFlight          map[string]float64
	RolloverPenalty        float64
	Feasible               bool
	Notes                  string
}

// LegFlightIDs returns the ordered flight ids of the itinerary.
func (r RouteOption) LegFlightIDs() []string {
	ids := make([]string, len(r.Legs))
	for i, leg := range r.Legs {
		ids[i] = leg.Flight.ID
	}
	return ids
}

// Empty reports whether the option carries no legs.
func (r RouteOption) Empty() bool { return len(r.Legs) == 0 }
