// Package routes enumerates feasible itineraries per cargo and prices them.
// The catalog it builds is read-only input to every genome evaluation.
package routes

import (
	"sort"

	"github.com/skyfreight/cargoplan/core/model"
)

const (
	// maxPrimaryLegs caps path length for the primary search.
	maxPrimaryLegs = 4
	// maxAlternativeLegs allows one extra leg when hunting alternatives for
	// guaranteed-tier cargo.
	maxAlternativeLegs = 5
	// extendedTransitFactor relaxes the transit limit on the last-resort
	// alternative pass.
	extendedTransitFactor = 1.5
)

// Builder enumerates route options for every cargo against a flight set.
type Builder struct {
	flightsByOrigin map[string][]model.Flight
	connections     model.ConnectionIndex
}

// NewBuilder groups flights by origin, sorted by departure time, and indexes
// the connection rules.
func NewBuilder(flights map[string]model.Flight, rules []model.ConnectionRule) *Builder {
	byOrigin := make(map[string][]model.Flight)
	for _, f := range flights {
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
	return &Builder{
		flightsByOrigin: byOrigin,
		connections:     model.BuildConnectionIndex(rules),
	}
}

// Build produces the route catalog for the given cargo set. Every cargo ends
// up with at least one option; the last option is always a zero-leg fallback
// so genome indices remain valid.
func (b *Builder) Build(cargoSet map[string]model.Cargo) map[string][]model.RouteOption {
	catalog := make(map[string][]model.RouteOption, len(cargoSet))
	for _, cargo := range cargoSet {
		routes := b.enumerate(cargo)

		// Guaranteed-tier cargo gets a second, wider search when the primary
		// pass yields a thin catalog.
		if len(routes) == 0 || (cargo.Priority.Guaranteed() && len(routes) < 2) {
			routes = append(routes, b.enumerateAlternatives(cargo)...)
		}

		if len(routes) > 0 {
			switch cargo.Priority {
			case model.PriorityHigh:
				routes = append(routes, FallbackRoute(cargo, "High priority - requires manual review"))
			case model.PriorityMedium:
				routes = append(routes, FallbackRoute(cargo, "Medium priority - alternative routing suggested"))
			default:
				routes = append(routes, FallbackRoute(cargo, "Denied load"))
			}
		} else {
			routes = []model.RouteOption{FallbackRoute(cargo, "No feasible itinerary")}
		}
		catalog[cargo.ID] = routes
	}
	return catalog
}

// enumerate runs the primary depth-first search with the loosened connection
// tolerance band.
func (b *Builder) enumerate(cargo model.Cargo) []model.RouteOption {
	var routes []model.RouteOption
	b.dfs(cargo, nil, maxPrimaryLegs, cargo.MaxTransitHours, func(path []model.Flight) {
		if opt, ok := b.buildOption(cargo, path, connectTolerant, cargo.MaxTransitHours); ok {
			routes = append(routes, opt)
		}
	})
	return routes
}

// enumerateAlternatives widens the search for guaranteed-tier cargo: first
// with exact connection bounds, then with the relaxed band and an extended
// transit limit.
func (b *Builder) enumerateAlternatives(cargo model.Cargo) []model.RouteOption {
	var routes []model.RouteOption
	b.dfs(cargo, nil, maxAlternativeLegs, cargo.MaxTransitHours, func(path []model.Flight) {
		if opt, ok := b.buildOption(cargo, path, connectExact, cargo.MaxTransitHours); ok {
			opt.Notes = "Alternative route"
			routes = append(routes, opt)
		}
	})
	if len(routes) > 0 {
		return routes
	}
	extended := cargo.MaxTransitHours * extendedTransitFactor
	b.dfs(cargo, nil, maxAlternativeLegs, extended, func(path []model.Flight) {
		if opt, ok := b.buildOption(cargo, path, connectTolerant, extended); ok {
			opt.Notes = "Alternative route (extended constraints)"
			routes = append(routes, opt)
		}
	})
	return routes
}

// dfs walks the flight graph from the cargo origin. Only flights departing
// after the current arrival (or the ready time for the first leg) are
// considered, and the cumulative transit since the first departure must stay
// within the limit.
func (b *Builder) dfs(cargo model.Cargo, path []model.Flight, maxLegs int, transitLimit float64, emit func([]model.Flight)) {
	if len(path) > 0 {
		last := path[len(path)-1]
		if last.Destination == cargo.Destination {
			emit(path)
			return
		}
		if len(path) >= maxLegs {
			return
		}
	}

	position := cargo.Origin
	if len(path) > 0 {
		position = path[len(path)-1].Destination
	}
	for _, flight := range b.flightsByOrigin[position] {
		if containsFlight(path, flight.ID) {
			continue
		}
		if len(path) > 0 && !flight.Departure.After(path[len(path)-1].Arrival) {
			continue
		}
		if len(path) == 0 && flight.Departure.Before(cargo.ReadyTime) {
			continue
		}
		firstDeparture := flight.Departure
		if len(path) > 0 {
			firstDeparture = path[0].Departure
		}
		if model.HoursBetween(firstDeparture, flight.Arrival) > transitLimit {
			continue
		}
		b.dfs(cargo, append(path, flight), maxLegs, transitLimit, emit)
	}
}

func containsFlight(path []model.Flight, id string) bool {
	for _, f := range path {
		if f.ID == id {
			return true
		}
	}
	return false
}
