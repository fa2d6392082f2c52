package model

import (
	"fmt"
	"time"
)

// Priority classifies cargo into the three service tiers. High and Medium
// carry a hard delivery guarantee; only Low may be denied in normal
// operation.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Score maps a priority to its numeric rank used by the allocator.
func (p Priority) Score() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Guaranteed reports whether the priority tier carries the hard delivery
// guarantee.
func (p Priority) Guaranteed() bool {
	return p == PriorityHigh || p == PriorityMedium
}

// Flight is one scheduled flight with its declared capacities and cost
// parameters. Flights are immutable once loaded; a disrupted copy replaces
// the original, it is never mutated in place.
type Flight struct {
	ID                   string
	Origin               string
	Destination          string
	Departure            time.Time
	Arrival              time.Time
	AircraftType         string
	WeightCapacityKg     float64
	VolumeCapacityM3     float64
	OperatingCostPerKg   float64
	HandlingPenaltyPerHr float64
	SwapWeightCapacityKg float64 // alternate aircraft capacity for upgrade scenarios
	SwapVolumeCapacityM3 float64
}

// Validate checks the structural invariants of a flight record.
func (f Flight) Validate() error {
	if !f.Arrival.After(f.Departure) {
		return fmt.Errorf("flight %s: arrival must be after departure", f.ID)
	}
	if f.WeightCapacityKg <= 0 || f.VolumeCapacityM3 <= 0 {
		return fmt.Errorf("flight %s: capacities must be positive", f.ID)
	}
	return nil
}

// Cargo is one shipment request. Immutable.
type Cargo struct {
	ID                string
	Origin            string
	Destination       string
	WeightKg          float64
	VolumeM3          float64
	Revenue           float64
	Priority          Priority
	Perishable        bool
	MaxTransitHours   float64
	ReadyTime         time.Time
	DueBy             time.Time
	HandlingCostPerKg float64
	SLAPenaltyPerHour float64
}

// Validate checks the structural invariants of a cargo record.
func (c Cargo) Validate() error {
	if c.WeightKg <= 0 || c.VolumeM3 <= 0 {
		return fmt.Errorf("cargo %s: weight and volume must be positive", c.ID)
	}
	if !c.DueBy.After(c.ReadyTime) {
		return fmt.Errorf("cargo %s: due_by must be after ready_time", c.ID)
	}
	return nil
}

// ConnectionRule bounds the dwell time between two legs. A rule with an empty
// ConnectionAirport acts as a wildcard fallback when no airport-specific rule
// exists for the (origin, destination) pair.
type ConnectionRule struct {
	Origin            string
	Destination       string
	ConnectionAirport string
	MinConnectMinutes int
	MaxConnectHours   float64
}

// ConnectionIndex resolves connection rules by (origin, destination,
// connection airport), falling back to the wildcard rule.
type ConnectionIndex map[connectionKey]ConnectionRule

type connectionKey struct {
	origin, destination, connection string
}

// BuildConnectionIndex indexes the rules for lookup during route building.
func BuildConnectionIndex(rules []ConnectionRule) ConnectionIndex {
	idx := make(ConnectionIndex, len(rules))
	for _, r := range rules {
		idx[connectionKey{r.Origin, r.Destination, r.ConnectionAirport}] = r
	}
	return idx
}

// Lookup returns the rule for the given connection airport, or the wildcard
// rule for the pair when no airport-specific rule exists.
func (idx ConnectionIndex) Lookup(origin, destination, connection string) (ConnectionRule, bool) {
	if r, ok := idx[connectionKey{origin, destination, connection}]; ok {
		return r, true
	}
	r, ok := idx[connectionKey{origin, destination, ""}]
	return r, ok
}

// HoursBetween returns the duration between two instants in fractional hours.
func HoursBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// MinutesBetween returns the duration between two instants in fractional
// minutes.
func MinutesBetween(start, end time.Time) float64 {
	return end.Sub(start).Minutes()
}
