// Package recommend derives follow-up options for cargo the plan failed to
// deliver: charters, alternative routing, aircraft upgrades, accepted delays,
// split shipments and commercial negotiation. All estimates are heuristic and
// deterministic; the output is advisory, never fed back into the optimizer.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/skyfreight/cargoplan/core/model"
)

// Option is one actionable suggestion for a single cargo.
type Option struct {
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	Impact          string   `json:"impact"`
	EstimatedCost   float64  `json:"cost"`
	RevenueRecovery float64  `json:"recovery"`
	Feasibility     float64  `json:"feasibility"`
	TimeHours       int      `json:"time_hours"`
	RiskLevel       string   `json:"risk"`
	RequiredActions []string `json:"actions"`
}

// Recommendation bundles the options for one undelivered cargo.
type Recommendation struct {
	CargoID       string   `json:"cargo_id"`
	Priority      string   `json:"priority"`
	DenialReason  string   `json:"denial_reason"`
	RevenueAtRisk float64  `json:"revenue_at_risk"`
	Recommended   *Option  `json:"recommended_option"`
	Options       []Option `json:"all_options"`
}

// Summary aggregates the recommendations for reporting.
type Summary struct {
	CargoAtRisk         int     `json:"total_cargo_at_risk"`
	RevenueAtRisk       float64 `json:"total_revenue_at_risk"`
	HighPriorityCount   int     `json:"high_priority_count"`
	MediumPriorityCount int     `json:"medium_priority_count"`
	LowPriorityCount    int     `json:"low_priority_count"`
}

// Report is the full advisory output for one plan.
type Report struct {
	Summary         Summary          `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

const (
	charterBaseCost     = 800000
	charterRevenueFloor = 500000
	upgradeBaseCost     = 150000
	partialShipShare    = 0.7
)

// Generate builds recommendations for every denied or rolled assignment.
func Generate(plan model.Plan, cargoSet map[string]model.Cargo, flights map[string]model.Flight) Report {
	var report Report
	report.Recommendations = []Recommendation{}

	ids := make([]string, 0, len(plan.Assignments))
	for id := range plan.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		assignment := plan.Assignments[id]
		if assignment.Status == model.StatusDelivered {
			continue
		}
		cargo, ok := cargoSet[id]
		if !ok {
			continue
		}
		if rec, ok := forCargo(cargo, assignment, plan, flights); ok {
			report.Recommendations = append(report.Recommendations, rec)
			report.Summary.CargoAtRisk++
			report.Summary.RevenueAtRisk += cargo.Revenue
			switch cargo.Priority {
			case model.PriorityHigh:
				report.Summary.HighPriorityCount++
			case model.PriorityMedium:
				report.Summary.MediumPriorityCount++
			default:
				report.Summary.LowPriorityCount++
			}
		}
	}
	return report
}

func forCargo(cargo model.Cargo, assignment model.CargoAssignment, plan model.Plan, flights map[string]model.Flight) (Recommendation, bool) {
	reason := assignment.Reason
	if reason == "" {
		reason = "Capacity constraints"
	}

	var options []Option
	if cargo.Priority.Guaranteed() && cargo.Revenue > charterRevenueFloor {
		if opt, ok := charterOption(cargo); ok {
			options = append(options, opt)
		}
	}
	if opt, ok := alternativeRoutingOption(cargo, plan, flights); ok {
		options = append(options, opt)
	}
	if cargo.Priority == model.PriorityHigh {
		if opt, ok := capacityUpgradeOption(cargo, flights); ok {
			options = append(options, opt)
		}
	}
	if opt, ok := delayAcceptanceOption(cargo, flights); ok {
		options = append(options, opt)
	}
	if cargo.WeightKg > 5000 || cargo.VolumeM3 > 25 {
		options = append(options, partialShipmentOption(cargo))
	}
	if opt, ok := negotiationOption(cargo, reason); ok {
		options = append(options, opt)
	}
	if len(options) == 0 {
		return Recommendation{}, false
	}

	bestIdx := 0
	for i, opt := range options {
		if opt.Feasibility*opt.RevenueRecovery > options[bestIdx].Feasibility*options[bestIdx].RevenueRecovery {
			bestIdx = i
		}
	}
	recommended := options[bestIdx]

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Feasibility > options[j].Feasibility
	})

	return Recommendation{
		CargoID:       cargo.ID,
		Priority:      string(cargo.Priority),
		DenialReason:  reason,
		RevenueAtRisk: cargo.Revenue,
		Recommended:   &recommended,
		Options:       options,
	}, true
}

func charterOption(cargo model.Cargo) (Option, bool) {
	cost := charterBaseCost + cargo.WeightKg/1000*15000 + cargo.VolumeM3*8000
	recovery := math.Max(0, cargo.Revenue-cost)
	feasibility := math.Min(1, recovery/cost)
	if feasibility < 0.1 {
		return Option{}, false
	}
	return Option{
		Type:            "charter_flight",
		Description:     fmt.Sprintf("Charter dedicated flight for %s", cargo.ID),
		Impact:          fmt.Sprintf("Guaranteed delivery with estimated net recovery of %.0f", recovery),
		EstimatedCost:   cost,
		RevenueRecovery: recovery,
		Feasibility:     feasibility,
		TimeHours:       24,
		RiskLevel:       "Medium",
		RequiredActions: []string{
			"Contact charter flight operators",
			"Negotiate charter rates",
			"Arrange ground handling",
			"Update customer on delivery timeline",
		},
	}, true
}

func alternativeRoutingOption(cargo model.Cargo, plan model.Plan, flights map[string]model.Flight) (Option, bool) {
	var available []model.Flight
	for _, f := range flights {
		if f.Departure.Before(cargo.ReadyTime) {
			continue
		}
		freeWeight, freeVolume := f.WeightCapacityKg, f.VolumeCapacityM3
		if selection, ok := plan.FlightLoads[f.ID]; ok {
			freeWeight -= selection.TotalWeight
			freeVolume -= selection.TotalVolume
		}
		if freeWeight >= cargo.WeightKg && freeVolume >= cargo.VolumeM3 {
			available = append(available, f)
		}
	}
	if len(available) == 0 {
		return Option{}, false
	}

	cost := cargo.WeightKg * 5
	for _, f := range available {
		if f.Destination == cargo.Destination && f.Arrival.After(cargo.DueBy) {
			cost += model.HoursBetween(cargo.DueBy, f.Arrival) * cargo.SLAPenaltyPerHour
			break
		}
	}
	recovery := cargo.Revenue - cost
	feasibility := 0.6
	if len(available) > 2 {
		feasibility = 0.8
	}
	return Option{
		Type:            "alternative_routing",
		Description:     fmt.Sprintf("Route via alternative flights with %d options available", len(available)),
		Impact:          fmt.Sprintf("Potential delivery with %.0f net recovery", recovery),
		EstimatedCost:   cost,
		RevenueRecovery: recovery,
		Feasibility:     feasibility,
		TimeHours:       4,
		RiskLevel:       "Low",
		RequiredActions: []string{
			"Analyze alternative flight connections",
			"Coordinate with ground handling teams",
			"Update cargo routing in system",
			"Notify customer of revised timeline",
		},
	}, true
}

// capacityUpgradeOption checks the declared swap-aircraft capacities for
// flights touching the cargo's origin or destination.
func capacityUpgradeOption(cargo model.Cargo, flights map[string]model.Flight) (Option, bool) {
	candidates := 0
	for _, f := range flights {
		if f.Origin != cargo.Origin && f.Destination != cargo.Destination {
			continue
		}
		extraWeight := f.SwapWeightCapacityKg - f.WeightCapacityKg
		extraVolume := f.SwapVolumeCapacityM3 - f.VolumeCapacityM3
		if extraWeight >= cargo.WeightKg && extraVolume >= cargo.VolumeM3 {
			candidates++
		}
	}
	if candidates == 0 {
		return Option{}, false
	}
	cost := float64(upgradeBaseCost) + cargo.WeightKg*8
	recovery := cargo.Revenue - cost
	return Option{
		Type:            "capacity_upgrade",
		Description:     fmt.Sprintf("Upgrade aircraft capacity on %d potential flights", candidates),
		Impact:          fmt.Sprintf("Create additional capacity with %.0f net recovery", recovery),
		EstimatedCost:   cost,
		RevenueRecovery: recovery,
		Feasibility:     0.7,
		TimeHours:       12,
		RiskLevel:       "Medium",
		RequiredActions: []string{
			"Coordinate with fleet management",
			"Arrange aircraft swap",
			"Update flight capacity in system",
			"Reschedule affected cargo",
		},
	}, true
}

func delayAcceptanceOption(cargo model.Cargo, flights map[string]model.Flight) (Option, bool) {
	var next *model.Flight
	for _, f := range flights {
		if !f.Departure.After(cargo.DueBy) {
			continue
		}
		if f.Origin != cargo.Origin && f.Destination != cargo.Destination {
			continue
		}
		f := f
		if next == nil || f.Departure.Before(next.Departure) ||
			(f.Departure.Equal(next.Departure) && f.ID < next.ID) {
			next = &f
		}
	}
	if next == nil {
		return Option{}, false
	}
	delayHours := model.HoursBetween(cargo.DueBy, next.Departure)
	compensation := math.Min(cargo.Revenue*0.1, 50000)
	cost := delayHours*cargo.SLAPenaltyPerHour + compensation
	recovery := cargo.Revenue - cost
	return Option{
		Type:            "delay_acceptance",
		Description:     fmt.Sprintf("Accept %.1f hour delay with customer compensation", delayHours),
		Impact:          fmt.Sprintf("Deliver with delay, net recovery %.0f", recovery),
		EstimatedCost:   cost,
		RevenueRecovery: recovery,
		Feasibility:     0.9,
		TimeHours:       2,
		RiskLevel:       "Low",
		RequiredActions: []string{
			"Negotiate delay terms with customer",
			"Arrange compensation agreement",
			"Schedule on next available flight",
			"Update delivery timeline",
		},
	}, true
}

func partialShipmentOption(cargo model.Cargo) Option {
	remaining := 1 - partialShipShare
	cost := 24*cargo.SLAPenaltyPerHour*remaining + cargo.WeightKg*3
	recovery := cargo.Revenue - cost
	return Option{
		Type:            "partial_shipment",
		Description:     fmt.Sprintf("Ship %.0f%% immediately, remainder with delay", partialShipShare*100),
		Impact:          fmt.Sprintf("Partial immediate delivery, net recovery %.0f", recovery),
		EstimatedCost:   cost,
		RevenueRecovery: recovery,
		Feasibility:     0.75,
		TimeHours:       6,
		RiskLevel:       "Low",
		RequiredActions: []string{
			"Coordinate cargo splitting",
			"Arrange immediate shipment for partial cargo",
			"Schedule remaining cargo on next flight",
			"Update customer on partial delivery",
		},
	}
}

// negotiationOption is skipped when the failure was a capacity problem on our
// side; asking the customer for more money would not fix it.
func negotiationOption(cargo model.Cargo, reason string) (Option, bool) {
	lower := strings.ToLower(reason)
	if strings.Contains(lower, "capacity") || strings.Contains(lower, "roll-over") {
		return Option{}, false
	}
	rateIncrease := math.Min(cargo.Revenue*0.15, 100000)
	const flexibilityBonus = 25000
	const negotiationCost = 5000
	recovery := cargo.Revenue + rateIncrease + flexibilityBonus - negotiationCost
	feasibility := 0.4
	if cargo.Priority.Guaranteed() {
		feasibility = 0.6
	}
	return Option{
		Type:            "customer_negotiation",
		Description:     "Negotiate rate increase and delivery flexibility with customer",
		Impact:          fmt.Sprintf("Potential revenue increase to %.0f", recovery),
		EstimatedCost:   negotiationCost,
		RevenueRecovery: recovery,
		Feasibility:     feasibility,
		TimeHours:       8,
		RiskLevel:       "Medium",
		RequiredActions: []string{
			"Contact customer relationship manager",
			"Prepare negotiation proposal",
			"Present alternative delivery options",
			"Finalize revised agreement",
		},
	}, true
}
