package app

import (
	"time"

	"github.com/skyfreight/cargoplan/core/disruption"
	"github.com/skyfreight/cargoplan/core/model"
	"github.com/skyfreight/cargoplan/internal/recommend"
)

// Payload is the wire form of a pipeline result.
type Payload struct {
	RunID           string                   `json:"run_id"`
	Scenario        string                   `json:"scenario"`
	Summary         SummaryPayload           `json:"summary"`
	Cargo           map[string]CargoPayload  `json:"cargo"`
	Flights         map[string]FlightPayload `json:"flights"`
	Alerts          []disruption.Alert       `json:"alerts"`
	Events          []disruption.Event       `json:"events"`
	Recommendations recommend.Report         `json:"recommendations"`
}

// SummaryPayload carries the headline numbers of a plan.
type SummaryPayload struct {
	TotalMargin float64 `json:"total_margin"`
	Delivered   int     `json:"delivered"`
	Rolled      int     `json:"rolled"`
	Denied      int     `json:"denied"`
}

// CargoPayload is the wire form of one cargo assignment.
type CargoPayload struct {
	Status      string       `json:"status"`
	Margin      float64      `json:"margin"`
	Reason      string       `json:"reason"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	Priority    string       `json:"priority"`
	WeightKg    float64      `json:"weight_kg"`
	VolumeM3    float64      `json:"volume_m3"`
	Revenue     float64      `json:"revenue_inr"`
	Route       []LegPayload `json:"route"`
}

// LegPayload is the wire form of one route leg.
type LegPayload struct {
	FlightID    string    `json:"flight_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	DwellHours  float64   `json:"dwell_hours_before"`
}

// FlightPayload is the wire form of one flight and its assigned cargo.
type FlightPayload struct {
	Origin           string               `json:"origin"`
	Destination      string               `json:"destination"`
	Departure        time.Time            `json:"departure"`
	Arrival          time.Time            `json:"arrival"`
	WeightCapacityKg float64              `json:"weight_capacity_kg"`
	VolumeCapacityM3 float64              `json:"volume_capacity_m3"`
	CapacityBreached bool                 `json:"capacity_breached"`
	Assigned         []AssignedCargoEntry `json:"assigned"`
}

// AssignedCargoEntry is one boarded cargo on a flight.
type AssignedCargoEntry struct {
	CargoID  string  `json:"cargo_id"`
	WeightKg float64 `json:"weight_kg"`
	VolumeM3 float64 `json:"volume_m3"`
	Revenue  float64 `json:"revenue"`
	Priority string  `json:"priority"`
}

// BuildPayload flattens a pipeline result for the HTTP API.
func BuildPayload(result Result) Payload {
	counts := result.Plan.CountByStatus()
	payload := Payload{
		RunID:    result.RunID,
		Scenario: result.Scenario,
		Summary: SummaryPayload{
			TotalMargin: result.Plan.TotalMargin,
			Delivered:   counts[model.StatusDelivered],
			Rolled:      counts[model.StatusRolled],
			Denied:      counts[model.StatusDenied],
		},
		Cargo:           make(map[string]CargoPayload, len(result.Plan.Assignments)),
		Flights:         make(map[string]FlightPayload, len(result.AdjustedFlights)),
		Alerts:          result.Alerts,
		Events:          result.Events,
		Recommendations: result.Recommendations,
	}
	if payload.Alerts == nil {
		payload.Alerts = []disruption.Alert{}
	}
	if payload.Events == nil {
		payload.Events = []disruption.Event{}
	}

	for cargoID, assignment := range result.Plan.Assignments {
		cargo := assignment.Cargo
		legs := make([]LegPayload, 0, len(assignment.Route.Legs))
		for _, leg := range assignment.Route.Legs {
			legs = append(legs, LegPayload{
				FlightID:    leg.Flight.ID,
				Origin:      leg.Flight.Origin,
				Destination: leg.Flight.Destination,
				Departure:   leg.Departure,
				Arrival:     leg.Arrival,
				DwellHours:  leg.DwellHoursBefore,
			})
		}
		payload.Cargo[cargoID] = CargoPayload{
			Status:      string(assignment.Status),
			Margin:      assignment.Margin,
			Reason:      assignment.Reason,
			Origin:      cargo.Origin,
			Destination: cargo.Destination,
			Priority:    string(cargo.Priority),
			WeightKg:    cargo.WeightKg,
			VolumeM3:    cargo.VolumeM3,
			Revenue:     cargo.Revenue,
			Route:       legs,
		}
	}

	for flightID, flight := range result.AdjustedFlights {
		var assigned []AssignedCargoEntry
		breached := false
		if selection, ok := result.Plan.FlightLoads[flightID]; ok {
			breached = selection.CapacityBreached
			for _, c := range selection.Selected {
				assigned = append(assigned, AssignedCargoEntry{
					CargoID:  c.Cargo.ID,
					WeightKg: c.WeightKg,
					VolumeM3: c.VolumeM3,
					Revenue:  c.Revenue,
					Priority: string(c.Cargo.Priority),
				})
			}
		}
		payload.Flights[flightID] = FlightPayload{
			Origin:           flight.Origin,
			Destination:      flight.Destination,
			Departure:        flight.Departure,
			Arrival:          flight.Arrival,
			WeightCapacityKg: flight.WeightCapacityKg,
			VolumeCapacityM3: flight.VolumeCapacityM3,
			CapacityBreached: breached,
			Assigned:         assigned,
		}
	}
	return payload
}
