// Package disruption applies what-if events to the flight network and
// explains the difference between a baseline plan and the re-optimized
// scenario as a stream of alerts.
package disruption

import (
	"github.com/google/uuid"
)

// Severity levels for alerts.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Event types.
const (
	EventDelay  = "delay"
	EventCancel = "cancel"
	EventSwap   = "swap"
)

// Event describes one disruption to apply to the network.
type Event struct {
	EventType         string   `json:"event_type" yaml:"event_type" validate:"required,oneof=delay cancel swap"`
	FlightID          string   `json:"flight_id" yaml:"flight_id" validate:"required"`
	DelayMinutes      int      `json:"delay_minutes" yaml:"delay_minutes" validate:"gte=0"`
	NewWeightCapacity *float64 `json:"new_weight_capacity_kg,omitempty" yaml:"new_weight_capacity_kg,omitempty"`
	NewVolumeCapacity *float64 `json:"new_volume_capacity_m3,omitempty" yaml:"new_volume_capacity_m3,omitempty"`
}

// Alert is one operationally relevant observation: an applied (or rejected)
// event, or a difference between the baseline and scenario plans.
type Alert struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	CargoID     string   `json:"cargo_id,omitempty"`
	FlightID    string   `json:"flight_id,omitempty"`
	Status      string   `json:"status,omitempty"`
	MarginDelta *float64 `json:"margin_delta,omitempty"`
}

func newAlert(alertType, severity, message string) Alert {
	return Alert{
		ID:       uuid.NewString(),
		Type:     alertType,
		Severity: severity,
		Message:  message,
	}
}
