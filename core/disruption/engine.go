package disruption

import (
	"fmt"
	"time"

	"github.com/skyfreight/cargoplan/core/logger"
	"github.com/skyfreight/cargoplan/core/model"
)

// Engine applies disruption events and diffs plans. The zero value works;
// Log is optional.
type Engine struct {
	Log logger.Logger
}

// AdjustFlights returns a copy of the flight map with the events applied,
// plus one alert per event. Events naming an unknown flight never fail the
// run; they produce a warning and leave the network untouched.
func (e Engine) AdjustFlights(flights map[string]model.Flight, events []Event) (map[string]model.Flight, []Alert) {
	adjusted := make(map[string]model.Flight, len(flights))
	for id, f := range flights {
		adjusted[id] = f
	}

	var alerts []Alert
	for _, event := range events {
		flight, known := adjusted[event.FlightID]
		switch event.EventType {
		case EventDelay:
			if !known {
				alerts = append(alerts, unknownFlightAlert(event, "Delay reported"))
				continue
			}
			if event.DelayMinutes <= 0 {
				continue
			}
			delta := time.Duration(event.DelayMinutes) * time.Minute
			flight.Departure = flight.Departure.Add(delta)
			flight.Arrival = flight.Arrival.Add(delta)
			adjusted[flight.ID] = flight
			a := newAlert(EventDelay, SeverityInfo,
				fmt.Sprintf("Flight %s delayed by %d minutes", flight.ID, event.DelayMinutes))
			a.FlightID = flight.ID
			alerts = append(alerts, a)

		case EventCancel:
			if !known {
				alerts = append(alerts, unknownFlightAlert(event, "Cancellation reported"))
				continue
			}
			delete(adjusted, flight.ID)
			a := newAlert(EventCancel, SeverityCritical,
				fmt.Sprintf("Flight %s cancelled", flight.ID))
			a.FlightID = flight.ID
			alerts = append(alerts, a)

		case EventSwap:
			if !known {
				alerts = append(alerts, unknownFlightAlert(event, "Aircraft swap reported"))
				continue
			}
			newWeight := flight.WeightCapacityKg
			if event.NewWeightCapacity != nil && *event.NewWeightCapacity > 0 {
				newWeight = *event.NewWeightCapacity
			}
			newVolume := flight.VolumeCapacityM3
			if event.NewVolumeCapacity != nil && *event.NewVolumeCapacity > 0 {
				newVolume = *event.NewVolumeCapacity
			}
			flight.WeightCapacityKg = newWeight
			flight.VolumeCapacityM3 = newVolume
			adjusted[flight.ID] = flight
			a := newAlert(EventSwap, SeverityWarning,
				fmt.Sprintf("Aircraft swap on %s: capacity set to %.0f kg / %.0f m3", flight.ID, newWeight, newVolume))
			a.FlightID = flight.ID
			alerts = append(alerts, a)

		default:
			if e.Log != nil {
				e.Log.Warnf("ignoring unsupported disruption type %q on flight %s", event.EventType, event.FlightID)
			}
		}
	}
	return adjusted, alerts
}

func unknownFlightAlert(event Event, what string) Alert {
	a := newAlert(event.EventType, SeverityWarning,
		fmt.Sprintf("%s for unknown flight %s", what, event.FlightID))
	a.FlightID = event.FlightID
	return a
}
