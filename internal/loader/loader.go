// Package loader reads the flight, cargo and connection-rule CSV inputs and
// validates them into the core model. All failures carry the file and field
// that caused them; a plan run never starts on partially valid data.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/skyfreight/cargoplan/core/model"
)

// ErrValidation marks any data validation failure; callers can match it with
// errors.Is.
var ErrValidation = errors.New("data validation failed")

// Naive timestamps are assumed to be local network time (Asia/Calcutta).
var defaultZone = time.FixedZone("IST", 5*3600+30*60)

// Dataset is the validated input of one planning run.
type Dataset struct {
	Flights     map[string]model.Flight
	Cargo       map[string]model.Cargo
	Connections []model.ConnectionRule
}

// LoadAll reads flights.csv, cargo.csv and connections.csv from dir.
func LoadAll(dir string) (Dataset, error) {
	flights, err := LoadFlights(filepath.Join(dir, "flights.csv"))
	if err != nil {
		return Dataset{}, err
	}
	cargo, err := LoadCargo(filepath.Join(dir, "cargo.csv"))
	if err != nil {
		return Dataset{}, err
	}
	connections, err := LoadConnections(filepath.Join(dir, "connections.csv"))
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Flights: flights, Cargo: cargo, Connections: connections}, nil
}

// LoadFlights reads and validates the flight schedule.
func LoadFlights(path string) (map[string]model.Flight, error) {
	rows, err := readCSV(path, []string{
		"flight_id", "origin", "destination", "departure_time", "arrival_time",
		"aircraft_type", "weight_capacity_kg", "volume_capacity_m3",
		"operating_cost_per_kg", "handling_penalty_per_hour",
		"aircraft_swap_capacity_kg", "aircraft_swap_volume_m3",
	})
	if err != nil {
		return nil, err
	}

	flights := make(map[string]model.Flight, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row["flight_id"])
		if id == "" {
			return nil, fmt.Errorf("%w: flight_id cannot be empty", ErrValidation)
		}
		departure, err := parseISOTime(row["departure_time"], "departure_time")
		if err != nil {
			return nil, err
		}
		arrival, err := parseISOTime(row["arrival_time"], "arrival_time")
		if err != nil {
			return nil, err
		}
		if !arrival.After(departure) {
			return nil, fmt.Errorf("%w: flight %s arrival_time must be after departure_time", ErrValidation, id)
		}

		f := model.Flight{
			ID:           id,
			Origin:       upperCode(row["origin"]),
			Destination:  upperCode(row["destination"]),
			Departure:    departure,
			Arrival:      arrival,
			AircraftType: strings.TrimSpace(row["aircraft_type"]),
		}
		numeric := []struct {
			field string
			dst   *float64
		}{
			{"weight_capacity_kg", &f.WeightCapacityKg},
			{"volume_capacity_m3", &f.VolumeCapacityM3},
			{"operating_cost_per_kg", &f.OperatingCostPerKg},
			{"handling_penalty_per_hour", &f.HandlingPenaltyPerHr},
			{"aircraft_swap_capacity_kg", &f.SwapWeightCapacityKg},
			{"aircraft_swap_volume_m3", &f.SwapVolumeCapacityM3},
		}
		for _, n := range numeric {
			v, err := parsePositive(row[n.field], n.field)
			if err != nil {
				return nil, err
			}
			*n.dst = v
		}
		flights[id] = f
	}
	return flights, nil
}

// LoadCargo reads and validates the cargo manifest.
func LoadCargo(path string) (map[string]model.Cargo, error) {
	rows, err := readCSV(path, []string{
		"cargo_id", "origin", "destination", "weight_kg", "volume_m3",
		"revenue_inr", "priority", "perishable", "max_transit_hours",
		"ready_time", "due_by", "handling_cost_per_kg", "sla_penalty_per_hour",
	})
	if err != nil {
		return nil, err
	}

	cargoSet := make(map[string]model.Cargo, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row["cargo_id"])
		if id == "" {
			return nil, fmt.Errorf("%w: cargo_id cannot be empty", ErrValidation)
		}

		c := model.Cargo{
			ID:          id,
			Origin:      upperCode(row["origin"]),
			Destination: upperCode(row["destination"]),
		}
		numeric := []struct {
			field string
			dst   *float64
		}{
			{"weight_kg", &c.WeightKg},
			{"volume_m3", &c.VolumeM3},
			{"revenue_inr", &c.Revenue},
			{"max_transit_hours", &c.MaxTransitHours},
			{"handling_cost_per_kg", &c.HandlingCostPerKg},
			{"sla_penalty_per_hour", &c.SLAPenaltyPerHour},
		}
		for _, n := range numeric {
			v, err := parsePositive(row[n.field], n.field)
			if err != nil {
				return nil, err
			}
			*n.dst = v
		}

		c.ReadyTime, err = parseISOTime(row["ready_time"], "ready_time")
		if err != nil {
			return nil, err
		}
		c.DueBy, err = parseISOTime(row["due_by"], "due_by")
		if err != nil {
			return nil, err
		}
		if !c.DueBy.After(c.ReadyTime) {
			return nil, fmt.Errorf("%w: cargo %s due_by must be after ready_time", ErrValidation, id)
		}

		c.Priority, err = parsePriority(row["priority"])
		if err != nil {
			return nil, fmt.Errorf("cargo %s: %w", id, err)
		}
		c.Perishable, err = parseBool(row["perishable"], "perishable")
		if err != nil {
			return nil, err
		}
		cargoSet[id] = c
	}
	return cargoSet, nil
}

// LoadConnections reads and validates the connection rules. An empty
// connection_airport means the rule applies at any intermediate stop of the
// origin/destination pair.
func LoadConnections(path string) ([]model.ConnectionRule, error) {
	rows, err := readCSV(path, []string{
		"origin", "destination", "connection_airport",
		"min_connect_minutes", "max_connect_hours",
	})
	if err != nil {
		return nil, err
	}

	rules := make([]model.ConnectionRule, 0, len(rows))
	for _, row := range rows {
		origin := upperCode(row["origin"])
		destination := upperCode(row["destination"])
		minConnect, err := strconv.Atoi(strings.TrimSpace(row["min_connect_minutes"]))
		if err != nil {
			return nil, fmt.Errorf("%w: min_connect_minutes %q is not an integer", ErrValidation, row["min_connect_minutes"])
		}
		if minConnect < 0 {
			return nil, fmt.Errorf("%w: min_connect_minutes must be >= 0 for %s-%s", ErrValidation, origin, destination)
		}
		maxConnect, err := parsePositive(row["max_connect_hours"], "max_connect_hours")
		if err != nil {
			return nil, err
		}
		rules = append(rules, model.ConnectionRule{
			Origin:            origin,
			Destination:       destination,
			ConnectionAirport: upperCode(row["connection_airport"]),
			MinConnectMinutes: minConnect,
			MaxConnectHours:   maxConnect,
		})
	}
	return rules, nil
}

// readCSV loads the file into header-keyed rows, failing when any required
// column is absent.
func readCSV(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing required columns: %s",
			ErrValidation, filepath.Base(path), strings.Join(missing, ", "))
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		row := make(map[string]string, len(index))
		for col, i := range index {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseISOTime accepts RFC 3339 timestamps, a trailing Z, or naive local
// times which are interpreted in the default zone.
func parseISOTime(value, field string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, v, defaultZone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: value %q for field %q is not a valid ISO 8601 timestamp", ErrValidation, value, field)
}

func parsePositive(value, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q value %q is not numeric", ErrValidation, field, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: field %q must be positive, found %v", ErrValidation, field, v)
	}
	return v, nil
}

func parseBool(value, field string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%w: field %q with value %q must be boolean-like", ErrValidation, field, value)
}

func parsePriority(value string) (model.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return model.PriorityHigh, nil
	case "medium":
		return model.PriorityMedium, nil
	case "low":
		return model.PriorityLow, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, value)
}

func upperCode(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
