// Package report renders a plan into the operational output files:
// per-cargo routes, per-flight loads, the alert log and a JSON summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/skyfreight/cargoplan/core/disruption"
	"github.com/skyfreight/cargoplan/core/model"
)

// Writer renders plan outputs into a directory.
type Writer struct {
	Dir string
}

// WriteAll writes the four standard output files.
func (w Writer) WriteAll(plan model.Plan, flights map[string]model.Flight, alerts []disruption.Alert) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := w.WritePlanRoutes(plan); err != nil {
		return err
	}
	if err := w.WriteFlightLoads(plan, flights); err != nil {
		return err
	}
	if err := w.WriteAlerts(alerts); err != nil {
		return err
	}
	return w.WriteSummary(plan, flights, alerts)
}

// WritePlanRoutes writes one row per cargo assignment, sorted by cargo id.
func (w Writer) WritePlanRoutes(plan model.Plan) error {
	header := []string{
		"cargo_id", "status", "reason", "flight_sequence", "etds", "etas",
		"total_cost", "revenue", "margin", "transit_hours",
		"sla_penalty", "handling_penalty", "notes",
	}
	rows := make([][]string, 0, len(plan.Assignments))
	for _, id := range sortedKeys(plan.Assignments) {
		a := plan.Assignments[id]
		route := a.Route
		etds := make([]string, len(route.Legs))
		etas := make([]string, len(route.Legs))
		for i, leg := range route.Legs {
			etds[i] = leg.Departure.Format(time.RFC3339)
			etas[i] = leg.Arrival.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			id,
			string(a.Status),
			a.Reason,
			strings.Join(route.LegFlightIDs(), "|"),
			strings.Join(etds, "|"),
			strings.Join(etas, "|"),
			round2(route.TotalCost),
			round2(route.TotalRevenue),
			round2(a.Margin),
			round2(route.TransitHours),
			round2(route.SLAPenalty),
			round2(route.HandlingPenalty),
			route.Notes,
		})
	}
	return writeCSV(filepath.Join(w.Dir, "plan_routes.csv"), header, rows)
}

// WriteFlightLoads writes one row per flight with its assigned cargo and
// utilization, sorted by scheduled departure.
func (w Writer) WriteFlightLoads(plan model.Plan, flights map[string]model.Flight) error {
	header := []string{
		"flight_id", "origin", "destination", "scheduled_departure",
		"weight_capacity_kg", "volume_capacity_m3", "assigned_cargo",
		"total_weight", "total_volume",
		"weight_utilization_pct", "volume_utilization_pct",
		"revenue_sum", "capacity_breached",
	}

	ids := make([]string, 0, len(flights))
	for id := range flights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		fi, fj := flights[ids[i]], flights[ids[j]]
		if fi.Departure.Equal(fj.Departure) {
			return fi.ID < fj.ID
		}
		return fi.Departure.Before(fj.Departure)
	})

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		flight := flights[id]
		selection, ok := plan.FlightLoads[id]
		var assigned []string
		var totalWeight, totalVolume, revenueSum float64
		if ok {
			for _, c := range selection.Selected {
				assigned = append(assigned, c.Cargo.ID)
				totalWeight += c.WeightKg
				totalVolume += c.VolumeM3
				revenueSum += c.Revenue
			}
		}
		rows = append(rows, []string{
			id,
			flight.Origin,
			flight.Destination,
			flight.Departure.Format(time.RFC3339),
			round2(flight.WeightCapacityKg),
			round2(flight.VolumeCapacityM3),
			strings.Join(assigned, "|"),
			round2(totalWeight),
			round2(totalVolume),
			round2(totalWeight / flight.WeightCapacityKg * 100),
			round2(totalVolume / flight.VolumeCapacityM3 * 100),
			round2(revenueSum),
			strconv.FormatBool(ok && selection.CapacityBreached),
		})
	}
	return writeCSV(filepath.Join(w.Dir, "flight_loads.csv"), header, rows)
}

// WriteAlerts writes the alert log in emission order.
func (w Writer) WriteAlerts(alerts []disruption.Alert) error {
	header := []string{"alert_type", "severity", "message", "cargo_id", "flight_id", "status", "margin_delta"}
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		delta := ""
		if a.MarginDelta != nil {
			delta = strconv.FormatFloat(*a.MarginDelta, 'f', -1, 64)
		}
		rows = append(rows, []string{a.Type, a.Severity, a.Message, a.CargoID, a.FlightID, a.Status, delta})
	}
	return writeCSV(filepath.Join(w.Dir, "alerts.csv"), header, rows)
}

type summaryPayload struct {
	Summary struct {
		TotalMargin float64        `json:"total_margin"`
		CargoCounts map[string]int `json:"cargo_counts"`
	} `json:"summary"`
	Capacity []capacityEntry    `json:"capacity"`
	Stats    utilizationStats   `json:"utilization_stats"`
	Alerts   []disruption.Alert `json:"alerts"`
}

type capacityEntry struct {
	FlightID             string  `json:"flight_id"`
	WeightUtilizationPct float64 `json:"weight_utilization_pct"`
	VolumeUtilizationPct float64 `json:"volume_utilization_pct"`
}

type utilizationStats struct {
	WeightMean   float64 `json:"weight_mean_pct"`
	WeightStdDev float64 `json:"weight_stddev_pct"`
	VolumeMean   float64 `json:"volume_mean_pct"`
	VolumeStdDev float64 `json:"volume_stddev_pct"`
}

// WriteSummary writes the JSON roll-up: margin, status counts, per-flight
// utilization with distribution statistics, and the alert payload.
func (w Writer) WriteSummary(plan model.Plan, flights map[string]model.Flight, alerts []disruption.Alert) error {
	var payload summaryPayload
	payload.Summary.TotalMargin = roundF(plan.TotalMargin)
	counts := plan.CountByStatus()
	payload.Summary.CargoCounts = map[string]int{
		"delivered": counts[model.StatusDelivered],
		"rolled":    counts[model.StatusRolled],
		"denied":    counts[model.StatusDenied],
		"total":     len(plan.Assignments),
	}

	var weightUtils, volumeUtils []float64
	for _, id := range sortedFlightIDs(flights) {
		flight := flights[id]
		var totalWeight, totalVolume float64
		if selection, ok := plan.FlightLoads[id]; ok {
			totalWeight = selection.TotalWeight
			totalVolume = selection.TotalVolume
		}
		wu := totalWeight / flight.WeightCapacityKg * 100
		vu := totalVolume / flight.VolumeCapacityM3 * 100
		weightUtils = append(weightUtils, wu)
		volumeUtils = append(volumeUtils, vu)
		payload.Capacity = append(payload.Capacity, capacityEntry{
			FlightID:             id,
			WeightUtilizationPct: roundF(wu),
			VolumeUtilizationPct: roundF(vu),
		})
	}
	if len(weightUtils) > 0 {
		payload.Stats = utilizationStats{
			WeightMean:   roundF(stat.Mean(weightUtils, nil)),
			WeightStdDev: roundF(stat.StdDev(weightUtils, nil)),
			VolumeMean:   roundF(stat.Mean(volumeUtils, nil)),
			VolumeStdDev: roundF(stat.StdDev(volumeUtils, nil)),
		}
	}
	payload.Alerts = alerts
	if payload.Alerts == nil {
		payload.Alerts = []disruption.Alert{}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	path := filepath.Join(w.Dir, "plan_summary.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func round2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func roundF(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys(m map[string]model.CargoAssignment) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFlightIDs(m map[string]model.Flight) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
