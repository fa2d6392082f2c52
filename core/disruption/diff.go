package disruption

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/skyfreight/cargoplan/core/model"
)

// marginChangeEpsilon suppresses float-noise margin alerts.
const marginChangeEpsilon = 1e-3

// CompareResults diffs a baseline plan against a re-optimized scenario plan
// and reports the per-cargo differences as alerts: status changes first,
// reroutes next, margin drifts last, with a separate critical alert for
// every cargo the scenario failed to deliver.
func CompareResults(baseline, scenario model.Plan) []Alert {
	ids := make(map[string]struct{}, len(baseline.Assignments))
	for id := range baseline.Assignments {
		ids[id] = struct{}{}
	}
	for id := range scenario.Assignments {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var alerts []Alert
	for _, cargoID := range sorted {
		baseAssign, hasBase := baseline.Assignments[cargoID]
		newAssign, hasNew := scenario.Assignments[cargoID]
		if !hasNew {
			a := newAlert("cargo_missing", SeverityCritical,
				fmt.Sprintf("Cargo %s missing from disrupted solution", cargoID))
			a.CargoID = cargoID
			alerts = append(alerts, a)
			continue
		}

		baseStatus := "unknown"
		var marginDelta *float64
		if hasBase {
			baseStatus = string(baseAssign.Status)
			delta := newAssign.Margin - baseAssign.Margin
			marginDelta = &delta
		}
		baseLegs := legSequence(baseAssign.Route)
		newLegs := legSequence(newAssign.Route)
		newStatus := string(newAssign.Status)

		switch {
		case baseStatus != newStatus:
			severity := SeverityCritical
			if newAssign.Status == model.StatusDelivered {
				severity = SeverityInfo
			}
			a := newAlert("status_change", severity,
				fmt.Sprintf("Cargo %s status changed %s -> %s", cargoID, baseStatus, newStatus))
			a.CargoID = cargoID
			a.Status = newStatus
			a.MarginDelta = marginDelta
			alerts = append(alerts, a)

		case baseLegs != newLegs:
			a := newAlert("reroute", SeverityWarning,
				fmt.Sprintf("Cargo %s rerouted: %s -> %s", cargoID, orNone(baseLegs), orNone(newLegs)))
			a.CargoID = cargoID
			a.Status = newStatus
			a.MarginDelta = marginDelta
			alerts = append(alerts, a)

		case marginDelta != nil && math.Abs(*marginDelta) > marginChangeEpsilon:
			severity := SeverityInfo
			direction := "increased"
			if *marginDelta < 0 {
				severity = SeverityWarning
				direction = "decreased"
			}
			a := newAlert("margin_change", severity,
				fmt.Sprintf("Cargo %s margin %s by %.0f", cargoID, direction, math.Abs(*marginDelta)))
			a.CargoID = cargoID
			a.Status = newStatus
			a.MarginDelta = marginDelta
			alerts = append(alerts, a)
		}

		if newAssign.Status != model.StatusDelivered && newAssign.Reason != "" {
			a := newAlert("exception", SeverityCritical, newAssign.Reason)
			a.CargoID = cargoID
			a.Status = newStatus
			a.MarginDelta = marginDelta
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// BaselineAlerts reports every non-delivered assignment of a baseline plan.
func BaselineAlerts(plan model.Plan) []Alert {
	ids := make([]string, 0, len(plan.Assignments))
	for id := range plan.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var alerts []Alert
	for _, cargoID := range ids {
		assignment := plan.Assignments[cargoID]
		if assignment.Status == model.StatusDelivered {
			continue
		}
		message := assignment.Reason
		if message == "" {
			message = fmt.Sprintf("Cargo %s not delivered", cargoID)
		}
		a := newAlert("baseline_exception", SeverityWarning, message)
		a.CargoID = cargoID
		a.Status = string(assignment.Status)
		alerts = append(alerts, a)
	}
	return alerts
}

func legSequence(route model.RouteOption) string {
	return strings.Join(route.LegFlightIDs(), "-")
}

func orNone(s string) string {
	if s == "" {
		return "NONE"
	}
	return s
}
