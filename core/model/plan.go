package model

// AssignmentStatus is the terminal state of a cargo within a plan.
type AssignmentStatus string

const (
	StatusDelivered AssignmentStatus = "delivered"
	StatusRolled    AssignmentStatus = "rolled"
	StatusDenied    AssignmentStatus = "denied"
)

// FlightCargoCandidate is one cargo waiting for a seat on a specific flight,
// carrying the per-leg share of its route economics.
type FlightCargoCandidate struct {
	Cargo          Cargo
	Margin         float64
	Revenue        float64
	WeightKg       float64
	VolumeM3       float64
	RevenueDensity float64
	PriorityScore  int
	DwellHours     float64
}

// FlightSelection is the capacity decision for one flight: which candidates
// board and which are bumped. Selected weight/volume stay within the flight
// capacity except on the emergency path, where a breach is deliberate and
// recorded via CapacityBreached.
type FlightSelection struct {
	Flight            Flight
	Selected          []FlightCargoCandidate
	Rejected          []FlightCargoCandidate
	TotalWeight       float64
	TotalVolume       float64
	RevenueDensitySum float64
	CapacityBreached  bool
}

// WeightUtilization returns committed weight over nominal capacity.
func (s FlightSelection) WeightUtilization() float64 {
	if s.Flight.WeightCapacityKg <= 0 {
		return 0
	}
	return s.TotalWeight / s.Flight.WeightCapacityKg
}

// VolumeUtilization returns committed volume over nominal capacity.
func (s FlightSelection) VolumeUtilization() float64 {
	if s.Flight.VolumeCapacityM3 <= 0 {
		return 0
	}
	return s.TotalVolume / s.Flight.VolumeCapacityM3
}

// CargoAssignment is the outcome for one cargo in a plan.
type CargoAssignment struct {
	Cargo  Cargo
	Route  RouteOption
	Status AssignmentStatus
	Margin float64
	Reason string
}

// Plan is one full evaluated solution. Plans are ephemeral per genome
// evaluation; the optimizer retains only the best one.
type Plan struct {
	TotalMargin float64
	Assignments map[string]CargoAssignment
	FlightLoads map[string]FlightSelection
}

// CountByStatus returns the number of assignments per terminal status.
func (p Plan) CountByStatus() map[AssignmentStatus]int {
	counts := make(map[AssignmentStatus]int, 3)
	for _, a := range p.Assignments {
		counts[a.Status]++
	}
	return counts
}
