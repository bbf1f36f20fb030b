package raptor

// CostModel supplies the extra pareto dimensions the multi-criteria
// worker compares on, beyond arrival time and round (spec §4.7).
type CostModel interface {
	// TransitArrivalCost combines wait time (board_time - prev_time) and
	// in-vehicle time (alight_time - board_time) into a single cost
	// contribution, optionally discounted by round.
	TransitArrivalCost(prevTime, boardTime, alightTime, round int) float64

	// WalkCost prices a transfer/access/egress leg of the given duration.
	WalkCost(duration int) float64
}

// DefaultCostModel prices cost in elapsed seconds, weighting wait time
// relative to in-vehicle time, with no round-based discounting. It is
// grounded on the teacher's plain time-only comparison in mod.go,
// generalized to a separate wait/ride weighting so the multi-criteria
// worker's cost dimension is not simply a duplicate of travel_duration.
type DefaultCostModel struct {
	WaitWeight float64
	RideWeight float64
}

// NewDefaultCostModel constructs a DefaultCostModel with the given
// wait/ride weights. Weights of 1.0 each make cost equal to total
// elapsed seconds.
func NewDefaultCostModel(waitWeight, rideWeight float64) DefaultCostModel {
	return DefaultCostModel{WaitWeight: waitWeight, RideWeight: rideWeight}
}

func (c DefaultCostModel) TransitArrivalCost(prevTime, boardTime, alightTime, round int) float64 {
	wait := float64(boardTime - prevTime)
	ride := float64(alightTime - boardTime)
	return c.WaitWeight*wait + c.RideWeight*ride
}

func (c DefaultCostModel) WalkCost(duration int) float64 {
	return c.RideWeight * float64(duration)
}
