package raptor

// DefaultDepartureStep is the default range-raptor outer-loop minute
// granularity (spec §6.1 "departure_step").
const DefaultDepartureStep = 60

// Unreached mirrors stoparrival.Unreached for callers that only need
// the sentinel, not the full flyweight/pareto store.
const Unreached = int(1) << 30
