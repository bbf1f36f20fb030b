// Package heuristics computes a per-stop lower bound on the remaining
// cost of a journey to a fixed set of egress stops (spec §4.9), so a
// forward search can reject a candidate whose optimistic completion
// cannot possibly enter the destination Pareto set. Grounded on the
// teacher's SimpleRaptorArriveBy reverse stop-time iteration in mod.go:
// a "simpler reverse range-raptor" in the spec's own words, since a
// lower bound only needs to never overestimate, not be exact.
package heuristics

import (
	"math"

	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/raptor"
	"github.com/transitnetworks/raptorcore/tdp"
)

const unreachedCount = raptor.Unreached

// Bound is a lower bound on {travel_duration, transfers, cost} still
// needed from some stop to reach an egress leg (spec §4.9). Each field
// is minimized independently across every path the reverse pass
// considers, so a Bound stays componentwise admissible even when no
// single path realizes all three at once.
type Bound struct {
	TravelDuration int
	Transfers      int
	Cost           float64
}

// Unreached is the bound for a stop the reverse pass never touched; it
// never prunes a candidate (spec §4.9).
var Unreached = Bound{TravelDuration: unreachedCount, Transfers: unreachedCount, Cost: math.Inf(1)}

// Table holds the computed bound for every stop.
type Table struct {
	durations []int
	transfers []int
	costs     []float64
}

// At returns the bound for stop.
func (t *Table) At(stop tdp.StopID) Bound {
	return Bound{
		TravelDuration: t.durations[stop],
		Transfers:      t.transfers[stop],
		Cost:           t.costs[stop],
	}
}

// Compute runs the reverse lower-bound pass over provider, seeded at
// egressLegs, for up to maxRounds rounds of pattern/transfer
// propagation.
func Compute(provider tdp.Provider, costModel raptor.CostModel, egressLegs []tdp.AccessEgressLeg, maxRounds int) *Table {
	numStops := provider.NumStops()
	table := &Table{
		durations: make([]int, numStops),
		transfers: make([]int, numStops),
		costs:     make([]float64, numStops),
	}
	for s := 0; s < numStops; s++ {
		table.durations[s] = unreachedCount
		table.transfers[s] = unreachedCount
		table.costs[s] = math.Inf(1)
	}

	touched := bitset.New(numStops)
	for _, leg := range egressLegs {
		if relax(table, leg.Stop, leg.Duration, 0, costModel.WalkCost(leg.Duration)) {
			touched.Set(int(leg.Stop))
		}
	}

	for round := 0; round < maxRounds && !touched.IsEmpty(); round++ {
		prevTouched := touched.Clone()
		touched.ClearAll()

		for _, patID := range provider.PatternsTouching(prevTouched) {
			touched.Or(reversePropagatePattern(provider, provider.Pattern(patID), prevTouched, table, costModel))
		}

		transferTouched := bitset.New(numStops)
		it := touched.Iter()
		for it.HasNext() {
			s := tdp.StopID(it.Next())
			for _, leg := range provider.TransfersFrom(s) {
				// Reverse relaxation assumes symmetric walking
				// durations, the same documented simplification
				// raptor.PlainWorker.reverseTransferStep makes.
				candidateDuration := table.durations[s] + leg.Duration
				candidateCost := table.costs[s] + costModel.WalkCost(leg.Duration)
				if relax(table, leg.ToStop, candidateDuration, table.transfers[s], candidateCost) {
					transferTouched.Set(int(leg.ToStop))
				}
			}
		}
		touched.Or(transferTouched)
	}

	return table
}

// relax applies a componentwise-independent minimization at stop and
// reports whether any dimension improved.
func relax(table *Table, stop tdp.StopID, duration, transfersCount int, cost float64) bool {
	improved := false
	if duration < table.durations[stop] {
		table.durations[stop] = duration
		improved = true
	}
	if transfersCount < table.transfers[stop] {
		table.transfers[stop] = transfersCount
		improved = true
	}
	if cost < table.costs[stop] {
		table.costs[stop] = cost
		improved = true
	}
	return improved
}

// reversePropagatePattern looks, for every earlier stop position, at
// every later position already bounded last round, and keeps whichever
// trip gives the fastest hop between them — not necessarily one that
// is still catchable at any particular departure minute, since a lower
// bound only needs to never overestimate.
func reversePropagatePattern(provider tdp.Provider, pattern *tdp.Pattern, prevTouched *bitset.Dense, table *Table, costModel raptor.CostModel) *bitset.Dense {
	touched := bitset.New(provider.NumStops())
	k := pattern.NumStops()

	for p := k - 2; p >= 0; p-- {
		stop := pattern.Stops[p]
		for q := p + 1; q < k; q++ {
			laterStop := pattern.Stops[q]
			if !prevTouched.IsSet(int(laterStop)) {
				continue
			}

			bestHop := -1
			for _, tripID := range pattern.Trips {
				trip := provider.Trip(tripID)
				if trip.Frequency != nil {
					continue
				}
				hop := trip.Arrivals[q] - trip.Departures[p]
				if hop < 0 {
					continue
				}
				if bestHop < 0 || hop < bestHop {
					bestHop = hop
				}
			}
			if bestHop < 0 {
				continue
			}

			candidateDuration := table.durations[laterStop] + bestHop
			candidateCost := table.costs[laterStop] + costModel.TransitArrivalCost(0, 0, bestHop, 0)
			candidateTransfers := table.transfers[laterStop] + 1
			if relax(table, stop, candidateDuration, candidateTransfers, candidateCost) {
				touched.Set(int(stop))
			}
		}
	}
	return touched
}
