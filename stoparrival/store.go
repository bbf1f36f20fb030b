// Package stoparrival implements the per-stop arrival store (spec
// §4.3): a Pareto frontier of arrival records per stop for
// multi-criteria search, or a flyweight best-time-per-round array for
// plain RAPTOR, plus the "touched this round" bitset both modes share.
package stoparrival

import (
	"github.com/transitnetworks/raptorcore/arrival"
	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/pareto"
	"github.com/transitnetworks/raptorcore/tdp"
)

// Candidate wraps an arrival.Ref with its precomputed Pareto dimensions
// so the pareto package never has to call back into the arena mid
// comparison (spec §9 Design Notes on avoiding probe methods in the
// comparison path).
type Candidate struct {
	Ref  arrival.Ref
	dims pareto.Dims
}

func (c Candidate) Dims() pareto.Dims { return c.dims }

// NewCandidate builds a Candidate from an arena ref given its
// dimensions, computed by the caller (the RAPTOR worker, which knows
// the active cost model).
func NewCandidate(ref arrival.Ref, dims pareto.Dims) Candidate {
	return Candidate{Ref: ref, dims: dims}
}

// MultiCriteria is the full per-stop Pareto frontier store, required
// for the multi-criteria worker (spec §4.3, §4.7).
type MultiCriteria struct {
	arena          *arrival.Arena
	sets           []*pareto.Set[Candidate]
	touchedThisRnd *bitset.Dense
	relax          []float64
}

// NewMultiCriteria allocates a store over numStops stops, using relax
// as the Pareto relax-factor vector for every per-stop frontier.
func NewMultiCriteria(arena *arrival.Arena, numStops int, relax []float64) *MultiCriteria {
	sets := make([]*pareto.Set[Candidate], numStops)
	for i := range sets {
		sets[i] = pareto.New[Candidate](relax)
	}
	return &MultiCriteria{
		arena:          arena,
		sets:           sets,
		touchedThisRnd: bitset.New(numStops),
		relax:          relax,
	}
}

// SetAt returns the Pareto set for stop.
func (m *MultiCriteria) SetAt(stop tdp.StopID) *pareto.Set[Candidate] {
	return m.sets[stop]
}

// TryAdd attempts to add a candidate arrival at stop, marking the stop
// as touched on acceptance (spec §4.3: "touched_this_round updated
// whenever a candidate is accepted").
func (m *MultiCriteria) TryAdd(stop tdp.StopID, candidate Candidate) pareto.Result[Candidate] {
	result := m.sets[stop].TryAdd(candidate)
	if result.Accepted {
		m.touchedThisRnd.Set(int(stop))
	}
	return result
}

// TouchedThisRound returns the bitset of stops whose frontier grew
// during the current round.
func (m *MultiCriteria) TouchedThisRound() *bitset.Dense { return m.touchedThisRnd }

// ResetTouched clears the touched-this-round bitset at a round
// boundary.
func (m *MultiCriteria) ResetTouched() {
	m.touchedThisRnd.ClearAll()
}

// Arena exposes the backing arrival arena so callers can dereference
// Candidate.Ref.
func (m *MultiCriteria) Arena() *arrival.Arena { return m.arena }

// Flyweight is the compact array-of-int representation permitted for
// plain RAPTOR (spec §4.3): best arrival time per stop per round, plus
// the best arrival time reached by transit per stop (BestTransitArrival);
// the plain worker does not read the latter.
type Flyweight struct {
	arena              *arrival.Arena
	rounds             [][]int // [round][stop] -> best arrival time, or Unreached
	bestTransitArrival []int   // [stop] -> best arrival time reached by transit, across all rounds so far
	refByRoundStop     [][]arrival.Ref
	touchedThisRnd     *bitset.Dense
	numStops           int
}

// Unreached marks a stop not yet reached.
const Unreached = int(1) << 30

// NewFlyweight allocates a flyweight store for numStops stops and
// maxRounds+1 rounds (round 0 is the access-arrival round).
func NewFlyweight(arena *arrival.Arena, numStops int, maxRounds int) *Flyweight {
	f := &Flyweight{
		arena:              arena,
		bestTransitArrival: make([]int, numStops),
		touchedThisRnd:     bitset.New(numStops),
		numStops:           numStops,
	}
	f.rounds = make([][]int, maxRounds+1)
	f.refByRoundStop = make([][]arrival.Ref, maxRounds+1)
	for k := range f.rounds {
		f.rounds[k] = make([]int, numStops)
		f.refByRoundStop[k] = make([]arrival.Ref, numStops)
		for s := 0; s < numStops; s++ {
			f.rounds[k][s] = Unreached
			f.refByRoundStop[k][s] = arrival.NoRef
		}
	}
	for s := range f.bestTransitArrival {
		f.bestTransitArrival[s] = Unreached
	}
	return f
}

// BestAt returns the best arrival time at stop as of round (inclusive
// of all earlier rounds, per range-raptor monotonic refinement).
func (f *Flyweight) BestAt(round int, stop tdp.StopID) int {
	return f.rounds[round][stop]
}

// RefAt returns the arrival record backing the best arrival at round/stop.
func (f *Flyweight) RefAt(round int, stop tdp.StopID) arrival.Ref {
	return f.refByRoundStop[round][stop]
}

// BestTransitArrival returns the best arrival time ever reached at stop
// by a transit leg specifically, the "best-time shortcut" spec §4.3
// names for pruning hopeless board attempts.
func (f *Flyweight) BestTransitArrival(stop tdp.StopID) int {
	return f.bestTransitArrival[stop]
}

// TryUpdate relaxes the arrival at stop in round to candidateTime; it
// succeeds (and marks the stop touched) only if candidateTime improves
// on the best time already recorded at or before round.
func (f *Flyweight) TryUpdate(round int, stop tdp.StopID, candidateTime int, byTransit bool, rec arrival.Record) (arrival.Ref, bool) {
	if candidateTime >= f.rounds[round][stop] {
		return arrival.NoRef, false
	}
	ref := f.arena.Add(rec)
	f.rounds[round][stop] = candidateTime
	f.refByRoundStop[round][stop] = ref
	f.touchedThisRnd.Set(int(stop))
	if byTransit && candidateTime < f.bestTransitArrival[stop] {
		f.bestTransitArrival[stop] = candidateTime
	}
	return ref, true
}

// CarryForward copies round k-1's best times into round k as the
// baseline every round starts from (each round may only improve on the
// previous one, never regress).
func (f *Flyweight) CarryForward(round int) {
	copy(f.rounds[round], f.rounds[round-1])
	copy(f.refByRoundStop[round], f.refByRoundStop[round-1])
}

// TouchedThisRound returns the bitset of stops updated during the
// current round.
func (f *Flyweight) TouchedThisRound() *bitset.Dense { return f.touchedThisRnd }

// ResetTouched clears the touched-this-round bitset.
func (f *Flyweight) ResetTouched() { f.touchedThisRnd.ClearAll() }

// Arena exposes the backing arrival arena.
func (f *Flyweight) Arena() *arrival.Arena { return f.arena }
