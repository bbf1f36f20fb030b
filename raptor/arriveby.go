package raptor

import (
	"github.com/transitnetworks/raptorcore/arrival"
	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/boardsearch"
	"github.com/transitnetworks/raptorcore/roundtracker"
	"github.com/transitnetworks/raptorcore/tdp"
)

// ArriveByParams configures a single reverse (latest-departure) search:
// given a deadline at the destination, find the latest departure from
// the origin that still connects (spec §11 "reverse (arrive-by) plain
// RAPTOR", grounded on the teacher's SimpleRaptorArriveBy).
//
// Unlike PlainWorker.Run, this is a single search, not a minute sweep:
// the teacher's own SimpleRaptorArriveBy has no outer time-range loop
// either, so this mirrors it directly rather than inventing a
// range-raptor sweep in the opposite time direction.
type ArriveByParams struct {
	ArriveByTime           int
	BoardSlack             int
	MaxRounds              int
	MaxAdditionalTransfers int
	// AccessLegs are the real origin-side walking legs; they are relaxed
	// last, once a safe bound has propagated backward to them.
	AccessLegs []tdp.AccessEgressLeg
	// EgressLegs are the real destination-side walking legs; they seed
	// round 0, since the search starts at the deadline and works
	// backward.
	EgressLegs []tdp.AccessEgressLeg
}

// OriginDeparture is the latest safe departure found from any access
// leg's stop that still reaches the destination by the deadline.
type OriginDeparture struct {
	Time       int
	Round      int
	Ref        arrival.Ref
	AccessStop tdp.StopID
}

// ArriveByResult is the outcome of a reverse search.
type ArriveByResult struct {
	Arena  *arrival.Arena
	Origin *OriginDeparture
	Found  bool
}

// reverseUnreached marks a stop with no known safe bound yet; "better"
// in this store means a later (larger) time, so the sentinel sits below
// any real clock time instead of above it (mirror of
// stoparrival.Unreached).
const reverseUnreached = -Unreached

// reverseStore is stoparrival.Flyweight's mirror image for the
// arrive-by direction: it tracks the latest safe time to be at a stop,
// improvement meaning later rather than earlier. The teacher keeps
// SimpleRaptorDepartAt and SimpleRaptorArriveBy as separate functions
// rather than one parameterized by direction; this keeps the same
// spirit instead of threading a sign flag through stoparrival.Flyweight.
type reverseStore struct {
	arena          *arrival.Arena
	rounds         [][]int
	refByRoundStop [][]arrival.Ref
	touchedThisRnd *bitset.Dense
}

func newReverseStore(arena *arrival.Arena, numStops, maxRounds int) *reverseStore {
	r := &reverseStore{
		arena:          arena,
		touchedThisRnd: bitset.New(numStops),
	}
	r.rounds = make([][]int, maxRounds+1)
	r.refByRoundStop = make([][]arrival.Ref, maxRounds+1)
	for k := range r.rounds {
		r.rounds[k] = make([]int, numStops)
		r.refByRoundStop[k] = make([]arrival.Ref, numStops)
		for s := 0; s < numStops; s++ {
			r.rounds[k][s] = reverseUnreached
			r.refByRoundStop[k][s] = arrival.NoRef
		}
	}
	return r
}

func (r *reverseStore) BestAt(round int, stop tdp.StopID) int { return r.rounds[round][stop] }
func (r *reverseStore) RefAt(round int, stop tdp.StopID) arrival.Ref {
	return r.refByRoundStop[round][stop]
}

// TryUpdate accepts candidateTime only if it is strictly later than the
// best bound already known at or before round (later = safer = better,
// the mirror of Flyweight's "strictly earlier" acceptance rule).
func (r *reverseStore) TryUpdate(round int, stop tdp.StopID, candidateTime int, rec arrival.Record) (arrival.Ref, bool) {
	if candidateTime <= r.rounds[round][stop] {
		return arrival.NoRef, false
	}
	ref := r.arena.Add(rec)
	r.rounds[round][stop] = candidateTime
	r.refByRoundStop[round][stop] = ref
	r.touchedThisRnd.Set(int(stop))
	return ref, true
}

func (r *reverseStore) CarryForward(round int) {
	copy(r.rounds[round], r.rounds[round-1])
	copy(r.refByRoundStop[round], r.refByRoundStop[round-1])
}

func (r *reverseStore) TouchedThisRound() *bitset.Dense { return r.touchedThisRnd }
func (r *reverseStore) ResetTouched()                   { r.touchedThisRnd.ClearAll() }

// RunArriveBy executes the reverse search described by ArriveByParams.
func (w *PlainWorker) RunArriveBy(params ArriveByParams) ArriveByResult {
	numStops := w.provider.NumStops()
	arena := arrival.NewArena()
	store := newReverseStore(arena, numStops, params.MaxRounds)
	tracker := roundtracker.New(params.MaxRounds, params.MaxAdditionalTransfers, w.lc)

	w.lc.SetupIteration(params.ArriveByTime)

	var origin *OriginDeparture
	touched := bitset.New(numStops)

	for _, leg := range params.EgressLegs {
		candidateTime := params.ArriveByTime - leg.Duration
		rec := arrival.Record{
			Round:                    0,
			Stop:                     leg.Stop,
			ArrivalTime:              candidateTime,
			Previous:                 arrival.NoRef,
			ArrivedBy:                arrival.ByAccess,
			CumulativeTravelDuration: leg.Duration,
		}
		if _, ok := store.TryUpdate(0, leg.Stop, candidateTime, rec); ok {
			touched.Set(int(leg.Stop))
		}
	}

	w.relaxOrigin(store, touched, 0, params.AccessLegs, tracker, &origin)

	for tracker.HasMoreRounds() && !touched.IsEmpty() {
		tracker.NextRound()
		round := tracker.CurrentRound()
		store.CarryForward(round)

		prevTouched := touched.Clone()
		touched.ClearAll()
		store.ResetTouched()

		for _, patID := range w.provider.PatternsTouching(prevTouched) {
			w.reverseTransitStep(patID, round, prevTouched, store, params.BoardSlack)
		}
		w.lc.TransitsForRoundComplete(round)

		transitTouched := store.TouchedThisRound().Clone()
		it := transitTouched.Iter()
		for it.HasNext() {
			s := tdp.StopID(it.Next())
			w.reverseTransferStep(s, round, store)
		}
		w.lc.TransfersForRoundComplete(round)

		touched.Or(store.TouchedThisRound())
		w.relaxOrigin(store, touched, round, params.AccessLegs, tracker, &origin)
	}
	w.lc.IterationComplete(params.ArriveByTime)

	return ArriveByResult{Arena: arena, Origin: origin, Found: origin != nil}
}

// reverseTransitStep is transitStep's mirror image: it scans a
// pattern's stop positions from last to first, "departing backward"
// from any stop whose later-position safe bound is already fixed by an
// onboard trip, then looking for the latest trip that lets it push the
// fixed point one stop earlier still (spec §11).
func (w *PlainWorker) reverseTransitStep(patID tdp.PatternID, round int, prevTouched *bitset.Dense, store *reverseStore, alightSlack int) {
	pattern := w.provider.Pattern(patID)
	onTrip := boardsearch.None
	var alightStop tdp.StopID
	var alightTime int
	var alightRef arrival.Ref

	for p := pattern.NumStops() - 1; p >= 0; p-- {
		s := pattern.Stops[p]

		if onTrip != boardsearch.None {
			trip := w.provider.Trip(onTrip)
			departTime := trip.Departures[p]
			rec := arrival.Record{
				Round:       round,
				Stop:        s,
				ArrivalTime: departTime,
				Previous:    alightRef,
				ArrivedBy:   arrival.ByTransit,
				Trip:        onTrip,
				BoardStop:   alightStop,
				BoardTime:   alightTime,
			}
			store.TryUpdate(round, s, departTime, rec)
		}

		if prevTouched.IsSet(int(s)) {
			tLatest := store.BestAt(round-1, s) - alightSlack
			lower := boardsearch.None
			if onTrip != boardsearch.None {
				lower = onTrip
			}
			if j := w.search.SearchLatest(pattern, p, tLatest, lower); j != boardsearch.None {
				onTrip = j
				alightStop = s
				alightRef = store.RefAt(round-1, s)
				alightTime = w.provider.Trip(j).Arrivals[p]
			}
		}
	}
}

// reverseTransferStep relaxes transfers backward, assuming walking
// transfer durations are symmetric (tdp.Provider exposes only the
// forward TransfersFrom adjacency, not a reverse index): for a transfer
// leg (s, t, duration) departing s, the same duration also bounds the
// latest safe time to be at t in order to reach s on foot.
func (w *PlainWorker) reverseTransferStep(s tdp.StopID, round int, store *reverseStore) {
	toTime := store.BestAt(round, s)
	toRef := store.RefAt(round, s)
	for _, leg := range w.provider.TransfersFrom(s) {
		candidateTime := toTime - leg.Duration
		rec := arrival.Record{
			Round:       round,
			Stop:        leg.ToStop,
			ArrivalTime: candidateTime,
			Previous:    toRef,
			ArrivedBy:   arrival.ByTransfer,
			FromStop:    s,
		}
		store.TryUpdate(round, leg.ToStop, candidateTime, rec)
	}
}

// relaxOrigin is relaxEgress's mirror: it applies every access leg
// whose stop has a known safe bound, keeping the single latest
// (safest) feasible departure from the true origin.
func (w *PlainWorker) relaxOrigin(store *reverseStore, touched *bitset.Dense, round int, accessLegs []tdp.AccessEgressLeg, tracker *roundtracker.Tracker, origin **OriginDeparture) {
	for _, leg := range accessLegs {
		if !touched.IsSet(int(leg.Stop)) {
			continue
		}
		stopTime := store.BestAt(round, leg.Stop)
		if stopTime <= reverseUnreached {
			continue
		}
		candidateTime := stopTime - leg.Duration
		if *origin != nil && candidateTime <= (*origin).Time {
			continue
		}
		*origin = &OriginDeparture{
			Time:       candidateTime,
			Round:      round,
			Ref:        store.RefAt(round, leg.Stop),
			AccessStop: leg.Stop,
		}
		tracker.NotifyDestinationArrival()
	}
}
