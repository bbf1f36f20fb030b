// Package raptor implements the range-RAPTOR search (spec §4.6–§4.7):
// a plain single-criterion worker and a multi-criteria (pareto) worker
// sharing the same round/minute-sweep control skeleton, grounded on the
// teacher's SimpleRaptorDepartAt/SimpleRaptorArriveBy in mod.go.
package raptor

import (
	"github.com/transitnetworks/raptorcore/arrival"
	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/boardsearch"
	"github.com/transitnetworks/raptorcore/lifecycle"
	"github.com/transitnetworks/raptorcore/roundtracker"
	"github.com/transitnetworks/raptorcore/stoparrival"
	"github.com/transitnetworks/raptorcore/tdp"
)

// PlainParams configures one plain-worker search (spec §6.1 subset).
type PlainParams struct {
	FromTime               int
	ToTime                 int
	Step                   int
	BoardSlack             int
	MaxRounds              int
	MaxAdditionalTransfers int
	AccessLegs             []tdp.AccessEgressLeg
	EgressLegs             []tdp.AccessEgressLeg
}

// DestinationArrival is the best arrival found at any egress leg's stop
// (spec §4.6/§4.7: egress relaxation of transit/transfer arrivals).
type DestinationArrival struct {
	Time       int
	Round      int
	Ref        arrival.Ref
	EgressStop tdp.StopID
}

// PlainResult is the outcome of a plain-worker search: the full
// per-round arrival store (for Path Mapper reconstruction) plus the
// single best destination arrival found, if any.
type PlainResult struct {
	Store       *stoparrival.Flyweight
	Arena       *arrival.Arena
	Destination *DestinationArrival
	Found       bool
}

// PlainWorker runs single-criterion range-RAPTOR (spec §4.6). One
// instance is single-threaded and not reused across concurrent
// searches (spec §5).
type PlainWorker struct {
	provider tdp.Provider
	search   *boardsearch.Sorted
	lc       *lifecycle.Context
}

// NewPlainWorker constructs a PlainWorker over provider, using search
// for board lookups and lc for life-cycle callbacks and logging.
func NewPlainWorker(provider tdp.Provider, search *boardsearch.Sorted, lc *lifecycle.Context) *PlainWorker {
	return &PlainWorker{provider: provider, search: search, lc: lc}
}

// Run executes the range-raptor minute sweep and returns the best
// arrival found at any egress stop, plus the full store needed to
// reconstruct its path (spec §4.6, §4.8).
func (w *PlainWorker) Run(params PlainParams) PlainResult {
	numStops := w.provider.NumStops()
	arena := arrival.NewArena()
	store := stoparrival.NewFlyweight(arena, numStops, params.MaxRounds)
	tracker := roundtracker.New(params.MaxRounds, params.MaxAdditionalTransfers, w.lc)

	var dest *DestinationArrival
	touched := bitset.New(numStops)

	for _, depTime := range MinuteSweep(params.FromTime, params.ToTime, params.Step) {
		w.lc.SetupIteration(depTime)
		tracker.Reset(params.MaxRounds)
		touched.ClearAll()
		store.ResetTouched()

		for _, leg := range params.AccessLegs {
			arrivalTime := depTime + leg.Duration
			rec := arrival.Record{
				Round:                    0,
				Stop:                     leg.Stop,
				ArrivalTime:              arrivalTime,
				Previous:                 arrival.NoRef,
				ArrivedBy:                arrival.ByAccess,
				CumulativeTravelDuration: leg.Duration,
			}
			if _, ok := store.TryUpdate(0, leg.Stop, arrivalTime, false, rec); ok {
				touched.Set(int(leg.Stop))
			}
		}

		w.relaxEgress(store, touched, 0, params.EgressLegs, tracker, &dest)

		for tracker.HasMoreRounds() && !touched.IsEmpty() {
			tracker.NextRound()
			round := tracker.CurrentRound()
			store.CarryForward(round)

			prevTouched := touched.Clone()
			touched.ClearAll()
			store.ResetTouched()

			for _, patID := range w.provider.PatternsTouching(prevTouched) {
				w.transitStep(patID, round, prevTouched, store, params.BoardSlack)
			}
			w.lc.TransitsForRoundComplete(round)

			transitTouched := store.TouchedThisRound().Clone()
			it := transitTouched.Iter()
			for it.HasNext() {
				s := tdp.StopID(it.Next())
				w.transferStep(s, round, store)
			}
			w.lc.TransfersForRoundComplete(round)

			touched.Or(store.TouchedThisRound())
			w.relaxEgress(store, touched, round, params.EgressLegs, tracker, &dest)
		}
		w.lc.IterationComplete(depTime)
	}

	return PlainResult{Store: store, Arena: arena, Destination: dest, Found: dest != nil}
}

// transitStep implements spec §4.6's per-pattern transit scan: alight
// before boarding at the same position, board only at stops touched in
// the previous round.
func (w *PlainWorker) transitStep(patID tdp.PatternID, round int, prevTouched *bitset.Dense, store *stoparrival.Flyweight, boardSlack int) {
	pattern := w.provider.Pattern(patID)
	onTrip := boardsearch.None
	var boardStop tdp.StopID
	var boardTime int
	var boardRef arrival.Ref

	for p := 0; p < pattern.NumStops(); p++ {
		s := pattern.Stops[p]

		if onTrip != boardsearch.None {
			trip := w.provider.Trip(onTrip)
			alightTime := trip.Arrivals[p]
			rec := arrival.Record{
				Round:       round,
				Stop:        s,
				ArrivalTime: alightTime,
				Previous:    boardRef,
				ArrivedBy:   arrival.ByTransit,
				Trip:        onTrip,
				BoardStop:   boardStop,
				BoardTime:   boardTime,
			}
			store.TryUpdate(round, s, alightTime, true, rec)
		}

		if prevTouched.IsSet(int(s)) {
			tEarliest := store.BestAt(round-1, s) + boardSlack
			upper := boardsearch.None
			if onTrip != boardsearch.None {
				upper = onTrip
			}
			if j := w.search.Search(pattern, p, tEarliest, upper); j != boardsearch.None {
				onTrip = j
				boardStop = s
				boardRef = store.RefAt(round-1, s)
				boardTime = w.provider.Trip(j).Departures[p]
			}
		}
	}
}

// transferStep relaxes every transfer leg departing a stop touched by
// the transit step (spec §4.6: loop transfers are unnecessary since the
// source stop was already reached).
func (w *PlainWorker) transferStep(s tdp.StopID, round int, store *stoparrival.Flyweight) {
	fromTime := store.BestAt(round, s)
	fromRef := store.RefAt(round, s)
	for _, leg := range w.provider.TransfersFrom(s) {
		candidateTime := fromTime + leg.Duration
		rec := arrival.Record{
			Round:       round,
			Stop:        leg.ToStop,
			ArrivalTime: candidateTime,
			Previous:    fromRef,
			ArrivedBy:   arrival.ByTransfer,
			FromStop:    s,
		}
		store.TryUpdate(round, leg.ToStop, candidateTime, false, rec)
	}
}

// relaxEgress applies every egress leg whose stop was touched this
// round, updating the single best destination arrival and notifying
// the round tracker on improvement (spec §4.4 "a few more transfers
// after first reach").
func (w *PlainWorker) relaxEgress(store *stoparrival.Flyweight, touched *bitset.Dense, round int, egressLegs []tdp.AccessEgressLeg, tracker *roundtracker.Tracker, dest **DestinationArrival) {
	for _, leg := range egressLegs {
		if !touched.IsSet(int(leg.Stop)) {
			continue
		}
		stopTime := store.BestAt(round, leg.Stop)
		if stopTime >= stoparrival.Unreached {
			continue
		}
		candidateTime := stopTime + leg.Duration
		if *dest != nil && candidateTime >= (*dest).Time {
			continue
		}
		*dest = &DestinationArrival{
			Time:       candidateTime,
			Round:      round,
			Ref:        store.RefAt(round, leg.Stop),
			EgressStop: leg.Stop,
		}
		tracker.NotifyDestinationArrival()
	}
}
