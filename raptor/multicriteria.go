package raptor

import (
	"github.com/transitnetworks/raptorcore/arrival"
	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/boardsearch"
	"github.com/transitnetworks/raptorcore/lifecycle"
	"github.com/transitnetworks/raptorcore/pareto"
	"github.com/transitnetworks/raptorcore/roundtracker"
	"github.com/transitnetworks/raptorcore/stoparrival"
	"github.com/transitnetworks/raptorcore/tdp"
)

// DefaultRelax is the identity relax vector over
// {arrival_time, round, travel_duration, cost}: exact Pareto dominance,
// no widening.
var DefaultRelax = []float64{1, 1, 1, 1}

// MultiCriteriaParams configures one multi-criteria worker search (spec
// §6.1 subset, §4.7).
type MultiCriteriaParams struct {
	FromTime               int
	ToTime                 int
	Step                   int
	BoardSlack             int
	MaxRounds              int
	MaxAdditionalTransfers int
	AccessLegs             []tdp.AccessEgressLeg
	EgressLegs             []tdp.AccessEgressLeg
	CostModel              CostModel
	// Relax is the per-dimension relax-factor vector over
	// {arrival_time, round, travel_duration, cost}. Nil selects
	// DefaultRelax (exact dominance).
	Relax []float64
}

// DestinationCandidate is one Pareto-optimal way of finishing the trip
// at some egress stop (spec §4.7 "destination pareto set").
type DestinationCandidate struct {
	Ref        arrival.Ref
	EgressStop tdp.StopID
	dims       pareto.Dims
}

func (d DestinationCandidate) Dims() pareto.Dims { return d.dims }

// MultiCriteriaResult is the outcome of a multi-criteria search: the
// full per-stop frontier store plus the destination frontier.
type MultiCriteriaResult struct {
	Store        *stoparrival.MultiCriteria
	Arena        *arrival.Arena
	Destinations *pareto.Set[DestinationCandidate]
	Found        bool
}

// MultiCriteriaWorker runs multi-criteria (Pareto) range-RAPTOR (spec
// §4.7), sharing PlainWorker's round/minute-sweep control skeleton but
// comparing candidates on {arrival_time, round, travel_duration, cost}
// instead of collapsing to a single best time per stop.
type MultiCriteriaWorker struct {
	provider tdp.Provider
	search   *boardsearch.Sorted
	lc       *lifecycle.Context
}

// NewMultiCriteriaWorker constructs a MultiCriteriaWorker over provider.
func NewMultiCriteriaWorker(provider tdp.Provider, search *boardsearch.Sorted, lc *lifecycle.Context) *MultiCriteriaWorker {
	return &MultiCriteriaWorker{provider: provider, search: search, lc: lc}
}

// onboard is one trip currently being ridden through a pattern scan, one
// per distinct trip a surviving candidate has boarded (spec §4.7: unlike
// plain RAPTOR's single "current trip", several Pareto-incomparable
// candidates may ride different trips of the same pattern at once).
type onboard struct {
	trip            tdp.TripID
	boardStop       tdp.StopID
	boardTime       int
	boardRef        arrival.Ref
	baseArrivalTime int
	baseDuration    int
	baseCost        float64
}

// Run executes the range-raptor minute sweep in multi-criteria mode,
// returning every stop's Pareto frontier plus the destination frontier
// (spec §4.7, §4.8).
func (w *MultiCriteriaWorker) Run(params MultiCriteriaParams) MultiCriteriaResult {
	numStops := w.provider.NumStops()
	relax := params.Relax
	if relax == nil {
		relax = DefaultRelax
	}
	costModel := params.CostModel
	if costModel == nil {
		costModel = NewDefaultCostModel(1, 1)
	}

	arena := arrival.NewArena()
	store := stoparrival.NewMultiCriteria(arena, numStops, relax)
	tracker := roundtracker.New(params.MaxRounds, params.MaxAdditionalTransfers, w.lc)
	dest := pareto.New[DestinationCandidate](relax)

	// The destination listener fires synchronously on every Accepted
	// event at an egress stop's frontier, for every round and every
	// minute iteration (spec §4.7 "whenever a new arrival is accepted ...
	// the listener constructs a destination arrival").
	w.attachEgressListeners(store, params.EgressLegs, dest, tracker, costModel)

	for _, depTime := range MinuteSweep(params.FromTime, params.ToTime, params.Step) {
		w.lc.SetupIteration(depTime)
		tracker.Reset(params.MaxRounds)
		store.ResetTouched()

		for _, leg := range params.AccessLegs {
			arrivalTime := depTime + leg.Duration
			cost := costModel.WalkCost(leg.Duration)
			rec := arrival.Record{
				Round:                    0,
				Stop:                     leg.Stop,
				ArrivalTime:              arrivalTime,
				Previous:                 arrival.NoRef,
				ArrivedBy:                arrival.ByAccess,
				CumulativeTravelDuration: leg.Duration,
				CumulativeCost:           cost,
			}
			ref := arena.Add(rec)
			dims := pareto.Dims{float64(arrivalTime), 0, float64(leg.Duration), cost}
			store.TryAdd(leg.Stop, stoparrival.NewCandidate(ref, dims))
		}

		touched := store.TouchedThisRound().Clone()
		newByStop := w.harvestAndMark(touched, store)
		store.ResetTouched()

		for tracker.HasMoreRounds() && !touched.IsEmpty() {
			tracker.NextRound()
			round := tracker.CurrentRound()

			for _, patID := range w.provider.PatternsTouching(touched) {
				w.transitStep(patID, round, newByStop, store, params.BoardSlack, costModel)
			}
			w.lc.TransitsForRoundComplete(round)

			transitTouched := store.TouchedThisRound().Clone()
			it := transitTouched.Iter()
			for it.HasNext() {
				s := tdp.StopID(it.Next())
				w.transferStep(s, round, store, costModel)
			}
			w.lc.TransfersForRoundComplete(round)

			roundTouched := store.TouchedThisRound().Clone()
			newByStop = w.harvestAndMark(roundTouched, store)
			store.ResetTouched()

			touched = roundTouched
		}
		w.lc.IterationComplete(depTime)
	}

	return MultiCriteriaResult{Store: store, Arena: arena, Destinations: dest, Found: dest.Len() > 0}
}

// harvestAndMark returns, for every stop set in touched, the candidates
// accepted since that stop's frontier was last marked, then advances
// the mark so the next call (next round, or the next minute iteration)
// only sees genuinely new material (spec §4.7 "arrivals_cache committed
// at end of round, not mid-round").
func (w *MultiCriteriaWorker) harvestAndMark(touched *bitset.Dense, store *stoparrival.MultiCriteria) map[tdp.StopID][]stoparrival.Candidate {
	out := map[tdp.StopID][]stoparrival.Candidate{}
	it := touched.Iter()
	for it.HasNext() {
		s := tdp.StopID(it.Next())
		set := store.SetAt(s)
		fresh := set.IterSinceMark()
		out[s] = append([]stoparrival.Candidate(nil), fresh...)
		set.MarkEndOfFrontier()
	}
	return out
}

// attachEgressListeners installs one frontier listener per egress stop
// so every accepted arrival there is relaxed into the destination
// frontier as soon as it lands, rather than on a separate sweep.
func (w *MultiCriteriaWorker) attachEgressListeners(store *stoparrival.MultiCriteria, egressLegs []tdp.AccessEgressLeg, dest *pareto.Set[DestinationCandidate], tracker *roundtracker.Tracker, costModel CostModel) {
	legsByStop := map[tdp.StopID][]tdp.AccessEgressLeg{}
	for _, leg := range egressLegs {
		legsByStop[leg.Stop] = append(legsByStop[leg.Stop], leg)
	}
	for stop, legs := range legsByStop {
		legs := legs
		store.SetAt(stop).SetListener(pareto.ListenerFunc[stoparrival.Candidate](func(ev pareto.Event, candidate stoparrival.Candidate, cause stoparrival.Candidate) {
			if ev != pareto.Accepted {
				return
			}
			dims := candidate.Dims()
			for _, leg := range legs {
				dc := DestinationCandidate{
					Ref:        candidate.Ref,
					EgressStop: leg.Stop,
					dims: pareto.Dims{
						dims[0] + float64(leg.Duration),
						dims[1],
						dims[2] + float64(leg.Duration),
						dims[3] + costModel.WalkCost(leg.Duration),
					},
				}
				if dest.TryAdd(dc).Accepted {
					tracker.NotifyDestinationArrival()
				}
			}
		}))
	}
}

// transitStep scans pattern once per round, alighting every onboard
// trip before considering new boardings at the same position (spec
// §4.6's ordering rule, generalized to several concurrently-ridden
// trips per pattern).
func (w *MultiCriteriaWorker) transitStep(patID tdp.PatternID, round int, newByStop map[tdp.StopID][]stoparrival.Candidate, store *stoparrival.MultiCriteria, boardSlack int, costModel CostModel) {
	pattern := w.provider.Pattern(patID)
	arena := store.Arena()
	var riding []onboard

	for p := 0; p < pattern.NumStops(); p++ {
		s := pattern.Stops[p]

		for _, ob := range riding {
			trip := w.provider.Trip(ob.trip)
			alightTime := trip.Arrivals[p]
			cost := ob.baseCost + costModel.TransitArrivalCost(ob.baseArrivalTime, ob.boardTime, alightTime, round)
			duration := ob.baseDuration + (alightTime - ob.baseArrivalTime)
			rec := arrival.Record{
				Round:                    round,
				Stop:                     s,
				ArrivalTime:              alightTime,
				Previous:                 ob.boardRef,
				ArrivedBy:                arrival.ByTransit,
				Trip:                     ob.trip,
				BoardStop:                ob.boardStop,
				BoardTime:                ob.boardTime,
				CumulativeTravelDuration: duration,
				CumulativeCost:           cost,
			}
			ref := arena.Add(rec)
			dims := pareto.Dims{float64(alightTime), float64(round), float64(duration), cost}
			store.TryAdd(s, stoparrival.NewCandidate(ref, dims))
		}

		for _, cand := range newByStop[s] {
			rec := arena.Get(cand.Ref)
			earliestBoard := rec.ArrivalTime + boardSlack
			tripID := w.search.Search(pattern, p, earliestBoard, boardsearch.None)
			if tripID == boardsearch.None {
				continue
			}
			if alreadyRiding(riding, tripID) {
				continue
			}
			riding = append(riding, onboard{
				trip:            tripID,
				boardStop:       s,
				boardTime:       w.provider.Trip(tripID).Departures[p],
				boardRef:        cand.Ref,
				baseArrivalTime: rec.ArrivalTime,
				baseDuration:    rec.CumulativeTravelDuration,
				baseCost:        rec.CumulativeCost,
			})
		}
	}
}

func alreadyRiding(riding []onboard, trip tdp.TripID) bool {
	for _, ob := range riding {
		if ob.trip == trip {
			return true
		}
	}
	return false
}

// transferStep relaxes every transfer leg departing s for each
// candidate accepted at s this round by transit.
func (w *MultiCriteriaWorker) transferStep(s tdp.StopID, round int, store *stoparrival.MultiCriteria, costModel CostModel) {
	arena := store.Arena()
	fresh := store.SetAt(s).IterSinceMark()
	legs := w.provider.TransfersFrom(s)
	if len(legs) == 0 {
		return
	}
	for _, cand := range fresh {
		rec := arena.Get(cand.Ref)
		for _, leg := range legs {
			candidateTime := rec.ArrivalTime + leg.Duration
			duration := rec.CumulativeTravelDuration + leg.Duration
			cost := rec.CumulativeCost + costModel.WalkCost(leg.Duration)
			out := arrival.Record{
				Round:                    round,
				Stop:                     leg.ToStop,
				ArrivalTime:              candidateTime,
				Previous:                 cand.Ref,
				ArrivedBy:                arrival.ByTransfer,
				FromStop:                 s,
				CumulativeTravelDuration: duration,
				CumulativeCost:           cost,
			}
			ref := arena.Add(out)
			dims := pareto.Dims{float64(candidateTime), float64(round), float64(duration), cost}
			store.TryAdd(leg.ToStop, stoparrival.NewCandidate(ref, dims))
		}
	}
}
