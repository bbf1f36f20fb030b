// Package reroute implements the route reroute scenario modification
// (spec §4.11): splicing a new stop/hop/dwell sequence into existing
// trip patterns and their schedules, while preserving the timing at a
// fixed-point stop shared by the old and new pattern.
package reroute

import (
	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/raptorerr"
	"github.com/transitnetworks/raptorcore/tdp"
)

// Modification is an immutable reroute specification (spec §9 Design
// Notes: "the modification instance itself stays immutable"). All
// mutable bookkeeping needed while applying it lives in the apply-scoped
// application struct below, never on Modification itself.
type Modification struct {
	TargetRoutes []tdp.RouteID
	TargetTrips  []tdp.TripID
	FromStop     *tdp.StopID
	ToStop       *tdp.StopID
	NewStops     []tdp.StopID
	DwellTimes   []int
	HopTimes     []int
}

// Validate runs the precondition check from spec §4.11 independent of
// any particular pattern.
func (m Modification) Validate() error {
	expectedDwells := len(m.NewStops)
	if m.FromStop != nil {
		expectedDwells++
	}
	if m.ToStop != nil {
		expectedDwells++
	}
	if len(m.DwellTimes) != expectedDwells {
		return raptorerr.Wrap(raptorerr.ModificationInconsistentTimings, "dwell_times length mismatch")
	}
	if len(m.HopTimes) != len(m.DwellTimes)-1 {
		return raptorerr.Wrap(raptorerr.ModificationInconsistentTimings, "hop_times length mismatch")
	}
	return nil
}

// application is the apply-scoped struct that carries the per-pattern
// working state (spec §9 Design Notes: "package mutable shared fields
// between private methods... into an apply-scoped struct").
type application struct {
	mod             Modification
	pattern         *tdp.Pattern
	insertBegin     int
	insertEnd       int
	fixedPointOld   int
	fixedPointNew   int
}

// Result is the rewritten pattern plus its rewritten trip schedules.
type Result struct {
	Pattern   *tdp.Pattern
	Schedules []*tdp.TripSchedule
}

// Apply rewrites pattern and the given original schedules for its trips,
// per spec §4.11. patternWide selects route-wide application (an
// unmatched from_stop/to_stop is a warning) versus pattern-specific
// application (a hard error).
func Apply(mod Modification, pattern *tdp.Pattern, schedules []*tdp.TripSchedule, patternWide bool) (*Result, []string, error) {
	if err := mod.Validate(); err != nil {
		return nil, nil, err
	}

	app := &application{mod: mod, pattern: pattern}
	var warnings []string

	begin := 0
	if mod.FromStop != nil {
		idx := indexOf(pattern.Stops, *mod.FromStop)
		if idx < 0 {
			if patternWide {
				warnings = append(warnings, "from_stop not found on pattern; treating as pattern start")
			} else {
				return nil, nil, raptorerr.Wrap(raptorerr.ModificationUnmatchedStop, "from_stop not found on pattern")
			}
		} else {
			begin = idx + 1
		}
	}

	end := len(pattern.Stops)
	if mod.ToStop != nil {
		idx := indexOf(pattern.Stops, *mod.ToStop)
		if idx < 0 {
			if patternWide {
				warnings = append(warnings, "to_stop not found on pattern; treating as pattern end")
			} else {
				return nil, nil, raptorerr.Wrap(raptorerr.ModificationUnmatchedStop, "to_stop not found on pattern")
			}
		} else {
			end = idx
		}
	}
	app.insertBegin = begin
	app.insertEnd = end

	newPattern := app.buildPattern()

	fixedOld, fixedNew, ok := fixedPointIndex(pattern.Stops, newPattern.Stops)
	if !ok {
		return nil, nil, raptorerr.Wrap(raptorerr.ModificationUnmatchedStop, "no fixed-point stop shared by old and new pattern")
	}
	app.fixedPointOld = fixedOld
	app.fixedPointNew = fixedNew

	newSchedules := make([]*tdp.TripSchedule, len(schedules))
	for i, sched := range schedules {
		newSchedules[i] = app.rewriteSchedule(sched)
	}

	return &Result{Pattern: newPattern, Schedules: newSchedules}, warnings, nil
}

// buildPattern constructs the new stop/pickup/dropoff/wheelchair arrays
// (spec §4.11 step 2).
func (a *application) buildPattern() *tdp.Pattern {
	p := a.pattern
	n := p.NumStops() + len(a.mod.NewStops) - (a.insertEnd - a.insertBegin)

	stops := make([]tdp.StopID, 0, n)
	pickups := make([]tdp.PickupDropoffPolicy, 0, n)
	dropoffs := make([]tdp.PickupDropoffPolicy, 0, n)
	wheelchair := bitset.New(n)

	idx := 0
	appendPreserved := func(i int) {
		stops = append(stops, p.Stops[i])
		pickups = append(pickups, p.Pickups[i])
		dropoffs = append(dropoffs, p.Dropoffs[i])
		if p.WheelchairAccessible.IsSet(i) {
			wheelchair.Set(idx)
		}
		idx++
	}
	appendNew := func(stop tdp.StopID) {
		stops = append(stops, stop)
		pickups = append(pickups, tdp.Scheduled)
		dropoffs = append(dropoffs, tdp.Scheduled)
		wheelchair.Set(idx)
		idx++
	}

	for i := 0; i < a.insertBegin; i++ {
		appendPreserved(i)
	}
	for _, stop := range a.mod.NewStops {
		appendNew(stop)
	}
	for i := a.insertEnd; i < p.NumStops(); i++ {
		appendPreserved(i)
	}

	return &tdp.Pattern{
		ID:                   p.ID,
		RouteID:              p.RouteID,
		Stops:                stops,
		Pickups:              pickups,
		Dropoffs:             dropoffs,
		WheelchairAccessible: wheelchair,
		Trips:                append([]tdp.TripID(nil), p.Trips...),
		VersionTag:           p.VersionTag,
	}
}

// rewriteSchedule implements spec §4.11 step 3: within the inserted
// segment, dwells and hops are consumed in lockstep (one more dwell
// than hops, including a boundary dwell for from_stop and/or to_stop
// when present); outside the segment, each source hop's duration and
// each source stop's dwell are preserved; finally the whole trip is
// shifted so the fixed-point stop's arrival matches the original.
func (a *application) rewriteSchedule(sched *tdp.TripSchedule) *tdp.TripSchedule {
	newLen := a.pattern.NumStops() + len(a.mod.NewStops) - (a.insertEnd - a.insertBegin)
	arrivals := make([]int, newLen)
	departures := make([]int, newLen)
	dwells := a.mod.DwellTimes
	hops := a.mod.HopTimes

	out := 0
	for i := 0; i < a.insertBegin; i++ {
		arrivals[out] = sched.Arrivals[i]
		departures[out] = sched.Departures[i]
		out++
	}

	var t int
	di := 0
	if a.mod.FromStop != nil {
		bIdx := out - 1
		departures[bIdx] = arrivals[bIdx] + dwells[0]
		t = departures[bIdx]
		di = 1
	} else if out > 0 {
		t = departures[out-1]
	} else {
		t = sched.Departures[0]
	}

	for k := 0; k < len(a.mod.NewStops); k++ {
		t += hops[k]
		arrivals[out] = t
		t += dwells[di]
		departures[out] = t
		di++
		out++
	}

	if a.mod.ToStop != nil {
		t += hops[len(hops)-1]
		cIdx := out
		arrivals[cIdx] = t
		departures[cIdx] = t + dwells[len(dwells)-1]
	}

	for i := a.insertEnd; i < a.pattern.NumStops(); i++ {
		if i == a.insertEnd {
			// Already written above (ToStop override) or falls through
			// to the relative-hop branch when ToStop is nil.
			if a.mod.ToStop == nil {
				hop := 0
				if i > 0 {
					hop = sched.Arrivals[i] - sched.Departures[i-1]
				}
				arrivals[out] = t + hop
				departures[out] = arrivals[out] + (sched.Departures[i] - sched.Arrivals[i])
			}
			out++
			continue
		}
		hop := sched.Arrivals[i] - sched.Departures[i-1]
		arrivals[out] = departures[out-1] + hop
		departures[out] = arrivals[out] + (sched.Departures[i] - sched.Arrivals[i])
		out++
	}

	delta := sched.Arrivals[a.fixedPointOld] - arrivals[a.fixedPointNew]
	if delta != 0 {
		for i := range arrivals {
			arrivals[i] += delta
			departures[i] += delta
		}
	}

	return &tdp.TripSchedule{
		ID:         sched.ID,
		PatternID:  sched.PatternID,
		ServiceID:  sched.ServiceID,
		Arrivals:   arrivals,
		Departures: departures,
		Frequency:  sched.Frequency,
	}
}

func indexOf(stops []tdp.StopID, stop tdp.StopID) int {
	for i, s := range stops {
		if s == stop {
			return i
		}
	}
	return -1
}

// fixedPointIndex finds the first stop present in both the old and new
// stop sequences, returning its index in each.
func fixedPointIndex(oldStops, newStops []tdp.StopID) (int, int, bool) {
	newIndex := make(map[tdp.StopID]int, len(newStops))
	for i, s := range newStops {
		if _, exists := newIndex[s]; !exists {
			newIndex[s] = i
		}
	}
	for i, s := range oldStops {
		if j, ok := newIndex[s]; ok {
			return i, j, true
		}
	}
	return 0, 0, false
}
