// Package roundtracker holds the round index and the r_max convergence
// bound a Worker iterates against (spec §4.4).
package roundtracker

import "github.com/transitnetworks/raptorcore/lifecycle"

// Tracker tracks the current round and the upper bound on rounds,
// tightened once a destination arrival is first reached (spec §4.4 "a
// few more transfers after first-reach" policy).
type Tracker struct {
	round                      int
	rMax                       int
	additionalTransfersAllowed int
	firstReachRound            int // -1 until a destination arrival is accepted
	lifecycle                  *lifecycle.Context
}

// New constructs a Tracker with the given maximum round count and
// additional-transfers budget.
func New(maxRounds int, additionalTransfersAllowed int, lc *lifecycle.Context) *Tracker {
	return &Tracker{
		round:                      0,
		rMax:                       maxRounds,
		additionalTransfersAllowed: additionalTransfersAllowed,
		firstReachRound:            -1,
		lifecycle:                  lc,
	}
}

// CurrentRound returns r, the round most recently started.
func (t *Tracker) CurrentRound() int { return t.round }

// HasMoreRounds reports whether the worker may start another round.
func (t *Tracker) HasMoreRounds() bool {
	return t.round < t.rMax
}

// NextRound advances to the next round and fires the round_start
// callback.
func (t *Tracker) NextRound() int {
	t.round++
	t.lifecycle.RoundStart(t.round)
	return t.round
}

// Reset returns the tracker to round 0 with the original r_max, for
// reuse across range-raptor minute iterations. firstReachRound is
// preserved because range-raptor reuses arrivals, not rounds: a
// destination reached on an earlier (better) iteration still binds the
// overall r_max for every later, worse iteration (spec §4.6 "arrival
// data is not cleared").
func (t *Tracker) Reset(maxRounds int) {
	t.round = 0
	if t.firstReachRound < 0 {
		t.rMax = maxRounds
	}
}

// NotifyDestinationArrival records the current round as firstReachRound
// on the first call since construction (Reset keeps it) and tightens
// r_max to firstReachRound plus the additional-transfers allowance
// (spec §4.4).
func (t *Tracker) NotifyDestinationArrival() {
	if t.firstReachRound < 0 {
		t.firstReachRound = t.round
	}
	bound := t.firstReachRound + t.additionalTransfersAllowed
	if bound < t.rMax {
		t.rMax = bound
	}
}

// FirstReachRound returns the round in which a destination arrival was
// first accepted, or -1 if none yet.
func (t *Tracker) FirstReachRound() int { return t.firstReachRound }
