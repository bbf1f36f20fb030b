// Package arrival defines the arrival-record arena the RAPTOR core
// builds during a search (spec §3 "Arrival record"). Records form a DAG
// rooted at an access arrival; the "previous" edge is a back reference
// into the arena, never an owning pointer, so the frontier can be
// cloned cheaply and no reference cycle can form (spec §9 Design
// Notes, "Cyclic previous-arrival references").
package arrival

import "github.com/transitnetworks/raptorcore/tdp"

// By tags how a Record was reached — a closed tagged variant rather
// than a class hierarchy with `arrived_by_*()` probes (spec §9 Design
// Notes), so the pareto-comparison path never has to call a method to
// find out what kind of arrival it is looking at.
type By int

const (
	ByAccess By = iota
	ByTransit
	ByTransfer
)

// Ref indexes into an Arena. NoRef (-1) marks "no previous"; the first
// record added to an Arena gets Ref 0.
type Ref int

const NoRef Ref = -1

// Record is one arrival at one stop in one round (spec §3). Exactly one
// of the transit/transfer fields is meaningful, selected by ArrivedBy;
// they are precomputed at construction time rather than probed later.
type Record struct {
	Round        int
	Stop         tdp.StopID
	ArrivalTime  int
	Previous     Ref
	ArrivedBy    By
	Trip         tdp.TripID // valid iff ArrivedBy == ByTransit
	BoardStop    tdp.StopID // valid iff ArrivedBy == ByTransit
	BoardTime    int        // valid iff ArrivedBy == ByTransit
	FromStop     tdp.StopID // valid iff ArrivedBy == ByTransfer
	CumulativeCost             float64
	CumulativeTravelDuration   int
}

// Arena is an append-only store of Records, indexed by Ref. Arrivals
// are created during a minute-iteration, mutated only during that
// iteration, and never mutated after the iteration's commit step (spec
// §3 Lifecycle); the arena itself never shrinks, so a Ref taken earlier
// stays valid for the life of the Worker.
type Arena struct {
	records []Record
}

// NewArena constructs an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add appends rec and returns its Ref.
func (a *Arena) Add(rec Record) Ref {
	a.records = append(a.records, rec)
	return Ref(len(a.records) - 1)
}

// Get dereferences ref. Callers must not hold onto the returned pointer
// past the next Add call, since Add may reallocate the backing slice.
func (a *Arena) Get(ref Ref) *Record {
	if ref == NoRef {
		return nil
	}
	return &a.records[ref]
}

// Len reports the number of records in the arena.
func (a *Arena) Len() int { return len(a.records) }
