// Package pareto implements an insertion-based multi-dimensional Pareto
// frontier (spec §4.2), used by the multi-criteria RAPTOR worker for both
// per-stop arrival frontiers and the destination-arrival sink.
package pareto

// Dims is the fixed vector of comparison dimensions a candidate carries.
// Lower is always better on every dimension; a dimension's RelaxFactor
// scales the dominating element's value before comparison, so a candidate
// within RelaxFactor× of an existing element's value on that dimension is
// not dominated by it and stays on the frontier (spec §4.7).
type Dims []float64

// Candidate is anything the frontier can compare and store. The pareto
// set itself is agnostic to what T is; it only reads Dims().
type Candidate[T any] interface {
	Dims() Dims
}

// Event is the event kind delivered to a Listener.
type Event int

const (
	// Accepted fires when a candidate entered the frontier.
	Accepted Event = iota
	// Rejected fires when a candidate was dominated and therefore not added.
	Rejected
	// Dropped fires for every existing element removed because the
	// accepted candidate strictly dominates it.
	Dropped
)

// Listener receives frontier mutation events. The destination-arrival tap
// (spec §4.7) is the canonical consumer: it reacts only to Accepted.
type Listener[T any] interface {
	OnEvent(ev Event, candidate T, cause T)
}

// ListenerFunc adapts a function to a Listener; cause is the zero value of
// T for Accepted events (there is no "cause" for an acceptance).
type ListenerFunc[T any] func(ev Event, candidate T, cause T)

func (f ListenerFunc[T]) OnEvent(ev Event, candidate T, cause T) { f(ev, candidate, cause) }

// Set is a Pareto frontier over elements of type T. Dimensions and their
// relax factors are fixed at construction (spec §4.2).
type Set[T Candidate[T]] struct {
	relax    []float64
	elements []T
	listener Listener[T]

	// mark_index is the frontier length at the last call to
	// MarkEndOfFrontier; IterSinceMark yields elements appended after it.
	// Compaction in TryAdd decrements it by the number of pre-mark
	// elements it drops, so it stays a valid boundary across drops.
	mark_index int
}

// New constructs an empty frontier with one relax factor per dimension.
// A relax factor of 1.0 means exact Pareto dominance on that dimension.
func New[T Candidate[T]](relax []float64) *Set[T] {
	return &Set[T]{relax: append([]float64(nil), relax...)}
}

// SetListener installs (or replaces) the event listener.
func (s *Set[T]) SetListener(l Listener[T]) { s.listener = l }

// Elements returns the current frontier, in insertion order. Callers must
// not mutate the returned slice.
func (s *Set[T]) Elements() []T { return s.elements }

// Len reports the number of elements currently on the frontier.
func (s *Set[T]) Len() int { return len(s.elements) }

// dominates reports whether a weakly-dominates b on every dimension (with
// relax applied to a) and strictly dominates on at least one.
func (s *Set[T]) dominates(a, b T) bool {
	ad, bd := a.Dims(), b.Dims()
	strictly := false
	for i := range ad {
		relax := 1.0
		if i < len(s.relax) && s.relax[i] > 0 {
			relax = s.relax[i]
		}
		av := ad[i] * relax
		if av > bd[i] {
			return false
		}
		if av < bd[i] {
			strictly = true
		}
	}
	return strictly
}

// equalDims reports whether a and b have identical coordinates on every
// dimension (ignoring relax) — used to implement idempotent insertion of
// an already-present candidate (spec §8 property 2).
func equalDims[T Candidate[T]](a, b T) bool {
	ad, bd := a.Dims(), b.Dims()
	for i := range ad {
		if ad[i] != bd[i] {
			return false
		}
	}
	return true
}

// Result is returned by TryAdd.
type Result[T any] struct {
	Accepted bool
	Rejected bool
	Dropped  []T
}

// TryAdd attempts to insert candidate into the frontier. It is accepted
// iff no existing element dominates it; on acceptance every element the
// candidate strictly dominates is dropped (spec §4.2).
func (s *Set[T]) TryAdd(candidate T) Result[T] {
	for _, existing := range s.elements {
		if equalDims(existing, candidate) {
			// idempotent: an equal-in-all-dims candidate changes nothing.
			return Result[T]{}
		}
		if s.dominates(existing, candidate) {
			if s.listener != nil {
				s.listener.OnEvent(Rejected, candidate, existing)
			}
			return Result[T]{Rejected: true}
		}
	}

	survivors := s.elements[:0:0]
	dropped := []T{}
	droppedBeforeMark := 0
	for i, existing := range s.elements {
		if s.dominates(candidate, existing) {
			dropped = append(dropped, existing)
			if i < s.mark_index {
				droppedBeforeMark++
			}
			continue
		}
		survivors = append(survivors, existing)
	}
	s.elements = append(survivors, candidate)
	s.mark_index -= droppedBeforeMark

	if s.listener != nil {
		for _, d := range dropped {
			s.listener.OnEvent(Dropped, d, candidate)
		}
		var zero T
		s.listener.OnEvent(Accepted, candidate, zero)
	}

	return Result[T]{Accepted: true, Dropped: dropped}
}

// MarkEndOfFrontier records the current frontier length as the "last
// round" boundary; a subsequent IterSinceMark yields only elements
// accepted after this call (spec §4.2).
func (s *Set[T]) MarkEndOfFrontier() {
	s.mark_index = len(s.elements)
}

// IterSinceMark returns the elements accepted since the last
// MarkEndOfFrontier call (or since construction, if never called).
func (s *Set[T]) IterSinceMark() []T {
	return s.elements[s.mark_index:]
}
