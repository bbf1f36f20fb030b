package pareto

import "testing"

type point struct {
	x, y float64
}

func (p point) Dims() Dims { return Dims{p.x, p.y} }

func TestTryAddDominanceAndDrop(t *testing.T) {
	s := New[point]([]float64{1, 1})

	r := s.TryAdd(point{5, 5})
	if !r.Accepted {
		t.Fatalf("first candidate must be accepted")
	}

	// dominated on both dims -> rejected
	r = s.TryAdd(point{6, 6})
	if !r.Accepted && !r.Rejected {
		t.Fatalf("expected rejection classification")
	}
	if r.Accepted {
		t.Fatalf("dominated candidate must not be accepted")
	}

	// strictly better on both dims -> accepted, drops the first
	r = s.TryAdd(point{1, 1})
	if !r.Accepted {
		t.Fatalf("strictly improving candidate must be accepted")
	}
	if len(r.Dropped) != 1 || r.Dropped[0] != (point{5, 5}) {
		t.Fatalf("expected the dominated point to be dropped, got %v", r.Dropped)
	}
	if s.Len() != 1 {
		t.Fatalf("expected frontier of size 1, got %d", s.Len())
	}
}

func TestTryAddIdempotent(t *testing.T) {
	s := New[point]([]float64{1, 1})
	s.TryAdd(point{3, 4})
	before := s.Len()
	r := s.TryAdd(point{3, 4})
	if r.Accepted || r.Rejected {
		t.Fatalf("exact duplicate must be a no-op, got %+v", r)
	}
	if s.Len() != before {
		t.Fatalf("frontier size must not change on duplicate insert")
	}
}

func TestMarkEndOfFrontierAndIterSinceMark(t *testing.T) {
	s := New[point]([]float64{1, 1})
	s.TryAdd(point{10, 10})
	s.MarkEndOfFrontier()
	s.TryAdd(point{1, 1})

	since := s.IterSinceMark()
	if len(since) != 1 || since[0] != (point{1, 1}) {
		t.Fatalf("expected only the post-mark element, got %v", since)
	}
}

func TestMarkSurvivesDropOfPreMarkElement(t *testing.T) {
	s := New[point]([]float64{1, 1})
	// A and B are mutually non-dominated, both pre-mark.
	a := point{10, 10}
	b := point{1, 20}
	s.TryAdd(a)
	s.TryAdd(b)
	s.MarkEndOfFrontier()

	// C dominates only the pre-mark A, not B; mark_index must shrink by
	// exactly one so the still-present pre-mark survivor B doesn't leak
	// into IterSinceMark, while the newly accepted C does appear.
	c := point{5, 5}
	r := s.TryAdd(c)
	if !r.Accepted || len(r.Dropped) != 1 || r.Dropped[0] != a {
		t.Fatalf("expected only %v dropped, got %+v", a, r)
	}
	since := s.IterSinceMark()
	if len(since) != 1 || since[0] != c {
		t.Fatalf("expected only the post-mark element %v, got %v", c, since)
	}

	// D dominates the remaining pre-mark element B but not C; this drives
	// mark_index to zero and must not panic with slice-bounds-out-of-range,
	// and every remaining element is now correctly "since mark".
	d := point{0.9, 6}
	r = s.TryAdd(d)
	if !r.Accepted || len(r.Dropped) != 1 || r.Dropped[0] != b {
		t.Fatalf("expected only %v dropped, got %+v", b, r)
	}
	since = s.IterSinceMark()
	if len(since) != 2 || since[0] != c || since[1] != d {
		t.Fatalf("expected [%v %v], got %v", c, d, since)
	}
}

func TestListenerEvents(t *testing.T) {
	var events []Event
	s := New[point]([]float64{1, 1})
	s.SetListener(ListenerFunc[point](func(ev Event, candidate, cause point) {
		events = append(events, ev)
	}))

	s.TryAdd(point{5, 5})
	s.TryAdd(point{6, 6})
	s.TryAdd(point{1, 1})

	want := []Event{Accepted, Rejected, Dropped, Accepted}
	if len(events) != len(want) {
		t.Fatalf("got %v want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("got %v want %v", events, want)
		}
	}
}

func TestRelaxFactorWidensAcceptance(t *testing.T) {
	// with relax 1.2 on dim 0, an existing cost of 10 does not dominate a
	// candidate cost of 11 (10*1.2 = 12 > 11), so the candidate is kept
	// even though it is worse on dim 0 and equal elsewhere.
	s := New[point]([]float64{1.2, 1})
	s.TryAdd(point{10, 0})
	r := s.TryAdd(point{11, 0})
	if !r.Accepted {
		t.Fatalf("candidate within relax factor must be accepted")
	}
}
