// Package boardsearch implements the trip-schedule board search: given a
// pattern, a stop position and an earliest boarding time, find the
// earliest trip still eligible to board (spec §4.5).
package boardsearch

import "github.com/transitnetworks/raptorcore/tdp"

// None is returned when no eligible trip exists.
const None tdp.TripID = -1

// Filter decides whether a trip should be considered by the search at
// all (frequency trips, out-of-service trips). Returning true means
// "skip this trip". Supplemented feature (SPEC_FULL §11): made an
// explicit function value so a frequency-expansion entry point can be
// layered in later without touching the search itself.
type Filter func(trip *tdp.TripSchedule) bool

// DefaultFilter skips frequency-based and out-of-service trips.
func DefaultFilter(provider tdp.Provider) Filter {
	return func(trip *tdp.TripSchedule) bool {
		if trip.Frequency != nil {
			return true
		}
		return !provider.TripIsInService(trip.ID)
	}
}

// Sorted caches, per pattern, whether its trip list is known to be free
// of timetable crossings (spec §3 invariant) and therefore safe to
// binary search; patterns that are not sorted fall back to a linear
// scan (spec §4.5).
type Sorted struct {
	provider tdp.Provider
	filter   Filter
	sortedBy map[tdp.PatternID]bool
}

// New constructs a board searcher over provider using filter to skip
// ineligible trips.
func New(provider tdp.Provider, filter Filter) *Sorted {
	return &Sorted{provider: provider, filter: filter, sortedBy: map[tdp.PatternID]bool{}}
}

// isSorted reports whether every eligible trip on the pattern weakly
// dominates the previous one at every stop position (spec §3), caching
// the result per pattern.
func (s *Sorted) isSorted(pattern *tdp.Pattern) bool {
	if sorted, ok := s.sortedBy[pattern.ID]; ok {
		return sorted
	}

	var prev *tdp.TripSchedule
	sorted := true
	for _, tripID := range pattern.Trips {
		trip := s.provider.Trip(tripID)
		if s.filter(trip) {
			continue
		}
		if prev != nil {
			for i := range trip.Departures {
				if trip.Departures[i] < prev.Departures[i] {
					sorted = false
					break
				}
			}
		}
		if !sorted {
			break
		}
		prev = trip
	}

	s.sortedBy[pattern.ID] = sorted
	return sorted
}

// Search returns the earliest trip j < upperBound on pattern whose
// departure at stop position pos is >= earliestBoardTime, or None. When
// upperBound is None, every eligible trip on the pattern is a candidate.
// When the pattern's timetable is known sorted, a binary search is used;
// otherwise a linear scan.
func (s *Sorted) Search(pattern *tdp.Pattern, pos int, earliestBoardTime int, upperBound tdp.TripID) tdp.TripID {
	candidates := pattern.Trips
	if upperBound != None {
		limit := -1
		for i, tid := range candidates {
			if tid == upperBound {
				limit = i
				break
			}
		}
		if limit >= 0 {
			candidates = candidates[:limit]
		}
	}

	if s.isSorted(pattern) {
		return s.binarySearch(candidates, pos, earliestBoardTime)
	}
	return s.linearSearch(candidates, pos, earliestBoardTime)
}

func (s *Sorted) linearSearch(candidates []tdp.TripID, pos int, earliestBoardTime int) tdp.TripID {
	best := None
	bestDep := int(^uint(0) >> 1)
	for _, tid := range candidates {
		trip := s.provider.Trip(tid)
		if s.filter(trip) {
			continue
		}
		dep := trip.Departures[pos]
		if dep >= earliestBoardTime && dep < bestDep {
			best = tid
			bestDep = dep
		}
	}
	return best
}

// binarySearch assumes candidates are ordered so that departures[pos]
// is non-decreasing across eligible trips; ineligible (filtered) trips
// are skipped by scanning outward from the binary-search landing point,
// which stays cheap because filtered trips are rare in a sorted pattern.
func (s *Sorted) binarySearch(candidates []tdp.TripID, pos int, earliestBoardTime int) tdp.TripID {
	lo, hi := 0, len(candidates)
	for lo < hi {
		mid := (lo + hi) / 2
		trip := s.provider.Trip(candidates[mid])
		if trip.Departures[pos] < earliestBoardTime {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	for i := lo; i < len(candidates); i++ {
		trip := s.provider.Trip(candidates[i])
		if s.filter(trip) {
			continue
		}
		if trip.Departures[pos] >= earliestBoardTime {
			return candidates[i]
		}
	}
	return None
}

// SearchLatest returns the latest trip after lowerBound (exclusive) on
// pattern whose arrival at stop position pos is <= latestAlightTime, or
// None. When lowerBound is None, every eligible trip is a candidate.
// This is the alight-side mirror of Search, used by the arrive-by
// reverse search (spec §11 "reverse (arrive-by) plain RAPTOR").
func (s *Sorted) SearchLatest(pattern *tdp.Pattern, pos int, latestAlightTime int, lowerBound tdp.TripID) tdp.TripID {
	candidates := pattern.Trips
	if lowerBound != None {
		start := -1
		for i, tid := range candidates {
			if tid == lowerBound {
				start = i
				break
			}
		}
		if start >= 0 {
			candidates = candidates[start+1:]
		}
	}

	if s.isSorted(pattern) {
		return s.binarySearchLatest(candidates, pos, latestAlightTime)
	}
	return s.linearSearchLatest(candidates, pos, latestAlightTime)
}

func (s *Sorted) linearSearchLatest(candidates []tdp.TripID, pos int, latestAlightTime int) tdp.TripID {
	best := None
	bestArr := -1
	for _, tid := range candidates {
		trip := s.provider.Trip(tid)
		if s.filter(trip) {
			continue
		}
		arr := trip.Arrivals[pos]
		if arr <= latestAlightTime && arr > bestArr {
			best = tid
			bestArr = arr
		}
	}
	return best
}

// binarySearchLatest mirrors binarySearch: it lands just past the last
// candidate whose arrival is <= latestAlightTime, then scans backward
// for the first eligible (non-filtered) one.
func (s *Sorted) binarySearchLatest(candidates []tdp.TripID, pos int, latestAlightTime int) tdp.TripID {
	lo, hi := 0, len(candidates)
	for lo < hi {
		mid := (lo + hi) / 2
		trip := s.provider.Trip(candidates[mid])
		if trip.Arrivals[pos] <= latestAlightTime {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	for i := lo - 1; i >= 0; i-- {
		trip := s.provider.Trip(candidates[i])
		if s.filter(trip) {
			continue
		}
		if trip.Arrivals[pos] <= latestAlightTime {
			return candidates[i]
		}
	}
	return None
}
