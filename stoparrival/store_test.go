package stoparrival

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnetworks/raptorcore/arrival"
	"github.com/transitnetworks/raptorcore/pareto"
	"github.com/transitnetworks/raptorcore/tdp"
)

func TestMultiCriteriaTryAddMarksTouchedOnlyOnAcceptance(t *testing.T) {
	arena := arrival.NewArena()
	store := NewMultiCriteria(arena, 2, []float64{1, 1})

	const stop tdp.StopID = 0
	ref := arena.Add(arrival.Record{Stop: stop, ArrivalTime: 100})
	result := store.TryAdd(stop, NewCandidate(ref, pareto.Dims{100, 1}))
	require.True(t, result.Accepted)
	assert.True(t, store.TouchedThisRound().IsSet(int(stop)))

	store.ResetTouched()
	assert.False(t, store.TouchedThisRound().IsSet(int(stop)))

	// A strictly worse candidate (higher on every dim) is rejected and
	// must not re-mark the stop touched.
	worseRef := arena.Add(arrival.Record{Stop: stop, ArrivalTime: 200})
	result = store.TryAdd(stop, NewCandidate(worseRef, pareto.Dims{200, 2}))
	assert.True(t, result.Rejected)
	assert.False(t, store.TouchedThisRound().IsSet(int(stop)))
}

func TestMultiCriteriaSetAtIsIsolatedPerStop(t *testing.T) {
	arena := arrival.NewArena()
	store := NewMultiCriteria(arena, 2, []float64{1, 1})

	const stopA, stopB tdp.StopID = 0, 1
	refA := arena.Add(arrival.Record{Stop: stopA, ArrivalTime: 50})
	store.TryAdd(stopA, NewCandidate(refA, pareto.Dims{50, 1}))

	assert.Equal(t, 1, store.SetAt(stopA).Len())
	assert.Equal(t, 0, store.SetAt(stopB).Len())
}

func TestFlyweightTryUpdateOnlyAcceptsImprovement(t *testing.T) {
	arena := arrival.NewArena()
	f := NewFlyweight(arena, 2, 2)

	const stop tdp.StopID = 0
	ref, ok := f.TryUpdate(0, stop, 500, false, arrival.Record{Stop: stop, ArrivalTime: 500})
	require.True(t, ok)
	require.NotEqual(t, arrival.NoRef, ref)
	assert.Equal(t, 500, f.BestAt(0, stop))
	assert.True(t, f.TouchedThisRound().IsSet(int(stop)))

	f.ResetTouched()
	_, ok = f.TryUpdate(0, stop, 600, false, arrival.Record{Stop: stop, ArrivalTime: 600})
	assert.False(t, ok)
	assert.Equal(t, 500, f.BestAt(0, stop))
	assert.False(t, f.TouchedThisRound().IsSet(int(stop)))

	_, ok = f.TryUpdate(0, stop, 400, false, arrival.Record{Stop: stop, ArrivalTime: 400})
	assert.True(t, ok)
	assert.Equal(t, 400, f.BestAt(0, stop))
}

func TestFlyweightBestTransitArrivalOnlyTracksTransitUpdates(t *testing.T) {
	arena := arrival.NewArena()
	f := NewFlyweight(arena, 1, 1)

	const stop tdp.StopID = 0
	f.TryUpdate(0, stop, 1000, false, arrival.Record{Stop: stop, ArrivalTime: 1000})
	assert.Equal(t, Unreached, f.BestTransitArrival(stop))

	f.TryUpdate(0, stop, 900, true, arrival.Record{Stop: stop, ArrivalTime: 900})
	assert.Equal(t, 900, f.BestTransitArrival(stop))
}

func TestFlyweightCarryForwardCopiesPreviousRound(t *testing.T) {
	arena := arrival.NewArena()
	f := NewFlyweight(arena, 1, 2)

	const stop tdp.StopID = 0
	ref, _ := f.TryUpdate(0, stop, 300, false, arrival.Record{Stop: stop, ArrivalTime: 300})

	f.CarryForward(1)
	assert.Equal(t, 300, f.BestAt(1, stop))
	assert.Equal(t, ref, f.RefAt(1, stop))

	// Round 2 still shows Unreached until carried forward or updated.
	assert.Equal(t, Unreached, f.BestAt(2, stop))
}
