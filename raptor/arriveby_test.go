package raptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnetworks/raptorcore/tdp"
)

// TestArriveBySinglePatternOneTrip is the reverse mirror of
// TestSinglePatternOneTrip: given a deadline at B, the latest safe
// departure from A is exactly the one scheduled trip's departure time.
func TestArriveBySinglePatternOneTrip(t *testing.T) {
	const stopA, stopB tdp.StopID = 0, 1
	provider := newFakeProvider(2)
	provider.patterns[1] = &tdp.Pattern{ID: 1, Stops: []tdp.StopID{stopA, stopB}, Trips: []tdp.TripID{10}}
	provider.trips[10] = &tdp.TripSchedule{
		ID:         10,
		PatternID:  1,
		Departures: []int{secs(8, 0, 0), secs(8, 10, 0)},
		Arrivals:   []int{secs(8, 0, 0), secs(8, 10, 0)},
	}

	worker := newWorker(provider)
	result := worker.RunArriveBy(ArriveByParams{
		ArriveByTime: secs(8, 15, 0),
		BoardSlack:   60,
		MaxRounds:    3,
		AccessLegs:   []tdp.AccessEgressLeg{{Stop: stopA, Duration: 0}},
		EgressLegs:   []tdp.AccessEgressLeg{{Stop: stopB, Duration: 0}},
	})

	require.True(t, result.Found)
	assert.Equal(t, secs(8, 0, 0), result.Origin.Time)
	assert.Equal(t, 1, result.Origin.Round)
}
