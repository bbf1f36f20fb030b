package heuristics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/raptor"
	"github.com/transitnetworks/raptorcore/tdp"
)

func secs(h, m, s int) int { return h*3600 + m*60 + s }

type fakeProvider struct {
	numStops  int
	patterns  map[tdp.PatternID]*tdp.Pattern
	trips     map[tdp.TripID]*tdp.TripSchedule
	transfers map[tdp.StopID][]tdp.TransferLeg
}

func (p *fakeProvider) NumStops() int { return p.numStops }
func (p *fakeProvider) PatternsTouching(stops *bitset.Dense) []tdp.PatternID {
	seen := map[tdp.PatternID]bool{}
	var out []tdp.PatternID
	it := stops.Iter()
	for it.HasNext() {
		s := tdp.StopID(it.Next())
		for id, pat := range p.patterns {
			if seen[id] {
				continue
			}
			for _, ps := range pat.Stops {
				if ps == s {
					seen[id] = true
					out = append(out, id)
					break
				}
			}
		}
	}
	return out
}
func (p *fakeProvider) Pattern(id tdp.PatternID) *tdp.Pattern { return p.patterns[id] }
func (p *fakeProvider) Trip(id tdp.TripID) *tdp.TripSchedule  { return p.trips[id] }
func (p *fakeProvider) TripIsInService(id tdp.TripID) bool    { return true }
func (p *fakeProvider) TransfersFrom(stop tdp.StopID) []tdp.TransferLeg {
	return p.transfers[stop]
}
func (p *fakeProvider) FareNetworksForRoute(route tdp.RouteID) []tdp.FareNetwork         { return nil }
func (p *fakeProvider) AsRouteFareNetworks() []tdp.FareNetwork                           { return nil }
func (p *fakeProvider) FareLegRulesForNetwork(network tdp.FareNetwork) []tdp.FareLegRule { return nil }
func (p *fakeProvider) FareLegRulesFromStop(stop tdp.StopID) []tdp.FareLegRule           { return nil }
func (p *fakeProvider) FareLegRulesToStop(stop tdp.StopID) []tdp.FareLegRule             { return nil }
func (p *fakeProvider) FareTransferRulesFor(from, to int) []tdp.FareTransferRule         { return nil }

// TestBoundImprovesTowardDestination checks that a stop two hops away
// from the single egress leg ends up with a strictly larger duration
// bound than a stop one hop away, and that an unreachable stop keeps
// the Unreached sentinel.
func TestBoundImprovesTowardDestination(t *testing.T) {
	const stopA, stopC, stopB, stopIsland tdp.StopID = 0, 1, 2, 3
	provider := &fakeProvider{
		numStops:  4,
		patterns:  map[tdp.PatternID]*tdp.Pattern{},
		trips:     map[tdp.TripID]*tdp.TripSchedule{},
		transfers: map[tdp.StopID][]tdp.TransferLeg{},
	}
	provider.patterns[1] = &tdp.Pattern{ID: 1, Stops: []tdp.StopID{stopA, stopC}, Trips: []tdp.TripID{10}}
	provider.trips[10] = &tdp.TripSchedule{
		ID:         10,
		PatternID:  1,
		Departures: []int{secs(8, 0, 0), secs(8, 10, 0)},
		Arrivals:   []int{secs(8, 0, 0), secs(8, 10, 0)},
	}
	provider.patterns[2] = &tdp.Pattern{ID: 2, Stops: []tdp.StopID{stopC, stopB}, Trips: []tdp.TripID{20}}
	provider.trips[20] = &tdp.TripSchedule{
		ID:         20,
		PatternID:  2,
		Departures: []int{secs(8, 13, 0), secs(8, 20, 0)},
		Arrivals:   []int{secs(8, 13, 0), secs(8, 20, 0)},
	}

	costModel := raptor.NewDefaultCostModel(1, 1)
	table := Compute(provider, costModel, []tdp.AccessEgressLeg{{Stop: stopB, Duration: 0}}, 3)

	destBound := table.At(stopB)
	assert.Equal(t, 0, destBound.TravelDuration)
	assert.Equal(t, 0, destBound.Transfers)

	oneHop := table.At(stopC)
	require.NotEqual(t, Unreached.TravelDuration, oneHop.TravelDuration)
	assert.Equal(t, 7*60, oneHop.TravelDuration) // trip20 runs 8:13->8:20
	assert.Equal(t, 1, oneHop.Transfers)

	twoHop := table.At(stopA)
	require.NotEqual(t, Unreached.TravelDuration, twoHop.TravelDuration)
	assert.Equal(t, oneHop.TravelDuration+10*60, twoHop.TravelDuration) // + trip10's 8:00->8:10
	assert.Equal(t, 2, twoHop.Transfers)
	assert.Greater(t, twoHop.TravelDuration, oneHop.TravelDuration)

	island := table.At(stopIsland)
	assert.Equal(t, Unreached.TravelDuration, island.TravelDuration)
	assert.True(t, math.IsInf(island.Cost, 1))
}

// TestNeverOverestimatesAcrossTrips checks that a stop served by two
// trips of the same pattern, one faster than the other, keeps the
// faster trip's bound, since the bound must never overestimate.
func TestNeverOverestimatesAcrossTrips(t *testing.T) {
	const stopX, stopY tdp.StopID = 0, 1
	provider := &fakeProvider{
		numStops: 2,
		patterns: map[tdp.PatternID]*tdp.Pattern{
			1: {ID: 1, Stops: []tdp.StopID{stopX, stopY}, Trips: []tdp.TripID{100, 200}},
		},
		trips: map[tdp.TripID]*tdp.TripSchedule{
			100: {ID: 100, PatternID: 1, Departures: []int{secs(8, 0, 0), secs(8, 30, 0)}, Arrivals: []int{secs(8, 0, 0), secs(8, 30, 0)}},
			200: {ID: 200, PatternID: 1, Departures: []int{secs(9, 0, 0), secs(9, 5, 0)}, Arrivals: []int{secs(9, 0, 0), secs(9, 5, 0)}},
		},
		transfers: map[tdp.StopID][]tdp.TransferLeg{},
	}

	costModel := raptor.NewDefaultCostModel(1, 1)
	table := Compute(provider, costModel, []tdp.AccessEgressLeg{{Stop: stopY, Duration: 0}}, 2)

	bound := table.At(stopX)
	assert.Equal(t, 5*60, bound.TravelDuration) // fastest trip (200) wins, not trip 100's 30 min
}
