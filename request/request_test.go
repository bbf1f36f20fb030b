package request

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnetworks/raptorcore/bitset"
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

func directProvider() *fakeProvider {
	const stopA, stopB tdp.StopID = 0, 1
	p := &fakeProvider{
		numStops:  2,
		patterns:  map[tdp.PatternID]*tdp.Pattern{},
		trips:     map[tdp.TripID]*tdp.TripSchedule{},
		transfers: map[tdp.StopID][]tdp.TransferLeg{},
	}
	p.patterns[1] = &tdp.Pattern{ID: 1, Stops: []tdp.StopID{stopA, stopB}, Trips: []tdp.TripID{10}}
	p.trips[10] = &tdp.TripSchedule{
		ID:         10,
		PatternID:  1,
		Departures: []int{secs(8, 0, 0), secs(8, 30, 0)},
		Arrivals:   []int{secs(8, 0, 0), secs(8, 30, 0)},
	}
	return p
}

func baseRequest() Request {
	const stopA, stopB tdp.StopID = 0, 1
	return Request{
		FromTime:      secs(7, 55, 0),
		ToTime:        secs(8, 0, 0),
		DepartureStep: secs(0, 5, 0),
		BoardSlack:    60,
		MaxRounds:     2,
		AccessLegs:    []tdp.AccessEgressLeg{{Stop: stopA, Duration: 0}},
		EgressLegs:    []tdp.AccessEgressLeg{{Stop: stopB, Duration: 0}},
	}
}

func TestBuildPlainProfileFindsDestination(t *testing.T) {
	worker := Build(directProvider(), baseRequest())
	require.NotNil(t, worker.Plain)
	require.Nil(t, worker.MultiC)

	result := worker.Run()
	require.True(t, result.Found)
	assert.Equal(t, secs(8, 30, 0), result.Destination.Time)
}

func TestBuildMultiCriteriaProfileFindsDestination(t *testing.T) {
	req := baseRequest()
	req.Profile = ProfileMultiCriteriaRangeRaptor
	req.CostModel = nil // Build's worker defaults this inside multicriteria.Run

	worker := Build(directProvider(), req)
	require.NotNil(t, worker.MultiC)
	require.Nil(t, worker.Plain)

	result := worker.RunMultiCriteria()
	require.True(t, result.Found)
	assert.Equal(t, 1, result.Destinations.Len())
}

func TestBuildWithFareCacheCapacityWiresCalculator(t *testing.T) {
	req := baseRequest()
	req.FareCacheCapacity = 64

	worker := Build(directProvider(), req)
	require.NotNil(t, worker.Fares)
}

func TestDebugStopsPopulateTracer(t *testing.T) {
	req := baseRequest()
	req.Debug = DebugOptions{Stops: []tdp.StopID{0, 1}, Logger: zerolog.Nop()}

	worker := Build(directProvider(), req)
	assert.True(t, worker.Context.Tracer.TraceStop(0))
	assert.True(t, worker.Context.Tracer.TraceStop(1))
	assert.False(t, worker.Context.Tracer.TraceStop(5))
}

func TestRunParallelFansOutIndependentProviders(t *testing.T) {
	tasks := []PlainTask{
		{Label: "weekday", Provider: directProvider(), Req: baseRequest()},
		{Label: "weekend", Provider: directProvider(), Req: baseRequest()},
	}

	results, err := RunParallel(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Result.Found)
		assert.Equal(t, secs(8, 30, 0), r.Result.Destination.Time)
	}
}
