// Package gtfsprovider loads a GTFS feed into an immutable tdp.Provider
// using github.com/patrickbr/gtfsparser, the library the teacher's own
// raptor_test.go parses subway/LIRR fixtures with. Grounded on the
// gtfsparser usage in that test (feed.Parse, feed.Stops, feed.Trips,
// trip.StopTimes, stop_time.Arrival_time().SecondsSinceMidnight()) and
// on the richer API surface exercised across
// patrickbr-gtfstidy/processors (the same author's companion tool):
// Service.IsActiveOn, Route.Id, StopTime.Pickup_type/Drop_off_type,
// Stop.Wheelchair_boarding.
package gtfsprovider

import (
	"fmt"
	"sort"

	"github.com/patrickbr/gtfsparser"
	"github.com/patrickbr/gtfsparser/gtfs"

	"github.com/transitnetworks/raptorcore/bitset"
	"github.com/transitnetworks/raptorcore/tdp"
)

// Provider is an immutable, already-parsed tdp.Provider backed by one
// GTFS feed and one service date (spec §5 "the TDP is immutable"; §7
// ADD "tdp/gtfsprovider ... perform the blocking I/O spec.md keeps
// outside the Worker, and hand the core an immutable, already-parsed
// tdp.Provider").
//
// Fare-V2 tables (fare_leg_rules.txt / fare_transfer_rules.txt) are not
// modeled by gtfsparser's public Feed struct; FareNetworksForRoute and
// friends return empty slices here rather than reverse-engineering a
// bespoke CSV reader, a deliberate scope limit documented in DESIGN.md.
type Provider struct {
	numStops int

	stopIndex map[string]tdp.StopID
	routeIndex map[string]tdp.RouteID

	patterns map[tdp.PatternID]*tdp.Pattern
	patternsByStop [][]tdp.PatternID

	trips map[tdp.TripID]*tdp.TripSchedule
	tripInService map[tdp.TripID]bool

	transfersFrom [][]tdp.TransferLeg
}

// Load parses the GTFS feed at path and builds a Provider scoped to
// serviceDate: every trip is listed in its pattern's Trips, and
// TripIsInService reports whether its calendar/calendar_dates evaluation
// is active on that date.
func Load(path string, serviceDate gtfs.Date) (*Provider, error) {
	feed := gtfsparser.NewFeed()
	if err := feed.Parse(path); err != nil {
		return nil, fmt.Errorf("gtfsprovider: parsing %s: %w", path, err)
	}

	p := &Provider{
		stopIndex:  map[string]tdp.StopID{},
		routeIndex: map[string]tdp.RouteID{},
		patterns:   map[tdp.PatternID]*tdp.Pattern{},
		trips:      map[tdp.TripID]*tdp.TripSchedule{},
		tripInService: map[tdp.TripID]bool{},
	}

	for id := range feed.Stops {
		p.stopIndex[id] = tdp.StopID(len(p.stopIndex))
	}
	p.numStops = len(p.stopIndex)
	p.patternsByStop = make([][]tdp.PatternID, p.numStops)
	p.transfersFrom = make([][]tdp.TransferLeg, p.numStops)

	for id := range feed.Routes {
		p.routeIndex[id] = tdp.RouteID(len(p.routeIndex))
	}

	// Group trips into patterns: same route, same ordered stop
	// sequence and same pickup/dropoff flags per position. This is the
	// standard RAPTOR "pattern" construction (spec §3); gtfsparser
	// exposes no pre-grouped notion of it.
	type patternKey struct {
		route tdp.RouteID
		stops string
	}
	byKey := map[patternKey]tdp.PatternID{}
	nextTripID := tdp.TripID(0)

	for _, trip := range feed.Trips {
		if len(trip.StopTimes) == 0 {
			continue
		}
		route := p.routeIndex[trip.Route.Id]

		stops := make([]tdp.StopID, len(trip.StopTimes))
		arrivals := make([]int, len(trip.StopTimes))
		departures := make([]int, len(trip.StopTimes))
		pickups := make([]tdp.PickupDropoffPolicy, len(trip.StopTimes))
		dropoffs := make([]tdp.PickupDropoffPolicy, len(trip.StopTimes))
		wheelchair := bitset.New(len(trip.StopTimes))
		keyBuf := make([]byte, 0, len(trip.StopTimes)*8)

		for i, st := range trip.StopTimes {
			stopID := p.stopIndex[st.Stop().Id]
			stops[i] = stopID
			arrivals[i] = st.Arrival_time().SecondsSinceMidnight()
			departures[i] = st.Departure_time().SecondsSinceMidnight()
			pickups[i] = tdp.PickupDropoffPolicy(st.Pickup_type())
			dropoffs[i] = tdp.PickupDropoffPolicy(st.Drop_off_type())
			if st.Stop().Wheelchair_boarding != 2 {
				wheelchair.Set(i)
			}
			keyBuf = append(keyBuf, []byte(fmt.Sprintf("%d,%d,%d;", stopID, pickups[i], dropoffs[i]))...)
		}

		key := patternKey{route: route, stops: string(keyBuf)}
		patID, ok := byKey[key]
		if !ok {
			patID = tdp.PatternID(len(p.patterns))
			byKey[key] = patID
			p.patterns[patID] = &tdp.Pattern{
				ID:                   patID,
				RouteID:              route,
				Stops:                stops,
				Pickups:              pickups,
				Dropoffs:             dropoffs,
				WheelchairAccessible: wheelchair,
				VersionTag:           trip.Id,
			}
			for _, s := range stops {
				p.patternsByStop[s] = append(p.patternsByStop[s], patID)
			}
		}

		tripID := nextTripID
		nextTripID++

		var freq *tdp.FrequencyDescriptor
		if trip.Frequencies != nil && len(*trip.Frequencies) > 0 {
			f := (*trip.Frequencies)[0]
			freq = &tdp.FrequencyDescriptor{
				StartTime:   f.Start_time.SecondsSinceMidnight(),
				EndTime:     f.End_time.SecondsSinceMidnight(),
				HeadwaySecs: f.Headway_secs,
			}
		}

		p.trips[tripID] = &tdp.TripSchedule{
			ID:         tripID,
			PatternID:  patID,
			Arrivals:   arrivals,
			Departures: departures,
			Frequency:  freq,
		}
		p.tripInService[tripID] = trip.Service.IsActiveOn(serviceDate)

		pattern := p.patterns[patID]
		pattern.Trips = append(pattern.Trips, tripID)
	}

	for _, pattern := range p.patterns {
		trips := pattern.Trips
		sort.Slice(trips, func(i, j int) bool {
			return p.trips[trips[i]].Departures[0] < p.trips[trips[j]].Departures[0]
		})
	}

	for key, transfer := range feed.Transfers {
		fromStop, fromOK := p.stopIndex[key.From_stop.Id]
		toStop, toOK := p.stopIndex[key.To_stop.Id]
		if !fromOK || !toOK || fromStop == toStop {
			continue
		}
		p.transfersFrom[fromStop] = append(p.transfersFrom[fromStop], tdp.TransferLeg{
			FromStop: fromStop,
			ToStop:   toStop,
			Duration: transfer.Min_transfer_time,
		})
	}

	return p, nil
}

func (p *Provider) NumStops() int { return p.numStops }

func (p *Provider) PatternsTouching(stops *bitset.Dense) []tdp.PatternID {
	seen := make(map[tdp.PatternID]bool)
	var out []tdp.PatternID
	it := stops.Iter()
	for it.HasNext() {
		s := it.Next()
		for _, patID := range p.patternsByStop[s] {
			if !seen[patID] {
				seen[patID] = true
				out = append(out, patID)
			}
		}
	}
	return out
}

func (p *Provider) Pattern(id tdp.PatternID) *tdp.Pattern { return p.patterns[id] }
func (p *Provider) Trip(id tdp.TripID) *tdp.TripSchedule  { return p.trips[id] }
func (p *Provider) TripIsInService(id tdp.TripID) bool    { return p.tripInService[id] }

func (p *Provider) TransfersFrom(stop tdp.StopID) []tdp.TransferLeg {
	return p.transfersFrom[stop]
}

// Fare-V2 tables are not parsed by this loader (see type doc).
func (p *Provider) FareNetworksForRoute(route tdp.RouteID) []tdp.FareNetwork         { return nil }
func (p *Provider) AsRouteFareNetworks() []tdp.FareNetwork                           { return nil }
func (p *Provider) FareLegRulesForNetwork(network tdp.FareNetwork) []tdp.FareLegRule { return nil }
func (p *Provider) FareLegRulesFromStop(stop tdp.StopID) []tdp.FareLegRule           { return nil }
func (p *Provider) FareLegRulesToStop(stop tdp.StopID) []tdp.FareLegRule             { return nil }
func (p *Provider) FareTransferRulesFor(fromLegGroupID, toLegGroupID int) []tdp.FareTransferRule {
	return nil
}
