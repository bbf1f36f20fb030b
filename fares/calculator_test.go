package fares

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnetworks/raptorcore/raptorerr"
	"github.com/transitnetworks/raptorcore/tdp"
)

const (
	routeAC tdp.RouteID = 1
	routeCB tdp.RouteID = 2
	routeAB tdp.RouteID = 3 // declared for completeness; no test below rides it
	routeBA tdp.RouteID = 4
	networkN tdp.FareNetwork = 1

	stopA tdp.StopID = 0
	stopB tdp.StopID = 1
	stopC tdp.StopID = 2
	stopD tdp.StopID = 3
)

// fakeFareProvider implements only the fares-facing subset of
// tdp.Provider; the rest panic if called, since Calculator never needs
// them.
type fakeFareProvider struct {
	tdp.Provider
	networksByRoute map[tdp.RouteID][]tdp.FareNetwork
	asRouteNetworks []tdp.FareNetwork
	legRules        map[tdp.FareNetwork][]tdp.FareLegRule
	transferRules   map[[2]int][]tdp.FareTransferRule
}

func (p *fakeFareProvider) FareNetworksForRoute(route tdp.RouteID) []tdp.FareNetwork {
	return p.networksByRoute[route]
}

func (p *fakeFareProvider) AsRouteFareNetworks() []tdp.FareNetwork {
	return p.asRouteNetworks
}

func (p *fakeFareProvider) FareLegRulesForNetwork(network tdp.FareNetwork) []tdp.FareLegRule {
	return p.legRules[network]
}

func (p *fakeFareProvider) FareTransferRulesFor(fromLegGroupID, toLegGroupID int) []tdp.FareTransferRule {
	return p.transferRules[[2]int{fromLegGroupID, toLegGroupID}]
}

func newLogger() zerolog.Logger {
	return zerolog.Nop()
}

// TestPriceNoAsRoute implements scenario S3.
func TestPriceNoAsRoute(t *testing.T) {
	provider := &fakeFareProvider{
		networksByRoute: map[tdp.RouteID][]tdp.FareNetwork{
			routeAC: {networkN},
			routeCB: {networkN},
		},
		legRules: map[tdp.FareNetwork][]tdp.FareLegRule{
			networkN: {
				{ID: 1, Network: networkN, FromStop: stopA, ToStop: stopC, Order: 1, Amount: 3.00},
				{ID: 2, Network: networkN, FromStop: stopC, ToStop: stopB, Order: 1, Amount: 3.00},
			},
		},
		transferRules: map[[2]int][]tdp.FareTransferRule{
			{1, 2}: {{ID: 1, FromLegGroupID: 1, ToLegGroupID: 2, Order: 1, Type: tdp.TotalCostPlusAmount, Amount: -1.00}},
		},
	}

	calc := New(provider, Options{}, 16, newLogger())
	legs := []Leg{
		{Route: routeAC, BoardStop: stopA, AlightStop: stopC},
		{Route: routeCB, BoardStop: stopC, AlightStop: stopB},
	}

	total, allowance, err := calc.Price(legs)
	require.NoError(t, err)
	assert.InDelta(t, 5.00, total, 1e-9)
	assert.False(t, allowance.HasAsRoute)
}

// TestPriceAsRouteOptionA implements scenario S4.
func TestPriceAsRouteOptionA(t *testing.T) {
	provider := &fakeFareProvider{
		networksByRoute: map[tdp.RouteID][]tdp.FareNetwork{
			routeAC: {networkN},
			routeCB: {networkN},
		},
		asRouteNetworks: []tdp.FareNetwork{networkN},
		legRules: map[tdp.FareNetwork][]tdp.FareLegRule{
			networkN: {
				{ID: 10, Network: networkN, FromStop: stopA, ToStop: stopD, Order: 1, Amount: 4.00},
			},
		},
	}

	calc := New(provider, Options{}, 16, newLogger())
	legs := []Leg{
		{Route: routeAC, BoardStop: stopA, AlightStop: stopC},
		{Route: routeCB, BoardStop: stopC, AlightStop: stopD},
	}

	total, allowance, err := calc.Price(legs)
	require.NoError(t, err)
	assert.InDelta(t, 4.00, total, 1e-9)
	require.True(t, allowance.HasAsRoute)
	assert.Equal(t, stopA, allowance.AsRouteBoardStop)
	assert.Contains(t, allowance.AsRouteFareNetworks, networkN)
}

// TestPriceAsRouteOptionB implements scenario S5: backtrack B -> A -> C,
// both legs in as-route network N, option B enabled. The most extensive
// matching rule (A -> C) must win over the narrower B -> C rule.
func TestPriceAsRouteOptionB(t *testing.T) {
	provider := &fakeFareProvider{
		networksByRoute: map[tdp.RouteID][]tdp.FareNetwork{
			routeBA: {networkN},
			routeAC: {networkN},
		},
		asRouteNetworks: []tdp.FareNetwork{networkN},
		legRules: map[tdp.FareNetwork][]tdp.FareLegRule{
			networkN: {
				{ID: 20, Network: networkN, FromStop: stopB, ToStop: stopC, Order: 1, Amount: 6.80},
				{ID: 21, Network: networkN, FromStop: stopA, ToStop: stopC, Order: 0, Amount: 7.80},
			},
		},
	}

	calc := New(provider, Options{UseAllStopsForAsRoute: true}, 16, newLogger())
	legs := []Leg{
		{Route: routeBA, BoardStop: stopB, AlightStop: stopA},
		{Route: routeAC, BoardStop: stopA, AlightStop: stopC},
	}

	total, allowance, err := calc.Price(legs)
	require.NoError(t, err)
	assert.InDelta(t, 7.80, total, 1e-9)
	assert.True(t, allowance.HasAsRoute)
}

func TestPriceNoMatchingLegRuleErrors(t *testing.T) {
	provider := &fakeFareProvider{
		networksByRoute: map[tdp.RouteID][]tdp.FareNetwork{routeAC: {networkN}},
		legRules:        map[tdp.FareNetwork][]tdp.FareLegRule{},
	}
	calc := New(provider, Options{}, 16, newLogger())
	_, _, err := calc.Price([]Leg{{Route: routeAC, BoardStop: stopA, AlightStop: stopC}})
	assert.ErrorIs(t, err, raptorerr.NoFareLegRuleMatch)
}
