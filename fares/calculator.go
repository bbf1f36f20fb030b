// Package fares implements the Fares-V2 in-routing fare calculator
// (spec §4.10): incremental fare + transfer allowance with as-route
// splicing, computed leg by leg along a partial or complete journey.
package fares

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/transitnetworks/raptorcore/raptorerr"
	"github.com/transitnetworks/raptorcore/tdp"
)

// Leg is one ride in the journey being priced (spec §4.10 input shape).
type Leg struct {
	Pattern    tdp.PatternID
	Route      tdp.RouteID
	BoardStop  tdp.StopID
	AlightStop tdp.StopID
	BoardTime  int
	AlightTime int
}

// TransferAllowance is the state carried forward to price the next ride
// (spec §3 "Transfer allowance").
type TransferAllowance struct {
	PreviousFareLegRuleID int
	HasAsRoute            bool
	AsRouteFareNetworks   []tdp.FareNetwork
	AsRouteBoardStop      tdp.StopID
	CandidateLegRuleIDs   []int
}

// Options configures the calculator (spec §6.1).
type Options struct {
	// UseAllStopsForAsRoute selects option B ("use_all_stops_when_-
	// calculating_as_route_fare_network"): match the as-route leg rule
	// against the union of every boarding/alighting stop in the spliced
	// group, rather than only its endpoints.
	UseAllStopsForAsRoute bool
}

type cacheKey struct {
	from int
	to   int
}

// Calculator prices journeys incrementally (spec §4.10). It is
// per-Worker, never shared across goroutines (spec §5).
type Calculator struct {
	provider tdp.Provider
	opts     Options
	cache    *lru.Cache[cacheKey, []tdp.FareTransferRule]
	logger   zerolog.Logger
}

// New constructs a Calculator with a bounded transfer-rule lookup
// cache of the given capacity.
func New(provider tdp.Provider, opts Options, cacheCapacity int, logger zerolog.Logger) *Calculator {
	cache, _ := lru.New[cacheKey, []tdp.FareTransferRule](cacheCapacity)
	return &Calculator{provider: provider, opts: opts, cache: cache, logger: logger}
}

// legGroup is one (possibly as-route-spliced) fare-relevant group of
// consecutive journey legs.
type legGroup struct {
	route      tdp.RouteID
	boardStop  tdp.StopID
	alightStop tdp.StopID
	networks   []tdp.FareNetwork
	fromStops  []tdp.StopID
	toStops    []tdp.StopID
	asRoute    bool
}

// Price computes the cumulative fare and the trailing transfer
// allowance for a full ordered journey (spec §4.10).
func (c *Calculator) Price(legs []Leg) (float64, TransferAllowance, error) {
	cumulative := 0.0
	prevLegRuleID := tdp.BlankFareID
	var allowance TransferAllowance

	i := 0
	for i < len(legs) {
		group, next := c.spliceAsRoute(legs, i)
		rule, potential, err := c.matchLegRule(group)
		if err != nil {
			return 0, TransferAllowance{}, err
		}

		increment, err := c.applyTransferRule(prevLegRuleID, rule)
		if err != nil {
			return 0, TransferAllowance{}, err
		}
		if increment < 0 {
			c.logger.Warn().Float64("increment", increment).Msg("NEGATIVE_FARE_INCREMENT")
		}
		cumulative += increment

		prevLegRuleID = rule.ID
		allowance = TransferAllowance{PreviousFareLegRuleID: rule.ID}
		if group.asRoute {
			allowance.HasAsRoute = true
			allowance.AsRouteFareNetworks = group.networks
			allowance.AsRouteBoardStop = group.boardStop
			allowance.CandidateLegRuleIDs = ruleIDs(potential)
		}

		i = next
	}

	return cumulative, allowance, nil
}

// spliceAsRoute greedily extends the leg starting at i to consume
// following legs whose patterns' routes intersect the running
// as-route network set, per spec §4.10 step 1.
func (c *Calculator) spliceAsRoute(legs []Leg, i int) (legGroup, int) {
	leg := legs[i]
	networks := intersect(c.provider.FareNetworksForRoute(leg.Route), c.provider.AsRouteFareNetworks())

	group := legGroup{
		route:      leg.Route,
		boardStop:  leg.BoardStop,
		alightStop: leg.AlightStop,
		networks:   networks,
		asRoute:    len(networks) > 0,
		fromStops:  []tdp.StopID{leg.BoardStop},
		toStops:    []tdp.StopID{leg.AlightStop},
	}
	if !group.asRoute {
		return group, i + 1
	}

	j := i + 1
	for j < len(legs) {
		next := legs[j]
		nextRouteNetworks := c.provider.FareNetworksForRoute(next.Route)
		merged := intersect(group.networks, nextRouteNetworks)
		if len(merged) == 0 {
			break
		}
		group.networks = merged
		group.alightStop = next.AlightStop
		group.fromStops = append(group.fromStops, next.BoardStop)
		group.toStops = append(group.toStops, next.AlightStop)
		j++
	}
	return group, j
}

// matchLegRule implements spec §4.10 step 2, both Option A (default)
// and Option B (use_all_stops_when_calculating_as_route_fare_network).
func (c *Calculator) matchLegRule(group legGroup) (tdp.FareLegRule, []tdp.FareLegRule, error) {
	var candidates []tdp.FareLegRule

	if group.asRoute && c.opts.UseAllStopsForAsRoute {
		from := toSet(group.fromStops)
		to := toSet(group.toStops)
		for _, network := range group.networks {
			for _, rule := range c.provider.FareLegRulesForNetwork(network) {
				if from[rule.FromStop] && to[rule.ToStop] {
					candidates = append(candidates, rule)
				}
			}
		}
	} else {
		networks := group.networks
		if !group.asRoute {
			networks = c.provider.FareNetworksForRoute(group.route)
		}
		for _, network := range networks {
			for _, rule := range c.provider.FareLegRulesForNetwork(network) {
				if rule.FromStop == group.boardStop && rule.ToStop == group.alightStop {
					candidates = append(candidates, rule)
				}
			}
		}
	}

	if len(candidates) == 0 {
		return tdp.FareLegRule{}, nil, raptorerr.NoFareLegRuleMatch
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Order != candidates[b].Order {
			return candidates[a].Order < candidates[b].Order
		}
		// Open Question 3 (DESIGN.md): tie-break by lowest amount, for
		// determinism independent of TDP iteration order.
		return candidates[a].Amount < candidates[b].Amount
	})

	best := candidates[0]
	potential := []tdp.FareLegRule{}
	for _, r := range candidates {
		if r.Order == best.Order {
			potential = append(potential, r)
		}
	}
	return best, potential, nil
}

// applyTransferRule implements spec §4.10 step 3.
func (c *Calculator) applyTransferRule(prevLegRuleID int, rule tdp.FareLegRule) (float64, error) {
	if prevLegRuleID == tdp.BlankFareID {
		return rule.Amount, nil
	}

	transferRule, found := c.lookupTransferRule(prevLegRuleID, rule.ID)
	if !found {
		return rule.Amount, nil
	}

	switch transferRule.Type {
	case tdp.TotalCostPlusAmount:
		return rule.Amount + transferRule.Amount, nil
	case tdp.FirstLegPlusAmount:
		return transferRule.Amount, nil
	default:
		return 0, raptorerr.UnsupportedFareRule
	}
}

// lookupTransferRule finds the best matching transfer rule between two
// leg rules, falling back to a blank-wildcard rule, memoized in the LRU
// cache (spec §4.10 step 3, last paragraph).
func (c *Calculator) lookupTransferRule(fromLegRuleID, toLegRuleID int) (tdp.FareTransferRule, bool) {
	key := cacheKey{from: fromLegRuleID, to: toLegRuleID}
	if cached, ok := c.cache.Get(key); ok {
		return bestTransferRule(cached)
	}

	rules := c.provider.FareTransferRulesFor(fromLegRuleID, toLegRuleID)
	if len(rules) == 0 {
		rules = c.provider.FareTransferRulesFor(tdp.BlankFareID, tdp.BlankFareID)
	}
	c.cache.Add(key, rules)
	return bestTransferRule(rules)
}

func bestTransferRule(rules []tdp.FareTransferRule) (tdp.FareTransferRule, bool) {
	if len(rules) == 0 {
		return tdp.FareTransferRule{}, false
	}
	best := rules[0]
	for _, r := range rules[1:] {
		if r.Order < best.Order {
			best = r
		}
	}
	return best, true
}

func intersect(a, b []tdp.FareNetwork) []tdp.FareNetwork {
	set := map[tdp.FareNetwork]bool{}
	for _, n := range a {
		set[n] = true
	}
	var out []tdp.FareNetwork
	for _, n := range b {
		if set[n] {
			out = append(out, n)
		}
	}
	return out
}

func toSet(stops []tdp.StopID) map[tdp.StopID]bool {
	set := map[tdp.StopID]bool{}
	for _, s := range stops {
		set[s] = true
	}
	return set
}

func ruleIDs(rules []tdp.FareLegRule) []int {
	ids := make([]int, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}
