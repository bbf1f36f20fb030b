// Package tdp defines the read-only Transit Data Provider surface the
// RAPTOR core consumes (spec §3, §4.1). The core never mutates a
// Provider and treats every bitset view it returns as borrowed for the
// duration of a single call.
package tdp

import "github.com/transitnetworks/raptorcore/bitset"

// StopID, PatternID, TripID and RouteID are opaque dense identifiers.
// Spec §3 fixes stops to "opaque integer identifier in [0, N_stops)";
// patterns, trips and routes follow the same convention so they can
// index directly into parallel arrays without a map lookup.
type StopID int
type PatternID int
type TripID int
type RouteID int

// BLANK_FARE_ID is the sentinel fare rule index meaning "wildcard
// match" (spec §6.3).
const BlankFareID = -1

// PickupDropoffPolicy mirrors GTFS pickup_type/drop_off_type semantics
// at one stop position in a pattern.
type PickupDropoffPolicy int

const (
	Scheduled PickupDropoffPolicy = iota
	NotAvailable
	PhoneAgency
	CoordinateWithDriver
)

// Pattern is an ordered sequence of stop positions visited by a fixed
// set of trips (spec §3).
type Pattern struct {
	ID                   PatternID
	RouteID              RouteID
	Stops                []StopID
	Pickups              []PickupDropoffPolicy
	Dropoffs             []PickupDropoffPolicy
	WheelchairAccessible *bitset.Dense // length K, one bit per stop position
	Trips                []TripID
	VersionTag           string
}

// NumStops returns K, the number of stop positions in the pattern.
func (p *Pattern) NumStops() int { return len(p.Stops) }

// TripSchedule is the arrival/departure timetable of one trip on a
// pattern (spec §3). Frequency-based trips carry a non-nil Frequency
// and are skipped by the scheduled board search.
type TripSchedule struct {
	ID         TripID
	PatternID  PatternID
	ServiceID  int
	Arrivals   []int // seconds past midnight, length K
	Departures []int // seconds past midnight, length K
	Frequency  *FrequencyDescriptor
}

// FrequencyDescriptor marks a trip as frequency-based rather than
// individually scheduled; such trips are skipped by the scheduled
// board search (spec §4.5).
type FrequencyDescriptor struct {
	StartTime   int
	EndTime     int
	HeadwaySecs int
}

// TransferLeg is a stop-to-stop walking transfer (spec §3).
type TransferLeg struct {
	FromStop StopID
	ToStop   StopID
	Duration int // seconds, >= 0
}

// AccessEgressLeg is an access (origin) or egress (destination) walking
// leg, with an optional fixed wait (spec §3).
type AccessEgressLeg struct {
	Stop        StopID
	Duration    int
	FixedWaitOK bool
	FixedWait   int
}

// FareNetwork is an opaque index into the TDP's fare-network table.
type FareNetwork int

// FareLegRule prices one ride within a fare network (spec §3, §4.10).
type FareLegRule struct {
	ID         int
	Network    FareNetwork
	FromStop   StopID
	ToStop     StopID
	Order      int // lower = more preferred / more extensive
	Amount     float64
	AsRoute    bool
}

// FareTransferType enumerates the transfer-rule evaluation strategies
// the calculator understands (spec §4.10). Anything else surfaces
// UNSUPPORTED_FARE_RULE.
type FareTransferType int

const (
	TotalCostPlusAmount FareTransferType = iota
	FirstLegPlusAmount
	UnsupportedTransferType
)

// FareTransferRule prices the transition from one leg rule group to the
// next (spec §3, §4.10).
type FareTransferRule struct {
	ID             int
	FromLegGroupID int // BlankFareID = wildcard
	ToLegGroupID   int // BlankFareID = wildcard
	Order          int
	Type           FareTransferType
	Amount         float64
}

// Provider is the read-only surface the RAPTOR core consumes (spec
// §4.1). Implementations live in tdp/gtfsprovider and tdp/pgxprovider;
// the core depends only on this interface.
type Provider interface {
	// NumStops reports N_stops, the size of the stop ID universe.
	NumStops() int

	// PatternsTouching yields every pattern visiting at least one stop
	// in stops, each at most once. The returned bitset view (stops) is
	// borrowed for the duration of this call only.
	PatternsTouching(stops *bitset.Dense) []PatternID

	// Pattern returns the pattern's static structure.
	Pattern(id PatternID) *Pattern

	// Trip returns one trip's schedule.
	Trip(id TripID) *TripSchedule

	// TripIsInService reports whether trip should be considered by the
	// board search for the service day in effect.
	TripIsInService(id TripID) bool

	// TransfersFrom yields every transfer leg departing stop.
	TransfersFrom(stop StopID) []TransferLeg

	// FareNetworksForRoute returns the fare networks route participates
	// in (may be empty).
	FareNetworksForRoute(route RouteID) []FareNetwork

	// AsRouteFareNetworks returns the set of networks in which
	// consecutive rides are spliced into one effective trip for fare
	// purposes (spec §4.10).
	AsRouteFareNetworks() []FareNetwork

	// FareLegRulesForNetwork returns every leg rule registered against
	// network.
	FareLegRulesForNetwork(network FareNetwork) []FareLegRule

	// FareLegRulesFromStop / FareLegRulesToStop narrow leg-rule lookup
	// by endpoint. The fares calculator does not call them; its as-route
	// option B match filters FareLegRulesForNetwork results instead.
	FareLegRulesFromStop(stop StopID) []FareLegRule
	FareLegRulesToStop(stop StopID) []FareLegRule

	// FareTransferRulesFor returns transfer rules registered between the
	// given leg-rule groups (either side may be BlankFareID to request a
	// wildcard match).
	FareTransferRulesFor(fromLegGroupID, toLegGroupID int) []FareTransferRule
}
