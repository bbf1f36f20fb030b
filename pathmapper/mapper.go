// Package pathmapper reconstructs a rider-facing itinerary from a
// terminal arrival record (spec §4.8), walking the arrival arena's
// Previous chain back to its access root. Grounded on the teacher's
// backward reconstruction in SimpleRaptorDepartAt/SimpleRaptorArriveBy
// (mod.go), which walks RoundSegment.Spans from destination back to
// origin and assembles them into a Journey; this package adapts that
// walk to the arena+Ref arrival-record DAG (spec §9 Design Notes) in
// place of the teacher's flat RoundSegmentSpan slice, and to a single
// egress leg supplied by the caller instead of a pre-populated span.
package pathmapper

import (
	"github.com/transitnetworks/raptorcore/arrival"
	"github.com/transitnetworks/raptorcore/raptorerr"
	"github.com/transitnetworks/raptorcore/tdp"
)

// Kind tags a Leg the way arrival.By tags a Record (spec §9: a closed
// tagged variant instead of a class hierarchy).
type Kind int

const (
	Access Kind = iota
	Transit
	Transfer
	Egress
)

// Leg is one piece of an Itinerary, in traversal order.
type Leg struct {
	Kind        Kind
	FromStop    tdp.StopID
	ToStop      tdp.StopID
	DepartTime  int
	ArriveTime  int
	Trip        tdp.TripID // valid iff Kind == Transit
}

// Itinerary is a complete access-to-egress rider path (spec §4.8).
type Itinerary struct {
	Legs        []Leg
	DepartTime  int
	ArriveTime  int
	Round       int
}

// Map reconstructs the itinerary ending at destRef, appending an egress
// leg of egressLeg's duration to destRef's stop. destRef must resolve
// to a record reached directly or indirectly from an access arrival
// (ArrivedBy == arrival.ByAccess); any other terminal is a caller bug
// (spec §9: the arena never contains partial/dangling chains once a
// minute iteration commits).
func Map(arena *arrival.Arena, destRef arrival.Ref, egressLeg tdp.AccessEgressLeg) (*Itinerary, error) {
	if destRef == arrival.NoRef {
		return nil, raptorerr.Wrap(raptorerr.PathReconstructionFailed, "destination ref is unset")
	}

	var reversed []Leg
	ref := destRef
	var departTime int

	for {
		rec := arena.Get(ref)
		if rec == nil {
			return nil, raptorerr.Wrap(raptorerr.PathReconstructionFailed, "dangling arrival reference")
		}

		switch rec.ArrivedBy {
		case arrival.ByAccess:
			departTime = rec.ArrivalTime - rec.CumulativeTravelDuration
			reversed = append(reversed, Leg{
				Kind:       Access,
				FromStop:   rec.Stop,
				ToStop:     rec.Stop,
				DepartTime: departTime,
				ArriveTime: rec.ArrivalTime,
			})
			goto assembled

		case arrival.ByTransit:
			reversed = append(reversed, Leg{
				Kind:       Transit,
				FromStop:   rec.BoardStop,
				ToStop:     rec.Stop,
				DepartTime: rec.BoardTime,
				ArriveTime: rec.ArrivalTime,
				Trip:       rec.Trip,
			})
			ref = rec.Previous

		case arrival.ByTransfer:
			prev := arena.Get(rec.Previous)
			if prev == nil {
				return nil, raptorerr.Wrap(raptorerr.PathReconstructionFailed, "dangling transfer predecessor")
			}
			reversed = append(reversed, Leg{
				Kind:       Transfer,
				FromStop:   rec.FromStop,
				ToStop:     rec.Stop,
				DepartTime: prev.ArrivalTime,
				ArriveTime: rec.ArrivalTime,
			})
			ref = rec.Previous

		default:
			return nil, raptorerr.Wrap(raptorerr.PathReconstructionFailed, "unrecognized arrival tag")
		}
	}

assembled:
	destRec := arena.Get(destRef)
	egressArrive := destRec.ArrivalTime + egressLeg.Duration
	legs := make([]Leg, 0, len(reversed)+1)
	for i := len(reversed) - 1; i >= 0; i-- {
		legs = append(legs, reversed[i])
	}
	legs = append(legs, Leg{
		Kind:       Egress,
		FromStop:   destRec.Stop,
		ToStop:     egressLeg.Stop,
		DepartTime: destRec.ArrivalTime,
		ArriveTime: egressArrive,
	})

	return &Itinerary{
		Legs:       legs,
		DepartTime: departTime,
		ArriveTime: egressArrive,
		Round:      destRec.Round,
	}, nil
}
