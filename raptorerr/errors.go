// Package raptorerr defines the sentinel error kinds shared across the
// core (spec §7). Every kind is a package-level sentinel so callers can
// use errors.Is after github.com/pkg/errors wrapping.
package raptorerr

import "github.com/pkg/errors"

var (
	// NoFareLegRuleMatch is fatal to the journey being priced: no fare
	// leg rule matched the ride, so it is unpriceable.
	NoFareLegRuleMatch = errors.New("NO_FARE_LEG_RULE_MATCH")

	// UnsupportedFareRule marks a fare_transfer_type the calculator
	// cannot evaluate. Fatal to the journey, non-fatal to the search.
	UnsupportedFareRule = errors.New("UNSUPPORTED_FARE_RULE")

	// DirectoryTraversal is returned before any I/O when a FileStore key
	// contains "../" or "..\\".
	DirectoryTraversal = errors.New("DIRECTORY_TRAVERSAL")

	// ModificationUnmatchedStop fires when a reroute modification names
	// a from_stop/to_stop not present on a pattern; warning when applied
	// route-wide, error when applied to named patterns.
	ModificationUnmatchedStop = errors.New("MODIFICATION_UNMATCHED_STOP")

	// ModificationInconsistentTimings fires on a dwell/hop-count
	// mismatch; always fatal.
	ModificationInconsistentTimings = errors.New("MODIFICATION_INCONSISTENT_TIMINGS")

	// Cancelled names the cancellation error kind. No function in this
	// module returns it; request.RunParallel reports cancellation as the
	// context's own error.
	Cancelled = errors.New("CANCELLED")

	// Timeout names the wall-clock-budget error kind. No function in
	// this module returns it.
	Timeout = errors.New("TIMEOUT")

	// PathReconstructionFailed marks an arrival-arena chain the path
	// mapper could not walk to a root (dangling ref, missing predecessor,
	// or an arrival tag it does not recognize).
	PathReconstructionFailed = errors.New("PATH_RECONSTRUCTION_FAILED")
)

// Wrap attaches a contextual message to a sentinel error while keeping
// it unwrappable via errors.Is.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}
