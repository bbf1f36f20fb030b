// Package lifecycle replaces the process-wide static state (debug flags,
// timer registries) the spec's Design Notes (§9) flag as something to
// re-architect: every subsystem receives an explicit Context instead of
// reaching into globals.
package lifecycle

import (
	"github.com/rs/zerolog"
)

// Tracer receives debug tracing events for stops/paths named in a
// Request's debug options (spec §6.1 debug.stops / debug.path). The
// zero Tracer is a safe no-op.
type Tracer struct {
	Stops  map[int]bool
	Path   map[int]bool
	Logger zerolog.Logger
}

// TraceStop reports whether stop should be traced.
func (t Tracer) TraceStop(stop int) bool {
	if t.Stops == nil {
		return false
	}
	return t.Stops[stop]
}

// Callbacks are the Worker life-cycle hooks spec §4.4 and §9 describe:
// setup_iteration, round_start, transits_for_round_complete,
// transfers_for_round_complete, iteration_complete. Every field is
// optional; a nil callback is simply not invoked.
type Callbacks struct {
	OnSetupIteration             func(departureTime int)
	OnRoundStart                 func(round int)
	OnTransitsForRoundComplete   func(round int)
	OnTransfersForRoundComplete  func(round int)
	OnIterationComplete          func(departureTime int)
}

// Context is the explicit object threaded through the Worker and its
// subsystems at construction, replacing any package-level mutable
// state (spec §9 Design Notes).
type Context struct {
	Logger    zerolog.Logger
	Tracer    Tracer
	Callbacks Callbacks
}

// New builds a Context with the given logger; callbacks and tracer can
// be set afterwards, following Go's options-by-assignment idiom rather
// than a long constructor parameter list.
func New(logger zerolog.Logger) *Context {
	return &Context{Logger: logger}
}

func (c *Context) setupIteration(departureTime int) {
	if c.Callbacks.OnSetupIteration != nil {
		c.Callbacks.OnSetupIteration(departureTime)
	}
}

func (c *Context) roundStart(round int) {
	if c.Callbacks.OnRoundStart != nil {
		c.Callbacks.OnRoundStart(round)
	}
}

func (c *Context) transitsForRoundComplete(round int) {
	if c.Callbacks.OnTransitsForRoundComplete != nil {
		c.Callbacks.OnTransitsForRoundComplete(round)
	}
}

func (c *Context) transfersForRoundComplete(round int) {
	if c.Callbacks.OnTransfersForRoundComplete != nil {
		c.Callbacks.OnTransfersForRoundComplete(round)
	}
}

func (c *Context) iterationComplete(departureTime int) {
	if c.Callbacks.OnIterationComplete != nil {
		c.Callbacks.OnIterationComplete(departureTime)
	}
}

// SetupIteration, RoundStart, TransitsForRoundComplete,
// TransfersForRoundComplete and IterationComplete are the exported
// entry points the Worker calls at each life-cycle boundary (spec
// §4.4). They are thin forwarders so external packages (raptor,
// roundtracker) never need direct field access to Callbacks.
func (c *Context) SetupIteration(departureTime int)            { c.setupIteration(departureTime) }
func (c *Context) RoundStart(round int)                        { c.roundStart(round) }
func (c *Context) TransitsForRoundComplete(round int)          { c.transitsForRoundComplete(round) }
func (c *Context) TransfersForRoundComplete(round int)         { c.transfersForRoundComplete(round) }
func (c *Context) IterationComplete(departureTime int)         { c.iterationComplete(departureTime) }
