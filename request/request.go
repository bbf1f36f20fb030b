// Package request holds the Request option struct (spec §6.1) and the
// Build wiring function that assembles a ready-to-run Worker from a
// Transit Data Provider plus the requested options.
package request

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/transitnetworks/raptorcore/boardsearch"
	"github.com/transitnetworks/raptorcore/fares"
	"github.com/transitnetworks/raptorcore/lifecycle"
	"github.com/transitnetworks/raptorcore/raptor"
	"github.com/transitnetworks/raptorcore/tdp"
)

// Profile selects which Worker variant answers a Request.
type Profile int

const (
	// ProfileRangeRaptor is the plain, single-criterion worker.
	ProfileRangeRaptor Profile = iota
	// ProfileMultiCriteriaRangeRaptor is the pareto-frontier worker.
	ProfileMultiCriteriaRangeRaptor
)

// Optimization is one of the toggles in the §6.1 "optimizations" set.
type Optimization int

const (
	// Parallel names fanning multiple Requests across a bounded
	// goroutine pool; RunParallel does that fan-out and does not read
	// this toggle.
	Parallel Optimization = iota
	// PruneAgainstDestination names pruning candidates by a heuristics
	// lower bound. Build and the workers do not read this toggle.
	PruneAgainstDestination
	// TransfersStopFilter names restricting transfer relaxation to
	// heuristically reachable stops. Build and the workers do not read
	// this toggle.
	TransfersStopFilter
)

// Request configures a single search (spec §6.1).
type Request struct {
	FromTime               int
	ToTime                 int
	DepartureStep          int
	BoardSlack             int
	MaxRounds              int
	MaxAdditionalTransfers int
	AccessLegs             []tdp.AccessEgressLeg
	EgressLegs             []tdp.AccessEgressLeg
	Profile                Profile
	Optimizations          map[Optimization]bool
	FareOptions            fares.Options
	RelaxCostAtDestination float64
	Relax                  []float64
	CostModel              raptor.CostModel
	FareCacheCapacity      int
	Debug                  DebugOptions
}

// DebugOptions carries the no-semantic-effect tracing knobs (spec
// §6.1 "debug.stops[]", "debug.path[]", "debug.logger"). Build copies
// them into the lifecycle.Tracer; no worker consults the Tracer, so they
// do not change search output or logging.
type DebugOptions struct {
	Stops  []tdp.StopID
	Path   []tdp.StopID
	Logger zerolog.Logger
}

func toStopSet(stops []tdp.StopID) map[int]bool {
	if len(stops) == 0 {
		return nil
	}
	set := make(map[int]bool, len(stops))
	for _, s := range stops {
		set[int(s)] = true
	}
	return set
}

// HasOptimization reports whether opt is requested.
func (r Request) HasOptimization(opt Optimization) bool {
	return r.Optimizations[opt]
}

func (r Request) departureStep() int {
	if r.DepartureStep > 0 {
		return r.DepartureStep
	}
	return raptor.DefaultDepartureStep
}

// Worker is the minimal surface Build hands back: a callable plain or
// multi-criteria search plus the fare calculator it wired in, if any.
type Worker struct {
	Provider tdp.Provider
	Plain    *raptor.PlainWorker
	MultiC   *raptor.MultiCriteriaWorker
	Fares    *fares.Calculator
	Context  *lifecycle.Context
	req      Request
}

// Run executes the plain worker and returns its result, whatever
// req.Profile says. Build sets Plain for every profile except
// ProfileMultiCriteriaRangeRaptor; for that profile Plain is nil and
// RunMultiCriteria is the entry point.
func (w *Worker) Run() raptor.PlainResult {
	return w.Plain.Run(raptor.PlainParams{
		FromTime:               w.req.FromTime,
		ToTime:                 w.req.ToTime,
		Step:                   w.req.departureStep(),
		BoardSlack:             w.req.BoardSlack,
		MaxRounds:              w.req.MaxRounds,
		MaxAdditionalTransfers: w.req.MaxAdditionalTransfers,
		AccessLegs:             w.req.AccessLegs,
		EgressLegs:             w.req.EgressLegs,
	})
}

// RunMultiCriteria executes req against the pareto-frontier worker.
func (w *Worker) RunMultiCriteria() raptor.MultiCriteriaResult {
	relax := w.req.Relax
	if relax == nil {
		relax = raptor.DefaultRelax
	}
	return w.MultiC.Run(raptor.MultiCriteriaParams{
		FromTime:               w.req.FromTime,
		ToTime:                 w.req.ToTime,
		Step:                   w.req.departureStep(),
		BoardSlack:             w.req.BoardSlack,
		MaxRounds:              w.req.MaxRounds,
		MaxAdditionalTransfers: w.req.MaxAdditionalTransfers,
		AccessLegs:             w.req.AccessLegs,
		EgressLegs:             w.req.EgressLegs,
		CostModel:              w.req.CostModel,
		Relax:                  relax,
	})
}

// Build assembles a Worker for provider per req: a board-search index,
// a lifecycle.Context wired to req.Debug, the requested RAPTOR variant,
// and — whenever req.FareCacheCapacity is positive — a
// fares.Calculator the caller can invoke per priced journey. Grounded
// on the teacher's plain construction of its searcher/worker pair in
// mod.go, generalized into one factory that switches on req.Profile
// (spec §6.1 "profile").
func Build(provider tdp.Provider, req Request) *Worker {
	search := boardsearch.New(provider, boardsearch.DefaultFilter(provider))

	lc := lifecycle.New(req.Debug.Logger)
	lc.Tracer.Stops = toStopSet(req.Debug.Stops)
	lc.Tracer.Path = toStopSet(req.Debug.Path)
	lc.Tracer.Logger = req.Debug.Logger

	w := &Worker{Provider: provider, Context: lc, req: req}

	switch req.Profile {
	case ProfileMultiCriteriaRangeRaptor:
		w.MultiC = raptor.NewMultiCriteriaWorker(provider, search, lc)
	default:
		w.Plain = raptor.NewPlainWorker(provider, search, lc)
	}

	if req.FareCacheCapacity > 0 {
		w.Fares = fares.New(provider, req.FareOptions, req.FareCacheCapacity, req.Debug.Logger)
	}

	return w
}

// MaxParallelism caps the "parallel" optimization's fan-out width at
// the host's GOMAXPROCS, per SPEC_FULL.md §6.
func MaxParallelism() int {
	return runtime.GOMAXPROCS(0)
}
