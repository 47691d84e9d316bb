// Package session orchestrates the curation cycle: candidate graph plus
// accumulated annotations in, solved and extracted track table out.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AnniekStok/track-curator/pkg/colorutil"
	"github.com/AnniekStok/track-curator/pkg/edits"
	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/lineage"
	"github.com/AnniekStok/track-curator/pkg/logging"
	"github.com/AnniekStok/track-curator/pkg/model"
	"github.com/AnniekStok/track-curator/pkg/pubsub"
	"github.com/AnniekStok/track-curator/pkg/selection"
	"github.com/AnniekStok/track-curator/pkg/solver"
	"github.com/AnniekStok/track-curator/pkg/tracks"
)

// Runner drives solve cycles against one track table. At most one solve
// runs at a time; a request while one is active is rejected, not queued.
type Runner struct {
	solver    solver.Solver
	table     *tracks.Table
	selection *selection.List
	editLog   *edits.Log
	publisher pubsub.Publisher

	running atomic.Bool
	abort   atomic.Bool

	mu       sync.RWMutex
	solution *graph.TrackingGraph
}

// NewRunner creates a runner. The publisher may be nil.
func NewRunner(s solver.Solver, table *tracks.Table, sel *selection.List, log *edits.Log, publisher pubsub.Publisher) *Runner {
	return &Runner{
		solver:    s,
		table:     table,
		selection: sel,
		editLog:   log,
		publisher: publisher,
	}
}

// Solution returns the most recent solved graph, used by the lineage
// display filter. Nil before the first successful solve.
func (r *Runner) Solution() *graph.TrackingGraph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.solution
}

// Running reports whether a solve is in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Abort requests that the running solve stop at its next progress
// callback. No-op when idle. Current solvers finish quickly; the flag is
// a hook for long-running backends.
func (r *Runner) Abort() {
	if r.running.Load() {
		r.abort.Store(true)
	}
}

// Solve runs one full cycle: build the candidate graph from the
// detections, attach the pending pins and the forced forks/endpoints,
// submit to the solver, then extract the solution into the track table.
// The edit log is cleared only after the solver consumed its pins, and
// the table is swapped only after a fully successful extraction: a
// failed solve leaves table, selection and edit log untouched.
func (r *Runner) Solve(ctx context.Context, detections []graph.Detection, params solver.Params) error {
	if !r.running.CompareAndSwap(false, true) {
		return model.ErrSolveInProgress
	}
	defer r.running.Store(false)
	r.abort.Store(false)

	start := time.Now()
	r.publishStatus("solving", fmt.Sprintf("solving %d detections", len(detections)), "")

	candidate, err := graph.BuildCandidateGraph(detections, params.MaxEdgeDistance)
	if err != nil {
		r.publishStatus("error", err.Error(), "")
		return fmt.Errorf("building candidate graph: %w", err)
	}

	forks, endpoints := r.table.ForksEndpoints()
	req := solver.Request{
		Graph:           candidate,
		Pins:            r.editLog.Pins(),
		ForcedForks:     forks,
		ForcedEndpoints: endpoints,
		Params:          params,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	onProgress := func(event string) {
		if r.abort.Load() {
			cancel()
			return
		}
		r.publishStatus("solving", "solver running", event)
	}

	solution, err := r.solver.Solve(ctx, req, onProgress)
	if err != nil {
		r.publishStatus("error", err.Error(), "")
		return fmt.Errorf("solve failed: %w", err)
	}
	logging.Info("solve finished",
		"nodes", solution.Len(), "edges", len(solution.Edges()), "took", time.Since(start))

	r.publishStatus("extracting", "extracting lineage tree", "")
	rows, err := lineage.ExtractSortedTracks(solution, colorutil.TrackColor)
	if err != nil {
		r.publishStatus("error", err.Error(), "")
		return fmt.Errorf("extracting tracks: %w", err)
	}

	r.mu.Lock()
	r.solution = solution
	r.mu.Unlock()

	r.table.ReplaceAll(rows)

	// The swap invalidated all outstanding selection snapshots.
	r.selection.Reset()

	// Re-apply annotations that survived on the solution, so they stay
	// visible and feed into the next solve.
	recoveredForks, recoveredEndpoints := lineage.ExistingForksEndpoints(solution)
	for _, id := range recoveredForks {
		if err := r.table.SetFork(id); err != nil {
			logging.Warn("recovered fork no longer in table", "node", id)
		}
	}
	for _, id := range recoveredEndpoints {
		if err := r.table.SetEndpoint(id); err != nil {
			logging.Warn("recovered endpoint no longer in table", "node", id)
		}
	}

	r.editLog.Clear()

	r.publishStatus("ready", fmt.Sprintf("%d tracks extracted", len(rows)), "")
	return nil
}

func (r *Runner) publishStatus(state, message, event string) {
	if r.publisher == nil {
		return
	}
	status := pubsub.SolverStatus{State: state, Message: message, Event: event}
	if err := r.publisher.Publish(pubsub.TopicSolverStatus, "progress", status); err != nil {
		logging.Warn("failed to publish solver status", "error", err)
	}
}
