package solver

import (
	"context"

	"github.com/AnniekStok/track-curator/pkg/graph"
)

// MockSolver is a scripted Solver for tests: it records the request it
// received, emits the configured progress events, and returns a preset
// solution or error.
type MockSolver struct {
	Solution       *graph.TrackingGraph
	Err            error
	ProgressEvents []string

	// LastRequest is the most recent request passed to Solve.
	LastRequest *Request
	// CallCount counts Solve invocations.
	CallCount int
	// Block, when non-nil, is closed by the test to let Solve return.
	Block chan struct{}
}

// Solve implements Solver.
func (m *MockSolver) Solve(ctx context.Context, req Request, onProgress ProgressFunc) (*graph.TrackingGraph, error) {
	m.CallCount++
	reqCopy := req
	m.LastRequest = &reqCopy

	for _, event := range m.ProgressEvents {
		if onProgress != nil {
			onProgress(event)
		}
	}

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Solution, nil
}
