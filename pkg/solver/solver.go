// Package solver defines the contract with the external combinatorial
// solver: a constrained candidate graph plus cost terms go in, a
// selected subgraph comes out. The optimization itself lives outside
// this repository; the greedy selector here is a stand-in so the tool is
// usable without an ILP backend attached.
package solver

import (
	"context"

	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/logging"
	"github.com/AnniekStok/track-curator/pkg/model"
)

// Params are the numeric cost and constraint settings for a solve. A nil
// pointer disables that cost term.
type Params struct {
	MaxEdgeDistance float64  `koanf:"max_edge_distance" json:"max_edge_distance"`
	MaxChildren     int      `koanf:"max_children" json:"max_children"`
	AppearCost      *float64 `koanf:"appear_cost" json:"appear_cost,omitempty"`
	DisappearCost   *float64 `koanf:"disappear_cost" json:"disappear_cost,omitempty"`
	DivisionCost    *float64 `koanf:"division_cost" json:"division_cost,omitempty"`
	DistanceWeight  *float64 `koanf:"distance_weight" json:"distance_weight,omitempty"`
	DistanceOffset  *float64 `koanf:"distance_offset" json:"distance_offset,omitempty"`
	IOUWeight       *float64 `koanf:"iou_weight" json:"iou_weight,omitempty"`
	IOUOffset       *float64 `koanf:"iou_offset" json:"iou_offset,omitempty"`
}

func ptr(v float64) *float64 { return &v }

// DefaultParams returns the defaults tuned for typical cell datasets.
func DefaultParams() Params {
	return Params{
		MaxEdgeDistance: 50,
		MaxChildren:     2,
		AppearCost:      ptr(30),
		DisappearCost:   ptr(30),
		DivisionCost:    ptr(20),
		DistanceWeight:  ptr(1),
		DistanceOffset:  ptr(-20),
		IOUWeight:       ptr(-5),
		IOUOffset:       ptr(0),
	}
}

// Request is one solve submission: the candidate graph, the pin
// constraints derived from the edit log, and the forced node roles from
// the track table annotations.
type Request struct {
	Graph           *graph.TrackingGraph
	Pins            []model.Pin
	ForcedForks     []string
	ForcedEndpoints []string
	Params          Params
}

// ProgressFunc receives incremental solver progress. The session runner
// checks its abort flag here; solvers must call it at least once per
// major phase.
type ProgressFunc func(event string)

// Solver is the external optimization collaborator.
type Solver interface {
	// Solve selects a subgraph of the candidate graph satisfying the
	// request's constraints. The returned graph carries the pinned,
	// fork and endpoint attributes of the selected elements so a later
	// extraction can recover prior annotations.
	Solve(ctx context.Context, req Request, onProgress ProgressFunc) (*graph.TrackingGraph, error)
}

// ApplyAnnotations writes the request's pins and forced roles onto the
// candidate graph before submission. Pins for edges missing from the
// candidate graph can occur when the max edge distance changed between
// solves; they are logged and skipped. Later pins for the same edge
// overwrite earlier ones.
func ApplyAnnotations(req Request) {
	for _, pin := range req.Pins {
		if !req.Graph.SetPinned(pin.Source, pin.Target, pin.Pinned) {
			logging.Warn("pinned edge not in candidate graph, skipping",
				"source", pin.Source, "target", pin.Target)
		}
	}
	for _, id := range req.ForcedForks {
		if !req.Graph.SetFork(id) {
			logging.Warn("forced fork node not in candidate graph, skipping", "node", id)
		}
	}
	for _, id := range req.ForcedEndpoints {
		if !req.Graph.SetEndpoint(id) {
			logging.Warn("forced endpoint node not in candidate graph, skipping", "node", id)
		}
	}
}
