package solver

import (
	"context"
	"testing"

	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/model"
)

func candidateGraph() *graph.TrackingGraph {
	tg := graph.NewTrackingGraph()
	tg.AddNode("a", graph.NodeAttrs{T: 0, Position: []float64{0, 0}})
	tg.AddNode("near", graph.NodeAttrs{T: 1, Position: []float64{1, 0}})
	tg.AddNode("far", graph.NodeAttrs{T: 1, Position: []float64{15, 0}})
	tg.AddEdge("a", "near", graph.EdgeAttrs{Distance: 1})
	tg.AddEdge("a", "far", graph.EdgeAttrs{Distance: 15})
	return tg
}

func TestGreedyPrefersShortEdges(t *testing.T) {
	req := Request{Graph: candidateGraph(), Params: DefaultParams()}

	solution, err := NewGreedy().Solve(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Solve error = %v", err)
	}

	if !solution.HasEdge("a", "near") {
		t.Error("Expected the short edge a->near to be selected")
	}
	// With default division cost 20 and edge cost 15-20=-5, the second
	// child is not worth a division.
	if solution.HasEdge("a", "far") {
		t.Error("Expected the costly division a->far to be rejected")
	}
}

func TestGreedyHonorsPins(t *testing.T) {
	req := Request{
		Graph:  candidateGraph(),
		Params: DefaultParams(),
		Pins: []model.Pin{
			{Source: "a", Target: "near", Pinned: false},
			{Source: "a", Target: "far", Pinned: true},
		},
	}

	solution, err := NewGreedy().Solve(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Solve error = %v", err)
	}

	if solution.HasEdge("a", "near") {
		t.Error("Edge pinned false must not be selected")
	}
	if !solution.HasEdge("a", "far") {
		t.Error("Edge pinned true must be selected")
	}

	// The pin survives on the solution for the next extraction.
	attrs, ok := solution.Edge("a", "far")
	if !ok || attrs.Pinned == nil || !*attrs.Pinned {
		t.Error("Selected edge must carry its pinned attribute")
	}
}

func TestGreedyRejectsConflictingPins(t *testing.T) {
	tg := graph.NewTrackingGraph()
	tg.AddNode("a", graph.NodeAttrs{T: 0, Position: []float64{0, 0}})
	tg.AddNode("b", graph.NodeAttrs{T: 0, Position: []float64{9, 0}})
	tg.AddNode("c", graph.NodeAttrs{T: 1, Position: []float64{4, 0}})
	tg.AddEdge("a", "c", graph.EdgeAttrs{Distance: 4})
	tg.AddEdge("b", "c", graph.EdgeAttrs{Distance: 5})

	// Two connect pins onto the same target cannot both hold.
	req := Request{
		Graph:  tg,
		Params: DefaultParams(),
		Pins: []model.Pin{
			{Source: "a", Target: "c", Pinned: true},
			{Source: "b", Target: "c", Pinned: true},
		},
	}

	solution, err := NewGreedy().Solve(context.Background(), req, nil)
	if err == nil {
		t.Fatal("Expected an infeasibility error for two pinned parents")
	}
	if solution != nil {
		t.Error("An infeasible solve must not return a solution")
	}
}

func TestGreedyRejectsPinsBeyondMaxChildren(t *testing.T) {
	tg := graph.NewTrackingGraph()
	tg.AddNode("a", graph.NodeAttrs{T: 0, Position: []float64{0, 0}})
	tg.AddNode("b", graph.NodeAttrs{T: 1, Position: []float64{1, 0}})
	tg.AddNode("c", graph.NodeAttrs{T: 1, Position: []float64{2, 0}})
	tg.AddEdge("a", "b", graph.EdgeAttrs{Distance: 1})
	tg.AddEdge("a", "c", graph.EdgeAttrs{Distance: 2})

	params := DefaultParams()
	params.MaxChildren = 1
	req := Request{
		Graph:  tg,
		Params: params,
		Pins: []model.Pin{
			{Source: "a", Target: "b", Pinned: true},
			{Source: "a", Target: "c", Pinned: true},
		},
	}

	if _, err := NewGreedy().Solve(context.Background(), req, nil); err == nil {
		t.Fatal("Expected an infeasibility error when pins exceed max children")
	}
}

func TestGreedyHonorsForcedEndpoint(t *testing.T) {
	req := Request{
		Graph:           candidateGraph(),
		Params:          DefaultParams(),
		ForcedEndpoints: []string{"a"},
	}

	solution, err := NewGreedy().Solve(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Solve error = %v", err)
	}

	if len(solution.Successors("a")) != 0 {
		t.Error("Forced endpoint must keep no outgoing edges")
	}
	attrs, _ := solution.Node("a")
	if !attrs.Endpoint {
		t.Error("Forced endpoint annotation must survive on the solution")
	}
}

func TestGreedyForcedForkAllowsDivision(t *testing.T) {
	tg := graph.NewTrackingGraph()
	tg.AddNode("p", graph.NodeAttrs{T: 0, Position: []float64{0, 0}})
	tg.AddNode("c1", graph.NodeAttrs{T: 1, Position: []float64{5, 0}})
	tg.AddNode("c2", graph.NodeAttrs{T: 1, Position: []float64{15, 0}})
	tg.AddEdge("p", "c1", graph.EdgeAttrs{Distance: 5})
	tg.AddEdge("p", "c2", graph.EdgeAttrs{Distance: 15})

	req := Request{Graph: tg, Params: DefaultParams(), ForcedForks: []string{"p"}}

	solution, err := NewGreedy().Solve(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Solve error = %v", err)
	}

	if len(solution.Successors("p")) != 2 {
		t.Errorf("Forced fork should divide, got children %v", solution.Successors("p"))
	}
}

func TestGreedyMaxParents(t *testing.T) {
	tg := graph.NewTrackingGraph()
	tg.AddNode("a", graph.NodeAttrs{T: 0, Position: []float64{0, 0}})
	tg.AddNode("b", graph.NodeAttrs{T: 0, Position: []float64{2, 0}})
	tg.AddNode("c", graph.NodeAttrs{T: 1, Position: []float64{1, 0}})
	tg.AddEdge("a", "c", graph.EdgeAttrs{Distance: 1})
	tg.AddEdge("b", "c", graph.EdgeAttrs{Distance: 1})

	req := Request{Graph: tg, Params: DefaultParams()}
	solution, err := NewGreedy().Solve(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Solve error = %v", err)
	}

	if len(solution.Predecessors("c")) > 1 {
		t.Error("A node must never end up with two parents")
	}
	if err := solution.Validate(); err != nil {
		t.Errorf("Greedy solution must pass extraction validation, got %v", err)
	}
}

func TestGreedyReportsProgress(t *testing.T) {
	req := Request{Graph: candidateGraph(), Params: DefaultParams()}

	var events []string
	_, err := NewGreedy().Solve(context.Background(), req, func(event string) {
		events = append(events, event)
	})
	if err != nil {
		t.Fatalf("Solve error = %v", err)
	}
	if len(events) < 2 {
		t.Errorf("Expected at least 2 progress events, got %v", events)
	}
}

func TestGreedyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := Request{Graph: candidateGraph(), Params: DefaultParams()}
	if _, err := NewGreedy().Solve(ctx, req, nil); err == nil {
		t.Error("Expected error from cancelled context")
	}
}
