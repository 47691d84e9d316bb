package lineage

import (
	"testing"

	"github.com/AnniekStok/track-curator/pkg/graph"
)

func annotatedGraph() *graph.TrackingGraph {
	tg := graph.NewTrackingGraph()
	tg.AddNode("a", graph.NodeAttrs{T: 0, Position: []float64{0, 0}})
	tg.AddNode("b", graph.NodeAttrs{T: 1, Position: []float64{1, 0}})
	tg.AddNode("c", graph.NodeAttrs{T: 1, Position: []float64{0, 1}})
	tg.AddNode("d", graph.NodeAttrs{T: 2, Position: []float64{2, 0}})
	tg.AddEdge("a", "b", graph.EdgeAttrs{})
	tg.AddEdge("a", "c", graph.EdgeAttrs{})
	tg.AddEdge("b", "d", graph.EdgeAttrs{})
	return tg
}

func TestExistingPinsRoundTrip(t *testing.T) {
	tg := annotatedGraph()
	tg.SetPinned("a", "b", true)

	pins := ExistingPins(tg)
	if len(pins) != 1 {
		t.Fatalf("Expected 1 recovered pin, got %d", len(pins))
	}
	if pins[0] != [2]string{"a", "b"} {
		t.Errorf("Expected pin (a,b), got %v", pins[0])
	}
}

// False pins are not recoverable: the solver drops the edge from the
// solution, so only true pins survive a round trip. A false pin on an
// edge still present (as in this synthetic graph) is likewise ignored.
func TestExistingPinsIgnoresFalsePins(t *testing.T) {
	tg := annotatedGraph()
	tg.SetPinned("a", "b", true)
	tg.SetPinned("b", "d", false)

	pins := ExistingPins(tg)
	if len(pins) != 1 || pins[0] != [2]string{"a", "b"} {
		t.Errorf("Expected only the true pin (a,b), got %v", pins)
	}
}

func TestExistingForksEndpoints(t *testing.T) {
	tg := annotatedGraph()
	tg.SetFork("a")
	tg.SetEndpoint("d")

	forks, endpoints := ExistingForksEndpoints(tg)
	if len(forks) != 1 || forks[0] != "a" {
		t.Errorf("Expected forks=[a], got %v", forks)
	}
	if len(endpoints) != 1 || endpoints[0] != "d" {
		t.Errorf("Expected endpoints=[d], got %v", endpoints)
	}
}

func TestLineageTree(t *testing.T) {
	tg := annotatedGraph()

	descendants := LineageTree(tg, "a")
	if len(descendants) != 4 {
		t.Fatalf("Expected 4 nodes in lineage of a, got %d: %v", len(descendants), descendants)
	}

	fromB := LineageTree(tg, "b")
	if len(fromB) != 2 || fromB[0] != "b" || fromB[1] != "d" {
		t.Errorf("Expected lineage of b = [b d], got %v", fromB)
	}

	if LineageTree(tg, "missing") != nil {
		t.Error("Lineage of a missing node must be nil")
	}
}
