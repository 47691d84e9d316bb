package selection

import (
	"errors"
	"testing"

	"github.com/AnniekStok/track-curator/pkg/model"
)

func node(id string, t int) model.TrackNode {
	return model.TrackNode{NodeID: id, T: t, Position: []float64{0, 0}}
}

func TestAppendReplaceAndExtend(t *testing.T) {
	list := NewList(nil)

	list.Append(node("x", 0), false)
	list.Append(node("y", 1), true)

	nodes := list.Nodes()
	if len(nodes) != 2 || nodes[0].NodeID != "x" || nodes[1].NodeID != "y" {
		t.Fatalf("Expected [x y], got %v", nodes)
	}

	// Plain append replaces, never extends to 3.
	list.Append(node("z", 2), false)
	nodes = list.Nodes()
	if len(nodes) != 1 || nodes[0].NodeID != "z" {
		t.Errorf("Expected [z], got %v", nodes)
	}
}

func TestAppendExtendOnFullSelectionResetsFirst(t *testing.T) {
	list := NewList(nil)
	list.Append(node("x", 0), false)
	list.Append(node("y", 1), true)

	// Extend-append onto a full selection clears before appending.
	list.Append(node("z", 2), true)
	nodes := list.Nodes()
	if len(nodes) != 1 || nodes[0].NodeID != "z" {
		t.Errorf("Expected [z], got %v", nodes)
	}
}

func TestLengthInvariant(t *testing.T) {
	list := NewList(nil)
	for i := 0; i < 10; i++ {
		list.Append(node("n", i), i%2 == 0)
		if list.Len() > MaxSelected {
			t.Fatalf("Selection length %d exceeds bound after %d appends", list.Len(), i+1)
		}
		list.Flip()
		if list.Len() > MaxSelected {
			t.Fatalf("Selection length %d exceeds bound after flip", list.Len())
		}
	}
	list.Reset()
	if list.Len() != 0 {
		t.Errorf("Expected empty selection after reset, got %d", list.Len())
	}
}

func TestFlipRequiresTwo(t *testing.T) {
	list := NewList(nil)
	list.Append(node("x", 0), false)
	list.Flip()

	nodes := list.Nodes()
	if len(nodes) != 1 || nodes[0].NodeID != "x" {
		t.Errorf("Flip on single selection must be a no-op, got %v", nodes)
	}
}

func TestCheckConnectionReorders(t *testing.T) {
	list := NewList(nil)
	list.Append(node("late", 2), false)
	list.Append(node("early", 1), true)

	if !list.CheckConnection() {
		t.Fatal("Expected nodes one time point apart to be connectable")
	}

	nodes := list.Nodes()
	if nodes[0].NodeID != "early" || nodes[1].NodeID != "late" {
		t.Errorf("Expected earlier node first, got [%s %s]", nodes[0].NodeID, nodes[1].NodeID)
	}
}

func TestCheckConnectionRejectsGaps(t *testing.T) {
	list := NewList(nil)
	list.Append(node("a", 0), false)
	list.Append(node("b", 3), true)

	if list.CheckConnection() {
		t.Error("Nodes three time points apart must not be connectable")
	}

	list.Reset()
	list.Append(node("only", 0), false)
	if list.CheckConnection() {
		t.Error("Single-node selection must not be connectable")
	}
}

func TestRefreshDropsVanishedNodes(t *testing.T) {
	list := NewList(nil)
	list.Append(node("keep", 0), false)
	list.Append(node("gone", 1), true)

	list.Refresh(func(nodeID string) (model.TrackNode, error) {
		if nodeID == "keep" {
			fresh := node("keep", 0)
			fresh.State = model.StateFork
			return fresh, nil
		}
		return model.TrackNode{}, errors.New("not found")
	})

	nodes := list.Nodes()
	if len(nodes) != 1 || nodes[0].NodeID != "keep" {
		t.Fatalf("Expected [keep], got %v", nodes)
	}
	if nodes[0].State != model.StateFork {
		t.Error("Refresh must pick up the current annotation state")
	}
}

func TestRefreshUpdatesAnnotationInPlace(t *testing.T) {
	list := NewList(nil)
	list.Append(node("a", 0), false)

	list.Refresh(func(nodeID string) (model.TrackNode, error) {
		fresh := node(nodeID, 0)
		fresh.State = model.StateEndpoint
		fresh.Annotated = true
		return fresh, nil
	})

	nodes := list.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	if nodes[0].State != model.StateEndpoint || !nodes[0].Annotated {
		t.Errorf("Snapshot after Refresh = %+v, want annotated endpoint", nodes[0])
	}
}
