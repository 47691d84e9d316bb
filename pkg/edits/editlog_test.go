package edits

import (
	"testing"

	"github.com/AnniekStok/track-curator/pkg/model"
)

func TestPinsDerivation(t *testing.T) {
	log := NewLog(nil)
	log.Add(Entry{Source: "a", Target: "b", Action: model.ActionConnect})
	log.Add(Entry{Source: "b", Target: "c", Action: model.ActionBreak})

	pins := log.Pins()
	if len(pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(pins))
	}
	if !pins[0].Pinned || pins[0].Source != "a" || pins[0].Target != "b" {
		t.Errorf("Expected a->b pinned true, got %+v", pins[0])
	}
	if pins[1].Pinned || pins[1].Source != "b" || pins[1].Target != "c" {
		t.Errorf("Expected b->c pinned false, got %+v", pins[1])
	}
}

func TestLaterEntrySamePairKeepsOrder(t *testing.T) {
	log := NewLog(nil)
	log.Add(Entry{Source: "a", Target: "b", Action: model.ActionConnect})
	log.Add(Entry{Source: "a", Target: "b", Action: model.ActionBreak})

	// Both entries survive in append order; applying them in order makes
	// the break win.
	pins := log.Pins()
	if len(pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(pins))
	}
	if pins[1].Pinned {
		t.Error("Expected the later break entry to come last")
	}
}

func TestClear(t *testing.T) {
	log := NewLog(nil)
	log.Add(Entry{Source: "a", Target: "b", Action: model.ActionConnect})
	log.Clear()

	if log.Len() != 0 {
		t.Errorf("Expected empty log after clear, got %d entries", log.Len())
	}
	if len(log.Pins()) != 0 {
		t.Error("Expected no pins after clear")
	}
}

func TestEntriesIsACopy(t *testing.T) {
	log := NewLog(nil)
	log.Add(Entry{Source: "a", Target: "b", Action: model.ActionConnect})

	entries := log.Entries()
	entries[0].Source = "mutated"

	if log.Entries()[0].Source != "a" {
		t.Error("Mutating the returned slice must not affect the log")
	}
}
