package colorutil

import "testing"

func TestTrackColorDeterministic(t *testing.T) {
	for trackID := 1; trackID <= 50; trackID++ {
		first := TrackColor(trackID)
		second := TrackColor(trackID)
		if first != second {
			t.Fatalf("TrackColor(%d) not deterministic: %+v vs %+v", trackID, first, second)
		}
		if first.A != 255 {
			t.Errorf("TrackColor(%d) alpha = %d, want 255", trackID, first.A)
		}
	}
}

func TestAdjacentTracksDiffer(t *testing.T) {
	for trackID := 1; trackID <= 20; trackID++ {
		a := TrackColor(trackID)
		b := TrackColor(trackID + 1)
		if a == b {
			t.Errorf("Tracks %d and %d share color %+v", trackID, trackID+1, a)
		}
	}
}
