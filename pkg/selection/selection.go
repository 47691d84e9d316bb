// Package selection tracks the nodes the user currently has selected.
// The list holds row snapshots taken at selection time, never references
// into the track table, and is bounded at two entries: every edit
// gesture operates on one node (fork/endpoint/reset) or two nodes
// (connect/break an edge).
package selection

import (
	"sync"

	"github.com/AnniekStok/track-curator/pkg/logging"
	"github.com/AnniekStok/track-curator/pkg/model"
	"github.com/AnniekStok/track-curator/pkg/pubsub"
)

// MaxSelected is the hard upper bound on the selection length.
const MaxSelected = 2

// List is the ordered, bounded selection. It is cleared on every new
// extraction and mutated only by user click-equivalent events.
type List struct {
	mu        sync.Mutex
	nodes     []model.TrackNode
	publisher pubsub.Publisher
}

// NewList creates an empty selection list. The publisher may be nil.
func NewList(publisher pubsub.Publisher) *List {
	return &List{publisher: publisher}
}

// Append adds a row snapshot to the selection. With extend set and
// exactly one node selected the new node becomes the second entry;
// otherwise the selection is replaced. A full selection is cleared
// before the append logic applies, so an extend-append onto two selected
// nodes yields a single-node selection of the new node.
func (l *List) Append(node model.TrackNode, extend bool) {
	l.mu.Lock()
	if len(l.nodes) >= MaxSelected {
		l.nodes = l.nodes[:0]
	}
	if extend && len(l.nodes) == 1 {
		l.nodes = append(l.nodes, node)
	} else {
		l.nodes = []model.TrackNode{node}
	}
	l.mu.Unlock()

	l.notify()
}

// Flip swaps the two selected nodes. With any other selection length it
// is a no-op.
func (l *List) Flip() {
	l.mu.Lock()
	if len(l.nodes) != 2 {
		l.mu.Unlock()
		return
	}
	l.nodes[0], l.nodes[1] = l.nodes[1], l.nodes[0]
	l.mu.Unlock()

	l.notify()
}

// Reset clears the selection.
func (l *List) Reset() {
	l.mu.Lock()
	l.nodes = nil
	l.mu.Unlock()

	l.notify()
}

// Len returns the current selection length.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.nodes)
}

// Nodes returns a copy of the selected snapshots in order.
func (l *List) Nodes() []model.TrackNode {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.TrackNode, len(l.nodes))
	copy(out, l.nodes)
	return out
}

// Refresh re-reads the snapshots through the given lookup, used after a
// row annotation changed so the displayed selection stays current.
// Snapshots whose node vanished from the table are dropped.
func (l *List) Refresh(lookup func(nodeID string) (model.TrackNode, error)) {
	l.mu.Lock()
	changed := false
	kept := l.nodes[:0]
	for _, node := range l.nodes {
		fresh, err := lookup(node.NodeID)
		if err != nil {
			changed = true
			continue
		}
		if fresh.State != node.State || fresh.Annotated != node.Annotated ||
			fresh.TrackID != node.TrackID || fresh.XAxisPos != node.XAxisPos ||
			fresh.Color != node.Color {
			changed = true
		}
		kept = append(kept, fresh)
	}
	l.nodes = kept
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// CheckConnection reports whether the two selected nodes can be joined
// by an edge: exactly two nodes, one time point apart. When connectable,
// the selection is reordered so the earlier time point comes first,
// making index 0 the edge source for the subsequent edit. Any other
// selection length returns false without error, matching the disabled
// buttons in the UI.
func (l *List) CheckConnection() bool {
	l.mu.Lock()
	if len(l.nodes) != 2 {
		l.mu.Unlock()
		return false
	}
	t1, t2 := l.nodes[0].T, l.nodes[1].T
	if t2-t1 != 1 && t1-t2 != 1 {
		l.mu.Unlock()
		logging.Debug("selected nodes are not one time point apart", "t1", t1, "t2", t2)
		return false
	}
	flipped := false
	if t2 < t1 {
		l.nodes[0], l.nodes[1] = l.nodes[1], l.nodes[0]
		flipped = true
	}
	l.mu.Unlock()

	if flipped {
		l.notify()
	}
	return true
}

func (l *List) notify() {
	if l.publisher == nil {
		return
	}

	l.mu.Lock()
	ids := make([]string, len(l.nodes))
	for i, node := range l.nodes {
		ids[i] = node.NodeID
	}
	l.mu.Unlock()

	if err := l.publisher.Publish(pubsub.TopicSelection, "updated", pubsub.SelectionUpdate{NodeIDs: ids}); err != nil {
		logging.Warn("failed to publish selection update", "error", err)
	}
}
