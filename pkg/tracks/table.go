// Package tracks owns the row set produced by lineage extraction and is
// the single source of truth for annotation state. All consumers read
// through it; presentation adapters learn about changes via pubsub
// instead of holding references into the rows.
package tracks

import (
	"fmt"
	"sync"

	"github.com/AnniekStok/track-curator/pkg/logging"
	"github.com/AnniekStok/track-curator/pkg/model"
	"github.com/AnniekStok/track-curator/pkg/pubsub"
)

// Table is the normalized track table: one row per node, ordered as
// produced by extraction. Rows are owned exclusively by the table;
// lookups return copies.
type Table struct {
	mu        sync.RWMutex
	rows      []*model.TrackNode
	index     map[string]int // node id -> row index
	publisher pubsub.Publisher
}

// NewTable creates an empty table. The publisher may be nil for tests
// that do not care about notifications.
func NewTable(publisher pubsub.Publisher) *Table {
	return &Table{
		index:     make(map[string]int),
		publisher: publisher,
	}
}

// ReplaceAll atomically swaps the entire table contents. Consumers never
// observe a partially updated table: the new row slice and index are
// built completely before the swap. Outstanding selection snapshots
// reference the old rows and must be refreshed by their holders.
func (t *Table) ReplaceAll(rows []*model.TrackNode) {
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		index[row.NodeID] = i
	}

	t.mu.Lock()
	t.rows = rows
	t.index = index
	t.mu.Unlock()

	logging.Debug("track table replaced", "rows", len(rows))
	t.notify("replaced", "")
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Lookup returns a copy of the row for a node id.
func (t *Table) Lookup(nodeID string) (model.TrackNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.index[nodeID]
	if !ok {
		return model.TrackNode{}, fmt.Errorf("lookup %q: %w", nodeID, model.ErrNotFound)
	}
	return *t.rows[i], nil
}

// RowIndex returns the position of a node id in row order.
func (t *Table) RowIndex(nodeID string) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.index[nodeID]
	if !ok {
		return 0, fmt.Errorf("row index %q: %w", nodeID, model.ErrNotFound)
	}
	return i, nil
}

// Rows returns a copy of all rows in table order.
func (t *Table) Rows() []model.TrackNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.TrackNode, len(t.rows))
	for i, row := range t.rows {
		out[i] = *row
	}
	return out
}

// RowsWhere returns copies of all rows matching the predicate, in table
// order. Used by the track, lineage and annotated display filters.
func (t *Table) RowsWhere(pred func(*model.TrackNode) bool) []model.TrackNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []model.TrackNode
	for _, row := range t.rows {
		if pred(row) {
			out = append(out, *row)
		}
	}
	return out
}

// SetFork marks a node as a user-asserted division. A prior endpoint
// mark on the same node is cleared; the two states are exclusive.
func (t *Table) SetFork(nodeID string) error {
	return t.setState(nodeID, model.StateFork, true)
}

// SetEndpoint marks a node as a user-asserted track end, clearing a
// prior fork mark.
func (t *Table) SetEndpoint(nodeID string) error {
	return t.setState(nodeID, model.StateEndpoint, true)
}

// ResetNode removes any fork or endpoint mark. Resetting an already
// clean node is a harmless no-op with the same result.
func (t *Table) ResetNode(nodeID string) error {
	return t.setState(nodeID, model.StateNone, false)
}

func (t *Table) setState(nodeID string, state model.NodeState, annotated bool) error {
	t.mu.Lock()
	i, ok := t.index[nodeID]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("annotate %q: %w", nodeID, model.ErrNotFound)
	}
	row := t.rows[i]
	row.State = state
	row.Annotated = annotated
	row.Symbol = model.SymbolFor(state)
	t.mu.Unlock()

	t.notify("row_updated", nodeID)
	return nil
}

// ForksEndpoints returns the node ids carrying user fork and endpoint
// annotations, fed to the solver as forced constraints.
func (t *Table) ForksEndpoints() (forks, endpoints []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, row := range t.rows {
		if !row.Annotated {
			continue
		}
		switch row.State {
		case model.StateFork:
			forks = append(forks, row.NodeID)
		case model.StateEndpoint:
			endpoints = append(endpoints, row.NodeID)
		}
	}
	return forks, endpoints
}

func (t *Table) notify(eventType, nodeID string) {
	if t.publisher == nil {
		return
	}

	t.mu.RLock()
	annotated := 0
	for _, row := range t.rows {
		if row.Annotated {
			annotated++
		}
	}
	update := pubsub.TableUpdate{Rows: len(t.rows), NodeID: nodeID, Annotated: annotated}
	t.mu.RUnlock()

	if err := t.publisher.Publish(pubsub.TopicTrackTable, eventType, update); err != nil {
		logging.Warn("failed to publish table update", "error", err)
	}
}
