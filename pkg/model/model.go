package model

import (
	"errors"
	"fmt"
)

// NoParent is the explicit "no predecessor" marker for lineage roots.
// The zero track id doubles as the serialized parent_track_id sentinel,
// but code should test with IsRoot rather than comparing against it.
const NoParent = ""

// RootTrackID is the parent_track_id written for lineage roots.
const RootTrackID = 0

// NodeState is a user-declared role for a node, independent of the
// topology of the solved graph.
type NodeState string

const (
	StateNone     NodeState = "none"
	StateFork     NodeState = "fork"     // node is asserted to divide
	StateEndpoint NodeState = "endpoint" // node is asserted to terminate
)

// Symbol is the plot marker derived from a node's state.
type Symbol string

const (
	SymbolCircle   Symbol = "circle"
	SymbolTriangle Symbol = "triangle"
	SymbolCross    Symbol = "cross"
)

// SymbolFor returns the plot marker for a node state.
func SymbolFor(state NodeState) Symbol {
	switch state {
	case StateFork:
		return SymbolTriangle
	case StateEndpoint:
		return SymbolCross
	default:
		return SymbolCircle
	}
}

// RGBA is a color with 0-255 channels, derived deterministically from a
// track id by the colormap.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// TrackNode is one row of the track table: a single detected object at a
// single time point, plus the derived layout and annotation fields.
// Identity (NodeID, T, Position) is immutable; TrackID, ParentTrackID and
// XAxisPos are recomputed on every extraction and carry no stable meaning
// across solves.
type TrackNode struct {
	NodeID   string    `json:"node_id"`
	T        int       `json:"t"`
	Position []float64 `json:"position"` // (y,x) or (z,y,x), fixed per dataset

	TrackID       int    `json:"track_id"`        // per-chain id, 1-based
	ParentID      string `json:"parent_id"`       // NoParent for roots
	ParentTrackID int    `json:"parent_track_id"` // RootTrackID for roots
	XAxisPos      int    `json:"x_axis_pos"`      // plot column, same for a whole track

	Color     RGBA      `json:"color"`
	Annotated bool      `json:"annotated"`
	State     NodeState `json:"state"`
	Symbol    Symbol    `json:"symbol"`
}

// IsRoot reports whether the node starts a lineage.
func (n *TrackNode) IsRoot() bool {
	return n.ParentID == NoParent
}

// Z returns the z coordinate and whether the dataset is 3D.
func (n *TrackNode) Z() (float64, bool) {
	if len(n.Position) == 3 {
		return n.Position[0], true
	}
	return 0, false
}

// Y returns the y coordinate.
func (n *TrackNode) Y() float64 {
	return n.Position[len(n.Position)-2]
}

// X returns the x coordinate.
func (n *TrackNode) X() float64 {
	return n.Position[len(n.Position)-1]
}

// EdgeAction is a pending user edit on an edge.
type EdgeAction string

const (
	ActionConnect EdgeAction = "connect"
	ActionBreak   EdgeAction = "break"
)

// Pin is a forced true/false constraint on a single candidate edge for
// the next solve.
type Pin struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Pinned bool   `json:"pinned"`
}

// ErrNotFound is returned when a referenced node id is absent from the
// track table. Callers are expected to no-op or warn, never crash.
var ErrNotFound = errors.New("node not found")

// ErrSolveInProgress is returned when a solve is requested while one is
// already running. Requests are rejected, not queued.
var ErrSolveInProgress = errors.New("solve already in progress")

// InvalidGraphError indicates that a graph violated an extraction
// precondition. The extraction is abandoned and the previous table state
// is left untouched.
type InvalidGraphError struct {
	NodeID string
	Reason string
}

func (e *InvalidGraphError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("invalid tracking graph: %s", e.Reason)
	}
	return fmt.Sprintf("invalid tracking graph at node %q: %s", e.NodeID, e.Reason)
}
