package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// NodeAttrs holds the per-detection attributes stored on a graph node.
type NodeAttrs struct {
	T        int       `json:"t"`
	Position []float64 `json:"position"` // (y,x) or (z,y,x)

	// Annotations carried on a solved graph so a later extraction can
	// recover them. Never set on candidate nodes.
	Fork     bool `json:"fork,omitempty"`
	Endpoint bool `json:"endpoint,omitempty"`
}

// EdgeAttrs holds the per-link attributes stored on a graph edge.
type EdgeAttrs struct {
	Distance float64 `json:"distance"`
	IOU      float64 `json:"iou,omitempty"`

	// Pinned is nil when the edge is unconstrained, otherwise the forced
	// selection value for the solver.
	Pinned *bool `json:"pinned,omitempty"`
}

// TrackingGraph is a directed graph of detections linked forward in time.
// It wraps a gonum directed graph and keeps the mapping between opaque
// string node ids and gonum's int64 ids, plus the attribute tables.
//
// Node iteration order is the insertion order. That makes traversals
// deterministic, but the order itself is an implementation detail and
// carries no meaning beyond reproducibility.
type TrackingGraph struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64
	names  map[int64]string
	order  []string
	nodes  map[string]*NodeAttrs
	edges  map[[2]string]*EdgeAttrs
	nextID int64
}

// NewTrackingGraph creates an empty tracking graph.
func NewTrackingGraph() *TrackingGraph {
	return &TrackingGraph{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
		nodes: make(map[string]*NodeAttrs),
		edges: make(map[[2]string]*EdgeAttrs),
	}
}

// AddNode adds a detection to the graph. Adding an existing id replaces
// its attributes.
func (tg *TrackingGraph) AddNode(id string, attrs NodeAttrs) {
	if _, exists := tg.ids[id]; !exists {
		tg.ids[id] = tg.nextID
		tg.names[tg.nextID] = id
		tg.graph.AddNode(simple.Node(tg.nextID))
		tg.order = append(tg.order, id)
		tg.nextID++
	}
	a := attrs
	tg.nodes[id] = &a
}

// AddEdge adds a temporal link between two existing detections. Both
// endpoints must have been added first; unknown endpoints are ignored.
func (tg *TrackingGraph) AddEdge(source, target string, attrs EdgeAttrs) {
	sid, ok := tg.ids[source]
	if !ok {
		return
	}
	tid, ok := tg.ids[target]
	if !ok {
		return
	}
	if !tg.graph.HasEdgeFromTo(sid, tid) {
		tg.graph.SetEdge(tg.graph.NewEdge(tg.graph.Node(sid), tg.graph.Node(tid)))
	}
	a := attrs
	tg.edges[[2]string{source, target}] = &a
}

// Node returns the attributes for a node id.
func (tg *TrackingGraph) Node(id string) (*NodeAttrs, bool) {
	attrs, ok := tg.nodes[id]
	return attrs, ok
}

// Edge returns the attributes for an edge.
func (tg *TrackingGraph) Edge(source, target string) (*EdgeAttrs, bool) {
	attrs, ok := tg.edges[[2]string{source, target}]
	return attrs, ok
}

// HasEdge reports whether the edge exists.
func (tg *TrackingGraph) HasEdge(source, target string) bool {
	_, ok := tg.edges[[2]string{source, target}]
	return ok
}

// SetPinned forces the selection value of an edge for the next solve.
// Reports whether the edge exists.
func (tg *TrackingGraph) SetPinned(source, target string, pinned bool) bool {
	attrs, ok := tg.edges[[2]string{source, target}]
	if !ok {
		return false
	}
	v := pinned
	attrs.Pinned = &v
	return true
}

// SetFork marks a node as a forced division for the next solve.
func (tg *TrackingGraph) SetFork(id string) bool {
	attrs, ok := tg.nodes[id]
	if ok {
		attrs.Fork = true
		attrs.Endpoint = false
	}
	return ok
}

// SetEndpoint marks a node as a forced track end for the next solve.
func (tg *TrackingGraph) SetEndpoint(id string) bool {
	attrs, ok := tg.nodes[id]
	if ok {
		attrs.Endpoint = true
		attrs.Fork = false
	}
	return ok
}

// Len returns the number of nodes.
func (tg *TrackingGraph) Len() int {
	return len(tg.order)
}

// NodeIDs returns all node ids in insertion order.
func (tg *TrackingGraph) NodeIDs() []string {
	out := make([]string, len(tg.order))
	copy(out, tg.order)
	return out
}

// Successors returns the targets of all outgoing edges of id, ordered by
// insertion order for determinism.
func (tg *TrackingGraph) Successors(id string) []string {
	return tg.neighbors(id, true)
}

// Predecessors returns the sources of all incoming edges of id, ordered
// by insertion order for determinism.
func (tg *TrackingGraph) Predecessors(id string) []string {
	return tg.neighbors(id, false)
}

func (tg *TrackingGraph) neighbors(id string, out bool) []string {
	gid, ok := tg.ids[id]
	if !ok {
		return nil
	}
	var iter = tg.graph.To(gid)
	if out {
		iter = tg.graph.From(gid)
	}
	var result []string
	for iter.Next() {
		result = append(result, tg.names[iter.Node().ID()])
	}
	sort.Slice(result, func(i, j int) bool {
		return tg.ids[result[i]] < tg.ids[result[j]]
	})
	return result
}

// OutDegree returns the number of outgoing edges of a node.
func (tg *TrackingGraph) OutDegree(id string) int {
	gid, ok := tg.ids[id]
	if !ok {
		return 0
	}
	return tg.graph.From(gid).Len()
}

// InDegree returns the number of incoming edges of a node.
func (tg *TrackingGraph) InDegree(id string) int {
	gid, ok := tg.ids[id]
	if !ok {
		return 0
	}
	return tg.graph.To(gid).Len()
}

// Edges returns all edges as (source, target) pairs in deterministic
// order (by source then target insertion order).
func (tg *TrackingGraph) Edges() [][2]string {
	result := make([][2]string, 0, len(tg.edges))
	for key := range tg.edges {
		result = append(result, key)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i][0] != result[j][0] {
			return tg.ids[result[i][0]] < tg.ids[result[j][0]]
		}
		return tg.ids[result[i][1]] < tg.ids[result[j][1]]
	})
	return result
}
