// Package web exposes the curation core over HTTP: JSON endpoints for
// the table, selection, edits and runs, plus SSE subscriptions so a UI
// can react to change notifications without polling.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/AnniekStok/track-curator/pkg/edits"
	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/lineage"
	"github.com/AnniekStok/track-curator/pkg/logging"
	"github.com/AnniekStok/track-curator/pkg/model"
	"github.com/AnniekStok/track-curator/pkg/pubsub"
	"github.com/AnniekStok/track-curator/pkg/runs"
	"github.com/AnniekStok/track-curator/pkg/selection"
	"github.com/AnniekStok/track-curator/pkg/session"
	"github.com/AnniekStok/track-curator/pkg/solver"
	"github.com/AnniekStok/track-curator/pkg/tracks"
	"github.com/AnniekStok/track-curator/pkg/view"
)

//go:embed static/*
var staticFiles embed.FS

// Server exposes one curation session over HTTP.
type Server struct {
	router    *mux.Router
	runner    *session.Runner
	table     *tracks.Table
	selection *selection.List
	editLog   *edits.Log
	store     *runs.Store
	publisher pubsub.Publisher

	mu         sync.Mutex
	detections []graph.Detection
	params     solver.Params
}

// NewServer wires the curation components behind the HTTP API. The
// publisher must be the same one the components publish to.
func NewServer(runner *session.Runner, table *tracks.Table, sel *selection.List,
	editLog *edits.Log, store *runs.Store, publisher *pubsub.SSEPublisher) *Server {

	// Solver status events are transient: new subscribers only need the
	// current state. Table and edit log events are counters, same deal.
	for _, topic := range []string{
		pubsub.TopicTrackTable,
		pubsub.TopicSelection,
		pubsub.TopicEditLog,
		pubsub.TopicSolverStatus,
	} {
		publisher.ConfigureTopic(topic, pubsub.TopicConfig{
			BufferSize: 10,
			ReplayAll:  false,
		})
	}

	s := &Server{
		router:    mux.NewRouter(),
		runner:    runner,
		table:     table,
		selection: sel,
		editLog:   editLog,
		store:     store,
		publisher: publisher,
		params:    solver.DefaultParams(),
	}
	s.setupRoutes()
	return s
}

// SetDetections stages the detections the next solve will run on.
func (s *Server) SetDetections(detections []graph.Detection) {
	s.mu.Lock()
	s.detections = detections
	s.mu.Unlock()
}

// SetParams stages the solver parameters for the next solve.
func (s *Server) SetParams(params solver.Params) {
	s.mu.Lock()
	s.params = params
	s.mu.Unlock()
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoint, one per topic
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/table", s.handleTable).Methods("GET")
	s.router.HandleFunc("/api/table/{node}", s.handleTableRow).Methods("GET")
	s.router.HandleFunc("/api/presentation", s.handlePresentation).Methods("GET")

	s.router.HandleFunc("/api/selection", s.handleSelection).Methods("GET")
	s.router.HandleFunc("/api/selection/click", s.handleSelectionClick).Methods("POST")
	s.router.HandleFunc("/api/selection/flip", s.handleSelectionFlip).Methods("POST")
	s.router.HandleFunc("/api/selection/reset", s.handleSelectionReset).Methods("POST")

	s.router.HandleFunc("/api/nodes/{node}/fork", s.handleNodeFork).Methods("POST")
	s.router.HandleFunc("/api/nodes/{node}/endpoint", s.handleNodeEndpoint).Methods("POST")
	s.router.HandleFunc("/api/nodes/{node}/reset", s.handleNodeReset).Methods("POST")

	s.router.HandleFunc("/api/edits", s.handleEditLog).Methods("GET")
	s.router.HandleFunc("/api/edits", s.handleEdgeEdit).Methods("POST")
	s.router.HandleFunc("/api/edits/pins", s.handlePins).Methods("GET")

	s.router.HandleFunc("/api/solve", s.handleSolve).Methods("POST")
	s.router.HandleFunc("/api/solve/abort", s.handleAbort).Methods("POST")
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")

	s.router.HandleFunc("/api/params", s.handleGetParams).Methods("GET")
	s.router.HandleFunc("/api/params", s.handleSetParams).Methods("PUT")

	s.router.HandleFunc("/api/runs", s.handleListRuns).Methods("GET")
	s.router.HandleFunc("/api/runs", s.handleSaveRun).Methods("POST")
	s.router.HandleFunc("/api/runs/{id}", s.handleGetRun).Methods("GET")
	s.router.HandleFunc("/api/runs/{id}", s.handleDeleteRun).Methods("DELETE")
	s.router.HandleFunc("/api/runs/{id}/open", s.handleOpenRun).Methods("POST")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

var sseTopics = map[string]bool{
	pubsub.TopicTrackTable:   true,
	pubsub.TopicSelection:    true,
	pubsub.TopicEditLog:      true,
	pubsub.TopicSolverStatus: true,
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if !sseTopics[topic] {
		writeError(w, fmt.Errorf("unknown topic %q: %w", topic, model.ErrNotFound))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.Warn("failed to write SSE event", "topic", topic, "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.table.Rows())
}

func (s *Server) handleTableRow(w http.ResponseWriter, r *http.Request) {
	row, err := s.table.Lookup(mux.Vars(r)["node"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, row)
}

func (s *Server) handlePresentation(w http.ResponseWriter, r *http.Request) {
	mode := view.DisplayMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = view.ModeAll
	}

	rows := s.table.Rows()
	var pins [][2]string
	descendants := func(string) []string { return nil }
	if solution := s.runner.Solution(); solution != nil {
		pins = lineage.ExistingPins(solution)
		descendants = func(nodeID string) []string {
			return lineage.LineageTree(solution, nodeID)
		}
	}

	presentation := view.Build(rows, pins)
	nodeMask := view.Visibility(rows, mode, s.selection.Nodes(), descendants, s.editLog.Entries())

	selectedRows := make([]int, 0, selection.MaxSelected)
	for _, node := range s.selection.Nodes() {
		if i, err := s.table.RowIndex(node.NodeID); err == nil {
			selectedRows = append(selectedRows, i)
		}
	}
	presentation.Sizes = view.GrowSelected(presentation.Sizes, selectedRows)

	writeJSON(w, map[string]interface{}{
		"mode":         mode,
		"presentation": presentation,
		"node_mask":    nodeMask,
		"edge_mask":    view.EdgeVisibility(presentation.Edges, nodeMask),
	})
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.selection.Nodes())
}

func (s *Server) handleSelectionClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID string `json:"node_id"`
		Extend bool   `json:"extend"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// A click on empty space clears the selection.
	if req.NodeID == "" {
		s.selection.Reset()
		writeJSON(w, s.selection.Nodes())
		return
	}

	node, err := s.table.Lookup(req.NodeID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.selection.Append(node, req.Extend)
	writeJSON(w, s.selection.Nodes())
}

func (s *Server) handleSelectionFlip(w http.ResponseWriter, r *http.Request) {
	s.selection.Flip()
	writeJSON(w, s.selection.Nodes())
}

func (s *Server) handleSelectionReset(w http.ResponseWriter, r *http.Request) {
	s.selection.Reset()
	writeJSON(w, s.selection.Nodes())
}

func (s *Server) handleNodeFork(w http.ResponseWriter, r *http.Request) {
	s.nodeStateHandler(w, r, s.table.SetFork)
}

func (s *Server) handleNodeEndpoint(w http.ResponseWriter, r *http.Request) {
	s.nodeStateHandler(w, r, s.table.SetEndpoint)
}

func (s *Server) handleNodeReset(w http.ResponseWriter, r *http.Request) {
	s.nodeStateHandler(w, r, s.table.ResetNode)
}

func (s *Server) nodeStateHandler(w http.ResponseWriter, r *http.Request, op func(string) error) {
	nodeID := mux.Vars(r)["node"]
	if err := op(nodeID); err != nil {
		writeError(w, err)
		return
	}
	// Selection snapshots of the mutated row are stale now.
	s.selection.Refresh(s.table.Lookup)
	row, err := s.table.Lookup(nodeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, row)
}

func (s *Server) handleEditLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.editLog.Entries())
}

func (s *Server) handlePins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.editLog.Pins())
}

// handleEdgeEdit records a connect or break edit for the current
// selection pair. A selection that cannot form an edge is a no-op and
// reports applied=false, matching the disabled edit buttons in a UI.
func (s *Server) handleEdgeEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action model.EdgeAction `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Action != model.ActionConnect && req.Action != model.ActionBreak {
		http.Error(w, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}

	if !s.selection.CheckConnection() {
		writeJSON(w, map[string]interface{}{"applied": false})
		return
	}

	nodes := s.selection.Nodes()
	s.editLog.Add(edits.Entry{
		Source:      nodes[0].NodeID,
		Target:      nodes[1].NodeID,
		Action:      req.Action,
		SourceColor: nodes[0].Color,
		TargetColor: nodes[1].Color,
	})
	writeJSON(w, map[string]interface{}{"applied": true, "entries": s.editLog.Len()})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	if s.runner.Running() {
		writeError(w, model.ErrSolveInProgress)
		return
	}

	s.mu.Lock()
	detections := s.detections
	params := s.params
	s.mu.Unlock()

	if len(detections) == 0 {
		http.Error(w, "no detections loaded", http.StatusBadRequest)
		return
	}

	// The solve outlives the request; Abort is the cancellation path.
	go func() {
		if err := s.runner.Solve(context.Background(), detections, params); err != nil {
			logging.Error("solve failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{"state": "solving"})
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	s.runner.Abort()
	writeJSON(w, map[string]interface{}{"aborting": s.runner.Running()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	detections := len(s.detections)
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"running":    s.runner.Running(),
		"rows":       s.table.Len(),
		"edits":      s.editLog.Len(),
		"detections": detections,
	})
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	params := s.params
	s.mu.Unlock()
	writeJSON(w, params)
}

func (s *Server) handleSetParams(w http.ResponseWriter, r *http.Request) {
	var params solver.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.SetParams(params)
	writeJSON(w, params)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []runs.Info{}
	}
	writeJSON(w, infos)
}

// handleSaveRun snapshots the live session: detections, parameters and
// the annotations the user has applied so far.
func (s *Server) handleSaveRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	detections := s.detections
	params := s.params
	s.mu.Unlock()

	forks, endpoints := s.table.ForksEndpoints()
	run := &runs.Run{
		Name:       req.Name,
		Detections: detections,
		Params:     params,
		Rows:       s.table.Rows(),
		Pins:       s.editLog.Pins(),
		Forks:      forks,
		Endpoints:  endpoints,
	}
	if err := s.store.Save(run); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Load(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenRun stages a stored run as the live session. The saved pins
// become edit log entries so the next solve honors them; saved forks and
// endpoints re-apply onto the table where the nodes still exist.
func (s *Server) handleOpenRun(w http.ResponseWriter, r *http.Request) {
	if s.runner.Running() {
		writeError(w, model.ErrSolveInProgress)
		return
	}

	run, err := s.store.Load(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	s.SetDetections(run.Detections)
	s.SetParams(run.Params)

	s.selection.Reset()
	s.editLog.Clear()
	for _, pin := range run.Pins {
		action := model.ActionConnect
		if !pin.Pinned {
			action = model.ActionBreak
		}
		s.editLog.Add(edits.Entry{Source: pin.Source, Target: pin.Target, Action: action})
	}
	for _, id := range run.Forks {
		if err := s.table.SetFork(id); err != nil {
			logging.Warn("saved fork not in current table", "node", id)
		}
	}
	for _, id := range run.Endpoints {
		if err := s.table.SetEndpoint(id); err != nil {
			logging.Warn("saved endpoint not in current table", "node", id)
		}
	}
	s.selection.Refresh(s.table.Lookup)

	writeJSON(w, run)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var invalidGraph *model.InvalidGraphError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrSolveInProgress):
		status = http.StatusConflict
	case errors.As(err, &invalidGraph):
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, logging.RequestLogMiddleware(s.router))
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
