package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the curation core. Presentation adapters subscribe
// to these instead of holding references into the data model.
const (
	TopicTrackTable   = "track_table"   // table replaced or a row annotation changed
	TopicSelection    = "selection"     // selection list mutated
	TopicEditLog      = "edit_log"      // edge edit appended or log cleared
	TopicSolverStatus = "solver_status" // solve lifecycle and progress
)

// Event is a single published notification.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "replaced", "row_updated", "appended", "progress"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic counter for ordering
}

// Subscription is a client's view of one topic.
type Subscription interface {
	// Topic returns the subscription topic.
	Topic() string

	// Events returns the channel events are delivered on.
	Events() <-chan Event

	// Close closes the subscription.
	Close() error
}

// Publisher manages subscriptions and event delivery.
type Publisher interface {
	// Subscribe creates a new subscription to a topic. Cancelling the
	// context closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic.
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions.
	Close() error
}

// TableUpdate is the payload for track_table events.
type TableUpdate struct {
	Rows      int    `json:"rows"`
	NodeID    string `json:"node_id,omitempty"` // set for single-row updates
	Annotated int    `json:"annotated"`         // rows carrying a user annotation
}

// SelectionUpdate is the payload for selection events.
type SelectionUpdate struct {
	NodeIDs []string `json:"node_ids"`
}

// EditLogUpdate is the payload for edit_log events.
type EditLogUpdate struct {
	Entries int `json:"entries"`
}

// SolverStatus is the payload for solver_status events.
type SolverStatus struct {
	State   string `json:"state"` // idle, solving, extracting, ready, error
	Message string `json:"message"`
	Event   string `json:"event,omitempty"` // raw progress line from the solver
}
