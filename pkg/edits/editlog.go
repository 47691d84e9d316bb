// Package edits accumulates pending edge edits between solves. The log
// is append-only while the user works; a successful solve submission
// consumes it and clears it.
package edits

import (
	"sync"

	"github.com/AnniekStok/track-curator/pkg/logging"
	"github.com/AnniekStok/track-curator/pkg/model"
	"github.com/AnniekStok/track-curator/pkg/pubsub"
)

// Entry is one recorded edge edit. The colors are display snapshots of
// the two tracks at edit time, shown in the pending-edits table.
type Entry struct {
	Source      string           `json:"source"`
	Target      string           `json:"target"`
	Action      model.EdgeAction `json:"action"`
	SourceColor model.RGBA       `json:"source_color"`
	TargetColor model.RGBA       `json:"target_color"`
}

// Log is the ordered list of pending edge edits.
type Log struct {
	mu        sync.Mutex
	entries   []Entry
	publisher pubsub.Publisher
}

// NewLog creates an empty edit log. The publisher may be nil.
func NewLog(publisher pubsub.Publisher) *Log {
	return &Log{publisher: publisher}
}

// Add appends an edge edit.
func (l *Log) Add(entry Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	count := len(l.entries)
	l.mu.Unlock()

	logging.Debug("edge edit recorded",
		"source", entry.Source, "target", entry.Target, "action", entry.Action)
	l.notify("appended", count)
}

// Entries returns a copy of the log in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of pending edits.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Pins derives the pin constraints for the next solve, in append order.
// A connect edit pins the edge true, a break edit pins it false. When
// the same edge appears more than once the entries stay in order and the
// later one wins on application, since applying a pin overwrites the
// edge attribute.
func (l *Log) Pins() []model.Pin {
	l.mu.Lock()
	defer l.mu.Unlock()

	pins := make([]model.Pin, 0, len(l.entries))
	for _, entry := range l.entries {
		pins = append(pins, model.Pin{
			Source: entry.Source,
			Target: entry.Target,
			Pinned: entry.Action == model.ActionConnect,
		})
	}
	return pins
}

// Clear empties the log, called after a solve submission consumed the
// current pins.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()

	l.notify("cleared", 0)
}

func (l *Log) notify(eventType string, count int) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(pubsub.TopicEditLog, eventType, pubsub.EditLogUpdate{Entries: count}); err != nil {
		logging.Warn("failed to publish edit log update", "error", err)
	}
}
