package runs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AnniekStok/track-curator/pkg/logging"
)

// ChangeEvent is a batch of run files that changed on disk.
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// Watcher watches the run directory for run files written or removed by
// other processes.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan ChangeEvent
	done    chan struct{}
	mu      sync.Mutex
}

// NewWatcher creates a watcher for the given run directory.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		dir:     dir,
		events:  make(chan ChangeEvent, 100),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. Events are batched per flush interval so a
// burst of writes produces one ChangeEvent.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch run directory %s: %w", w.dir, err)
	}

	logging.Info("started watching run directory", "path", w.dir)

	go w.processEvents(ctx)
	return nil
}

// Events returns the channel of batched change events.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Done is closed when the watcher has fully shut down.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) processEvents(ctx context.Context) {
	var changed []string

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		if len(changed) == 0 {
			return
		}
		w.events <- ChangeEvent{Paths: changed, Timestamp: time.Now()}
		changed = nil
	}

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			close(w.events)
			close(w.done)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			name := filepath.Base(event.Name)
			// Ignore in-progress writes; Save renames a temp file
			// into place, so only the final name matters.
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			logging.Debug("run file changed", "path", event.Name, "op", event.Op.String())
			changed = append(changed, event.Name)
			flushTimer.Reset(100 * time.Millisecond)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", "error", err)

		case <-flushTimer.C:
			flush()
		}
	}
}

// Debouncer batches rapid change events so a burst of external writes
// triggers a single reload.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a debouncer reading from input.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		timer        *time.Timer
		maxWaitTimer *time.Timer
		accumulated  []string
	)

	flush := func() {
		if len(accumulated) == 0 {
			return
		}

		logging.Debug("flushing accumulated run changes", "count", len(accumulated))

		d.output <- ChangeEvent{Paths: accumulated, Timestamp: time.Now()}
		accumulated = nil

		if timer != nil {
			timer.Stop()
		}
		if maxWaitTimer != nil {
			maxWaitTimer.Stop()
			maxWaitTimer = nil
		}
	}

	timerC := func(t *time.Timer) <-chan time.Time {
		if t != nil {
			return t.C
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			accumulated = append(accumulated, event.Paths...)

			if timer == nil {
				timer = time.NewTimer(d.quietPeriod)
			} else {
				timer.Reset(d.quietPeriod)
			}
			if maxWaitTimer == nil {
				maxWaitTimer = time.NewTimer(d.maxWait)
			}

		case <-timerC(timer):
			flush()

		case <-timerC(maxWaitTimer):
			flush()
		}
	}
}

// Output returns the channel of debounced events.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
