// Package runs persists tracking runs to disk and watches the run
// directory for external changes. A run is a self-contained snapshot:
// the input detections, the solver parameters, and the annotations the
// user had applied when it was saved.
package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/model"
	"github.com/AnniekStok/track-curator/pkg/solver"
)

// Run is one saved tracking session.
type Run struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	Detections []graph.Detection `json:"detections"`
	Params     solver.Params     `json:"params"`

	// Rows is the solved table at save time, kept so a run can be
	// inspected without re-solving.
	Rows []model.TrackNode `json:"rows,omitempty"`

	Pins      []model.Pin `json:"pins,omitempty"`
	Forks     []string    `json:"forks,omitempty"`
	Endpoints []string    `json:"endpoints,omitempty"`
}

// Info is the listing view of a run, without the detection payload.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// Store reads and writes runs under a single directory, one JSON file
// per run named by its id.
type Store struct {
	dir string
}

// NewStore creates the run directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the run to disk, assigning an id and creation time if the
// run has none. The write goes through a temp file so a watcher never
// observes a half-written run.
func (s *Store) Save(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".run-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write run %s: %w", run.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(run.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store run %s: %w", run.ID, err)
	}
	return nil
}

// Load reads one run by id. A missing run reports model.ErrNotFound.
func (s *Store) Load(id string) (*Run, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read run %s: %w", id, err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &run, nil
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list run directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		run, err := s.Load(id)
		if err != nil {
			// Skip files that are not runs, e.g. leftovers from
			// other tools dropped into the directory.
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:        run.ID,
			Name:      run.Name,
			CreatedAt: run.CreatedAt,
			Size:      stat.Size(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Delete removes a run. Deleting a missing run reports model.ErrNotFound.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
