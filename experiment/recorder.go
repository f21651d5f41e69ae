package experiment

import (
	"sync"
	"time"

	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// Recorder persists sweep runs. Implementations are append-only:
// Record never overwrites an existing run, and the assigned ids are
// strictly increasing in record order.
type Recorder interface {
	// Record stores the run and returns its assigned id. The caller's
	// run value is not mutated.
	Record(run *Run) (int64, error)

	// List returns summaries of every recorded run in id order.
	List() ([]Summary, error)

	// Get returns the full run, including its artifact. Unknown ids
	// yield a NotFoundError.
	Get(id int64) (*Run, error)
}

// MemoryRecorder keeps runs in memory. Safe for concurrent use by the
// sweep workers.
type MemoryRecorder struct {
	mu     sync.Mutex
	nextID int64
	runs   []*Run
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{nextID: 1}
}

// Record appends a copy of the run with the next monotonic id.
func (m *MemoryRecorder) Record(run *Run) (int64, error) {
	if run == nil {
		return 0, errors.NewValueError("MemoryRecorder.Record", "run must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := run.clone()
	stored.RunID = m.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.nextID++
	m.runs = append(m.runs, stored)

	return stored.RunID, nil
}

// List returns summaries in record order.
func (m *MemoryRecorder) List() ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Summary, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, summarize(run))
	}
	return out, nil
}

// Get returns a copy of the stored run.
func (m *MemoryRecorder) Get(id int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, run := range m.runs {
		if run.RunID == id {
			return run.clone(), nil
		}
	}
	return nil, errors.NewNotFoundError("run", id)
}
