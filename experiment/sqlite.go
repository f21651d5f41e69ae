package experiment

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/gridhouse/metrics"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sweep_id     TEXT    NOT NULL,
	family       TEXT    NOT NULL,
	params       TEXT    NOT NULL,
	status       TEXT    NOT NULL,
	failure_kind TEXT    NOT NULL DEFAULT '',
	error        TEXT    NOT NULL DEFAULT '',
	metrics      TEXT    NOT NULL,
	fingerprint  TEXT    NOT NULL,
	artifact     BLOB,
	created_at   TEXT    NOT NULL
);
`

// SQLiteRecorder persists runs in a SQLite database through the pure-Go
// modernc.org/sqlite driver. The runs table is append-only: the only
// statement ever issued against it is a single INSERT per run, and the
// AUTOINCREMENT id keeps record order monotonic across restarts.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (or creates) the database at path and ensures
// the runs table exists. Use ":memory:" for an ephemeral recorder.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: failed to open sqlite database")
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent sweep workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "experiment: failed to create runs table")
	}

	return &SQLiteRecorder{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteRecorder) Close() error {
	return s.db.Close()
}

// Record inserts the run as a single row. One INSERT per run keeps the
// write atomic; a partially recorded run is impossible.
func (s *SQLiteRecorder) Record(run *Run) (int64, error) {
	if run == nil {
		return 0, errors.NewValueError("SQLiteRecorder.Record", "run must not be nil")
	}

	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return 0, errors.Wrap(err, "experiment: failed to marshal params")
	}
	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return 0, errors.Wrap(err, "experiment: failed to marshal metrics")
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.Exec(
		`INSERT INTO runs (sweep_id, family, params, status, failure_kind, error, metrics, fingerprint, artifact, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.SweepID, run.Family, string(paramsJSON), run.Status, run.FailureKind,
		run.Error, string(metricsJSON), run.Fingerprint, run.Artifact,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, errors.Wrap(err, "experiment: failed to insert run")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "experiment: failed to read inserted run id")
	}
	return id, nil
}

// List returns summaries of every recorded run in id order.
func (s *SQLiteRecorder) List() ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT id, sweep_id, family, params, status, failure_kind, metrics, created_at
		 FROM runs ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: failed to list runs")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			summary     Summary
			paramsJSON  string
			metricsJSON string
			createdAt   string
		)
		if err := rows.Scan(&summary.RunID, &summary.SweepID, &summary.Family,
			&paramsJSON, &summary.Status, &summary.FailureKind, &metricsJSON, &createdAt); err != nil {
			return nil, errors.Wrap(err, "experiment: failed to scan run row")
		}
		if err := decodeRunColumns(paramsJSON, metricsJSON, createdAt,
			&summary.Params, &summary.Metrics, &summary.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "experiment: failed to iterate runs")
	}
	return out, nil
}

// Get returns the full run, artifact included.
func (s *SQLiteRecorder) Get(id int64) (*Run, error) {
	var (
		run         Run
		paramsJSON  string
		metricsJSON string
		createdAt   string
	)
	err := s.db.QueryRow(
		`SELECT id, sweep_id, family, params, status, failure_kind, error, metrics, fingerprint, artifact, created_at
		 FROM runs WHERE id = ?`, id).
		Scan(&run.RunID, &run.SweepID, &run.Family, &paramsJSON, &run.Status,
			&run.FailureKind, &run.Error, &metricsJSON, &run.Fingerprint,
			&run.Artifact, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("run", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "experiment: failed to load run")
	}
	if err := decodeRunColumns(paramsJSON, metricsJSON, createdAt,
		&run.Params, &run.Metrics, &run.CreatedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

func decodeRunColumns(paramsJSON, metricsJSON, createdAt string,
	params *map[string]any, m *metrics.Metrics, ts *time.Time) error {
	if err := json.Unmarshal([]byte(paramsJSON), params); err != nil {
		return errors.Wrap(err, "experiment: failed to unmarshal params")
	}
	if err := json.Unmarshal([]byte(metricsJSON), m); err != nil {
		return errors.Wrap(err, "experiment: failed to unmarshal metrics")
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return errors.Wrap(err, "experiment: failed to parse created_at")
	}
	*ts = parsed
	return nil
}
