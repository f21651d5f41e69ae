// Package experiment records sweep runs. A Run is an immutable,
// append-only record of one model-family/hyperparameter attempt:
// what was trained, on which data fingerprint, how it scored (or why
// it failed), and the serialized model artifact for succeeded runs.
package experiment

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/YuminosukeSato/gridhouse/metrics"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Failure kinds attached to failed runs.
const (
	FailureFit              = "fit_failure"
	FailureDegenerateTarget = "degenerate_target"
	FailureInvalidTarget    = "invalid_target"
	FailureEvaluation       = "evaluation_failure"
	FailurePanic            = "panic"
)

// Run is one recorded sweep attempt. RunID is zero until the run is
// handed to a Recorder; the recorder assigns a monotonically increasing
// id at record time and never mutates any other field.
type Run struct {
	RunID       int64           `json:"run_id"`
	SweepID     string          `json:"sweep_id"`
	Family      string          `json:"family"`
	Params      map[string]any  `json:"params"`
	Status      string          `json:"status"`
	FailureKind string          `json:"failure_kind,omitempty"`
	Error       string          `json:"error,omitempty"`
	Metrics     metrics.Metrics `json:"metrics"`
	Fingerprint string          `json:"fingerprint"`
	Artifact    []byte          `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Succeeded reports whether the run trained and evaluated cleanly.
func (r *Run) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// EncodeArtifact gob-serializes a fitted model into the run.
func (r *Run) EncodeArtifact(model any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(model); err != nil {
		return errors.Wrap(err, "experiment: failed to encode model artifact")
	}
	r.Artifact = buf.Bytes()
	return nil
}

// LoadArtifact gob-decodes the stored model artifact into model, which
// must be a pointer to the same concrete type that was recorded.
func (r *Run) LoadArtifact(model any) error {
	if len(r.Artifact) == 0 {
		return errors.NewValueError("Run.LoadArtifact", "run has no model artifact")
	}
	if err := gob.NewDecoder(bytes.NewReader(r.Artifact)).Decode(model); err != nil {
		return errors.Wrap(err, "experiment: failed to decode model artifact")
	}
	return nil
}

// clone returns a deep copy so recorded runs cannot be mutated through
// the caller's reference.
func (r *Run) clone() *Run {
	out := *r
	out.Params = make(map[string]any, len(r.Params))
	for k, v := range r.Params {
		out.Params[k] = v
	}
	if r.Artifact != nil {
		out.Artifact = make([]byte, len(r.Artifact))
		copy(out.Artifact, r.Artifact)
	}
	return &out
}

// Summary is the artifact-free view of a run used in listings.
type Summary struct {
	RunID       int64           `json:"run_id"`
	SweepID     string          `json:"sweep_id"`
	Family      string          `json:"family"`
	Params      map[string]any  `json:"params"`
	Status      string          `json:"status"`
	FailureKind string          `json:"failure_kind,omitempty"`
	Metrics     metrics.Metrics `json:"metrics"`
	CreatedAt   time.Time       `json:"created_at"`
}

// summarize builds the listing view of a run.
func summarize(r *Run) Summary {
	params := make(map[string]any, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}
	return Summary{
		RunID:       r.RunID,
		SweepID:     r.SweepID,
		Family:      r.Family,
		Params:      params,
		Status:      r.Status,
		FailureKind: r.FailureKind,
		Metrics:     r.Metrics,
		CreatedAt:   r.CreatedAt,
	}
}
