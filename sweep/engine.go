package sweep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridhouse/experiment"
	"github.com/YuminosukeSato/gridhouse/metrics"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
	"github.com/YuminosukeSato/gridhouse/pkg/log"
	"github.com/YuminosukeSato/gridhouse/regression"
)

// Data is the prepared, leakage-safe input to a sweep: design matrices
// and target vectors for the train and validation splits, plus the
// fingerprint of the table pair they were derived from. The matrices
// are shared read-only by all workers.
type Data struct {
	TrainX      mat.Matrix
	TrainY      *mat.VecDense
	ValX        mat.Matrix
	ValY        *mat.VecDense
	Fingerprint string
}

// Attempt is one combination's outcome inside a sweep summary.
type Attempt struct {
	RunID       int64
	Family      string
	Params      Combination
	Status      string
	FailureKind string
	Err         string
	Metrics     metrics.Metrics
	Duration    time.Duration
}

// Summary lists every combination the sweep attempted, in the
// deterministic enumeration order, regardless of success or failure.
type Summary struct {
	SweepID  string
	Attempts []Attempt
}

// Succeeded returns the attempts that trained and evaluated cleanly.
func (s *Summary) Succeeded() []Attempt {
	var out []Attempt
	for _, a := range s.Attempts {
		if a.Status == experiment.StatusSucceeded {
			out = append(out, a)
		}
	}
	return out
}

// Failed returns the attempts that were recorded as failures.
func (s *Summary) Failed() []Attempt {
	var out []Attempt
	for _, a := range s.Attempts {
		if a.Status == experiment.StatusFailed {
			out = append(out, a)
		}
	}
	return out
}

// Engine trains one fresh model per grid combination and records every
// attempt. Workers share the prepared matrices read-only; no model
// state crosses combination boundaries.
type Engine struct {
	data     Data
	grids    map[string]Grid
	workers  int
	recorder experiment.Recorder
	logger   log.Logger
}

// NewEngine builds a sweep engine from a validated config, prepared
// data, and a recorder.
func NewEngine(cfg Config, data Data, recorder experiment.Recorder) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		return nil, errors.NewValueError("NewEngine", "recorder must not be nil")
	}
	if data.TrainX == nil || data.TrainY == nil || data.ValX == nil || data.ValY == nil {
		return nil, errors.NewValueError("NewEngine", "train and validation matrices are required")
	}

	return &Engine{
		data:     data,
		grids:    cfg.Grids,
		workers:  cfg.workerCount(),
		recorder: recorder,
		logger:   log.GetLoggerWithName("sweep"),
	}, nil
}

// task is one enumerated (family, combination) pair.
type task struct {
	family string
	combo  Combination
}

// enumerate lists every combination across families in deterministic
// order: families lexicographically, combinations in grid order.
func (e *Engine) enumerate() ([]task, error) {
	families := make([]string, 0, len(e.grids))
	for family := range e.grids {
		families = append(families, family)
	}
	sort.Strings(families)

	var tasks []task
	for _, family := range families {
		combos, err := e.grids[family].Combinations()
		if err != nil {
			return nil, err
		}
		for _, combo := range combos {
			tasks = append(tasks, task{family: family, combo: combo})
		}
	}
	return tasks, nil
}

// Run executes the sweep. Every combination is attempted; fit and
// evaluation failures become failed runs and the sweep continues.
// Context cancellation is observed between combinations, never
// mid-fit, and surfaces as the returned error alongside the partial
// summary.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	tasks, err := e.enumerate()
	if err != nil {
		return nil, err
	}

	sweepID := uuid.NewString()
	summary := &Summary{
		SweepID:  sweepID,
		Attempts: make([]Attempt, len(tasks)),
	}

	e.logger.Info("sweep started",
		log.SweepIDKey, sweepID,
		log.CombinationsTotalKey, len(tasks),
		log.WorkersKey, e.workers,
		log.FingerprintKey, e.data.Fingerprint,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, tk := range tasks {
		// Cancellation check between combinations. Once a worker has
		// started fitting it runs to completion.
		if err := ctx.Err(); err != nil {
			// Workers already launched still hold the full Attempts
			// slice; wait for them before the summary is trimmed.
			_ = g.Wait()
			summary.Attempts = summary.Attempts[:i]
			return summary, errors.Wrap(err, "sweep: canceled")
		}

		i, tk := i, tk
		g.Go(func() error {
			summary.Attempts[i] = e.runCombination(sweepID, tk)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	e.logger.Info("sweep finished",
		log.SweepIDKey, sweepID,
		log.CombinationsTotalKey, len(summary.Attempts),
		"succeeded", len(summary.Succeeded()),
		"failed", len(summary.Failed()),
	)

	return summary, nil
}

// runCombination trains, evaluates, and records a single combination.
// It never returns an error: failures are folded into the attempt.
func (e *Engine) runCombination(sweepID string, tk task) Attempt {
	started := time.Now()

	attempt := Attempt{
		Family: tk.family,
		Params: tk.combo.Clone(),
	}

	model, m, err := e.fitAndEvaluate(tk)
	attempt.Duration = time.Since(started)

	run := &experiment.Run{
		SweepID:     sweepID,
		Family:      tk.family,
		Params:      tk.combo.Clone(),
		Fingerprint: e.data.Fingerprint,
		CreatedAt:   time.Now().UTC(),
	}

	if err != nil {
		attempt.Status = experiment.StatusFailed
		attempt.FailureKind = classifyFailure(err)
		attempt.Err = err.Error()

		run.Status = experiment.StatusFailed
		run.FailureKind = attempt.FailureKind
		run.Error = attempt.Err

		e.logger.Warn("combination failed",
			log.SweepIDKey, sweepID,
			log.ModelFamilyKey, tk.family,
			log.CombinationKey, fmt.Sprintf("%v", tk.combo),
			log.FailureKindKey, attempt.FailureKind,
			"error", err,
		)
	} else {
		attempt.Status = experiment.StatusSucceeded
		attempt.Metrics = m

		run.Status = experiment.StatusSucceeded
		run.Metrics = m
		if encErr := run.EncodeArtifact(model); encErr != nil {
			e.logger.Warn("failed to encode model artifact",
				log.SweepIDKey, sweepID,
				log.ModelFamilyKey, tk.family,
				"error", encErr,
			)
		}

		e.logger.Info("combination succeeded",
			log.SweepIDKey, sweepID,
			log.ModelFamilyKey, tk.family,
			log.CombinationKey, fmt.Sprintf("%v", tk.combo),
			log.RMSEKey, m.RMSE,
			log.MAPEKey, m.MAPE,
			log.R2Key, m.R2,
			log.DurationMsKey, attempt.Duration.Milliseconds(),
		)
	}

	id, recErr := e.recorder.Record(run)
	if recErr != nil {
		e.logger.Error("failed to record run", recErr,
			log.SweepIDKey, sweepID,
			log.ModelFamilyKey, tk.family,
		)
		return attempt
	}
	attempt.RunID = id

	return attempt
}

// fitAndEvaluate builds a fresh model for the combination, fits it on
// the train split only, and scores it on the validation split. Panics
// out of the numeric kernels are converted into errors.
func (e *Engine) fitAndEvaluate(tk task) (regression.Regressor, metrics.Metrics, error) {
	var (
		model regression.Regressor
		m     metrics.Metrics
	)

	err := errors.SafeExecute("CombinationFit", func() error {
		var err error
		model, err = regression.NewRegressor(tk.family, tk.combo)
		if err != nil {
			return err
		}

		if err := model.Fit(e.data.TrainX, e.data.TrainY); err != nil {
			return err
		}

		pred, err := model.Predict(e.data.ValX)
		if err != nil {
			return err
		}

		rows, _ := pred.Dims()
		predVec := mat.NewVecDense(rows, nil)
		for i := 0; i < rows; i++ {
			predVec.SetVec(i, pred.At(i, 0))
		}

		m, err = metrics.Evaluate(e.data.ValY, predVec)
		return err
	})
	if err != nil {
		return nil, metrics.Metrics{}, err
	}

	return model, m, nil
}

// classifyFailure maps an error chain onto a recorded failure kind.
func classifyFailure(err error) string {
	var (
		fitErr    *errors.FitError
		panicErr  *errors.PanicError
		degTarget *errors.DegenerateTargetError
		invTarget *errors.InvalidTargetError
		valErr    *errors.ValidationError
	)
	switch {
	case errors.As(err, &panicErr):
		return experiment.FailurePanic
	case errors.As(err, &fitErr), errors.As(err, &valErr):
		return experiment.FailureFit
	case errors.As(err, &degTarget):
		return experiment.FailureDegenerateTarget
	case errors.As(err, &invTarget):
		return experiment.FailureInvalidTarget
	default:
		return experiment.FailureEvaluation
	}
}
