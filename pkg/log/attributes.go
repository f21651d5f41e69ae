// Package log defines standard attribute keys for pipeline and sweep operations.
//
// This file contains predefined attribute keys that provide consistency across
// all logging operations in gridhouse. Using these standard keys enables better
// log analysis, monitoring, and debugging of experiment sweeps.
//
// The attributes are organized into categories:
//   - Model and Operation Context
//   - Data Shape and Characteristics
//   - Sweep and Experiment Context
//   - Metric Values
//
// These keys follow a hierarchical naming convention (e.g., "model.family",
// "data.samples") to enable structured log analysis and filtering.

package log

// Model and Operation Context
// These attributes identify the model family, instance, and operation being performed.
const (
	// ModelFamilyKey identifies the model family being trained.
	// Examples: "ridge", "knn"
	ModelFamilyKey = "model.family"

	// ModelNameKey identifies the concrete model or transformer type.
	// Examples: "Ridge", "KNNImputer", "OneHotEncoder"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "evaluate", "record"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "preprocessing", "metrics", "sweep", "experiment"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the pipeline.
	// Examples: "split", "imputation", "encoding", "training", "evaluation"
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
// These attributes describe the structure of the data being processed.
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	// Important for debugging encoder width mismatches.
	FeaturesKey = "data.features"

	// FingerprintKey carries the SHA-256 fingerprint of the data a run was
	// trained and evaluated on.
	FingerprintKey = "data.fingerprint"

	// MissingCellsKey indicates how many cells were missing before imputation.
	MissingCellsKey = "data.missing_cells"
)

// Sweep and Experiment Context
// These attributes identify a sweep and the combinations inside it.
const (
	// SweepIDKey is the uuid assigned to one whole sweep invocation.
	SweepIDKey = "sweep.id"

	// RunIDKey is the monotonic id assigned to a run at record time.
	RunIDKey = "run.id"

	// CombinationKey carries the hyperparameter combination of one run,
	// rendered in deterministic name order.
	CombinationKey = "sweep.combination"

	// CombinationsTotalKey is the size of the Cartesian product for a family.
	CombinationsTotalKey = "sweep.combinations_total"

	// WorkersKey is the concurrency limit of the sweep engine.
	WorkersKey = "sweep.workers"

	// FailureKindKey names the error kind of a failed combination.
	// Examples: "FitFailure", "DegenerateTarget"
	FailureKindKey = "sweep.failure_kind"
)

// Metric Values
// These attributes carry evaluation results.
const (
	// RMSEKey is the root mean squared error of a run.
	RMSEKey = "metric.rmse"

	// MAPEKey is the mean absolute percentage error of a run.
	MAPEKey = "metric.mape"

	// R2Key is the coefficient of determination of a run.
	R2Key = "metric.r2"

	// DurationMsKey is the wall-clock duration of an operation in milliseconds.
	DurationMsKey = "duration_ms"
)

// Error and Warning Context
// These attributes provide additional context for error and warning messages.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "SCHEMA_MISMATCH", "NOT_FITTED", "FIT_FAILURE"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "SchemaMismatchError", "FitError", "DegenerateTargetError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides helpful suggestions for resolving issues.
	// Examples: "Check column types", "Lower n_neighbors"
	SuggestionKey = "error.suggestion"
)

// Configuration
// These attributes capture pipeline configuration for reproducibility.
const (
	// RandomSeedKey records the split seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// SplitRatioKey records the train fraction of the train/validation split.
	SplitRatioKey = "config.split_ratio"

	// NeighborsKey records the neighbor count of the imputer.
	NeighborsKey = "config.n_neighbors"
)

// Standard attribute value constants for common operations.
// Using these constants ensures consistency across the codebase.
const (
	// Standard operations
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationEvaluate  = "evaluate"
	OperationRecord    = "record"

	// Standard pipeline phases
	PhaseSplit       = "split"
	PhaseImputation  = "imputation"
	PhaseEncoding    = "encoding"
	PhaseTraining    = "training"
	PhaseValidation  = "validation"
	PhaseEvaluation  = "evaluation"

	// Standard error codes
	ErrorNotFitted        = "NOT_FITTED"
	ErrorSchemaMismatch   = "SCHEMA_MISMATCH"
	ErrorEmptyColumn      = "EMPTY_COLUMN"
	ErrorDegenerateInput  = "DEGENERATE_INPUT"
	ErrorDegenerateTarget = "DEGENERATE_TARGET"
	ErrorFitFailure       = "FIT_FAILURE"
	ErrorSingularMatrix   = "SINGULAR_MATRIX"
)
