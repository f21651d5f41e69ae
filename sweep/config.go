package sweep

import (
	"io"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/gridhouse/dataset"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
	"github.com/YuminosukeSato/gridhouse/regression"
)

// Config describes a full sweep: how to prepare the data and which
// hyperparameter grids to explore per model family.
type Config struct {
	// Target is the name of the numeric column to predict.
	Target string `yaml:"target"`

	// SplitRatio is the fraction of rows assigned to the training
	// split. Zero means dataset.DefaultTrainRatio.
	SplitRatio float64 `yaml:"split_ratio"`

	// Seed drives the deterministic row shuffle before splitting.
	Seed int64 `yaml:"seed"`

	// ImputerK is the neighbor count for missing-value imputation.
	ImputerK int `yaml:"imputer_k"`

	// Workers bounds the number of combinations trained concurrently.
	// Zero means one worker per CPU.
	Workers int `yaml:"workers"`

	// Scale standardizes the encoded feature matrices using statistics
	// fitted on the training split.
	Scale bool `yaml:"scale"`

	// Grids holds one hyperparameter grid per model family.
	Grids map[string]Grid `yaml:"grids"`
}

// DefaultConfig returns a config with the defaults filled in. Target
// and Grids still have to be set by the caller.
func DefaultConfig() Config {
	return Config{
		SplitRatio: dataset.DefaultTrainRatio,
		Seed:       42,
		ImputerK:   5,
		Workers:    runtime.NumCPU(),
	}
}

// LoadConfig reads a YAML sweep configuration. Defaults are applied
// before decoding, so omitted fields keep their default values. The
// result is validated before it is returned.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "sweep: failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration before any data work starts.
func (c *Config) Validate() error {
	if c.Target == "" {
		return errors.NewValidationError("target", "must name the column to predict", c.Target)
	}
	if c.SplitRatio <= 0 || c.SplitRatio >= 1 {
		return errors.NewValidationError("split_ratio", "must be strictly between 0 and 1", c.SplitRatio)
	}
	if c.ImputerK < 1 {
		return errors.NewValidationError("imputer_k", "must be at least 1", c.ImputerK)
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "must not be negative", c.Workers)
	}
	if len(c.Grids) == 0 {
		return errors.NewValidationError("grids", "at least one model family is required", nil)
	}

	for family, grid := range c.Grids {
		switch family {
		case regression.FamilyRidge, regression.FamilyKNN:
		default:
			return errors.NewValidationError("grids", "unknown model family", family)
		}
		// Every combination must pass the factory's typed validation
		// before the sweep starts spending compute.
		combos, err := grid.Combinations()
		if err != nil {
			return err
		}
		for _, combo := range combos {
			if _, err := regression.NewRegressor(family, combo); err != nil {
				return err
			}
		}
	}

	return nil
}

// workerCount resolves the effective concurrency limit.
func (c *Config) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
