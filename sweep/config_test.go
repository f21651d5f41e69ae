package sweep

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

const sampleConfigYAML = `
target: sale_price
split_ratio: 0.8
seed: 7
imputer_k: 3
workers: 2
grids:
  ridge:
    alpha: [0.1, 1.0, 10.0]
    fit_intercept: [true, false]
  knn:
    k: [3, 5]
    weights: [uniform, distance]
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sampleConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "sale_price", cfg.Target)
	assert.Equal(t, 0.8, cfg.SplitRatio)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.ImputerK)
	assert.Equal(t, 2, cfg.Workers)
	require.Len(t, cfg.Grids, 2)
	assert.Equal(t, 6, cfg.Grids["ridge"].Size())
	assert.Equal(t, 4, cfg.Grids["knn"].Size())
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
target: sale_price
grids:
  ridge:
    alpha: [1.0]
`))
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, defaults.SplitRatio, cfg.SplitRatio)
	assert.Equal(t, defaults.Seed, cfg.Seed)
	assert.Equal(t, defaults.ImputerK, cfg.ImputerK)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	_, err := LoadConfig(strings.NewReader(`
target: sale_price
optimizer: bayesian
grids:
  ridge:
    alpha: [1.0]
`))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Target = "sale_price"
		cfg.Grids = map[string]Grid{"ridge": {"alpha": {1.0}}}
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantParam string
	}{
		{"missing target", func(c *Config) { c.Target = "" }, "target"},
		{"split ratio too high", func(c *Config) { c.SplitRatio = 1.0 }, "split_ratio"},
		{"split ratio zero", func(c *Config) { c.SplitRatio = 0 }, "split_ratio"},
		{"imputer k zero", func(c *Config) { c.ImputerK = 0 }, "imputer_k"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"no grids", func(c *Config) { c.Grids = nil }, "grids"},
		{"unknown family", func(c *Config) { c.Grids = map[string]Grid{"forest": {}} }, "grids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var valErr *errors.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.wantParam, valErr.ParamName)
		})
	}

	t.Run("valid config passes", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfigValidateChecksGridValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = "sale_price"
	cfg.Grids = map[string]Grid{
		"ridge": {"alpha": {-1.0}},
	}

	// Negative alpha is caught at config time, before any data work.
	err := cfg.Validate()
	var fitErr *errors.FitError
	assert.ErrorAs(t, err, &fitErr)
}
