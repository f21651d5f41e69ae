// Package sweep runs deterministic hyperparameter grid sweeps over the
// regression model families. A sweep enumerates every combination of a
// parameter grid, trains a fresh model per combination on the prepared
// training matrices, evaluates it on the held-out validation split, and
// records each attempt through an experiment.Recorder. Individual
// failures are recorded and never abort the sweep.
package sweep

import (
	"sort"

	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// Combination is a single assignment of hyperparameter values, keyed by
// parameter name. Values come from YAML or literal grids, so numeric
// types are normalized through the typed getters.
type Combination map[string]any

// GetFloat64 reads a float parameter, accepting integer literals.
func (c Combination) GetFloat64(name string, fallback float64) float64 {
	switch v := c[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// GetInt reads an integer parameter.
func (c Combination) GetInt(name string, fallback int) int {
	switch v := c[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return fallback
}

// GetBool reads a boolean parameter.
func (c Combination) GetBool(name string, fallback bool) bool {
	if v, ok := c[name].(bool); ok {
		return v
	}
	return fallback
}

// GetString reads a string parameter.
func (c Combination) GetString(name string, fallback string) string {
	if v, ok := c[name].(string); ok {
		return v
	}
	return fallback
}

// Clone returns an independent copy of the combination.
func (c Combination) Clone() Combination {
	out := make(Combination, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Grid maps each hyperparameter name to its candidate values.
type Grid map[string][]any

// Combinations enumerates the Cartesian product of the grid. The order
// is deterministic: parameter names are iterated in lexicographic order
// and candidate values in the order they were given, with the last
// parameter varying fastest. An empty grid yields a single empty
// combination (the family's defaults). A parameter with no candidates
// is an error.
func (g Grid) Combinations() ([]Combination, error) {
	names := make([]string, 0, len(g))
	for name := range g {
		if len(g[name]) == 0 {
			return nil, errors.NewValueError("Grid.Combinations", "parameter "+name+" has no candidate values")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []Combination{{}}
	for _, name := range names {
		next := make([]Combination, 0, len(combos)*len(g[name]))
		for _, combo := range combos {
			for _, value := range g[name] {
				c := combo.Clone()
				c[name] = value
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos, nil
}

// Size returns the number of combinations the grid will produce.
func (g Grid) Size() int {
	size := 1
	for _, values := range g {
		size *= len(values)
	}
	return size
}
