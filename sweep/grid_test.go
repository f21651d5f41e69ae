package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridCombinationsOrder(t *testing.T) {
	grid := Grid{
		"fit_intercept": {true, false},
		"alpha":         {0.0, 1.0},
	}

	combos, err := grid.Combinations()
	require.NoError(t, err)
	require.Len(t, combos, 4)

	// Names are iterated lexicographically (alpha before fit_intercept)
	// with the later name varying fastest.
	want := []Combination{
		{"alpha": 0.0, "fit_intercept": true},
		{"alpha": 0.0, "fit_intercept": false},
		{"alpha": 1.0, "fit_intercept": true},
		{"alpha": 1.0, "fit_intercept": false},
	}
	assert.Equal(t, want, combos)
}

func TestGridCombinationsDeterministic(t *testing.T) {
	grid := Grid{
		"k":       {1, 3, 5},
		"weights": {"uniform", "distance"},
	}

	first, err := grid.Combinations()
	require.NoError(t, err)
	second, err := grid.Combinations()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, grid.Size())
}

func TestGridEmptyYieldsDefaults(t *testing.T) {
	combos, err := Grid{}.Combinations()
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0])
}

func TestGridEmptyCandidateList(t *testing.T) {
	_, err := Grid{"alpha": {}}.Combinations()
	assert.Error(t, err)
}

func TestCombinationTypedGetters(t *testing.T) {
	c := Combination{
		"alpha":         1,
		"k":             3.0,
		"weights":       "distance",
		"fit_intercept": false,
	}

	assert.Equal(t, 1.0, c.GetFloat64("alpha", 0))
	assert.Equal(t, 3, c.GetInt("k", 0))
	assert.Equal(t, "distance", c.GetString("weights", "uniform"))
	assert.Equal(t, false, c.GetBool("fit_intercept", true))

	// Fallbacks for absent or mistyped values.
	assert.Equal(t, 0.5, c.GetFloat64("missing", 0.5))
	assert.Equal(t, 5, c.GetInt("weights", 5))
}

func TestCombinationCloneIsIndependent(t *testing.T) {
	original := Combination{"alpha": 1.0}
	clone := original.Clone()
	clone["alpha"] = 2.0

	assert.Equal(t, 1.0, original["alpha"])
}
