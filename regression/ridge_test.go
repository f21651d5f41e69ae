package regression

import (
	"bytes"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridhouse/core/model"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

func TestNewRidgeNegativeAlpha(t *testing.T) {
	_, err := NewRidge(-0.5, true)
	var fitErr *errors.FitError
	if !errors.As(err, &fitErr) {
		t.Fatalf("NewRidge(-0.5) error = %T, want *FitError", err)
	}
	if fitErr.Family != "ridge" || fitErr.Param != "alpha" {
		t.Errorf("FitError = %+v, want family=ridge param=alpha", fitErr)
	}
}

func TestRidgeOLSExactFit(t *testing.T) {
	// alpha=0 はOLSに一致する。y = 2x + 1 を完全に復元できる
	ridge, err := NewRidge(0, true)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}

	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	if err := ridge.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if math.Abs(ridge.Coef[0]-2.0) > 1e-9 {
		t.Errorf("Coef[0] = %v, want 2", ridge.Coef[0])
	}
	if math.Abs(ridge.Intercept-1.0) > 1e-9 {
		t.Errorf("Intercept = %v, want 1", ridge.Intercept)
	}

	pred, err := ridge.Predict(mat.NewDense(2, 1, []float64{5, 10}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if math.Abs(pred.At(0, 0)-11.0) > 1e-9 || math.Abs(pred.At(1, 0)-21.0) > 1e-9 {
		t.Errorf("Predict() = (%v, %v), want (11, 21)", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestRidgeShrinkage(t *testing.T) {
	// 正則化が強いほど係数は0に近づく
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{2, 4, 6, 8, 10})

	var prev float64 = math.Inf(1)
	for _, alpha := range []float64{0, 1, 10, 100} {
		ridge, err := NewRidge(alpha, true)
		if err != nil {
			t.Fatalf("NewRidge(%v) error = %v", alpha, err)
		}
		if err := ridge.Fit(X, y); err != nil {
			t.Fatalf("Fit() alpha=%v error = %v", alpha, err)
		}
		coef := math.Abs(ridge.Coef[0])
		if coef > prev+1e-12 {
			t.Errorf("|coef| = %v at alpha=%v, should not exceed %v", coef, alpha, prev)
		}
		prev = coef
	}
}

func TestRidgeWithoutIntercept(t *testing.T) {
	ridge, err := NewRidge(0, false)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}

	// y = 3x（原点を通る）
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{3, 6, 9})

	if err := ridge.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if ridge.Intercept != 0 {
		t.Errorf("Intercept = %v, want 0", ridge.Intercept)
	}
	if math.Abs(ridge.Coef[0]-3.0) > 1e-9 {
		t.Errorf("Coef[0] = %v, want 3", ridge.Coef[0])
	}
}

func TestRidgeSingularSystem(t *testing.T) {
	// 同一列を2つ持つ行列はalpha=0で特異になる
	ridge, err := NewRidge(0, false)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}

	X := mat.NewDense(3, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
	})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	err = ridge.Fit(X, y)
	var fitErr *errors.FitError
	if !errors.As(err, &fitErr) {
		t.Fatalf("Fit() error = %T, want *FitError", err)
	}
	if !errors.Is(err, errors.ErrSingularMatrix) {
		t.Error("FitError should wrap ErrSingularMatrix")
	}

	// 正則化を入れると同じ系でも解ける
	ridge2, err := NewRidge(1.0, false)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}
	if err := ridge2.Fit(X, y); err != nil {
		t.Errorf("Fit() with alpha=1 error = %v, want nil", err)
	}
}

func TestRidgeValidation(t *testing.T) {
	ridge, err := NewRidge(1.0, true)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}

	t.Run("predict before fit", func(t *testing.T) {
		_, err := ridge.Predict(mat.NewDense(1, 1, []float64{1}))
		var notFitted *errors.NotFittedError
		if !errors.As(err, &notFitted) {
			t.Errorf("Predict() error = %T, want *NotFittedError", err)
		}
	})

	t.Run("row count mismatch", func(t *testing.T) {
		X := mat.NewDense(3, 1, []float64{1, 2, 3})
		y := mat.NewDense(2, 1, []float64{1, 2})
		err := ridge.Fit(X, y)
		var dimErr *errors.DimensionError
		if !errors.As(err, &dimErr) {
			t.Errorf("Fit() error = %T, want *DimensionError", err)
		}
	})

	t.Run("feature count mismatch on predict", func(t *testing.T) {
		X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
		y := mat.NewDense(3, 1, []float64{1, 2, 3})
		if err := ridge.Fit(X, y); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		_, err := ridge.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
		var dimErr *errors.DimensionError
		if !errors.As(err, &dimErr) {
			t.Errorf("Predict() error = %T, want *DimensionError", err)
		}
	})
}

func TestRidgeExportWeights(t *testing.T) {
	ridge, err := NewRidge(0.5, true)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}

	if _, err := ridge.ExportWeights(); err == nil {
		t.Error("ExportWeights() on unfitted model should fail")
	}

	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})
	if err := ridge.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	w, err := ridge.ExportWeights()
	if err != nil {
		t.Fatalf("ExportWeights() error = %v", err)
	}
	if w.ModelType != "Ridge" || !w.IsFitted {
		t.Errorf("ModelWeights = %+v, want fitted Ridge", w)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRidgeGobRoundTrip(t *testing.T) {
	ridge, err := NewRidge(0.1, true)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}

	X := mat.NewDense(4, 2, []float64{1, 0, 0, 1, 1, 1, 2, 1})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 5})
	if err := ridge.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	var buf bytes.Buffer
	if err := model.SaveModelToWriter(ridge, &buf); err != nil {
		t.Fatalf("SaveModelToWriter() error = %v", err)
	}

	restored := &Ridge{}
	if err := model.LoadModelFromReader(restored, &buf); err != nil {
		t.Fatalf("LoadModelFromReader() error = %v", err)
	}

	if !restored.IsFitted() {
		t.Fatal("restored model should be fitted")
	}

	in := mat.NewDense(1, 2, []float64{3, 1})
	want, _ := ridge.Predict(in)
	got, err := restored.Predict(in)
	if err != nil {
		t.Fatalf("Predict() on restored model error = %v", err)
	}
	if math.Abs(got.At(0, 0)-want.At(0, 0)) > 1e-12 {
		t.Errorf("restored Predict() = %v, want %v", got.At(0, 0), want.At(0, 0))
	}
}
