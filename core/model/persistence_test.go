package model

import (
	"path/filepath"
	"testing"
)

type stubModel struct {
	Coef      []float64
	Intercept float64
}

func TestSaveLoadModelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")

	original := &stubModel{Coef: []float64{2.0, -0.5}, Intercept: 1.0}
	if err := SaveModel(original, path); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	restored := &stubModel{}
	if err := LoadModel(restored, path); err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	if restored.Intercept != original.Intercept {
		t.Errorf("Intercept = %v, want %v", restored.Intercept, original.Intercept)
	}
	if len(restored.Coef) != 2 || restored.Coef[0] != 2.0 || restored.Coef[1] != -0.5 {
		t.Errorf("Coef = %v, want %v", restored.Coef, original.Coef)
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	restored := &stubModel{}
	if err := LoadModel(restored, filepath.Join(t.TempDir(), "nope.gob")); err == nil {
		t.Error("LoadModel() on a missing file should fail")
	}
}
