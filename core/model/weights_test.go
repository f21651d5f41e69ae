package model

import (
	"testing"
)

func fittedWeights() *ModelWeights {
	return &ModelWeights{
		ModelType:    "Ridge",
		Version:      "1.0",
		Coefficients: []float64{2.0, -0.5},
		Intercept:    1.0,
		Features:     []string{"lot_area", "year_built"},
		Hyperparameters: map[string]interface{}{
			"alpha": 0.5,
		},
		IsFitted: true,
	}
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ModelWeights)
		wantErr bool
	}{
		{name: "valid fitted weights", mutate: func(*ModelWeights) {}, wantErr: false},
		{name: "missing model type", mutate: func(w *ModelWeights) { w.ModelType = "" }, wantErr: true},
		{name: "missing version", mutate: func(w *ModelWeights) { w.Version = "" }, wantErr: true},
		{name: "fitted without coefficients", mutate: func(w *ModelWeights) { w.Coefficients = nil }, wantErr: true},
		{
			name: "unfitted with coefficients",
			mutate: func(w *ModelWeights) {
				w.IsFitted = false
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fittedWeights()
			tt.mutate(w)
			if err := w.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelWeightsJSONRoundTrip(t *testing.T) {
	original := fittedWeights()

	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	restored := &ModelWeights{}
	if err := restored.FromJSON(data); err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if err := restored.Validate(); err != nil {
		t.Fatalf("Validate() after round trip = %v", err)
	}

	if restored.ModelType != "Ridge" || restored.Intercept != 1.0 {
		t.Errorf("restored = %+v, want original values", restored)
	}
	if len(restored.Coefficients) != 2 || restored.Coefficients[1] != -0.5 {
		t.Errorf("Coefficients = %v, want [2 -0.5]", restored.Coefficients)
	}
	if restored.Hyperparameters["alpha"] != 0.5 {
		t.Errorf("alpha = %v, want 0.5", restored.Hyperparameters["alpha"])
	}
}

func TestModelWeightsClone(t *testing.T) {
	original := fittedWeights()
	clone := original.Clone()

	clone.Coefficients[0] = 99
	clone.Hyperparameters["alpha"] = 9.9

	if original.Coefficients[0] != 2.0 {
		t.Error("Clone() must copy coefficients, not alias them")
	}
	if original.Hyperparameters["alpha"] != 0.5 {
		t.Error("Clone() must copy hyperparameters, not alias them")
	}
}
