// Package model provides additional interfaces and types for machine learning models.
// This file complements the existing interfaces in estimator.go and transformer.go
package model

// Estimator is the common surface of every fitted component.
type Estimator interface {
	// IsFitted returns whether the estimator has been fitted.
	IsFitted() bool
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
