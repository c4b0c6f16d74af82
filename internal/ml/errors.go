package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotFound is returned by Load when the artifact path does not exist.
	ErrModelNotFound = errors.New("model file not found")

	// ErrSchemaMismatch means the artifact was trained on different feature columns.
	ErrSchemaMismatch = errors.New("model feature schema mismatch")

	// ErrModelUnavailable is returned by Classify when no model was loaded.
	ErrModelUnavailable = errors.New("model not loaded")
)

// LoadError wraps any failure to turn an existing artifact into a predictor.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
