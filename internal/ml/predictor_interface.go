// Package ml loads the serialized wine quality model and runs it.
//
// A model artifact is opened once with Load and wrapped in a Classifier, which is
// then shared read-only by every request. Artifacts come in two formats: a JSON
// document carrying a decision tree or logistic regression, and an ONNX graph
// evaluated through onnxruntime. Both declare the feature columns they were
// trained on, and Load refuses any artifact whose columns differ from
// features.InputSchema.
package ml

import "wine-classifier/internal/features"

// Label is the raw classifier output. 1 means good quality; everything else is bad.
type Label int

const (
	LabelBad  Label = 0
	LabelGood Label = 1
)

// PredictorInterface is the capability every model adapter provides.
type PredictorInterface interface {
	// Predict returns the class label for one model row.
	Predict(in features.ModelInput) (Label, error)
}
