package ml

import (
	"fmt"
	"math"

	"wine-classifier/internal/features"
)

// LogisticParams is the serialized form of a logistic regression.
type LogisticParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	// Threshold on the positive-class probability; 0 means 0.5.
	Threshold float64 `json:"threshold,omitempty"`
}

// Logistic labels a row good when sigmoid(w·x + b) >= threshold.
type Logistic struct {
	weights   []float64
	intercept float64
	threshold float64
}

func NewLogistic(p LogisticParams) (*Logistic, error) {
	if len(p.Coefficients) != len(features.InputSchema) {
		return nil, fmt.Errorf("expected %d coefficients, got %d", len(features.InputSchema), len(p.Coefficients))
	}
	for i, w := range p.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient %d (%s) is not finite", i, features.InputSchema[i])
		}
	}
	threshold := p.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0,1), got %f", threshold)
	}
	return &Logistic{
		weights:   append([]float64(nil), p.Coefficients...),
		intercept: p.Intercept,
		threshold: threshold,
	}, nil
}

// Probability returns the positive-class probability for a row.
func (l *Logistic) Probability(in features.ModelInput) float64 {
	z := l.intercept
	for i, v := range in.Values() {
		z += l.weights[i] * v
	}
	return sigmoid(z)
}

func (l *Logistic) Predict(in features.ModelInput) (Label, error) {
	if l.Probability(in) >= l.threshold {
		return LabelGood, nil
	}
	return LabelBad, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
