// Package features turns a raw wine observation into the row the quality
// classifier was trained on.
//
// The classifier never sees the nine raw measurements directly. Two columns are
// derived (sulfur_ratio, has_citric_acid) and the three columns they replace are
// dropped, so the model input has exactly the eight columns listed in InputSchema,
// in that order.
package features

import "time"

// InputSchema is the ordered column set of ModelInput. Model artifacts declare
// their own feature list and are rejected at load time unless it matches.
var InputSchema = []string{
	"fixed_acidity",
	"volatile_acidity",
	"chlorides",
	"density",
	"sulphates",
	"alcohol",
	"sulfur_ratio",
	"has_citric_acid",
}

// DroppedColumns are consumed by the derived features and never reach the model.
var DroppedColumns = []string{
	"free_sulfur_dioxide",
	"total_sulfur_dioxide",
	"citric_acid",
}

// RawObservation holds the nine physicochemical measurements of one sample.
type RawObservation struct {
	FixedAcidity       float64 `json:"fixed_acidity" schema:"fixed_acidity" validate:"gte=4,lte=16"`
	VolatileAcidity    float64 `json:"volatile_acidity" schema:"volatile_acidity" validate:"gte=0.1,lte=1.6"`
	CitricAcid         float64 `json:"citric_acid" schema:"citric_acid" validate:"gte=0,lte=1"`
	Chlorides          float64 `json:"chlorides" schema:"chlorides" validate:"gte=0.01,lte=0.62"`
	FreeSulfurDioxide  float64 `json:"free_sulfur_dioxide" schema:"free_sulfur_dioxide" validate:"gte=1,lte=72"`
	TotalSulfurDioxide float64 `json:"total_sulfur_dioxide" schema:"total_sulfur_dioxide" validate:"gte=6,lte=289"`
	Density            float64 `json:"density" schema:"density" validate:"gte=0.99,lte=1.004"`
	Sulphates          float64 `json:"sulphates" schema:"sulphates" validate:"gte=0.3,lte=2"`
	Alcohol            float64 `json:"alcohol" schema:"alcohol" validate:"gte=8,lte=15"`
}

// ModelInput is the classifier row. Field order follows InputSchema.
type ModelInput struct {
	FixedAcidity    float64 `json:"fixed_acidity"`
	VolatileAcidity float64 `json:"volatile_acidity"`
	Chlorides       float64 `json:"chlorides"`
	Density         float64 `json:"density"`
	Sulphates       float64 `json:"sulphates"`
	Alcohol         float64 `json:"alcohol"`
	SulfurRatio     float64 `json:"sulfur_ratio"`
	HasCitricAcid   int     `json:"has_citric_acid"`
}

// MetricsTracker receives feature pipeline measurements.
type MetricsTracker interface {
	FeatureSampleCount(count int)
	FeatureCalcDuration(duration time.Duration)
}

// SulfurRatio is free over total sulfur dioxide, or 0 when total is not positive.
func SulfurRatio(free, total float64) float64 {
	if total > 0 {
		return free / total
	}
	return 0
}

// HasCitricAcid binarizes the citric acid measurement.
func HasCitricAcid(citric float64) int {
	if citric > 0 {
		return 1
	}
	return 0
}

// Transform derives the model row from a raw observation. It is total: every
// observation, in bounds or not, produces a ModelInput.
func Transform(raw RawObservation) ModelInput {
	return ModelInput{
		FixedAcidity:    raw.FixedAcidity,
		VolatileAcidity: raw.VolatileAcidity,
		Chlorides:       raw.Chlorides,
		Density:         raw.Density,
		Sulphates:       raw.Sulphates,
		Alcohol:         raw.Alcohol,
		SulfurRatio:     SulfurRatio(raw.FreeSulfurDioxide, raw.TotalSulfurDioxide),
		HasCitricAcid:   HasCitricAcid(raw.CitricAcid),
	}
}

// TransformWithMetrics is Transform plus timing and sample counting.
func TransformWithMetrics(raw RawObservation, m MetricsTracker) ModelInput {
	if m == nil {
		return Transform(raw)
	}
	start := time.Now()
	in := Transform(raw)
	m.FeatureCalcDuration(time.Since(start))
	m.FeatureSampleCount(1)
	return in
}

// Values returns the row in InputSchema order.
func (in ModelInput) Values() []float64 {
	return []float64{
		in.FixedAcidity,
		in.VolatileAcidity,
		in.Chlorides,
		in.Density,
		in.Sulphates,
		in.Alcohol,
		in.SulfurRatio,
		float64(in.HasCitricAcid),
	}
}

// Float32s is Values narrowed for runtimes that take float32 tensors.
func (in ModelInput) Float32s() []float32 {
	vals := in.Values()
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}

// Map keys the row by column name.
func (in ModelInput) Map() map[string]float64 {
	vals := in.Values()
	m := make(map[string]float64, len(InputSchema))
	for i, name := range InputSchema {
		m[name] = vals[i]
	}
	return m
}

// Map keys the raw observation by column name.
func (raw RawObservation) Map() map[string]float64 {
	return map[string]float64{
		"fixed_acidity":        raw.FixedAcidity,
		"volatile_acidity":     raw.VolatileAcidity,
		"citric_acid":          raw.CitricAcid,
		"chlorides":            raw.Chlorides,
		"free_sulfur_dioxide":  raw.FreeSulfurDioxide,
		"total_sulfur_dioxide": raw.TotalSulfurDioxide,
		"density":              raw.Density,
		"sulphates":            raw.Sulphates,
		"alcohol":              raw.Alcohol,
	}
}

// Set assigns the named raw column. It reports false for unknown names.
func (raw *RawObservation) Set(name string, v float64) bool {
	switch name {
	case "fixed_acidity":
		raw.FixedAcidity = v
	case "volatile_acidity":
		raw.VolatileAcidity = v
	case "citric_acid":
		raw.CitricAcid = v
	case "chlorides":
		raw.Chlorides = v
	case "free_sulfur_dioxide":
		raw.FreeSulfurDioxide = v
	case "total_sulfur_dioxide":
		raw.TotalSulfurDioxide = v
	case "density":
		raw.Density = v
	case "sulphates":
		raw.Sulphates = v
	case "alcohol":
		raw.Alcohol = v
	default:
		return false
	}
	return true
}

// SchemaMatches reports whether names equals InputSchema, order included.
func SchemaMatches(names []string) bool {
	if len(names) != len(InputSchema) {
		return false
	}
	for i, n := range names {
		if n != InputSchema[i] {
			return false
		}
	}
	return true
}
