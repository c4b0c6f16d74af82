package metrics

import (
	"strconv"
	"time"
)

// MetricsWrapper adapts Metrics to the small interfaces the classifier,
// the feature pipeline and the web layer depend on.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

// ml.MetricsInterface

func (w *MetricsWrapper) MLPredictionsInc(category string) {
	w.m.Predictions.WithLabelValues(category).Inc()
}

func (w *MetricsWrapper) MLFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *MetricsWrapper) MLModelAgeSet(seconds float64) {
	w.m.ModelAge.Set(seconds)
}

func (w *MetricsWrapper) MLModelLoadedSet(loaded bool) {
	if loaded {
		w.m.ModelLoaded.Set(1)
		return
	}
	w.m.ModelLoaded.Set(0)
}

func (w *MetricsWrapper) MLCacheHitsInc() {
	w.m.CacheHits.Inc()
}

func (w *MetricsWrapper) MLCacheMissesInc() {
	w.m.CacheMisses.Inc()
}

// features.MetricsTracker

func (w *MetricsWrapper) FeatureSampleCount(count int) {
	w.m.FeatureTransforms.Add(float64(count))
}

func (w *MetricsWrapper) FeatureCalcDuration(duration time.Duration) {
	w.m.FeatureLatency.Observe(duration.Seconds())
}

// web

func (w *MetricsWrapper) InvalidInputsInc() {
	w.m.InvalidInputs.Inc()
}

func (w *MetricsWrapper) HTTPRequestObserve(route string, code int, duration time.Duration) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (w *MetricsWrapper) WSSessionsAdd(delta float64) {
	w.m.WSSessions.Add(delta)
}
