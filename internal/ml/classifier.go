package ml

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"wine-classifier/internal/features"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the classifier
type MetricsInterface interface {
	MLPredictionsInc(category string)
	MLFailuresInc()
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
	MLModelLoadedSet(bool)
	MLCacheHitsInc()
	MLCacheMissesInc()
}

// ClassifierConfig contains configuration for the classifier
type ClassifierConfig struct {
	ModelPath       string
	ONNXLibraryPath string
	CacheSize       int
}

// Classifier owns the process-wide predictor. It is built once at startup and
// shared by every request; nothing in it changes after construction except the
// cache and counters, which are safe for concurrent use.
type Classifier struct {
	predictor PredictorInterface
	metadata  *ModelMetadata
	available bool
	loadErr   error
	modelPath string
	loadedAt  time.Time

	cache   *lru.Cache[features.ModelInput, Label]
	metrics MetricsInterface

	predictions atomic.Int64
	failures    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// HealthStatus summarizes the classifier for health endpoints.
type HealthStatus struct {
	Healthy         bool    `json:"healthy"`
	ModelLoaded     bool    `json:"model_loaded"`
	ModelPath       string  `json:"model_path"`
	ModelVersion    string  `json:"model_version,omitempty"`
	LastError       string  `json:"last_error,omitempty"`
	PredictionCount int64   `json:"prediction_count"`
	ErrorCount      int64   `json:"error_count"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewClassifier loads the model at cfg.ModelPath. It never fails: a load error
// is recorded, logged, and reported through Available and Err.
func NewClassifier(cfg ClassifierConfig, metrics MetricsInterface) *Classifier {
	p, md, err := LoadWithOptions(cfg.ModelPath, LoadOptions{ONNXLibraryPath: cfg.ONNXLibraryPath})
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			log.Error().Str("model_path", cfg.ModelPath).Msg("model file not found, classification disabled")
		} else {
			log.Error().Err(err).Str("model_path", cfg.ModelPath).Msg("model failed to load, classification disabled")
		}
		c := newClassifier(nil, nil, cfg, metrics)
		c.loadErr = err
		return c
	}
	return newClassifier(p, md, cfg, metrics)
}

// NewClassifierFromPredictor wraps an already loaded predictor.
func NewClassifierFromPredictor(p PredictorInterface, md *ModelMetadata, cfg ClassifierConfig, metrics MetricsInterface) *Classifier {
	return newClassifier(p, md, cfg, metrics)
}

func newClassifier(p PredictorInterface, md *ModelMetadata, cfg ClassifierConfig, metrics MetricsInterface) *Classifier {
	c := &Classifier{
		predictor: p,
		metadata:  md,
		available: p != nil,
		modelPath: cfg.ModelPath,
		loadedAt:  time.Now(),
		metrics:   metrics,
	}
	if c.available && cfg.CacheSize > 0 {
		cache, err := lru.New[features.ModelInput, Label](cfg.CacheSize)
		if err != nil {
			log.Warn().Err(err).Int("cache_size", cfg.CacheSize).Msg("prediction cache disabled")
		} else {
			c.cache = cache
		}
	}

	if metrics != nil {
		metrics.MLModelLoadedSet(c.available)
		if md != nil && !md.ModifiedAt.IsZero() {
			metrics.MLModelAgeSet(time.Since(md.ModifiedAt).Seconds())
		}
	}
	return c
}

// Available reports whether a model was loaded.
func (c *Classifier) Available() bool {
	return c != nil && c.available
}

// Err returns the load error, or nil when the model is available.
func (c *Classifier) Err() error {
	if c == nil {
		return ErrModelUnavailable
	}
	return c.loadErr
}

// Metadata returns the loaded artifact's metadata, or nil.
func (c *Classifier) Metadata() *ModelMetadata {
	if c == nil {
		return nil
	}
	return c.metadata
}

// ModelPath returns the configured artifact path.
func (c *Classifier) ModelPath() string {
	if c == nil {
		return ""
	}
	return c.modelPath
}

// Classify runs the model on one row.
func (c *Classifier) Classify(in features.ModelInput) (Label, error) {
	if !c.Available() {
		return LabelBad, ErrModelUnavailable
	}

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	if c.cache != nil {
		if label, ok := c.cache.Get(in); ok {
			c.cacheHits.Add(1)
			if c.metrics != nil {
				c.metrics.MLCacheHitsInc()
			}
			c.recordPrediction(label)
			return label, nil
		}
		c.cacheMisses.Add(1)
		if c.metrics != nil {
			c.metrics.MLCacheMissesInc()
		}
	}

	label, err := c.predictor.Predict(in)
	if err != nil {
		c.failures.Add(1)
		if c.metrics != nil {
			c.metrics.MLFailuresInc()
		}
		log.Error().Err(err).Interface("model_input", in).Msg("prediction failed")
		return LabelBad, fmt.Errorf("predict: %w", err)
	}

	if c.cache != nil {
		c.cache.Add(in, label)
	}
	c.recordPrediction(label)

	log.Debug().
		Interface("model_input", in).
		Int("label", int(label)).
		Msg("prediction successful")

	return label, nil
}

func (c *Classifier) recordPrediction(label Label) {
	c.predictions.Add(1)
	if c.metrics != nil {
		c.metrics.MLPredictionsInc(string(Present(label).Category))
	}
}

// GetHealthStatus returns the current health status
func (c *Classifier) GetHealthStatus() *HealthStatus {
	if c == nil {
		return &HealthStatus{Healthy: false, LastError: ErrModelUnavailable.Error()}
	}

	hits, misses := c.cacheHits.Load(), c.cacheMisses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	status := &HealthStatus{
		Healthy:         c.available,
		ModelLoaded:     c.available,
		ModelPath:       c.modelPath,
		PredictionCount: c.predictions.Load(),
		ErrorCount:      c.failures.Load(),
		CacheHitRate:    hitRate,
		UptimeSeconds:   time.Since(c.loadedAt).Seconds(),
	}
	if c.metadata != nil {
		status.ModelVersion = c.metadata.Version
	}
	if c.loadErr != nil {
		status.LastError = c.loadErr.Error()
	}
	return status
}

// Close releases predictor resources, if the adapter holds any.
func (c *Classifier) Close() error {
	if c == nil || c.predictor == nil {
		return nil
	}
	if closer, ok := c.predictor.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
