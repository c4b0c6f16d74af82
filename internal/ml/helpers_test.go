package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"wine-classifier/internal/features"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	failures    int
	latencyObs  int
	modelAge    float64
	modelLoaded *bool
	cacheHits   int
	cacheMisses int
}

func (m *MockMetrics) MLPredictionsInc(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.predictions == nil {
		m.predictions = make(map[string]int)
	}
	m.predictions[category]++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLLatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencyObs++
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) MLModelLoadedSet(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelLoaded = &v
}

func (m *MockMetrics) MLCacheHitsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

func (m *MockMetrics) MLCacheMissesInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

func (m *MockMetrics) totalPredictions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.predictions {
		total += n
	}
	return total
}

// countingPredictor returns a fixed label and counts calls.
type countingPredictor struct {
	mu    sync.Mutex
	label Label
	err   error
	calls int
}

func (p *countingPredictor) Predict(features.ModelInput) (Label, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.label, p.err
}

func (p *countingPredictor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// sampleTree is the tree shipped in models/wine_model.json.
func sampleTree() []TreeNode {
	return []TreeNode{
		{FeatureIdx: 5, Threshold: 10.5, LeftChild: 1, RightChild: 6},
		{FeatureIdx: 1, Threshold: 0.5, LeftChild: 2, RightChild: 5},
		{FeatureIdx: 4, Threshold: 0.65, LeftChild: 3, RightChild: 4},
		{IsLeaf: true, ClassLabel: 0},
		{IsLeaf: true, ClassLabel: 1},
		{IsLeaf: true, ClassLabel: 0},
		{FeatureIdx: 4, Threshold: 0.6, LeftChild: 7, RightChild: 10},
		{FeatureIdx: 1, Threshold: 0.4, LeftChild: 8, RightChild: 9},
		{IsLeaf: true, ClassLabel: 1},
		{IsLeaf: true, ClassLabel: 0},
		{IsLeaf: true, ClassLabel: 1},
	}
}

func writeArtifact(t *testing.T, dir, name string, a any) string {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func treeArtifact() artifact {
	return artifact{
		Format:   ArtifactFormat,
		Version:  "test",
		Kind:     KindDecisionTree,
		Features: append([]string(nil), features.InputSchema...),
		Tree:     sampleTree(),
	}
}
