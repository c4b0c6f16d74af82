package ml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wine-classifier/internal/features"

	"github.com/rs/zerolog/log"
)

const (
	// ArtifactFormat tags JSON model artifacts produced for this classifier.
	ArtifactFormat = "wine-classifier"

	KindDecisionTree = "decision_tree"
	KindLogistic     = "logistic_regression"
	KindONNX         = "onnx"
)

// ModelMetadata describes the artifact behind a loaded predictor.
type ModelMetadata struct {
	Version    string    `json:"version"`
	Kind       string    `json:"kind"`
	Features   []string  `json:"features"`
	TrainedAt  time.Time `json:"trained_at"`
	Path       string    `json:"path"`
	ModifiedAt time.Time `json:"modified_at"`
}

// LoadOptions tune how artifacts are opened.
type LoadOptions struct {
	// ONNXLibraryPath points at the onnxruntime shared library. Empty uses the
	// runtime's default lookup.
	ONNXLibraryPath string
}

// artifact is the on-disk JSON model document.
type artifact struct {
	Format    string          `json:"format"`
	Version   string          `json:"version"`
	Kind      string          `json:"kind"`
	Features  []string        `json:"features"`
	TrainedAt time.Time       `json:"trained_at"`
	Tree      []TreeNode      `json:"tree,omitempty"`
	Logistic  *LogisticParams `json:"logistic,omitempty"`
}

// Load opens the artifact at path with default options.
func Load(path string) (PredictorInterface, *ModelMetadata, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions opens the artifact at path. A missing file yields an error
// matching ErrModelNotFound; every other failure is a *LoadError.
func LoadWithOptions(path string, opts LoadOptions) (PredictorInterface, *ModelMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, nil, &LoadError{Path: path, Err: errors.New("path is a directory")}
	}

	var (
		p  PredictorInterface
		md *ModelMetadata
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		p, md, err = loadONNX(path, opts)
	default:
		p, md, err = loadJSON(path)
	}
	if err != nil {
		return nil, nil, &LoadError{Path: path, Err: err}
	}

	md.Path = path
	md.ModifiedAt = info.ModTime()

	log.Info().
		Str("model_path", path).
		Str("kind", md.Kind).
		Str("version", md.Version).
		Msg("model loaded")

	return p, md, nil
}

func loadJSON(path string) (PredictorInterface, *ModelMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read artifact: %w", err)
	}

	var a artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, nil, fmt.Errorf("decode artifact: %w", err)
	}

	if a.Format != ArtifactFormat {
		return nil, nil, fmt.Errorf("unsupported artifact format %q", a.Format)
	}
	if err := checkSchema(a.Features); err != nil {
		return nil, nil, err
	}

	var p PredictorInterface
	switch a.Kind {
	case KindDecisionTree:
		var tree *DecisionTree
		if tree, err = NewDecisionTree(a.Tree); err == nil {
			log.Debug().Int("nodes", len(a.Tree)).Int("depth", tree.Depth()).Msg("decision tree validated")
			p = tree
		}
	case KindLogistic:
		if a.Logistic == nil {
			return nil, nil, errors.New("logistic_regression artifact has no logistic section")
		}
		p, err = NewLogistic(*a.Logistic)
	default:
		return nil, nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	return p, &ModelMetadata{
		Version:   a.Version,
		Kind:      a.Kind,
		Features:  a.Features,
		TrainedAt: a.TrainedAt,
	}, nil
}

func checkSchema(names []string) error {
	if !features.SchemaMatches(names) {
		return fmt.Errorf("%w: artifact expects %v, pipeline produces %v",
			ErrSchemaMismatch, names, features.InputSchema)
	}
	return nil
}
