package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"wine-classifier/internal/features"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// onnxSidecar is read from "<model>.onnx.meta.json". The graph itself does not
// carry column names, so the sidecar is mandatory.
type onnxSidecar struct {
	Version    string    `json:"version"`
	Features   []string  `json:"features"`
	TrainedAt  time.Time `json:"trained_at"`
	InputName  string    `json:"input_name,omitempty"`
	OutputName string    `json:"output_name,omitempty"`
}

// ONNXModel runs a classifier graph that takes a float32 [1, 8] tensor and
// emits an int64 label tensor.
type ONNXModel struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

func initONNX(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

func sidecarPath(modelPath string) string {
	return modelPath + ".meta.json"
}

func readSidecar(path string) (*onnxSidecar, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("onnx metadata sidecar %s is missing", path)
		}
		return nil, err
	}
	defer f.Close()

	var sc onnxSidecar
	if err := json.NewDecoder(f).Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode onnx metadata: %w", err)
	}
	return &sc, nil
}

func loadONNX(path string, opts LoadOptions) (PredictorInterface, *ModelMetadata, error) {
	sc, err := readSidecar(sidecarPath(path))
	if err != nil {
		return nil, nil, err
	}
	if err := checkSchema(sc.Features); err != nil {
		return nil, nil, err
	}

	if err := initONNX(opts.ONNXLibraryPath); err != nil {
		return nil, nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, nil, fmt.Errorf("inspect onnx graph: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, nil, errors.New("onnx graph has no inputs or outputs")
	}

	inputName := sc.InputName
	if inputName == "" {
		inputName = inputs[0].Name
	}
	var input *ort.InputOutputInfo
	for i := range inputs {
		if inputs[i].Name == inputName {
			input = &inputs[i]
		}
	}
	if input == nil {
		return nil, nil, fmt.Errorf("onnx graph has no input named %q", inputName)
	}
	if dims := input.Dimensions; len(dims) > 0 {
		if width := dims[len(dims)-1]; width > 0 && width != int64(len(features.InputSchema)) {
			return nil, nil, fmt.Errorf("%w: onnx input %q is %d wide, pipeline produces %d",
				ErrSchemaMismatch, inputName, width, len(features.InputSchema))
		}
	}

	outputName := sc.OutputName
	if outputName == "" {
		outputName = outputs[0].Name
		for _, o := range outputs {
			if o.Name == "label" {
				outputName = o.Name
			}
		}
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXModel{
			session:    session,
			inputName:  inputName,
			outputName: outputName,
		}, &ModelMetadata{
			Version:   sc.Version,
			Kind:      KindONNX,
			Features:  sc.Features,
			TrainedAt: sc.TrainedAt,
		}, nil
}

func (m *ONNXModel) Predict(in features.ModelInput) (Label, error) {
	inT, err := ort.NewTensor(ort.NewShape(1, int64(len(features.InputSchema))), in.Float32s())
	if err != nil {
		return LabelBad, fmt.Errorf("create input tensor: %w", err)
	}
	defer inT.Destroy()

	outT, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return LabelBad, fmt.Errorf("create output tensor: %w", err)
	}
	defer outT.Destroy()

	if err := m.session.Run([]ort.Value{inT}, []ort.Value{outT}); err != nil {
		return LabelBad, fmt.Errorf("session run error: %w", err)
	}

	data := outT.GetData()
	if len(data) == 0 {
		return LabelBad, errors.New("onnx session returned no label")
	}
	return Label(data[0]), nil
}

// Close releases the onnxruntime session.
func (m *ONNXModel) Close() error {
	if m.session == nil {
		return nil
	}
	return m.session.Destroy()
}
