package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// OrtClassifier runs a glyph classification model through ONNX Runtime.
// Calls are serialized: one session is shared by every Classify call.
type OrtClassifier struct {
	mu      sync.Mutex
	eng     engine
	backend string
	labels  LabelTable
	spec    InputSpec
	softmax bool
	cache   *scoreCache
	logger  *log.Logger
}

// NewOrtClassifier loads the label table and model, then acquires a session on
// the first backend in cfg.Backends that works. Missing or unreadable resources
// fail with ErrInvalidData; backend failures with ErrFailedToCreateEngine.
// Construction is slow; see LoadClassifierAsync.
func NewOrtClassifier(cfg ClassifierConfig, logger *log.Logger) (*OrtClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, invalidData("", errors.New("model path is empty"))
	}
	info, err := os.Stat(cfg.ModelPath)
	if err != nil {
		return nil, invalidData(cfg.ModelPath, err)
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID(cfg.ModelPath, info)
	}
	labels, err := LoadLabelTable(cfg.LabelPath)
	if err != nil {
		return nil, invalidData(cfg.LabelPath, err)
	}
	if labels.Len() == 0 {
		return nil, invalidData(cfg.LabelPath, errors.New("label file is empty"))
	}

	if err := initOrtEnvironment(cfg.OrtLibrary); err != nil {
		return nil, &InitError{Kind: ErrFailedToCreateEngine, Path: cfg.OrtLibrary, Err: err}
	}
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, invalidData(cfg.ModelPath, fmt.Errorf("read model io: %w", err))
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, invalidData(cfg.ModelPath, fmt.Errorf("expected 1 input and at least 1 output, got %d and %d", len(inputs), len(outputs)))
	}
	spec, err := inputSpecFromDims(inputs[0].Dimensions, cfg.InputWidth, cfg.InputHeight, cfg.InvertInput)
	if err != nil {
		return nil, invalidData(cfg.ModelPath, fmt.Errorf("input %q: %w", inputs[0].Name, err))
	}
	outDims := outputs[0].Dimensions
	outLen := labels.Len()
	if len(outDims) > 0 {
		if n := outDims[len(outDims)-1]; n > 0 && int(n) != labels.Len() {
			return nil, invalidData(cfg.LabelPath, fmt.Errorf("model emits %d scores but label table has %d entries", n, labels.Len()))
		}
	}

	io := ortIO{
		modelPath: cfg.ModelPath,
		input:     inputs[0].Name,
		output:    outputs[0].Name,
		inShape:   ort.NewShape(spec.Shape()...),
		outShape:  outputShape(outDims, outLen),
		outLen:    outLen,
	}
	eng, backend, err := acquireEngine(ortStrategies(cfg.Backends, io), logger)
	if err != nil {
		return nil, err
	}
	var cache *scoreCache
	if cfg.CacheDir != "" {
		if cache, err = newScoreCache(cfg.CacheDir, cfg.ModelID, labels.Len()); err != nil {
			eng.Close()
			return nil, err
		}
	}
	c := newOrtClassifier(eng, labels, spec, cfg.Softmax, cache, logger)
	c.backend = backend
	c.logf("classifier ready: model=%s labels=%d input=%dx%dx%d backend=%s", cfg.ModelID, labels.Len(), spec.Width, spec.Height, spec.Channels, backend)
	return c, nil
}

// defaultModelID identifies a model file by name, size and modification time so
// a retrained model at the same path gets fresh cache keys.
func defaultModelID(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s@%d-%d", filepath.Base(path), info.Size(), info.ModTime().UnixNano())
}

func newOrtClassifier(eng engine, labels LabelTable, spec InputSpec, softmax bool, cache *scoreCache, logger *log.Logger) *OrtClassifier {
	return &OrtClassifier{
		eng:     eng,
		labels:  labels,
		spec:    spec,
		softmax: softmax,
		cache:   cache,
		logger:  logger,
	}
}

// Classify preprocesses the glyph, runs the model and picks the argmax label.
func (c *OrtClassifier) Classify(_ context.Context, glyph image.Image) (Classification, error) {
	input, err := ImageToTensor(glyph, c.spec)
	if err != nil {
		return Classification{}, &InferenceError{Op: "preprocess", Err: err}
	}
	scores, err := c.scores(input)
	if err != nil {
		return Classification{}, err
	}
	if c.softmax {
		Softmax(scores)
	}
	return classifyScores(scores, c.labels)
}

func (c *OrtClassifier) scores(input []float32) ([]float32, error) {
	var key string
	if c.cache != nil {
		key = c.cache.key(input)
		if vec, ok := c.cache.get(key); ok && len(vec) == c.labels.Len() {
			return vec, nil
		}
	}
	c.mu.Lock()
	if c.eng == nil {
		c.mu.Unlock()
		return nil, &InferenceError{Op: "run", Err: errors.New("classifier is closed")}
	}
	raw, err := c.eng.Run(input)
	c.mu.Unlock()
	if err != nil {
		return nil, &InferenceError{Op: "run", Err: err}
	}
	scores, err := DecodeFloat32s(raw)
	if err != nil {
		return nil, &InferenceError{Op: "decode output", Err: err}
	}
	if len(scores) != c.labels.Len() {
		return nil, &InferenceError{Op: "decode output", Err: fmt.Errorf("got %d scores for %d labels", len(scores), c.labels.Len())}
	}
	if c.cache != nil {
		c.cache.put(key, scores)
		if err := c.cache.save(key, scores); err != nil {
			c.logf("score cache save failed: %v", err)
		}
	}
	return scores, nil
}

// Labels returns the label table.
func (c *OrtClassifier) Labels() LabelTable { return c.labels }

// Backend returns the name of the backend the session runs on.
func (c *OrtClassifier) Backend() string { return c.backend }

// Close releases the session. Classify fails afterwards.
func (c *OrtClassifier) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng == nil {
		return nil
	}
	err := c.eng.Close()
	c.eng = nil
	return err
}

func (c *OrtClassifier) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

var ortEnvMu sync.Mutex

func initOrtEnvironment(library string) error {
	ortEnvMu.Lock()
	defer ortEnvMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

type ortIO struct {
	modelPath string
	input     string
	output    string
	inShape   ort.Shape
	outShape  ort.Shape
	outLen    int
}

func outputShape(dims []int64, n int) ort.Shape {
	if len(dims) == 0 {
		return ort.NewShape(1, int64(n))
	}
	shape := make([]int64, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		shape[i] = d
	}
	shape[len(shape)-1] = int64(n)
	return ort.NewShape(shape...)
}

// DefaultBackends is the backend rank used when none is configured.
var DefaultBackends = []string{"coreml", "cuda", "cpu"}

func ortStrategies(names []string, io ortIO) []backendStrategy {
	if len(names) == 0 {
		names = DefaultBackends
	}
	out := make([]backendStrategy, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		out = append(out, backendStrategy{
			name: name,
			open: func() (engine, error) { return openOrtEngine(name, io) },
		})
	}
	return out
}

func openOrtEngine(backend string, io ortIO) (engine, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer opts.Destroy()

	switch backend {
	case "cpu":
	case "coreml":
		if err := opts.AppendExecutionProviderCoreML(0); err != nil {
			return nil, fmt.Errorf("append coreml provider: %w", err)
		}
	case "cuda":
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("cuda provider options: %w", err)
		}
		defer cuda.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
			return nil, fmt.Errorf("append cuda provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	session, err := ort.NewDynamicAdvancedSession(io.modelPath, []string{io.input}, []string{io.output}, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &ortEngine{session: session, io: io}, nil
}

type ortEngine struct {
	session *ort.DynamicAdvancedSession
	io      ortIO
}

func (e *ortEngine) Run(input []float32) ([]byte, error) {
	in, err := ort.NewTensor(e.io.inShape, input)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer in.Destroy()
	out, err := ort.NewCustomDataTensor(e.io.outShape, make([]byte, e.io.outLen*float32Size), ort.TensorElementDataTypeFloat)
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer out.Destroy()
	if err := e.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, err
	}
	return cloneBytes(out.GetData()), nil
}

func (e *ortEngine) Close() error {
	return e.session.Destroy()
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
