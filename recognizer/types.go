package recognizer

import "encoding/json"

// ClassifierConfig selects and configures the glyph classifier.
type ClassifierConfig struct {
	Engine     string   `json:"engine"`
	OrtLibrary string   `json:"ortLibrary"`
	ModelPath  string   `json:"modelPath"`
	LabelPath  string   `json:"labelPath"`
	Backends   []string `json:"backends,omitempty"`

	// InputWidth and InputHeight are used only when the model input has
	// dynamic spatial dimensions.
	InputWidth  int      `json:"inputWidth"`
	InputHeight int      `json:"inputHeight"`
	InvertInput bool     `json:"invertInput"`
	Softmax     bool     `json:"softmax"`
	Languages   []string `json:"languages,omitempty"`
	CacheDir    string   `json:"cacheDir"`
	ModelID     string   `json:"modelId"`
}

// SegmenterConfig tunes ComponentSegmenter.
type SegmenterConfig struct {
	// Threshold is the gray level at or below which a pixel is ink. Zero
	// selects Otsu's method per image.
	Threshold    int `json:"threshold"`
	DilateRadius int `json:"dilateRadius"`
	MinArea      int `json:"minArea"`
	Padding      int `json:"padding"`
}

// ApplyDefaults populates zero values.
func (c *SegmenterConfig) ApplyDefaults() {
	if c.Threshold < 0 || c.Threshold > 255 {
		c.Threshold = 0
	}
	if c.DilateRadius <= 0 {
		c.DilateRadius = 2
	}
	if c.MinArea <= 0 {
		c.MinArea = 8
	}
	if c.Padding < 0 {
		c.Padding = 0
	}
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Classifier     ClassifierConfig `json:"classifier"`
	Segmenter      SegmenterConfig  `json:"segmenter"`
	TimeoutSeconds int              `json:"timeoutSeconds"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Classifier.Engine == "" {
		c.Classifier.Engine = EngineONNX
	}
	if c.Classifier.ModelPath == "" {
		c.Classifier.ModelPath = "./models/glyphs/model.onnx"
	}
	if c.Classifier.LabelPath == "" {
		c.Classifier.LabelPath = "./models/glyphs/labels.txt"
	}
	if len(c.Classifier.Backends) == 0 {
		c.Classifier.Backends = append([]string(nil), DefaultBackends...)
	}
	if c.Classifier.InputWidth <= 0 {
		c.Classifier.InputWidth = 32
	}
	if c.Classifier.InputHeight <= 0 {
		c.Classifier.InputHeight = 32
	}
	if len(c.Classifier.Languages) == 0 {
		c.Classifier.Languages = []string{"kor", "eng"}
	}
	if c.TimeoutSeconds < 0 {
		c.TimeoutSeconds = 0
	}
	c.Segmenter.ApplyDefaults()
}
