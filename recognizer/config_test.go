package recognizer

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Classifier.Engine != EngineONNX {
		t.Errorf("engine = %q", cfg.Classifier.Engine)
	}
	if cfg.Classifier.InputWidth != 32 || cfg.Classifier.InputHeight != 32 {
		t.Errorf("input = %dx%d", cfg.Classifier.InputWidth, cfg.Classifier.InputHeight)
	}
	if !reflect.DeepEqual(cfg.Classifier.Backends, DefaultBackends) {
		t.Errorf("backends = %v", cfg.Classifier.Backends)
	}
	if cfg.Segmenter.DilateRadius != 2 || cfg.Segmenter.MinArea != 8 {
		t.Errorf("segmenter = %+v", cfg.Segmenter)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Classifier.Softmax = true
	cfg.Classifier.Backends = []string{"cpu"}
	cfg.Classifier.CacheDir = filepath.Join(dir, "cache")
	cfg.Segmenter.Threshold = 140
	cfg.TimeoutSeconds = 30

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}
	if _, err := os.Stat(cfg.Classifier.CacheDir); err != nil {
		t.Errorf("cache dir not created: %v", err)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestConfigClone(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	clone := cfg.Clone()
	clone.Classifier.Backends[0] = "changed"
	if cfg.Classifier.Backends[0] == "changed" {
		t.Error("Clone shares backing arrays")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvModel, "/models/m.onnx")
	t.Setenv(EnvLabels, " /models/labels.txt ")
	t.Setenv(EnvBackends, "CUDA, ,cpu")
	t.Setenv(EnvEngine, "")

	cfg := Config{}
	cfg.ApplyDefaults()
	ApplyEnv(&cfg)
	if cfg.Classifier.ModelPath != "/models/m.onnx" || cfg.Classifier.LabelPath != "/models/labels.txt" {
		t.Errorf("paths = %q %q", cfg.Classifier.ModelPath, cfg.Classifier.LabelPath)
	}
	if !reflect.DeepEqual(cfg.Classifier.Backends, []string{"cuda", "cpu"}) {
		t.Errorf("backends = %v", cfg.Classifier.Backends)
	}
	if cfg.Classifier.Engine != EngineONNX {
		t.Errorf("empty variable must not override engine, got %q", cfg.Classifier.Engine)
	}
}

func TestLoadEnv(t *testing.T) {
	const key = "GLYPHOCR_TEST_LOADENV"
	t.Setenv(key, "")
	os.Unsetenv(key)

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q", key, got)
	}
}
