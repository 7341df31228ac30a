package recognizer

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenClassifierUnknownEngine(t *testing.T) {
	_, err := OpenClassifier(ClassifierConfig{Engine: "abacus"}, nil)
	if !errors.Is(err, ErrFailedToCreateEngine) {
		t.Fatalf("expected ErrFailedToCreateEngine, got %v", err)
	}
}

func TestLoadClassifierAsyncMissingModel(t *testing.T) {
	dir := t.TempDir()
	ch := LoadClassifierAsync(ClassifierConfig{
		ModelPath: filepath.Join(dir, "model.onnx"),
		LabelPath: filepath.Join(dir, "labels.txt"),
	}, nil)
	select {
	case res := <-ch:
		if res.Classifier != nil || !errors.Is(res.Err, ErrInvalidData) {
			t.Errorf("got %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no load result")
	}
}

func TestLoadAsyncDeliversOnce(t *testing.T) {
	cls := newFakeClassifier([]string{"a"}, []float32{1})
	ch := loadAsync(func() (Classifier, error) { return cls, nil })
	res := waitFor(t, ch)
	if res.Err != nil || res.Classifier != cls {
		t.Errorf("got %+v", res)
	}
	select {
	case extra := <-ch:
		t.Errorf("second delivery %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}
