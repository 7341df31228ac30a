package recognizer

import (
	"fmt"
	"log"
	"strings"
)

// Engine names accepted in ClassifierConfig.Engine.
const (
	EngineONNX      = "onnx"
	EngineTesseract = "tesseract"
)

// OpenClassifier constructs the classifier selected by cfg.Engine.
func OpenClassifier(cfg ClassifierConfig, logger *log.Logger) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", EngineONNX:
		c, err := NewOrtClassifier(cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case EngineTesseract:
		return openTesseract(cfg, logger)
	default:
		return nil, &InitError{Kind: ErrFailedToCreateEngine, Err: fmt.Errorf("unknown engine %q", cfg.Engine)}
	}
}

// LoadResult is the single value delivered by LoadClassifierAsync.
type LoadResult struct {
	Classifier Classifier
	Err        error
}

// LoadClassifierAsync constructs the classifier on a background goroutine and
// delivers exactly one LoadResult on the returned channel.
func LoadClassifierAsync(cfg ClassifierConfig, logger *log.Logger) <-chan LoadResult {
	return loadAsync(func() (Classifier, error) { return OpenClassifier(cfg, logger) })
}

func loadAsync(open func() (Classifier, error)) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		c, err := open()
		ch <- LoadResult{Classifier: c, Err: err}
	}()
	return ch
}
