//go:build !tesseract

package recognizer

import (
	"errors"
	"testing"
)

func TestOpenTesseractDisabled(t *testing.T) {
	_, err := OpenClassifier(ClassifierConfig{Engine: EngineTesseract}, nil)
	if !errors.Is(err, ErrFailedToCreateEngine) || !errors.Is(err, ErrTesseractNotEnabled) {
		t.Fatalf("got %v", err)
	}
}
