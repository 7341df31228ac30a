//go:build !tesseract

package recognizer

import (
	"errors"
	"log"
)

// ErrTesseractNotEnabled is returned when the tesseract engine is selected in a
// build without the "tesseract" tag. Rebuild with -tags tesseract.
var ErrTesseractNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

func openTesseract(_ ClassifierConfig, _ *log.Logger) (Classifier, error) {
	return nil, &InitError{Kind: ErrFailedToCreateEngine, Err: ErrTesseractNotEnabled}
}
