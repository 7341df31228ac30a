package recognizer

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is on values returned by this package.
var (
	// ErrInvalidData reports a missing or unreadable model or label resource.
	ErrInvalidData = errors.New("invalid model or label data")
	// ErrFailedToCreateEngine reports that no inference backend could be instantiated.
	ErrFailedToCreateEngine = errors.New("failed to create inference engine")
	// ErrUnrecognizableImage reports that segmentation produced no glyphs.
	ErrUnrecognizableImage = errors.New("unrecognizable image")
	// ErrClassifier reports that the classifier failed on one glyph and the run was aborted.
	ErrClassifier = errors.New("classifier error")
	// ErrCancelled reports a run stopped through its context. It is never delivered by Runner.
	ErrCancelled = errors.New("recognition cancelled")
)

// InitError is returned when a classifier cannot be constructed.
type InitError struct {
	Kind error
	Path string
	Err  error
}

func (e *InitError) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InitError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RecognitionError is returned when a recognition run fails.
type RecognitionError struct {
	Kind error
	// Glyph is the segmenter-order index of the glyph that failed, or -1.
	Glyph int
	Err   error
}

func (e *RecognitionError) Error() string {
	msg := e.Kind.Error()
	if e.Glyph >= 0 {
		msg = fmt.Sprintf("%s at glyph %d", msg, e.Glyph)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RecognitionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// InferenceError is returned by classifiers when the engine cannot process an input.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s: %v", e.Op, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func invalidData(path string, err error) error {
	return &InitError{Kind: ErrInvalidData, Path: path, Err: err}
}
