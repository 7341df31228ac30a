package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one recognition run.
type Result struct {
	Text           string            `json:"text"`
	MeanConfidence float32           `json:"meanConfidence"`
	MinConfidence  float32           `json:"minConfidence"`
	MaxConfidence  float32           `json:"maxConfidence"`
	Glyphs         []RecognizedGlyph `json:"glyphs"`

	// Classified counts glyphs classified before the run ended. It is below
	// len(segmented glyphs) only for a cancelled run.
	Classified int `json:"classified"`
}

// Pipeline segments an image, classifies every glyph and assembles the text.
// A Pipeline is not meant for concurrent runs against the same classifier;
// use Runner to serialize them.
type Pipeline struct {
	segmenter  Segmenter
	classifier Classifier
	logger     *log.Logger
}

// NewPipeline constructs a pipeline. A nil logger disables logging.
func NewPipeline(segmenter Segmenter, classifier Classifier, logger *log.Logger) (*Pipeline, error) {
	if segmenter == nil {
		return nil, errors.New("segmenter is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	return &Pipeline{segmenter: segmenter, classifier: classifier, logger: logger}, nil
}

// Classifier returns the classifier the pipeline runs.
func (p *Pipeline) Classifier() Classifier { return p.classifier }

// Recognize segments img and recognizes the glyphs found.
func (p *Pipeline) Recognize(ctx context.Context, img image.Image) (Result, error) {
	glyphs, boxes, err := p.segmenter.Segment(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("segment image: %w", err)
	}
	return p.RecognizeGlyphs(ctx, glyphs, boxes)
}

// RecognizeGlyphs classifies glyphs in the given (segmenter) order, then sorts
// them into reading order and assembles multi-line text.
//
// It panics when len(glyphs) != len(boxes). Zero glyphs fail with
// ErrUnrecognizableImage before any classification. The context is polled
// before each glyph; once done the run stops and returns the partial result
// with an error matching ErrCancelled. A classifier failure aborts the run
// with ErrClassifier.
func (p *Pipeline) RecognizeGlyphs(ctx context.Context, glyphs []image.Image, boxes []BoundingBox) (Result, error) {
	if len(glyphs) != len(boxes) {
		panic(fmt.Sprintf("recognizer: %d glyph images but %d boxes", len(glyphs), len(boxes)))
	}
	if len(glyphs) == 0 {
		return Result{}, &RecognitionError{Kind: ErrUnrecognizableImage, Glyph: -1}
	}

	runID := uuid.NewString()
	start := time.Now()
	p.logf("run %s: classifying %d glyphs", runID, len(glyphs))

	stats := NewConfidenceStats()
	recognized := make([]RecognizedGlyph, 0, len(glyphs))
	var cancelErr error
	for i, glyph := range glyphs {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}
		c, err := p.classifier.Classify(ctx, glyph)
		if err != nil {
			p.logf("run %s: glyph %d failed: %v", runID, i, err)
			return Result{}, &RecognitionError{Kind: ErrClassifier, Glyph: i, Err: err}
		}
		stats.Add(c.Confidence)
		recognized = append(recognized, RecognizedGlyph{
			Label:      c.Label,
			Box:        boxes[i],
			Confidence: c.Confidence,
		})
	}

	SortGlyphs(recognized)
	res := Result{
		Text:       AssembleText(recognized),
		Glyphs:     recognized,
		Classified: stats.Count(),
	}
	if mean, lo, hi, ok := stats.Summary(); ok {
		res.MeanConfidence, res.MinConfidence, res.MaxConfidence = mean, lo, hi
	}
	if cancelErr != nil {
		p.logf("run %s: cancelled after %d of %d glyphs", runID, res.Classified, len(glyphs))
		return res, fmt.Errorf("%w: %w", ErrCancelled, cancelErr)
	}
	p.logf("run %s: done in %s, mean confidence %.3f", runID, time.Since(start).Round(time.Millisecond), res.MeanConfidence)
	return res, nil
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
