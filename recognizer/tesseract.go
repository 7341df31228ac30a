//go:build tesseract

package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractClassifier classifies glyphs with Tesseract in single-character
// mode, restricted to the label table. The gosseract client is not safe for
// concurrent use, so calls are serialized.
type TesseractClassifier struct {
	mu     sync.Mutex
	client *gosseract.Client
	labels LabelTable
	logger *log.Logger
}

// NewTesseractClassifier creates a Tesseract-backed classifier. Requires the
// tesseract library and trained data for cfg.Languages.
func NewTesseractClassifier(cfg ClassifierConfig, logger *log.Logger) (*TesseractClassifier, error) {
	labels, err := LoadLabelTable(cfg.LabelPath)
	if err != nil {
		return nil, invalidData(cfg.LabelPath, err)
	}
	if labels.Len() == 0 {
		return nil, invalidData(cfg.LabelPath, errors.New("label file is empty"))
	}
	client := gosseract.NewClient()
	setup := func() error {
		if len(cfg.Languages) > 0 {
			if err := client.SetLanguage(cfg.Languages...); err != nil {
				return fmt.Errorf("set languages: %w", err)
			}
		}
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
			return fmt.Errorf("set page seg mode: %w", err)
		}
		if wl := whitelist(labels); wl != "" {
			if err := client.SetWhitelist(wl); err != nil {
				return fmt.Errorf("set whitelist: %w", err)
			}
		}
		return nil
	}
	if err := setup(); err != nil {
		client.Close()
		return nil, &InitError{Kind: ErrFailedToCreateEngine, Err: err}
	}
	if logger != nil {
		logger.Printf("tesseract classifier ready: version=%s labels=%d", client.Version(), labels.Len())
	}
	return &TesseractClassifier{client: client, labels: labels, logger: logger}, nil
}

// whitelist returns the concatenated labels when every label is one rune.
func whitelist(labels LabelTable) string {
	var b strings.Builder
	for _, l := range labels.Labels() {
		if l == "" {
			continue
		}
		if utf8.RuneCountInString(l) != 1 {
			return ""
		}
		b.WriteString(l)
	}
	return b.String()
}

// Classify runs Tesseract on the glyph and maps the best symbol onto the label
// table. A glyph with no symbol fails rather than defaulting to the first label.
func (t *TesseractClassifier) Classify(_ context.Context, glyph image.Image) (Classification, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, glyph, imaging.PNG); err != nil {
		return Classification{}, &InferenceError{Op: "encode", Err: err}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return Classification{}, &InferenceError{Op: "run", Err: errors.New("classifier is closed")}
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Classification{}, &InferenceError{Op: "set image", Err: err}
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return Classification{}, &InferenceError{Op: "run", Err: err}
	}
	hits := make([]symbolHit, 0, len(boxes))
	for _, box := range boxes {
		hits = append(hits, symbolHit{Text: box.Word, Confidence: box.Confidence})
	}
	return classifySymbols(hits, t.labels)
}

// Labels returns the label table.
func (t *TesseractClassifier) Labels() LabelTable { return t.labels }

// Close releases the Tesseract client.
func (t *TesseractClassifier) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func openTesseract(cfg ClassifierConfig, logger *log.Logger) (Classifier, error) {
	return NewTesseractClassifier(cfg, logger)
}
