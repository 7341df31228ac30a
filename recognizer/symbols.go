package recognizer

import (
	"errors"
	"fmt"
	"strings"
)

// symbolHit is one symbol reported by a text engine with its confidence in
// percent.
type symbolHit struct {
	Text       string
	Confidence float64
}

// classifySymbols maps engine symbols onto the label table. The score vector is
// zero except at matched labels; the best matched symbol wins even at zero
// confidence.
func classifySymbols(hits []symbolHit, labels LabelTable) (Classification, error) {
	if len(hits) == 0 {
		return Classification{}, &InferenceError{Op: "run", Err: errors.New("no symbol found")}
	}
	scores := make([]float32, labels.Len())
	best := -1
	for _, h := range hits {
		idx, ok := labels.Index(strings.TrimSpace(h.Text))
		if !ok {
			continue
		}
		c := float32(h.Confidence / 100)
		if c > scores[idx] {
			scores[idx] = c
		}
		if best < 0 || scores[idx] > scores[best] {
			best = idx
		}
	}
	if best < 0 {
		return Classification{}, &InferenceError{Op: "label lookup", Err: fmt.Errorf("symbol %q not in label table", hits[0].Text)}
	}
	label, _ := labels.At(best)
	return Classification{Label: label, Index: best, Confidence: scores[best], Scores: scores}, nil
}
