package recognizer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
)

// Classifier exposes the minimal surface required by the pipeline.
type Classifier interface {
	// Classify labels one glyph crop. Engine failures are returned as *InferenceError.
	Classify(ctx context.Context, glyph image.Image) (Classification, error)
	Labels() LabelTable
	Close() error
}

// Classification is the outcome for a single glyph.
type Classification struct {
	Label      string    `json:"label"`
	Index      int       `json:"index"`
	Confidence float32   `json:"confidence"`
	Scores     []float32 `json:"scores,omitempty"`
}

// Argmax returns the index of the first strictly greatest value. The running
// maximum starts at 0, so an all non-positive vector yields index 0. An empty
// vector yields -1.
func Argmax(values []float32) int {
	if len(values) == 0 {
		return -1
	}
	idx := 0
	var best float32
	for i, v := range values {
		if v > best {
			idx = i
			best = v
		}
	}
	return idx
}

// Softmax converts logits to probabilities in place.
func Softmax(values []float32) {
	if len(values) == 0 {
		return
	}
	maxV := values[0]
	for _, v := range values[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i, v := range values {
		e := math.Exp(float64(v - maxV))
		values[i] = float32(e)
		sum += e
	}
	for i := range values {
		values[i] = float32(float64(values[i]) / sum)
	}
}

// classifyScores resolves a confidence vector against the label table.
func classifyScores(scores []float32, labels LabelTable) (Classification, error) {
	idx := Argmax(scores)
	if idx < 0 {
		return Classification{}, &InferenceError{Op: "argmax", Err: errors.New("empty output vector")}
	}
	label, ok := labels.At(idx)
	if !ok {
		return Classification{}, &InferenceError{
			Op:  "label lookup",
			Err: fmt.Errorf("output index %d outside label table of %d", idx, labels.Len()),
		}
	}
	return Classification{
		Label:      label,
		Index:      idx,
		Confidence: scores[idx],
		Scores:     scores,
	}, nil
}

const float32Size = 4

// DecodeFloat32s reinterprets a contiguous native-endian buffer as float32
// values. It fails when the length is not a multiple of the element width.
func DecodeFloat32s(buf []byte) ([]float32, error) {
	if len(buf)%float32Size != 0 {
		return nil, fmt.Errorf("buffer of %d bytes is not a multiple of %d", len(buf), float32Size)
	}
	out := make([]float32, len(buf)/float32Size)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(buf[i*float32Size:]))
	}
	return out, nil
}
