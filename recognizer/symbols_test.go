package recognizer

import (
	"errors"
	"testing"
)

func TestClassifySymbols(t *testing.T) {
	labels := NewLabelTable([]string{"가", "A", "b"})
	tests := []struct {
		name      string
		hits      []symbolHit
		wantLabel string
		wantConf  float32
		wantOp    string
	}{
		{"no symbol", nil, "", 0, "run"},
		{"unknown symbol", []symbolHit{{Text: "?", Confidence: 90}}, "", 0, "label lookup"},
		{"single", []symbolHit{{Text: " A ", Confidence: 80}}, "A", 0.8, ""},
		{"best wins", []symbolHit{{Text: "A", Confidence: 40}, {Text: "b", Confidence: 70}, {Text: "?", Confidence: 99}}, "b", 0.7, ""},
		{"zero confidence match", []symbolHit{{Text: "b", Confidence: 0}}, "b", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifySymbols(tt.hits, labels)
			if tt.wantOp != "" {
				var ie *InferenceError
				if !errors.As(err, &ie) || ie.Op != tt.wantOp {
					t.Fatalf("err = %v, want InferenceError op %q", err, tt.wantOp)
				}
				return
			}
			if err != nil {
				t.Fatalf("classifySymbols: %v", err)
			}
			if got.Label != tt.wantLabel || !approx(got.Confidence, tt.wantConf) {
				t.Errorf("got %q %v, want %q %v", got.Label, got.Confidence, tt.wantLabel, tt.wantConf)
			}
			if len(got.Scores) != labels.Len() {
				t.Errorf("scores = %v", got.Scores)
			}
		})
	}
}
