package recognizer

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// LabelTable maps model output indices to labels. It is read-only once loaded.
type LabelTable struct {
	labels []string
	index  map[string]int
}

// NewLabelTable builds a table from labels in model output order.
func NewLabelTable(labels []string) LabelTable {
	t := LabelTable{
		labels: make([]string, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		l = NormalizeLabel(l)
		t.labels[i] = l
		if _, dup := t.index[l]; !dup && l != "" {
			t.index[l] = i
		}
	}
	return t
}

// LoadLabelTable reads a newline-delimited UTF-8 label file.
func LoadLabelTable(path string) (LabelTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LabelTable{}, fmt.Errorf("read label file: %w", err)
	}
	return NewLabelTable(ParseLabels(string(data))), nil
}

// ParseLabels splits label file content into lines. CRLF is accepted, a leading
// BOM is removed and trailing blank lines are dropped. Interior blank lines are
// kept as empty labels so indices stay aligned with the model output.
func ParseLabels(data string) []string {
	data = strings.TrimPrefix(data, "\ufeff")
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")
	lines := strings.Split(data, "\n")
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}

// NormalizeLabel composes the label to NFC so decomposed Hangul and accented
// forms compare equal to the glyphs Tesseract or a caller produces.
func NormalizeLabel(label string) string {
	return norm.NFC.String(label)
}

// Len returns the number of labels.
func (t LabelTable) Len() int { return len(t.labels) }

// At returns the label at index i.
func (t LabelTable) At(i int) (string, bool) {
	if i < 0 || i >= len(t.labels) {
		return "", false
	}
	return t.labels[i], true
}

// Index returns the first index holding label.
func (t LabelTable) Index(label string) (int, bool) {
	i, ok := t.index[NormalizeLabel(label)]
	return i, ok
}

// Labels returns a copy of all labels.
func (t LabelTable) Labels() []string {
	return cloneStrings(t.labels)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
