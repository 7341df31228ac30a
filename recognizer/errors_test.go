package recognizer

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestInitErrorMatchesKindAndCause(t *testing.T) {
	err := error(invalidData("labels.txt", fs.ErrNotExist))
	if !errors.Is(err, ErrInvalidData) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is failed for %v", err)
	}
	if errors.Is(err, ErrFailedToCreateEngine) {
		t.Error("wrong kind matched")
	}
	if !strings.Contains(err.Error(), "labels.txt") {
		t.Errorf("message lacks path: %v", err)
	}
}

func TestRecognitionErrorMessage(t *testing.T) {
	tests := []struct {
		err  *RecognitionError
		want string
	}{
		{&RecognitionError{Kind: ErrUnrecognizableImage, Glyph: -1}, "unrecognizable image"},
		{&RecognitionError{Kind: ErrClassifier, Glyph: 2, Err: errors.New("oom")}, "classifier error at glyph 2: oom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
