package app

import (
	"errors"
	"fmt"

	"yashubustudio/glyphocr/recognizer"
)

const (
	canceledMessage       = "User canceled operation."
	notInitializedMessage = "Recognizer is not initialized. Please restart the app."
)

// initErrorMessage maps a classifier construction failure to the notice shown
// at startup.
func initErrorMessage(err error) string {
	switch {
	case errors.Is(err, recognizer.ErrInvalidData):
		return fmt.Sprintf("Fail to load essential data.\n\n%v", err)
	case errors.Is(err, recognizer.ErrFailedToCreateEngine):
		return fmt.Sprintf("Fail to create inference engine.\n\n%v", err)
	default:
		return fmt.Sprintf("Internal error: %v", err)
	}
}

// recognitionErrorMessage returns the dialog title and message for a failed run.
func recognitionErrorMessage(err error) (string, string) {
	if errors.Is(err, recognizer.ErrUnrecognizableImage) {
		return "Unrecognizable Image", "No characters were found in the image. Please retake the photo."
	}
	return "Recognition Error", err.Error()
}

func accuracyText(res recognizer.Result) string {
	return fmt.Sprintf("Recognition Content: (%.1f%% accuracy)", res.MeanConfidence*100)
}
