// Package tesseract recognizes page images with the Tesseract OCR engine.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer runs Tesseract on one image at a time.
type Recognizer struct {
	Languages []string
}

// NewRecognizer creates a recognizer for the given Tesseract language codes
// ("eng" when none are given).
func NewRecognizer(languages ...string) *Recognizer {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Recognizer{Languages: languages}
}

// Recognize returns the engine's text for imagePath without post-processing.
//
// A fresh client is used per image: gosseract clients are not safe for
// concurrent use and requests run in parallel.
func (r *Recognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.Languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
