// Package extraction decides where a document's text comes from: its
// embedded text layer when that looks like real prose, OCR otherwise.
package extraction

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
)

// Provenance records which path produced the text.
type Provenance string

const (
	ProvenanceTextLayer Provenance = "text_layer"
	ProvenanceOCR       Provenance = "ocr"
)

// minPlausibleChars is the length a text layer must exceed to be trusted.
const minPlausibleChars = 20

// Result is the extracted text together with where it came from.
type Result struct {
	Text       string
	Provenance Provenance
}

// TextLayerExtractor reads a PDF's embedded text.
type TextLayerExtractor interface {
	ExtractDirect(ctx context.Context, data []byte) (string, error)
}

// OCRExtractor recovers text by rendering and recognizing pages.
type OCRExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Selector runs the text-layer-first, OCR-second extraction.
type Selector struct {
	textLayer TextLayerExtractor
	ocr       OCRExtractor
	log       logrus.FieldLogger
}

// NewSelector wires a selector from its two extraction paths.
func NewSelector(textLayer TextLayerExtractor, ocr OCRExtractor, log logrus.FieldLogger) *Selector {
	return &Selector{textLayer: textLayer, ocr: ocr, log: log}
}

// IsPlausible reports whether text looks like a usable text layer: it must
// contain a space character and be longer than 20 characters.
// Only U+0020 counts as a space; tabs and newlines do not.
func IsPlausible(text string) bool {
	return strings.Contains(text, " ") && utf8.RuneCountInString(text) > minPlausibleChars
}

// Extract returns the text layer verbatim when it is plausible and never
// touches OCR in that case. Otherwise, including when the text layer cannot
// be parsed at all, the OCR result is returned as-is without any check.
func (s *Selector) Extract(ctx context.Context, data []byte) (Result, error) {
	text, err := s.textLayer.ExtractDirect(ctx, data)
	switch {
	case err != nil:
		s.log.WithError(err).
			WithField("error_kind", apperrors.KindOf(err)).
			Info("📄 Text layer unreadable, falling back to OCR")
	case IsPlausible(text):
		s.log.WithField("chars", utf8.RuneCountInString(text)).Debug("📄 Using embedded text layer")
		return Result{Text: text, Provenance: ProvenanceTextLayer}, nil
	default:
		s.log.WithField("chars", utf8.RuneCountInString(text)).Info("📄 Text layer implausible, falling back to OCR")
	}

	ocrText, err := s.ocr.Extract(ctx, data)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: ocrText, Provenance: ProvenanceOCR}, nil
}
