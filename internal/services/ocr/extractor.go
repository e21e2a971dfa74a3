// Package ocr recovers text from PDFs whose text layer is missing or unusable.
//
// The document is copied into a per-request scratch directory, rasterized to
// one image per page, and every image is run through an OCR engine. The
// engines themselves live in subpackages (ocr/fitz, ocr/tesseract) because
// both need CGO; this package only depends on the small interfaces below,
// which keeps it testable with fakes.
package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
)

// Rasterizer renders every page of the PDF at pdfPath into an image file
// inside dir and returns the image paths in ascending page order.
//
// Go Pattern: Interfaces are declared by the consumer, not the implementer.
// The fitz package satisfies this without knowing it exists.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, dir string) ([]string, error)
}

// Recognizer returns the text found in a single page image.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Extractor runs the rasterize-then-recognize fallback.
type Extractor struct {
	rasterizer  Rasterizer
	recognizer  Recognizer
	scratchRoot string
	log         logrus.FieldLogger
}

// NewExtractor wires an OCR extractor. scratchRoot is the parent directory
// for per-request scratch directories (os.TempDir() when empty).
func NewExtractor(rasterizer Rasterizer, recognizer Recognizer, scratchRoot string, log logrus.FieldLogger) *Extractor {
	return &Extractor{
		rasterizer:  rasterizer,
		recognizer:  recognizer,
		scratchRoot: scratchRoot,
		log:         log,
	}
}

// Extract returns the recognized text of every page, each followed by a
// newline, in page order. A document with no pages yields "".
//
// All temporary files are removed before Extract returns, whether it
// succeeds or not. A failure on any page fails the whole extraction; no
// partial text is returned.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	scratch, err := AcquireScratch(e.scratchRoot)
	if err != nil {
		return "", apperrors.Rasterization("failed to prepare OCR workspace", err)
	}
	defer func() {
		if err := scratch.Release(); err != nil {
			e.log.WithError(err).Warn("⚠️  Failed to clean up OCR scratch directory")
		}
	}()

	pdfPath := scratch.Path("source.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", apperrors.Rasterization("failed to write temporary PDF", err)
	}

	pages, err := e.rasterizer.Rasterize(ctx, pdfPath, scratch.Dir)
	if err != nil {
		return "", apperrors.Rasterization("failed to rasterize PDF", err)
	}
	e.log.WithField("pages", len(pages)).Debug("🖼️  Rasterized PDF for OCR")

	var text strings.Builder
	for i, imagePath := range pages {
		if err := ctx.Err(); err != nil {
			return "", apperrors.Recognition("OCR interrupted", err)
		}

		pageText, err := e.recognizer.Recognize(ctx, imagePath)
		if err != nil {
			return "", apperrors.Recognition(fmt.Sprintf("failed to recognize page %d", i+1), err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")

		// Page images are removed as soon as they've been read.
		if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
			e.log.WithError(err).WithField("image", imagePath).Warn("⚠️  Failed to remove page image")
		}
	}

	if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
		e.log.WithError(err).Warn("⚠️  Failed to remove temporary PDF")
	}

	return text.String(), nil
}
