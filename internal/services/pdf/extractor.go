// Package pdf reads the embedded text layer of uploaded PDFs.
//
// We use the ledongthuc/pdf library for text extraction.
// It's a pure Go implementation, so no CGO or external dependencies required.
// pdfcpu is used alongside it for structural checks (page counting) because
// it copes better with slightly broken cross-reference tables.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
)

// Extractor pulls the text layer out of a PDF held in memory.
// It has no state; the zero value is ready to use.
type Extractor struct{}

// NewExtractor creates a text-layer extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractDirect returns the document's embedded text exactly as the parser
// yields it. Pages are concatenated in the library's order and nothing is
// trimmed, so callers see whitespace the way the PDF encodes it.
//
// Go Pattern: We accept []byte instead of a filename because the data comes
// from an HTTP upload (in memory), not a file on disk. bytes.Reader gives
// the parser the io.ReaderAt it needs for random access.
func (e *Extractor) ExtractDirect(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// ledongthuc/pdf panics on some corrupted xref tables instead of
	// returning an error. Convert that into a regular malformed-input error.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = apperrors.MalformedInput("text layer parser panicked", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.MalformedInput("failed to open PDF", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", apperrors.MalformedInput("failed to read text layer", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", apperrors.MalformedInput("failed to read text layer", err)
	}
	return buf.String(), nil
}

// PageCount reports how many pages the document has.
// Validation is relaxed so producer quirks don't hide an otherwise usable count.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// ValidatePDF checks if the data looks like a valid PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	// PDF files start with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
