// Package render turns corrected text back into a PDF document.
package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
)

const (
	defaultFontSize   = 12.0 // points
	defaultLineHeight = 6.0  // millimetres, roughly 1.4x the font size
)

// Renderer lays text out as a single flowing paragraph on A4 pages.
type Renderer struct {
	FontSize   float64
	LineHeight float64
	Creator    string
}

// NewRenderer creates a renderer with the default layout.
func NewRenderer() *Renderer {
	return &Renderer{
		FontSize:   defaultFontSize,
		LineHeight: defaultLineHeight,
		Creator:    "pdf-corrector-api",
	}
}

// Render produces a new PDF containing text. Wrapping and page breaks are
// left to the library; nothing is written to disk.
func (r *Renderer) Render(text string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreator(r.Creator, true)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()
	doc.SetFont("Helvetica", "", r.FontSize)

	// Core fonts are cp1252; translate so accented characters survive.
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.MultiCell(0, r.LineHeight, tr(text), "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, apperrors.Rendering("failed to write PDF", err)
	}

	if err := validate(buf.Bytes()); err != nil {
		return nil, apperrors.Rendering("generated PDF failed validation", err)
	}
	return buf.Bytes(), nil
}

// validate runs the generated bytes through pdfcpu's validator so a broken
// document is reported here rather than by the client's viewer.
func validate(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty document")
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.Validate(bytes.NewReader(data), conf)
}
