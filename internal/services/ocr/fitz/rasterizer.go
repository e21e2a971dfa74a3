// Package fitz rasterizes PDF pages to PNG images with MuPDF.
//
// go-fitz links MuPDF through CGO, which is why it sits in its own package.
package fitz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	gofitz "github.com/gen2brain/go-fitz"
)

// DefaultDPI balances OCR accuracy against image size.
const DefaultDPI = 150.0

// Rasterizer renders pages at a fixed resolution.
type Rasterizer struct {
	DPI float64
}

// NewRasterizer creates a rasterizer; a non-positive dpi selects DefaultDPI.
func NewRasterizer(dpi float64) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Rasterizer{DPI: dpi}
}

// Rasterize writes page-0001.png, page-0002.png, ... into dir and returns
// their paths in page order. Zero-padded names keep lexical order equal to
// page order for anything that lists the directory.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath, dir string) ([]string, error) {
	doc, err := gofitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImagePNG(i, r.DPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("page-%04d.png", i+1))
		if err := os.WriteFile(path, img, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write page %d image: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
