package ingest

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// Page is one rasterized page of a paginated document. A page can fail
// individually without failing the document.
type Page struct {
	Number int // 1-based
	PNG    []byte
	Err    error
}

// Rasterizer renders a paginated document into one image per page.
type Rasterizer interface {
	Rasterize(data []byte) ([]Page, error)
}

// FitzRasterizer renders pages through MuPDF.
type FitzRasterizer struct {
	DPI float64
}

// NewFitzRasterizer returns a rasterizer rendering at the given DPI.
// The default of 144 is twice the 72 DPI point grid.
func NewFitzRasterizer(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = 144
	}
	return &FitzRasterizer{DPI: dpi}
}

// Rasterize renders every page to PNG. A document that cannot be opened
// returns an error; a page that cannot be rendered carries its own error.
func (r *FitzRasterizer) Rasterize(data []byte) ([]Page, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	pages := make([]Page, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		page := Page{Number: i + 1}
		img, err := doc.ImageDPI(i, r.DPI)
		if err != nil {
			page.Err = err
			pages = append(pages, page)
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			page.Err = err
			pages = append(pages, page)
			continue
		}
		page.PNG = buf.Bytes()
		pages = append(pages, page)
	}
	return pages, nil
}
