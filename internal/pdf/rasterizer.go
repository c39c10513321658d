package pdf

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/xj-bear/pdf2all/internal/domain"
)

// BaseDPI is the resolution that corresponds to a zoom of 1.
const BaseDPI = 72.0

// Document renders pages of one PDF using MuPDF through go-fitz.
type Document struct {
	doc  *fitz.Document
	path string
}

// Open opens pdfPath for rendering. The caller owns the handle.
func Open(pdfPath string) (*Document, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.ConversionError("Failed to open PDF", err)
	}
	return &Document{doc: doc, path: pdfPath}, nil
}

// OpenRasterizer adapts Open to domain.RasterizerOpener.
func OpenRasterizer(pdfPath string) (domain.Rasterizer, error) {
	return Open(pdfPath)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// Render draws a page at zoom. The image is RGB with annotations drawn.
func (d *Document) Render(pageIndex int, zoom float64) (image.Image, error) {
	if pageIndex < 0 || pageIndex >= d.PageCount() {
		return nil, domain.ValidationError(fmt.Sprintf("page %d out of range", pageIndex+1), fitz.ErrPageMissing)
	}
	img, err := d.doc.ImageDPI(pageIndex, zoom*BaseDPI)
	if err != nil {
		return nil, domain.ConversionError(fmt.Sprintf("Failed to render page %d", pageIndex+1), err)
	}
	return img, nil
}

// Text returns the text layer of a page.
func (d *Document) Text(pageIndex int) (string, error) {
	if pageIndex < 0 || pageIndex >= d.PageCount() {
		return "", domain.ValidationError(fmt.Sprintf("page %d out of range", pageIndex+1), fitz.ErrPageMissing)
	}
	text, err := d.doc.Text(pageIndex)
	if err != nil {
		return "", domain.ConversionError(fmt.Sprintf("Failed to read text of page %d", pageIndex+1), err)
	}
	return text, nil
}

// Close releases the MuPDF context.
func (d *Document) Close() error {
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}

// ZoomForDPI converts a target resolution to a zoom factor.
func ZoomForDPI(dpi int) float64 {
	return float64(dpi) / BaseDPI
}
