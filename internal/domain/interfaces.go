package domain

import (
	"context"
	"image"
)

// Rasterizer renders pages of one open document.
type Rasterizer interface {
	// PageCount returns the number of pages in the document
	PageCount() int

	// Render draws the page at the given zoom (1.0 = 72 dpi) in RGB
	Render(pageIndex int, zoom float64) (image.Image, error)

	// Text returns the plain text layer of a page
	Text(pageIndex int) (string, error)

	Close() error
}

// RasterizerOpener opens a document for rendering. Each caller gets its own
// handle; handles are never shared between goroutines.
type RasterizerOpener func(pdfPath string) (Rasterizer, error)

// OCREngine detects text regions on an image.
type OCREngine interface {
	// Detect returns the text regions found on img. An empty slice means no
	// text; ErrOCRUnavailable means the engine cannot run on this host.
	Detect(ctx context.Context, img image.Image) ([]TextRegion, error)

	Close() error
}

// OCREngineFactory creates a fresh engine for one worker.
type OCREngineFactory func() (OCREngine, error)

// TableExtractor finds tables on the selected pages of a PDF.
type TableExtractor interface {
	ExtractTables(ctx context.Context, pdfPath string, pages []int) ([]PageTableResult, error)
}

// PageWorker processes a single page and never returns an error: failures
// are reported inside the outcome.
type PageWorker interface {
	Run(ctx context.Context, pdfPath string, pageIndex int) PageOutcome
}

// Converter handles one protocol action.
type Converter interface {
	Convert(ctx context.Context, req Request) (*Response, error)
}
