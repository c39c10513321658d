package convert

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/ooxml"
	"github.com/xj-bear/pdf2all/internal/pdf"
)

// PPTX defaults.
const (
	DefaultPPTXDPI    = 150
	slideImageQuality = 90
)

// PPTXConverter renders every page to an image and places one image per
// slide.
type PPTXConverter struct {
	open   domain.RasterizerOpener
	dpi    int
	logger *observability.Logger
}

// NewPPTXConverter creates a PowerPoint converter rendering at dpi.
func NewPPTXConverter(open domain.RasterizerOpener, dpi int, logger *observability.Logger) *PPTXConverter {
	if open == nil {
		open = pdf.OpenRasterizer
	}
	if dpi <= 0 {
		dpi = DefaultPPTXDPI
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &PPTXConverter{open: open, dpi: dpi, logger: logger.WithOperation("pdf_to_ppt")}
}

// Convert writes req.PDFPath as a deck. Pages that fail to render are
// skipped.
func (c *PPTXConverter) Convert(ctx context.Context, req domain.Request) (*domain.Response, error) {
	dpi := c.dpi
	if req.DPI > 0 {
		dpi = req.DPI
	}
	output := DefaultOutputPath(req.PDFPath, req.OutputPath, ".pptx")

	doc, err := c.open(req.PDFPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount == 0 {
		return domain.Failure("PDF has no pages"), nil
	}

	log := c.logger.WithContext(ctx)
	zoom := pdf.ZoomForDPI(dpi)
	deck := ooxml.NewPresentation()

	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.Render(i, zoom)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("Failed to process page")
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: slideImageQuality}); err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("Failed to encode page")
			continue
		}
		b := img.Bounds()
		deck.AddPicture(buf.Bytes(), b.Dx(), b.Dy())

		if (i+1)%10 == 0 || i == pageCount-1 {
			log.Debug().Int("done", i+1).Int("total", pageCount).Msg("Processed pages")
		}
	}

	if err := deck.Save(output); err != nil {
		return nil, err
	}

	return &domain.Response{
		Success:    true,
		OutputPath: output,
		Message:    fmt.Sprintf("Successfully converted %d page(s) to PowerPoint: %s", pageCount, output),
		PagesCount: domain.IntPtr(pageCount),
	}, nil
}
