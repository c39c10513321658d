package convert

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/pdf"
)

// JPG defaults.
const (
	DefaultJPGDPI     = 72
	DefaultJPGQuality = 85
	MinJPGQuality     = 1
	MaxJPGQuality     = 95
)

// JPGConverter writes every page of a PDF as a JPEG file.
//
// In normal mode a page that fails to render fails the request. In fast
// mode failing pages are skipped and only a run where nothing was written
// is an error.
type JPGConverter struct {
	open    domain.RasterizerOpener
	fast    bool
	dpi     int
	quality int
	logger  *observability.Logger
}

// JPGOptions configures a JPGConverter.
type JPGOptions struct {
	Fast    bool
	DPI     int
	Quality int
}

// NewJPGConverter creates a JPG converter. Zero options take the package
// defaults.
func NewJPGConverter(open domain.RasterizerOpener, opts JPGOptions, logger *observability.Logger) *JPGConverter {
	if open == nil {
		open = pdf.OpenRasterizer
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultJPGDPI
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultJPGQuality
	}
	if logger == nil {
		logger = observability.Nop()
	}
	op := "pdf_to_jpg"
	if opts.Fast {
		op = "pdf_to_jpg_fast"
	}
	return &JPGConverter{
		open:    open,
		fast:    opts.Fast,
		dpi:     opts.DPI,
		quality: opts.Quality,
		logger:  logger.WithOperation(op),
	}
}

// Convert renders the pages of req.PDFPath.
func (c *JPGConverter) Convert(ctx context.Context, req domain.Request) (*domain.Response, error) {
	dpi := c.dpi
	if req.DPI > 0 {
		dpi = req.DPI
	}
	quality := c.quality
	if req.Quality != 0 {
		quality = req.Quality
	}
	if quality < MinJPGQuality || quality > MaxJPGQuality {
		return domain.Failure(fmt.Sprintf("quality must be between %d and %d, got %d", MinJPGQuality, MaxJPGQuality, quality)), nil
	}

	doc, err := c.open(req.PDFPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount == 0 {
		return domain.Failure("PDF has no pages"), nil
	}

	var name func(n int) string
	if c.fast {
		pattern := FastJPGPattern(req.PDFPath, req.OutputPath)
		name = func(n int) string { return ExpandPattern(pattern, n) }
	} else {
		name = JPGNamer(req.PDFPath, req.OutputPath, pageCount)
	}
	if err := ensureParent(name(1)); err != nil {
		return nil, err
	}

	log := c.logger.WithContext(ctx)
	zoom := pdf.ZoomForDPI(dpi)
	written := make([]string, 0, pageCount)

	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		target := name(i + 1)
		if err := writePageJPEG(doc, i, zoom, quality, target); err != nil {
			if !c.fast {
				return nil, err
			}
			log.Warn().Err(err).Int("page", i+1).Msg("Skipping page")
			continue
		}
		written = append(written, target)

		if (i+1)%5 == 0 || i == pageCount-1 {
			log.Debug().Int("done", i+1).Int("total", pageCount).Msg("Pages converted to JPG")
		}
	}

	if c.fast {
		if len(written) == 0 {
			return domain.Failure("No pages were successfully converted"), nil
		}
		return &domain.Response{
			Success:        true,
			OutputPaths:    written,
			Message:        fmt.Sprintf("Successfully converted %d page(s) to JPG images", len(written)),
			PagesConverted: domain.IntPtr(len(written)),
			TotalPages:     domain.IntPtr(pageCount),
		}, nil
	}

	return &domain.Response{
		Success:     true,
		OutputPaths: written,
		Message:     fmt.Sprintf("Successfully converted %d page(s) to JPG", pageCount),
		PagesCount:  domain.IntPtr(pageCount),
	}, nil
}

func writePageJPEG(doc domain.Rasterizer, page int, zoom float64, quality int, target string) error {
	img, err := doc.Render(page, zoom)
	if err != nil {
		return err
	}

	out, err := os.Create(target)
	if err != nil {
		return domain.IOError(fmt.Sprintf("Failed to create output file for page %d", page+1), err)
	}

	err = jpeg.Encode(out, img, &jpeg.Options{Quality: quality})
	closeErr := out.Close()
	if err != nil {
		os.Remove(target)
		return domain.ConversionError(fmt.Sprintf("Failed to encode page %d as JPG", page+1), err)
	}
	if closeErr != nil {
		return domain.IOError(fmt.Sprintf("Failed to write page %d", page+1), closeErr)
	}
	return nil
}
