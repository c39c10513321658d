package convert

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/ooxml"
	"github.com/xj-bear/pdf2all/internal/pdf"
)

// DOCX defaults.
const (
	DefaultDocxPageLimit = 50
	MaxDocxWorkers       = 4
)

// DocxConverter writes the text layer of a PDF into a Word document, one
// paragraph per line and a page break between pages.
type DocxConverter struct {
	open      domain.RasterizerOpener
	pageLimit int
	logger    *observability.Logger
}

// NewDocxConverter creates a Word converter that stops after pageLimit
// pages.
func NewDocxConverter(open domain.RasterizerOpener, pageLimit int, logger *observability.Logger) *DocxConverter {
	if open == nil {
		open = pdf.OpenRasterizer
	}
	if pageLimit <= 0 {
		pageLimit = DefaultDocxPageLimit
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &DocxConverter{open: open, pageLimit: pageLimit, logger: logger.WithOperation("pdf_to_docx")}
}

// Convert writes req.PDFPath as a .docx. With req.FastMode the page text is
// read by up to MaxDocxWorkers goroutines, each with its own document.
func (c *DocxConverter) Convert(ctx context.Context, req domain.Request) (*domain.Response, error) {
	output := DefaultOutputPath(req.PDFPath, req.OutputPath, ".docx")

	doc, err := c.open(req.PDFPath)
	if err != nil {
		return nil, err
	}
	total := doc.PageCount()
	if total == 0 {
		doc.Close()
		return domain.Failure("PDF has no pages"), nil
	}
	n := min(total, c.pageLimit)

	var texts []string
	if req.FastMode {
		doc.Close()
		texts, err = c.readConcurrent(ctx, req.PDFPath, n)
	} else {
		texts, err = readSequential(ctx, doc, n)
		doc.Close()
	}
	if err != nil {
		return nil, err
	}

	out := ooxml.NewDocument()
	for i, text := range texts {
		if i > 0 {
			out.AddPageBreak()
		}
		out.AddPage(text)
	}
	if err := out.Save(output); err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).Info().
		Int("pages", n).
		Int("total_pages", total).
		Bool("fast_mode", req.FastMode).
		Str("output", output).
		Msg("Word document written")

	resp := &domain.Response{
		Success:    true,
		OutputPath: output,
		Message:    fmt.Sprintf("Successfully converted PDF to DOCX: %s", output),
		PagesCount: domain.IntPtr(n),
	}
	if total > n {
		resp.Message = fmt.Sprintf("Successfully converted first %d pages to Word: %s. Original PDF has %d pages.", n, output, total)
	}
	return resp, nil
}

func readSequential(ctx context.Context, doc domain.Rasterizer, n int) ([]string, error) {
	texts := make([]string, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			return nil, err
		}
		texts[i] = text
	}
	return texts, nil
}

// readConcurrent splits the first n pages into contiguous chunks, one per
// worker.
func (c *DocxConverter) readConcurrent(ctx context.Context, pdfPath string, n int) ([]string, error) {
	workers := min(runtime.NumCPU(), MaxDocxWorkers, n)
	chunk := (n + workers - 1) / workers
	texts := make([]string, n)

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		start, end := start, min(start+chunk, n)
		g.Go(func() error {
			doc, err := c.open(pdfPath)
			if err != nil {
				return err
			}
			defer doc.Close()

			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				text, err := doc.Text(i)
				if err != nil {
					return err
				}
				texts[i] = text
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}
