package extract

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/tables"
)

// OCRZoom is the render zoom used for OCR. Table geometry constants are
// expressed in pixels at this zoom.
const OCRZoom = 2.0

// OCRWorker rasterizes one page, runs OCR on it and rebuilds a table. Every
// call opens its own document and engine, so concurrent calls share nothing.
type OCRWorker struct {
	open    domain.RasterizerOpener
	engines domain.OCREngineFactory
	params  tables.Params
	logger  *observability.Logger
}

// NewOCRWorker creates a page worker.
func NewOCRWorker(open domain.RasterizerOpener, engines domain.OCREngineFactory, params tables.Params, logger *observability.Logger) *OCRWorker {
	if logger == nil {
		logger = observability.Nop()
	}
	return &OCRWorker{
		open:    open,
		engines: engines,
		params:  params,
		logger:  logger.WithOperation("ocr_page"),
	}
}

// Run processes the page at pageIndex. It never panics and never returns an
// error; failures are recorded in the outcome.
func (w *OCRWorker) Run(ctx context.Context, pdfPath string, pageIndex int) (outcome domain.PageOutcome) {
	outcome.Page = pageIndex
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("page worker panic: %v", r)
			w.logger.Debug().Int("page", pageIndex+1).Err(err).Str("stack", string(debug.Stack())).Msg("Recovered page worker panic")
			outcome.Result = nil
			outcome.Err = err.Error()
		}
	}()

	result, err := w.process(ctx, pdfPath, pageIndex)
	if err != nil {
		w.logger.Debug().Int("page", pageIndex+1).Err(err).Msg("OCR page failed")
		outcome.Err = err.Error()
		return outcome
	}

	outcome.Result = result
	w.logger.Debug().
		Int("page", pageIndex+1).
		Bool("table", result != nil).
		Dur("elapsed", time.Since(start)).
		Msg("OCR page complete")
	return outcome
}

func (w *OCRWorker) process(ctx context.Context, pdfPath string, pageIndex int) (*domain.PageTableResult, error) {
	doc, err := w.open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if pageIndex < 0 || pageIndex >= doc.PageCount() {
		return nil, nil
	}

	img, err := doc.Render(pageIndex, OCRZoom)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	engine, err := w.engines()
	if err != nil {
		return nil, fmt.Errorf("create ocr engine: %w", err)
	}
	defer engine.Close()

	regions, err := engine.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect text: %w", err)
	}

	grid, ok, err := w.params.SafeReconstruct(regions)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return &domain.PageTableResult{
		PageNumber: pageIndex + 1,
		Grid:       grid,
		Source:     domain.SourceOCR,
	}, nil
}
