package convert

import (
	"context"
	"fmt"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/extract"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/pdf"
	"github.com/xj-bear/pdf2all/internal/xlsx"
)

const (
	noTablesMessage   = "No tables found in the PDF"
	ocrMissingHint    = ". OCR is not available - install tesseract-ocr and build pdf2all with -tags ocr for image-based table extraction."
	ocrSuggestionHint = ". Try enabling OCR with use_ocr=true for image-based tables."
)

// TableService runs the structural pass and the OCR fallback.
type TableService interface {
	Extract(ctx context.Context, req extract.Request, progress domain.ProgressFunc) (*extract.Result, error)
}

// ExcelConverter extracts tables and writes one sheet per table.
type ExcelConverter struct {
	open    domain.RasterizerOpener
	service TableService
	logger  *observability.Logger
}

// NewExcelConverter creates an Excel converter. open is used only to count
// pages.
func NewExcelConverter(open domain.RasterizerOpener, service TableService, logger *observability.Logger) *ExcelConverter {
	if open == nil {
		open = pdf.OpenRasterizer
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &ExcelConverter{open: open, service: service, logger: logger.WithOperation("pdf_to_excel")}
}

// Convert extracts the tables on the selected pages of req.PDFPath.
func (c *ExcelConverter) Convert(ctx context.Context, req domain.Request) (*domain.Response, error) {
	output := DefaultOutputPath(req.PDFPath, req.OutputPath, ".xlsx")

	pageCount, err := c.pageCount(req.PDFPath)
	if err != nil {
		return nil, err
	}

	selector := req.Pages
	if selector == "" {
		selector = "all"
	}
	pages := pdf.SelectPages(selector, pageCount)
	if len(pages) == 0 {
		return domain.Failure(fmt.Sprintf("No valid pages selected by %q (document has %d pages)", selector, pageCount)), nil
	}

	result, err := c.service.Extract(ctx, extract.Request{
		PDFPath: req.PDFPath,
		Pages:   pages,
		UseOCR:  req.UseOCR,
	}, ProgressFromContext(ctx))
	if err != nil {
		return nil, err
	}

	if len(result.Tables) == 0 {
		return domain.Failure(NoTablesMessage(req.UseOCR, result.OCRUnavailable)), nil
	}

	if err := xlsx.Write(output, xlsx.SheetsFromTables(result.Tables)); err != nil {
		return nil, err
	}

	note := ""
	if k := result.OCRTables(); k > 0 {
		note = fmt.Sprintf(" (%d table(s) extracted via OCR)", k)
	}

	c.logger.WithContext(ctx).Info().
		Int("tables", len(result.Tables)).
		Int("ocr_tables", result.OCRTables()).
		Str("output", output).
		Msg("Workbook written")

	return &domain.Response{
		Success:     true,
		OutputPath:  output,
		Message:     fmt.Sprintf("Successfully extracted %d table(s) to Excel: %s%s", len(result.Tables), output, note),
		TablesCount: domain.IntPtr(len(result.Tables)),
	}, nil
}

func (c *ExcelConverter) pageCount(path string) (int, error) {
	doc, err := c.open(path)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.PageCount(), nil
}

// NoTablesMessage builds the failure text for an extraction that found
// nothing.
func NoTablesMessage(useOCR, ocrUnavailable bool) string {
	switch {
	case useOCR && ocrUnavailable:
		return noTablesMessage + ocrMissingHint
	case !useOCR:
		return noTablesMessage + ocrSuggestionHint
	default:
		return noTablesMessage
	}
}

type progressKey struct{}

// WithProgress attaches a progress callback that long-running converters
// report to.
func WithProgress(ctx context.Context, fn domain.ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ProgressFromContext returns the callback set by WithProgress, or nil.
func ProgressFromContext(ctx context.Context) domain.ProgressFunc {
	fn, _ := ctx.Value(progressKey{}).(domain.ProgressFunc)
	return fn
}
