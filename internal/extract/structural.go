package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	tabtables "github.com/tsawler/tabula/tables"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
)

// StructuralExtractor finds tables in the text layer of a PDF with tabula's
// geometric detector.
type StructuralExtractor struct {
	detector tabtables.Detector
	logger   *observability.Logger
}

// NewStructuralExtractor creates an extractor with the default detector.
func NewStructuralExtractor(logger *observability.Logger) *StructuralExtractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &StructuralExtractor{
		detector: tabtables.NewGeometricDetector(),
		logger:   logger.WithOperation("structural_tables"),
	}
}

// ExtractTables returns every table found on pages, in page order. A page
// that cannot be parsed is skipped; a document that cannot be opened is an
// error.
func (e *StructuralExtractor) ExtractTables(ctx context.Context, pdfPath string, pages []int) ([]domain.PageTableResult, error) {
	r, err := reader.Open(pdfPath)
	if err != nil {
		return nil, domain.ExtractionError("Failed to open PDF for table extraction", err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, domain.ExtractionError("Failed to read page tree", err)
	}

	var results []domain.PageTableResult
	for _, idx := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx < 0 || idx >= count {
			continue
		}

		found, err := e.pageTables(r, idx)
		if err != nil {
			e.logger.Debug().Int("page", idx+1).Err(err).Msg("Skipping page in structural pass")
			continue
		}
		results = append(results, found...)
	}

	e.logger.Debug().Int("pages", len(pages)).Int("tables", len(results)).Msg("Structural pass complete")
	return results, nil
}

func (e *StructuralExtractor) pageTables(r *reader.Reader, idx int) (results []domain.PageTableResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results, err = nil, fmt.Errorf("table detection panicked: %v", rec)
		}
	}()

	page, err := r.GetPage(idx)
	if err != nil {
		return nil, err
	}
	fragments, err := r.ExtractTextFragments(page)
	if err != nil {
		return nil, err
	}

	width, _ := page.Width()
	height, _ := page.Height()
	mp := model.NewPage(width, height)
	mp.Number = idx + 1
	for _, f := range fragments {
		mp.RawText = append(mp.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}

	detected, err := e.detector.Detect(mp)
	if err != nil {
		return nil, err
	}

	for _, t := range detected {
		grid := gridFromTable(t)
		if len(grid) == 0 {
			continue
		}
		results = append(results, domain.PageTableResult{
			PageNumber: idx + 1,
			Grid:       grid,
			Source:     domain.SourceStructural,
		})
	}
	return results, nil
}

// gridFromTable flattens a detected table into equal-width rows. A blank
// header row is replaced by Col1..ColN.
func gridFromTable(t *model.Table) domain.TableGrid {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}

	width := 0
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	if width == 0 {
		return nil
	}

	grid := make(domain.TableGrid, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, width)
		for i, c := range row {
			cells[i] = strings.TrimSpace(c.Text)
		}
		grid = append(grid, cells)
	}

	if blankRow(grid[0]) {
		for i := range grid[0] {
			grid[0][i] = fmt.Sprintf("Col%d", i+1)
		}
	}
	return grid
}

func blankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
