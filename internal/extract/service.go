package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
)

// OCRRunner is the part of Scheduler the service depends on.
type OCRRunner interface {
	ExtractAll(ctx context.Context, pdfPath string, pages []int, progress domain.ProgressFunc) ([]domain.PageTableResult, error)
}

// Request describes one table extraction.
type Request struct {
	PDFPath string
	Pages   []int // 0-based
	UseOCR  bool
}

// Result is the merged outcome of both extraction paths.
type Result struct {
	Tables         []domain.PageTableResult
	OCRAttempted   bool
	OCRUnavailable bool
}

// OCRTables counts the tables that came from OCR.
func (r *Result) OCRTables() int {
	n := 0
	for _, t := range r.Tables {
		if t.Source == domain.SourceOCR {
			n++
		}
	}
	return n
}

// Service orchestrates the structural pass and the OCR fallback.
type Service struct {
	structural domain.TableExtractor
	ocr        OCRRunner
	logger     *observability.Logger
}

// NewService creates a new extraction service. ocr may be nil when the
// fallback is not wired.
func NewService(structural domain.TableExtractor, ocr OCRRunner, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		structural: structural,
		ocr:        ocr,
		logger:     logger.WithOperation("extract_tables"),
	}
}

// Extract runs the structural pass over every requested page and falls back
// to OCR only when it found nothing and the request opted in. Results from
// the two paths are never mixed. Tables are returned ordered by page.
func (s *Service) Extract(ctx context.Context, req Request, progress domain.ProgressFunc) (*Result, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	emit(progress, domain.ProgressEvent{
		Type:      domain.EventStart,
		Total:     len(req.Pages),
		Payload:   fmt.Sprintf("Starting table extraction of %s", req.PDFPath),
		Timestamp: time.Now(),
	})

	found, err := s.structural.ExtractTables(ctx, req.PDFPath, req.Pages)
	if err != nil {
		emit(progress, domain.ProgressEvent{Type: domain.EventError, Payload: err.Error(), Timestamp: time.Now()})
		return nil, err
	}
	log.Info().Int("tables", len(found)).Int("pages", len(req.Pages)).Msg("Structural pass finished")

	result := &Result{Tables: found}

	if len(found) == 0 && req.UseOCR {
		result.OCRAttempted = true
		emit(progress, domain.ProgressEvent{
			Type:      domain.EventPageProcessing,
			Total:     len(req.Pages),
			Payload:   "No structural tables, falling back to OCR",
			Timestamp: time.Now(),
		})

		if s.ocr == nil {
			result.OCRUnavailable = true
		} else {
			tables, err := s.ocr.ExtractAll(ctx, req.PDFPath, req.Pages, progress)
			switch {
			case errors.Is(err, domain.ErrOCRUnavailable):
				result.OCRUnavailable = true
				log.Warn().Msg("OCR requested but not available")
			case err != nil:
				log.Warn().Err(err).Msg("OCR pass failed")
			default:
				result.Tables = tables
			}
		}
	}

	sort.SliceStable(result.Tables, func(i, j int) bool {
		return result.Tables[i].PageNumber < result.Tables[j].PageNumber
	})

	emit(progress, domain.ProgressEvent{
		Type:      domain.EventComplete,
		Done:      len(req.Pages),
		Total:     len(req.Pages),
		Payload:   fmt.Sprintf("Found %d table(s) in %v", len(result.Tables), time.Since(start).Round(time.Millisecond)),
		Timestamp: time.Now(),
	})

	return result, nil
}
