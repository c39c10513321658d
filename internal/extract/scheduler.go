package extract

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
)

// MaxOCRWorkers caps the OCR pool regardless of core count.
const MaxOCRWorkers = 4

// Scheduler fans page workers out over a bounded pool.
type Scheduler struct {
	worker       domain.PageWorker
	maxWorkers   int
	available    func() bool
	cache        *OutcomeCache
	batchTimeout time.Duration
	logger       *observability.Logger
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// MaxWorkers may lower the pool size; it is clamped to MaxOCRWorkers.
	MaxWorkers int
	// Available reports whether OCR can run on this host.
	Available func() bool
	// Cache is optional.
	Cache *OutcomeCache
	// BatchTimeout bounds a whole ExtractAll call; zero means no limit.
	BatchTimeout time.Duration
}

// NewScheduler creates a scheduler around worker.
func NewScheduler(worker domain.PageWorker, cfg SchedulerConfig, logger *observability.Logger) *Scheduler {
	if logger == nil {
		logger = observability.Nop()
	}
	available := cfg.Available
	if available == nil {
		available = func() bool { return true }
	}
	return &Scheduler{
		worker:       worker,
		maxWorkers:   cfg.MaxWorkers,
		available:    available,
		cache:        cfg.Cache,
		batchTimeout: cfg.BatchTimeout,
		logger:       logger.WithOperation("ocr_batch"),
	}
}

// PoolSize returns the number of pages processed concurrently for a batch of
// n pages.
func (s *Scheduler) PoolSize(n int) int {
	size := min(runtime.NumCPU(), MaxOCRWorkers)
	if s.maxWorkers > 0 {
		size = min(size, s.maxWorkers)
	}
	return max(1, min(size, n))
}

// ExtractAll runs the page worker over pages and returns the tables found, in
// completion order. Page failures are logged and skipped; the only error is
// domain.ErrOCRUnavailable, returned before any work starts. When the batch
// deadline expires the tables completed so far are returned.
func (s *Scheduler) ExtractAll(ctx context.Context, pdfPath string, pages []int, progress domain.ProgressFunc) ([]domain.PageTableResult, error) {
	if !s.available() {
		return nil, domain.ErrOCRUnavailable
	}
	if len(pages) == 0 {
		return nil, nil
	}

	batchCtx := ctx
	if s.batchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, s.batchTimeout)
		defer cancel()
	}

	digest := s.digest(pdfPath)
	pool := s.PoolSize(len(pages))
	start := time.Now()

	s.logger.Info().
		Str("pdf", pdfPath).
		Int("pages", len(pages)).
		Int("workers", pool).
		Msg("Starting OCR batch")

	// Buffered for every page so late workers never block after a timeout.
	outcomes := make(chan domain.PageOutcome, len(pages))

	go func() {
		g := new(errgroup.Group)
		g.SetLimit(pool)
		for _, page := range pages {
			if batchCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				outcomes <- s.runPage(batchCtx, pdfPath, digest, page)
				return nil
			})
		}
		_ = g.Wait()
		close(outcomes)
	}()

	var (
		results []domain.PageTableResult
		done    int
		failed  int
	)

collect:
	for {
		select {
		case outcome, ok := <-outcomes:
			if !ok {
				break collect
			}
			done++
			if outcome.Failed() {
				failed++
			}
			if outcome.Result != nil {
				results = append(results, *outcome.Result)
			}
			emit(progress, domain.ProgressEvent{
				Type:       domain.EventPageComplete,
				PageNumber: outcome.Page + 1,
				Done:       done,
				Total:      len(pages),
				Payload:    outcome.Result != nil,
				Timestamp:  time.Now(),
			})
		case <-batchCtx.Done():
			s.logger.Warn().
				Int("completed", done).
				Int("pages", len(pages)).
				Dur("timeout", s.batchTimeout).
				Msg("OCR batch deadline reached, returning partial results")
			break collect
		}
	}

	s.logger.Info().
		Int("pages", done).
		Int("failed", failed).
		Int("tables", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("OCR batch complete")

	return results, nil
}

func (s *Scheduler) runPage(ctx context.Context, pdfPath, digest string, page int) domain.PageOutcome {
	if s.cache != nil && digest != "" {
		if outcome, ok := s.cache.Get(ctx, digest, page); ok {
			outcome.Page = page
			return outcome
		}
	}

	outcome := s.runWorker(ctx, pdfPath, page)

	if s.cache != nil && digest != "" {
		s.cache.Put(ctx, digest, outcome)
	}
	return outcome
}

// runWorker calls the worker and turns a panic into a failed outcome.
func (s *Scheduler) runWorker(ctx context.Context, pdfPath string, page int) (outcome domain.PageOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug().Int("page", page+1).Str("stack", string(debug.Stack())).Msgf("Recovered page worker panic: %v", r)
			outcome = domain.PageOutcome{Page: page, Err: fmt.Sprintf("page worker panic: %v", r)}
		}
	}()
	return s.worker.Run(ctx, pdfPath, page)
}

func (s *Scheduler) digest(pdfPath string) string {
	if s.cache == nil {
		return ""
	}
	d, err := FileDigest(pdfPath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("OCR cache disabled for this batch")
		return ""
	}
	return d
}

func emit(progress domain.ProgressFunc, evt domain.ProgressEvent) {
	if progress != nil {
		progress(evt)
	}
}
