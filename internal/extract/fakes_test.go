package extract

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xj-bear/pdf2all/internal/domain"
)

type fakeRasterizer struct {
	pages     int
	renderErr error
}

func (f *fakeRasterizer) PageCount() int { return f.pages }

func (f *fakeRasterizer) Render(pageIndex int, zoom float64) (image.Image, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return image.NewRGBA(image.Rect(0, 0, 20, 20)), nil
}

func (f *fakeRasterizer) Text(pageIndex int) (string, error) { return "", nil }

func (f *fakeRasterizer) Close() error { return nil }

func openerFor(r *fakeRasterizer, err error) domain.RasterizerOpener {
	return func(string) (domain.Rasterizer, error) {
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

type fakeEngine struct {
	regions []domain.TextRegion
	err     error
	panics  bool
}

func (f *fakeEngine) Detect(ctx context.Context, img image.Image) ([]domain.TextRegion, error) {
	if f.panics {
		panic("native engine crashed")
	}
	return f.regions, f.err
}

func (f *fakeEngine) Close() error { return nil }

type countingFactory struct {
	engine *fakeEngine
	calls  atomic.Int32
}

func (c *countingFactory) New() (domain.OCREngine, error) {
	c.calls.Add(1)
	return c.engine, nil
}

// fakeWorker returns canned outcomes per page and tracks concurrency.
type fakeWorker struct {
	outcomes map[int]domain.PageOutcome
	delay    time.Duration
	block    map[int]chan struct{}
	panics   map[int]bool

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeWorker) Run(ctx context.Context, pdfPath string, pageIndex int) domain.PageOutcome {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.maxInFlight.Load()
		if n <= old || f.maxInFlight.CompareAndSwap(old, n) {
			break
		}
	}

	if ch, ok := f.block[pageIndex]; ok {
		<-ch
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics[pageIndex] {
		panic("boom")
	}

	if o, ok := f.outcomes[pageIndex]; ok {
		o.Page = pageIndex
		return o
	}
	return domain.PageOutcome{Page: pageIndex}
}

func tableOutcome(page int) domain.PageOutcome {
	return domain.PageOutcome{
		Page: page,
		Result: &domain.PageTableResult{
			PageNumber: page + 1,
			Grid:       domain.TableGrid{{"h"}, {"v"}},
			Source:     domain.SourceOCR,
		},
	}
}

type fakeStructural struct {
	tables []domain.PageTableResult
	err    error
	calls  int
}

func (f *fakeStructural) ExtractTables(ctx context.Context, pdfPath string, pages []int) ([]domain.PageTableResult, error) {
	f.calls++
	return f.tables, f.err
}

type fakeOCR struct {
	mu     sync.Mutex
	tables []domain.PageTableResult
	err    error
	calls  int
	pages  []int
}

func (f *fakeOCR) ExtractAll(ctx context.Context, pdfPath string, pages []int, progress domain.ProgressFunc) ([]domain.PageTableResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.pages = pages
	return f.tables, f.err
}

var errBoom = errors.New("boom")
