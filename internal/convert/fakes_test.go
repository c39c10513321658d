package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/extract"
)

var errBoom = errors.New("boom")

// fakeDoc is a Rasterizer with per-page text and optional failing pages.
type fakeDoc struct {
	texts    []string
	failures map[int]bool
	closed   atomic.Int32
}

func newFakeDoc(pages int) *fakeDoc {
	texts := make([]string, pages)
	for i := range texts {
		texts[i] = fmt.Sprintf("text of page %d", i+1)
	}
	return &fakeDoc{texts: texts, failures: map[int]bool{}}
}

func (f *fakeDoc) PageCount() int { return len(f.texts) }

func (f *fakeDoc) Render(pageIndex int, zoom float64) (image.Image, error) {
	if f.failures[pageIndex] {
		return nil, errBoom
	}
	w, h := int(8.5*zoom*4), int(11*zoom*4)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img, nil
}

func (f *fakeDoc) Text(pageIndex int) (string, error) {
	if f.failures[pageIndex] {
		return "", errBoom
	}
	return f.texts[pageIndex], nil
}

func (f *fakeDoc) Close() error {
	f.closed.Add(1)
	return nil
}

// countingOpener hands out doc and counts how often it was opened.
type countingOpener struct {
	doc   *fakeDoc
	err   error
	opens atomic.Int32
}

func (o *countingOpener) open(string) (domain.Rasterizer, error) {
	o.opens.Add(1)
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

type fakeTables struct {
	result *extract.Result
	err    error

	mu  sync.Mutex
	req extract.Request
}

func (f *fakeTables) Extract(ctx context.Context, req extract.Request, progress domain.ProgressFunc) (*extract.Result, error) {
	f.mu.Lock()
	f.req = req
	f.mu.Unlock()
	if progress != nil {
		progress(domain.ProgressEvent{Type: domain.EventComplete})
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// stubConverter records the requests it receives.
type stubConverter struct {
	resp   *domain.Response
	err    error
	panics bool

	mu   sync.Mutex
	reqs []domain.Request
}

func (s *stubConverter) Convert(ctx context.Context, req domain.Request) (*domain.Response, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.panics {
		panic("renderer exploded")
	}
	return s.resp, s.err
}

func (s *stubConverter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

type memoryHistory struct {
	mu      sync.Mutex
	records []domain.ConversionRecord
	err     error
}

func (m *memoryHistory) Record(ctx context.Context, rec domain.ConversionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}
