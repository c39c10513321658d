//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/bmp"

	"github.com/xj-bear/pdf2all/internal/domain"
)

// Tesseract detects text with libtesseract through gosseract. One instance
// owns one client and must not be shared between goroutines.
type Tesseract struct {
	client *gosseract.Client
	level  gosseract.PageIteratorLevel
}

// NewEngine creates a Tesseract engine.
func NewEngine(opts Options) (domain.OCREngine, error) {
	client := gosseract.NewClient()

	if len(opts.Languages) > 0 {
		if err := client.SetLanguage(opts.Languages...); err != nil {
			client.Close()
			return nil, domain.UnavailableError("set tesseract languages", err)
		}
	}
	// Sparse text finds cells that are not laid out as paragraphs.
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, domain.UnavailableError("set page segmentation mode", err)
	}

	level := gosseract.RIL_TEXTLINE
	if opts.Level == LevelWord {
		level = gosseract.RIL_WORD
	}

	return &Tesseract{client: client, level: level}, nil
}

// Available reports whether this build carries an OCR engine.
func Available() bool {
	return true
}

// EngineVersion returns the linked Tesseract version.
func EngineVersion() string {
	return gosseract.Version()
}

// Detect runs OCR over img.
func (t *Tesseract) Detect(ctx context.Context, img image.Image) ([]domain.TextRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(t.level)
	if err != nil {
		return nil, fmt.Errorf("get bounding boxes: %w", err)
	}

	regions := make([]domain.TextRegion, 0, len(boxes))
	for _, b := range boxes {
		r, ok := toRegion(b.Word, b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y, b.Confidence)
		if ok {
			regions = append(regions, r)
		}
	}
	return regions, nil
}

// Close frees the Tesseract handle.
func (t *Tesseract) Close() error {
	return t.client.Close()
}
