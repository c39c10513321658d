// Package ocr adapts an OCR engine to the text region model used by the table
// reconstructor.
//
// The Tesseract engine is compiled only with the "ocr" build tag because it
// links against libtesseract. Without the tag NewEngine reports
// domain.ErrOCRUnavailable and the converter runs without the OCR fallback.
package ocr

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/xj-bear/pdf2all/internal/domain"
)

// Level selects the granularity of the boxes returned by the engine.
type Level string

const (
	LevelTextLine Level = "textline"
	LevelWord     Level = "word"
)

// Options configures an engine.
type Options struct {
	Languages []string
	Level     Level
}

// DefaultOptions returns English text-line detection.
func DefaultOptions() Options {
	return Options{Languages: []string{"eng"}, Level: LevelTextLine}
}

// Factory returns a domain.OCREngineFactory that builds engines with opts.
func Factory(opts Options) domain.OCREngineFactory {
	return func() (domain.OCREngine, error) {
		return NewEngine(opts)
	}
}

// normalizeText returns NFC text with surrounding space removed.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// toRegion converts an axis-aligned box in pixels to a text region. Returns
// false when the text is blank.
func toRegion(text string, x0, y0, x1, y1 int, confidence float64) (domain.TextRegion, bool) {
	text = normalizeText(text)
	if text == "" {
		return domain.TextRegion{}, false
	}
	return domain.TextRegion{
		Text:       text,
		Box:        domain.QuadFromRect(float64(x0), float64(y0), float64(x1), float64(y1)),
		Confidence: confidence / 100.0,
	}, true
}
