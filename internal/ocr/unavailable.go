//go:build !ocr

package ocr

import (
	"github.com/xj-bear/pdf2all/internal/domain"
)

// NewEngine always fails in builds without the "ocr" tag.
func NewEngine(Options) (domain.OCREngine, error) {
	return nil, domain.ErrOCRUnavailable
}

// Available reports whether this build carries an OCR engine.
func Available() bool {
	return false
}

// EngineVersion returns an empty string when no engine is linked.
func EngineVersion() string {
	return ""
}
