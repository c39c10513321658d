package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/xj-bear/pdf2all/internal/domain"
)

// DefaultMaxFileSize is the largest PDF accepted for conversion.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

const encryptedMessage = "PDF is encrypted and cannot be converted. Please provide an unencrypted PDF."

// Validator checks that an input file exists, is small enough and parses as
// an unencrypted PDF.
type Validator struct {
	maxSize int64
	baseDir string
}

// NewValidator creates a validator. A maxSize of zero selects
// DefaultMaxFileSize; an empty baseDir means the working directory.
func NewValidator(maxSize int64, baseDir string) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Validator{maxSize: maxSize, baseDir: baseDir}
}

// Info is what validation learned about the document.
type Info struct {
	Path      string
	Size      int64
	PageCount int
}

// candidates lists where a relative path is looked up: as given, then the
// base directory and its uploads/ and files/ subdirectories.
func (v *Validator) candidates(path string) []string {
	base := v.baseDir
	if base == "" {
		base, _ = os.Getwd()
	}
	return []string{
		path,
		filepath.Join(base, path),
		filepath.Join(base, "uploads", path),
		filepath.Join(base, "files", path),
	}
}

// Resolve finds the file a caller meant by path.
func (v *Validator) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", domain.ValidationError("Missing 'pdf_path' parameter", nil)
	}

	candidates := v.candidates(path)
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err == nil && !info.IsDir() {
			return c, nil
		}
	}

	return "", domain.ValidationError(
		fmt.Sprintf("File not found: %s. Searched in: %s...", path, strings.Join(candidates[:3], ", ")),
		os.ErrNotExist,
	)
}

// Validate resolves path and checks size, encryption and structure.
func (v *Validator) Validate(path string) (*Info, error) {
	resolved, err := v.Resolve(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(resolved)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot access file: %s", resolved), err)
	}

	if stat.Size() > v.maxSize {
		return nil, domain.ValidationError(fmt.Sprintf(
			"File size (%.1fMB) exceeds maximum limit (%dMB)",
			float64(stat.Size())/(1024*1024), v.maxSize/(1024*1024),
		), nil)
	}

	ctx, err := api.ReadContextFile(resolved)
	if err != nil {
		if looksEncrypted(err) {
			return nil, domain.ValidationError(encryptedMessage, domain.ErrEncrypted)
		}
		return nil, domain.ValidationError(fmt.Sprintf("PDF appears to be corrupted or invalid: %v", err), err)
	}

	if ctx.Encrypt != nil {
		return nil, domain.ValidationError(encryptedMessage, domain.ErrEncrypted)
	}

	return &Info{Path: resolved, Size: stat.Size(), PageCount: ctx.PageCount}, nil
}

// ValidateQuality checks a JPEG quality value.
func (v *Validator) ValidateQuality(quality int) error {
	if quality < 1 || quality > 95 {
		return domain.ValidationError(fmt.Sprintf("quality must be between 1 and 95, got %d", quality), nil)
	}
	return nil
}

func looksEncrypted(err error) bool {
	if errors.Is(err, domain.ErrEncrypted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}
