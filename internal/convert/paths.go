package convert

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xj-bear/pdf2all/internal/domain"
)

// PagePlaceholder marks where the page number goes in a fast JPG pattern.
const PagePlaceholder = "{}"

// DefaultOutputPath returns output when set, otherwise pdfPath with its
// extension replaced by ext.
func DefaultOutputPath(pdfPath, output, ext string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ext
}

// ensureParent creates the directory that will hold path.
func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.IOError("create output directory", err)
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isDirTarget(output string) bool {
	if strings.HasSuffix(output, string(os.PathSeparator)) || strings.HasSuffix(output, "/") {
		return true
	}
	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

// JPGNamer returns the file name for page n (1-based) of a normal JPG
// conversion: <prefix>.jpg for a single-page document, <prefix>_<n>.jpg
// otherwise. output may be empty, a directory or a file path whose stem
// becomes the prefix.
func JPGNamer(pdfPath, output string, pageCount int) func(n int) string {
	var dir, prefix string
	switch {
	case output == "":
		dir, prefix = filepath.Dir(pdfPath), stem(pdfPath)
	case isDirTarget(output):
		dir, prefix = output, stem(pdfPath)
	default:
		dir, prefix = filepath.Dir(output), stem(output)
	}

	return func(n int) string {
		if pageCount == 1 {
			return filepath.Join(dir, prefix+".jpg")
		}
		return filepath.Join(dir, prefix+"_"+strconv.Itoa(n)+".jpg")
	}
}

// FastJPGPattern returns the pattern used by fast JPG conversion. A caller
// pattern containing PagePlaceholder is used as is.
func FastJPGPattern(pdfPath, output string) string {
	switch {
	case output == "":
		return filepath.Join(filepath.Dir(pdfPath), stem(pdfPath)+"_page_"+PagePlaceholder+".jpg")
	case strings.Contains(output, PagePlaceholder):
		return output
	case isDirTarget(output):
		return filepath.Join(output, stem(pdfPath)+"_page_"+PagePlaceholder+".jpg")
	default:
		return filepath.Join(filepath.Dir(output), stem(output)+"_page_"+PagePlaceholder+".jpg")
	}
}

// ExpandPattern substitutes page number n into pattern.
func ExpandPattern(pattern string, n int) string {
	return strings.ReplaceAll(pattern, PagePlaceholder, strconv.Itoa(n))
}
