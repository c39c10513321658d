// Package testpdf builds small, well-formed PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Build returns a PDF with one Letter-sized page per entry of pageTexts.
// Each page shows its text in Helvetica.
func Build(pageTexts ...string) []byte {
	if len(pageTexts) == 0 {
		pageTexts = []string{""}
	}

	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")

	// 1 catalog, 2 pages, 3 font, then a page and a content stream per page.
	n := len(pageTexts)
	total := 3 + 2*n
	offsets := make([]int, total+1)

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	offsets[2] = buf.Len()
	fmt.Fprintf(buf, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)

	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, text := range pageTexts {
		pageObj, contentObj := 4+2*i, 5+2*i

		offsets[pageObj] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>\nendobj\n", pageObj, contentObj)

		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escape(text))
		offsets[contentObj] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)

	return buf.Bytes()
}

// WriteFile writes Build(pageTexts...) to dir/name and returns the path.
func WriteFile(dir, name string, pageTexts ...string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, Build(pageTexts...), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
