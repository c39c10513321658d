package convert

import (
	"context"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/tabula/docx"
	"github.com/tsawler/tabula/pptx"
	"github.com/xuri/excelize/v2"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/extract"
)

func TestJPGConverter_Normal(t *testing.T) {
	dir := t.TempDir()
	opener := &countingOpener{doc: newFakeDoc(3)}
	c := NewJPGConverter(opener.open, JPGOptions{}, nil)

	resp, err := c.Convert(context.Background(), domain.Request{
		PDFPath:    filepath.Join(dir, "scan.pdf"),
		OutputPath: filepath.Join(dir, "out", "page.jpg"),
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	assert.Equal(t, []string{
		filepath.Join(dir, "out", "page_1.jpg"),
		filepath.Join(dir, "out", "page_2.jpg"),
		filepath.Join(dir, "out", "page_3.jpg"),
	}, resp.OutputPaths)
	assert.Equal(t, 3, *resp.PagesCount)
	assert.Equal(t, "Successfully converted 3 page(s) to JPG", resp.Message)

	f, err := os.Open(resp.OutputPaths[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 34, img.Bounds().Dx())
}

func TestJPGConverter_NormalFailsOnBadPage(t *testing.T) {
	doc := newFakeDoc(2)
	doc.failures[1] = true
	c := NewJPGConverter((&countingOpener{doc: doc}).open, JPGOptions{}, nil)

	_, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(t.TempDir(), "a.pdf")})
	assert.ErrorIs(t, err, errBoom)
}

func TestJPGConverter_FastSkipsBadPages(t *testing.T) {
	dir := t.TempDir()
	doc := newFakeDoc(3)
	doc.failures[1] = true
	c := NewJPGConverter((&countingOpener{doc: doc}).open, JPGOptions{Fast: true, Quality: 40}, nil)

	resp, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(dir, "scan.pdf")})
	require.NoError(t, err)
	require.True(t, resp.Success)

	assert.Equal(t, []string{
		filepath.Join(dir, "scan_page_1.jpg"),
		filepath.Join(dir, "scan_page_3.jpg"),
	}, resp.OutputPaths)
	assert.Equal(t, 2, *resp.PagesConverted)
	assert.Equal(t, 3, *resp.TotalPages)
	assert.Nil(t, resp.PagesCount)
}

func TestJPGConverter_FastNothingConverted(t *testing.T) {
	doc := newFakeDoc(1)
	doc.failures[0] = true
	c := NewJPGConverter((&countingOpener{doc: doc}).open, JPGOptions{Fast: true}, nil)

	resp, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(t.TempDir(), "a.pdf")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "No pages were successfully converted", resp.Error)
}

func TestJPGConverter_Quality(t *testing.T) {
	c := NewJPGConverter((&countingOpener{doc: newFakeDoc(1)}).open, JPGOptions{Fast: true}, nil)

	for _, q := range []int{-1, 96} {
		resp, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(t.TempDir(), "a.pdf"), Quality: q})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "quality must be between 1 and 95")
	}
}

func TestJPGConverter_SinglePageName(t *testing.T) {
	dir := t.TempDir()
	c := NewJPGConverter((&countingOpener{doc: newFakeDoc(1)}).open, JPGOptions{}, nil)

	resp, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(dir, "cover.pdf")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "cover.jpg")}, resp.OutputPaths)
}

func TestPPTXConverter(t *testing.T) {
	dir := t.TempDir()
	doc := newFakeDoc(4)
	doc.failures[2] = true
	c := NewPPTXConverter((&countingOpener{doc: doc}).open, 0, nil)

	resp, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(dir, "slides.pdf")})
	require.NoError(t, err)
	require.True(t, resp.Success)

	want := filepath.Join(dir, "slides.pptx")
	assert.Equal(t, want, resp.OutputPath)
	assert.Equal(t, 4, *resp.PagesCount)
	assert.Equal(t, "Successfully converted 4 page(s) to PowerPoint: "+want, resp.Message)

	r, err := pptx.Open(want)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 3, r.SlideCount())
}

func TestPPTXConverter_OpenError(t *testing.T) {
	c := NewPPTXConverter((&countingOpener{err: errBoom}).open, 0, nil)
	_, err := c.Convert(context.Background(), domain.Request{PDFPath: "x.pdf"})
	assert.ErrorIs(t, err, errBoom)
}

func TestDocxConverter(t *testing.T) {
	for _, fast := range []bool{false, true} {
		name := "sequential"
		if fast {
			name = "fast mode"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			opener := &countingOpener{doc: newFakeDoc(6)}
			c := NewDocxConverter(opener.open, 0, nil)

			resp, err := c.Convert(context.Background(), domain.Request{
				PDFPath:  filepath.Join(dir, "book.pdf"),
				FastMode: fast,
			})
			require.NoError(t, err)
			require.True(t, resp.Success)

			want := filepath.Join(dir, "book.docx")
			assert.Equal(t, "Successfully converted PDF to DOCX: "+want, resp.Message)
			assert.Equal(t, 6, *resp.PagesCount)

			r, err := docx.Open(want)
			require.NoError(t, err)
			defer r.Close()
			text, err := r.Text()
			require.NoError(t, err)

			// Pages keep their order whichever way they were read.
			last := -1
			for i := 1; i <= 6; i++ {
				idx := strings.Index(text, "text of page "+string(rune('0'+i)))
				require.GreaterOrEqual(t, idx, 0)
				assert.Greater(t, idx, last)
				last = idx
			}

			if fast {
				assert.Greater(t, opener.opens.Load(), int32(1))
			} else {
				assert.Equal(t, int32(1), opener.opens.Load())
			}
		})
	}
}

func TestDocxConverter_PageLimit(t *testing.T) {
	dir := t.TempDir()
	c := NewDocxConverter((&countingOpener{doc: newFakeDoc(5)}).open, 2, nil)

	resp, err := c.Convert(context.Background(), domain.Request{
		PDFPath:    filepath.Join(dir, "long.pdf"),
		OutputPath: filepath.Join(dir, "out", "long.docx"),
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	out := filepath.Join(dir, "out", "long.docx")
	assert.Equal(t, "Successfully converted first 2 pages to Word: "+out+". Original PDF has 5 pages.", resp.Message)
	assert.Equal(t, 2, *resp.PagesCount)

	r, err := docx.Open(out)
	require.NoError(t, err)
	defer r.Close()
	text, err := r.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "text of page 2")
	assert.NotContains(t, text, "text of page 3")
}

func TestDocxConverter_TextError(t *testing.T) {
	doc := newFakeDoc(3)
	doc.failures[1] = true
	c := NewDocxConverter((&countingOpener{doc: doc}).open, 0, nil)

	_, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(t.TempDir(), "a.pdf"), FastMode: true})
	assert.ErrorIs(t, err, errBoom)
}

func nameAgeTable(page int, src domain.Source) domain.PageTableResult {
	return domain.PageTableResult{
		PageNumber: page,
		Grid:       domain.TableGrid{{"Name", "Age"}, {"Alice", "30"}},
		Source:     src,
	}
}

func TestExcelConverter(t *testing.T) {
	dir := t.TempDir()
	service := &fakeTables{result: &extract.Result{
		Tables:       []domain.PageTableResult{nameAgeTable(1, domain.SourceOCR), nameAgeTable(3, domain.SourceOCR)},
		OCRAttempted: true,
	}}
	c := NewExcelConverter((&countingOpener{doc: newFakeDoc(4)}).open, service, nil)

	var events int
	ctx := WithProgress(context.Background(), func(domain.ProgressEvent) { events++ })
	resp, err := c.Convert(ctx, domain.Request{
		PDFPath: filepath.Join(dir, "scan.pdf"),
		Pages:   "1,3-9",
		UseOCR:  true,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	out := filepath.Join(dir, "scan.xlsx")
	assert.Equal(t, "Successfully extracted 2 table(s) to Excel: "+out+" (2 table(s) extracted via OCR)", resp.Message)
	assert.Equal(t, 2, *resp.TablesCount)
	assert.Equal(t, []int{0, 2, 3}, service.req.Pages)
	assert.True(t, service.req.UseOCR)
	assert.Equal(t, 1, events)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Page1_Table1", "Page3_Table2"}, f.GetSheetList())
	rows, err := f.GetRows("Page3_Table2")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Age"}, {"Alice", "30"}}, rows)
}

func TestExcelConverter_StructuralHasNoOCRNote(t *testing.T) {
	service := &fakeTables{result: &extract.Result{
		Tables: []domain.PageTableResult{nameAgeTable(2, domain.SourceStructural)},
	}}
	c := NewExcelConverter((&countingOpener{doc: newFakeDoc(2)}).open, service, nil)

	resp, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(t.TempDir(), "t.pdf")})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.NotContains(t, resp.Message, "OCR")
	assert.Equal(t, []int{0, 1}, service.req.Pages)
}

func TestExcelConverter_NoTables(t *testing.T) {
	tests := []struct {
		name        string
		useOCR      bool
		unavailable bool
		want        string
	}{
		{"ocr disabled", false, false, "No tables found in the PDF. Try enabling OCR with use_ocr=true for image-based tables."},
		{"ocr unavailable", true, true, "No tables found in the PDF. OCR is not available - install tesseract-ocr and build pdf2all with -tags ocr for image-based table extraction."},
		{"ocr found nothing", true, false, "No tables found in the PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			service := &fakeTables{result: &extract.Result{OCRUnavailable: tt.unavailable}}
			c := NewExcelConverter((&countingOpener{doc: newFakeDoc(1)}).open, service, nil)

			resp, err := c.Convert(context.Background(), domain.Request{PDFPath: filepath.Join(dir, "x.pdf"), UseOCR: tt.useOCR})
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error)

			_, statErr := os.Stat(filepath.Join(dir, "x.xlsx"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestExcelConverter_EmptySelection(t *testing.T) {
	service := &fakeTables{}
	c := NewExcelConverter((&countingOpener{doc: newFakeDoc(3)}).open, service, nil)

	resp, err := c.Convert(context.Background(), domain.Request{PDFPath: "x.pdf", Pages: "7-9,abc"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "No valid pages selected")
	assert.Nil(t, service.req.Pages)
}

func TestExcelConverter_ExtractionError(t *testing.T) {
	c := NewExcelConverter((&countingOpener{doc: newFakeDoc(1)}).open, &fakeTables{err: errBoom}, nil)
	_, err := c.Convert(context.Background(), domain.Request{PDFPath: "x.pdf"})
	assert.ErrorIs(t, err, errBoom)
}
