package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xj-bear/pdf2all/cmd/pdf2all/ui"
	"github.com/xj-bear/pdf2all/internal/convert"
	"github.com/xj-bear/pdf2all/internal/domain"
)

var (
	excelOutputPath string
	excelPages      string
	excelUseOCR     bool
)

var excelCmd = &cobra.Command{
	Use:   "excel <pdf-file>",
	Short: "Extract tables from a PDF into an Excel workbook",
	Long: `Extracts every table of the selected pages into its own worksheet. Pages are
read structurally first; with --ocr, scanned documents fall back to OCR when no
structural table is found.`,
	Example: `  pdf2all excel report.pdf
  pdf2all excel --ocr --pages 1,3-5 -o tables.xlsx scan.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExcel,
}

func init() {
	excelCmd.Flags().StringVarP(&excelOutputPath, "output", "o", "", "output .xlsx path (default: beside the PDF)")
	excelCmd.Flags().StringVarP(&excelPages, "pages", "p", "all", "page selection, e.g. all, 1,3-5")
	excelCmd.Flags().BoolVar(&excelUseOCR, "ocr", false, "fall back to OCR for image-based tables")
	rootCmd.AddCommand(excelCmd)
}

func runExcel(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.Init(noColor)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !verbose {
		// Keep the terminal for the progress display.
		cfg.Observability.LogLevel = "warn"
		cfg.Observability.LogFormat = "console"
	}
	logger := newLogger(cfg)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ui.Section("Table extraction")
	ui.Info("PDF file: %s", args[0])
	ui.Info("Pages: %s", excelPages)
	if excelUseOCR {
		ui.Info("OCR fallback: enabled")
	}
	ui.Newline()

	display := newExcelProgress()
	defer display.stop()

	req := domain.Request{
		Action:     domain.ActionExcel,
		PDFPath:    args[0],
		OutputPath: excelOutputPath,
		Pages:      excelPages,
		UseOCR:     excelUseOCR,
	}

	start := time.Now()
	resp := a.dispatcher.Handle(convert.WithProgress(ctx, display.handle), req)
	display.stop()

	if !resp.Success {
		ui.Error("%s", resp.Error)
		return errors.New("table extraction failed")
	}

	ui.Success("%s", resp.Message)
	ui.Newline()

	tablesCount := 0
	if resp.TablesCount != nil {
		tablesCount = *resp.TablesCount
	}
	ui.Table([]string{"Metric", "Value"}, [][]string{
		{"Output File", resp.OutputPath},
		{"Tables", strconv.Itoa(tablesCount)},
		{"Duration", ui.FormatDuration(time.Since(start))},
	})
	return nil
}

// excelProgress shows a spinner during the structural pass and switches to a
// page bar once the OCR fallback starts. handle may be called from several
// goroutines.
type excelProgress struct {
	mu      sync.Mutex
	spinner *ui.Spinner
	bar     *ui.ProgressBar
	stopped bool
}

func newExcelProgress() *excelProgress {
	p := &excelProgress{spinner: ui.NewSpinner("Looking for tables...")}
	p.spinner.Start()
	return p
}

func (p *excelProgress) handle(evt domain.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	switch evt.Type {
	case domain.EventPageProcessing:
		if p.bar == nil && evt.Total > 0 {
			p.spinner.Stop()
			p.bar = ui.NewProgressBar(int64(evt.Total), "OCR")
		}
	case domain.EventPageComplete:
		if p.bar != nil {
			p.bar.Set(int64(evt.Done))
		}
	case domain.EventComplete:
		if p.bar != nil {
			p.bar.Finish()
		}
	}
}

func (p *excelProgress) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	if p.bar == nil {
		p.spinner.Stop()
	}
}
