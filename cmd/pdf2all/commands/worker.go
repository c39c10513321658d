package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/extract"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/ocr"
	"github.com/xj-bear/pdf2all/internal/pdf"
	"github.com/xj-bear/pdf2all/internal/tables"
)

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Internal worker processes",
	Hidden: true,
}

var ocrPageFlags struct {
	pdfPath         string
	page            int
	bandHeight      float64
	columnGap       float64
	assignTolerance float64
	languages       string
	level           string
}

var ocrPageCmd = &cobra.Command{
	Use:   "ocr-page",
	Short: "OCR one page and print its outcome as JSON",
	Args:  cobra.NoArgs,
	RunE:  runOCRPage,
}

func init() {
	f := ocrPageCmd.Flags()
	f.StringVar(&ocrPageFlags.pdfPath, "pdf", "", "PDF file")
	f.IntVar(&ocrPageFlags.page, "page", 0, "0-based page index")
	f.Float64Var(&ocrPageFlags.bandHeight, "band-height", tables.BandHeight, "row band height in pixels")
	f.Float64Var(&ocrPageFlags.columnGap, "column-gap", tables.ColumnGap, "column gap in pixels")
	f.Float64Var(&ocrPageFlags.assignTolerance, "assign-tolerance", tables.AssignTolerance, "column assignment tolerance in pixels")
	f.StringVar(&ocrPageFlags.languages, "languages", "eng", "OCR languages joined with +")
	f.StringVar(&ocrPageFlags.level, "level", string(ocr.LevelTextLine), "textline or word")
	ocrPageCmd.MarkFlagRequired("pdf")

	workerCmd.AddCommand(ocrPageCmd)
	rootCmd.AddCommand(workerCmd)
}

// runOCRPage always prints an outcome; failures travel inside it so the
// parent can tell a failed page from a crashed process.
func runOCRPage(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "json",
		ServiceName: "pdf2all-worker",
	})

	params := tables.Params{
		BandHeight:      ocrPageFlags.bandHeight,
		ColumnGap:       ocrPageFlags.columnGap,
		AssignTolerance: ocrPageFlags.assignTolerance,
	}
	opts := ocr.Options{
		Languages: splitLanguages(ocrPageFlags.languages),
		Level:     ocr.Level(ocrPageFlags.level),
	}

	worker := extract.NewOCRWorker(pdf.OpenRasterizer, ocr.Factory(opts), params, logger)
	outcome := worker.Run(ctx, ocrPageFlags.pdfPath, ocrPageFlags.page)

	return writeOutcome(cmd, outcome)
}

func writeOutcome(cmd *cobra.Command, outcome domain.PageOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func splitLanguages(s string) []string {
	var langs []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}
