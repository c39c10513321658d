package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/tables"
)

// ProcessWorker runs each page in a child process ("pdf2all worker ocr-page")
// and reads the outcome from its stdout. A crash inside native OCR code then
// costs only the page being processed.
type ProcessWorker struct {
	executable string
	params     tables.Params
	languages  []string
	level      string
	logger     *observability.Logger
}

// ProcessWorkerConfig configures a ProcessWorker.
type ProcessWorkerConfig struct {
	// Executable defaults to the running binary.
	Executable string
	Params     tables.Params
	Languages  []string
	Level      string
}

// NewProcessWorker creates a worker that forks per page.
func NewProcessWorker(cfg ProcessWorkerConfig, logger *observability.Logger) (*ProcessWorker, error) {
	exe := cfg.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, domain.ConfigError("locate worker executable", err)
		}
		exe = self
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &ProcessWorker{
		executable: exe,
		params:     cfg.Params,
		languages:  cfg.Languages,
		level:      cfg.Level,
		logger:     logger.WithOperation("ocr_page_process"),
	}, nil
}

// Args returns the command line passed to the child for one page.
func (w *ProcessWorker) Args(pdfPath string, pageIndex int) []string {
	args := []string{
		"worker", "ocr-page",
		"--pdf", pdfPath,
		"--page", strconv.Itoa(pageIndex),
		"--band-height", strconv.FormatFloat(w.params.BandHeight, 'f', -1, 64),
		"--column-gap", strconv.FormatFloat(w.params.ColumnGap, 'f', -1, 64),
		"--assign-tolerance", strconv.FormatFloat(w.params.AssignTolerance, 'f', -1, 64),
	}
	if len(w.languages) > 0 {
		args = append(args, "--languages", strings.Join(w.languages, "+"))
	}
	if w.level != "" {
		args = append(args, "--level", w.level)
	}
	return args
}

// Run executes the child process and decodes its outcome.
func (w *ProcessWorker) Run(ctx context.Context, pdfPath string, pageIndex int) domain.PageOutcome {
	cmd := exec.CommandContext(ctx, w.executable, w.Args(pdfPath, pageIndex)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var outcome domain.PageOutcome
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &outcome); err != nil {
		msg := fmt.Sprintf("worker process: invalid output: %v", err)
		if runErr != nil {
			msg = fmt.Sprintf("worker process: %v", runErr)
		}
		w.logger.Debug().
			Int("page", pageIndex+1).
			Str("stderr", tail(stderr.String(), 2048)).
			Msg(msg)
		return domain.PageOutcome{Page: pageIndex, Err: msg}
	}

	outcome.Page = pageIndex
	return outcome
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
