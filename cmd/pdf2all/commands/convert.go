package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xj-bear/pdf2all/internal/domain"
)

var convertRequest string

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Run one JSON conversion request",
	Long: `Reads one JSON request from stdin (or --request) and prints one JSON response
on stdout. Logs go to stderr. The exit code is 0 whenever a response was printed,
including failed conversions.

Example:
  echo '{"action":"pdf_to_excel","pdf_path":"report.pdf","use_ocr":true}' | pdf2all convert`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertRequest, "request", "r", "", "JSON request (default: read stdin)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	input := convertRequest
	if input == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return writeResponse(out, domain.Failure(fmt.Sprintf("Unexpected error: %v", err)))
		}
		input = string(data)
	}

	req, failure := parseRequest(input)
	if failure != nil {
		return writeResponse(out, failure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return writeResponse(out, domain.Failure(fmt.Sprintf("Unexpected error: %v", err)))
	}
	logger := newLogger(cfg)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return writeResponse(out, domain.Failure(fmt.Sprintf("Unexpected error: %v", err)))
	}
	defer a.Close()

	return writeResponse(out, a.dispatcher.Handle(ctx, req))
}

// parseRequest decodes one protocol request. The second return is the
// response to print when the input is unusable.
func parseRequest(input string) (domain.Request, *domain.Response) {
	input = strings.TrimSpace(input)
	if input == "" {
		return domain.Request{}, domain.Failure("No input provided")
	}

	var req domain.Request
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return domain.Request{}, domain.Failure("Invalid JSON input")
	}
	return req, nil
}

func writeResponse(w io.Writer, resp *domain.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
