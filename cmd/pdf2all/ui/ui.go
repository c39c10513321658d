// Package ui provides terminal output helpers for the interactive commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

// Init applies the --no-color flag.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects regular and error output. Used by tests.
func SetOutput(stdout, stderr io.Writer) {
	out = stdout
	errOut = stderr
}

// Success displays a success message.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message on stderr.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(errOut, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	warnColor.Fprintf(out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	infoColor.Fprintf(out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section prints a section header.
func Section(title string) {
	headerColor.Fprintf(out, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

// Newline prints a newline.
func Newline() {
	fmt.Fprintln(out)
}

// Table displays rows under headers in aligned columns.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// FormatDuration renders d for humans.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
