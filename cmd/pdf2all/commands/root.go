// Package commands implements the pdf2all command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xj-bear/pdf2all/internal/config"
	"github.com/xj-bear/pdf2all/internal/observability"
)

var (
	cfgFile    string
	verbose    bool
	noColor    bool
	appVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "pdf2all",
	Short: "Convert PDF documents to Word, Excel, PowerPoint and JPG",
	Long: `pdf2all converts PDF files into Word documents, Excel workbooks (one sheet per
detected table, with an optional OCR fallback for scanned pages), PowerPoint
decks and JPG images.

It can be driven by one JSON request on stdin (convert), interactively (excel)
or over HTTP (serve).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute(version string) error {
	if version != "" {
		appVersion = version
	}
	return rootCmd.Execute()
}

// loadConfig reads --config and applies --verbose.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Observability.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "pdf2all",
	})
}
