package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/xj-bear/pdf2all/internal/ocr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pdf2all version %s\n", appVersion)
		fmt.Fprintf(out, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if ocr.Available() {
			fmt.Fprintf(out, "ocr: tesseract %s\n", ocr.EngineVersion())
		} else {
			fmt.Fprintln(out, "ocr: not available (build with -tags ocr)")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
