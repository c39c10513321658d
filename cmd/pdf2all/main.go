package main

import (
	"fmt"
	"os"

	"github.com/xj-bear/pdf2all/cmd/pdf2all/commands"
)

var (
	version = "0.1.0"
)

func main() {
	if err := commands.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
