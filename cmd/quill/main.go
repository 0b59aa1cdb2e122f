package main

import (
	"fmt"
	"os"

	"github.com/me/quill/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
