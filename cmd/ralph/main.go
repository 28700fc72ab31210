// Package main is the ralph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/daydemir/ralph/internal/cmd"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cmd.Version = version
	root := cmd.NewRootCommand()

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
