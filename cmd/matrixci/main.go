// Package main is the entry point for the matrixci CLI.
package main

import (
	"os"

	"github.com/matrixci/matrixci/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
