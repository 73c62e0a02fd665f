// Package main is the entry point for the wbcore CLI.
package main

import (
	"os"

	"github.com/jmylchreest/wbcore/cmd/wbcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
