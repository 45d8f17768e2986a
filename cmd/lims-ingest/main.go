// Package main is the command-line entry point of the LIMS ingestion
// pipeline: one-shot ingestion, schema migrations and the scheduled
// ingestion daemon.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
