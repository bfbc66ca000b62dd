// Package main provides the analisis command-line client.
package main

import (
	"fmt"
	"os"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/cli"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cli.Version = Version
	cli.BuildDate = BuildTime
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
