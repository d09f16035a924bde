// Command-line entry point for YumZoom operators.
package main

import (
	"os"

	"github.com/yumzoom/yumzoom/internal/bootstrap"
	"github.com/yumzoom/yumzoom/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(bootstrap.CLIServices); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
