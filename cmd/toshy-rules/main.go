// Package main is the entry point for toshy-rules.
package main

import (
	"os"

	"github.com/RedBearAK/Toshy/internal/cli"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.Date = version, commit, date
	os.Exit(cli.Execute())
}
