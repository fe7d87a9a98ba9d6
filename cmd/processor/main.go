// Command processor runs the sprint workload pipeline and the CSV dedupe
// tool from the command line.
//
//	processor metrics --entities tasks.csv --history history.csv --sprints sprints.csv [--until 2024-03-01]
//	processor summary --entities ... --sprint "Sprint 12"
//	processor variance --entities tasks.csv --sprints sprints.csv --sprint "Sprint 12"
//	processor dedupe extracts/ batch.zip
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/afero"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI(afero.NewOsFs()).rootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
