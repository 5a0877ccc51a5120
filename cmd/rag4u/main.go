// Command rag4u ingests document folders into a searchable record store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rag4u/ingest/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, version)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
