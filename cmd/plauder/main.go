// Command plauder is a terminal chat client for persona-driven
// conversations. It compiles the configured persona, world entries and
// format rules into a system instruction, streams replies from either the
// vendor-hosted API or any OpenAI-compatible endpoint, and renders them as
// a series of short messages.
//
// Configuration is read from plauder.yaml (see pkg/config) and PLAUDER_*
// environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/rhuss/plauder/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(session.Options{NewVendor: session.GenAIVendor})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
