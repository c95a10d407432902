// Package main is the entry point for the taskdash CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskdash/internal/cli"
	"taskdash/internal/commands"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Create dispatcher backed by the REST API
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.DefaultFactory)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
