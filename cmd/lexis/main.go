// Package main implements the lexis command line tool, which manages the
// vocabulary scheduler's database, seeds items, and runs reviews and
// statistics queries against the configured store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], newEnvironment(os.Stdout, os.Stderr))
	stop()
	os.Exit(code)
}
