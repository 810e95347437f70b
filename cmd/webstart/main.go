// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/webstart/lib/process"
)

func main() {
	// Commands that log their own failures return a *cli.ExitError,
	// which exits without an extra "error:" line.
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root(newApp()).Execute(ctx, os.Args[1:])
}
