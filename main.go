// Package main provides the entrypoint for gh-webhook-stub.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/isometry/gh-webhook-stub/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.New().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
