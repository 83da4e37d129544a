// Package main is the entry point for yadi.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/frederic-klein/yadi/cmd/yadi/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := commands.New().Execute(ctx); err != nil {
		return 1
	}
	return 0
}
