package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/marine-forecast/cmd/marine-forecast/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.NewCommand(ctx).Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
