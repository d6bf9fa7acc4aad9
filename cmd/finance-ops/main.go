package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finance-app-go/internal/app"
	"finance-app-go/pkg/logger"
)

func main() {
	log := logger.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func(context.Context) (backend, error) {
		core, err := app.NewCore(log)
		if err != nil {
			return nil, err
		}
		return &coreBackend{core: core}, nil
	}

	if err := newRootCmd(open, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
