package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM. A
// second signal exits immediately.
func setupSignalHandler(logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logger.Warn("received signal, finishing current request and flushing", "signal", sig.String())
		cancel()

		sig = <-sigCh
		logger.Error("received second signal, forcing exit", "signal", sig.String())
		os.Exit(1)
	}()

	return ctx
}
