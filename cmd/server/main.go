// Package main provides the entry point for the investment listing server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/ZaguanLabs/invlocale/internal/di"
	"github.com/ZaguanLabs/invlocale/internal/di/providers"
	"github.com/ZaguanLabs/invlocale/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Stop taking requests first, then let queued reconciliations finish
	// before the database closes.
	if h, err := do.Invoke[*providers.HTTPServerHandle](injector); err == nil {
		if err := h.Shutdown(); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
		}
	}
	if h, err := do.Invoke[*providers.WorkerPoolHandle](injector); err == nil {
		if err := h.Shutdown(); err != nil {
			log.Warn("Reconciliation workers did not drain", "error", err)
		}
	}

	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Server stopped")
}
