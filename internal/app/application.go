package app

import (
	"context"
	"log/slog"
	"time"

	"printforge/internal/api/server"
	"printforge/internal/app/converter"
	"printforge/internal/app/printer"
	"printforge/internal/app/quota"
	"printforge/internal/app/repository"
	"printforge/internal/app/sync"
	"printforge/internal/app/webhook"
)

const (
	stuckScanInterval = time.Minute
	stuckThreshold    = 30 * time.Minute
)

// Application bundles the wired components behind one lifecycle.
type Application struct {
	Store        repository.Store
	Gate         *quota.Gate
	Orchestrator *converter.Orchestrator
	Printer      *printer.Service
	Synchronizer *sync.Synchronizer
	Ingestor     *webhook.Ingestor
	Server       *server.Server
	Logger       *slog.Logger
}

// Run starts the server and the background loops, blocking until ctx ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Synchronizer.Recover(ctx); err != nil {
		return err
	}
	go a.Synchronizer.Run(ctx)
	go a.Orchestrator.MonitorStuck(ctx, stuckScanInterval, stuckThreshold)

	if err := a.Server.Start(); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return a.Store.Close()
}
