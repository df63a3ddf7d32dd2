//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"printforge/internal/api/server"
	"printforge/internal/api/v1/services"
	"printforge/internal/app/converter"
	"printforge/internal/app/quota"
	"printforge/internal/app/webhook"
)

// InitializeApplication wires the full service graph. Backends are selected
// from environment variables inside the providers: POSTGRES_DSN switches the
// store off SQLite, MINIO_* configures the artifact bucket, REDIS_ADDR the
// quota counters.
func InitializeApplication() (*Application, error) {
	wire.Build(
		provideLogger,
		provideStore,
		provideArtifactStore,
		provideRedisClient,
		quota.NewGate,
		provideRegistry,
		provideProviderMetrics,
		provideEnhancer,
		providePrintClient,
		provideReconciler,
		provideSynchronizer,
		provideTracker,
		providePrinterService,
		converter.NewOrchestrator,
		webhook.NewIngestor,
		provideIngestorReconciler,
		services.NewConversionService,
		services.NewPrintJobService,
		services.NewQuotaService,
		services.NewProviderService,
		services.NewExportService,
		provideServiceContainer,
		server.DefaultConfig,
		server.NewServer,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
