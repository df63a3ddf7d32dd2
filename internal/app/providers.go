package app

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	v1routes "printforge/internal/api/v1/routes"
	"printforge/internal/api/v1/services"
	"printforge/internal/app/api/provider"
	"printforge/internal/app/enhance"
	"printforge/internal/app/printer"
	"printforge/internal/app/quota"
	"printforge/internal/app/repository"
	"printforge/internal/app/repository/pg"
	"printforge/internal/app/repository/sqlite"
	"printforge/internal/app/storage"
	"printforge/internal/app/sync"
	"printforge/internal/app/webhook"
	"printforge/internal/config"

	// Providers self-register into the global registry on import.
	_ "printforge/internal/app/api/meshy"
	_ "printforge/internal/app/api/tripo"
)

func provideLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// provideStore selects Postgres when POSTGRES_DSN is set, SQLite otherwise.
func provideStore(logger *slog.Logger) (repository.Store, error) {
	if os.Getenv("POSTGRES_DSN") != "" {
		logger.Info("using postgres store")
		return pg.Connect()
	}

	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		projectRoot, err := config.GetProjectRoot()
		if err != nil {
			projectRoot = "."
		}
		dbPath = filepath.Join(projectRoot, "data", "printforge.db")
	}
	logger.Info("using sqlite store", "path", dbPath)
	return sqlite.NewSQLiteStore(dbPath)
}

func provideArtifactStore() (storage.ArtifactStore, error) {
	return storage.NewMinioArtifactStore()
}

func provideRedisClient() *redis.Client {
	return quota.NewRedisClient()
}

func provideRegistry() provider.Registry {
	return provider.GlobalRegistry()
}

func provideProviderMetrics() *provider.Metrics {
	return provider.NewMetrics()
}

// provideEnhancer builds the description enhancer chain from whichever API
// keys are configured. Nil disables enhancement.
func provideEnhancer() enhance.Enhancer {
	var chain []enhance.Enhancer
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		chain = append(chain, enhance.NewOpenAIEnhancer(key))
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		chain = append(chain, enhance.NewGeminiEnhancer(key))
	}
	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	default:
		return enhance.NewChainEnhancer(chain...)
	}
}

func providePrintClient() printer.PrintServiceClient {
	return printer.NewHTTPPrintServiceClient()
}

func provideReconciler(store repository.Store, logger *slog.Logger) *printer.Reconciler {
	return printer.NewReconciler(store, logger)
}

func provideSynchronizer(store repository.Store, client printer.PrintServiceClient, reconciler *printer.Reconciler, logger *slog.Logger) *sync.Synchronizer {
	return sync.NewSynchronizer(store, client, reconciler, logger)
}

func provideTracker(s *sync.Synchronizer) printer.JobTracker {
	return s
}

func providePrinterService(store repository.Store, client printer.PrintServiceClient, artifacts storage.ArtifactStore, tracker printer.JobTracker, logger *slog.Logger) *printer.Service {
	return printer.NewService(store, client, artifacts, tracker, logger)
}

func provideIngestorReconciler(r *printer.Reconciler) webhook.Reconciler {
	return r
}

func provideServiceContainer(
	conversions services.ConversionService,
	printJobs services.PrintJobService,
	quotaSvc services.QuotaService,
	providers services.ProviderService,
	exports services.ExportService,
	ingestor *webhook.Ingestor,
) *v1routes.ServiceContainer {
	return &v1routes.ServiceContainer{
		ConversionService: conversions,
		PrintJobService:   printJobs,
		QuotaService:      quotaSvc,
		ProviderService:   providers,
		ExportService:     exports,
		WebhookIngestor:   ingestor,
	}
}
