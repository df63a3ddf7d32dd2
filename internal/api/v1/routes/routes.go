package routes

import (
	"github.com/gin-gonic/gin"

	"printforge/internal/api/middleware"
	"printforge/internal/api/v1/handlers"
	"printforge/internal/api/v1/services"
	"printforge/internal/app/webhook"
)

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	ConversionService services.ConversionService
	PrintJobService   services.PrintJobService
	QuotaService      services.QuotaService
	ProviderService   services.ProviderService
	ExportService     services.ExportService
	WebhookIngestor   *webhook.Ingestor
}

// RegisterRoutes registers all v1 API routes. Webhook deliveries are mounted
// before the user resolver since the print service has no user identity.
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	if container.WebhookIngestor != nil {
		webhookHandler := handlers.NewWebhookHandler(container.WebhookIngestor)
		router.POST("/webhooks/print-status", webhookHandler.Receive)
	}

	authed := router.Group("")
	authed.Use(middleware.UserResolver())

	conversionHandler := handlers.NewConversionHandler(container.ConversionService)
	conversions := authed.Group("/conversions")
	{
		conversions.POST("", conversionHandler.Create)
		conversions.GET("", conversionHandler.List)
		conversions.GET("/:id", conversionHandler.Get)
		conversions.GET("/:id/status", conversionHandler.Status)
		conversions.GET("/:id/download", conversionHandler.Download)
		conversions.POST("/:id/actions", conversionHandler.Action)
	}

	printJobHandler := handlers.NewPrintJobHandler(container.PrintJobService)
	printJobs := authed.Group("/print-jobs")
	{
		printJobs.POST("", printJobHandler.Create)
		printJobs.GET("", printJobHandler.List)
		printJobs.GET("/:id", printJobHandler.Get)
		printJobs.POST("/:id/reprint", printJobHandler.Reprint)
	}

	quotaHandler := handlers.NewQuotaHandler(container.QuotaService)
	authed.GET("/usage", quotaHandler.Usage)
	admin := authed.Group("/admin")
	{
		admin.PUT("/users/:id/tier", quotaHandler.UpgradeTier)
		admin.DELETE("/users/:id/usage", quotaHandler.ResetLimits)
	}

	if container.ProviderService != nil {
		providerHandler := handlers.NewProviderHandler(container.ProviderService)
		providers := authed.Group("/providers")
		{
			providers.GET("", providerHandler.List)
			providers.GET("/health", providerHandler.Health)
			providers.GET("/:name/stats", providerHandler.Stats)
		}
	}

	if container.ExportService != nil {
		exportHandler := handlers.NewExportHandler(container.ExportService)
		authed.GET("/export", exportHandler.Export)
	}
}
