package serve

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"printforge/internal/app"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server with the orchestrator and status synchronizer",
	Long: `Run the API server with the orchestrator and status synchronizer.

- Rebuilds the polling set from persisted in-flight jobs before accepting traffic
- Shuts down gracefully on SIGINT/SIGTERM`,
	Run: func(cmd *cobra.Command, args []string) {
		application, err := app.InitializeApplication()
		if err != nil {
			log.Fatalf("failed to initialize application: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := application.Run(ctx); err != nil {
			log.Fatalf("application exited with error: %v", err)
		}
	},
}
