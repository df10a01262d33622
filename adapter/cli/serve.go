package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iworkr/iworkr-stack-sub004/adapter/api"
)

var serveShutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduling HTTP API",
	Long: `Start the scheduling HTTP API on HTTP_ADDR.

The outbox processor runs in the same process unless
OUTBOX_PROCESSOR_ENABLED=false, in which case run "iworkr-worker" separately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Container == nil {
			return fmt.Errorf("app not initialized")
		}
		container := app.Container
		srv := api.NewServerFromContainer(container)

		g, ctx := errgroup.WithContext(cmd.Context())

		if container.Config.OutboxProcessorEnabled && container.OutboxProcessor != nil && !container.OutboxProcessor.IsRunning() {
			if err := container.OutboxProcessor.Start(ctx); err != nil {
				return fmt.Errorf("failed to start outbox processor: %w", err)
			}
		}

		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
