package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	qhttp "github.com/joeharson/mushroom-classification/http"
	"github.com/joeharson/mushroom-classification/monitoring"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction form and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("port") {
				a.cfg.HTTP.Port, _ = cmd.Flags().GetInt("port")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
	cmd.Flags().Int("port", 0, "Listen port (overrides http.port)")
	return cmd
}

// serve runs the server until ctx is cancelled. Missing artifacts degrade the service
// instead of stopping it: predictions answer 503 without a model, the form shows a notice
// without a reference dataset.
func serve(ctx context.Context, a *app) error {
	service, modelErr := a.loadService()
	reference, referenceErr := a.loadReference()

	deps := qhttp.Deps{
		Service:      service,
		Reference:    reference,
		ReferenceErr: referenceErr,
		Logger:       a.logger,
	}
	if a.cfg.Metrics.Enabled {
		metrics := monitoring.NewMetricsCollector()
		metrics.SetModelLoaded(modelErr == nil)
		deps.Metrics = metrics
		deps.MetricsPath = a.cfg.Metrics.Path
	}

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           a.cfg.HTTP.Port,
		Timeout:        a.cfg.HTTP.Timeout,
		MaxBodyBytes:   a.cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
	}, deps)

	listener, err := net.Listen("tcp", server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr(), err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")
	if err := server.Stop(context.Background()); err != nil {
		a.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}
	a.logger.Info("Exiting")
	return nil
}
