// Command emfield-server exposes the compute service over HTTP with
// metrics and optional tracing.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/signalsfoundry/emfield-mapper/internal/config"
	"github.com/signalsfoundry/emfield-mapper/internal/httpapi"
	"github.com/signalsfoundry/emfield-mapper/internal/logging"
	"github.com/signalsfoundry/emfield-mapper/internal/observability"
	"github.com/signalsfoundry/emfield-mapper/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LoggerConfig())
	ctx := context.Background()

	collector, err := observability.NewComputeCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	svc := service.New(
		cfg.Engine,
		service.WithLogger(log),
		service.WithMetrics(collector),
	)

	server := httpapi.NewServer(cfg.HTTPAddr, svc, collector, log)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	select {
	case err := <-errCh:
		log.Error(ctx, "http server exited", logging.Err(err))
		os.Exit(1)
	case <-stopCtx.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "http shutdown failed", logging.Err(err))
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}
