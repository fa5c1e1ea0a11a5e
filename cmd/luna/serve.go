package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Akhil0736/luna-instagram-ai/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Luna HTTP API",
	Long: `Run the Luna coaching backend as an HTTP service.

Endpoints:
  POST /api/v1/turn             - run one coaching turn
  POST /api/v1/reset            - start a user's session over
  GET  /api/v1/executions/{id}  - execution progress
  GET  /api/v1/sessions/{user}  - stored session state
  GET  /health                  - dependency health
  GET  /metrics                 - Prometheus metrics`,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	app, err := buildApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()

	// Background sweeps keep execution records fresh between status reads.
	app.Poller.Start()

	srv := server.New(server.Config{
		Addr:         serveAddr,
		WriteTimeout: app.Config.Core.TurnTimeout + 30*time.Second,
	}, app.Orchestrator, app.Sessions, app.Store, app.Backend, app.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	var metricsSrv *http.Server
	if app.Config.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", app.Config.Metrics.Port),
			Handler: metricsMux,
		}
		go func() {
			app.Logger.Info("metrics listener starting", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				app.Logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	select {
	case <-cmd.Context().Done():
		app.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)

	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
