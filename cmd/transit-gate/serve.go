package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omarluq/transit-gate/internal/di"
	"github.com/omarluq/transit-gate/internal/lifecycle"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the transit-gate server",
	Long: `Start the gateway. The config file is watched and auth secrets are reloaded
without a restart. SIGINT or SIGTERM drains in-flight requests and stops.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	path := configPath()

	container, err := di.NewContainer(path)
	if err != nil {
		return err
	}
	if err := container.HealthCheck(); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to initialize services")
		if shutdownErr := container.Shutdown(); shutdownErr != nil {
			log.Warn().Err(shutdownErr).Msg("partial shutdown failed")
		}
		return err
	}

	cfgSvc := di.MustInvoke[*di.ConfigService](container)
	trustSvc := di.MustInvoke[*di.TrustService](container)
	checkerSvc := di.MustInvoke[*di.CheckerService](container)
	srv := di.MustInvoke[*di.ServerService](container).Server

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfgSvc.StartWatching(ctx)
	checkerSvc.Start()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	go func() {
		if sig, err := lifecycle.WaitForSignal(ctx); err == nil {
			signals <- sig
		}
	}()

	log.Info().
		Str("listen", srv.Addr()).
		Str("trust_backend", trustSvc.Backend.Kind()).
		Str("config", cfgSvc.Path()).
		Msg("starting transit-gate")

	var runErr error
	select {
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case runErr = <-serveErr:
		if runErr != nil {
			log.Error().Err(runErr).Msg("server error")
		}
	}
	cancel()

	drainErr := lifecycle.Drain(context.Background(), shutdownTimeout,
		lifecycle.Step{Name: "http", Run: srv.Shutdown},
		lifecycle.Step{Name: "services", Run: container.ShutdownWithContext},
	)
	if drainErr == nil {
		log.Info().Msg("server stopped")
	}
	return errors.Join(runErr, drainErr)
}
