package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noah-isme/backend-pricing/internal/app"
	"github.com/noah-isme/backend-pricing/internal/config"
	"github.com/noah-isme/backend-pricing/internal/health"
	"github.com/noah-isme/backend-pricing/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{Format: cfg.Obs.LogFormat, Level: cfg.Obs.LogLevel}).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "pricing-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	application, err := app.New(ctx, cfg, app.Options{Logger: logger, Tracing: tracingEnabled})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           application.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Bool("redis", application.Redis != nil).
			Int("products", application.Registry.Len()).
			Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("server draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
