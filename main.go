package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetup-library/pkg/config"
	"meetup-library/pkg/libraryservice"
	"meetup-library/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (defaults to $MEETUP_CONFIG or ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		base := logging.Base()
		base.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Configure(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	logger := logging.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := libraryservice.New(ctx, cfg, logging.Base())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start library service")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svc.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("close backends")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           svc.APIServer().Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Backend).Str("cache", cfg.Cache.Backend).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
