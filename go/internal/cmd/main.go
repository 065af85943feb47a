package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/tiforama/go/clients/worldtime_client"
	"github.com/mcdev12/tiforama/go/internal/gateway"
	"github.com/mcdev12/tiforama/go/internal/timesync"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	config, err := loadConfig(getEnv("TIFORAMA_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := setupDatabase(ctx, config.ApplySchema)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer database.Close()

	clock := clockwork.NewRealClock()

	publisher, js, closeEvents := setupEvents(ctx, config.Events, database, clock)
	defer closeEvents()

	// The server keeps its own corrected clock: it drives gateway engines and
	// is the authority behind /api/time.
	source, err := worldtime_client.NewClientForSource(config.TimeSource, "")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up time source")
	}
	offsetFile := getEnv("TIME_OFFSET_FILE", filepath.Join(os.TempDir(), "tiforama-server-offset.yaml"))
	syncService := timesync.NewService(clock, source, timesync.NewFileStore(offsetFile), config.TimeSync)

	services := setupServices(database, publisher)

	gw, err := gateway.NewService(ctx, config.Gateway, services.TifosApp, clock, syncService, js)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway service")
	}
	server := setupServer(config.Port, services, gw, syncService)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		syncService.Run(gctx)
		return nil
	})
	g.Go(func() error {
		gw.Start(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Str("time_source", string(config.TimeSource)).
			Bool("events", js != nil).
			Msg("tiforama API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("tiforama API server stopped with error")
	}
	log.Info().Msg("tiforama API server shutdown complete")
}
