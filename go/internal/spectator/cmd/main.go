package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/clients"
	"github.com/mcdev12/tiforama/go/clients/tifoapi"
	"github.com/mcdev12/tiforama/go/clients/worldtime_client"
	"github.com/mcdev12/tiforama/go/internal/animation"
	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/sound"
	"github.com/mcdev12/tiforama/go/internal/spectator"
	"github.com/mcdev12/tiforama/go/internal/timesync"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	var (
		group      = flag.String("group", "", "group name")
		tifo       = flag.String("tifo", "", "tifo name")
		place      = flag.Int("place", 0, "seat place number, starting at 1")
		slideshow  = flag.Bool("slideshow", false, "play every frame for one second")
		icons      = flag.Bool("icons", false, "show icon names instead of colors")
		demo       = flag.Bool("demo", false, "play the built-in demo choreography")
		apiURL     = flag.String("api", getEnv("TIFORAMA_API_URL", "http://localhost:8080"), "tiforama API base URL")
		timeSource = flag.String("time-source", getEnv("TIME_SOURCE", string(clients.TimeSourceTiforama)), "worldtimeapi or tiforama")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var fetcher spectator.SeatFetcher
	if !*demo {
		fetcher = tifoapi.NewTifoAPIClient(*apiURL)
	}
	seat, err := spectator.LoadSeat(ctx, fetcher, spectator.Seat{Group: *group, Tifo: *tifo, Place: *place})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seat")
	}

	clock := clockwork.NewRealClock()
	source, err := worldtime_client.NewClientForSource(clients.TimeSource(*timeSource), *apiURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up time source")
	}
	offsetFile := getEnv("TIME_OFFSET_FILE", filepath.Join(os.TempDir(), "tiforama-spectator-offset.yaml"))
	syncService := timesync.NewService(clock, source, timesync.NewFileStore(offsetFile), timesync.DefaultConfig())
	if err := syncService.Sync(ctx); err != nil {
		log.Warn().Err(err).Msg("starting with persisted clock offset")
	}
	go syncService.Run(ctx)

	engine := animation.NewEngine(clock, syncService, sound.NewBellPlayer(os.Stdout), animation.Config{
		Slideshow: *slideshow || seat.Slideshow,
	})
	defer engine.Close()
	if err := engine.Load(seat.Model); err != nil {
		log.Fatal().Err(err).Msg("failed to load choreography")
	}

	showIcons := *icons || seat.DisplayMode == models.DisplayModeIcon
	renderer := spectator.NewRenderer(seat.Model, showIcons, true)

	err = spectator.NewRunner(clock, engine, renderer, os.Stdout).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("spectator failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
