package main

import (
	"context"
	"database/sql"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/dbconfig"
	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/events/outbox"
	outboxdb "github.com/mcdev12/tiforama/go/internal/events/outbox/db"
)

// setupEvents connects to JetStream when enabled. Without a bus, events are
// only logged and the gateway runs without a consumer. With the outbox on,
// the catalog writes events to Postgres and a relay forwards them.
func setupEvents(ctx context.Context, config EventsConfig, database *sql.DB, clock clockwork.Clock) (events.Publisher, jetstream.JetStream, func()) {
	if !config.Enabled {
		log.Info().Msg("event bus disabled, logging events only")
		return events.NewLogPublisher(), nil, func() {}
	}

	nc, js, err := events.Connect(config.JetStream)
	if err != nil {
		log.Warn().Err(err).Str("url", config.JetStream.URL).Msg("event bus unreachable, logging events only")
		return events.NewLogPublisher(), nil, func() {}
	}

	if err := events.EnsureStream(ctx, js, config.JetStream); err != nil {
		log.Warn().Err(err).Msg("event stream unavailable, logging events only")
		nc.Close()
		return events.NewLogPublisher(), nil, func() {}
	}

	log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to event bus")
	busPublisher := events.NewJetStreamPublisher(js, config.JetStream)
	if !config.Outbox.Enabled {
		return busPublisher, js, nc.Close
	}

	queries := outboxdb.New(database)
	relayConfig := config.Outbox
	relayConfig.DatabaseURL = dbconfig.NewConfigFromEnv().DSN()
	relay := outbox.NewRelay(clock, queries, busPublisher, relayConfig)
	go func() {
		if err := relay.Start(ctx); err != nil {
			log.Error().Err(err).Msg("outbox relay stopped")
		}
	}()

	return outbox.NewWriter(queries), js, nc.Close
}
