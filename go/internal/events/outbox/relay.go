package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/events"
)

type Config struct {
	Enabled          bool          `yaml:"enabled"`
	DatabaseURL      string        `yaml:"-"`                 // Postgres DSN for LISTEN/NOTIFY
	FallbackInterval time.Duration `yaml:"fallback_interval"` // How often to sweep for missed events
	PingInterval     time.Duration `yaml:"ping_interval"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	BatchSize        int32         `yaml:"batch_size"`
}

func DefaultConfig() Config {
	return Config{
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		BatchSize:        100,
	}
}

// Relay forwards outbox rows to the bus. Notifications from the insert
// trigger give low latency; a periodic sweep picks up anything missed while
// the listener or the bus was down.
type Relay struct {
	clock     clockwork.Clock
	queries   Querier
	publisher events.Publisher
	cfg       Config
}

func NewRelay(clock clockwork.Clock, queries Querier, publisher events.Publisher, cfg Config) *Relay {
	return &Relay{
		clock:     clock,
		queries:   queries,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Start listens for notifications until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	listener := pq.NewListener(
		r.cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("outbox listener event")
			}
		},
	)
	defer listener.Close()

	if err := listener.Listen(NotifyChannel); err != nil {
		return fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", NotifyChannel).
		Dur("ping_interval", r.cfg.PingInterval).
		Dur("fallback_interval", r.cfg.FallbackInterval).
		Msg("outbox relay started")

	pingTicker := r.clock.NewTicker(r.cfg.PingInterval)
	fallbackTicker := r.clock.NewTicker(r.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	// Catch up on whatever accumulated while nobody was listening.
	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay shutting down")
			return nil
		case note := <-listener.Notify:
			if note == nil {
				// connection was re-established; notifications may have been missed
				r.sweep(ctx)
				continue
			}
			if err := r.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle outbox notification")
			}
		case <-fallbackTicker.Chan():
			r.sweep(ctx)
		case <-pingTicker.Chan():
			if err := listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping outbox listener")
			}
		}
	}
}

func (r *Relay) sweep(ctx context.Context) {
	if err := r.processUnsent(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent outbox events")
	}
}

// handleNotification relays the outbox row named by a notification payload.
func (r *Relay) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	row, err := r.queries.FetchOutboxByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		// already relayed by a sweep
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	return r.relay(ctx, rowToEvent(row))
}

// processUnsent relays one batch of unsent rows, oldest first.
func (r *Relay) processUnsent(ctx context.Context) error {
	unsent, err := r.queries.FetchUnsentOutbox(ctx, r.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	sent := 0
	for _, row := range unsent {
		if err := r.relay(ctx, rowToEvent(row)); err != nil {
			log.Error().Err(err).Str("event_id", row.ID.String()).Msg("failed to relay outbox event")
			continue
		}
		sent++
	}

	if len(unsent) > 0 {
		log.Info().
			Int("total", len(unsent)).
			Int("successful", sent).
			Msg("processed outbox events")
	}
	return nil
}

func (r *Relay) relay(ctx context.Context, event events.Event) error {
	if err := r.publishWithRetry(ctx, event); err != nil {
		return err
	}
	if err := r.queries.MarkOutboxSent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	log.Debug().Str("event_id", event.ID.String()).Msg("relayed outbox event")
	return nil
}

func (r *Relay) publishWithRetry(ctx context.Context, event events.Event) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 && r.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(r.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}
