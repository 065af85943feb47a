package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/animation"
)

// Service is the live gateway: spectator sockets plus catalog event fan-out
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
}

// Config holds configuration for the gateway service
type Config struct {
	Connection ConnectionConfig        `yaml:"connection"`
	Consumer   JetStreamConsumerConfig `yaml:"consumer"`
	Engine     animation.Config        `yaml:"engine"`
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		Connection: DefaultConnectionConfig(),
		Consumer:   DefaultJetStreamConsumerConfig(),
		Engine:     animation.DefaultConfig(),
	}
}

// NewService creates the gateway. With a nil js the gateway serves seats but
// never hears about republished tifos.
func NewService(ctx context.Context, config Config, seats SeatSource, clock clockwork.Clock, ts animation.TimeSource, js jetstream.JetStream) (*Service, error) {
	if config.Connection.CheckOrigin == nil {
		config.Connection.CheckOrigin = DefaultConnectionConfig().CheckOrigin
	}
	connectionManager := NewConnectionManager(config.Connection)

	s := &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, seats, clock, ts, config.Engine),
	}

	if js != nil {
		eventConsumer, err := NewEventConsumer(ctx, connectionManager, js, config.Consumer)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = eventConsumer
	}

	return s, nil
}

// Start runs the connection manager and event consumer until ctx is done
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("gateway service stopped")
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// Stats returns statistics about active connections
func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.Stats()
}
