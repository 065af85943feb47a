package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/tiforama/go/clients"
	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/events/outbox"
	"github.com/mcdev12/tiforama/go/internal/gateway"
	"github.com/mcdev12/tiforama/go/internal/timesync"
)

type Config struct {
	Port        string             `yaml:"port"`
	ApplySchema bool               `yaml:"apply_schema"`
	TimeSource  clients.TimeSource `yaml:"time_source"`
	TimeSync    timesync.Config    `yaml:"time_sync"`
	Gateway     gateway.Config     `yaml:"gateway"`
	Events      EventsConfig       `yaml:"events"`
}

type EventsConfig struct {
	Enabled   bool                   `yaml:"enabled"`
	JetStream events.JetStreamConfig `yaml:"jetstream"`
	Outbox    outbox.Config          `yaml:"outbox"`
}

func defaultConfig() *Config {
	return &Config{
		Port:       "8080",
		TimeSource: clients.TimeSourceWorldTimeAPI,
		TimeSync:   timesync.DefaultConfig(),
		Gateway:    gateway.DefaultConfig(),
		Events: EventsConfig{
			JetStream: events.DefaultJetStreamConfig(),
			Outbox:    outbox.DefaultConfig(),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file over the defaults, then applies environment
// overrides. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Port = getEnv("PORT", config.Port)
	config.ApplySchema = getEnvAsBool("DB_APPLY_SCHEMA", config.ApplySchema)
	config.TimeSource = clients.TimeSource(getEnv("TIME_SOURCE", string(config.TimeSource)))
	config.TimeSync.Interval = getEnvAsDuration("TIME_SYNC_INTERVAL", config.TimeSync.Interval)
	if url := os.Getenv("NATS_URL"); url != "" {
		config.Events.Enabled = true
		config.Events.JetStream.URL = url
	}
	config.Events.Outbox.Enabled = getEnvAsBool("EVENTS_OUTBOX", config.Events.Outbox.Enabled)

	if !clients.ValidateTimeSource(config.TimeSource) {
		return nil, fmt.Errorf("unknown time source %q", config.TimeSource)
	}
	if config.TimeSource == clients.TimeSourceTiforama {
		return nil, fmt.Errorf("the API server cannot sync against itself")
	}

	return config, nil
}
