package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tiforama/go/clients"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("TIME_SOURCE", "")

	config, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, clients.TimeSourceWorldTimeAPI, config.TimeSource)
	assert.Equal(t, 30*time.Second, config.TimeSync.Interval)
	assert.Equal(t, 3*time.Second, config.Gateway.Engine.CompletionWindow)
	assert.False(t, config.Events.Enabled)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
time_sync:
  interval: 1m
gateway:
  engine:
    completion_window: 5s
    start_gate_second: 45
`), 0o644))

	t.Setenv("PORT", "")
	t.Setenv("TIME_SOURCE", "")
	t.Setenv("NATS_URL", "nats://bus:4222")

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", config.Port)
	assert.Equal(t, time.Minute, config.TimeSync.Interval)
	assert.Equal(t, 5*time.Second, config.Gateway.Engine.CompletionWindow)
	assert.Equal(t, 45, config.Gateway.Engine.StartGateSecond)
	assert.True(t, config.Events.Enabled)
	assert.Equal(t, "nats://bus:4222", config.Events.JetStream.URL)
	assert.Equal(t, "TIFO_EVENTS", config.Events.JetStream.StreamName)
}

func TestLoadConfigRejectsTimeSources(t *testing.T) {
	t.Setenv("NATS_URL", "")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	t.Setenv("TIME_SOURCE", "sundial")
	_, err := loadConfig(missing)
	assert.Error(t, err)

	t.Setenv("TIME_SOURCE", string(clients.TimeSourceTiforama))
	_, err = loadConfig(missing)
	assert.Error(t, err)
}

func TestLoadConfigOutbox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
events:
  enabled: true
  outbox:
    batch_size: 10
    fallback_interval: 5s
`), 0o644))

	t.Setenv("TIME_SOURCE", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("EVENTS_OUTBOX", "true")

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.True(t, config.Events.Outbox.Enabled)
	assert.Equal(t, int32(10), config.Events.Outbox.BatchSize)
	assert.Equal(t, 5*time.Second, config.Events.Outbox.FallbackInterval)
	assert.Equal(t, 5, config.Events.Outbox.MaxRetries)
}
