package timesync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// OffsetKey is the store key holding the last good offset in milliseconds.
const OffsetKey = "tiforama_time_offset"

const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 30 * time.Second
)

// Source fetches the authoritative UTC time.
type Source interface {
	FetchUTC(ctx context.Context) (time.Time, error)
}

// Config tunes the sync service.
type Config struct {
	Timeout  time.Duration `yaml:"timeout"`
	Interval time.Duration `yaml:"interval"`
}

func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout, Interval: DefaultInterval}
}

// Service keeps a corrected clock. The offset is written only by sync
// attempts and read lock-free by any number of engines.
type Service struct {
	clock  clockwork.Clock
	source Source
	store  Store
	config Config

	offsetMillis atomic.Int64
	offline      atomic.Bool
	lastSync     atomic.Int64

	wg sync.WaitGroup
}

// NewService loads the persisted offset before returning, so Now is usable
// before any network round trip completes.
func NewService(clock clockwork.Clock, source Source, store Store, config Config) *Service {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}

	s := &Service{
		clock:  clock,
		source: source,
		store:  store,
		config: config,
	}

	saved := s.loadPersisted()
	s.offsetMillis.Store(saved)
	s.offline.Store(saved != 0)

	log.Debug().Int64("offset_ms", saved).Msg("loaded persisted clock offset")
	return s
}

// Now returns the local clock corrected by the current offset.
func (s *Service) Now() time.Time {
	return s.clock.Now().Add(s.Offset())
}

func (s *Service) Offset() time.Duration {
	return time.Duration(s.offsetMillis.Load()) * time.Millisecond
}

// Offline reports whether the last sync attempt failed.
func (s *Service) Offline() bool {
	return s.offline.Load()
}

// LastSync is the local time of the last successful sync, zero if none.
func (s *Service) LastSync() time.Time {
	ms := s.lastSync.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// SyncNow starts a sync attempt in the background and returns immediately.
func (s *Service) SyncNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.Sync(context.Background())
	}()
}

// Wait blocks until background sync attempts started by SyncNow finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Sync performs one sync attempt. A failure falls back to the persisted
// offset and marks the service offline; the returned error is informational.
func (s *Service) Sync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	remote, err := s.source.FetchUTC(ctx)
	if err != nil {
		s.fallback(err)
		return fmt.Errorf("time sync failed: %w", err)
	}

	local := s.clock.Now()
	offset := remote.Sub(local).Milliseconds()
	s.offsetMillis.Store(offset)
	s.offline.Store(false)
	s.lastSync.Store(local.UnixMilli())

	if err := s.store.Set(OffsetKey, strconv.FormatInt(offset, 10)); err != nil {
		log.Warn().Err(err).Msg("failed to persist clock offset")
	}

	log.Info().
		Int64("offset_ms", offset).
		Time("remote", remote).
		Msg("clock synchronized")
	return nil
}

// Run syncs immediately and then every configured interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.config.Interval)
	defer ticker.Stop()

	_ = s.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			_ = s.Sync(ctx)
		}
	}
}

func (s *Service) fallback(cause error) {
	saved := s.loadPersisted()
	s.offsetMillis.Store(saved)
	s.offline.Store(true)

	log.Warn().
		Err(cause).
		Int64("offset_ms", saved).
		Msg("time sync unavailable, using persisted offset")
}

func (s *Service) loadPersisted() int64 {
	raw, ok, err := s.store.Get(OffsetKey)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read persisted clock offset")
		return 0
	}
	if !ok {
		return 0
	}

	offset, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(offset) || math.IsInf(offset, 0) {
		log.Warn().Err(errors.Join(ErrCorruptOffset, err)).Str("value", raw).Msg("ignoring persisted clock offset")
		return 0
	}
	return int64(math.Round(offset))
}
