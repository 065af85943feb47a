package timesync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tiforama/go/clients/worldtime_client"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	remote time.Time
	err    error
	calls  atomic.Int32
}

func (f *fakeSource) FetchUTC(ctx context.Context) (time.Time, error) {
	f.calls.Add(1)
	if f.err != nil {
		return time.Time{}, f.err
	}
	return f.remote, nil
}

// blockingSource waits for the context, simulating a hung remote.
type blockingSource struct{}

func (blockingSource) FetchUTC(ctx context.Context) (time.Time, error) {
	<-ctx.Done()
	return time.Time{}, ctx.Err()
}

func TestNewServiceLoadsPersistedOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := NewMemoryStore()
	require.NoError(t, store.Set(OffsetKey, "250"))

	svc := NewService(clock, &fakeSource{err: errors.New("unreachable")}, store, DefaultConfig())

	assert.Equal(t, epoch.Add(250*time.Millisecond), svc.Now())
	assert.Equal(t, 250*time.Millisecond, svc.Offset())
	assert.True(t, svc.Offline())
}

func TestNewServiceWithoutPersistedOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	svc := NewService(clock, &fakeSource{}, NewMemoryStore(), DefaultConfig())

	assert.Equal(t, epoch, svc.Now())
	assert.False(t, svc.Offline())
	assert.True(t, svc.LastSync().IsZero())
}

func TestSyncSuccessPersistsOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := NewMemoryStore()
	source := &fakeSource{remote: epoch.Add(-1500 * time.Millisecond)}
	svc := NewService(clock, source, store, DefaultConfig())

	require.NoError(t, svc.Sync(context.Background()))

	assert.Equal(t, -1500*time.Millisecond, svc.Offset())
	assert.Equal(t, epoch.Add(-1500*time.Millisecond), svc.Now())
	assert.False(t, svc.Offline())
	assert.Equal(t, epoch.UnixMilli(), svc.LastSync().UnixMilli())

	raw, ok, err := store.Get(OffsetKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "-1500", raw)
}

func TestSyncFailureFallsBackToPersisted(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := NewMemoryStore()
	source := &fakeSource{remote: epoch.Add(time.Second)}
	svc := NewService(clock, source, store, DefaultConfig())
	require.NoError(t, svc.Sync(context.Background()))

	source.err = errors.New("network down")
	source.remote = time.Time{}
	require.Error(t, svc.Sync(context.Background()))

	assert.True(t, svc.Offline())
	assert.Equal(t, time.Second, svc.Offset())
}

func TestSyncFailureDefaultsToZero(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	svc := NewService(clock, &fakeSource{err: errors.New("boom")}, NewMemoryStore(), DefaultConfig())

	require.Error(t, svc.Sync(context.Background()))
	assert.True(t, svc.Offline())
	assert.Equal(t, epoch, svc.Now())
}

func TestSyncTimeoutIsFailure(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := NewMemoryStore()
	require.NoError(t, store.Set(OffsetKey, "42"))
	svc := NewService(clock, blockingSource{}, store, Config{Timeout: 20 * time.Millisecond})

	err := svc.Sync(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, svc.Offline())
	assert.Equal(t, 42*time.Millisecond, svc.Offset())
}

func TestSyncNowDoesNotBlock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	source := &fakeSource{remote: epoch.Add(3 * time.Second)}
	svc := NewService(clock, source, NewMemoryStore(), DefaultConfig())

	svc.SyncNow()
	svc.Wait()

	assert.Equal(t, int32(1), source.calls.Load())
	assert.Equal(t, 3*time.Second, svc.Offset())
}

func TestCorruptPersistedOffsetIgnored(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"garbage", "abc", 0},
		{"not a number", "NaN", 0},
		{"fractional", "12.6", 13 * time.Millisecond},
		{"negative", "-80", -80 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Set(OffsetKey, tt.raw))
			svc := NewService(clockwork.NewFakeClockAt(epoch), &fakeSource{}, store, DefaultConfig())
			assert.Equal(t, tt.want, svc.Offset())
		})
	}
}

func TestRunResyncsOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	source := &fakeSource{remote: epoch}
	svc := NewService(clock, source, NewMemoryStore(), Config{Interval: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, time.Millisecond)

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return source.calls.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tiforama.yaml")
	store := NewFileStore(path)

	_, ok, err := store.Get(OffsetKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(OffsetKey, "250"))
	require.NoError(t, store.Set("other", "x"))

	reopened := NewFileStore(path)
	v, ok, err := reopened.Get(OffsetKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "250", v)
}

func TestHandlerServesSyncableTime(t *testing.T) {
	serverClock := clockwork.NewFakeClockAt(epoch.Add(2 * time.Second))
	srv := httptest.NewServer(NewHandler(serverClock))
	t.Cleanup(srv.Close)

	clock := clockwork.NewFakeClockAt(epoch)
	source := worldtime_client.NewWorldTimeClient(srv.URL, "/api/time")
	svc := NewService(clock, source, NewMemoryStore(), DefaultConfig())

	require.NoError(t, svc.Sync(context.Background()))
	assert.Equal(t, 2*time.Second, svc.Offset())
}

func TestHandlerRejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(clockwork.NewFakeClock()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/time", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
