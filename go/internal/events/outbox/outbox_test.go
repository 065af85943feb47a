package outbox

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/events/outbox/db"
)

type fakeQueries struct {
	mu   sync.Mutex
	rows []db.TifoOutbox
}

func (f *fakeQueries) InsertOutboxEvent(ctx context.Context, arg db.InsertOutboxEventParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, db.TifoOutbox{
		ID:        arg.ID,
		TifoID:    arg.TifoID,
		EventType: arg.EventType,
		Payload:   arg.Payload,
		CreatedAt: arg.CreatedAt,
	})
	return nil
}

func (f *fakeQueries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]db.TifoOutbox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.TifoOutbox
	for _, row := range f.rows {
		if !row.SentAt.Valid && int32(len(out)) < limit {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeQueries) FetchOutboxByID(ctx context.Context, id uuid.UUID) (db.TifoOutbox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id && !row.SentAt.Valid {
			return row, nil
		}
	}
	return db.TifoOutbox{}, sql.ErrNoRows
}

func (f *fakeQueries) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].SentAt = sql.NullTime{Time: time.Now(), Valid: true}
		}
	}
	return nil
}

func (f *fakeQueries) sent(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			return row.SentAt.Valid
		}
	}
	return false
}

// flakyPublisher fails the first failures calls, or every call for an event
// type listed in broken.
type flakyPublisher struct {
	failures  int
	broken    map[string]bool
	published []events.Event
}

func (p *flakyPublisher) Publish(ctx context.Context, event events.Event) error {
	if p.broken[event.EventType] {
		return errors.New("bus rejected event")
	}
	if p.failures > 0 {
		p.failures--
		return errors.New("bus unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func newEvent(t *testing.T, eventType string) events.Event {
	t.Helper()
	event, err := events.NewEvent(eventType, uuid.New(), map[string]string{"k": "v"})
	require.NoError(t, err)
	return event
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = 0
	cfg.MaxRetries = 2
	return cfg
}

func TestWriterAndNotification(t *testing.T) {
	ctx := context.Background()
	queries := &fakeQueries{}
	publisher := &flakyPublisher{}
	relay := NewRelay(clockwork.NewFakeClock(), queries, publisher, testConfig())

	event := newEvent(t, events.EventTypeTifoPublished)
	require.NoError(t, NewWriter(queries).Publish(ctx, event))
	assert.False(t, queries.sent(event.ID))

	require.NoError(t, relay.handleNotification(ctx, event.ID.String()))
	require.Len(t, publisher.published, 1)
	assert.Equal(t, event.ID, publisher.published[0].ID)
	assert.JSONEq(t, `{"k":"v"}`, string(publisher.published[0].Payload))
	assert.True(t, queries.sent(event.ID))

	// a second notification for the same row is a no-op
	require.NoError(t, relay.handleNotification(ctx, event.ID.String()))
	assert.Len(t, publisher.published, 1)
}

func TestNotificationWithBadID(t *testing.T) {
	relay := NewRelay(clockwork.NewFakeClock(), &fakeQueries{}, &flakyPublisher{}, testConfig())
	assert.Error(t, relay.handleNotification(context.Background(), "not-a-uuid"))
}

func TestPublishRetries(t *testing.T) {
	ctx := context.Background()
	queries := &fakeQueries{}
	event := newEvent(t, events.EventTypeTifoPublished)
	require.NoError(t, NewWriter(queries).Publish(ctx, event))

	publisher := &flakyPublisher{failures: 2}
	relay := NewRelay(clockwork.NewFakeClock(), queries, publisher, testConfig())
	require.NoError(t, relay.handleNotification(ctx, event.ID.String()))
	assert.Len(t, publisher.published, 1)
	assert.True(t, queries.sent(event.ID))

	other := newEvent(t, events.EventTypeTifoPublished)
	require.NoError(t, NewWriter(queries).Publish(ctx, other))
	publisher.failures = 3
	assert.Error(t, relay.handleNotification(ctx, other.ID.String()))
	assert.False(t, queries.sent(other.ID))
}

func TestSweepSkipsFailedEvents(t *testing.T) {
	ctx := context.Background()
	queries := &fakeQueries{}
	writer := NewWriter(queries)

	good := newEvent(t, events.EventTypeTifoPublished)
	bad := newEvent(t, "Unroutable")
	later := newEvent(t, events.EventTypeTifoPublished)
	for _, e := range []events.Event{good, bad, later} {
		require.NoError(t, writer.Publish(ctx, e))
	}

	publisher := &flakyPublisher{broken: map[string]bool{"Unroutable": true}}
	relay := NewRelay(clockwork.NewFakeClock(), queries, publisher, testConfig())
	require.NoError(t, relay.processUnsent(ctx))

	assert.True(t, queries.sent(good.ID))
	assert.False(t, queries.sent(bad.ID))
	assert.True(t, queries.sent(later.ID))

	unsent, err := queries.FetchUnsentOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, bad.ID, unsent[0].ID)
}

func TestRetryWaitsOnClock(t *testing.T) {
	ctx := context.Background()
	queries := &fakeQueries{}
	event := newEvent(t, events.EventTypeTifoPublished)
	require.NoError(t, NewWriter(queries).Publish(ctx, event))

	clock := clockwork.NewFakeClock()
	cfg := testConfig()
	cfg.RetryDelay = time.Second
	relay := NewRelay(clock, queries, &flakyPublisher{failures: 1}, cfg)

	done := make(chan error, 1)
	go func() { done <- relay.handleNotification(ctx, event.ID.String()) }()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.False(t, queries.sent(event.ID))

	clock.Advance(time.Second)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not retry")
	}
	assert.True(t, queries.sent(event.ID))
}

func TestBusOutageDelaysDelivery(t *testing.T) {
	ctx := context.Background()
	queries := &fakeQueries{}
	event := newEvent(t, events.EventTypeTifoPublished)
	require.NoError(t, NewWriter(queries).Publish(ctx, event))

	cfg := testConfig()
	publisher := &flakyPublisher{failures: cfg.MaxRetries + 1}
	relay := NewRelay(clockwork.NewFakeClock(), queries, publisher, cfg)

	require.NoError(t, relay.processUnsent(ctx))
	assert.False(t, queries.sent(event.ID))
	assert.Empty(t, publisher.published)

	require.NoError(t, relay.processUnsent(ctx))
	assert.True(t, queries.sent(event.ID))
	require.Len(t, publisher.published, 1)
	assert.Equal(t, event.ID, publisher.published[0].ID)
}
