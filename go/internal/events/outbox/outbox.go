// Package outbox stores events in Postgres next to the catalog and relays
// them to the event bus, so a bus outage delays events instead of losing them.
// Rows are written after the catalog change commits, in their own statement;
// a crash between the two still drops the event.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/events/outbox/db"
)

// NotifyChannel is the Postgres channel the outbox insert trigger notifies.
const NotifyChannel = "tifo_outbox_events"

// Querier is the slice of outbox queries used here
type Querier interface {
	InsertOutboxEvent(ctx context.Context, arg db.InsertOutboxEventParams) error
	FetchUnsentOutbox(ctx context.Context, limit int32) ([]db.TifoOutbox, error)
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (db.TifoOutbox, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID) error
}

// Writer is an events.Publisher that appends to the outbox table. Each
// Publish is a single insert outside any caller transaction.
type Writer struct {
	queries Querier
}

func NewWriter(queries Querier) *Writer {
	return &Writer{queries: queries}
}

func (w *Writer) Publish(ctx context.Context, event events.Event) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := w.queries.InsertOutboxEvent(ctx, db.InsertOutboxEventParams{
		ID:        event.ID,
		TifoID:    event.TifoID,
		EventType: event.EventType,
		Payload:   event.Payload,
		CreatedAt: createdAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", event.EventType, err)
	}
	return nil
}

func rowToEvent(row db.TifoOutbox) events.Event {
	return events.Event{
		ID:        row.ID,
		TifoID:    row.TifoID,
		EventType: row.EventType,
		Payload:   []byte(row.Payload),
		CreatedAt: row.CreatedAt,
	}
}
