package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a domain event waiting to be published
type Event struct {
	ID        uuid.UUID
	TifoID    uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// Publisher delivers events to the bus
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Envelope is the wire format of every event on the bus
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	TifoID    string          `json:"tifoId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent builds an event with a fresh ID around a JSON-encoded payload
func NewEvent(eventType string, tifoID uuid.UUID, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		TifoID:    tifoID,
		EventType: eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Encode wraps the event in its envelope
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(Envelope{
		EventID:   e.ID.String(),
		EventType: e.EventType,
		TifoID:    e.TifoID.String(),
		Timestamp: e.CreatedAt,
		Payload:   json.RawMessage(e.Payload),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses a bus message
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if env.EventType == "" {
		return Envelope{}, fmt.Errorf("event envelope has no type")
	}
	return env, nil
}

// Subject is the bus subject for an event type under prefix
func Subject(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", prefix, eventType)
}
