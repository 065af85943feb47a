package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/tiforama/go/internal/animation"
	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/sound"
)

// MessageType names a websocket message in either direction
type MessageType string

const (
	// Server to client
	MessageTypeSnapshot    MessageType = "snapshot"
	MessageTypeCue         MessageType = "cue"
	MessageTypeCueStop     MessageType = "cue_stop"
	MessageTypeTifoUpdated MessageType = "tifo_updated"
	MessageTypeError       MessageType = "error"

	// Client to server
	MessageTypeStart MessageType = "start"
	MessageTypeStop  MessageType = "stop"
)

// ServerMessage is the envelope of every message sent to a spectator
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data,omitempty"`
}

// ClientMessage is a command sent by a spectator
type ClientMessage struct {
	Type MessageType `json:"type"`
}

// SnapshotData is the engine state plus what the current frame looks like
type SnapshotData struct {
	animation.Snapshot
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// CueData asks the client to play a sound
type CueData struct {
	Cue  sound.Cue `json:"cue"`
	File string    `json:"file,omitempty"`
	sound.Options
}

// CueStopData asks the client to stop one cue, or every cue when All is set
type CueStopData struct {
	Cue sound.Cue `json:"cue,omitempty"`
	All bool      `json:"all,omitempty"`
}

// TifoUpdatedData tells spectators the choreography they hold was republished
type TifoUpdatedData struct {
	EventID string `json:"event_id"`
	events.TifoPublishedPayload
}

type ErrorData struct {
	Message string `json:"message"`
}

func encodeMessage(t MessageType, data any) ([]byte, error) {
	b, err := json.Marshal(ServerMessage{Type: t, Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", t, err)
	}
	return b, nil
}
