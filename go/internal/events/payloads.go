package events

import "time"

// Event payload types shared between the catalog and the live gateway

// EventTypeTifoPublished is emitted after a tifo is created or replaced
const EventTypeTifoPublished = "TifoPublished"

// TifoPublishedPayload is the payload for a TifoPublished event
type TifoPublishedPayload struct {
	TifoID      string    `json:"tifo_id"`
	GroupName   string    `json:"group_name"`
	TifoName    string    `json:"tifo_name"`
	Places      int       `json:"places"`
	FrameCount  int       `json:"frame_count"`
	PublishedAt time.Time `json:"published_at"`
}
