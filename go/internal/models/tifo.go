package models

import (
	"time"

	"github.com/google/uuid"
)

// DisplayMode selects how a spectator's screen renders a frame.
type DisplayMode string

const (
	DisplayModeColor DisplayMode = "color"
	DisplayModeIcon  DisplayMode = "icon"
)

// TifoSettings holds JSONB playback options for a tifo.
type TifoSettings struct {
	Slideshow   bool        `json:"slideshow,omitempty"`
	DisplayMode DisplayMode `json:"display_mode,omitempty"`
	// Unit is the duration unit, "s" (default) or "ms".
	Unit string `json:"unit,omitempty"`
}

// Tifo is a choreography header.
type Tifo struct {
	ID        uuid.UUID    `json:"id"`
	GroupID   uuid.UUID    `json:"group_id"`
	GroupName string       `json:"group_name"`
	Name      string       `json:"name"`
	Places    int          `json:"places"`
	MP3URL    *string      `json:"mp3_url,omitempty"`
	Settings  TifoSettings `json:"settings"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TifoDetail is a tifo with every part of its choreography. Collections maps
// a place number to that seat's color sequence, one entry per duration.
type TifoDetail struct {
	Tifo
	Durations   []int         `json:"durations"`
	Icons       []string      `json:"icons"`
	Palette     []string      `json:"palette"`
	Collections map[int][]int `json:"collections"`
}
