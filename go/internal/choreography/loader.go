package choreography

import (
	"fmt"
	"time"
)

// Unit names the duration unit used by a Bundle.
type Unit string

const (
	UnitSeconds      Unit = "s"
	UnitMilliseconds Unit = "ms"
)

// Bundle is the wire shape of a seat choreography. Colors and Durations are
// parallel arrays: frame i is {Colors[i], Durations[i]}.
type Bundle struct {
	Colors    []int    `json:"colors"`
	Durations []int    `json:"durations"`
	Palette   []string `json:"palette"`
	Icons     []string `json:"icons,omitempty"`
	MP3URL    string   `json:"mp3_url,omitempty"`
	Places    int      `json:"places,omitempty"`
	Unit      Unit     `json:"unit,omitempty"`
}

// Load validates a bundle and builds an immutable Model from it.
func Load(b Bundle) (*Model, error) {
	if len(b.Colors) != len(b.Durations) {
		return nil, fmt.Errorf("%w: %d colors, %d durations", ErrLengthMismatch, len(b.Colors), len(b.Durations))
	}

	resolution, err := b.Unit.resolution()
	if err != nil {
		return nil, err
	}

	m := &Model{
		frames:          make([]Frame, len(b.Colors)),
		palette:         append([]string(nil), b.Palette...),
		icons:           append([]string(nil), b.Icons...),
		places:          b.Places,
		backgroundTrack: b.MP3URL,
		resolution:      resolution,
	}
	for i, c := range b.Colors {
		if b.Durations[i] <= 0 {
			return nil, fmt.Errorf("%w: frame %d has duration %d", ErrInvalidDuration, i, b.Durations[i])
		}
		d := time.Duration(b.Durations[i]) * resolution
		m.frames[i] = Frame{ColorIndex: c, Duration: d}
		m.total += d
	}

	return m, nil
}

func (u Unit) resolution() (time.Duration, error) {
	switch u {
	case "", UnitSeconds:
		return time.Second, nil
	case UnitMilliseconds:
		return time.Millisecond, nil
	default:
		return 0, fmt.Errorf("unknown duration unit %q", string(u))
	}
}
