package choreography

import (
	"errors"
	"iter"
	"time"
)

// PlaceholderColor is rendered for color indexes that have no palette entry.
const PlaceholderColor = "#333"

var (
	// ErrEmptyIconSet is returned by IconFor when the model carries no icons.
	ErrEmptyIconSet = errors.New("empty icon set")
	// ErrLengthMismatch is returned by Load when colors and durations differ in length.
	ErrLengthMismatch = errors.New("colors and durations length mismatch")
	// ErrInvalidDuration is returned by Load for a non-positive frame duration.
	ErrInvalidDuration = errors.New("frame duration must be positive")
)

// Frame is one timed unit of a choreography.
type Frame struct {
	ColorIndex int
	Duration   time.Duration
}

// Block is a maximal run of consecutive frames sharing a color index.
// EndFrame is inclusive.
type Block struct {
	ColorIndex int
	StartFrame int
	EndFrame   int
}

// Model is an immutable choreography for one seat. It is safe for
// concurrent use once returned by Load.
type Model struct {
	frames          []Frame
	palette         []string
	icons           []string
	places          int
	backgroundTrack string
	resolution      time.Duration
	total           time.Duration
}

func (m *Model) FrameCount() int {
	return len(m.frames)
}

// Frame returns the frame at position i.
func (m *Model) Frame(i int) (Frame, bool) {
	if i < 0 || i >= len(m.frames) {
		return Frame{}, false
	}
	return m.frames[i], true
}

// PaletteColor maps a 1-based color index to its display color.
func (m *Model) PaletteColor(colorIndex int) string {
	if colorIndex < 1 || colorIndex > len(m.palette) {
		return PlaceholderColor
	}
	return m.palette[colorIndex-1]
}

// IconFor maps a color index to an icon with zero-based wrap-around, so
// index 4 over three icons yields icons[1].
func (m *Model) IconFor(colorIndex int) (string, error) {
	n := len(m.icons)
	if n == 0 {
		return "", ErrEmptyIconSet
	}
	return m.icons[((colorIndex%n)+n)%n], nil
}

// Blocks yields the color blocks in display order. Each call rescans the frames.
func (m *Model) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		if len(m.frames) == 0 {
			return
		}
		current := Block{ColorIndex: m.frames[0].ColorIndex}
		for i := 1; i < len(m.frames); i++ {
			if m.frames[i].ColorIndex == current.ColorIndex {
				current.EndFrame = i
				continue
			}
			if !yield(current) {
				return
			}
			current = Block{ColorIndex: m.frames[i].ColorIndex, StartFrame: i, EndFrame: i}
		}
		yield(current)
	}
}

// TotalDuration is the sum of all frame durations.
func (m *Model) TotalDuration() time.Duration {
	return m.total
}

// Resolution is the unit frame durations were expressed in. Elapsed play
// time is floored to this unit when locating the current frame.
func (m *Model) Resolution() time.Duration {
	return m.resolution
}

// BackgroundTrack is the looped slideshow audio, empty when there is none.
func (m *Model) BackgroundTrack() string {
	return m.backgroundTrack
}

// Places is the seat count of the tifo.
func (m *Model) Places() int {
	return m.places
}

// Palette returns a copy of the palette.
func (m *Model) Palette() []string {
	return append([]string(nil), m.palette...)
}
