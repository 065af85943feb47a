package animation

import (
	"fmt"
	"time"
)

// Lifecycle is the engine phase.
type Lifecycle int

const (
	Idle Lifecycle = iota
	CountingDown
	Playing
	Finished
)

func (l Lifecycle) String() string {
	switch l {
	case Idle:
		return "idle"
	case CountingDown:
		return "counting_down"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}

func (l Lifecycle) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Snapshot is the read-only state published to presenters.
type Snapshot struct {
	Lifecycle                Lifecycle `json:"lifecycle"`
	CurrentFrameIndex        int       `json:"current_frame_index"`
	RemainingMillisInFrame   int64     `json:"remaining_ms_in_frame"`
	CountdownRemainingMillis int64     `json:"countdown_remaining_ms"`
	ClockOffsetMillis        int64     `json:"clock_offset_ms"`
	Offline                  bool      `json:"offline"`
	ShowCompletion           bool      `json:"show_completion"`
}

// ceilMillis rounds d up to whole milliseconds.
func ceilMillis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}

// ceilSeconds rounds d up to whole seconds; used to throttle publishing.
func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
