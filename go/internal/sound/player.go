package sound

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Cue names a sound trigger.
type Cue string

const (
	CueCountdown       Cue = "countdown"
	CueFrameAdvance    Cue = "frame-advance"
	CueBlockTransition Cue = "block-transition"
	CueFinish          Cue = "finish"
	// CueBackground is the looped slideshow track.
	CueBackground Cue = "remote_mp3"
)

// Default volumes per cue.
const (
	VolumeFull         = 1.0
	VolumeFrameAdvance = 0.15
)

// files maps cues to the audio assets shipped with the web client.
var files = map[Cue]string{
	CueCountdown:       "countdown.mp3",
	CueFrameAdvance:    "next.mp3",
	CueBlockTransition: "next.mp3",
	CueFinish:          "fini.mp3",
}

// File returns the asset name for a cue, empty for cues without a bundled file.
func File(c Cue) string {
	return files[c]
}

// Options configure a single Play call.
type Options struct {
	Volume float64 `json:"volume"`
	Loop   bool    `json:"loop,omitempty"`
	// Source overrides the cue's bundled file, e.g. the background track URL.
	Source string `json:"source,omitempty"`
}

// ClampVolume limits v to [0, 1].
func ClampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Player plays named cues. Play must return promptly; playback itself is
// asynchronous and callers treat every call as fire-and-forget.
type Player interface {
	Play(ctx context.Context, cue Cue, opts Options) error
	Stop(cue Cue)
	StopAll()
}

// LogPlayer is a Player that only records cues in the log. It backs headless
// runs where no audio device exists.
type LogPlayer struct{}

func NewLogPlayer() *LogPlayer {
	return &LogPlayer{}
}

func (p *LogPlayer) Play(ctx context.Context, cue Cue, opts Options) error {
	log.Debug().
		Str("cue", string(cue)).
		Float64("volume", opts.Volume).
		Bool("loop", opts.Loop).
		Msg("play cue")
	return nil
}

func (p *LogPlayer) Stop(cue Cue) {
	log.Debug().Str("cue", string(cue)).Msg("stop cue")
}

func (p *LogPlayer) StopAll() {
	log.Debug().Msg("stop all cues")
}
