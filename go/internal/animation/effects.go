package animation

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/sound"
)

// effect is a sound side effect collected under the engine lock and
// applied after it is released.
type effect struct {
	stopAll bool
	cue     sound.Cue
	opts    sound.Options
}

type effects []effect

func (fx *effects) play(cue sound.Cue, opts sound.Options) {
	*fx = append(*fx, effect{cue: cue, opts: opts})
}

func (fx *effects) stopAll() {
	*fx = append(*fx, effect{stopAll: true})
}

// apply runs the effects in order. Playback errors never reach the state machine.
func (e *Engine) apply(fx effects) {
	for _, f := range fx {
		if f.stopAll {
			e.player.StopAll()
			continue
		}
		if err := e.player.Play(context.Background(), f.cue, f.opts); err != nil {
			log.Warn().Err(err).Str("cue", string(f.cue)).Msg("cue playback failed")
		}
	}
}
