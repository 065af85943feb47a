package sound

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// BellPlayer rings the terminal bell for audible cues. Quiet frame-advance
// cues and looped tracks are skipped.
type BellPlayer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewBellPlayer(out io.Writer) *BellPlayer {
	return &BellPlayer{out: out}
}

func (p *BellPlayer) Play(ctx context.Context, cue Cue, opts Options) error {
	if opts.Loop || opts.Volume < 0.5 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.out, "\a"); err != nil {
		return fmt.Errorf("ring bell for %s: %w", cue, err)
	}
	return nil
}

func (p *BellPlayer) Stop(Cue) {}

func (p *BellPlayer) StopAll() {}
