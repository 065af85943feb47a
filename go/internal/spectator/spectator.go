// Package spectator runs one seat of a tifo from the terminal.
package spectator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/animation"
	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/tifos"
)

// DefaultGatePoll is how often Run checks whether a start is allowed.
const DefaultGatePoll = 250 * time.Millisecond

// SeatFetcher fetches a seat's choreography from the catalog
type SeatFetcher interface {
	GetSeatChoreography(ctx context.Context, groupName, tifoName string, place int) (*tifos.GetSeatChoreographyResponse, error)
}

// Seat identifies the spectator's place
type Seat struct {
	Group string
	Tifo  string
	Place int
}

// Choreography is a loaded seat ready to play
type Choreography struct {
	Model       *choreography.Model
	DisplayMode models.DisplayMode
	Slideshow   bool
}

// LoadSeat fetches and validates the seat's choreography. A nil fetcher
// loads the built-in demo.
func LoadSeat(ctx context.Context, fetcher SeatFetcher, seat Seat) (*Choreography, error) {
	if fetcher == nil {
		return &Choreography{Model: choreography.Demo(), DisplayMode: models.DisplayModeColor}, nil
	}

	if seat.Group == "" || seat.Tifo == "" {
		return nil, errors.New("group and tifo are required")
	}
	if seat.Place < 1 {
		return nil, fmt.Errorf("place must be at least 1, got %d", seat.Place)
	}

	res, err := fetcher.GetSeatChoreography(ctx, seat.Group, seat.Tifo, seat.Place)
	if err != nil {
		return nil, err
	}

	model, err := choreography.Load(res.Bundle)
	if err != nil {
		return nil, fmt.Errorf("invalid choreography for place %d: %w", seat.Place, err)
	}

	return &Choreography{
		Model:       model,
		DisplayMode: res.DisplayMode,
		Slideshow:   res.Slideshow,
	}, nil
}

// Engine is the part of animation.Engine the runner drives
type Engine interface {
	CanStart() bool
	Start() bool
	Stop()
	Snapshot() animation.Snapshot
	Subscribe() (<-chan animation.Snapshot, func())
}

// Runner plays one engine in the terminal
type Runner struct {
	clock    clockwork.Clock
	engine   Engine
	renderer *Renderer
	out      io.Writer
	gatePoll time.Duration
}

func NewRunner(clock clockwork.Clock, engine Engine, renderer *Renderer, out io.Writer) *Runner {
	return &Runner{
		clock:    clock,
		engine:   engine,
		renderer: renderer,
		out:      out,
		gatePoll: DefaultGatePoll,
	}
}

// Run waits for the start gate, starts a play and renders it until the engine
// is idle again. Cancelling ctx stops the play and returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	snapshots, unsubscribe := r.engine.Subscribe()
	defer unsubscribe()

	if err := r.waitForGate(ctx); err != nil {
		return err
	}

	if !r.engine.Start() {
		return errors.New("engine refused to start")
	}
	log.Info().Msg("play started")

	// Subscriptions drop updates for slow readers, so the engine state is
	// also polled in case the final Idle update never arrives.
	ticker := r.clock.NewTicker(r.gatePoll)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-ctx.Done():
			r.engine.Stop()
			fmt.Fprintln(r.out, "stopped")
			return ctx.Err()
		case <-ticker.Chan():
			if r.engine.Snapshot().Lifecycle == animation.Idle {
				return nil
			}
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if snap.Lifecycle == animation.Idle {
				return nil
			}
			if line := r.renderer.Line(snap); line != last {
				fmt.Fprintln(r.out, line)
				last = line
			}
		}
	}
}

func (r *Runner) waitForGate(ctx context.Context) error {
	if r.engine.CanStart() {
		return nil
	}
	fmt.Fprintln(r.out, "waiting for the start window...")

	ticker := r.clock.NewTicker(r.gatePoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if r.engine.CanStart() {
				return nil
			}
		}
	}
}
