package animation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/sound"
)

const (
	DefaultPollInterval     = 10 * time.Millisecond
	DefaultCompletionWindow = 3 * time.Second

	subscriberBuffer = 16
)

var (
	// ErrBusy is returned when the model is replaced outside Idle.
	ErrBusy = errors.New("engine is not idle")
	// ErrNoModel is returned by Load for a nil model.
	ErrNoModel = errors.New("no choreography model")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine closed")
)

// TimeSource supplies the corrected wall clock.
type TimeSource interface {
	Now() time.Time
	Offset() time.Duration
	Offline() bool
}

// Config tunes an engine.
type Config struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	CompletionWindow time.Duration `yaml:"completion_window"`
	StartGateSecond  int           `yaml:"start_gate_second"`
	Slideshow        bool          `yaml:"slideshow"`
}

func DefaultConfig() Config {
	return Config{
		PollInterval:     DefaultPollInterval,
		CompletionWindow: DefaultCompletionWindow,
		StartGateSecond:  DefaultStartGateSecond,
	}
}

// session is one play from Start until the engine is Idle again.
type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine drives one choreography through countdown, playback and finish.
// All state changes happen under mu; sound calls and publishing happen
// after it is released.
type Engine struct {
	clock  clockwork.Clock
	time   TimeSource
	player sound.Player
	config Config

	mu             sync.Mutex
	model          *choreography.Model
	frameEnds      []time.Duration
	lifecycle      Lifecycle
	index          int
	remaining      time.Duration
	countdown      time.Duration
	countdownLeft  time.Duration
	phaseStart     time.Time
	showCompletion bool
	session        *session
	closed         bool

	subsMu     sync.Mutex
	subs       map[chan Snapshot]struct{}
	subsClosed bool

	// stepHook runs after every poll and once the completion timer is armed.
	stepHook func()
}

// NewEngine creates an idle engine. Zero config fields take their defaults.
func NewEngine(clock clockwork.Clock, ts TimeSource, player sound.Player, config Config) *Engine {
	defaults := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.CompletionWindow <= 0 {
		config.CompletionWindow = defaults.CompletionWindow
	}
	if config.StartGateSecond <= 0 {
		config.StartGateSecond = defaults.StartGateSecond
	}

	return &Engine{
		clock:  clock,
		time:   ts,
		player: player,
		config: config,
		subs:   make(map[chan Snapshot]struct{}),
	}
}

// Load installs the model used by the next Start.
func (e *Engine) Load(model *choreography.Model) error {
	if model == nil {
		return ErrNoModel
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.lifecycle != Idle {
		return ErrBusy
	}

	ends := make([]time.Duration, model.FrameCount())
	var acc time.Duration
	for i := range ends {
		f, _ := model.Frame(i)
		acc += f.Duration
		ends[i] = acc
	}
	e.model = model
	e.frameEnds = ends
	return nil
}

// Model returns the loaded model, nil if none.
func (e *Engine) Model() *choreography.Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

// SetSlideshow switches slideshow mode for subsequent plays.
func (e *Engine) SetSlideshow(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.Slideshow = on
}

// CanStart reports whether a start control should be enabled: the engine
// is idle, a model is loaded and the local clock is in the second half of
// the minute.
func (e *Engine) CanStart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed &&
		e.lifecycle == Idle &&
		e.model != nil &&
		StartGateOpen(e.clock.Now(), e.config.StartGateSecond)
}

// Start begins a play. It is a no-op unless the engine is Idle with a model
// loaded, and reports whether a play was started.
func (e *Engine) Start() bool {
	e.mu.Lock()
	if e.closed || e.lifecycle != Idle || e.model == nil {
		e.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{cancel: cancel, done: make(chan struct{})}
	e.session = s

	var fx effects
	now := e.clock.Now()
	switch target := CountdownTarget(e.time.Now()); {
	case e.model.FrameCount() == 0:
		e.finishLocked(&fx)
	case target == 0:
		e.beginPlayingLocked(now, &fx)
	default:
		e.lifecycle = CountingDown
		e.countdown = target
		e.countdownLeft = target
		e.phaseStart = now
		fx.play(sound.CueCountdown, sound.Options{Volume: sound.VolumeFull})
	}
	finished := e.lifecycle == Finished
	snap := e.snapshotLocked()
	e.mu.Unlock()

	log.Debug().
		Str("lifecycle", snap.Lifecycle.String()).
		Int64("countdown_ms", snap.CountdownRemainingMillis).
		Msg("animation started")

	e.apply(fx)
	e.publish(snap)
	go e.drive(ctx, s, finished)
	return true
}

// Stop cancels the current play and returns to Idle without the finish cue.
// It is safe to call at any time and returns once the play's timers are gone.
func (e *Engine) Stop() {
	e.teardown(false)
}

// Close stops the engine for good and closes every subscription. Start and
// Subscribe observe the closed engine before the play is torn down.
func (e *Engine) Close() {
	e.teardown(true)

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.subsClosed = true
	for ch := range e.subs {
		delete(e.subs, ch)
		close(ch)
	}
}

func (e *Engine) teardown(closing bool) {
	e.mu.Lock()
	if closing {
		e.closed = true
	}
	s := e.session
	wasIdle := e.lifecycle == Idle
	e.session = nil
	e.resetLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if s != nil {
		s.cancel()
		<-s.done
	}
	if wasIdle {
		return
	}

	e.player.StopAll()
	e.publish(snap)
	log.Debug().Bool("closing", closing).Msg("animation stopped")
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe returns a channel of state changes and a cancel func. Updates are
// dropped for subscribers that fall behind; Snapshot always has the latest.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	e.subsMu.Lock()
	if e.subsClosed {
		e.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subsMu.Lock()
			defer e.subsMu.Unlock()
			if _, ok := e.subs[ch]; ok {
				delete(e.subs, ch)
				close(ch)
			}
		})
	}
}

// drive polls the play until it finishes, then holds the completion message
// for the configured window before returning to Idle.
func (e *Engine) drive(ctx context.Context, s *session, finished bool) {
	defer close(s.done)

	if !finished && !e.poll(ctx, s) {
		return
	}

	timer := e.clock.NewTimer(e.config.CompletionWindow)
	if e.stepHook != nil {
		e.stepHook()
	}
	select {
	case <-ctx.Done():
		stopAndDrainTimer(timer)
	case <-timer.Chan():
		e.completeFinish(s)
	}
}

// poll steps the countdown and playback phases on a ticker. It returns true
// once the play reached Finished, false when the session was cancelled.
func (e *Engine) poll(ctx context.Context, s *session) bool {
	ticker := e.clock.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.Chan():
			lifecycle, ok := e.step(s)
			if e.stepHook != nil {
				e.stepHook()
			}
			if !ok {
				return false
			}
			if lifecycle == Finished {
				return true
			}
		}
	}
}

// step advances the current phase from the clock. ok is false when s is no
// longer the active session.
func (e *Engine) step(s *session) (Lifecycle, bool) {
	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return Idle, false
	}

	var fx effects
	changed := false
	now := e.clock.Now()

	switch e.lifecycle {
	case CountingDown:
		// now and phaseStart carry monotonic readings, so wall clock jumps
		// do not affect the countdown.
		left := e.countdown - now.Sub(e.phaseStart)
		if left <= 0 {
			e.countdownLeft = 0
			e.beginPlayingLocked(now, &fx)
			changed = true
		} else {
			changed = ceilSeconds(left) != ceilSeconds(e.countdownLeft)
			e.countdownLeft = left
		}
	case Playing:
		changed = e.advanceLocked(now, &fx)
	}

	lifecycle := e.lifecycle
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.apply(fx)
	if changed {
		e.publish(snap)
	}
	return lifecycle, true
}

func (e *Engine) beginPlayingLocked(now time.Time, fx *effects) {
	e.lifecycle = Playing
	e.index = 0
	e.phaseStart = now
	e.remaining = e.frameEnds[0]

	if track := e.model.BackgroundTrack(); e.config.Slideshow && track != "" {
		fx.play(sound.CueBackground, sound.Options{Volume: sound.VolumeFull, Loop: true, Source: track})
	}
	log.Debug().Int("frames", len(e.frameEnds)).Msg("playback started")
}

// advanceLocked locates the frame for the elapsed play time and reports
// whether the published state changed.
func (e *Engine) advanceLocked(now time.Time, fx *effects) bool {
	elapsed := now.Sub(e.phaseStart)
	floored := elapsed.Truncate(e.model.Resolution())

	if floored >= e.model.TotalDuration() {
		e.finishLocked(fx)
		return true
	}

	i := sort.Search(len(e.frameEnds), func(i int) bool { return e.frameEnds[i] > floored })
	changed := false
	// A late tick may cross several boundaries; each crossing gets its cue.
	for e.index < i {
		e.index++
		changed = true

		cur, _ := e.model.Frame(e.index)
		prev, _ := e.model.Frame(e.index - 1)
		switch {
		case cur.ColorIndex != prev.ColorIndex:
			fx.play(sound.CueBlockTransition, sound.Options{Volume: sound.ClampVolume(1.2)})
		case !e.config.Slideshow:
			fx.play(sound.CueFrameAdvance, sound.Options{Volume: sound.VolumeFrameAdvance})
		}
	}

	remaining := max(e.frameEnds[e.index]-elapsed, 0)
	if ceilSeconds(remaining) != ceilSeconds(e.remaining) {
		changed = true
	}
	e.remaining = remaining
	return changed
}

func (e *Engine) finishLocked(fx *effects) {
	e.lifecycle = Finished
	e.index = 0
	e.remaining = 0
	e.countdownLeft = 0
	e.showCompletion = true

	fx.stopAll()
	fx.play(sound.CueFinish, sound.Options{Volume: sound.VolumeFull})
	log.Debug().Msg("playback finished")
}

func (e *Engine) completeFinish(s *session) {
	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return
	}
	e.session = nil
	e.resetLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
}

func (e *Engine) resetLocked() {
	e.lifecycle = Idle
	e.index = 0
	e.remaining = 0
	e.countdown = 0
	e.countdownLeft = 0
	e.showCompletion = false
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Lifecycle:      e.lifecycle,
		ShowCompletion: e.showCompletion,
	}
	switch e.lifecycle {
	case CountingDown:
		snap.CountdownRemainingMillis = ceilMillis(e.countdownLeft)
	case Playing:
		snap.CurrentFrameIndex = e.index
		snap.RemainingMillisInFrame = ceilMillis(e.remaining)
	}
	if e.time != nil {
		snap.ClockOffsetMillis = e.time.Offset().Milliseconds()
		snap.Offline = e.time.Offline()
	}
	return snap
}

func (e *Engine) publish(snap Snapshot) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	for ch := range e.subs {
		select {
		case ch <- snap:
		default:
			log.Debug().Str("lifecycle", snap.Lifecycle.String()).Msg("subscriber behind, dropping snapshot")
		}
	}
}
