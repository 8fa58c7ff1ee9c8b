package transcript

import (
	"context"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	apierrors "github.com/diogo/geminitutor/internal/errors"
)

// DefaultIdleTimeout ends a turn when no fragment arrives for this long
const DefaultIdleTimeout = 60 * time.Second

// Event is a stream notification for one turn of one engine
type Event interface {
	// Target returns the engine and turn the event belongs to.
	Target() (session, turn string)
}

// Fragment carries a piece of the reply
type Fragment struct {
	Session string
	Turn    string
	Text    string
}

// Target implements Event
func (f Fragment) Target() (string, string) { return f.Session, f.Turn }

// Done ends a turn. Err is nil on success.
type Done struct {
	Session string
	Turn    string
	Err     error
}

// Target implements Event
func (d Done) Target() (string, string) { return d.Session, d.Turn }

// SendFunc starts the request for one turn. The sequence must stop
// soon after ctx is cancelled.
type SendFunc func(ctx context.Context) iter.Seq2[string, error]

// PumpConfig configures a Pump
type PumpConfig struct {
	Session string
	Turn    string
	// IdleTimeout bounds the wait for each fragment. Zero disables it.
	IdleTimeout time.Duration
	Buffer      int
	Logger      *slog.Logger
}

// Pump forwards one turn's fragments as ordered events.
// Nothing is forwarded once the parent context is cancelled.
type Pump struct {
	cfg     PumpConfig
	events  chan Event
	parent  context.Context
	cancel  context.CancelFunc
	stopped atomic.Bool
}

// StartPump runs send on its own goroutine and returns immediately
func StartPump(parent context.Context, cfg PumpConfig, send SendFunc) *Pump {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	turnCtx, cancel := context.WithCancel(parent)
	p := &Pump{
		cfg:    cfg,
		events: make(chan Event, cfg.Buffer),
		parent: parent,
		cancel: cancel,
	}

	go p.run(turnCtx, send)
	return p
}

// Events is closed once the turn is over
func (p *Pump) Events() <-chan Event {
	return p.events
}

// Stop abandons the turn without emitting Done
func (p *Pump) Stop() {
	p.stopped.Store(true)
	p.cancel()
}

func (p *Pump) emit(ev Event) bool {
	select {
	case p.events <- ev:
		return true
	case <-p.parent.Done():
		return false
	}
}

func (p *Pump) run(ctx context.Context, send SendFunc) {
	defer close(p.events)
	defer p.cancel()

	var timedOut atomic.Bool
	var timer *time.Timer
	if p.cfg.IdleTimeout > 0 {
		timer = time.AfterFunc(p.cfg.IdleTimeout, func() {
			timedOut.Store(true)
			p.cancel()
		})
	}

	started := time.Now()
	fragments := 0
	completed := true
	var streamErr error

	for text, err := range send(ctx) {
		if err != nil {
			streamErr = err
			completed = false
			break
		}
		if text == "" {
			continue
		}
		if ctx.Err() != nil {
			completed = false
			break
		}
		fragments++
		if !p.emit(Fragment{Session: p.cfg.Session, Turn: p.cfg.Turn, Text: text}) {
			completed = false
			break
		}
		if timer != nil {
			timer.Reset(p.cfg.IdleTimeout)
		}
	}

	if timer != nil {
		timer.Stop()
	}

	if p.parent.Err() != nil || p.stopped.Load() {
		p.cfg.Logger.Debug("pump abandoned", "turn", p.cfg.Turn, "fragments", fragments)
		return
	}

	if !completed && timedOut.Load() {
		streamErr = apierrors.NewTimeoutError("no response from the tutor for " + p.cfg.IdleTimeout.String())
	}

	p.cfg.Logger.Debug("pump finished", "turn", p.cfg.Turn, "fragments", fragments,
		"elapsed", time.Since(started), "error", streamErr)
	p.emit(Done{Session: p.cfg.Session, Turn: p.cfg.Turn, Err: streamErr})
}

// Apply routes a pump event to the engine. Events for another engine or a
// torn-down engine are dropped and Apply returns false.
func (e *Engine) Apply(ev Event) bool {
	session, _ := ev.Target()
	if session != e.id || !e.Alive() {
		return false
	}

	switch ev := ev.(type) {
	case Fragment:
		e.Ingest(ev.Turn, ev.Text)
	case Done:
		e.Finish(ev.Turn, ev.Err)
	default:
		return false
	}
	return true
}
