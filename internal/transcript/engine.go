// Package transcript holds the streaming message state machine behind a lesson.
//
// An Engine is driven from a single event loop. Network fragments, reveal
// ticks and user actions all arrive as calls on that loop, so the engine
// needs no locks. After Close every mutating call is a no-op, which lets
// late events from a torn-down screen fall on the floor.
package transcript

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diogo/geminitutor/internal/models"
)

// Fixed texts shown in place of a failed reply
const (
	ApologyText     = "Sorry, I encountered an error trying to respond. Please try sending your message again."
	OpenFailureText = "Sorry, I couldn't start our session. Please check your connection or try refreshing."
)

// DefaultRevealInterval is the delay between two revealed characters
const DefaultRevealInterval = 30 * time.Millisecond

// Options configures an Engine
type Options struct {
	// Context is the liveness token. Cancelling it tears the engine down.
	Context context.Context
	Now     func() time.Time
	NewID   func() string
	Logger  *slog.Logger
}

type entry struct {
	id      string
	role    models.Role
	created time.Time

	// user and notice messages
	text string

	// assistant messages
	target    []rune
	shown     int
	receiving bool
	revealing bool
	// opening marks the turn that starts the lesson; its failure is a
	// session-open failure
	opening bool
}

func (en *entry) snapshot() models.Message {
	m := models.Message{
		ID:        en.id,
		Role:      en.role,
		CreatedAt: en.created,
	}
	if en.role != models.RoleAssistant {
		m.Displayed = en.text
		m.Target = en.text
		return m
	}
	m.Displayed = string(en.target[:en.shown])
	m.Target = string(en.target)
	m.Receiving = en.receiving
	m.Revealing = en.revealing
	return m
}

func (en *entry) inFlight() bool {
	return en.receiving || en.revealing
}

// Engine is the transcript of one chat session
type Engine struct {
	ctx    context.Context
	cancel context.CancelFunc
	id     string
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	closed  bool
	entries []*entry
	active  *entry
	version uint64
	lastErr error
}

// New creates an engine bound to opts.Context
func New(opts Options) *Engine {
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(parent)
	e := &Engine{
		ctx:    ctx,
		cancel: cancel,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	e.id = e.newID()
	e.logger = opts.Logger.With("session", e.id)
	return e
}

// ID identifies the engine; events carrying another ID are stale
func (e *Engine) ID() string {
	return e.id
}

// Context is cancelled when the engine is closed
func (e *Engine) Context() context.Context {
	return e.ctx
}

// Alive reports whether the engine still accepts mutations
func (e *Engine) Alive() bool {
	return !e.closed && e.ctx.Err() == nil
}

// Close tears the engine down. It is safe to call more than once.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.cancel()
	e.logger.Debug("transcript closed", "messages", len(e.entries))
}

func (e *Engine) touch() {
	e.version++
}

func (e *Engine) appendEntry(en *entry) {
	e.entries = append(e.entries, en)
	e.touch()
}

// AddNotice appends a system notice and returns its ID
func (e *Engine) AddNotice(text string) string {
	if !e.Alive() {
		return ""
	}
	en := &entry{id: e.newID(), role: models.RoleSystem, created: e.now(), text: text}
	e.appendEntry(en)
	return en.id
}

// Submit appends the trimmed input as a user message and starts a turn.
// Blank input and input sent while a turn is in flight are rejected.
func (e *Engine) Submit(input string) (string, bool) {
	text := strings.TrimSpace(input)
	if text == "" || !e.Alive() || e.TurnInFlight() {
		return "", false
	}

	e.appendEntry(&entry{id: e.newID(), role: models.RoleUser, created: e.now(), text: text})
	return e.BeginTurn(), true
}

// BeginTurn appends an empty assistant message waiting for fragments.
// It returns the message ID, which also identifies the turn.
func (e *Engine) BeginTurn() string {
	if !e.Alive() || e.TurnInFlight() {
		return ""
	}

	en := &entry{
		id:        e.newID(),
		role:      models.RoleAssistant,
		created:   e.now(),
		receiving: true,
		revealing: true,
	}
	e.active = en
	e.appendEntry(en)
	e.logger.Debug("turn started", "turn", en.id)
	return en.id
}

// BeginOpeningTurn starts the turn that opens the lesson. If its stream
// fails, Finish shows OpenFailureText instead of ApologyText.
func (e *Engine) BeginOpeningTurn() string {
	id := e.BeginTurn()
	if id != "" {
		e.active.opening = true
	}
	return id
}

func (e *Engine) receivingEntry(id string) *entry {
	if e.active == nil || e.active.id != id || !e.active.receiving {
		return nil
	}
	return e.active
}

// Ingest appends a fragment to the target text of the turn's message
func (e *Engine) Ingest(id, fragment string) {
	if !e.Alive() || fragment == "" {
		return
	}
	en := e.receivingEntry(id)
	if en == nil {
		return
	}

	en.target = append(en.target, []rune(fragment)...)
	en.revealing = true
	e.touch()
}

// Finish marks the end of the turn's stream. A non-nil err replaces the
// message with ApologyText, or OpenFailureText for the opening turn, and
// records err for the error banner.
func (e *Engine) Finish(id string, err error) {
	if !e.Alive() {
		return
	}
	en := e.receivingEntry(id)
	if en == nil {
		return
	}

	en.receiving = false
	if err != nil {
		en.target = []rune(ApologyText)
		if en.opening {
			en.target = []rune(OpenFailureText)
		}
		en.shown = len(en.target)
		en.revealing = false
		e.lastErr = err
		e.logger.Warn("turn failed", "turn", id, "opening", en.opening, "error", err)
	} else {
		if en.shown == len(en.target) {
			en.revealing = false
		}
		e.logger.Debug("turn received", "turn", id, "chars", len(en.target))
	}
	e.touch()
}

// FailOpen records a session-open failure. The pending assistant message,
// if any, is replaced by OpenFailureText; otherwise one is appended.
func (e *Engine) FailOpen(err error) {
	if !e.Alive() {
		return
	}

	e.lastErr = err
	e.logger.Warn("session open failed", "error", err)

	en := e.active
	if en == nil || !en.receiving {
		en = &entry{id: e.newID(), role: models.RoleAssistant, created: e.now()}
		e.active = en
		e.entries = append(e.entries, en)
	}
	en.target = []rune(OpenFailureText)
	en.shown = len(en.target)
	en.receiving = false
	en.revealing = false
	e.touch()
}

// Tick advances every revealing message by one character.
// It reports whether any message is still revealing.
func (e *Engine) Tick() bool {
	if !e.Alive() {
		return false
	}

	changed := false
	pending := false
	for _, en := range e.entries {
		if en.role != models.RoleAssistant || !en.revealing {
			continue
		}
		if en.shown < len(en.target) {
			en.shown++
			changed = true
		}
		if en.shown == len(en.target) && !en.receiving {
			en.revealing = false
			changed = true
			continue
		}
		pending = true
	}

	if changed {
		e.touch()
	}
	return pending
}

// Revealing reports whether a reveal tick would do anything
func (e *Engine) Revealing() bool {
	for _, en := range e.entries {
		if en.role == models.RoleAssistant && en.revealing {
			return true
		}
	}
	return false
}

// TurnInFlight reports whether the current reply is still streaming or animating
func (e *Engine) TurnInFlight() bool {
	return e.active != nil && e.active.inFlight()
}

// ActiveTurn returns the ID of the turn in flight, or ""
func (e *Engine) ActiveTurn() string {
	if !e.TurnInFlight() {
		return ""
	}
	return e.active.id
}

// Thinking reports whether a turn is in flight and nothing has arrived yet
func (e *Engine) Thinking() bool {
	return e.TurnInFlight() && len(e.active.target) == 0 && e.active.shown == 0
}

// Messages returns a snapshot of the transcript in creation order
func (e *Engine) Messages() []models.Message {
	out := make([]models.Message, len(e.entries))
	for i, en := range e.entries {
		out[i] = en.snapshot()
	}
	return out
}

// LastAssistantText returns the full text of the latest assistant message
func (e *Engine) LastAssistantText() string {
	for i := len(e.entries) - 1; i >= 0; i-- {
		if en := e.entries[i]; en.role == models.RoleAssistant && len(en.target) > 0 {
			return string(en.target)
		}
	}
	return ""
}

// Version increases on every observable change
func (e *Engine) Version() uint64 {
	return e.version
}

// LastError returns the error behind the current banner
func (e *Engine) LastError() error {
	return e.lastErr
}

// ClearError dismisses the error banner
func (e *Engine) ClearError() {
	if !e.Alive() || e.lastErr == nil {
		return
	}
	e.lastErr = nil
	e.touch()
}
