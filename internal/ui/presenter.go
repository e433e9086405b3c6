// Package ui renders the click counter screen.
//
// Presenter holds the display state and forwards gestures to the engine.
// View lays the state out with tview and turns mouse and key events into
// presenter calls. Presenter has no tview dependency and is tested directly.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/clickcounter/internal/engine"
)

// State is the screen state.
type State int

const (
	// StateUninitialized: hydration has not completed, nothing is rendered.
	StateUninitialized State = iota
	// StateIdle: count and list are shown and gestures are accepted.
	StateIdle
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Submitter is the part of the engine the presenter drives.
// Implemented by *engine.Engine.
type Submitter interface {
	Tap(x, y float64) <-chan engine.Reply
	Reset() <-chan engine.Reply
}

// Presenter is the click counter view-model.
//
// Thread-safety: all methods are safe for concurrent use. The change
// callback runs on whichever goroutine applied the snapshot.
type Presenter struct {
	submitter Submitter
	name      string
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	snapshot engine.Snapshot
	lastErr  error
	onChange func()
}

// NewPresenter creates a presenter for the instance called name.
func NewPresenter(s Submitter, name string, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		submitter: s,
		name:      name,
		logger:    logger,
		state:     StateUninitialized,
	}
}

// SetOnChange registers fn to be called after every applied change.
// fn must not block; the view hands it to QueueUpdateDraw on its own goroutine.
func (p *Presenter) SetOnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Observe applies a published snapshot. It is an engine.Observer.
func (p *Presenter) Observe(s engine.Snapshot) {
	p.Apply(s)
}

// Apply moves to StateIdle on the first ready snapshot and replaces the
// displayed state with any newer one. Older versions are ignored so replies
// arriving out of order cannot roll the screen back.
func (p *Presenter) Apply(s engine.Snapshot) {
	if !s.Ready {
		return
	}

	p.mu.Lock()
	if p.state == StateIdle && s.Version <= p.snapshot.Version {
		p.mu.Unlock()
		return
	}
	p.state = StateIdle
	p.snapshot = s
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// State returns the current screen state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Count returns the displayed count, or -1 before hydration.
func (p *Presenter) Count() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return -1
	}
	return p.snapshot.Count
}

// Greeting returns "clicks: N on <name>", or "" before hydration.
func (p *Presenter) Greeting() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return ""
	}
	return fmt.Sprintf("clicks: %d on %s", p.snapshot.Count, p.name)
}

// Lines returns one row per click in history order.
func (p *Presenter) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	lines := make([]string, 0, len(p.snapshot.History))
	if p.state != StateIdle {
		return lines
	}
	for _, c := range p.snapshot.History {
		lines = append(lines, c.String())
	}
	return lines
}

// LastError returns the error of the most recent failed gesture, cleared by
// the next successful one.
func (p *Presenter) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Tap forwards a tap at device coordinates. Ignored before hydration.
// Returns immediately; the reply is applied in the background.
func (p *Presenter) Tap(x, y float64) bool {
	if p.State() != StateIdle {
		return false
	}
	go p.await(p.submitter.Tap(x, y))
	return true
}

// Reset forwards a reset. Ignored before hydration.
func (p *Presenter) Reset() bool {
	if p.State() != StateIdle {
		return false
	}
	go p.await(p.submitter.Reset())
	return true
}

func (p *Presenter) await(replies <-chan engine.Reply) {
	r, err := engine.Await(context.Background(), replies)

	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug("gesture failed", "request_id", r.RequestID, "kind", r.Kind.String(), "error", err)
	}
	p.Apply(r.Snapshot)
}
