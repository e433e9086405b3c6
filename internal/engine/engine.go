package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/clickcounter/internal/clicks"
)

// Repository is the persistence the engine drives.
// Implemented by *clicks.Repository.
type Repository interface {
	Hydrate(ctx context.Context) ([]clicks.Click, error)
	Insert(ctx context.Context, c clicks.Click) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Metrics receives engine events. Implemented by *metrics.Recorder.
type Metrics interface {
	TapRecorded()
	TapFailed()
	ResetDone()
	ResetFailed()
	HistorySize(n int)
	ObserveStatement(kind string, d time.Duration)
}

// Observer is called from the Run goroutine after every published change.
// It must not block.
type Observer func(Snapshot)

// Engine is the single-writer data-access loop.
//
// Thread-safety model:
//   - Tap(), Reset(), Reload(), Snapshot(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - The history and all statements are touched only inside Run
type Engine struct {
	repo     Repository
	history  *clicks.History
	queue    *requestQueue
	clock    *monotonicClock
	ids      RequestIDGenerator
	metrics  Metrics
	observer Observer
	logger   *slog.Logger

	snapshot atomic.Pointer[Snapshot]
	version  uint64 // written only by Run
	started  atomic.Bool
	done     chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of tap moments. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = newMonotonicClock(c)
	}
}

// WithRequestIDs sets the request id generator. Default: UUIDv7Generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithMetrics sets the metrics sink. Default: discard.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithObserver registers a callback for published snapshots.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over repo. Call Run to start it.
func New(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:    repo,
		history: clicks.NewHistory(),
		queue:   newRequestQueue(),
		clock:   newMonotonicClock(SystemClock{}),
		ids:     UUIDv7Generator{},
		metrics: nopMetrics{},
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Tap submits a click at device coordinates (x, y).
// Thread-safe and non-blocking; the reply arrives on the returned channel.
func (e *Engine) Tap(x, y float64) <-chan Reply {
	return e.submit(request{kind: RequestTap, x: x, y: y})
}

// Reset submits deletion of every click.
func (e *Engine) Reset() <-chan Reply {
	return e.submit(request{kind: RequestReset})
}

// Reload submits a re-read of the history from storage.
func (e *Engine) Reload() <-chan Reply {
	return e.submit(request{kind: RequestReload})
}

// Snapshot returns the latest published state.
// Before hydration completes it returns the zero Snapshot (Ready == false).
func (e *Engine) Snapshot() Snapshot {
	if s := e.snapshot.Load(); s != nil {
		return *s
	}
	return Snapshot{History: []clicks.Click{}}
}

// ReadySnapshot returns the latest published state, or ErrNotReady when
// hydration has not completed.
func (e *Engine) ReadySnapshot() (Snapshot, error) {
	s := e.Snapshot()
	if !s.Ready {
		return s, ErrNotReady
	}
	return s, nil
}

// QueueLen returns the number of requests waiting to be processed.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Done is closed when Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Stop closes the request queue. Requests already queued are still
// processed; Run returns once they are done.
func (e *Engine) Stop() {
	e.queue.Close()
}

// submit stamps a request with an id and enqueues it.
// On a stopped engine the reply is ErrStopped, delivered immediately.
func (e *Engine) submit(r request) <-chan Reply {
	r.id = e.ids.Generate()
	r.reply = make(chan Reply, 1)

	if !e.queue.Enqueue(r) {
		r.reply <- Reply{RequestID: r.id, Kind: r.kind, Snapshot: e.Snapshot(), Err: ErrStopped}
	}

	return r.reply
}

// Run hydrates the history and then processes requests until Stop is
// called (after draining the queue) or ctx is cancelled.
//
// A hydration failure is fatal: Run returns an error wrapping ErrHydration
// and every request gets ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.done)
	defer e.failPending()

	e.logger.Info("engine starting")

	if err := e.hydrate(ctx); err != nil {
		e.logger.Error("startup hydration failed", "error", err)
		e.queue.Close()
		return fmt.Errorf("%w: %w", ErrHydration, err)
	}

	for {
		// Try non-blocking dequeue first
		r, ok := e.queue.TryDequeue()
		if ok {
			e.process(ctx, r)
			continue
		}

		// No request ready - wait for signal or context cancellation
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed,
			// so this case keeps firing until the queue drains.
			if e.queue.Drained() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// failPending replies ErrStopped to requests left in a closed queue.
func (e *Engine) failPending() {
	e.queue.Close()
	for {
		r, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.respond(r, Reply{Err: ErrStopped})
	}
}

// process routes a request to its handler.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) process(ctx context.Context, r request) {
	e.logger.Debug("processing request", "request_id", r.id, "kind", r.kind.String())

	switch r.kind {
	case RequestTap:
		e.processTap(ctx, r)
	case RequestReset:
		e.processReset(ctx, r)
	case RequestReload:
		if err := e.hydrate(ctx); err != nil {
			e.logger.Error("reload failed", "request_id", r.id, "error", err)
			e.respond(r, Reply{Err: err})
			return
		}
		e.respond(r, Reply{})
	default:
		e.respond(r, Reply{Err: fmt.Errorf("unknown request kind: %d", r.kind)})
	}
}

// processTap persists a click, then appends it to the history.
// A failed insert leaves the history unchanged; the tap is dropped.
func (e *Engine) processTap(ctx context.Context, r request) {
	c := clicks.NewClick(r.x, r.y, e.clock.Now())

	start := time.Now()
	err := e.repo.Insert(ctx, c)
	e.metrics.ObserveStatement("insert", time.Since(start))

	if err != nil {
		e.metrics.TapFailed()
		e.logger.Error("an error accessing database",
			"request_id", r.id,
			"x", c.X,
			"y", c.Y,
			"error", err,
		)
		e.respond(r, Reply{Err: err})
		return
	}

	e.history.Append(c)
	e.metrics.TapRecorded()
	e.publish()

	e.logger.Debug("click recorded", "request_id", r.id, "x", c.X, "y", c.Y, "count", e.history.Len())
	e.respond(r, Reply{Click: &c})
}

// processReset deletes every click, then clears the history.
// A failed delete leaves the history unchanged so it keeps matching storage.
func (e *Engine) processReset(ctx context.Context, r request) {
	start := time.Now()
	removed, err := e.repo.DeleteAll(ctx)
	e.metrics.ObserveStatement("delete", time.Since(start))

	if err != nil {
		e.metrics.ResetFailed()
		e.logger.Error("reset failed", "request_id", r.id, "error", err)
		e.respond(r, Reply{Err: err})
		return
	}

	e.history.Clear()
	e.metrics.ResetDone()
	e.publish()

	e.logger.Info("history reset", "request_id", r.id, "removed", removed)
	e.respond(r, Reply{})
}

// hydrate replaces the history with the persisted rows and publishes.
func (e *Engine) hydrate(ctx context.Context) error {
	start := time.Now()
	persisted, err := e.repo.Hydrate(ctx)
	e.metrics.ObserveStatement("hydrate", time.Since(start))
	if err != nil {
		return err
	}

	e.history.Hydrate(persisted)
	if n := len(persisted); n > 0 {
		e.clock.Observe(persisted[n-1].Moment)
	}
	e.publish()

	e.logger.Info("history hydrated", "count", len(persisted))
	return nil
}

// publish stores a new snapshot and notifies the observer.
func (e *Engine) publish() {
	e.version++
	s := Snapshot{
		Ready:   true,
		Count:   int64(e.history.Len()),
		History: e.history.Snapshot(),
		Version: e.version,
	}
	e.snapshot.Store(&s)
	e.metrics.HistorySize(e.history.Len())

	if e.observer != nil {
		e.observer(s)
	}
}

// respond completes a reply with the request identity and current snapshot.
func (e *Engine) respond(r request, reply Reply) {
	reply.RequestID = r.id
	reply.Kind = r.kind
	reply.Snapshot = e.Snapshot()
	r.reply <- reply
}

// Await waits for a reply or for ctx to end.
// The reply's Err is returned as the error.
func Await(ctx context.Context, replies <-chan Reply) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case r := <-replies:
		return r, r.Err
	}
}

type nopMetrics struct{}

func (nopMetrics) TapRecorded()                          {}
func (nopMetrics) TapFailed()                            {}
func (nopMetrics) ResetDone()                            {}
func (nopMetrics) ResetFailed()                          {}
func (nopMetrics) HistorySize(int)                       {}
func (nopMetrics) ObserveStatement(string, time.Duration) {}
