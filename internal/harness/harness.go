package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/clickcounter/internal/clicks"
	"github.com/roach88/clickcounter/internal/engine"
	"github.com/roach88/clickcounter/internal/store"
	"github.com/roach88/clickcounter/internal/testutil"
)

// instanceName is the database instance name used for every run.
const instanceName = "scenario"

// stepTimeout bounds how long one step may wait for the engine.
const stepTimeout = 5 * time.Second

// TraceEntry is the observed state after one step.
type TraceEntry struct {
	Step    int            `json:"step"`
	Kind    string         `json:"kind"`
	Count   int64          `json:"count"`
	History []clicks.Click `json:"history"`
	Error   string         `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect step matched.
	Pass bool `json:"pass"`

	// Trace holds one entry per step, in order.
	Trace []TraceEntry `json:"trace"`

	// Failures describes every expect mismatch.
	Failures []string `json:"failures,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEntry{},
		Failures: []string{},
	}
}

// AddFailure records a mismatch and marks the result as failed.
func (r *Result) AddFailure(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sends engine logs to l. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithRoot runs in dir instead of a fresh temporary directory.
// The directory is not removed afterwards.
func WithRoot(dir string) Option {
	return func(h *Harness) {
		h.root = dir
	}
}

// Harness runs one scenario. The clock and ids survive restarts so moments
// keep increasing across them.
type Harness struct {
	root   string
	home   *store.Home
	conn   *store.Conn
	repo   *clicks.Repository
	engine *engine.Engine
	runErr chan error

	clock  *testutil.SteppingClock
	ids    *testutil.SequentialIDs
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh root and open the instance with the click table
// 2. Start an engine and wait for hydration
// 3. Execute steps, tracing the state after each
// 4. Stop the engine and close the handle
//
// An error is returned only when the run itself breaks (storage cannot be
// opened, the engine stops). Expect mismatches are Result failures.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (result *Result, err error) {
	h := &Harness{
		clock:  testutil.NewSteppingClock(testutil.DefaultEpoch, time.Second),
		ids:    testutil.NewSequentialIDs(scenario.Name),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.root == "" {
		dir, err := os.MkdirTemp("", "clickcounter-scenario-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scenario root: %w", err)
		}
		defer os.RemoveAll(dir)
		h.root = dir
	}

	h.home, err = store.StartInstance(h.root)
	if err != nil {
		return nil, fmt.Errorf("failed to start instance: %w", err)
	}

	if err := h.start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if stopErr := h.stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	result = NewResult()
	for i, step := range scenario.Steps {
		entry, err := h.execute(ctx, step, result, i+1)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
		result.Trace = append(result.Trace, entry)
	}

	return result, nil
}

// start opens the handle, starts an engine and waits for hydration.
func (h *Harness) start(ctx context.Context) error {
	conn, err := h.home.Open(ctx, instanceName, clicks.Schema()...)
	if err != nil {
		return fmt.Errorf("failed to open instance: %w", err)
	}
	h.conn = conn
	h.repo = clicks.NewRepository(conn)
	h.engine = engine.New(h.repo,
		engine.WithClock(h.clock),
		engine.WithRequestIDs(h.ids),
		engine.WithLogger(h.logger),
	)

	h.runErr = make(chan error, 1)
	go func(e *engine.Engine, errCh chan<- error) {
		errCh <- e.Run(context.Background())
	}(h.engine, h.runErr)

	// Reload is queued behind hydration; its reply means the engine is ready.
	if _, err := h.await(ctx, h.engine.Reload()); err != nil {
		_ = h.stop()
		return fmt.Errorf("engine did not become ready: %w", err)
	}
	return nil
}

// stop drains the engine and closes the handle.
func (h *Harness) stop() error {
	if h.engine == nil {
		return nil
	}
	h.engine.Stop()
	runErr := <-h.runErr
	closeErr := h.conn.Close()
	h.engine, h.conn, h.repo = nil, nil, nil

	if runErr != nil {
		return fmt.Errorf("engine stopped with error: %w", runErr)
	}
	return closeErr
}

func (h *Harness) await(ctx context.Context, replies <-chan engine.Reply) (engine.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	return engine.Await(ctx, replies)
}

// execute runs one step and returns its trace entry.
func (h *Harness) execute(ctx context.Context, step Step, result *Result, n int) (TraceEntry, error) {
	entry := TraceEntry{Step: n, Kind: step.Kind()}

	switch entry.Kind {
	case KindTap:
		reply, err := h.await(ctx, h.engine.Tap(step.Tap.X, step.Tap.Y))
		if err := fatal(err); err != nil {
			return entry, err
		}
		if err != nil {
			entry.Error = err.Error()
		}
		entry.Count, entry.History = reply.Snapshot.Count, reply.Snapshot.History

	case KindReset:
		reply, err := h.await(ctx, h.engine.Reset())
		if err := fatal(err); err != nil {
			return entry, err
		}
		if err != nil {
			entry.Error = err.Error()
		}
		entry.Count, entry.History = reply.Snapshot.Count, reply.Snapshot.History

	case KindRestart:
		if err := h.stop(); err != nil {
			return entry, err
		}
		if err := h.start(ctx); err != nil {
			return entry, err
		}
		s := h.engine.Snapshot()
		entry.Count, entry.History = s.Count, s.History

	case KindExpect:
		s := h.engine.Snapshot()
		entry.Count, entry.History = s.Count, s.History
		if err := h.check(ctx, step.Expect, s, result, n); err != nil {
			return entry, err
		}

	default:
		return entry, fmt.Errorf("step has no action")
	}

	return entry, nil
}

// fatal returns err when it means the run cannot continue.
// Statement failures are part of the trace; a stopped engine or an expired
// step is not.
func fatal(err error) error {
	if err == nil || store.IsExecutionError(err) {
		return nil
	}
	return err
}

// check compares an expect step against the mirror and the persisted rows.
func (h *Harness) check(ctx context.Context, want *Expect, s engine.Snapshot, result *Result, n int) error {
	persisted, err := h.repo.Hydrate(ctx)
	if err != nil {
		return fmt.Errorf("read persisted clicks: %w", err)
	}

	if want.Count != nil {
		if s.Count != *want.Count {
			result.AddFailure("step %d: count = %d, want %d", n, s.Count, *want.Count)
		}
		if int64(len(persisted)) != *want.Count {
			result.AddFailure("step %d: persisted rows = %d, want %d", n, len(persisted), *want.Count)
		}
	}

	if want.History != nil {
		expected := *want.History
		if got := points(s.History); !equalPoints(got, expected) {
			result.AddFailure("step %d: history = %v, want %v", n, got, expected)
		}
		if got := points(persisted); !equalPoints(got, expected) {
			result.AddFailure("step %d: persisted history = %v, want %v", n, got, expected)
		}
	}

	return nil
}

func points(cs []clicks.Click) []Point {
	out := make([]Point, len(cs))
	for i, c := range cs {
		out[i] = Point{X: c.X, Y: c.Y}
	}
	return out
}

func equalPoints(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
