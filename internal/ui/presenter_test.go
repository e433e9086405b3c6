package ui

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clickcounter/internal/clicks"
	"github.com/roach88/clickcounter/internal/engine"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeSubmitter answers each request with the next queued reply and records
// what was asked.
type fakeSubmitter struct {
	mu      sync.Mutex
	taps    [][2]float64
	resets  int
	replies []engine.Reply
}

func (f *fakeSubmitter) next() <-chan engine.Reply {
	ch := make(chan engine.Reply, 1)
	if len(f.replies) > 0 {
		ch <- f.replies[0]
		f.replies = f.replies[1:]
	}
	return ch
}

func (f *fakeSubmitter) Tap(x, y float64) <-chan engine.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taps = append(f.taps, [2]float64{x, y})
	return f.next()
}

func (f *fakeSubmitter) Reset() <-chan engine.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.next()
}

func (f *fakeSubmitter) tapCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.taps)
}

func snapshot(version uint64, coords ...int) engine.Snapshot {
	s := engine.Snapshot{Ready: true, Version: version, History: []clicks.Click{}}
	for i := 0; i+1 < len(coords); i += 2 {
		s.History = append(s.History, clicks.Click{
			X:      coords[i],
			Y:      coords[i+1],
			Moment: epoch.Add(time.Duration(i/2) * time.Second),
		})
	}
	s.Count = int64(len(s.History))
	return s
}

// changes returns a channel fed by the presenter's change callback.
func changes(p *Presenter) <-chan struct{} {
	ch := make(chan struct{}, 16)
	p.SetOnChange(func() { ch <- struct{}{} })
	return ch
}

func waitChange(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("presenter did not change")
	}
}

func TestPresenter_Uninitialized(t *testing.T) {
	f := &fakeSubmitter{}
	p := NewPresenter(f, "uitest", nil)

	assert.Equal(t, StateUninitialized, p.State())
	assert.Equal(t, "", p.Greeting())
	assert.Empty(t, p.Lines())
	assert.Equal(t, int64(-1), p.Count())

	assert.False(t, p.Tap(1, 1), "taps before hydration are ignored")
	assert.False(t, p.Reset())
	assert.Equal(t, 0, f.tapCount())
}

func TestPresenter_NotReadySnapshotIgnored(t *testing.T) {
	p := NewPresenter(&fakeSubmitter{}, "uitest", nil)

	p.Apply(engine.Snapshot{})

	assert.Equal(t, StateUninitialized, p.State())
}

func TestPresenter_ReadyShowsGreetingAndLines(t *testing.T) {
	p := NewPresenter(&fakeSubmitter{}, "uitest", nil)

	p.Observe(snapshot(1, 5, 5, 10, 10))

	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, "clicks: 2 on uitest", p.Greeting())
	assert.Equal(t, []string{
		"x=5, y=5, moment=2024-01-01T00:00:00Z",
		"x=10, y=10, moment=2024-01-01T00:00:01Z",
	}, p.Lines())
}

func TestPresenter_EmptyHistory(t *testing.T) {
	p := NewPresenter(&fakeSubmitter{}, "weaver", nil)

	p.Apply(snapshot(1))

	assert.Equal(t, "clicks: 0 on weaver", p.Greeting())
	assert.Empty(t, p.Lines())
}

func TestPresenter_IgnoresOlderVersions(t *testing.T) {
	p := NewPresenter(&fakeSubmitter{}, "uitest", nil)

	p.Apply(snapshot(3, 1, 1, 2, 2, 3, 3))
	p.Apply(snapshot(2, 1, 1, 2, 2))

	assert.Equal(t, int64(3), p.Count())
}

func TestPresenter_TapAppliesReply(t *testing.T) {
	f := &fakeSubmitter{replies: []engine.Reply{{RequestID: "req-0001", Snapshot: snapshot(2, 12, 8)}}}
	p := NewPresenter(f, "uitest", nil)
	p.Apply(snapshot(1))
	ch := changes(p)

	require.True(t, p.Tap(12.7, 8.2))
	waitChange(t, ch)

	assert.Equal(t, [][2]float64{{12.7, 8.2}}, f.taps)
	assert.Equal(t, "clicks: 1 on uitest", p.Greeting())
	assert.NoError(t, p.LastError())
}

func TestPresenter_ResetAppliesReply(t *testing.T) {
	f := &fakeSubmitter{replies: []engine.Reply{{RequestID: "req-0001", Snapshot: snapshot(3)}}}
	p := NewPresenter(f, "uitest", nil)
	p.Apply(snapshot(2, 1, 1, 2, 2))
	ch := changes(p)

	require.True(t, p.Reset())
	waitChange(t, ch)

	assert.Equal(t, 1, f.resets)
	assert.Equal(t, "clicks: 0 on uitest", p.Greeting())
	assert.Empty(t, p.Lines())
}

func TestPresenter_FailedTapKeepsCount(t *testing.T) {
	boom := errors.New("insert click: syntax error")
	// Failed replies carry the unchanged snapshot (same version), so only
	// the error changes.
	f := &fakeSubmitter{replies: []engine.Reply{{RequestID: "req-0001", Err: boom, Snapshot: snapshot(1, 4, 4)}}}
	p := NewPresenter(f, "uitest", nil)
	p.Apply(snapshot(1, 4, 4))

	require.True(t, p.Tap(5, 5))
	require.Eventually(t, func() bool { return p.LastError() != nil }, 2*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, p.LastError(), boom)
	assert.Equal(t, int64(1), p.Count())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "unknown", State(9).String())
}
