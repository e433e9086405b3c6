package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestView builds a view on an application that is never run.
func newTestView(t *testing.T, f *fakeSubmitter) (*View, *Presenter) {
	t.Helper()
	p := NewPresenter(f, "uitest", nil)
	v := NewView(tview.NewApplication(), p, "WeaverDB")
	p.SetOnChange(nil)
	return v, p
}

func TestView_RenderUninitialized(t *testing.T) {
	v, _ := newTestView(t, &fakeSubmitter{})

	assert.Equal(t, "", v.greeting.GetText(true))
	assert.Equal(t, 0, v.list.GetItemCount())
	assert.Equal(t, "WeaverDB", v.root.GetTitle())
	assert.Equal(t, ResetLabel, v.reset.GetLabel())
}

func TestView_RenderIdle(t *testing.T) {
	v, p := newTestView(t, &fakeSubmitter{})

	p.Apply(snapshot(1, 5, 5, 10, 10))
	v.render()

	assert.Equal(t, "clicks: 2 on uitest", v.greeting.GetText(true))
	require.Equal(t, 2, v.list.GetItemCount())
	main, _ := v.list.GetItemText(1)
	assert.Equal(t, "x=10, y=10, moment=2024-01-01T00:00:01Z", main)
	assert.Equal(t, 1, v.list.GetCurrentItem(), "newest click selected")
}

func TestView_MouseClickTapsRelativeCell(t *testing.T) {
	f := &fakeSubmitter{}
	v, p := newTestView(t, f)
	p.Apply(snapshot(1))

	// Border takes one cell on each side: inner rect starts at (11, 6).
	v.surface.SetRect(10, 5, 30, 10)

	action, event := v.handleMouse(tview.MouseLeftClick, tcell.NewEventMouse(16, 9, tcell.Button1, tcell.ModNone))

	assert.Equal(t, tview.MouseLeftClick, action)
	assert.Nil(t, event, "click consumed")
	require.Equal(t, 1, f.tapCount())
	assert.Equal(t, [2]float64{5, 3}, f.taps[0])
}

func TestView_MouseOutsideSurfacePassesThrough(t *testing.T) {
	f := &fakeSubmitter{}
	v, p := newTestView(t, f)
	p.Apply(snapshot(1))
	v.surface.SetRect(10, 5, 30, 10)

	in := tcell.NewEventMouse(2, 2, tcell.Button1, tcell.ModNone)
	_, out := v.handleMouse(tview.MouseLeftClick, in)

	assert.Same(t, in, out)
	assert.Equal(t, 0, f.tapCount())
}

func TestView_MouseMoveIgnored(t *testing.T) {
	f := &fakeSubmitter{}
	v, p := newTestView(t, f)
	p.Apply(snapshot(1))
	v.surface.SetRect(0, 0, 30, 10)

	in := tcell.NewEventMouse(5, 5, tcell.ButtonNone, tcell.ModNone)
	_, out := v.handleMouse(tview.MouseMove, in)

	assert.Same(t, in, out)
	assert.Equal(t, 0, f.tapCount())
}

func TestView_ResetButton(t *testing.T) {
	f := &fakeSubmitter{}
	v, p := newTestView(t, f)
	p.Apply(snapshot(1, 1, 1))

	v.onReset()

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 1, f.resets)
}

func TestView_QuitKeys(t *testing.T) {
	v, _ := newTestView(t, &fakeSubmitter{})
	quits := 0
	v.quit = func() { quits++ }

	assert.Nil(t, v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.Nil(t, v.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))

	other := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	assert.Same(t, other, v.handleKey(other))
	assert.Equal(t, 2, quits)
}

func TestView_StatusShowsLastError(t *testing.T) {
	v, p := newTestView(t, &fakeSubmitter{})
	p.Apply(snapshot(1))

	p.mu.Lock()
	p.lastErr = assert.AnError
	p.mu.Unlock()
	v.render()

	assert.Contains(t, v.status.GetText(true), assert.AnError.Error())
}
