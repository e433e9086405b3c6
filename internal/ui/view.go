package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ResetLabel is the reset button's label.
const ResetLabel = "reset"

// View is the tview screen: greeting, reset button, history list and a tap
// surface.
type View struct {
	app       *tview.Application
	presenter *Presenter

	root     *tview.Flex
	greeting *tview.TextView
	reset    *tview.Button
	list     *tview.List
	surface  *tview.Box
	status   *tview.TextView

	quit func()
}

// NewView builds the screen for presenter inside app. The title is shown on
// the outer border.
func NewView(app *tview.Application, p *Presenter, title string) *View {
	v := &View{
		app:       app,
		presenter: p,
		quit:      app.Stop,
	}

	v.greeting = tview.NewTextView()
	v.greeting.SetTextAlign(tview.AlignCenter)

	v.reset = tview.NewButton(ResetLabel).SetSelectedFunc(v.onReset)

	v.surface = tview.NewBox()
	v.surface.SetBorder(true).SetTitle("tap here")
	v.surface.SetMouseCapture(v.handleMouse)

	v.list = tview.NewList().ShowSecondaryText(false)
	v.list.SetBorder(true).SetTitle("History")

	v.status = tview.NewTextView().SetDynamicColors(true)

	header := tview.NewFlex()
	header.AddItem(v.greeting, 0, 1, false)
	header.AddItem(v.reset, len(ResetLabel)+4, 0, true)

	v.root = tview.NewFlex().SetDirection(tview.FlexRow)
	v.root.SetBorder(true).SetTitle(title)
	v.root.AddItem(header, 1, 0, true)
	v.root.AddItem(v.surface, 0, 1, false)
	v.root.AddItem(v.list, 0, 2, false)
	v.root.AddItem(v.status, 1, 0, false)

	app.SetInputCapture(v.handleKey)
	p.SetOnChange(v.scheduleRender)

	v.render()
	return v
}

// Root returns the primitive to pass to Application.SetRoot.
func (v *View) Root() tview.Primitive {
	return v.root
}

// scheduleRender queues a redraw from outside the event loop.
// QueueUpdateDraw blocks until the loop runs the update, so it gets its own
// goroutine.
func (v *View) scheduleRender() {
	go v.app.QueueUpdateDraw(v.render)
}

// render copies presenter state into the widgets. Event loop only.
func (v *View) render() {
	v.greeting.SetText(v.presenter.Greeting())

	v.list.Clear()
	for _, line := range v.presenter.Lines() {
		v.list.AddItem(line, "", 0, nil)
	}
	if n := v.list.GetItemCount(); n > 0 {
		v.list.SetCurrentItem(n - 1)
	}

	if err := v.presenter.LastError(); err != nil {
		v.status.SetText("[red]" + tview.Escape(err.Error()))
	} else {
		v.status.SetText("")
	}
}

func (v *View) onReset() {
	v.presenter.Reset()
}

// handleMouse turns a left click inside the surface into a tap at the cell
// relative to the surface's inner rectangle.
func (v *View) handleMouse(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
	if action != tview.MouseLeftClick || event == nil {
		return action, event
	}

	x, y := event.Position()
	ix, iy, w, h := v.surface.GetInnerRect()
	if x < ix || y < iy || x >= ix+w || y >= iy+h {
		return action, event
	}

	v.presenter.Tap(float64(x-ix), float64(y-iy))
	return action, nil
}

// handleKey quits on q or Esc and passes everything else through.
func (v *View) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEscape, event.Key() == tcell.KeyRune && event.Rune() == 'q':
		v.quit()
		return nil
	}
	return event
}

// Run shows the screen until the user quits. Blocks.
func (v *View) Run() error {
	return v.app.SetRoot(v.root, true).EnableMouse(true).Run()
}
