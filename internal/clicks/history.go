package clicks

// History is the ordered in-memory mirror of the persisted clicks.
//
// History has no internal locking: it is owned by a single writer (the
// engine loop) and readers get copies through Snapshot.
type History struct {
	clicks []Click
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{clicks: []Click{}}
}

// Hydrate replaces the contents with clicks read back from storage.
func (h *History) Hydrate(clicks []Click) {
	h.clicks = append(make([]Click, 0, len(clicks)), clicks...)
}

// Append adds a click to the tail. Call only after the insert succeeded.
func (h *History) Append(c Click) {
	h.clicks = append(h.clicks, c)
}

// Clear empties the history. Call only after the delete succeeded.
func (h *History) Clear() {
	// Reuse capacity; zero the slots so nothing retains old clicks.
	clear(h.clicks)
	h.clicks = h.clicks[:0]
}

// Len returns the number of clicks.
func (h *History) Len() int {
	return len(h.clicks)
}

// Snapshot returns a copy of the clicks in order.
// Returns an empty slice (not nil) when the history is empty.
func (h *History) Snapshot() []Click {
	out := make([]Click, len(h.clicks))
	copy(out, h.clicks)
	return out
}
