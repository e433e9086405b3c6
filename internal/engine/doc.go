// Package engine implements the clickcounter data-access loop.
//
// The engine sits between the screen and the database. UI callbacks never
// touch the database: they enqueue requests and receive replies on
// channels, so the UI event loop never blocks on SQL.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// One goroutine (Run) owns the database writes and the in-memory click
// history. This ensures:
// - Taps and resets are applied in the order they were submitted
// - The history mirror changes only after its statement succeeded
// - Readers see whole snapshots, never a half-applied update
//
// Request Processing Flow:
// 1. Run hydrates the history from storage (startup read)
// 2. Tap/Reset/Reload enqueue a request on the FIFO queue
// 3. Run dequeues requests one at a time and executes the statement
// 4. On success the history is updated and a new Snapshot is published
// 5. The reply (snapshot or error) is sent on the request's channel
//
// Moments:
// Tap moments come from a Clock and are forced to be strictly increasing,
// so ordering rows by moment reproduces tap order even when the wall
// clock steps backwards.
package engine
