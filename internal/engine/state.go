package engine

import (
	"github.com/roach88/clickcounter/internal/clicks"
)

// Snapshot is an immutable view of the click state.
//
// The zero Snapshot (Ready == false) means hydration has not completed.
type Snapshot struct {
	// Ready is true once the startup read succeeded.
	Ready bool `json:"ready"`

	// Count is the number of recorded clicks.
	Count int64 `json:"count"`

	// History is the clicks in moment order. Callers must not modify it.
	History []clicks.Click `json:"history"`

	// Version increases with every published change.
	Version uint64 `json:"version"`
}

// Reply answers a submitted request.
type Reply struct {
	RequestID string
	Kind      RequestKind

	// Snapshot is the state after the request was applied, or the unchanged
	// state when Err is set.
	Snapshot Snapshot

	// Click is the recorded click for successful taps.
	Click *clicks.Click

	// Err is set when the statement failed or the engine stopped.
	Err error
}
