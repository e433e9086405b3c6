package engine

import "errors"

var (
	// ErrStopped is the reply error for requests submitted after (or still
	// pending when) the engine stopped.
	ErrStopped = errors.New("engine stopped")

	// ErrHydration wraps a failure of the startup read. Run returns it and
	// the engine never becomes ready.
	ErrHydration = errors.New("hydrate click history")

	// ErrNotReady is returned by ReadySnapshot before hydration completes.
	ErrNotReady = errors.New("click history not hydrated")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("engine already running")
)

// IsStopped returns true if err reports a stopped engine.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}
