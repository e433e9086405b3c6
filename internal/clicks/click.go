// Package clicks holds the click history: the persisted clickcounter table
// and its ordered in-memory mirror.
package clicks

import (
	"fmt"
	"time"
)

// Click is one recorded tap. Clicks are immutable once created.
type Click struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Moment time.Time `json:"moment"`
}

// NewClick builds a Click from device coordinates.
// Fractional coordinates truncate toward zero; the moment is stored in UTC.
func NewClick(x, y float64, moment time.Time) Click {
	return Click{X: int(x), Y: int(y), Moment: moment.UTC()}
}

// String renders a click the way the history list shows it.
func (c Click) String() string {
	return fmt.Sprintf("x=%d, y=%d, moment=%s", c.X, c.Y, c.Moment.UTC().Format(time.RFC3339Nano))
}
