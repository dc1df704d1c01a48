// Package systems implements the per-tick gameplay systems. They run in a
// fixed registration order (see game.New): time, job assignment, path
// following, movement, gathering, resource depletion, carrying, delivery,
// construction, auto-builder, citizen needs, resource ledger, building
// placement.
package systems

import (
	"github.com/talgya/hearthfall/internal/ecs"
)

// Clock gates every other system's effective delta. While paused ScaledDt
// returns zero, so pause and speed-up are global and consistent; systems must
// consult ScaledDt instead of the raw frame delta.
type Clock struct {
	Scale  float64
	Paused bool

	// Elapsed is accumulated scaled simulation time in seconds.
	Elapsed float64
}

// NewClock creates a running clock at the given time scale.
func NewClock(scale float64) *Clock {
	return &Clock{Scale: scale}
}

func (c *Clock) Name() string  { return "time" }
func (c *Clock) Enabled() bool { return true }

func (c *Clock) Update(w *ecs.World, dt float64) {
	c.Elapsed += c.ScaledDt(dt)
}

// ScaledDt returns the effective delta for this tick: zero while paused,
// otherwise dt multiplied by the time scale.
func (c *Clock) ScaledDt(dt float64) float64 {
	if c.Paused {
		return 0
	}
	return dt * c.Scale
}
