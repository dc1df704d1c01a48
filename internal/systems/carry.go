package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// Carry normalizes the state of citizens holding a load: anyone with a Carry
// component who is not already carrying or delivering is flipped to Carrying
// so JobAssignment routes them to storage. This also recovers citizens whose
// task was cancelled mid-haul.
type Carry struct {
	clock *Clock
	bus   *events.Bus
}

func NewCarry(clock *Clock, bus *events.Bus) *Carry {
	return &Carry{clock: clock, bus: bus}
}

func (s *Carry) Name() string  { return "carry" }
func (s *Carry) Enabled() bool { return true }

func (s *Carry) Update(w *ecs.World, dt float64) {
	if s.clock.ScaledDt(dt) == 0 {
		return
	}

	ecs.Each(w, func(e ecs.Entity, _ components.Carry) {
		cit, ok := ecs.Get[components.Citizen](w, e)
		if !ok {
			return
		}
		switch cit.State {
		case components.StateCarrying, components.StateDelivering:
		default:
			transition(w, s.bus, e, components.StateCarrying)
		}
	})
}
