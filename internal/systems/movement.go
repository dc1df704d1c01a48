package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/ecs"
)

// Movement integrates positions from velocities, clamping to each entity's
// speed bound.
type Movement struct {
	clock *Clock
}

func NewMovement(clock *Clock) *Movement {
	return &Movement{clock: clock}
}

func (s *Movement) Name() string  { return "movement" }
func (s *Movement) Enabled() bool { return true }

func (s *Movement) Update(w *ecs.World, dt float64) {
	sdt := s.clock.ScaledDt(dt)
	if sdt == 0 {
		return
	}

	ecs.Each(w, func(e ecs.Entity, vel components.Velocity) {
		if vel.Linear == (components.Vec3{}) {
			return
		}
		tr, ok := ecs.Get[components.Transform](w, e)
		if !ok {
			return
		}
		step := vel.Linear
		if vel.MaxSpeed > 0 {
			if speed := step.LenXZ(); speed > vel.MaxSpeed {
				step = step.NormXZ().Scale(vel.MaxSpeed)
			}
		}
		tr.Position = tr.Position.Add(step.Scale(sdt))
		ecs.Set(w, e, tr)
	})
}
