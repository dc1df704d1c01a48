package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// PathFollow steers entities along their waypoint lists. It only writes
// velocities; Movement integrates positions afterwards. When the last
// waypoint is reached the marker is removed and the task systems take over;
// a citizen who was just wandering returns to Idle.
type PathFollow struct {
	clock *Clock
	bus   *events.Bus
	cfg   *config.Config
}

func NewPathFollow(clock *Clock, bus *events.Bus, cfg *config.Config) *PathFollow {
	return &PathFollow{clock: clock, bus: bus, cfg: cfg}
}

func (s *PathFollow) Name() string  { return "path_follow" }
func (s *PathFollow) Enabled() bool { return true }

func (s *PathFollow) Update(w *ecs.World, dt float64) {
	if s.clock.ScaledDt(dt) == 0 {
		return
	}
	arrive := s.cfg.Tuning.ArriveRadius

	ecs.Each(w, func(e ecs.Entity, path components.PathFollow) {
		tr, ok := ecs.Get[components.Transform](w, e)
		if !ok {
			ecs.Remove[components.PathFollow](w, e)
			return
		}
		vel, ok := ecs.Get[components.Velocity](w, e)
		if !ok {
			return
		}

		for path.Index < len(path.Waypoints) &&
			tr.Position.DistSqXZ(path.Waypoints[path.Index]) <= arrive*arrive {
			path.Index++
		}

		if path.Index >= len(path.Waypoints) {
			ecs.Remove[components.PathFollow](w, e)
			vel.Linear = components.Vec3{}
			ecs.Set(w, e, vel)
			s.finishWalk(w, e)
			return
		}

		speed := vel.MaxSpeed
		if ecs.Has[components.Carry](w, e) {
			speed *= s.cfg.Tuning.CarrySpeedFactor
		}
		dir := path.Waypoints[path.Index].Sub(tr.Position).NormXZ()
		vel.Linear = dir.Scale(speed)
		ecs.Set(w, e, vel)
		ecs.Set(w, e, path)
	})
}

// finishWalk returns a citizen to Idle when the walk had no follow-up task
// attached (a wander). Walks that end in a gather, build, or delivery keep
// their state until the owning system takes over.
func (s *PathFollow) finishWalk(w *ecs.World, e ecs.Entity) {
	cit, ok := ecs.Get[components.Citizen](w, e)
	if !ok || cit.State != components.StateWalking {
		return
	}
	if ecs.Has[components.Gathering](w, e) ||
		ecs.Has[components.ConstructionWork](w, e) ||
		ecs.Has[components.Carry](w, e) {
		return
	}
	transition(w, s.bus, e, components.StateIdle)
}
