package systems

import (
	"math"
	"math/rand"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// JobAssignment drives the citizen job state machine for Idle and Carrying
// citizens: gatherers are pointed at the nearest matching resource node,
// farmers at the nearest constructed farm, carriers at the nearest storage
// building, and everyone else wanders. When no eligible target exists the
// citizen is left untouched and re-evaluated next tick.
type JobAssignment struct {
	clock *Clock
	bus   *events.Bus
	cfg   *config.Config
	rng   *rand.Rand
}

func NewJobAssignment(clock *Clock, bus *events.Bus, cfg *config.Config, rng *rand.Rand) *JobAssignment {
	return &JobAssignment{clock: clock, bus: bus, cfg: cfg, rng: rng}
}

func (s *JobAssignment) Name() string  { return "job_assignment" }
func (s *JobAssignment) Enabled() bool { return true }

func (s *JobAssignment) Update(w *ecs.World, dt float64) {
	sdt := s.clock.ScaledDt(dt)
	if sdt == 0 {
		return
	}

	ecs.Each(w, func(e ecs.Entity, job components.JobAssignment) {
		cit, ok := ecs.Get[components.Citizen](w, e)
		if !ok {
			return
		}
		switch cit.State {
		case components.StateIdle:
			s.assignIdle(w, e, cit, job, sdt)
		case components.StateCarrying:
			s.assignCarrying(w, e)
		}
	})
}

func (s *JobAssignment) assignIdle(w *ecs.World, e ecs.Entity, cit components.Citizen, job components.JobAssignment, sdt float64) {
	if ecs.Has[components.PathFollow](w, e) || ecs.Has[components.Gathering](w, e) {
		return
	}
	pos, ok := position(w, e)
	if !ok {
		return
	}

	if resource, gathers := job.Job.GatherTarget(); gathers {
		node, nodePos, found := nearestResourceNode(w, pos, resource)
		if !found {
			return
		}
		directPath(w, e, pos, nodePos)
		ecs.Set(w, e, components.Gathering{
			Target:   node,
			Duration: s.cfg.Tuning.GatherDuration,
			Resource: resource,
		})
		transition(w, s.bus, e, components.StateWalking)
		return
	}

	if job.Job == components.JobFarmer {
		farm, farmPos, found := nearestBuilding(w, pos, func(_ ecs.Entity, bld components.Building) bool {
			return bld.Type == components.BuildingFarm
		})
		if !found {
			return
		}
		directPath(w, e, pos, farmPos)
		// Farms yield food regardless of what the node type would say.
		ecs.Set(w, e, components.Gathering{
			Target:   farm,
			Duration: s.cfg.Tuning.GatherDuration,
			Resource: components.ResourceFood,
		})
		transition(w, s.bus, e, components.StateWalking)
		return
	}

	// Builder, hauler, and unassigned citizens wander between tasks.
	s.wander(w, e, cit, pos, sdt)
}

func (s *JobAssignment) wander(w *ecs.World, e ecs.Entity, cit components.Citizen, pos components.Vec3, sdt float64) {
	cit.WanderCooldown -= sdt
	if cit.WanderCooldown > 0 {
		ecs.Set(w, e, cit)
		return
	}

	t := s.cfg.Tuning
	angle := s.rng.Float64() * 2 * math.Pi
	radius := t.WanderRadiusMin + s.rng.Float64()*(t.WanderRadiusMax-t.WanderRadiusMin)
	target := components.Vec3{
		X: pos.X + math.Cos(angle)*radius,
		Z: pos.Z + math.Sin(angle)*radius,
	}

	// Cooldown before the next wander decision, so arriving citizens do not
	// immediately set off again.
	cit.WanderCooldown = t.WanderCooldown * (0.5 + s.rng.Float64())
	ecs.Set(w, e, cit)
	directPath(w, e, pos, target)
	transition(w, s.bus, e, components.StateWalking)
}

func (s *JobAssignment) assignCarrying(w *ecs.World, e ecs.Entity) {
	if ecs.Has[components.PathFollow](w, e) {
		return
	}
	pos, ok := position(w, e)
	if !ok {
		return
	}
	_, storePos, found := nearestStorage(w, pos)
	if !found {
		return
	}
	directPath(w, e, pos, storePos)
	transition(w, s.bus, e, components.StateDelivering)
}
