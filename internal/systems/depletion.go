package systems

import (
	"log/slog"
	"math/rand"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// ResourceDepletion runs the two-phase node state machine: an emptied node
// becomes unselectable behind a DepletedResource marker with a randomized
// respawn delay, and is restored to full once the delay elapses. If a
// constructed building blocks the position by then, the timer resets to a
// short fixed retry delay instead. Nodes that do not regenerate are
// removed from the world when they empty.
type ResourceDepletion struct {
	clock *Clock
	bus   *events.Bus
	cfg   *config.Config
	rng   *rand.Rand
}

func NewResourceDepletion(clock *Clock, bus *events.Bus, cfg *config.Config, rng *rand.Rand) *ResourceDepletion {
	return &ResourceDepletion{clock: clock, bus: bus, cfg: cfg, rng: rng}
}

func (s *ResourceDepletion) Name() string  { return "resource_depletion" }
func (s *ResourceDepletion) Enabled() bool { return true }

func (s *ResourceDepletion) Update(w *ecs.World, dt float64) {
	sdt := s.clock.ScaledDt(dt)
	if sdt == 0 {
		return
	}
	t := s.cfg.Tuning

	// Phase one: detect freshly emptied nodes.
	ecs.Each(w, func(e ecs.Entity, node components.ResourceNode) {
		if node.Amount > 0 || ecs.Has[components.DepletedResource](w, e) {
			return
		}
		events.Publish(s.bus, events.ResourceNodeDepleted{Node: e, Resource: node.Resource})
		if !node.Regenerates {
			w.DestroyEntity(e)
			return
		}
		delay := t.RespawnDelayMin + s.rng.Float64()*(t.RespawnDelayMax-t.RespawnDelayMin)
		ecs.Set(w, e, components.DepletedResource{RespawnDelay: delay})
		slog.Debug("resource node depleted", "node", e, "resource", node.Resource, "respawn_delay", delay)
	})

	// Phase two: advance respawn timers.
	ecs.Each(w, func(e ecs.Entity, dep components.DepletedResource) {
		dep.Elapsed += sdt
		if dep.Elapsed < dep.RespawnDelay {
			ecs.Set(w, e, dep)
			return
		}

		node, ok := ecs.Get[components.ResourceNode](w, e)
		if !ok {
			ecs.Remove[components.DepletedResource](w, e)
			return
		}

		pos, ok := position(w, e)
		if ok && s.blocked(w, pos) {
			// A building moved in; try again after the short retry delay.
			ecs.Set(w, e, components.DepletedResource{RespawnDelay: t.RespawnRetryDelay})
			return
		}

		node.Amount = node.MaxAmount
		ecs.Set(w, e, node)
		ecs.Remove[components.DepletedResource](w, e)
		events.Publish(s.bus, events.ResourceNodeRespawned{Node: e, Resource: node.Resource})
	})
}

// blocked reports whether any constructed building sits within the blocking
// radius of pos.
func (s *ResourceDepletion) blocked(w *ecs.World, pos components.Vec3) bool {
	r := s.cfg.Tuning.RespawnBlockRadius
	blocked := false
	ecs.Each(w, func(e ecs.Entity, bld components.Building) {
		if blocked || !bld.Constructed {
			return
		}
		if p, ok := position(w, e); ok && pos.DistSqXZ(p) <= r*r {
			blocked = true
		}
	})
	return blocked
}
