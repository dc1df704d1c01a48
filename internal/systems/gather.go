package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// Gather advances in-progress harvest tasks. A citizen with a Gathering
// marker, no active path, and proximity to the target accumulates elapsed
// time; on completion one unit moves from the node into the citizen's
// inventory, a Carry component mirrors the load in transit, and the citizen
// flips to Carrying. A stale target (destroyed, emptied, or depleted) cancels
// the task back to Idle, as does a full inventory.
type Gather struct {
	clock *Clock
	bus   *events.Bus
	cfg   *config.Config
}

func NewGather(clock *Clock, bus *events.Bus, cfg *config.Config) *Gather {
	return &Gather{clock: clock, bus: bus, cfg: cfg}
}

func (s *Gather) Name() string  { return "gather" }
func (s *Gather) Enabled() bool { return true }

func (s *Gather) Update(w *ecs.World, dt float64) {
	sdt := s.clock.ScaledDt(dt)
	if sdt == 0 {
		return
	}
	prox := s.cfg.Tuning.ProximityRadius

	ecs.Each(w, func(e ecs.Entity, g components.Gathering) {
		if ecs.Has[components.PathFollow](w, e) {
			return
		}
		pos, ok := position(w, e)
		if !ok {
			return
		}

		targetPos, valid := s.validTarget(w, g)
		if !valid {
			ecs.Remove[components.Gathering](w, e)
			transition(w, s.bus, e, components.StateIdle)
			return
		}

		if pos.DistSqXZ(targetPos) > prox*prox {
			// Path ended short of the target; walk the rest.
			directPath(w, e, pos, targetPos)
			transition(w, s.bus, e, components.StateWalking)
			return
		}

		transition(w, s.bus, e, components.StateGathering)

		g.Elapsed += sdt
		if g.Elapsed < g.Duration {
			ecs.Set(w, e, g)
			return
		}

		s.finish(w, e, g)
	})
}

// validTarget checks the weak target reference: the entity must be alive and
// either a selectable node with stock or a constructed building.
func (s *Gather) validTarget(w *ecs.World, g components.Gathering) (components.Vec3, bool) {
	if !w.IsAlive(g.Target) {
		return components.Vec3{}, false
	}
	pos, ok := position(w, g.Target)
	if !ok {
		return components.Vec3{}, false
	}
	if node, isNode := ecs.Get[components.ResourceNode](w, g.Target); isNode {
		if node.Amount <= 0 || ecs.Has[components.DepletedResource](w, g.Target) {
			return components.Vec3{}, false
		}
		return pos, true
	}
	if bld, isBuilding := ecs.Get[components.Building](w, g.Target); isBuilding {
		return pos, bld.Constructed
	}
	return components.Vec3{}, false
}

func (s *Gather) finish(w *ecs.World, e ecs.Entity, g components.Gathering) {
	const amount = 1

	inv, hasInv := ecs.Get[components.Inventory](w, e)
	if hasInv && inv.Capacity-inv.Items.Total() < amount {
		// No room to carry more; drop the task until the load is delivered.
		ecs.Remove[components.Gathering](w, e)
		transition(w, s.bus, e, components.StateIdle)
		return
	}

	resource := g.Resource
	if node, isNode := ecs.Get[components.ResourceNode](w, g.Target); isNode {
		if resource == "" {
			resource = node.Resource
		}
		node.Amount -= amount
		ecs.Set(w, g.Target, node)
	}

	if hasInv {
		if inv.Items == nil {
			inv.Items = make(components.ResourceAmounts)
		}
		inv.Items.Add(resource, amount)
		ecs.Set(w, e, inv)
	}

	ecs.Set(w, e, components.Carry{Resource: resource, Amount: amount})
	ecs.Remove[components.Gathering](w, e)
	transition(w, s.bus, e, components.StateCarrying)

	events.Publish(s.bus, events.ResourceGathered{
		Citizen:  e,
		Target:   g.Target,
		Resource: resource,
		Amount:   amount,
	})
}
