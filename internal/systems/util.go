package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// transition moves a citizen to a new behavioral state and publishes the
// change. A transition to the current state is a no-op.
func transition(w *ecs.World, bus *events.Bus, e ecs.Entity, to components.CitizenState) {
	cit, ok := ecs.Get[components.Citizen](w, e)
	if !ok || cit.State == to {
		return
	}
	old := cit.State
	cit.State = to
	ecs.Set(w, e, cit)
	events.Publish(bus, events.CitizenStateChanged{Citizen: e, Old: old, New: to})
}

// position returns the entity's world position, if it has a transform.
func position(w *ecs.World, e ecs.Entity) (components.Vec3, bool) {
	tr, ok := ecs.Get[components.Transform](w, e)
	if !ok {
		return components.Vec3{}, false
	}
	return tr.Position, true
}

// directPath attaches a straight two-point path from the entity's current
// position to the target position.
func directPath(w *ecs.World, e ecs.Entity, from, to components.Vec3) {
	ecs.Set(w, e, components.PathFollow{Waypoints: []components.Vec3{from, to}})
}

// nearestResourceNode returns the alive, selectable node of the given
// resource type nearest to pos by squared planar distance. Ties fall to
// iteration order; absence of a target is not an error.
func nearestResourceNode(w *ecs.World, pos components.Vec3, resource components.ResourceType) (ecs.Entity, components.Vec3, bool) {
	var (
		best     ecs.Entity
		bestPos  components.Vec3
		bestDist float64
		found    bool
	)
	ecs.Each(w, func(e ecs.Entity, node components.ResourceNode) {
		if node.Resource != resource || node.Amount <= 0 {
			return
		}
		if ecs.Has[components.DepletedResource](w, e) {
			return
		}
		p, ok := position(w, e)
		if !ok {
			return
		}
		d := pos.DistSqXZ(p)
		if !found || d < bestDist {
			best, bestPos, bestDist, found = e, p, d, true
		}
	})
	return best, bestPos, found
}

// nearestBuilding returns the constructed building nearest to pos that
// satisfies the filter.
func nearestBuilding(w *ecs.World, pos components.Vec3, filter func(ecs.Entity, components.Building) bool) (ecs.Entity, components.Vec3, bool) {
	var (
		best     ecs.Entity
		bestPos  components.Vec3
		bestDist float64
		found    bool
	)
	ecs.Each(w, func(e ecs.Entity, bld components.Building) {
		if !bld.Constructed || !filter(e, bld) {
			return
		}
		p, ok := position(w, e)
		if !ok {
			return
		}
		d := pos.DistSqXZ(p)
		if !found || d < bestDist {
			best, bestPos, bestDist, found = e, p, d, true
		}
	})
	return best, bestPos, found
}

// nearestStorage returns the nearest constructed building that can store
// resources.
func nearestStorage(w *ecs.World, pos components.Vec3) (ecs.Entity, components.Vec3, bool) {
	return nearestBuilding(w, pos, func(e ecs.Entity, _ components.Building) bool {
		return ecs.Has[components.Storage](w, e)
	})
}
