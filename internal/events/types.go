package events

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/ecs"
)

// Event payloads are immutable snapshots of the state at emission time.
// Consumers must not retain the entity ids past the tick without re-checking
// liveness.

// CitizenSpawned fires when a citizen entity enters the world.
type CitizenSpawned struct {
	Citizen ecs.Entity
	Name    string
	Job     components.JobType
}

// CitizenStateChanged fires on every behavioral state transition.
type CitizenStateChanged struct {
	Citizen ecs.Entity
	Old     components.CitizenState
	New     components.CitizenState
}

// ResourceGathered fires when a gather task completes and the citizen picks
// up the yield.
type ResourceGathered struct {
	Citizen  ecs.Entity
	Target   ecs.Entity
	Resource components.ResourceType
	Amount   int
}

// ResourceDelivered fires when a carried load is transferred into a storage
// building. This is the only event that increases global resource totals.
type ResourceDelivered struct {
	Citizen  ecs.Entity
	Building ecs.Entity
	Resource components.ResourceType
	Amount   int
}

// ResourceNodeDepleted fires when a node's amount reaches zero and it stops
// being selectable.
type ResourceNodeDepleted struct {
	Node     ecs.Entity
	Resource components.ResourceType
}

// ResourceNodeRespawned fires when a depleted node is restored to full.
type ResourceNodeRespawned struct {
	Node     ecs.Entity
	Resource components.ResourceType
}

// BuildingPlaced fires when a new building entity and its construction site
// are created.
type BuildingPlaced struct {
	Building ecs.Entity
	Type     components.BuildingType
	Position components.Vec3
}

// ConstructionCompleted fires exactly once per building, when its site is
// removed and the constructed flag flips.
type ConstructionCompleted struct {
	Building ecs.Entity
	Type     components.BuildingType
}

// BuildingDestroyRequested fires before a building is demolished, while its
// entity is still alive, so workers can be released.
type BuildingDestroyRequested struct {
	Building ecs.Entity
	Type     components.BuildingType
}

// BuildingDemolished fires after the building entity has been destroyed.
type BuildingDemolished struct {
	Building ecs.Entity
	Type     components.BuildingType
}
