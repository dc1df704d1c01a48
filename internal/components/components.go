package components

import "github.com/talgya/hearthfall/internal/ecs"

// Transform places an entity in world space.
type Transform struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

// NewTransform returns a transform at the given position with unit scale.
func NewTransform(pos Vec3) Transform {
	return Transform{Position: pos, Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// Velocity is an entity's current motion and speed bound.
type Velocity struct {
	Linear   Vec3    `json:"linear"`
	MaxSpeed float64 `json:"max_speed"`
}

// Citizen is a colonist: identity, behavioral state, and needs. Hunger,
// fatigue and stress range 0 (none) to 1 (critical); mood ranges 0 (miserable)
// to 1 (content).
type Citizen struct {
	Name           string       `json:"name"`
	State          CitizenState `json:"state"`
	Hunger         float64      `json:"hunger"`
	Fatigue        float64      `json:"fatigue"`
	Stress         float64      `json:"stress"`
	Mood           float64      `json:"mood"`
	WanderCooldown float64      `json:"wander_cooldown"`
}

// JobAssignment gives a citizen a profession and an optional workplace.
// Workplace is a weak reference and may be dangling.
type JobAssignment struct {
	Job       JobType    `json:"job"`
	Workplace ecs.Entity `json:"workplace,omitempty"`
}

// Inventory is a citizen's personal stock, bounded by Capacity (total units).
// Gathering fills it and delivery drains it; Carry mirrors the portion in
// transit to storage.
type Inventory struct {
	Items    ResourceAmounts `json:"items"`
	Capacity int             `json:"capacity"`
}

// Carry marks a citizen transporting gathered resources. It exists only
// between a completed gather and the matching delivery.
type Carry struct {
	Resource ResourceType `json:"resource"`
	Amount   int          `json:"amount"`
}

// Storage is a building's resource stock, bounded by Capacity (total units).
type Storage struct {
	Contents ResourceAmounts `json:"contents"`
	Capacity int             `json:"capacity"`
}

// ResourceNode is a harvestable world feature. A node with an amount of zero
// is replaced by a DepletedResource marker until it respawns; the two
// components are never present together.
type ResourceNode struct {
	Resource    ResourceType `json:"resource"`
	Amount      int          `json:"amount"`
	MaxAmount   int          `json:"max_amount"`
	Regenerates bool         `json:"regenerates"`
}

// DepletedResource marks a node waiting out its respawn delay.
type DepletedResource struct {
	RespawnDelay float64 `json:"respawn_delay"`
	Elapsed      float64 `json:"elapsed"`
}

// Building is a placed structure. Workers holds weak references to citizens
// currently attached to it; entries may be stale and must be re-validated.
type Building struct {
	Type        BuildingType `json:"type"`
	Constructed bool         `json:"constructed"`
	Workers     []ecs.Entity `json:"workers,omitempty"`
	MaxWorkers  int          `json:"max_workers"`
}

// ConstructionSite tracks an unfinished building's material and labor state.
// Its presence on a Building entity means "under construction"; its removal
// means "completed". The two states never overlap.
type ConstructionSite struct {
	Required      ResourceAmounts `json:"required"`
	Delivered     ResourceAmounts `json:"delivered"`
	BuildTime     float64         `json:"build_time"`
	BuildProgress float64         `json:"build_progress"`
}

// Stocked reports whether every required material has been delivered.
func (c ConstructionSite) Stocked() bool {
	for res, need := range c.Required {
		if c.Delivered.Get(res) < need {
			return false
		}
	}
	return true
}

// ConstructionWork links a citizen to the building it is constructing.
type ConstructionWork struct {
	Target ecs.Entity `json:"target"`
}

// TemporaryBuilder records the job a citizen held before being drafted onto a
// construction site, so it can be restored when the site completes or is
// demolished.
type TemporaryBuilder struct {
	Target      ecs.Entity `json:"target"`
	PreviousJob JobType    `json:"previous_job"`
}

// PathFollow is an in-progress walk along a list of waypoints.
type PathFollow struct {
	Waypoints []Vec3 `json:"waypoints"`
	Index     int    `json:"index"`
}

// Gathering is an in-progress harvest task. Resource overrides the node's
// own type when set (a farmer working a farm yields food).
type Gathering struct {
	Target   ecs.Entity   `json:"target"`
	Duration float64      `json:"duration"`
	Elapsed  float64      `json:"elapsed"`
	Resource ResourceType `json:"resource,omitempty"`
}
