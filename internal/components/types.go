// Package components defines the plain data records attached to entities.
// Components never own other entities; a stored ecs.Entity field is a weak
// back-reference that readers must re-validate with World.IsAlive.
package components

// ResourceType identifies a gatherable/storable resource.
type ResourceType string

const (
	ResourceWood  ResourceType = "wood"
	ResourceStone ResourceType = "stone"
	ResourceFood  ResourceType = "food"
)

// ResourceAmounts maps resource types to quantities. A missing key reads as
// zero; quantities never go negative.
type ResourceAmounts map[ResourceType]int

// Get returns the stored amount, zero when absent.
func (r ResourceAmounts) Get(t ResourceType) int {
	return r[t]
}

// Add increases the stored amount, clamping the result at zero so negative
// deltas cannot drive a quantity below empty.
func (r ResourceAmounts) Add(t ResourceType, n int) {
	v := r[t] + n
	if v < 0 {
		v = 0
	}
	r[t] = v
}

// Total returns the sum over all resource types.
func (r ResourceAmounts) Total() int {
	sum := 0
	for _, v := range r {
		sum += v
	}
	return sum
}

// Clone returns an independent copy.
func (r ResourceAmounts) Clone() ResourceAmounts {
	out := make(ResourceAmounts, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// JobType is a citizen's assigned profession.
type JobType string

const (
	JobNone       JobType = "none"
	JobWoodcutter JobType = "woodcutter"
	JobQuarrier   JobType = "quarrier"
	JobFarmer     JobType = "farmer"
	JobBuilder    JobType = "builder"
	JobHauler     JobType = "hauler"
)

// GatherTarget returns the resource a job collects from nodes, and whether
// the job gathers from resource nodes at all.
func (j JobType) GatherTarget() (ResourceType, bool) {
	switch j {
	case JobWoodcutter:
		return ResourceWood, true
	case JobQuarrier:
		return ResourceStone, true
	}
	return "", false
}

// CitizenState is the behavioral state of a citizen's task state machine.
type CitizenState string

const (
	StateIdle       CitizenState = "idle"
	StateWalking    CitizenState = "walking"
	StateGathering  CitizenState = "gathering"
	StateCarrying   CitizenState = "carrying"
	StateDelivering CitizenState = "delivering"
	StateBuilding   CitizenState = "building"
)

// BuildingType identifies a building kind; its costs, build time, storage
// capacity and worker slots come from the building catalog in the config.
type BuildingType string

const (
	BuildingStorehouse BuildingType = "storehouse"
	BuildingFarm       BuildingType = "farm"
	BuildingHouse      BuildingType = "house"
)
