package systems

import (
	"log/slog"
	"sync"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// BuildingPlacement turns placement and demolition requests into entities and
// events. Requests are queued rather than applied inline so external
// collaborators (the UI, the HTTP API) can issue them at any time and have
// them take effect at a well-defined point in the tick. The queues are the
// only cross-goroutine surface of the simulation and carry their own lock.
type BuildingPlacement struct {
	bus *events.Bus
	cfg *config.Config

	mu          sync.Mutex
	placements  []placeRequest
	demolitions []ecs.Entity
}

type placeRequest struct {
	buildingType components.BuildingType
	pos          components.Vec3
}

func NewBuildingPlacement(bus *events.Bus, cfg *config.Config) *BuildingPlacement {
	return &BuildingPlacement{bus: bus, cfg: cfg}
}

func (s *BuildingPlacement) Name() string  { return "building_placement" }
func (s *BuildingPlacement) Enabled() bool { return true }

// Place queues a building placement for the next update.
func (s *BuildingPlacement) Place(t components.BuildingType, pos components.Vec3) {
	s.mu.Lock()
	s.placements = append(s.placements, placeRequest{buildingType: t, pos: pos})
	s.mu.Unlock()
}

// Demolish queues a building demolition for the next update.
func (s *BuildingPlacement) Demolish(b ecs.Entity) {
	s.mu.Lock()
	s.demolitions = append(s.demolitions, b)
	s.mu.Unlock()
}

func (s *BuildingPlacement) Update(w *ecs.World, dt float64) {
	s.mu.Lock()
	placements := s.placements
	demolitions := s.demolitions
	s.placements = nil
	s.demolitions = nil
	s.mu.Unlock()

	for _, b := range demolitions {
		s.demolish(w, b)
	}
	for _, req := range placements {
		s.place(w, req)
	}
}

func (s *BuildingPlacement) place(w *ecs.World, req placeRequest) {
	spec := s.cfg.Building(req.buildingType)

	b := w.CreateEntity()
	ecs.Set(w, b, components.NewTransform(req.pos))
	ecs.Set(w, b, components.Building{
		Type:       req.buildingType,
		MaxWorkers: spec.WorkerSlots,
	})
	if spec.StorageCapacity > 0 {
		ecs.Set(w, b, components.Storage{
			Contents: make(components.ResourceAmounts),
			Capacity: spec.StorageCapacity,
		})
	}
	ecs.Set(w, b, components.ConstructionSite{
		Required:  spec.Cost.Clone(),
		Delivered: make(components.ResourceAmounts),
		BuildTime: spec.BuildTime,
	})

	slog.Info("building placed", "building", b, "type", req.buildingType,
		"x", req.pos.X, "z", req.pos.Z)
	events.Publish(s.bus, events.BuildingPlaced{
		Building: b,
		Type:     req.buildingType,
		Position: req.pos,
	})
}

func (s *BuildingPlacement) demolish(w *ecs.World, b ecs.Entity) {
	bld, ok := ecs.Get[components.Building](w, b)
	if !ok || !w.IsAlive(b) {
		return
	}

	// Fires while the entity is still alive so subscribers can inspect it.
	events.Publish(s.bus, events.BuildingDestroyRequested{Building: b, Type: bld.Type})

	// Anyone still working the building is cut loose; job restoration for
	// temporary builders happens in the auto-builder.
	ecs.Each(w, func(worker ecs.Entity, cw components.ConstructionWork) {
		if cw.Target != b {
			return
		}
		ecs.Remove[components.ConstructionWork](w, worker)
		transition(w, s.bus, worker, components.StateIdle)
	})

	w.DestroyEntity(b)
	slog.Info("building demolished", "building", b, "type", bld.Type)
	events.Publish(s.bus, events.BuildingDemolished{Building: b, Type: bld.Type})
}
