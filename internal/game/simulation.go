// Package game ties the ECS world, the event bus, and the gameplay systems
// into a running colony simulation, and exposes the operations external
// collaborators (renderer, UI, HTTP API) are allowed to use.
package game

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
	"github.com/talgya/hearthfall/internal/systems"
	"github.com/talgya/hearthfall/internal/worldgen"
)

// Simulation owns the world and its systems. The world and the systems assume
// a single mutator at a time; mu enforces that at this boundary, so every
// public operation is safe to call from any goroutine. Step and the mutating
// operations take the write lock, observers go through View and the read
// accessors. Direct access to the World or Clock fields bypasses the lock and
// is only safe before the runner starts.
type Simulation struct {
	World *ecs.World
	Bus   *events.Bus
	Clock *systems.Clock

	mu sync.RWMutex

	cfg     *config.Config
	rng     *rand.Rand
	spawner *Spawner

	ledger    *systems.ResourceLedger
	placement *systems.BuildingPlacement
	recorder  *Recorder

	tick atomic.Uint64
}

// New builds a simulation with the full system pipeline registered in its
// load-bearing order: time, job assignment, path following, movement,
// gathering, resource depletion, carrying, delivery, construction,
// auto-builder, citizen needs, resource ledger, building placement.
func New(cfg *config.Config) *Simulation {
	w := ecs.NewWorld()
	bus := events.NewBus()
	clock := systems.NewClock(cfg.TimeScale)
	rng := rand.New(rand.NewSource(cfg.Seed))

	s := &Simulation{
		World:   w,
		Bus:     bus,
		Clock:   clock,
		cfg:     cfg,
		rng:     rng,
		spawner: NewSpawner(cfg.Seed),
	}
	s.ledger = systems.NewResourceLedger(bus)
	s.placement = systems.NewBuildingPlacement(bus, cfg)
	s.recorder = NewRecorder(bus, s.Tick)

	w.AddSystem(clock)
	w.AddSystem(systems.NewJobAssignment(clock, bus, cfg, rng))
	w.AddSystem(systems.NewPathFollow(clock, bus, cfg))
	w.AddSystem(systems.NewMovement(clock))
	w.AddSystem(systems.NewGather(clock, bus, cfg))
	w.AddSystem(systems.NewResourceDepletion(clock, bus, cfg, rng))
	w.AddSystem(systems.NewCarry(clock, bus))
	w.AddSystem(systems.NewDelivery(clock, bus, cfg))
	w.AddSystem(systems.NewConstruction(clock, bus, cfg, s.ledger))
	w.AddSystem(systems.NewAutoBuilder(clock, bus, cfg))
	w.AddSystem(systems.NewCitizenNeeds(clock, cfg, s.ledger))
	w.AddSystem(s.ledger)
	w.AddSystem(s.placement)

	return s
}

// Step advances the simulation one tick. dt is real seconds; the clock
// applies pause and time scale inside each system.
func (s *Simulation) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick.Add(1)
	s.World.Step(dt)
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() uint64 {
	return s.tick.Load()
}

// View runs fn with read access to the world while no tick is in progress.
// fn must not mutate the world; writers go through the public operations.
func (s *Simulation) View(fn func(*ecs.World)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.World)
}

// Totals returns a copy of the global resource totals.
func (s *Simulation) Totals() components.ResourceAmounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Totals()
}

// SetTimeScale changes the clock's time scale.
func (s *Simulation) SetTimeScale(scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clock.Scale = scale
}

// TimeScale returns the clock's current time scale.
func (s *Simulation) TimeScale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Clock.Scale
}

// SetPaused pauses or resumes the clock.
func (s *Simulation) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clock.Paused = paused
}

// Paused reports whether the clock is paused.
func (s *Simulation) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Clock.Paused
}

// ElapsedTime returns the accumulated scaled simulation time in seconds.
func (s *Simulation) ElapsedTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Clock.Elapsed
}

// Events returns the recent event log.
func (s *Simulation) Events() []Record {
	return s.recorder.Recent()
}

// Watch registers a callback for every new event record. Callbacks run on
// the tick goroutine and must not block.
func (s *Simulation) Watch(fn func(Record)) {
	s.recorder.Watch(fn)
}

// SpawnCitizen creates a citizen entity with the given job at a position.
func (s *Simulation) SpawnCitizen(job components.JobType, pos components.Vec3) ecs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnCitizen(job, pos)
}

func (s *Simulation) spawnCitizen(job components.JobType, pos components.Vec3) ecs.Entity {
	e := s.World.CreateEntity()
	name := s.spawner.Name()

	ecs.Set(s.World, e, components.NewTransform(pos))
	ecs.Set(s.World, e, components.Velocity{MaxSpeed: s.cfg.Tuning.CitizenSpeed})
	ecs.Set(s.World, e, components.Citizen{
		Name:  name,
		State: components.StateIdle,
		Mood:  0.6 + s.rng.Float64()*0.3,
	})
	ecs.Set(s.World, e, components.JobAssignment{Job: job})
	ecs.Set(s.World, e, components.Inventory{
		Items:    make(components.ResourceAmounts),
		Capacity: 10,
	})

	slog.Info("citizen spawned", "citizen", e, "name", name, "job", job)
	events.Publish(s.Bus, events.CitizenSpawned{Citizen: e, Name: name, Job: job})
	return e
}

// PlaceBuilding queues a building placement; it takes effect at the
// placement point of the next tick.
func (s *Simulation) PlaceBuilding(t components.BuildingType, pos components.Vec3) {
	s.placement.Place(t, pos)
}

// DemolishBuilding queues a building demolition.
func (s *Simulation) DemolishBuilding(b ecs.Entity) {
	s.placement.Demolish(b)
}

// SeedBuilding creates an already-constructed building directly, bypassing
// the construction pipeline. Used for the starting colony and by Restore.
func (s *Simulation) SeedBuilding(t components.BuildingType, pos components.Vec3) ecs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedBuilding(t, pos)
}

func (s *Simulation) seedBuilding(t components.BuildingType, pos components.Vec3) ecs.Entity {
	spec := s.cfg.Building(t)
	b := s.World.CreateEntity()
	ecs.Set(s.World, b, components.NewTransform(pos))
	ecs.Set(s.World, b, components.Building{
		Type:        t,
		Constructed: true,
		MaxWorkers:  spec.WorkerSlots,
	})
	if spec.StorageCapacity > 0 {
		ecs.Set(s.World, b, components.Storage{
			Contents: make(components.ResourceAmounts),
			Capacity: spec.StorageCapacity,
		})
	}
	return b
}

// SeedNode creates a resource node entity.
func (s *Simulation) SeedNode(n worldgen.Node) ecs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedNode(n)
}

func (s *Simulation) seedNode(n worldgen.Node) ecs.Entity {
	e := s.World.CreateEntity()
	ecs.Set(s.World, e, components.NewTransform(n.Position))
	ecs.Set(s.World, e, components.ResourceNode{
		Resource:    n.Resource,
		Amount:      n.Amount,
		MaxAmount:   n.MaxAmount,
		Regenerates: n.Regenerates,
	})
	return e
}

// GenerateWorld seeds a fresh colony: the resource-node layout for the
// configured seed, a constructed storehouse at the origin, and a small
// starting population.
func (s *Simulation) GenerateWorld() {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := worldgen.Generate(s.cfg.Seed, s.cfg.WorldGen)
	for _, n := range nodes {
		s.seedNode(n)
	}
	s.seedBuilding(components.BuildingStorehouse, components.Vec3{})

	starting := []components.JobType{
		components.JobWoodcutter,
		components.JobWoodcutter,
		components.JobQuarrier,
		components.JobFarmer,
		components.JobHauler,
	}
	for i, job := range starting {
		angle := float64(i) / float64(len(starting)) * 2 * math.Pi
		pos := components.Vec3{X: 3 * math.Cos(angle), Z: 3 * math.Sin(angle)}
		s.spawnCitizen(job, pos)
	}

	slog.Info("world generated", "seed", s.cfg.Seed,
		"nodes", len(nodes), "citizens", len(starting))
}
