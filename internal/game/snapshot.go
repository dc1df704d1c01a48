package game

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/persistence"
)

// Persisted component names. Transient task markers (path_follow, gathering,
// construction_work, temporary_builder) are deliberately absent: citizens
// restore mid-task as Idle and re-plan on the first tick.
const (
	compTransform        = "transform"
	compVelocity         = "velocity"
	compCitizen          = "citizen"
	compJobAssignment    = "job_assignment"
	compInventory        = "inventory"
	compCarry            = "carry"
	compStorage          = "storage"
	compResourceNode     = "resource_node"
	compDepletedResource = "depleted_resource"
	compBuilding         = "building"
	compConstructionSite = "construction_site"
)

// Snapshot captures the current simulation state for persistence. It holds
// the read lock for the duration, so it can run while the tick loop is live.
func (s *Simulation) Snapshot() (*persistence.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make(map[ecs.Entity]*persistence.EntityRecord)
	var order []ecs.Entity

	record := func(e ecs.Entity, name string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s for entity %d: %w", name, e.Index(), err)
		}
		rec, ok := records[e]
		if !ok {
			rec = &persistence.EntityRecord{
				Entity:     uint64(e),
				Components: make(map[string]json.RawMessage),
			}
			records[e] = rec
			order = append(order, e)
		}
		rec.Components[name] = payload
		return nil
	}

	var err error
	collect := func(e ecs.Entity, name string, v any) {
		if err == nil {
			err = record(e, name, v)
		}
	}

	ecs.Each(s.World, func(e ecs.Entity, c components.Transform) { collect(e, compTransform, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.Velocity) { collect(e, compVelocity, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.Citizen) {
		// Mid-task behavioral states do not survive a restore; the citizen
		// re-plans from Idle.
		c.State = components.StateIdle
		collect(e, compCitizen, c)
	})
	ecs.Each(s.World, func(e ecs.Entity, c components.JobAssignment) { collect(e, compJobAssignment, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.Inventory) { collect(e, compInventory, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.Carry) { collect(e, compCarry, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.Storage) { collect(e, compStorage, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.ResourceNode) { collect(e, compResourceNode, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.DepletedResource) { collect(e, compDepletedResource, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.Building) { collect(e, compBuilding, c) })
	ecs.Each(s.World, func(e ecs.Entity, c components.ConstructionSite) { collect(e, compConstructionSite, c) })
	if err != nil {
		return nil, err
	}

	snap := &persistence.Snapshot{
		Version:   persistence.Version,
		Tick:      s.tick.Load(),
		Seed:      s.cfg.Seed,
		TimeScale: s.Clock.Scale,
		Paused:    s.Clock.Paused,
		Totals:    make(map[string]int),
	}
	for _, e := range order {
		snap.Entities = append(snap.Entities, *records[e])
	}
	for res, n := range s.ledger.Totals() {
		snap.Totals[string(res)] = n
	}
	return snap, nil
}

// Restore rebuilds simulation state from a snapshot. It must be called on a
// fresh simulation, before any stepping. Entity ids are remapped: a first
// pass allocates a live entity per record, a second pass decodes components
// and rewrites stored entity references through the remap table.
func (s *Simulation) Restore(snap *persistence.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remap := make(map[uint64]ecs.Entity, len(snap.Entities))
	for _, rec := range snap.Entities {
		remap[rec.Entity] = s.World.CreateEntity()
	}

	for _, rec := range snap.Entities {
		e := remap[rec.Entity]
		for name, payload := range rec.Components {
			if err := s.restoreComponent(e, name, payload, remap); err != nil {
				return fmt.Errorf("entity %d: %w", rec.Entity, err)
			}
		}
	}

	s.tick.Store(snap.Tick)
	s.Clock.Scale = snap.TimeScale
	s.Clock.Paused = snap.Paused

	totals := make(components.ResourceAmounts, len(snap.Totals))
	for res, n := range snap.Totals {
		totals[components.ResourceType(res)] = n
	}
	s.ledger.SetTotals(totals)

	slog.Info("snapshot restored", "id", snap.ID, "tick", snap.Tick,
		"entities", len(snap.Entities))
	return nil
}

func (s *Simulation) restoreComponent(e ecs.Entity, name string, payload []byte, remap map[uint64]ecs.Entity) error {
	decode := func(v any) error {
		if err := json.Unmarshal(payload, v); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	}

	switch name {
	case compTransform:
		var c components.Transform
		if err := decode(&c); err != nil {
			return err
		}
		return ecs.Set(s.World, e, c)
	case compVelocity:
		var c components.Velocity
		if err := decode(&c); err != nil {
			return err
		}
		return ecs.Set(s.World, e, c)
	case compCitizen:
		var c components.Citizen
		if err := decode(&c); err != nil {
			return err
		}
		return ecs.Set(s.World, e, c)
	case compJobAssignment:
		var c components.JobAssignment
		if err := decode(&c); err != nil {
			return err
		}
		c.Workplace = remap[uint64(c.Workplace)]
		return ecs.Set(s.World, e, c)
	case compInventory:
		var c components.Inventory
		if err := decode(&c); err != nil {
			return err
		}
		if c.Items == nil {
			c.Items = make(components.ResourceAmounts)
		}
		return ecs.Set(s.World, e, c)
	case compCarry:
		var c components.Carry
		if err := decode(&c); err != nil {
			return err
		}
		return ecs.Set(s.World, e, c)
	case compStorage:
		var c components.Storage
		if err := decode(&c); err != nil {
			return err
		}
		if c.Contents == nil {
			c.Contents = make(components.ResourceAmounts)
		}
		return ecs.Set(s.World, e, c)
	case compResourceNode:
		var c components.ResourceNode
		if err := decode(&c); err != nil {
			return err
		}
		return ecs.Set(s.World, e, c)
	case compDepletedResource:
		var c components.DepletedResource
		if err := decode(&c); err != nil {
			return err
		}
		return ecs.Set(s.World, e, c)
	case compBuilding:
		var c components.Building
		if err := decode(&c); err != nil {
			return err
		}
		workers := c.Workers[:0]
		for _, w := range c.Workers {
			if mapped, ok := remap[uint64(w)]; ok {
				workers = append(workers, mapped)
			}
		}
		c.Workers = workers
		return ecs.Set(s.World, e, c)
	case compConstructionSite:
		var c components.ConstructionSite
		if err := decode(&c); err != nil {
			return err
		}
		if c.Required == nil {
			c.Required = make(components.ResourceAmounts)
		}
		if c.Delivered == nil {
			c.Delivered = make(components.ResourceAmounts)
		}
		return ecs.Set(s.World, e, c)
	default:
		// Unknown names are tolerated so older builds can load snapshots
		// written by the same format version with extra component types.
		slog.Warn("skipping unknown component in snapshot", "component", name)
		return nil
	}
}
