package systems

import (
	"log/slog"
	"sort"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// AutoBuilder drafts citizens onto fresh construction sites and restores them
// afterwards. On building placement it picks the nearest idle citizens
// (falling back to any citizen not already building), records their prior job
// in a TemporaryBuilder marker, and reassigns them to Builder with a
// ConstructionWork marker. On completion or demolition every drafted citizen
// is restored to the recorded job. A citizen whose job was manually changed
// away from Builder is treated as a player override and silently dropped from
// future restoration.
type AutoBuilder struct {
	clock *Clock
	bus   *events.Bus
	cfg   *config.Config

	pending  []ecs.Entity // buildings awaiting worker assignment
	releases []ecs.Entity // buildings whose workers should be restored
}

func NewAutoBuilder(clock *Clock, bus *events.Bus, cfg *config.Config) *AutoBuilder {
	s := &AutoBuilder{clock: clock, bus: bus, cfg: cfg}
	events.Subscribe(bus, func(ev events.BuildingPlaced) {
		s.pending = append(s.pending, ev.Building)
	})
	events.Subscribe(bus, func(ev events.ConstructionCompleted) {
		s.releases = append(s.releases, ev.Building)
	})
	events.Subscribe(bus, func(ev events.BuildingDestroyRequested) {
		s.releases = append(s.releases, ev.Building)
	})
	return s
}

func (s *AutoBuilder) Name() string  { return "auto_builder" }
func (s *AutoBuilder) Enabled() bool { return true }

func (s *AutoBuilder) Update(w *ecs.World, dt float64) {
	if s.clock.ScaledDt(dt) == 0 {
		return
	}

	// Player overrides: a temporary builder whose job no longer reads Builder
	// was reassigned by hand and is released from auto-restoration.
	ecs.Each(w, func(e ecs.Entity, tb components.TemporaryBuilder) {
		job, ok := ecs.Get[components.JobAssignment](w, e)
		if !ok || job.Job != components.JobBuilder {
			ecs.Remove[components.TemporaryBuilder](w, e)
			return
		}
		// Defensive restore when the target vanished without an event.
		if !w.IsAlive(tb.Target) || !ecs.Has[components.ConstructionSite](w, tb.Target) {
			s.restore(w, e, tb)
		}
	})

	for _, b := range s.releases {
		s.releaseFor(w, b)
	}
	s.releases = s.releases[:0]

	for _, b := range s.pending {
		s.assign(w, b)
	}
	s.pending = s.pending[:0]
}

// assign drafts workers for a newly placed building.
func (s *AutoBuilder) assign(w *ecs.World, b ecs.Entity) {
	if !w.IsAlive(b) || !ecs.Has[components.ConstructionSite](w, b) {
		return
	}
	bld, ok := ecs.Get[components.Building](w, b)
	if !ok {
		return
	}
	sitePos, ok := position(w, b)
	if !ok {
		return
	}

	slots := bld.MaxWorkers
	if slots <= 0 {
		slots = 1
	}

	type candidate struct {
		entity ecs.Entity
		dist   float64
		idle   bool
	}
	var candidates []candidate
	ecs.Each(w, func(e ecs.Entity, cit components.Citizen) {
		if cit.State == components.StateBuilding ||
			ecs.Has[components.ConstructionWork](w, e) ||
			ecs.Has[components.Carry](w, e) {
			return
		}
		if !ecs.Has[components.JobAssignment](w, e) {
			return
		}
		pos, ok := position(w, e)
		if !ok {
			return
		}
		candidates = append(candidates, candidate{
			entity: e,
			dist:   sitePos.DistSqXZ(pos),
			idle:   cit.State == components.StateIdle,
		})
	})

	// Idle citizens first, then nearest.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].idle != candidates[j].idle {
			return candidates[i].idle
		}
		return candidates[i].dist < candidates[j].dist
	})
	if len(candidates) > slots {
		candidates = candidates[:slots]
	}

	for _, c := range candidates {
		s.draft(w, c.entity, b, &bld)
	}
	ecs.Set(w, b, bld)
}

// draft reassigns one citizen onto the site.
func (s *AutoBuilder) draft(w *ecs.World, e, b ecs.Entity, bld *components.Building) {
	job, ok := ecs.Get[components.JobAssignment](w, e)
	if !ok {
		return
	}

	// Clear whatever task was in flight.
	ecs.Remove[components.PathFollow](w, e)
	ecs.Remove[components.Gathering](w, e)

	ecs.Set(w, e, components.TemporaryBuilder{Target: b, PreviousJob: job.Job})
	job.Job = components.JobBuilder
	ecs.Set(w, e, job)
	ecs.Set(w, e, components.ConstructionWork{Target: b})
	bld.Workers = append(bld.Workers, e)

	if pos, ok := position(w, e); ok {
		if sitePos, ok := position(w, b); ok {
			directPath(w, e, pos, sitePos)
			transition(w, s.bus, e, components.StateWalking)
		}
	}
	slog.Debug("citizen drafted for construction", "citizen", e, "building", b)
}

// releaseFor restores every temporary builder that targeted the building.
func (s *AutoBuilder) releaseFor(w *ecs.World, b ecs.Entity) {
	ecs.Each(w, func(e ecs.Entity, tb components.TemporaryBuilder) {
		if tb.Target != b {
			return
		}
		s.restore(w, e, tb)
	})
	if bld, ok := ecs.Get[components.Building](w, b); ok && len(bld.Workers) > 0 {
		bld.Workers = nil
		ecs.Set(w, b, bld)
	}
}

// restore returns one citizen to its recorded job and drops the markers.
func (s *AutoBuilder) restore(w *ecs.World, e ecs.Entity, tb components.TemporaryBuilder) {
	if job, ok := ecs.Get[components.JobAssignment](w, e); ok && job.Job == components.JobBuilder {
		job.Job = tb.PreviousJob
		ecs.Set(w, e, job)
	}
	ecs.Remove[components.TemporaryBuilder](w, e)
	ecs.Remove[components.ConstructionWork](w, e)

	if cit, ok := ecs.Get[components.Citizen](w, e); ok {
		switch cit.State {
		case components.StateBuilding, components.StateWalking:
			transition(w, s.bus, e, components.StateIdle)
		}
	}
}
