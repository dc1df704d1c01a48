package systems

import (
	"log/slog"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// Construction advances building sites. Each tick it stocks sites with
// materials withdrawn from the global ledger, accrues build progress for
// every worker in proximity of a fully stocked site, and completes the
// building once progress reaches the required build time: the site component
// is removed, the constructed flag flips, the completion event fires exactly
// once, and every worker targeting the building is released back to Idle.
// Workers whose target site has disappeared for any reason are released
// defensively rather than left stuck.
type Construction struct {
	clock  *Clock
	bus    *events.Bus
	cfg    *config.Config
	ledger *ResourceLedger
}

func NewConstruction(clock *Clock, bus *events.Bus, cfg *config.Config, ledger *ResourceLedger) *Construction {
	return &Construction{clock: clock, bus: bus, cfg: cfg, ledger: ledger}
}

func (s *Construction) Name() string  { return "construction" }
func (s *Construction) Enabled() bool { return true }

func (s *Construction) Update(w *ecs.World, dt float64) {
	sdt := s.clock.ScaledDt(dt)
	if sdt == 0 {
		return
	}

	s.tendWorkers(w)

	prox := s.cfg.Tuning.ProximityRadius
	ecs.Each(w, func(b ecs.Entity, site components.ConstructionSite) {
		if !site.Stocked() {
			for res, need := range site.Required {
				missing := need - site.Delivered.Get(res)
				if missing > 0 {
					site.Delivered.Add(res, s.ledger.Withdraw(res, missing))
				}
			}
			ecs.Set(w, b, site)
			if !site.Stocked() {
				return
			}
		}

		sitePos, ok := position(w, b)
		if !ok {
			return
		}

		// Every worker in proximity contributes its full delta.
		progress := 0.0
		ecs.Each(w, func(worker ecs.Entity, cw components.ConstructionWork) {
			if cw.Target != b {
				return
			}
			pos, ok := position(w, worker)
			if !ok || pos.DistSqXZ(sitePos) > prox*prox {
				return
			}
			transition(w, s.bus, worker, components.StateBuilding)
			progress += sdt
		})
		if progress == 0 {
			return
		}

		site.BuildProgress += progress
		if site.BuildProgress < site.BuildTime {
			ecs.Set(w, b, site)
			return
		}

		s.complete(w, b)
	})
}

// tendWorkers re-paths workers toward their site and releases any worker
// whose target building or site no longer exists.
func (s *Construction) tendWorkers(w *ecs.World) {
	prox := s.cfg.Tuning.ProximityRadius
	ecs.Each(w, func(e ecs.Entity, cw components.ConstructionWork) {
		if !w.IsAlive(cw.Target) || !ecs.Has[components.ConstructionSite](w, cw.Target) {
			ecs.Remove[components.ConstructionWork](w, e)
			transition(w, s.bus, e, components.StateIdle)
			return
		}
		if ecs.Has[components.PathFollow](w, e) {
			return
		}
		pos, ok := position(w, e)
		if !ok {
			return
		}
		sitePos, ok := position(w, cw.Target)
		if !ok {
			return
		}
		if pos.DistSqXZ(sitePos) > prox*prox {
			directPath(w, e, pos, sitePos)
			transition(w, s.bus, e, components.StateWalking)
		}
	})
}

// complete finishes a building. The site is removed before the event fires,
// so repeated ticks cannot re-emit the completion.
func (s *Construction) complete(w *ecs.World, b ecs.Entity) {
	ecs.Remove[components.ConstructionSite](w, b)

	bld, ok := ecs.Get[components.Building](w, b)
	if !ok {
		return
	}
	bld.Constructed = true
	ecs.Set(w, b, bld)

	// Release everyone still targeting the finished building.
	ecs.Each(w, func(worker ecs.Entity, cw components.ConstructionWork) {
		if cw.Target != b {
			return
		}
		ecs.Remove[components.ConstructionWork](w, worker)
		transition(w, s.bus, worker, components.StateIdle)
	})

	slog.Info("construction completed", "building", b, "type", bld.Type)
	events.Publish(s.bus, events.ConstructionCompleted{Building: b, Type: bld.Type})
}
