package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// Delivery completes the haul: a Delivering citizen within proximity of the
// nearest constructed storage building transfers the full carried amount into
// its storage, empties the matching slot of its inventory, drops the Carry
// component, and returns to Idle. The published ResourceDelivered event is
// the only way global resource totals increase.
type Delivery struct {
	clock *Clock
	bus   *events.Bus
	cfg   *config.Config
}

func NewDelivery(clock *Clock, bus *events.Bus, cfg *config.Config) *Delivery {
	return &Delivery{clock: clock, bus: bus, cfg: cfg}
}

func (s *Delivery) Name() string  { return "delivery" }
func (s *Delivery) Enabled() bool { return true }

func (s *Delivery) Update(w *ecs.World, dt float64) {
	if s.clock.ScaledDt(dt) == 0 {
		return
	}
	prox := s.cfg.Tuning.ProximityRadius

	ecs.Each(w, func(e ecs.Entity, carry components.Carry) {
		cit, ok := ecs.Get[components.Citizen](w, e)
		if !ok || cit.State != components.StateDelivering {
			return
		}
		if ecs.Has[components.PathFollow](w, e) {
			return
		}
		pos, ok := position(w, e)
		if !ok {
			return
		}

		store, storePos, found := nearestStorage(w, pos)
		if !found {
			// No storage left standing; hold the load and retry next tick.
			return
		}
		if pos.DistSqXZ(storePos) > prox*prox {
			directPath(w, e, pos, storePos)
			return
		}

		st, ok := ecs.Get[components.Storage](w, store)
		if !ok {
			return
		}
		st.Contents.Add(carry.Resource, carry.Amount)
		ecs.Set(w, store, st)

		if inv, ok := ecs.Get[components.Inventory](w, e); ok && inv.Items != nil {
			inv.Items.Add(carry.Resource, -carry.Amount)
			ecs.Set(w, e, inv)
		}

		ecs.Remove[components.Carry](w, e)
		transition(w, s.bus, e, components.StateIdle)

		events.Publish(s.bus, events.ResourceDelivered{
			Citizen:  e,
			Building: store,
			Resource: carry.Resource,
			Amount:   carry.Amount,
		})
	})
}
