package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

// ResourceLedger tracks the colony's global resource totals. It subscribes
// exclusively to the delivered event, so totals can only ever increase
// through a completed delivery; construction and consumption draw them back
// down through Withdraw.
type ResourceLedger struct {
	totals components.ResourceAmounts
}

func NewResourceLedger(bus *events.Bus) *ResourceLedger {
	l := &ResourceLedger{totals: make(components.ResourceAmounts)}
	events.Subscribe(bus, func(ev events.ResourceDelivered) {
		l.totals.Add(ev.Resource, ev.Amount)
	})
	return l
}

func (l *ResourceLedger) Name() string  { return "resource_ledger" }
func (l *ResourceLedger) Enabled() bool { return true }

// Update is intentionally empty: the ledger mutates through the delivered
// event and Withdraw, not per tick. It stays in the pipeline so its position
// in the registration order is explicit.
func (l *ResourceLedger) Update(w *ecs.World, dt float64) {}

// Withdraw removes up to n units of the resource and returns how many were
// actually taken.
func (l *ResourceLedger) Withdraw(t components.ResourceType, n int) int {
	have := l.totals.Get(t)
	if n > have {
		n = have
	}
	if n > 0 {
		l.totals.Add(t, -n)
	}
	return n
}

// Total returns the stored amount of one resource.
func (l *ResourceLedger) Total(t components.ResourceType) int {
	return l.totals.Get(t)
}

// Totals returns a copy of all totals.
func (l *ResourceLedger) Totals() components.ResourceAmounts {
	return l.totals.Clone()
}

// SetTotals replaces the ledger contents. Used when restoring a snapshot.
func (l *ResourceLedger) SetTotals(t components.ResourceAmounts) {
	l.totals = t.Clone()
}
