package game

import (
	"fmt"
	"sync"

	"github.com/talgya/hearthfall/internal/events"
)

// recorderCap bounds the in-memory event log.
const recorderCap = 1000

// Record is one human-readable entry in the simulation event log.
type Record struct {
	Tick     uint64 `json:"tick"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Recorder subscribes to every gameplay event and keeps a bounded log of
// recent entries for the API and the console. Entries are appended on the
// tick goroutine and read from HTTP handlers, so the log carries its own
// lock.
type Recorder struct {
	tick func() uint64

	mu      sync.Mutex
	entries []Record
	watch   []func(Record)
}

func NewRecorder(bus *events.Bus, tick func() uint64) *Recorder {
	r := &Recorder{tick: tick}

	events.Subscribe(bus, func(e events.CitizenSpawned) {
		r.add("citizen", "%s arrived as a %s", e.Name, e.Job)
	})
	events.Subscribe(bus, func(e events.CitizenStateChanged) {
		r.add("citizen", "citizen %d: %s -> %s", e.Citizen.Index(), e.Old, e.New)
	})
	events.Subscribe(bus, func(e events.ResourceGathered) {
		r.add("resource", "citizen %d gathered %d %s", e.Citizen.Index(), e.Amount, e.Resource)
	})
	events.Subscribe(bus, func(e events.ResourceDelivered) {
		r.add("resource", "citizen %d delivered %d %s", e.Citizen.Index(), e.Amount, e.Resource)
	})
	events.Subscribe(bus, func(e events.ResourceNodeDepleted) {
		r.add("resource", "%s node %d depleted", e.Resource, e.Node.Index())
	})
	events.Subscribe(bus, func(e events.ResourceNodeRespawned) {
		r.add("resource", "%s node %d respawned", e.Resource, e.Node.Index())
	})
	events.Subscribe(bus, func(e events.BuildingPlaced) {
		r.add("building", "%s placed at (%.0f, %.0f)", e.Type, e.Position.X, e.Position.Z)
	})
	events.Subscribe(bus, func(e events.ConstructionCompleted) {
		r.add("building", "%s construction completed", e.Type)
	})
	events.Subscribe(bus, func(e events.BuildingDemolished) {
		r.add("building", "%s demolished", e.Type)
	})

	return r
}

func (r *Recorder) add(category, format string, args ...any) {
	rec := Record{
		Tick:     r.tick(),
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, rec)
	if len(r.entries) > recorderCap {
		r.entries = r.entries[len(r.entries)-recorderCap:]
	}
	for _, fn := range r.watch {
		fn(rec)
	}
}

// Recent returns a copy of the logged entries, oldest first.
func (r *Recorder) Recent() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.entries))
	copy(out, r.entries)
	return out
}

// Watch registers a callback invoked for every new record. Callbacks run on
// the tick goroutine and must not block.
func (r *Recorder) Watch(fn func(Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watch = append(r.watch, fn)
}
