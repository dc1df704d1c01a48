// Package events provides the synchronous typed publish/subscribe bus that
// decouples simulation state changes from their side effects. The bus is an
// explicit dependency threaded through constructors; there is no package-level
// instance.
package events

import "reflect"

// Bus dispatches typed events to handlers registered per event type. All
// dispatch is synchronous and happens on the caller's goroutine; the bus is
// intended for the single-threaded simulation loop and takes no locks.
type Bus struct {
	handlers map[reflect.Type][]handler
	// fireOnce indexes one-shot subscription ids so Publish can drop them
	// without disturbing iteration over the main handler list.
	fireOnce map[uint64]struct{}
	nextID   uint64
}

type handler struct {
	id uint64
	fn any
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]handler),
		fireOnce: make(map[uint64]struct{}),
	}
}

// Subscribe registers a persistent handler for events of type E and returns a
// subscription id for Unsubscribe.
func Subscribe[E any](b *Bus, fn func(E)) uint64 {
	t := reflect.TypeFor[E]()
	b.nextID++
	b.handlers[t] = append(b.handlers[t], handler{id: b.nextID, fn: fn})
	return b.nextID
}

// SubscribeOnce registers a handler that is deregistered after its first
// invocation.
func SubscribeOnce[E any](b *Bus, fn func(E)) uint64 {
	id := Subscribe(b, fn)
	b.fireOnce[id] = struct{}{}
	return id
}

// Unsubscribe removes the handler with the given id for events of type E and
// reports whether it was registered.
func Unsubscribe[E any](b *Bus, id uint64) bool {
	t := reflect.TypeFor[E]()
	hs := b.handlers[t]
	for i, h := range hs {
		if h.id == id {
			b.handlers[t] = append(hs[:i], hs[i+1:]...)
			delete(b.fireOnce, id)
			return true
		}
	}
	return false
}

// Publish invokes every handler currently registered for type E, in
// subscription order. One-shot handlers are removed before their invocation,
// so a re-entrant Publish from inside a handler cannot fire them twice.
// Handlers registered during dispatch are not invoked for this event.
func Publish[E any](b *Bus, event E) {
	t := reflect.TypeFor[E]()
	hs := b.handlers[t]
	if len(hs) == 0 {
		return
	}

	// Snapshot the handler list: handlers may subscribe or unsubscribe while
	// we iterate, and re-entrant emission of the same type is legal.
	snapshot := make([]handler, len(hs))
	copy(snapshot, hs)

	for _, h := range snapshot {
		if _, once := b.fireOnce[h.id]; once {
			removeByID(b, t, h.id)
			delete(b.fireOnce, h.id)
		} else if !registered(b, t, h.id) {
			// A persistent handler removed by an earlier handler in this
			// dispatch is skipped.
			continue
		}
		h.fn.(func(E))(event)
	}
}

func removeByID(b *Bus, t reflect.Type, id uint64) {
	hs := b.handlers[t]
	for i, h := range hs {
		if h.id == id {
			b.handlers[t] = append(hs[:i], hs[i+1:]...)
			return
		}
	}
}

func registered(b *Bus, t reflect.Type, id uint64) bool {
	for _, h := range b.handlers[t] {
		if h.id == id {
			return true
		}
	}
	return false
}
