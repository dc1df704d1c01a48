package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidEntity is returned when a caller operates on a dead or unknown
// entity identity.
var ErrInvalidEntity = errors.New("ecs: invalid entity")

// World owns the entity allocator, the component registry, and an ordered
// list of systems. It is the single mutable state of the simulation and is
// only ever touched from one goroutine; Step runs every enabled system to
// completion, strictly in registration order, once per call.
type World struct {
	allocator *Allocator
	registry  *Registry
	systems   []System
}

// NewWorld creates an empty world with no systems.
func NewWorld() *World {
	return &World{
		allocator: NewAllocator(),
		registry:  NewRegistry(),
	}
}

// CreateEntity allocates a fresh entity with no components.
func (w *World) CreateEntity() Entity {
	return w.allocator.Allocate()
}

// DestroyEntity purges every component for the entity and frees its identity.
// Destroying an entity that is not alive is a no-op, so callers holding stale
// references can destroy defensively.
func (w *World) DestroyEntity(e Entity) {
	if !w.allocator.Alive(e) {
		return
	}
	w.registry.removeEntity(e)
	w.allocator.Free(e)
}

// IsAlive reports whether the identity is current. Component back-references
// must be checked with IsAlive before dereferencing; a stale reference means
// "no target", not an error.
func (w *World) IsAlive(e Entity) bool {
	return w.allocator.Alive(e)
}

// Query returns the entities present in every listed component store. Zero
// types, or any type that has never been stored, yields an empty result.
func (w *World) Query(types ...reflect.Type) []Entity {
	if len(types) == 0 {
		return nil
	}
	stores := make([]storeView, 0, len(types))
	for _, t := range types {
		s, ok := w.registry.view(t)
		if !ok {
			return nil
		}
		stores = append(stores, s)
	}
	return intersect(stores)
}

// AddSystem appends a system to the execution order. Registration order is a
// load-bearing contract; systems must not assume it changes at runtime.
func (w *World) AddSystem(s System) {
	w.systems = append(w.systems, s)
}

// RemoveSystem removes the named system and reports whether it was present.
func (w *World) RemoveSystem(name string) bool {
	for i, s := range w.systems {
		if s.Name() == name {
			w.systems = append(w.systems[:i], w.systems[i+1:]...)
			return true
		}
	}
	return false
}

// Step runs every enabled system once, synchronously, in registration order.
func (w *World) Step(dt float64) {
	for _, s := range w.systems {
		if s.Enabled() {
			s.Update(w, dt)
		}
	}
}

// Set attaches or replaces a component on a live entity. Attaching to a dead
// entity fails with ErrInvalidEntity immediately; it is never retried.
func Set[C any](w *World, e Entity, value C) error {
	if !w.allocator.Alive(e) {
		return fmt.Errorf("%w: %d (gen %d)", ErrInvalidEntity, e.Index(), e.Generation())
	}
	registryStore[C](w.registry).Set(e, value)
	return nil
}

// Get returns the entity's component of type C, if present.
func Get[C any](w *World, e Entity) (C, bool) {
	return registryStore[C](w.registry).Get(e)
}

// Has reports whether the entity has a component of type C.
func Has[C any](w *World, e Entity) bool {
	return registryStore[C](w.registry).Has(e)
}

// Remove detaches the entity's component of type C and reports whether one
// existed.
func Remove[C any](w *World, e Entity) bool {
	return registryStore[C](w.registry).Remove(e)
}

// Each iterates all components of type C. fn receives a copy; write back with
// Set. Removing entries during iteration is safe; entries added during
// iteration may or may not be visited.
func Each[C any](w *World, fn func(Entity, C)) {
	registryStore[C](w.registry).Each(fn)
}

// Count returns the number of entities holding a component of type C.
func Count[C any](w *World) int {
	return registryStore[C](w.registry).Len()
}
