package ecs

import "reflect"

// Store holds one component value per entity for a single component type.
type Store[T any] struct {
	items map[Entity]T
}

// NewStore creates an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{items: make(map[Entity]T)}
}

// Set inserts or replaces the component for an entity.
func (s *Store[T]) Set(e Entity, value T) {
	s.items[e] = value
}

// Get returns the component for an entity. Absence is a routine condition and
// is reported through the second return, never an error.
func (s *Store[T]) Get(e Entity) (T, bool) {
	v, ok := s.items[e]
	return v, ok
}

// Has reports whether the entity has a component in this store.
func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.items[e]
	return ok
}

// Remove deletes the entity's component and reports whether one existed.
func (s *Store[T]) Remove(e Entity) bool {
	if _, ok := s.items[e]; !ok {
		return false
	}
	delete(s.items, e)
	return true
}

// Each calls fn for every (entity, component) pair. Iteration order is
// unspecified. fn receives a copy of the component value; use Set to write
// back mutations.
func (s *Store[T]) Each(fn func(Entity, T)) {
	for e, v := range s.items {
		fn(e, v)
	}
}

// Clear removes all components.
func (s *Store[T]) Clear() {
	clear(s.items)
}

// Len returns the number of stored components.
func (s *Store[T]) Len() int {
	return len(s.items)
}

// storeView is the type-erased face of a Store used by the registry and the
// query engine.
type storeView interface {
	has(Entity) bool
	remove(Entity) bool
	each(func(Entity))
	clear()
	size() int
}

func (s *Store[T]) has(e Entity) bool    { return s.Has(e) }
func (s *Store[T]) remove(e Entity) bool { return s.Remove(e) }
func (s *Store[T]) clear()               { s.Clear() }
func (s *Store[T]) size() int            { return s.Len() }

func (s *Store[T]) each(fn func(Entity)) {
	for e := range s.items {
		fn(e)
	}
}

// Registry lazily creates one store per component type and fans entity
// removal out to all of them.
type Registry struct {
	stores map[reflect.Type]storeView
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[reflect.Type]storeView)}
}

// registryStore returns the store for T, creating it on first use.
func registryStore[T any](r *Registry) *Store[T] {
	t := reflect.TypeFor[T]()
	if v, ok := r.stores[t]; ok {
		return v.(*Store[T])
	}
	s := NewStore[T]()
	r.stores[t] = s
	return s
}

// view returns the type-erased store for t, if it has ever been created.
func (r *Registry) view(t reflect.Type) (storeView, bool) {
	v, ok := r.stores[t]
	return v, ok
}

// removeEntity purges the entity from every store.
func (r *Registry) removeEntity(e Entity) {
	for _, s := range r.stores {
		s.remove(e)
	}
}
