// Package ecs provides the entity-component-system substrate: generation-safe
// entity identities, per-type component stores, a query engine, and the World
// that ties them to an ordered list of systems.
package ecs

// Entity is an opaque identity packing a 32-bit index in the low half and a
// 32-bit generation in the high half. It is a single comparable scalar so it
// can be used directly as a map key. The zero Entity is never issued and acts
// as "no entity" in component back-references.
type Entity uint64

const (
	indexBits = 32
	indexMask = (1 << indexBits) - 1
)

func makeEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<indexBits | uint64(index))
}

// Index returns the recyclable slot index of the entity.
func (e Entity) Index() uint32 {
	return uint32(e & indexMask)
}

// Generation returns the generation counter the entity was issued with.
// A recycled index carries a higher generation, so stale identities compare
// unequal to the live one.
func (e Entity) Generation() uint32 {
	return uint32(e >> indexBits)
}

// IsZero reports whether e is the "no entity" value.
func (e Entity) IsZero() bool {
	return e == 0
}

// Allocator issues and recycles entity identities. Indices are reused after
// Free; the generation for a freed index is bumped so previously issued
// identities at that index stop being alive.
type Allocator struct {
	generations []uint32
	free        []uint32
}

// NewAllocator creates an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate returns a fresh identity: a recycled index at its current
// generation if one is free, otherwise a new index at generation 0.
// Index 0 is reserved so the zero Entity stays unissued.
func (a *Allocator) Allocate() Entity {
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		return makeEntity(index, a.generations[index])
	}
	if len(a.generations) == 0 {
		a.generations = append(a.generations, 1) // reserve index 0
	}
	index := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	return makeEntity(index, 0)
}

// Free returns an identity's index to the free list and bumps its generation.
// Freeing an identity that is not currently alive is the caller's bug; the
// allocator does not guard against double-free.
func (a *Allocator) Free(e Entity) {
	index := e.Index()
	a.generations[index]++
	a.free = append(a.free, index)
}

// Alive reports whether the identity's encoded generation matches the
// allocator's current generation for its index.
func (a *Allocator) Alive(e Entity) bool {
	index := e.Index()
	if index == 0 || int(index) >= len(a.generations) {
		return false
	}
	return a.generations[index] == e.Generation()
}
