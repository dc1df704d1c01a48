package ecs

import (
	"errors"
	"sort"
	"testing"
)

// --- Test Components ---
type Position struct{ X, Y, Z float64 }
type Velocity struct{ VX, VZ float64 }
type Health struct{ Current, Max int }
type Tag struct{}

func TestAllocatorRecyclesWithHigherGeneration(t *testing.T) {
	a := NewAllocator()
	e1 := a.Allocate()
	if !a.Alive(e1) {
		t.Fatal("freshly allocated entity should be alive")
	}

	a.Free(e1)
	if a.Alive(e1) {
		t.Fatal("entity should be dead immediately after free")
	}

	e2 := a.Allocate()
	if e2.Index() != e1.Index() {
		t.Errorf("expected index %d to be recycled, got %d", e1.Index(), e2.Index())
	}
	if e2.Generation() <= e1.Generation() {
		t.Errorf("recycled generation %d not greater than freed generation %d",
			e2.Generation(), e1.Generation())
	}
	if a.Alive(e1) {
		t.Error("stale identity must stay dead after its index is recycled")
	}
	if !a.Alive(e2) {
		t.Error("recycled identity should be alive")
	}
}

func TestAllocatorFreeAllocSequences(t *testing.T) {
	a := NewAllocator()
	issued := make([]Entity, 0, 16)
	for i := 0; i < 8; i++ {
		issued = append(issued, a.Allocate())
	}
	for _, e := range issued {
		a.Free(e)
	}
	for i := 0; i < 8; i++ {
		fresh := a.Allocate()
		for _, old := range issued {
			if fresh == old {
				t.Fatalf("allocation returned an identity that was previously issued: %v", old)
			}
		}
	}
}

func TestStoreCRUD(t *testing.T) {
	s := NewStore[Position]()
	e := makeEntity(1, 0)

	if s.Has(e) {
		t.Fatal("empty store should not have entity")
	}
	if _, ok := s.Get(e); ok {
		t.Fatal("Get on absent entity should report not present")
	}
	if s.Remove(e) {
		t.Fatal("Remove on absent entity should return false")
	}

	s.Set(e, Position{X: 1, Z: 2})
	if !s.Has(e) || s.Len() != 1 {
		t.Fatal("store should hold one component after Set")
	}
	p, ok := s.Get(e)
	if !ok || p.X != 1 || p.Z != 2 {
		t.Errorf("unexpected component value %+v", p)
	}

	if !s.Remove(e) {
		t.Fatal("Remove on present entity should return true")
	}
	if s.Len() != 0 {
		t.Fatal("store should be empty after Remove")
	}
}

func TestWorldDestroyPurgesAllStores(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	if err := Set(w, e, Position{X: 5}); err != nil {
		t.Fatal(err)
	}
	if err := Set(w, e, Health{Current: 10, Max: 10}); err != nil {
		t.Fatal(err)
	}

	w.DestroyEntity(e)

	if w.IsAlive(e) {
		t.Fatal("entity should be dead after destroy")
	}
	if Has[Position](w, e) || Has[Health](w, e) {
		t.Fatal("destroy must purge every component store")
	}

	// Idempotent: a second destroy of the same identity is a no-op even after
	// the index has been recycled.
	e2 := w.CreateEntity()
	if err := Set(w, e2, Position{X: 9}); err != nil {
		t.Fatal(err)
	}
	w.DestroyEntity(e)
	if !w.IsAlive(e2) {
		t.Fatal("stale destroy must not affect the recycled entity")
	}
	if !Has[Position](w, e2) {
		t.Fatal("stale destroy must not purge the recycled entity's components")
	}
}

func TestSetOnDeadEntityFails(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.DestroyEntity(e)

	err := Set(w, e, Position{})
	if !errors.Is(err, ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}
}

func sortEntities(es []Entity) {
	sort.Slice(es, func(i, j int) bool { return es[i] < es[j] })
}

func TestQueryIntersection(t *testing.T) {
	w := NewWorld()

	both := make([]Entity, 0, 3)
	for i := 0; i < 3; i++ {
		e := w.CreateEntity()
		Set(w, e, Position{})
		Set(w, e, Velocity{})
		both = append(both, e)
	}
	for i := 0; i < 4; i++ {
		e := w.CreateEntity()
		Set(w, e, Position{})
	}
	for i := 0; i < 2; i++ {
		e := w.CreateEntity()
		Set(w, e, Velocity{})
	}

	got := w.Query(T[Position](), T[Velocity]())
	if len(got) != len(both) {
		t.Fatalf("expected %d entities, got %d", len(both), len(got))
	}
	sortEntities(got)
	sortEntities(both)
	for i := range both {
		if got[i] != both[i] {
			t.Fatalf("expected %v, got %v", both, got)
		}
	}

	// Input store order must not change the resulting set.
	reversed := w.Query(T[Velocity](), T[Position]())
	sortEntities(reversed)
	for i := range both {
		if reversed[i] != both[i] {
			t.Fatalf("query result depends on input order: %v vs %v", got, reversed)
		}
	}

	// Idempotent.
	again := w.Query(T[Position](), T[Velocity]())
	if len(again) != len(got) {
		t.Fatal("repeated query changed the result size")
	}
}

func TestQueryEdgeCases(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	Set(w, e, Position{})

	if got := w.Query(); got != nil {
		t.Errorf("query with zero stores should be empty, got %v", got)
	}
	if got := w.Query(T[Position](), T[Tag]()); got != nil {
		t.Errorf("query with an unknown component type should be empty, got %v", got)
	}
}

// --- System ordering ---

type recordingSystem struct {
	name    string
	active  bool
	order   *[]string
	lastDt  float64
}

func (r *recordingSystem) Name() string    { return r.name }
func (r *recordingSystem) Enabled() bool   { return r.active }
func (r *recordingSystem) Update(w *World, dt float64) {
	r.lastDt = dt
	*r.order = append(*r.order, r.name)
}

func TestStepRunsSystemsInRegistrationOrder(t *testing.T) {
	w := NewWorld()
	var order []string
	a := &recordingSystem{name: "a", active: true, order: &order}
	b := &recordingSystem{name: "b", active: false, order: &order}
	c := &recordingSystem{name: "c", active: true, order: &order}
	w.AddSystem(a)
	w.AddSystem(b)
	w.AddSystem(c)

	w.Step(0.5)
	w.Step(0.5)

	want := []string{"a", "c", "a", "c"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
	if a.lastDt != 0.5 {
		t.Errorf("expected dt 0.5, got %f", a.lastDt)
	}
	if b.lastDt != 0 {
		t.Error("disabled system must not be updated")
	}

	if !w.RemoveSystem("c") {
		t.Fatal("RemoveSystem should report the system was present")
	}
	order = order[:0]
	w.Step(1)
	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("expected only system a after removal, got %v", order)
	}
}
