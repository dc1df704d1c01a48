package systems

import (
	"math/rand"
	"testing"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/events"
)

type fixture struct {
	w     *ecs.World
	bus   *events.Bus
	clock *Clock
	cfg   *config.Config
	rng   *rand.Rand
}

func newFixture() *fixture {
	return &fixture{
		w:     ecs.NewWorld(),
		bus:   events.NewBus(),
		clock: NewClock(1.0),
		cfg:   config.Default(),
		rng:   rand.New(rand.NewSource(1)),
	}
}

func (f *fixture) citizen(job components.JobType, pos components.Vec3) ecs.Entity {
	e := f.w.CreateEntity()
	ecs.Set(f.w, e, components.NewTransform(pos))
	ecs.Set(f.w, e, components.Velocity{MaxSpeed: f.cfg.Tuning.CitizenSpeed})
	ecs.Set(f.w, e, components.Citizen{Name: "test", State: components.StateIdle})
	ecs.Set(f.w, e, components.JobAssignment{Job: job})
	ecs.Set(f.w, e, components.Inventory{Items: make(components.ResourceAmounts), Capacity: 10})
	return e
}

func (f *fixture) node(res components.ResourceType, pos components.Vec3, amount int, regen bool) ecs.Entity {
	e := f.w.CreateEntity()
	ecs.Set(f.w, e, components.NewTransform(pos))
	ecs.Set(f.w, e, components.ResourceNode{
		Resource: res, Amount: amount, MaxAmount: amount, Regenerates: regen,
	})
	return e
}

func (f *fixture) storehouse(pos components.Vec3) ecs.Entity {
	e := f.w.CreateEntity()
	ecs.Set(f.w, e, components.NewTransform(pos))
	ecs.Set(f.w, e, components.Building{Type: components.BuildingStorehouse, Constructed: true})
	ecs.Set(f.w, e, components.Storage{Contents: make(components.ResourceAmounts), Capacity: 200})
	return e
}

func (f *fixture) state(t *testing.T, e ecs.Entity) components.CitizenState {
	t.Helper()
	cit, ok := ecs.Get[components.Citizen](f.w, e)
	if !ok {
		t.Fatalf("entity %d has no citizen component", e.Index())
	}
	return cit.State
}

func TestClockPauseAndScale(t *testing.T) {
	c := NewClock(2.0)
	if got := c.ScaledDt(0.5); got != 1.0 {
		t.Fatalf("ScaledDt(0.5) at scale 2 = %v, want 1.0", got)
	}
	c.Paused = true
	if got := c.ScaledDt(0.5); got != 0 {
		t.Fatalf("ScaledDt while paused = %v, want 0", got)
	}
	c.Update(nil, 0.5)
	if c.Elapsed != 0 {
		t.Fatalf("elapsed advanced while paused: %v", c.Elapsed)
	}
}

func TestNearestResourceNodeSkipsDepletedAndEmpty(t *testing.T) {
	f := newFixture()
	far := f.node(components.ResourceWood, components.Vec3{X: 10}, 5, true)
	near := f.node(components.ResourceWood, components.Vec3{X: 2}, 5, true)
	empty := f.node(components.ResourceWood, components.Vec3{X: 1}, 0, true)
	depleted := f.node(components.ResourceWood, components.Vec3{X: 1.5}, 5, true)
	ecs.Set(f.w, depleted, components.DepletedResource{RespawnDelay: 30})
	f.node(components.ResourceStone, components.Vec3{X: 0.5}, 5, true)

	got, _, found := nearestResourceNode(f.w, components.Vec3{}, components.ResourceWood)
	if !found {
		t.Fatal("expected a selectable wood node")
	}
	if got != near {
		t.Fatalf("picked node %d, want nearest selectable %d (far=%d empty=%d)",
			got.Index(), near.Index(), far.Index(), empty.Index())
	}
}

func TestJobAssignmentRoutesWoodcutter(t *testing.T) {
	f := newFixture()
	sys := NewJobAssignment(f.clock, f.bus, f.cfg, f.rng)
	node := f.node(components.ResourceWood, components.Vec3{X: 5}, 5, true)
	e := f.citizen(components.JobWoodcutter, components.Vec3{})

	sys.Update(f.w, 0.1)

	g, ok := ecs.Get[components.Gathering](f.w, e)
	if !ok {
		t.Fatal("woodcutter was not given a gathering task")
	}
	if g.Target != node {
		t.Fatalf("gathering target = %d, want %d", g.Target.Index(), node.Index())
	}
	if g.Resource != components.ResourceWood {
		t.Fatalf("gathering resource = %q, want wood", g.Resource)
	}
	if !ecs.Has[components.PathFollow](f.w, e) {
		t.Fatal("no path attached toward the node")
	}
	if got := f.state(t, e); got != components.StateWalking {
		t.Fatalf("state = %q, want walking", got)
	}
}

func TestJobAssignmentLeavesWoodcutterWithoutNodes(t *testing.T) {
	f := newFixture()
	sys := NewJobAssignment(f.clock, f.bus, f.cfg, f.rng)
	e := f.citizen(components.JobWoodcutter, components.Vec3{})

	sys.Update(f.w, 0.1)

	if ecs.Has[components.Gathering](f.w, e) || ecs.Has[components.PathFollow](f.w, e) {
		t.Fatal("woodcutter should stay untouched when no node exists")
	}
	if got := f.state(t, e); got != components.StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}
}

func TestJobAssignmentFarmerTargetsConstructedFarm(t *testing.T) {
	f := newFixture()
	sys := NewJobAssignment(f.clock, f.bus, f.cfg, f.rng)

	unbuilt := f.w.CreateEntity()
	ecs.Set(f.w, unbuilt, components.NewTransform(components.Vec3{X: 1}))
	ecs.Set(f.w, unbuilt, components.Building{Type: components.BuildingFarm})

	farm := f.w.CreateEntity()
	ecs.Set(f.w, farm, components.NewTransform(components.Vec3{X: 6}))
	ecs.Set(f.w, farm, components.Building{Type: components.BuildingFarm, Constructed: true})

	e := f.citizen(components.JobFarmer, components.Vec3{})
	sys.Update(f.w, 0.1)

	g, ok := ecs.Get[components.Gathering](f.w, e)
	if !ok {
		t.Fatal("farmer was not given a gathering task")
	}
	if g.Target != farm {
		t.Fatalf("farmer targeted %d, want constructed farm %d", g.Target.Index(), farm.Index())
	}
	if g.Resource != components.ResourceFood {
		t.Fatalf("farm work should yield food, got %q", g.Resource)
	}
}

func TestGatherAccruesAndFinishes(t *testing.T) {
	f := newFixture()
	sys := NewGather(f.clock, f.bus, f.cfg)
	node := f.node(components.ResourceWood, components.Vec3{X: 0.5}, 2, true)
	e := f.citizen(components.JobWoodcutter, components.Vec3{})
	ecs.Set(f.w, e, components.Gathering{
		Target: node, Duration: f.cfg.Tuning.GatherDuration, Resource: components.ResourceWood,
	})

	var gathered []events.ResourceGathered
	events.Subscribe(f.bus, func(ev events.ResourceGathered) { gathered = append(gathered, ev) })

	sys.Update(f.w, 1.0)
	if got := f.state(t, e); got != components.StateGathering {
		t.Fatalf("state after partial gather = %q, want gathering", got)
	}
	if len(gathered) != 0 {
		t.Fatal("gather completed early")
	}

	sys.Update(f.w, f.cfg.Tuning.GatherDuration)

	n, _ := ecs.Get[components.ResourceNode](f.w, node)
	if n.Amount != 1 {
		t.Fatalf("node amount after one harvest = %d, want 1", n.Amount)
	}
	carry, ok := ecs.Get[components.Carry](f.w, e)
	if !ok {
		t.Fatal("no carry component after gather completed")
	}
	if carry.Resource != components.ResourceWood || carry.Amount != 1 {
		t.Fatalf("carry = %+v, want 1 wood", carry)
	}
	inv, _ := ecs.Get[components.Inventory](f.w, e)
	if got := inv.Items.Get(components.ResourceWood); got != 1 {
		t.Fatalf("inventory wood after gather = %d, want 1", got)
	}
	if ecs.Has[components.Gathering](f.w, e) {
		t.Fatal("gathering marker not removed")
	}
	if got := f.state(t, e); got != components.StateCarrying {
		t.Fatalf("state = %q, want carrying", got)
	}
	if len(gathered) != 1 || gathered[0].Amount != 1 {
		t.Fatalf("gathered events = %+v, want exactly one of amount 1", gathered)
	}
}

func TestGatherStopsWhenInventoryFull(t *testing.T) {
	f := newFixture()
	sys := NewGather(f.clock, f.bus, f.cfg)
	node := f.node(components.ResourceWood, components.Vec3{X: 0.5}, 5, true)
	e := f.citizen(components.JobWoodcutter, components.Vec3{})
	ecs.Set(f.w, e, components.Inventory{
		Items:    components.ResourceAmounts{components.ResourceWood: 2},
		Capacity: 2,
	})
	ecs.Set(f.w, e, components.Gathering{Target: node, Duration: 0.5})

	sys.Update(f.w, 1.0)

	n, _ := ecs.Get[components.ResourceNode](f.w, node)
	if n.Amount != 5 {
		t.Fatalf("node amount = %d, want untouched 5", n.Amount)
	}
	if ecs.Has[components.Carry](f.w, e) {
		t.Fatal("citizen with a full inventory should not pick up a load")
	}
	if ecs.Has[components.Gathering](f.w, e) {
		t.Fatal("gathering marker should be dropped when the inventory is full")
	}
	if got := f.state(t, e); got != components.StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}
}

func TestGatherCancelsOnStaleTarget(t *testing.T) {
	f := newFixture()
	sys := NewGather(f.clock, f.bus, f.cfg)
	node := f.node(components.ResourceWood, components.Vec3{X: 0.5}, 1, true)
	e := f.citizen(components.JobWoodcutter, components.Vec3{})
	ecs.Set(f.w, e, components.Gathering{Target: node, Duration: 3})

	f.w.DestroyEntity(node)
	sys.Update(f.w, 0.1)

	if ecs.Has[components.Gathering](f.w, e) {
		t.Fatal("gathering marker should be cancelled when the target dies")
	}
	if got := f.state(t, e); got != components.StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}
}

func TestGatherRepathsWhenOutOfRange(t *testing.T) {
	f := newFixture()
	sys := NewGather(f.clock, f.bus, f.cfg)
	node := f.node(components.ResourceWood, components.Vec3{X: 20}, 5, true)
	e := f.citizen(components.JobWoodcutter, components.Vec3{})
	ecs.Set(f.w, e, components.Gathering{Target: node, Duration: 3})

	sys.Update(f.w, 0.1)

	if !ecs.Has[components.PathFollow](f.w, e) {
		t.Fatal("expected a fresh path toward the distant target")
	}
	g, _ := ecs.Get[components.Gathering](f.w, e)
	if g.Elapsed != 0 {
		t.Fatalf("gather progress accrued while out of range: %v", g.Elapsed)
	}
}

func TestDeliveryTransfersAndPublishes(t *testing.T) {
	f := newFixture()
	sys := NewDelivery(f.clock, f.bus, f.cfg)
	ledger := NewResourceLedger(f.bus)
	store := f.storehouse(components.Vec3{X: 1})
	e := f.citizen(components.JobWoodcutter, components.Vec3{})
	ecs.Set(f.w, e, components.Carry{Resource: components.ResourceWood, Amount: 3})
	ecs.Set(f.w, e, components.Inventory{
		Items:    components.ResourceAmounts{components.ResourceWood: 3},
		Capacity: 10,
	})
	cit, _ := ecs.Get[components.Citizen](f.w, e)
	cit.State = components.StateDelivering
	ecs.Set(f.w, e, cit)

	sys.Update(f.w, 0.1)

	st, _ := ecs.Get[components.Storage](f.w, store)
	if got := st.Contents.Get(components.ResourceWood); got != 3 {
		t.Fatalf("storage wood = %d, want 3", got)
	}
	inv, _ := ecs.Get[components.Inventory](f.w, e)
	if got := inv.Items.Get(components.ResourceWood); got != 0 {
		t.Fatalf("inventory wood after delivery = %d, want 0", got)
	}
	if ecs.Has[components.Carry](f.w, e) {
		t.Fatal("carry component not removed after delivery")
	}
	if got := f.state(t, e); got != components.StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}
	if got := ledger.Total(components.ResourceWood); got != 3 {
		t.Fatalf("ledger wood = %d, want 3", got)
	}
}

func TestLedgerIncreasesOnlyThroughDelivery(t *testing.T) {
	f := newFixture()
	ledger := NewResourceLedger(f.bus)

	events.Publish(f.bus, events.ResourceGathered{Resource: components.ResourceWood, Amount: 5})
	if got := ledger.Total(components.ResourceWood); got != 0 {
		t.Fatalf("gather event changed the ledger: %d", got)
	}

	events.Publish(f.bus, events.ResourceDelivered{Resource: components.ResourceWood, Amount: 5})
	if got := ledger.Total(components.ResourceWood); got != 5 {
		t.Fatalf("ledger wood = %d, want 5", got)
	}

	if took := ledger.Withdraw(components.ResourceWood, 8); took != 5 {
		t.Fatalf("withdraw returned %d, want the available 5", took)
	}
	if got := ledger.Total(components.ResourceWood); got != 0 {
		t.Fatalf("ledger wood after withdraw = %d, want 0", got)
	}
}

func TestCarryNormalizesState(t *testing.T) {
	f := newFixture()
	sys := NewCarry(f.clock, f.bus)
	e := f.citizen(components.JobHauler, components.Vec3{})
	ecs.Set(f.w, e, components.Carry{Resource: components.ResourceWood, Amount: 1})

	sys.Update(f.w, 0.1)
	if got := f.state(t, e); got != components.StateCarrying {
		t.Fatalf("state = %q, want carrying", got)
	}

	cit, _ := ecs.Get[components.Citizen](f.w, e)
	cit.State = components.StateDelivering
	ecs.Set(f.w, e, cit)
	sys.Update(f.w, 0.1)
	if got := f.state(t, e); got != components.StateDelivering {
		t.Fatalf("delivering state was overwritten to %q", got)
	}
}

func TestPathFollowArrivesAndReturnsWandererToIdle(t *testing.T) {
	f := newFixture()
	path := NewPathFollow(f.clock, f.bus, f.cfg)
	move := NewMovement(f.clock)
	e := f.citizen(components.JobNone, components.Vec3{})
	ecs.Set(f.w, e, components.PathFollow{Waypoints: []components.Vec3{{}, {X: 2}}})
	cit, _ := ecs.Get[components.Citizen](f.w, e)
	cit.State = components.StateWalking
	ecs.Set(f.w, e, cit)

	for i := 0; i < 100 && ecs.Has[components.PathFollow](f.w, e); i++ {
		path.Update(f.w, 0.05)
		move.Update(f.w, 0.05)
	}

	if ecs.Has[components.PathFollow](f.w, e) {
		t.Fatal("path never completed")
	}
	tr, _ := ecs.Get[components.Transform](f.w, e)
	arrive := f.cfg.Tuning.ArriveRadius
	if tr.Position.DistSqXZ(components.Vec3{X: 2}) > arrive*arrive*4 {
		t.Fatalf("stopped too far from the goal: %+v", tr.Position)
	}
	if got := f.state(t, e); got != components.StateIdle {
		t.Fatalf("state after wander = %q, want idle", got)
	}
	vel, _ := ecs.Get[components.Velocity](f.w, e)
	if vel.Linear != (components.Vec3{}) {
		t.Fatalf("velocity not zeroed on arrival: %+v", vel.Linear)
	}
}

func TestPathFollowAppliesCarrySpeedPenalty(t *testing.T) {
	f := newFixture()
	path := NewPathFollow(f.clock, f.bus, f.cfg)
	e := f.citizen(components.JobHauler, components.Vec3{})
	ecs.Set(f.w, e, components.Carry{Resource: components.ResourceWood, Amount: 1})
	ecs.Set(f.w, e, components.PathFollow{Waypoints: []components.Vec3{{X: 10}}})

	path.Update(f.w, 0.05)

	vel, _ := ecs.Get[components.Velocity](f.w, e)
	want := f.cfg.Tuning.CitizenSpeed * f.cfg.Tuning.CarrySpeedFactor
	if got := vel.Linear.LenXZ(); got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("loaded speed = %v, want %v", got, want)
	}
}

func TestDepletionMarksAndRespawns(t *testing.T) {
	f := newFixture()
	sys := NewResourceDepletion(f.clock, f.bus, f.cfg, f.rng)
	node := f.node(components.ResourceWood, components.Vec3{}, 5, true)
	n, _ := ecs.Get[components.ResourceNode](f.w, node)
	n.Amount = 0
	ecs.Set(f.w, node, n)

	var depleted, respawned int
	events.Subscribe(f.bus, func(events.ResourceNodeDepleted) { depleted++ })
	events.Subscribe(f.bus, func(events.ResourceNodeRespawned) { respawned++ })

	sys.Update(f.w, 0.1)
	dep, ok := ecs.Get[components.DepletedResource](f.w, node)
	if !ok {
		t.Fatal("emptied node did not get a depleted marker")
	}
	tn := f.cfg.Tuning
	if dep.RespawnDelay < tn.RespawnDelayMin || dep.RespawnDelay > tn.RespawnDelayMax {
		t.Fatalf("respawn delay %v outside [%v, %v]", dep.RespawnDelay, tn.RespawnDelayMin, tn.RespawnDelayMax)
	}
	if depleted != 1 {
		t.Fatalf("depleted events = %d, want 1", depleted)
	}

	sys.Update(f.w, 0.1)
	if depleted != 1 {
		t.Fatal("depleted event re-fired for an already marked node")
	}

	// Run out the whole delay in one oversized step.
	sys.Update(f.w, tn.RespawnDelayMax+1)
	if ecs.Has[components.DepletedResource](f.w, node) {
		t.Fatal("depleted marker survived the respawn")
	}
	n, _ = ecs.Get[components.ResourceNode](f.w, node)
	if n.Amount != n.MaxAmount {
		t.Fatalf("respawned amount = %d, want %d", n.Amount, n.MaxAmount)
	}
	if respawned != 1 {
		t.Fatalf("respawned events = %d, want 1", respawned)
	}
}

func TestDepletionBlockedByBuildingUsesRetryDelay(t *testing.T) {
	f := newFixture()
	sys := NewResourceDepletion(f.clock, f.bus, f.cfg, f.rng)
	node := f.node(components.ResourceWood, components.Vec3{}, 0, true)
	f.storehouse(components.Vec3{X: 1}) // inside the block radius

	sys.Update(f.w, 0.1)
	sys.Update(f.w, f.cfg.Tuning.RespawnDelayMax+1)

	dep, ok := ecs.Get[components.DepletedResource](f.w, node)
	if !ok {
		t.Fatal("blocked node lost its depleted marker")
	}
	if dep.RespawnDelay != f.cfg.Tuning.RespawnRetryDelay {
		t.Fatalf("retry delay = %v, want %v", dep.RespawnDelay, f.cfg.Tuning.RespawnRetryDelay)
	}
	if dep.Elapsed != 0 {
		t.Fatalf("retry timer did not reset: %v", dep.Elapsed)
	}
	n, _ := ecs.Get[components.ResourceNode](f.w, node)
	if n.Amount != 0 {
		t.Fatal("blocked node respawned anyway")
	}
}

func TestDepletionDestroysNonRegeneratingNode(t *testing.T) {
	f := newFixture()
	sys := NewResourceDepletion(f.clock, f.bus, f.cfg, f.rng)
	node := f.node(components.ResourceStone, components.Vec3{}, 0, false)

	sys.Update(f.w, 0.1)

	if f.w.IsAlive(node) {
		t.Fatal("non-regenerating node should be destroyed when emptied")
	}
}

func TestConstructionStocksProgressesAndCompletesOnce(t *testing.T) {
	f := newFixture()
	ledger := NewResourceLedger(f.bus)
	sys := NewConstruction(f.clock, f.bus, f.cfg, ledger)
	ledger.SetTotals(components.ResourceAmounts{components.ResourceWood: 10})

	b := f.w.CreateEntity()
	ecs.Set(f.w, b, components.NewTransform(components.Vec3{}))
	ecs.Set(f.w, b, components.Building{Type: components.BuildingStorehouse})
	ecs.Set(f.w, b, components.ConstructionSite{
		Required:  components.ResourceAmounts{components.ResourceWood: 10},
		Delivered: make(components.ResourceAmounts),
		BuildTime: 2.0,
	})

	worker := f.citizen(components.JobBuilder, components.Vec3{X: 0.5})
	ecs.Set(f.w, worker, components.ConstructionWork{Target: b})

	var completed int
	events.Subscribe(f.bus, func(events.ConstructionCompleted) { completed++ })

	sys.Update(f.w, 1.0)
	site, ok := ecs.Get[components.ConstructionSite](f.w, b)
	if !ok {
		t.Fatal("site removed before build time elapsed")
	}
	if !site.Stocked() {
		t.Fatalf("site not stocked from ledger: %+v", site.Delivered)
	}
	if got := ledger.Total(components.ResourceWood); got != 0 {
		t.Fatalf("ledger wood after stocking = %d, want 0", got)
	}
	if got := f.state(t, worker); got != components.StateBuilding {
		t.Fatalf("worker state = %q, want building", got)
	}

	sys.Update(f.w, 1.5)

	if ecs.Has[components.ConstructionSite](f.w, b) {
		t.Fatal("site not removed on completion")
	}
	bld, _ := ecs.Get[components.Building](f.w, b)
	if !bld.Constructed {
		t.Fatal("constructed flag not set")
	}
	if ecs.Has[components.ConstructionWork](f.w, worker) {
		t.Fatal("worker not released on completion")
	}
	if got := f.state(t, worker); got != components.StateIdle {
		t.Fatalf("worker state = %q, want idle", got)
	}
	if completed != 1 {
		t.Fatalf("completion events = %d, want exactly 1", completed)
	}

	sys.Update(f.w, 1.0)
	if completed != 1 {
		t.Fatal("completion event re-fired after the site was gone")
	}
}

func TestConstructionHaltsWithoutMaterials(t *testing.T) {
	f := newFixture()
	ledger := NewResourceLedger(f.bus)
	sys := NewConstruction(f.clock, f.bus, f.cfg, ledger)
	ledger.SetTotals(components.ResourceAmounts{components.ResourceWood: 4})

	b := f.w.CreateEntity()
	ecs.Set(f.w, b, components.NewTransform(components.Vec3{}))
	ecs.Set(f.w, b, components.Building{Type: components.BuildingStorehouse})
	ecs.Set(f.w, b, components.ConstructionSite{
		Required:  components.ResourceAmounts{components.ResourceWood: 10},
		Delivered: make(components.ResourceAmounts),
		BuildTime: 1.0,
	})
	worker := f.citizen(components.JobBuilder, components.Vec3{X: 0.5})
	ecs.Set(f.w, worker, components.ConstructionWork{Target: b})

	sys.Update(f.w, 10.0)

	site, ok := ecs.Get[components.ConstructionSite](f.w, b)
	if !ok {
		t.Fatal("understocked site was completed")
	}
	if site.BuildProgress != 0 {
		t.Fatalf("progress accrued without full materials: %v", site.BuildProgress)
	}
	if got := site.Delivered.Get(components.ResourceWood); got != 4 {
		t.Fatalf("partial stock = %d, want the available 4", got)
	}
}

func TestConstructionReleasesWorkerWhenSiteVanishes(t *testing.T) {
	f := newFixture()
	ledger := NewResourceLedger(f.bus)
	sys := NewConstruction(f.clock, f.bus, f.cfg, ledger)

	b := f.w.CreateEntity()
	ecs.Set(f.w, b, components.NewTransform(components.Vec3{}))
	ecs.Set(f.w, b, components.ConstructionSite{
		Required:  make(components.ResourceAmounts),
		Delivered: make(components.ResourceAmounts),
		BuildTime: 100,
	})
	worker := f.citizen(components.JobBuilder, components.Vec3{X: 0.5})
	ecs.Set(f.w, worker, components.ConstructionWork{Target: b})

	f.w.DestroyEntity(b)
	sys.Update(f.w, 0.1)

	if ecs.Has[components.ConstructionWork](f.w, worker) {
		t.Fatal("worker kept a marker to a dead site")
	}
	if got := f.state(t, worker); got != components.StateIdle {
		t.Fatalf("worker state = %q, want idle", got)
	}
}

// placeSite creates a building with a construction site the way the
// placement system does, then publishes the placement event.
func placeSite(f *fixture, pos components.Vec3, slots int) ecs.Entity {
	b := f.w.CreateEntity()
	ecs.Set(f.w, b, components.NewTransform(pos))
	ecs.Set(f.w, b, components.Building{Type: components.BuildingHouse, MaxWorkers: slots})
	ecs.Set(f.w, b, components.ConstructionSite{
		Required:  make(components.ResourceAmounts),
		Delivered: make(components.ResourceAmounts),
		BuildTime: 10,
	})
	events.Publish(f.bus, events.BuildingPlaced{Building: b, Type: components.BuildingHouse, Position: pos})
	return b
}

func TestAutoBuilderDraftsAndRestores(t *testing.T) {
	f := newFixture()
	sys := NewAutoBuilder(f.clock, f.bus, f.cfg)
	e := f.citizen(components.JobWoodcutter, components.Vec3{X: 1})
	b := placeSite(f, components.Vec3{}, 1)

	sys.Update(f.w, 0.1)

	job, _ := ecs.Get[components.JobAssignment](f.w, e)
	if job.Job != components.JobBuilder {
		t.Fatalf("drafted job = %q, want builder", job.Job)
	}
	tb, ok := ecs.Get[components.TemporaryBuilder](f.w, e)
	if !ok {
		t.Fatal("no temporary builder marker")
	}
	if tb.PreviousJob != components.JobWoodcutter {
		t.Fatalf("recorded previous job = %q, want woodcutter", tb.PreviousJob)
	}
	cw, ok := ecs.Get[components.ConstructionWork](f.w, e)
	if !ok || cw.Target != b {
		t.Fatalf("construction work = %+v, want target %d", cw, b.Index())
	}

	events.Publish(f.bus, events.ConstructionCompleted{Building: b, Type: components.BuildingHouse})
	sys.Update(f.w, 0.1)

	job, _ = ecs.Get[components.JobAssignment](f.w, e)
	if job.Job != components.JobWoodcutter {
		t.Fatalf("restored job = %q, want woodcutter", job.Job)
	}
	if ecs.Has[components.TemporaryBuilder](f.w, e) || ecs.Has[components.ConstructionWork](f.w, e) {
		t.Fatal("draft markers not cleared on restore")
	}
}

func TestAutoBuilderRespectsWorkerSlots(t *testing.T) {
	f := newFixture()
	sys := NewAutoBuilder(f.clock, f.bus, f.cfg)
	for i := 0; i < 5; i++ {
		f.citizen(components.JobNone, components.Vec3{X: float64(i)})
	}
	placeSite(f, components.Vec3{}, 2)

	sys.Update(f.w, 0.1)

	drafted := 0
	ecs.Each(f.w, func(_ ecs.Entity, _ components.TemporaryBuilder) { drafted++ })
	if drafted != 2 {
		t.Fatalf("drafted %d citizens, want 2", drafted)
	}
}

func TestAutoBuilderPlayerOverrideIsDropped(t *testing.T) {
	f := newFixture()
	sys := NewAutoBuilder(f.clock, f.bus, f.cfg)
	e := f.citizen(components.JobWoodcutter, components.Vec3{X: 1})
	b := placeSite(f, components.Vec3{}, 1)
	sys.Update(f.w, 0.1)

	// Player manually reassigns the citizen away from builder duty.
	ecs.Set(f.w, e, components.JobAssignment{Job: components.JobFarmer})
	sys.Update(f.w, 0.1)

	if ecs.Has[components.TemporaryBuilder](f.w, e) {
		t.Fatal("player override should drop the temporary builder marker")
	}

	events.Publish(f.bus, events.ConstructionCompleted{Building: b, Type: components.BuildingHouse})
	sys.Update(f.w, 0.1)

	job, _ := ecs.Get[components.JobAssignment](f.w, e)
	if job.Job != components.JobFarmer {
		t.Fatalf("completion overwrote the player's job choice: %q", job.Job)
	}
}

func TestCitizenNeedsDecayAndEating(t *testing.T) {
	f := newFixture()
	ledger := NewResourceLedger(f.bus)
	sys := NewCitizenNeeds(f.clock, f.cfg, ledger)
	e := f.citizen(components.JobNone, components.Vec3{})

	cit, _ := ecs.Get[components.Citizen](f.w, e)
	cit.State = components.StateGathering
	cit.Fatigue = 0.2
	ecs.Set(f.w, e, cit)

	sys.Update(f.w, 10)
	cit, _ = ecs.Get[components.Citizen](f.w, e)
	wantHunger := f.cfg.Tuning.HungerRate * 10
	if cit.Hunger < wantHunger-1e-9 || cit.Hunger > wantHunger+1e-9 {
		t.Fatalf("hunger = %v, want %v", cit.Hunger, wantHunger)
	}
	if cit.Fatigue <= 0.2 {
		t.Fatal("fatigue should rise while working")
	}

	// Starved past the eat threshold with food available.
	cit.Hunger = f.cfg.Tuning.EatThreshold
	ecs.Set(f.w, e, cit)
	ledger.SetTotals(components.ResourceAmounts{components.ResourceFood: 1})

	sys.Update(f.w, 0.1)
	cit, _ = ecs.Get[components.Citizen](f.w, e)
	if cit.Hunger >= f.cfg.Tuning.EatThreshold {
		t.Fatalf("citizen did not eat: hunger %v", cit.Hunger)
	}
	if got := ledger.Total(components.ResourceFood); got != 0 {
		t.Fatalf("food after eating = %d, want 0", got)
	}

	// Without food the citizen stays hungry and clamped.
	cit.Hunger = 0.99
	ecs.Set(f.w, e, cit)
	sys.Update(f.w, 100)
	cit, _ = ecs.Get[components.Citizen](f.w, e)
	if cit.Hunger != 1 {
		t.Fatalf("hunger = %v, want clamp at 1", cit.Hunger)
	}
}

func TestNeedsFrozenWhilePaused(t *testing.T) {
	f := newFixture()
	f.clock.Paused = true
	ledger := NewResourceLedger(f.bus)
	sys := NewCitizenNeeds(f.clock, f.cfg, ledger)
	e := f.citizen(components.JobNone, components.Vec3{})

	sys.Update(f.w, 100)

	cit, _ := ecs.Get[components.Citizen](f.w, e)
	if cit.Hunger != 0 {
		t.Fatalf("hunger advanced while paused: %v", cit.Hunger)
	}
}

func TestBuildingPlacementCreatesSiteFromCatalog(t *testing.T) {
	f := newFixture()
	sys := NewBuildingPlacement(f.bus, f.cfg)

	var placed []events.BuildingPlaced
	events.Subscribe(f.bus, func(ev events.BuildingPlaced) { placed = append(placed, ev) })

	sys.Place(components.BuildingStorehouse, components.Vec3{X: 5})
	sys.Update(f.w, 0.1)

	if len(placed) != 1 {
		t.Fatalf("placed events = %d, want 1", len(placed))
	}
	b := placed[0].Building
	bld, _ := ecs.Get[components.Building](f.w, b)
	if bld.Constructed {
		t.Fatal("fresh building must start unconstructed")
	}
	site, ok := ecs.Get[components.ConstructionSite](f.w, b)
	if !ok {
		t.Fatal("no construction site on a fresh building")
	}
	spec := f.cfg.Building(components.BuildingStorehouse)
	if got := site.Required.Get(components.ResourceWood); got != spec.Cost.Get(components.ResourceWood) {
		t.Fatalf("required wood = %d, want catalog cost %d", got, spec.Cost.Get(components.ResourceWood))
	}
	if !ecs.Has[components.Storage](f.w, b) {
		t.Fatal("storehouse should carry a storage component")
	}
}

func TestBuildingDemolitionReleasesWorkers(t *testing.T) {
	f := newFixture()
	sys := NewBuildingPlacement(f.bus, f.cfg)

	var requested, demolished int
	events.Subscribe(f.bus, func(ev events.BuildingDestroyRequested) {
		requested++
		if !f.w.IsAlive(ev.Building) {
			t.Error("destroy request fired after the entity died")
		}
	})
	events.Subscribe(f.bus, func(events.BuildingDemolished) { demolished++ })

	b := f.w.CreateEntity()
	ecs.Set(f.w, b, components.NewTransform(components.Vec3{}))
	ecs.Set(f.w, b, components.Building{Type: components.BuildingHouse})
	ecs.Set(f.w, b, components.ConstructionSite{
		Required:  make(components.ResourceAmounts),
		Delivered: make(components.ResourceAmounts),
	})
	worker := f.citizen(components.JobBuilder, components.Vec3{})
	ecs.Set(f.w, worker, components.ConstructionWork{Target: b})

	sys.Demolish(b)
	sys.Update(f.w, 0.1)

	if f.w.IsAlive(b) {
		t.Fatal("building survived demolition")
	}
	if ecs.Has[components.ConstructionWork](f.w, worker) {
		t.Fatal("worker still linked to the demolished building")
	}
	if requested != 1 || demolished != 1 {
		t.Fatalf("events: requested=%d demolished=%d, want 1/1", requested, demolished)
	}

	// Demolishing an already dead entity is a no-op.
	sys.Demolish(b)
	sys.Update(f.w, 0.1)
	if demolished != 1 {
		t.Fatal("demolition event re-fired for a dead entity")
	}
}

func TestSystemsIgnoreTicksWhilePaused(t *testing.T) {
	f := newFixture()
	f.clock.Paused = true
	sys := NewJobAssignment(f.clock, f.bus, f.cfg, f.rng)
	f.node(components.ResourceWood, components.Vec3{X: 2}, 5, true)
	e := f.citizen(components.JobWoodcutter, components.Vec3{})

	sys.Update(f.w, 1.0)

	if ecs.Has[components.Gathering](f.w, e) {
		t.Fatal("job assignment ran while paused")
	}
}
