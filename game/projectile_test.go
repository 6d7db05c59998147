package game

import (
	"math"
	"testing"

	"github.com/PufferAI/impulse-wars/physics"
)

// fireAt arms the drone with the named weapon and spawns one projectile
// toward dir, skipping the trigger path.
func fireAt(t *testing.T, e *Env, droneIdx int, weapon string, dir physics.Vec2) *Projectile {
	t.Helper()
	ent := e.drones[droneIdx]
	e.setDroneWeapon(ent, e.cfg.Derived.WeaponIndex[weapon])
	proj := e.createProjectile(ent, dir.Normalize())
	return e.projMap.Get(proj)
}

func TestCreateProjectile_SpawnsOutsideHull(t *testing.T) {
	e := newTestEnv(t, 40)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "standard", physics.V(1, 0))
	d := e.droneMap.Get(e.drones[0])

	if dist := p.Pos.Distance(d.Pos); dist <= e.cfg.Drone.Radius {
		t.Errorf("projectile spawned inside the drone: dist = %f", dist)
	}
	w := e.weapons.Info(p.Weapon)
	if math.Abs(p.Speed-w.FireSpeed) > 1e-6 {
		t.Errorf("speed = %f, want fire speed %f", p.Speed, w.FireSpeed)
	}
	if p.LastSpeed != p.Speed {
		t.Errorf("last speed = %f, want %f", p.LastSpeed, p.Speed)
	}
}

func TestCreateProjectile_PulledBackFromWall(t *testing.T) {
	e := newTestEnv(t, 41)
	// Pressed against the left perimeter wall, shooting into it.
	moveDrone(e, 0, physics.V(2.6, 13))

	p := fireAt(t, e, 0, "standard", physics.V(-1, 0))
	// The wall face is at x=2; the shot must start in front of it.
	if p.Pos.X <= 2 {
		t.Errorf("projectile spawned inside the wall at x = %f", p.Pos.X)
	}
}

func TestCreateProjectile_CarriesLateralVelocity(t *testing.T) {
	e := newTestEnv(t, 42)
	moveDrone(e, 0, physics.V(9, 13))
	d := e.droneMap.Get(e.drones[0])
	d.LastVelocity = physics.V(0, 10) // moving straight up, shooting right

	p := fireAt(t, e, 0, "standard", physics.V(1, 0))
	want := 10 * e.cfg.Drone.MoveAimCoef
	if math.Abs(p.Velocity.Y-want) > 1e-6 {
		t.Errorf("lateral carry = %f, want %f", p.Velocity.Y, want)
	}
}

func TestProjectile_ExpiresAtMaxDistance(t *testing.T) {
	e := newTestEnv(t, 43)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "shotgun", physics.V(1, 0))
	ent := e.projectiles[0]

	// Fake one step of travel past the remaining budget.
	p.DistanceLeft = 0.5
	p.LastPos = p.Pos.Sub(physics.V(1, 0))
	e.projectilesStep()

	if e.world.Alive(ent) {
		t.Error("projectile alive past its travel budget")
	}
	if len(e.projectiles) != 0 {
		t.Errorf("projectile list has %d entries, want 0", len(e.projectiles))
	}

	// The shooter is credited with the distance the shot flew.
	d := e.droneMap.Get(e.drones[0])
	weapon := e.cfg.Derived.WeaponIndex["shotgun"]
	if got := d.Stats.ShotDistances[weapon]; got != 1.0 {
		t.Errorf("shot distance = %f, want 1", got)
	}
}

func TestProjectile_ExplosiveExpiryDetonates(t *testing.T) {
	e := newTestEnv(t, 44)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(29, 13))

	p := fireAt(t, e, 0, "flak_cannon", physics.V(1, 0))
	p.DistanceLeft = 0.5
	p.LastPos = p.Pos.Sub(physics.V(1, 0))

	e.projectilesStep()
	e.detonateQueued()

	if len(e.projectiles) != 0 {
		t.Error("flak shell survived expiry")
	}
	if len(e.explosions) != 1 {
		t.Fatalf("explosions = %d, want 1", len(e.explosions))
	}
	if want := e.weapons.Info(e.cfg.Derived.WeaponIndex["flak_cannon"]).ExplosionRadius; e.explosions[0].Radius != want {
		t.Errorf("explosion radius = %f, want %f", e.explosions[0].Radius, want)
	}
}

func TestProjectileBeginContact_BounceLimit(t *testing.T) {
	e := newTestEnv(t, 45)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "standard", physics.V(1, 0))
	ent := e.projectiles[0]
	wallRef := Ref{Kind: KindWall, Entity: e.staticWalls[0]}

	// The shot survives its first contacts and dies on the one that
	// reaches the limit.
	maxBounces := e.weapons.Info(p.Weapon).MaxBounces
	for i := 0; i < maxBounces-1; i++ {
		e.projectileBeginContact(ent, wallRef, physics.Contact{})
		if !e.world.Alive(ent) {
			t.Fatalf("projectile destroyed on bounce %d of %d", i+1, maxBounces)
		}
	}
	e.projectileBeginContact(ent, wallRef, physics.Contact{})
	if e.world.Alive(ent) {
		t.Error("projectile survived past its bounce limit")
	}
}

func TestProjectileBeginContact_BouncyWallIsFree(t *testing.T) {
	e := newTestEnv(t, 57)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "standard", physics.V(1, 0))
	ent := e.projectiles[0]
	bouncy := e.createWall(physics.V(30, 30), physics.V(1, 1), BouncyWall, false, false)
	wallRef := Ref{Kind: KindWall, Entity: bouncy}

	for i := 0; i < 10; i++ {
		e.projectileBeginContact(ent, wallRef, physics.Contact{})
	}
	if !e.world.Alive(ent) {
		t.Fatal("bouncy wall destroyed the projectile")
	}
	if p.Bounces != 0 {
		t.Errorf("bounces = %d off a bouncy wall, want 0", p.Bounces)
	}

	// Mines rebound off bouncy walls instead of sticking.
	moveDrone(e, 0, physics.V(23, 13))
	d := e.droneMap.Get(e.drones[0])
	d.WeaponCooldown = 0
	mine := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	e.projectileBeginContact(e.projectiles[1], wallRef, physics.Contact{})
	if mine.IsMine {
		t.Error("mine armed on a bouncy wall")
	}
}

func TestProjectileBeginContact_DeathWallDestroys(t *testing.T) {
	e := newTestEnv(t, 46)
	moveDrone(e, 0, physics.V(9, 13))

	fireAt(t, e, 0, "standard", physics.V(1, 0))
	ent := e.projectiles[0]

	wall := e.createWall(physics.V(30, 30), physics.V(1, 1), DeathWall, false, false)
	e.projectileBeginContact(ent, Ref{Kind: KindWall, Entity: wall}, physics.Contact{})
	if e.world.Alive(ent) {
		t.Error("projectile survived a death wall")
	}
}

func TestProjectileBeginContact_DroneHitSpendsShot(t *testing.T) {
	e := newTestEnv(t, 58)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(15, 13))

	fireAt(t, e, 0, "standard", physics.V(1, 0))
	ent := e.projectiles[0]

	e.projectileBeginContact(ent, Ref{Kind: KindDrone, Entity: e.drones[1]}, physics.Contact{})
	if e.world.Alive(ent) {
		t.Error("standard shot survived a drone hit")
	}
	shooter := e.droneMap.Get(e.drones[0])
	if shooter.Stats.Hits != 1 {
		t.Errorf("shooter hits = %d, want 1", shooter.Stats.Hits)
	}
	if e.droneMap.Get(e.drones[1]).Stats.DamageTaken <= 0 {
		t.Error("target took no recorded damage")
	}
}

func TestProjectileBeginContact_AcceleratorBouncesOffDrones(t *testing.T) {
	e := newTestEnv(t, 59)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(15, 13))

	p := fireAt(t, e, 0, "accelerator", physics.V(1, 0))
	ent := e.projectiles[0]

	e.projectileBeginContact(ent, Ref{Kind: KindDrone, Entity: e.drones[1]}, physics.Contact{})
	if !e.world.Alive(ent) {
		t.Fatal("accelerator shot spent on a drone hit")
	}
	// The hit still counts against the bounce budget.
	if p.Bounces != 1 {
		t.Errorf("bounces = %d after a drone hit, want 1", p.Bounces)
	}
	if e.droneMap.Get(e.drones[0]).Stats.Hits != 1 {
		t.Error("deflected hit not credited to the shooter")
	}
}

func TestProjectileBeginContact_OwnShotCountsAgainstShooter(t *testing.T) {
	e := newTestEnv(t, 70)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(33, 13))

	fireAt(t, e, 0, "standard", physics.V(1, 0))
	ent := e.projectiles[0]

	d := e.droneMap.Get(e.drones[0])
	e.projectileBeginContact(ent, Ref{Kind: KindDrone, Entity: e.drones[0]}, physics.Contact{})
	if !d.StepInfo.OwnShotTaken || d.Stats.SelfHits != 1 {
		t.Errorf("own-shot = %v self hits = %d, want true/1", d.StepInfo.OwnShotTaken, d.Stats.SelfHits)
	}
	if d.Stats.Hits != 0 {
		t.Error("self hit credited as a landed shot")
	}
	if e.world.Alive(ent) {
		t.Error("shot survived hitting its own shooter")
	}
}

func TestProjectileEndContact_RestoresSpeed(t *testing.T) {
	e := newTestEnv(t, 47)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "standard", physics.V(1, 0))
	ent := e.projectiles[0]

	// The solver bled most of the speed during impact.
	p.Body.SetLinearVelocity(physics.V(0, 3))
	e.projectileEndContact(ent, Ref{Kind: KindWall, Entity: e.staticWalls[0]})

	if got := p.Body.LinearVelocity().Length(); math.Abs(got-p.LastSpeed) > 1e-6 {
		t.Errorf("speed = %f after bounce, want restored %f", got, p.LastSpeed)
	}
}

func TestProjectileEndContact_CrossTypePartingKeepsGain(t *testing.T) {
	e := newTestEnv(t, 71)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(9, 17))

	p := fireAt(t, e, 0, "standard", physics.V(1, 0))
	ent := e.projectiles[0]
	fireAt(t, e, 1, "machinegun", physics.V(1, 0))
	otherRef := Ref{Kind: KindProjectile, Entity: e.projectiles[1]}

	// Flung faster by the other shot: the gain sticks.
	base := p.LastSpeed
	p.Body.SetLinearVelocity(physics.V(0, base*2))
	e.projectileEndContact(ent, otherRef)
	if math.Abs(p.LastSpeed-base*2) > 1e-6 {
		t.Errorf("last speed = %f after a fast parting, want %f", p.LastSpeed, base*2)
	}

	// Slowed down by it: the loss is restored to the running speed.
	p.Body.SetLinearVelocity(physics.V(0, 1))
	e.projectileEndContact(ent, otherRef)
	if got := p.Body.LinearVelocity().Length(); math.Abs(got-base*2) > 1e-6 {
		t.Errorf("speed = %f after a slow parting, want restored %f", got, base*2)
	}

	// Parting with a projectile of the same weapon snaps back instead.
	fireAt(t, e, 1, "standard", physics.V(1, 0))
	sameRef := Ref{Kind: KindProjectile, Entity: e.projectiles[2]}
	p.Body.SetLinearVelocity(physics.V(0, base*4))
	e.projectileEndContact(ent, sameRef)
	if math.Abs(p.LastSpeed-base*2) > 1e-6 {
		t.Errorf("last speed = %f after a same-type parting, want %f", p.LastSpeed, base*2)
	}
}

func TestProjectileEndContact_AcceleratorGainsSpeed(t *testing.T) {
	e := newTestEnv(t, 48)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "accelerator", physics.V(1, 0))
	ent := e.projectiles[0]
	w := e.weapons.Info(p.Weapon)

	p.Body.SetLinearVelocity(physics.V(2, 0))
	e.projectileEndContact(ent, Ref{Kind: KindWall, Entity: e.staticWalls[0]})

	want := w.FireSpeed * w.BounceSpeedCoef
	if math.Abs(p.LastSpeed-want) > 1e-6 {
		t.Errorf("speed after first bounce = %f, want %f", p.LastSpeed, want)
	}

	// Repeated bounces saturate at the weapon's speed cap.
	for i := 0; i < 30; i++ {
		p.Body.SetLinearVelocity(physics.V(2, 0))
		e.projectileEndContact(ent, Ref{Kind: KindWall, Entity: e.staticWalls[0]})
	}
	if p.LastSpeed != w.MaxSpeed {
		t.Errorf("speed = %f after many bounces, want cap %f", p.LastSpeed, w.MaxSpeed)
	}
}

func TestSetMine_WeldsToWall(t *testing.T) {
	e := newTestEnv(t, 49)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "mine_launcher", physics.V(-1, 0))
	ent := e.projectiles[0]
	wallEnt := e.staticWalls[0]
	wall := e.wallMap.Get(wallEnt)

	// Nobody near the contact point, so the mine arms.
	moveDrone(e, 0, physics.V(29, 13))
	moveDrone(e, 1, physics.V(33, 13))
	e.setMine(ent, wallEnt, wall.Pos)
	if !p.IsMine {
		t.Fatal("projectile not armed as a mine")
	}
	if p.MineJoint.IsZero() {
		t.Error("mine has no weld joint")
	}
	if p.MineBase != wallEnt {
		t.Error("mine base not recorded")
	}
	if p.Body.LinearVelocity().Length() > 1e-9 {
		t.Error("mine still moving after weld")
	}

	// Arming twice is a no-op.
	e.setMine(ent, wallEnt, wall.Pos)
}

func TestSetMine_DetonatesOnDroneAlreadyInRange(t *testing.T) {
	e := newTestEnv(t, 72)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(33, 13))

	p := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	ent := e.projectiles[0]
	wallEnt := e.createWall(physics.V(12, 13), physics.V(1, 1), StandardWall, false, false)

	// The shooter is still standing inside the proximity radius with a
	// clear view: the mine blows on contact instead of arming.
	e.setMine(ent, wallEnt, physics.V(11, 13))
	if p.IsMine {
		t.Fatal("mine armed with a visible drone in range")
	}
	if !p.NeedsDetonation {
		t.Fatal("mine did not detonate on contact")
	}
	e.detonateQueued()
	if e.world.Alive(ent) {
		t.Error("mine survived its contact detonation")
	}
}

func TestSetMine_ArmsWhenNearbyDroneIsCovered(t *testing.T) {
	e := newTestEnv(t, 73)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(33, 13))

	p := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	ent := e.projectiles[0]
	wallEnt := e.createWall(physics.V(12, 13), physics.V(1, 1), StandardWall, false, false)

	// The shooter is in range but a wall blocks the mine's view of it.
	e.createWall(physics.V(9.5, 13), physics.V(0.2, 1), StandardWall, false, false)
	moveDrone(e, 0, physics.V(8, 13))

	e.setMine(ent, wallEnt, physics.V(11, 13))
	if !p.IsMine {
		t.Error("mine refused to arm behind cover")
	}
	if p.NeedsDetonation {
		t.Error("mine detonated through cover")
	}
}

func TestDestroyWall_FreesWeldedMines(t *testing.T) {
	e := newTestEnv(t, 50)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	ent := e.projectiles[0]
	wallEnt := e.createWall(physics.V(11, 13), physics.V(1, 1), StandardWall, false, false)
	moveDrone(e, 0, physics.V(29, 13))
	moveDrone(e, 1, physics.V(33, 13))
	e.setMine(ent, wallEnt, physics.V(10, 13))

	e.destroyWall(wallEnt)
	if !e.world.Alive(ent) {
		t.Fatal("mine destroyed with its wall")
	}
	if !p.MineJoint.IsZero() || p.MineBase != zeroEntity {
		t.Error("mine kept a handle to the destroyed wall")
	}
}

func TestProximity_MineTriggersOnVisibleDrone(t *testing.T) {
	e := newTestEnv(t, 51)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(11, 13))

	p := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	ent := e.projectiles[0]
	wallEnt := e.createWall(physics.V(15, 13), physics.V(1, 1), StandardWall, false, false)
	moveDrone(e, 0, physics.V(29, 13))
	moveDrone(e, 1, physics.V(33, 13))
	e.setMine(ent, wallEnt, physics.V(14, 13))
	p.Pos = p.Body.Position()

	moveDrone(e, 1, physics.V(11, 13))
	e.proximityTriggered(ent, e.drones[1])
	if !p.NeedsDetonation {
		t.Error("armed mine ignored a visible drone")
	}
}

func TestProximity_UnarmedMineIgnoresDrones(t *testing.T) {
	e := newTestEnv(t, 52)
	moveDrone(e, 0, physics.V(9, 13))

	p := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	e.proximityTriggered(e.projectiles[0], e.drones[1])
	if p.NeedsDetonation {
		t.Error("mine detonated while still in flight")
	}
}

func TestProximity_OccludedDroneDeferred(t *testing.T) {
	e := newTestEnv(t, 53)
	moveDrone(e, 0, physics.V(5, 13))

	p := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	ent := e.projectiles[0]
	base := e.createWall(physics.V(6, 11), physics.V(1, 1), StandardWall, false, false)
	moveDrone(e, 0, physics.V(29, 13))
	moveDrone(e, 1, physics.V(33, 13))
	e.setMine(ent, base, physics.V(6, 12))
	p.Pos = p.Body.Position()

	// A wall between the mine and the drone defers the trigger.
	cover := e.createWall(physics.V(7, 13), physics.V(0.3, 1), StandardWall, false, false)
	moveDrone(e, 1, physics.V(8, 13))

	e.proximityTriggered(ent, e.drones[1])
	if p.NeedsDetonation {
		t.Fatal("mine detonated through cover")
	}
	if len(p.OccludedDrones) != 1 {
		t.Fatalf("occluded list = %d entries, want 1", len(p.OccludedDrones))
	}

	// Cover gone: the per-step re-check trips the mine.
	e.destroyWall(cover)
	e.mineOcclusionCheck(ent)
	if !p.NeedsDetonation {
		t.Error("mine did not trigger once line of sight opened")
	}
}

func TestProximity_FlakSafeDistance(t *testing.T) {
	e := newTestEnv(t, 54)
	moveDrone(e, 0, physics.V(9, 13))
	moveDrone(e, 1, physics.V(11, 13))

	p := fireAt(t, e, 0, "flak_cannon", physics.V(1, 0))
	ent := e.projectiles[0]
	w := e.weapons.Info(p.Weapon)

	// Shooter proximity never detonates a flak shell.
	e.proximityTriggered(ent, e.drones[0])
	if p.NeedsDetonation {
		t.Fatal("flak detonated on its own shooter")
	}

	// Too close to the muzzle: no detonation yet.
	p.DistanceLeft = w.MaxDistance - w.SafeDistance/2
	e.proximityTriggered(ent, e.drones[1])
	if p.NeedsDetonation {
		t.Fatal("flak detonated inside its safe distance")
	}

	// Past the safe distance it arms.
	p.DistanceLeft = w.MaxDistance - w.SafeDistance - 1
	e.proximityTriggered(ent, e.drones[1])
	if !p.NeedsDetonation {
		t.Error("flak did not detonate past its safe distance")
	}
}

func TestDetonateQueued_MineChain(t *testing.T) {
	e := newTestEnv(t, 55)
	moveDrone(e, 0, physics.V(9, 13))

	// Two armed mines within each other's blast radius.
	first := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0))
	firstEnt := e.projectiles[0]
	second := fireAt(t, e, 0, "mine_launcher", physics.V(1, 0.2))
	secondEnt := e.projectiles[1]

	base := e.createWall(physics.V(12, 13), physics.V(1, 1), StandardWall, false, false)
	moveDrone(e, 0, physics.V(29, 13))
	moveDrone(e, 1, physics.V(33, 13))
	e.setMine(firstEnt, base, physics.V(11, 13))
	first.Pos = first.Body.Position()
	e.setMine(secondEnt, base, physics.V(11, 13.5))
	second.Pos = second.Body.Position()

	e.queueDetonation(firstEnt)
	e.detonateQueued()

	if e.world.Alive(firstEnt) || e.world.Alive(secondEnt) {
		t.Error("mine chain left a mine alive")
	}
	if len(e.explosions) != 2 {
		t.Errorf("explosions = %d, want 2", len(e.explosions))
	}
}

func TestQueueDetonation_Idempotent(t *testing.T) {
	e := newTestEnv(t, 56)
	moveDrone(e, 0, physics.V(9, 13))

	fireAt(t, e, 0, "flak_cannon", physics.V(1, 0))
	ent := e.projectiles[0]

	e.queueDetonation(ent)
	e.queueDetonation(ent)
	if len(e.explodingProjectiles) != 1 {
		t.Errorf("detonation queue = %d entries, want 1", len(e.explodingProjectiles))
	}
}
