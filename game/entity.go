package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// zeroEntity is the null entity handle.
var zeroEntity ecs.Entity

// EntityKind is the closed set of things that can own a physics body.
type EntityKind uint8

const (
	KindWall EntityKind = iota
	KindDrone
	KindProjectile
	KindPickup
	KindShield
)

func (k EntityKind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindDrone:
		return "drone"
	case KindProjectile:
		return "projectile"
	case KindPickup:
		return "pickup"
	case KindShield:
		return "shield"
	}
	return "unknown"
}

// Ref ties a physics fixture back to its owning entity. It is stored as
// fixture user data and recovered in event handlers. The generational
// entity handle makes stale references detectable: a Ref whose entity
// was removed fails the world's Alive check.
type Ref struct {
	Kind   EntityKind
	Entity ecs.Entity
}

// WallType distinguishes wall behavior on contact.
type WallType uint8

const (
	StandardWall WallType = iota
	BouncyWall
	DeathWall
)

func (t WallType) String() string {
	switch t {
	case StandardWall:
		return "standard"
	case BouncyWall:
		return "bouncy"
	case DeathWall:
		return "death"
	}
	return "unknown"
}

// Wall is a static or floating wall segment.
type Wall struct {
	Type     WallType
	Floating bool
	Body     *physics.Body
	Pos      physics.Vec2 // cached; refreshed post-step for floating walls
	HalfExt  physics.Vec2
	Cell     int  // grid cell index, -1 while between cells
	Shrink   bool // placed by the arena shrink
}

// Pickup is a weapon pickup slot. Consuming one destroys its body and
// frees its cell; when the respawn wait elapses it re-rolls its weapon,
// may relocate, and gets a fresh body.
type Pickup struct {
	Weapon      int
	Body        *physics.Body // nil while consumed
	Pos         physics.Vec2
	Cell        int
	RespawnWait float64 // > 0 while consumed

	// Pickups under a resting floating wall cannot be collected.
	FloatingWallsTouching int
}

// Projectile is a weapon shot in flight, or an armed mine once welded.
type Projectile struct {
	Weapon  int
	Shooter ecs.Entity
	Body    *physics.Body

	Pos          physics.Vec2
	LastPos      physics.Vec2
	Velocity     physics.Vec2 // refreshed post-step; survives body destruction
	Speed        float64
	LastSpeed    float64
	Distance     float64 // total distance flown
	DistanceLeft float64 // remaining travel budget; <= 0 only for unlimited weapons
	Bounces      int

	IsMine    bool
	MineJoint physics.Joint
	MineBase  ecs.Entity // wall the mine is welded to

	// Drones inside a mine's proximity sensor but occluded by a wall at
	// entry; re-checked every step until line of sight opens.
	OccludedDrones []ecs.Entity

	NeedsDetonation bool
	NeedsDestroy    bool
}

// DroneStats accumulates per-round values for one drone.
type DroneStats struct {
	Kills            int
	Deaths           int
	Shots            int
	Hits             int
	Bursts           int
	PickupsCollected int
	DistanceTraveled float64
	EnergyEmptied    int
	OwnWeaponDamage  float64 // hit strength dealt to enemies
	DamageTaken      float64
	SelfHits         int // times caught by own shots or blasts

	// Total distance flown by this drone's shots, indexed by weapon
	// type and credited when each projectile is destroyed.
	ShotDistances []float64
}

// DroneStepInfo is the transient per-step record for one drone, reset
// at the start of every step. The bitsets are indexed by opponent.
type DroneStepInfo struct {
	FiredShot      bool
	OwnShotTaken   bool
	HitShot        uint64
	TookShot       uint64
	PickedUpWeapon bool
}

// Drone is one combatant.
type Drone struct {
	Index int
	Team  int
	Body  *physics.Body

	Pos          physics.Vec2
	LastPos      physics.Vec2
	LastVelocity physics.Vec2
	LastAim      physics.Vec2 // unit vector; kept when the aim input is zero

	Weapon         int
	Ammo           int // -1 = infinite
	WeaponCooldown float64
	WeaponCharge   float64 // seconds of held trigger on a charge weapon
	Heat           int
	HeatTimer      float64

	Energy          float64
	EnergyDepleted  bool
	RefillWait      float64
	Braking         bool
	BrakeWasApplied bool // damping needs restoring when braking ends

	ChargingBurst bool
	BurstCharge   float64
	BurstCooldown float64

	Shield ecs.Entity // zero when unshielded

	FloatingWallsTouching int

	// Last enemy to land damage; credited with the kill if this drone
	// dies to a death wall or the arena shrink.
	LastAttacker ecs.Entity

	Dead          bool
	SpawnQuadrant int

	// Per-opponent visibility bitset, recomputed after every step.
	InSight uint64

	StepInfo DroneStepInfo
	Stats    DroneStats
}

// Shield is the temporary spawn protection attached to a drone. Its
// kinematic body is repositioned onto the drone after every step.
type Shield struct {
	Drone    ecs.Entity
	Body     *physics.Body
	Health   int
	Duration float64
}
