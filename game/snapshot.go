package game

import (
	"github.com/PufferAI/impulse-wars/physics"
)

// View types are plain copies of entity state for rendering and
// telemetry. They hold no handles into the environment.

type WallView struct {
	Pos      physics.Vec2
	HalfExt  physics.Vec2
	Type     WallType
	Floating bool
	Angle    float64
}

type DroneView struct {
	Index       int
	Team        int
	Pos         physics.Vec2
	Velocity    physics.Vec2
	Aim         physics.Vec2
	Energy      float64
	Braking     bool
	BurstCharge float64
	Weapon      string
	Ammo        int
	Heat        int
	Shielded    bool
	Dead        bool
	Stats       DroneStats
}

type ProjectileView struct {
	Pos    physics.Vec2
	Radius float64
	Weapon string
	IsMine bool
}

type PickupView struct {
	Pos    physics.Vec2
	Weapon string
	Active bool
}

// Snapshot is the full renderable state of one step.
type Snapshot struct {
	Step        int
	MapName     string
	Bounds      physics.Vec2
	SuddenDeath bool
	RoundOver   bool
	Winner      int

	Walls       []WallView
	Drones      []DroneView
	Projectiles []ProjectileView
	Pickups     []PickupView
	Explosions  []ExplosionRecord

	// Trail points from the last step, empty unless recording is on.
	Trails []TrailPoint
}

// Snapshot copies the current state. Safe to hold across steps.
func (e *Env) Snapshot() Snapshot {
	s := Snapshot{
		Step:        e.step,
		MapName:     e.mapName,
		Bounds:      e.bounds,
		SuddenDeath: e.suddenDeath,
		RoundOver:   e.roundOver,
		Winner:      e.winner,
	}

	for _, ent := range e.staticWalls {
		w := e.wallMap.Get(ent)
		s.Walls = append(s.Walls, WallView{Pos: w.Pos, HalfExt: w.HalfExt, Type: w.Type})
	}
	for _, ent := range e.floatingWalls {
		w := e.wallMap.Get(ent)
		s.Walls = append(s.Walls, WallView{
			Pos:      w.Pos,
			HalfExt:  w.HalfExt,
			Type:     w.Type,
			Floating: true,
			Angle:    w.Body.Angle(),
		})
	}
	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		stats := d.Stats
		stats.ShotDistances = append([]float64(nil), stats.ShotDistances...)
		s.Drones = append(s.Drones, DroneView{
			Index:       d.Index,
			Team:        d.Team,
			Pos:         d.Pos,
			Velocity:    d.LastVelocity,
			Aim:         d.LastAim,
			Energy:      d.Energy,
			Braking:     d.Braking,
			BurstCharge: d.BurstCharge,
			Weapon:      e.weapons.Info(d.Weapon).Name,
			Ammo:        d.Ammo,
			Heat:        d.Heat,
			Shielded:    d.Shield != zeroEntity,
			Dead:        d.Dead,
			Stats:       stats,
		})
	}
	for _, ent := range e.projectiles {
		p := e.projMap.Get(ent)
		w := e.weapons.Info(p.Weapon)
		s.Projectiles = append(s.Projectiles, ProjectileView{
			Pos:    p.Pos,
			Radius: w.Radius,
			Weapon: w.Name,
			IsMine: p.IsMine,
		})
	}
	for _, ent := range e.pickups {
		p := e.pickupMap.Get(ent)
		s.Pickups = append(s.Pickups, PickupView{
			Pos:    p.Pos,
			Weapon: e.weapons.Info(p.Weapon).Name,
			Active: p.RespawnWait <= 0 && p.FloatingWallsTouching == 0,
		})
	}
	s.Explosions = append(s.Explosions, e.explosions...)
	s.Trails = append(s.Trails, e.trails...)
	return s
}
