package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// projectileMask is what projectiles collide with. Pickups are sensors
// and never block shots.
const projectileMask = physics.CategoryWall | physics.CategoryFloatingWall |
	physics.CategoryDrone | physics.CategoryProjectile | physics.CategoryShield

// createProjectile spawns one shot just outside the shooter's hull.
// When the shooter is pressed against a wall the spawn point is pulled
// back in front of the wall so shots never start inside geometry. A
// fraction of the shooter's lateral velocity carries into the shot.
func (e *Env) createProjectile(shooterEnt ecs.Entity, dir physics.Vec2) ecs.Entity {
	d := e.droneMap.Get(shooterEnt)
	w := e.weapons.Info(d.Weapon)

	spawnDist := e.cfg.Drone.Radius*1.5 + w.Radius
	pos := physics.MulAdd(d.Pos, spawnDist, dir)
	wallMask := physics.CategoryWall | physics.CategoryFloatingWall
	if _, hit, ok := e.phys.RayCastClosest(d.Pos, pos, wallMask); ok {
		pos = physics.MulAdd(hit, -w.Radius, dir)
	}

	lateral := d.LastVelocity.Sub(dir.Scale(d.LastVelocity.Dot(dir)))
	vel := physics.MulAdd(dir.Scale(w.FireSpeed), e.cfg.Drone.MoveAimCoef, lateral)

	entity := e.projMap.NewEntity(&Projectile{
		Weapon:       d.Weapon,
		Shooter:      shooterEnt,
		Pos:          pos,
		LastPos:      pos,
		Velocity:     vel,
		Speed:        vel.Length(),
		LastSpeed:    vel.Length(),
		DistanceLeft: w.MaxDistance,
	})
	ref := Ref{Kind: KindProjectile, Entity: entity}

	p := e.projMap.Get(entity)
	shapes := []physics.ShapeDef{{
		CircleRadius: w.Radius,
		Density:      w.Density,
		Restitution:  1.0,
		Category:     physics.CategoryProjectile,
		Mask:         projectileMask,
		UserData:     ref,
	}}
	if w.ProximityRadius > 0 {
		shapes = append(shapes, physics.ShapeDef{
			CircleRadius: w.ProximityRadius,
			Sensor:       true,
			Category:     physics.CategoryProjectile,
			Mask:         physics.CategoryDrone,
			UserData:     ref,
		})
	}
	p.Body = e.phys.CreateBody(physics.BodyDef{
		Kind:     physics.DynamicBody,
		Position: pos,
		Bullet:   w.Bullet,
	}, shapes...)
	p.Body.SetLinearVelocity(vel)

	e.projectiles = append(e.projectiles, entity)
	return entity
}

// destroyProjectile removes a projectile outright. Detonation goes
// through queueDetonation instead so chains resolve one at a time.
func (e *Env) destroyProjectile(entity ecs.Entity, _ bool) {
	p := e.projMap.Get(entity)
	if !p.MineJoint.IsZero() {
		e.phys.DestroyJoint(p.MineJoint)
		p.MineJoint = physics.Joint{}
	}
	if e.world.Alive(p.Shooter) {
		shooter := e.droneMap.Get(p.Shooter)
		if p.Weapon < len(shooter.Stats.ShotDistances) {
			shooter.Stats.ShotDistances[p.Weapon] += p.Distance
		}
	}
	e.phys.Destroy(p.Body)
	e.projectiles = removeEntity(e.projectiles, entity)
	e.world.RemoveEntity(entity)
}

// queueDetonation marks a projectile for detonation. Idempotent; a
// projectile caught by several explosions this step detonates once.
func (e *Env) queueDetonation(entity ecs.Entity) {
	p := e.projMap.Get(entity)
	if p.NeedsDetonation {
		return
	}
	p.NeedsDetonation = true
	e.explodingProjectiles = append(e.explodingProjectiles, entity)
}

// detonateQueued drains the detonation queue. Explosions can trip more
// mines, growing the queue; draining until empty resolves whole chains
// within the step.
func (e *Env) detonateQueued() {
	for len(e.explodingProjectiles) > 0 {
		entity := e.explodingProjectiles[0]
		e.explodingProjectiles = e.explodingProjectiles[1:]
		if !e.world.Alive(entity) {
			continue
		}
		e.detonateProjectile(entity)
	}
}

func (e *Env) detonateProjectile(entity ecs.Entity) {
	p := e.projMap.Get(entity)
	w := e.weapons.Info(p.Weapon)
	pos := p.Pos
	vel := p.Velocity

	if w.Explodes() {
		e.applyExplosion(explosionParams{
			Source:         entity,
			Shooter:        p.Shooter,
			Pos:            pos,
			Radius:         w.ExplosionRadius,
			Falloff:        w.ExplosionFalloff,
			Impulse:        w.ExplosionImpulse,
			ParentVelocity: vel,
			Weapon:         p.Weapon,
		})
		e.explosions = append(e.explosions, ExplosionRecord{
			Pos:       pos,
			Radius:    w.ExplosionRadius,
			Falloff:   w.ExplosionFalloff,
			Implosion: w.ExplosionImpulse < 0,
		})
	}
	e.destroyProjectile(entity, false)
}

// expireProjectile handles a projectile that ran out of travel budget:
// explosive shots detonate in place, the rest just vanish.
func (e *Env) expireProjectile(entity ecs.Entity) {
	w := e.weapons.Info(e.projMap.Get(entity).Weapon)
	if w.Explodes() {
		e.queueDetonation(entity)
	} else {
		e.destroyProjectile(entity, false)
	}
}

// setMine welds a projectile to the wall it hit and arms it. If a
// visible drone is already inside the proximity radius the mine blows
// on contact instead of arming. Velocity is zeroed so the weld holds
// the contact point exactly.
func (e *Env) setMine(entity ecs.Entity, wallEnt ecs.Entity, anchor physics.Vec2) {
	p := e.projMap.Get(entity)
	if p.IsMine {
		return
	}
	w := e.weapons.Info(p.Weapon)
	for _, droneEnt := range e.drones {
		d := e.droneMap.Get(droneEnt)
		if d.Dead {
			continue
		}
		if d.Pos.Distance(p.Pos) > w.ProximityRadius+e.cfg.Drone.Radius {
			continue
		}
		if e.posBehindWall(p.Pos, d.Pos, wallEnt) {
			continue
		}
		e.queueDetonation(entity)
		return
	}
	wall := e.wallMap.Get(wallEnt)
	p.Body.SetLinearVelocity(physics.Vec2{})
	p.Velocity = physics.Vec2{}
	p.Speed = 0
	p.LastSpeed = 0
	p.MineJoint = e.phys.CreateWeld(wall.Body, p.Body, anchor)
	p.MineBase = wallEnt
	p.IsMine = true
}

// projectilesStep runs per-projectile upkeep: travel budget and armed
// mine line-of-sight re-checks for drones that entered the proximity
// sensor behind cover.
func (e *Env) projectilesStep() {
	for _, entity := range append([]ecs.Entity(nil), e.projectiles...) {
		if !e.world.Alive(entity) {
			continue
		}
		p := e.projMap.Get(entity)
		if p.NeedsDestroy {
			e.destroyProjectile(entity, false)
			continue
		}
		w := e.weapons.Info(p.Weapon)

		travel := p.Pos.Distance(p.LastPos)
		p.Distance += travel
		if w.MaxDistance > 0 && !p.IsMine {
			p.DistanceLeft -= travel
			if p.DistanceLeft <= 0 {
				e.expireProjectile(entity)
				continue
			}
		}

		if p.IsMine && len(p.OccludedDrones) > 0 {
			e.mineOcclusionCheck(entity)
		}
	}
}

// mineOcclusionCheck re-tests drones that tripped a mine's sensor from
// behind a wall. The mine detonates the moment one of them is both in
// range and visible.
func (e *Env) mineOcclusionCheck(entity ecs.Entity) {
	p := e.projMap.Get(entity)
	w := e.weapons.Info(p.Weapon)

	kept := p.OccludedDrones[:0]
	triggered := false
	for _, droneEnt := range p.OccludedDrones {
		if !e.world.Alive(droneEnt) {
			continue
		}
		d := e.droneMap.Get(droneEnt)
		if d.Dead {
			continue
		}
		if d.Pos.Distance(p.Pos) > w.ProximityRadius {
			continue
		}
		if e.posBehindWall(p.Pos, d.Pos, p.MineBase) {
			kept = append(kept, droneEnt)
			continue
		}
		triggered = true
	}
	p.OccludedDrones = kept
	if triggered {
		e.queueDetonation(entity)
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
