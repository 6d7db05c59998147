package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// refOf recovers the entity reference a fixture was tagged with.
func refOf(userData any) (Ref, bool) {
	ref, ok := userData.(Ref)
	return ref, ok
}

// alive reports whether a batched event still refers to a live entity.
// An earlier event in the same batch may have destroyed it.
func (e *Env) alive(ref Ref) bool {
	return e.world.Alive(ref.Entity)
}

func (e *Env) handleContactBegins(contacts []physics.Contact) {
	for _, c := range contacts {
		a, okA := refOf(c.A)
		b, okB := refOf(c.B)
		if !okA || !okB {
			continue
		}
		e.handleContactBegin(a, b, c)
		e.handleContactBegin(b, a, c)
	}
}

// handleContactBegin dispatches one begin-touch from the perspective of
// self hitting other.
func (e *Env) handleContactBegin(self, other Ref, c physics.Contact) {
	if !e.alive(self) || !e.alive(other) {
		return
	}
	switch self.Kind {
	case KindProjectile:
		e.projectileBeginContact(self.Entity, other, c)
	case KindDrone:
		if other.Kind == KindWall && e.wallMap.Get(other.Entity).Type == DeathWall {
			e.killDrone(self.Entity)
		}
	case KindShield:
		// The buffer shape on the drone body meets walls; a death wall
		// burns the shield out without touching the drone behind it.
		if other.Kind == KindWall && e.wallMap.Get(other.Entity).Type == DeathWall {
			e.destroyShield(self.Entity)
		}
	}
}

func (e *Env) projectileBeginContact(projEnt ecs.Entity, other Ref, c physics.Contact) {
	p := e.projMap.Get(projEnt)
	w := e.weapons.Info(p.Weapon)

	switch other.Kind {
	case KindWall:
		wall := e.wallMap.Get(other.Entity)
		if wall.Type == DeathWall {
			e.destroyProjectile(projEnt, false)
			return
		}
		// Bouncy walls return shots without spending a bounce; mines
		// don't stick to them either.
		if wall.Type == BouncyWall {
			return
		}
		if w.SetsMine && !p.IsMine {
			anchor := p.Pos
			if c.HasPoint {
				anchor = c.Point
			}
			e.setMine(projEnt, other.Entity, anchor)
			return
		}
		if p.IsMine {
			return
		}
		p.Bounces++
		if w.MaxBounces > 0 && p.Bounces == w.MaxBounces {
			e.expireProjectile(projEnt)
		}

	case KindDrone:
		p.Bounces++
		if e.projectileHitDrone(projEnt, other.Entity) {
			return
		}
		if w.MaxBounces > 0 && p.Bounces == w.MaxBounces {
			e.expireProjectile(projEnt)
		}

	case KindShield:
		s := e.shieldMap.Get(other.Entity)
		s.Health--
		if w.Explodes() {
			e.queueDetonation(projEnt)
		} else {
			e.destroyProjectile(projEnt, false)
		}

	case KindProjectile:
		// Mines detonate when struck by any shot; everything else
		// bounces off freely.
		if w.SetsMine {
			e.queueDetonation(projEnt)
		}
	}
}

// projectileHitDrone resolves a direct hit: stats and energy for the
// shooter, damage for the target, then the projectile detonates or
// vanishes unless its weapon bounces off drones. The knockback itself
// comes from the collision solver. Reports whether the projectile was
// spent.
func (e *Env) projectileHitDrone(projEnt, droneEnt ecs.Entity) bool {
	p := e.projMap.Get(projEnt)
	w := e.weapons.Info(p.Weapon)
	d := e.droneMap.Get(droneEnt)

	hitStrength := clamp(p.LastSpeed/e.cfg.Drone.MaxSpeed, 0, 1)
	d.Stats.DamageTaken += hitStrength

	if p.Shooter == droneEnt {
		d.StepInfo.OwnShotTaken = true
		d.Stats.SelfHits++
	} else if e.world.Alive(p.Shooter) {
		shooter := e.droneMap.Get(p.Shooter)
		if !shooter.Dead && shooter.Team != d.Team {
			shooter.Stats.Hits++
			shooter.Stats.OwnWeaponDamage += hitStrength
			shooter.StepInfo.HitShot |= 1 << uint(d.Index)
			d.StepInfo.TookShot |= 1 << uint(shooter.Index)
			d.LastAttacker = p.Shooter
			e.droneAddEnergy(p.Shooter, w.EnergyRefill*hitStrength)
		}
	}

	if !w.DestroyedOnDroneHit {
		return false
	}
	if p.IsMine || w.Explodes() {
		e.queueDetonation(projEnt)
	} else {
		e.destroyProjectile(projEnt, false)
	}
	return true
}

func (e *Env) handleContactEnds(contacts []physics.Contact) {
	for _, c := range contacts {
		a, okA := refOf(c.A)
		b, okB := refOf(c.B)
		if !okA || !okB {
			continue
		}
		if a.Kind == KindProjectile && e.alive(a) {
			e.projectileEndContact(a.Entity, b)
		}
		if b.Kind == KindProjectile && e.alive(b) {
			e.projectileEndContact(b.Entity, a)
		}
	}
}

// projectileEndContact restores a projectile's speed after a bounce.
// The solver bleeds speed on every impact; shots are meant to stay
// lethal, so speed snaps back to the pre-impact value. Accelerator
// shots instead gain speed per bounce up to their cap. Mines stay put.
func (e *Env) projectileEndContact(projEnt ecs.Entity, other Ref) {
	p := e.projMap.Get(projEnt)
	if p.IsMine || e.weapons.Info(p.Weapon).SetsMine {
		return
	}
	vel := p.Body.LinearVelocity()
	speed := vel.Length()
	if speed < 1e-9 {
		return
	}
	// Parting with a different weapon's projectile may have flung this
	// one faster than it was moving; keep the gain, only backstop the
	// loss.
	if other.Kind == KindProjectile && e.alive(other) &&
		e.projMap.Get(other.Entity).Weapon != p.Weapon {
		if speed < p.LastSpeed {
			p.Body.SetLinearVelocity(vel.Scale(p.LastSpeed / speed))
			speed = p.LastSpeed
		}
		p.Speed = speed
		p.LastSpeed = speed
		return
	}
	w := e.weapons.Info(p.Weapon)
	target := p.LastSpeed
	if w.BounceSpeedCoef > 0 {
		target = math.Min(p.LastSpeed*w.BounceSpeedCoef, w.MaxSpeed)
	}
	p.Body.SetLinearVelocity(vel.Scale(target / speed))
	p.Speed = target
	p.LastSpeed = target
}

func (e *Env) handleSensorBegins(events []physics.SensorEvent) {
	for _, ev := range events {
		sensor, okS := refOf(ev.Sensor)
		visitor, okV := refOf(ev.Visitor)
		if !okS || !okV || !e.alive(sensor) || !e.alive(visitor) {
			continue
		}
		switch sensor.Kind {
		case KindPickup:
			switch visitor.Kind {
			case KindDrone:
				e.consumePickup(sensor.Entity, visitor.Entity)
			case KindWall:
				if e.wallMap.Get(visitor.Entity).Floating {
					e.pickupMap.Get(sensor.Entity).FloatingWallsTouching++
				}
			}
		case KindProjectile:
			if visitor.Kind == KindDrone {
				e.proximityTriggered(sensor.Entity, visitor.Entity)
			}
		}
	}
}

// proximityTriggered fires when a drone enters a projectile's proximity
// sensor. Flak shells detonate once they are far enough from their
// shooter; armed mines detonate unless the drone is behind cover, in
// which case line of sight is re-checked every step.
func (e *Env) proximityTriggered(projEnt, droneEnt ecs.Entity) {
	p := e.projMap.Get(projEnt)
	w := e.weapons.Info(p.Weapon)
	d := e.droneMap.Get(droneEnt)
	if d.Dead {
		return
	}

	if w.SetsMine {
		if !p.IsMine {
			return // still flying, not armed yet
		}
		if e.posBehindWall(p.Pos, d.Pos, p.MineBase) {
			p.OccludedDrones = append(p.OccludedDrones, droneEnt)
			return
		}
		e.queueDetonation(projEnt)
		return
	}

	if droneEnt == p.Shooter {
		return
	}
	if w.SafeDistance > 0 && w.MaxDistance > 0 {
		traveled := w.MaxDistance - p.DistanceLeft
		if traveled < w.SafeDistance {
			return
		}
	}
	e.queueDetonation(projEnt)
}

func (e *Env) handleSensorEnds(events []physics.SensorEvent) {
	for _, ev := range events {
		sensor, okS := refOf(ev.Sensor)
		visitor, okV := refOf(ev.Visitor)
		if !okS || !okV || !e.alive(sensor) || !e.alive(visitor) {
			continue
		}
		switch sensor.Kind {
		case KindPickup:
			if visitor.Kind == KindWall && e.wallMap.Get(visitor.Entity).Floating {
				pk := e.pickupMap.Get(sensor.Entity)
				if pk.FloatingWallsTouching > 0 {
					pk.FloatingWallsTouching--
				}
			}
		case KindProjectile:
			if visitor.Kind == KindDrone {
				p := e.projMap.Get(sensor.Entity)
				p.OccludedDrones = removeEntity(p.OccludedDrones, visitor.Entity)
			}
		}
	}
}
