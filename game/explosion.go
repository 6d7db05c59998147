package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// shieldReduction is the fraction of explosion impulse that reaches a
// shielded drone.
const shieldReduction = 0.25

// staticWallPushCoef tames the recoil a burst earns off a static wall;
// the raw magnitude is compressed through log2 first.
const staticWallPushCoef = 7.5

type explosionParams struct {
	Source         ecs.Entity // never affected by its own explosion
	Shooter        ecs.Entity // drone credited with hits; the burster for bursts
	Pos            physics.Vec2
	Radius         float64
	Falloff        float64
	Impulse        float64 // per unit of projected perimeter; negative pulls inward
	Burst          bool
	ParentVelocity physics.Vec2
	Weapon         int // -1 when no weapon is involved
}

// explosionTarget is one candidate collected during the overlap query.
// Collection and application are separate phases: query callbacks must
// not mutate the world, and an earlier target's impulse must not move a
// later target before its distance was measured.
type explosionTarget struct {
	ref     Ref
	closest physics.Vec2
	dist    float64
}

// applyExplosion deals a radial impulse to everything in range with
// line of sight. Distance is measured to the closest point of each
// target's shape, not its center, so a grazed wall edge still counts.
// Targets farther than radius take a linearly falling fraction of the
// impulse out to radius+falloff; projectiles always take the full
// impulse. Bursts additionally register against static walls, which
// kick the bursting drone back instead of moving.
func (e *Env) applyExplosion(p explosionParams) {
	implosion := p.Impulse < 0
	reach := p.Radius + p.Falloff
	lower := physics.V(p.Pos.X-reach, p.Pos.Y-reach)
	upper := physics.V(p.Pos.X+reach, p.Pos.Y+reach)

	candidateMask := physics.CategoryDrone | physics.CategoryFloatingWall | physics.CategoryProjectile
	if p.Burst {
		candidateMask |= physics.CategoryWall
	}

	var targets []explosionTarget
	seen := map[ecs.Entity]bool{}
	e.phys.QueryAABB(lower, upper, candidateMask, func(userData any) bool {
		ref, ok := userData.(Ref)
		if !ok || ref.Entity == p.Source || seen[ref.Entity] {
			return true
		}
		seen[ref.Entity] = true

		body := e.bodyFor(ref)
		if body == nil {
			return true
		}
		closest, dist := e.phys.ClosestPoint(body, p.Pos)
		if e.staticWall(ref) {
			// Static walls feel the blast itself, never the falloff
			// ring, and nothing can shadow them.
			if dist > p.Radius {
				return true
			}
		} else {
			if dist > reach {
				return true
			}
			if e.explosionOccluded(p.Pos, ref, closest, implosion) {
				return true
			}
		}
		targets = append(targets, explosionTarget{ref: ref, closest: closest, dist: dist})
		return true
	})

	for _, t := range targets {
		if !e.world.Alive(t.ref.Entity) {
			continue
		}
		isWall := e.staticWall(t.ref)

		scale := 1.0
		if t.ref.Kind != KindProjectile && t.dist > p.Radius && p.Falloff > 0 {
			scale = 1 - (t.dist-p.Radius)/p.Falloff
		}

		dir := t.closest.Sub(p.Pos)
		if isWall {
			dir = p.Pos.Sub(t.closest)
		}
		dir = dir.Normalize()
		if dir.IsZero() {
			angle := e.rng.Float64() * 2 * math.Pi
			dir = physics.V(math.Cos(angle), math.Sin(angle))
		}

		parentSpeed := p.ParentVelocity.Length()
		if implosion {
			parentSpeed = -parentSpeed
		}
		if !isWall && parentSpeed != 0 {
			parentSpeed *= dir.Dot(p.ParentVelocity.Normalize())
		}

		perimeter := e.projectedPerimeter(t.ref, dir)
		magnitude := (p.Impulse + parentSpeed) * perimeter * scale

		finalDir := physics.MulAdd(p.ParentVelocity, absf(p.Impulse), dir).Normalize()
		if finalDir.IsZero() {
			finalDir = dir
		}

		switch t.ref.Kind {
		case KindDrone:
			e.explosionHitDrone(p, t.ref.Entity, finalDir.Scale(magnitude))
		case KindWall:
			if isWall {
				e.explosionPushOffWall(p, finalDir, magnitude)
			} else {
				e.explosionHitFloatingWall(t.ref.Entity, finalDir.Scale(magnitude), magnitude)
			}
		case KindProjectile:
			e.explosionHitProjectile(t.ref.Entity, finalDir.Scale(magnitude), !implosion)
		}
	}
}

func (e *Env) staticWall(ref Ref) bool {
	return ref.Kind == KindWall && !e.wallMap.Get(ref.Entity).Floating
}

// projectedPerimeter is the width a target presents to the blast,
// measured along the line perpendicular to the impulse direction.
// Round targets present their diameter from any angle; boxes present
// the projection of their extents onto that line in local space.
func (e *Env) projectedPerimeter(ref Ref, dir physics.Vec2) float64 {
	switch ref.Kind {
	case KindDrone:
		return e.cfg.Drone.Radius * 2
	case KindProjectile:
		return e.weapons.Info(e.projMap.Get(ref.Entity).Weapon).Radius * 2
	case KindWall:
		w := e.wallMap.Get(ref.Entity)
		line := dir.LeftPerp().InvRotate(w.Body.Angle())
		return 2 * (w.HalfExt.X*absf(line.X) + w.HalfExt.Y*absf(line.Y))
	}
	return 0
}

// explosionOccluded tests line of sight from the blast center to the
// target's closest point. Static walls always occlude; floating walls
// shadow pushes but never the vacuum pull of an implosion.
func (e *Env) explosionOccluded(center physics.Vec2, target Ref, closest physics.Vec2, implosion bool) bool {
	mask := physics.CategoryWall
	if !implosion {
		mask |= physics.CategoryFloatingWall
	}
	hit, hitPoint, ok := e.phys.RayCastClosest(center, closest, mask)
	if !ok {
		return false
	}
	if ref, isRef := hit.(Ref); isRef && ref == target {
		return false
	}
	// The ray can clip the target's own surface cell; only a strictly
	// nearer wall blocks.
	return hitPoint.Distance(center) < closest.Distance(center)-1e-9
}

// explosionPushOffWall kicks the source drone away from a static wall
// caught in its burst. The wall itself never moves; the drone rides the
// rebound.
func (e *Env) explosionPushOffWall(p explosionParams, dir physics.Vec2, magnitude float64) {
	if magnitude <= 0 || p.Shooter == zeroEntity || !e.world.Alive(p.Shooter) {
		return
	}
	d := e.droneMap.Get(p.Shooter)
	if d.Dead {
		return
	}
	d.Body.ApplyImpulse(dir.Scale(math.Log2(magnitude) * staticWallPushCoef))
}

func (e *Env) explosionHitDrone(p explosionParams, droneEnt ecs.Entity, impulse physics.Vec2) {
	d := e.droneMap.Get(droneEnt)
	if d.Dead {
		return
	}
	if d.Shield != zeroEntity {
		s := e.shieldMap.Get(d.Shield)
		s.Health--
		impulse = impulse.Scale(shieldReduction)
	}
	d.Body.ApplyImpulse(impulse)

	hitStrength := impulse.Length() / (d.Body.Mass() * e.cfg.Drone.MaxSpeed)
	hitStrength = clamp(hitStrength, 0, 1)
	d.Stats.DamageTaken += hitStrength

	if p.Shooter == zeroEntity || !e.world.Alive(p.Shooter) {
		return
	}
	if p.Shooter == droneEnt {
		if !p.Burst {
			d.StepInfo.OwnShotTaken = true
			d.Stats.SelfHits++
		}
		return
	}
	shooter := e.droneMap.Get(p.Shooter)
	if shooter.Dead || shooter.Team == d.Team {
		return
	}
	shooter.Stats.Hits++
	shooter.Stats.OwnWeaponDamage += hitStrength
	shooter.StepInfo.HitShot |= 1 << uint(d.Index)
	d.StepInfo.TookShot |= 1 << uint(shooter.Index)
	d.LastAttacker = p.Shooter
	if p.Weapon >= 0 {
		e.droneAddEnergy(p.Shooter, e.weapons.Info(p.Weapon).EnergyRefill*hitStrength)
	}
}

// explosionHitFloatingWall shoves a floating wall and spins it.
func (e *Env) explosionHitFloatingWall(wallEnt ecs.Entity, impulse physics.Vec2, magnitude float64) {
	w := e.wallMap.Get(wallEnt)
	w.Body.ApplyImpulse(impulse)
	w.Body.ApplyAngularImpulse(magnitude)
}

// explosionHitProjectile pushes a projectile, keeping it at or above
// the speed it already had so deflected shots stay dangerous. Armed
// mines are not pushed; a push chain-detonates them, while an implosion
// only drags at their weld.
func (e *Env) explosionHitProjectile(projEnt ecs.Entity, impulse physics.Vec2, chainMines bool) {
	p := e.projMap.Get(projEnt)
	if p.IsMine {
		if chainMines {
			e.queueDetonation(projEnt)
		}
		return
	}
	vel := p.Body.LinearVelocity().Add(impulse.Scale(1 / p.Body.Mass()))
	speed := vel.Length()
	if speed < p.LastSpeed {
		vel = vel.Normalize().Scale(p.LastSpeed)
		speed = p.LastSpeed
	}
	p.Body.SetLinearVelocity(vel)
	p.LastSpeed = math.Max(p.LastSpeed, speed)
}

// bodyFor resolves a Ref to its physics body, nil when the entity is
// gone or bodiless.
func (e *Env) bodyFor(ref Ref) *physics.Body {
	if !e.world.Alive(ref.Entity) {
		return nil
	}
	switch ref.Kind {
	case KindDrone:
		return e.droneMap.Get(ref.Entity).Body
	case KindWall:
		return e.wallMap.Get(ref.Entity).Body
	case KindProjectile:
		return e.projMap.Get(ref.Entity).Body
	case KindPickup:
		return e.pickupMap.Get(ref.Entity).Body
	case KindShield:
		return e.shieldMap.Get(ref.Entity).Body
	}
	return nil
}
