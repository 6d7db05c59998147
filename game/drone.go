package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// createDrone makes a drone entity, its body and its spawn shield. The
// drone and its shield share a negative collision group so they never
// collide with each other.
func (e *Env) createDrone(index, team, quadrant int, pos physics.Vec2) ecs.Entity {
	entity := e.droneMap.NewEntity(&Drone{
		Index:         index,
		Team:          team,
		Pos:           pos,
		LastPos:       pos,
		LastAim:       physics.V(1, 0),
		Weapon:        e.weapons.Default(),
		Ammo:          -1,
		Energy:        e.cfg.Drone.MaxEnergy,
		SpawnQuadrant: quadrant,
		Stats:         DroneStats{ShotDistances: make([]float64, e.weapons.Len())},
	})
	ref := Ref{Kind: KindDrone, Entity: entity}

	d := e.droneMap.Get(entity)
	d.Body = e.phys.CreateBody(physics.BodyDef{
		Kind:          physics.DynamicBody,
		Position:      pos,
		LinearDamping: e.cfg.Drone.Damping,
		FixedRotation: true,
	}, physics.ShapeDef{
		CircleRadius: e.cfg.Drone.Radius,
		Density:      e.cfg.Drone.Density,
		Friction:     0.1,
		Restitution:  0.3,
		Category:     physics.CategoryDrone,
		Mask:         physics.CategoryAll,
		Group:        -int16(index + 1),
		UserData:     ref,
	})

	e.drones = append(e.drones, entity)
	e.createShield(entity)
	return entity
}

// createShield attaches spawn protection to a drone. The shield is two
// shapes on two bodies: a kinematic circle that projectiles and enemy
// drones bounce off without moving the owner, and a buffer circle on
// the drone body itself so the shield's radius still collides with
// walls and other shields. The kinematic body is snapped to the
// drone's position after every step.
func (e *Env) createShield(droneEnt ecs.Entity) {
	d := e.droneMap.Get(droneEnt)
	if d.Shield != zeroEntity {
		return
	}
	entity := e.shieldMap.NewEntity(&Shield{
		Drone:    droneEnt,
		Health:   e.cfg.Shield.Health,
		Duration: e.cfg.Shield.Duration,
	})
	s := e.shieldMap.Get(entity)
	ref := Ref{Kind: KindShield, Entity: entity}
	s.Body = e.phys.CreateBody(physics.BodyDef{
		Kind:          physics.KinematicBody,
		Position:      d.Pos,
		FixedRotation: true,
	}, physics.ShapeDef{
		CircleRadius: e.cfg.Shield.Radius,
		Density:      1,
		Category:     physics.CategoryShield,
		Mask:         physics.CategoryProjectile | physics.CategoryDrone,
		Group:        -int16(d.Index + 1),
		UserData:     ref,
	})
	d.Body.AddShape(physics.ShapeDef{
		CircleRadius: e.cfg.Shield.Radius,
		Friction:     0.1,
		Restitution:  0.3,
		Category:     physics.CategoryShield,
		Mask:         physics.CategoryWall | physics.CategoryFloatingWall | physics.CategoryShield,
		Group:        -int16(d.Index + 1),
		UserData:     ref,
	})
	d.Shield = entity
}

func (e *Env) destroyShield(shieldEnt ecs.Entity) {
	s := e.shieldMap.Get(shieldEnt)
	d := e.droneMap.Get(s.Drone)
	d.Shield = zeroEntity
	d.Body.RemoveLastShape()
	e.phys.Destroy(s.Body)
	e.world.RemoveEntity(shieldEnt)
}

// killDrone marks a drone dead and pulls its body out of simulation.
// The entity itself stays so stats and indices survive to round end.
func (e *Env) killDrone(droneEnt ecs.Entity) {
	d := e.droneMap.Get(droneEnt)
	if d.Dead {
		return
	}
	d.Dead = true
	d.Stats.Deaths++
	if d.LastAttacker != zeroEntity && d.LastAttacker != droneEnt && e.world.Alive(d.LastAttacker) {
		e.droneMap.Get(d.LastAttacker).Stats.Kills++
	}
	d.Braking = false
	d.ChargingBurst = false
	if d.Shield != zeroEntity {
		e.destroyShield(d.Shield)
	}
	d.Body.SetEnabled(false)
	e.log.Info("drone killed", "drone", d.Index, "step", e.step)
}

// applyAction applies one drone's input for this step.
func (e *Env) applyAction(droneEnt ecs.Entity, a Action) {
	d := e.droneMap.Get(droneEnt)

	if !a.Move.IsZero() {
		e.droneMove(droneEnt, a.Move)
	}
	if !a.Aim.IsZero() {
		d.LastAim = a.Aim.Normalize()
	}

	e.droneBrake(droneEnt, a.Brake)

	if a.Burst {
		e.droneChargeBurst(droneEnt)
	} else if d.ChargingBurst {
		e.droneBurst(droneEnt)
	}

	w := e.weapons.Info(d.Weapon)
	if w.Charge > 0 {
		if a.Shoot {
			d.WeaponCharge = math.Min(d.WeaponCharge+e.cfg.Physics.DT, w.Charge)
		} else {
			if d.WeaponCharge >= w.Charge {
				e.droneShoot(droneEnt)
			}
			d.WeaponCharge = 0
		}
	} else if a.Shoot {
		e.droneShoot(droneEnt)
	}

	if a.Discard {
		e.droneDiscardWeapon(droneEnt)
	}
}

// droneMove applies thrust in the move direction. Thrust is cut while
// the drone waits out an energy depletion.
func (e *Env) droneMove(droneEnt ecs.Entity, move physics.Vec2) {
	d := e.droneMap.Get(droneEnt)
	if move.LengthSquared() > 1 {
		move = move.Normalize()
	}
	mag := e.cfg.Drone.MoveMagnitude
	if d.EnergyDepleted && d.RefillWait > 0 {
		mag *= e.cfg.Drone.DepletedMoveFactor
	}
	d.Body.ApplyForce(move.Scale(mag))
}

// droneBrake toggles high linear damping while held. Braking drains
// energy and releases itself on depletion; releasing the brake starts
// the short refill wait.
func (e *Env) droneBrake(droneEnt ecs.Entity, braking bool) {
	d := e.droneMap.Get(droneEnt)
	if braking && (d.EnergyDepleted || d.Energy <= 0) {
		braking = false
	}
	if braking && !d.Braking {
		d.Braking = true
		d.Body.SetLinearDamping(e.cfg.Drone.BrakeDamping)
	} else if !braking && d.Braking {
		d.Braking = false
		d.Body.SetLinearDamping(e.cfg.Drone.Damping)
		if d.RefillWait == 0 && !d.ChargingBurst {
			d.RefillWait = e.cfg.Drone.EnergyRefillWait
		}
	}
	if d.Braking {
		e.droneAddEnergy(droneEnt, -e.cfg.Drone.BrakeDrainRate*e.cfg.Physics.DT)
	}
}

// droneAddEnergy adjusts a drone's energy. While a burst is held the
// adjustment lands on the burst charge instead, so hits landed
// mid-charge make the burst stronger and costs paid mid-charge weaken
// it. Draining the tank dry triggers the long depletion wait.
func (e *Env) droneAddEnergy(droneEnt ecs.Entity, amount float64) {
	d := e.droneMap.Get(droneEnt)
	if d.ChargingBurst {
		d.BurstCharge = clamp(d.BurstCharge+amount, 0, e.cfg.Drone.MaxEnergy)
		return
	}
	d.Energy = clamp(d.Energy+amount, 0, e.cfg.Drone.MaxEnergy)
	if d.Energy == 0 && !d.EnergyDepleted {
		d.EnergyDepleted = true
		d.Stats.EnergyEmptied++
		d.RefillWait = e.cfg.Drone.EnergyEmptyWait
	}
}

// droneChargeBurst starts or continues charging a burst. Starting costs
// a base amount of energy; holding converts energy into charge at a
// fixed rate. Running dry counts as a full depletion and releases the
// burst immediately.
func (e *Env) droneChargeBurst(droneEnt ecs.Entity) {
	d := e.droneMap.Get(droneEnt)
	if d.EnergyDepleted || d.BurstCooldown > 0 ||
		(!d.ChargingBurst && d.Energy < e.cfg.Burst.BaseCost) {
		return
	}
	if !d.ChargingBurst {
		d.Energy -= e.cfg.Burst.BaseCost
		d.ChargingBurst = true
		d.BurstCharge = e.cfg.Burst.BaseCost
	} else {
		drain := math.Min(e.cfg.Burst.ChargeRate*e.cfg.Physics.DT, d.Energy)
		d.Energy -= drain
		d.BurstCharge = math.Min(d.BurstCharge+drain, e.cfg.Drone.MaxEnergy)
	}
	if d.Energy <= 0 {
		d.Energy = 0
		d.EnergyDepleted = true
		d.Stats.EnergyEmptied++
		e.droneBurst(droneEnt)
	}
}

// droneBurst releases a charged burst: an explosion centered on the
// drone that pushes everything nearby away, trips mines, and rebounds
// the drone off any static wall in range. The emitter takes no direct
// impulse from its own burst.
func (e *Env) droneBurst(droneEnt ecs.Entity) {
	d := e.droneMap.Get(droneEnt)
	if !d.ChargingBurst {
		return
	}
	frac := clamp(d.BurstCharge/e.cfg.Drone.MaxEnergy, 0, 1)
	radius := lerp(e.cfg.Burst.MinRadius, e.cfg.Burst.MaxRadius, frac)
	impulse := lerp(e.cfg.Burst.MinImpulse, e.cfg.Burst.MaxImpulse, frac)

	e.applyExplosion(explosionParams{
		Source:         droneEnt,
		Shooter:        droneEnt,
		Pos:            d.Pos,
		Radius:         radius,
		Falloff:        radius * 0.5,
		Impulse:        impulse,
		Burst:          true,
		ParentVelocity: d.LastVelocity,
		Weapon:         -1,
	})
	e.explosions = append(e.explosions, ExplosionRecord{
		Pos:    d.Pos,
		Radius: radius,
	})

	d.ChargingBurst = false
	d.BurstCharge = 0
	d.BurstCooldown = e.cfg.Burst.Cooldown
	if d.Energy <= 0 {
		d.RefillWait = e.cfg.Drone.EnergyEmptyWait
	} else {
		d.RefillWait = e.cfg.Drone.EnergyRefillWait
	}
	d.Stats.Bursts++
}

// droneShoot fires the current weapon if it is off cooldown. Firing
// builds heat, which widens aim jitter until it decays.
func (e *Env) droneShoot(droneEnt ecs.Entity) {
	d := e.droneMap.Get(droneEnt)
	// Heat builds on every trigger pull, even ones the cooldown eats.
	d.Heat++
	d.HeatTimer = 0
	if d.WeaponCooldown > 0 {
		return
	}
	w := e.weapons.Info(d.Weapon)

	d.WeaponCooldown = w.Cooldown
	d.Stats.Shots++
	d.StepInfo.FiredShot = true

	aim := d.LastAim
	for i := 0; i < w.NumProjectiles; i++ {
		dir := aim.Rotate(e.shotJitter(d, w.NumProjectiles, i))
		e.createProjectile(droneEnt, dir)
	}

	d.Body.ApplyImpulse(aim.Scale(-w.Recoil))

	if d.Ammo > 0 {
		d.Ammo--
		if d.Ammo == 0 {
			e.forceDefaultWeapon(droneEnt)
		}
	}
}

// shotJitter combines heat-scaled noise with the volley spread for
// multi-projectile weapons.
func (e *Env) shotJitter(d *Drone, numProjectiles, i int) float64 {
	w := e.weapons.Info(d.Weapon)
	jitter := (e.rng.Float64()*2 - 1) * w.AimNoise * float64(d.Heat)
	if numProjectiles > 1 {
		const volleyArc = 0.35
		step := volleyArc / float64(numProjectiles-1)
		jitter += -volleyArc/2 + step*float64(i)
	}
	return jitter
}

// forceDefaultWeapon swaps an emptied weapon for the default one. The
// swap carries the default weapon's full cooldown so running dry is
// punished.
func (e *Env) forceDefaultWeapon(droneEnt ecs.Entity) {
	e.setDroneWeapon(droneEnt, e.weapons.Default())
	d := e.droneMap.Get(droneEnt)
	d.WeaponCooldown = e.weapons.Info(d.Weapon).Cooldown
}

// droneDiscardWeapon voluntarily drops back to the default weapon for
// an energy price. A fully drained drone cannot afford it unless the
// cost can come out of a held burst charge.
func (e *Env) droneDiscardWeapon(droneEnt ecs.Entity) {
	d := e.droneMap.Get(droneEnt)
	if d.Weapon == e.weapons.Default() || (d.EnergyDepleted && !d.ChargingBurst) {
		return
	}
	e.setDroneWeapon(droneEnt, e.weapons.Default())
	e.droneAddEnergy(droneEnt, -e.cfg.Drone.WeaponDiscardCost)
	if d.ChargingBurst {
		return
	}
	// droneAddEnergy already arranged the long wait if the cost
	// emptied the tank.
	if !d.EnergyDepleted {
		d.RefillWait = e.cfg.Drone.EnergyRefillWait
	}
}

// setDroneWeapon arms a drone with a weapon. Picking up the type
// already held only tops up ammo; a genuine swap resets the firing
// state.
func (e *Env) setDroneWeapon(droneEnt ecs.Entity, weapon int) {
	d := e.droneMap.Get(droneEnt)
	if d.Weapon == weapon {
		d.Ammo = e.weapons.Info(weapon).Ammo
		return
	}
	d.Weapon = weapon
	d.Ammo = e.weapons.Info(weapon).Ammo
	d.WeaponCharge = 0
	d.WeaponCooldown = 0
	d.Heat = 0
	d.HeatTimer = 0
}

// dronesStep advances per-drone timers: cooldowns, heat decay, energy
// refill and shield expiry.
func (e *Env) dronesStep() {
	dt := e.cfg.Physics.DT
	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		if d.Dead {
			continue
		}

		d.WeaponCooldown = math.Max(0, d.WeaponCooldown-dt)
		d.BurstCooldown = math.Max(0, d.BurstCooldown-dt)

		if d.Heat > 0 {
			d.HeatTimer += dt
			for d.HeatTimer >= e.cfg.Drone.HeatDecayInterval && d.Heat > 0 {
				d.HeatTimer -= e.cfg.Drone.HeatDecayInterval
				d.Heat--
			}
		}

		// The refill wait ticks down first; energy then refills while
		// not braking and not charging a burst. Depletion only clears
		// once the tank is full again.
		if d.RefillWait > 0 {
			d.RefillWait = math.Max(0, d.RefillWait-dt)
		} else if !d.Braking && !d.ChargingBurst && d.Energy < e.cfg.Drone.MaxEnergy {
			d.Energy = math.Min(e.cfg.Drone.MaxEnergy, d.Energy+e.cfg.Drone.EnergyRefillRate*dt)
		}
		if d.Energy == e.cfg.Drone.MaxEnergy {
			d.EnergyDepleted = false
		}

		if d.Shield != zeroEntity {
			s := e.shieldMap.Get(d.Shield)
			s.Duration -= dt
			if s.Duration <= 0 || s.Health <= 0 {
				e.destroyShield(d.Shield)
			}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
