package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// pickupHalfExtent is the sensor box half-size of a weapon pickup.
const pickupHalfExtent = 0.6

// createPickup places a pickup at pos with a freshly rolled weapon.
// The body is a static sensor; drones collect it by overlap and
// floating walls can park on it and block collection.
func (e *Env) createPickup(pos physics.Vec2) ecs.Entity {
	weapon := e.weapons.PickRandom(e.rng, e.weaponSpawnCounts)
	e.weaponSpawnCounts[weapon]++

	entity := e.pickupMap.NewEntity(&Pickup{
		Weapon: weapon,
		Pos:    pos,
		Cell:   -1,
	})
	e.attachPickupBody(entity)

	p := e.pickupMap.Get(entity)
	if idx := e.grid.CellForPos(pos); idx >= 0 {
		p.Cell = idx
		e.grid.SetOccupant(idx, Ref{Kind: KindPickup, Entity: entity})
	}

	e.pickups = append(e.pickups, entity)
	return entity
}

// attachPickupBody gives a pickup its sensor body at its current
// position. Consumed pickups have no body until they respawn.
func (e *Env) attachPickupBody(entity ecs.Entity) {
	p := e.pickupMap.Get(entity)
	p.Body = e.phys.CreateBody(physics.BodyDef{
		Kind:     physics.StaticBody,
		Position: p.Pos,
	}, physics.ShapeDef{
		BoxHalfExtents: physics.V(pickupHalfExtent, pickupHalfExtent),
		Sensor:         true,
		Category:       physics.CategoryPickup,
		Mask:           physics.CategoryDrone | physics.CategoryFloatingWall,
		UserData:       Ref{Kind: KindPickup, Entity: entity},
	})
}

func (e *Env) destroyPickup(entity ecs.Entity) {
	p := e.pickupMap.Get(entity)
	if p.Cell >= 0 {
		if ref, ok := e.grid.Occupant(p.Cell); ok && ref.Entity == entity {
			e.grid.ClearOccupant(p.Cell)
		}
	}
	if p.Body != nil {
		e.phys.Destroy(p.Body)
	}
	e.pickups = removeEntity(e.pickups, entity)
	e.world.RemoveEntity(entity)
}

// consumePickup arms the drone with the pickup's weapon and starts the
// pickup's respawn wait. A pickup pinned under a floating wall cannot
// be taken.
func (e *Env) consumePickup(pickupEnt, droneEnt ecs.Entity) {
	p := e.pickupMap.Get(pickupEnt)
	if p.RespawnWait > 0 || p.FloatingWallsTouching > 0 {
		return
	}
	d := e.droneMap.Get(droneEnt)
	if d.Dead {
		return
	}
	e.setDroneWeapon(droneEnt, p.Weapon)
	d.Stats.PickupsCollected++
	d.StepInfo.PickedUpWeapon = true

	e.disablePickup(pickupEnt)
	e.log.Debug("pickup collected",
		"drone", d.Index,
		"weapon", e.weapons.Info(p.Weapon).Name,
	)
}

// disablePickup takes a pickup off the map and starts its respawn
// wait. Used when a drone collects it and when the shrinking arena
// swallows its cell; either way it comes back elsewhere.
func (e *Env) disablePickup(entity ecs.Entity) {
	p := e.pickupMap.Get(entity)
	if p.Body == nil {
		return
	}
	// Respawns slow down once the arena has started shrinking.
	p.RespawnWait = e.cfg.Pickup.RespawnWait
	if e.suddenDeath {
		p.RespawnWait *= 2
	}
	if p.Cell >= 0 {
		if ref, ok := e.grid.Occupant(p.Cell); ok && ref.Entity == entity {
			e.grid.ClearOccupant(p.Cell)
		}
		p.Cell = -1
	}
	e.phys.Destroy(p.Body)
	p.Body = nil
}

// pickupsStep counts down consumed pickups and respawns them at a new
// open position with a new weapon. A pickup with nowhere left to go is
// removed for the rest of the round.
func (e *Env) pickupsStep() {
	for _, entity := range append([]ecs.Entity(nil), e.pickups...) {
		p := e.pickupMap.Get(entity)
		if p.RespawnWait <= 0 {
			continue
		}
		p.RespawnWait -= e.cfg.Physics.DT
		if p.RespawnWait > 0 {
			continue
		}
		p.RespawnWait = 0

		pos, ok := e.findOpenPos(openPosConstraints{
			quadrant:      -1,
			pickupSpacing: e.cfg.Pickup.PickupSpacing,
			droneSpacing:  e.cfg.Pickup.DroneSpacing,
		})
		if !ok {
			e.log.Warn("no room to respawn pickup, removing it")
			e.destroyPickup(entity)
			continue
		}
		e.movePickup(entity, pos)

		weapon := e.weapons.PickRandom(e.rng, e.weaponSpawnCounts)
		e.weaponSpawnCounts[weapon]++
		p.Weapon = weapon
		p.FloatingWallsTouching = 0
		e.attachPickupBody(entity)
	}
}

func (e *Env) movePickup(entity ecs.Entity, pos physics.Vec2) {
	p := e.pickupMap.Get(entity)
	if p.Cell >= 0 {
		if ref, ok := e.grid.Occupant(p.Cell); ok && ref.Entity == entity {
			e.grid.ClearOccupant(p.Cell)
		}
	}
	p.Pos = pos
	if p.Body != nil {
		p.Body.SetTransform(pos, 0)
	}
	p.Cell = e.grid.CellForPos(pos)
	if p.Cell >= 0 {
		e.grid.SetOccupant(p.Cell, Ref{Kind: KindPickup, Entity: entity})
	}
}
