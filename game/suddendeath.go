package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// suddenDeathStep shrinks the arena once sudden death has begun. Every
// wall interval a ring of death walls closes in one cell from the
// previous ring, crushing whatever was standing there.
func (e *Env) suddenDeathStep() {
	if !e.suddenDeath || e.roundOver {
		return
	}
	e.shrinkTimer += e.cfg.Physics.DT
	if e.shrinkTimer < e.cfg.SuddenDeath.WallInterval {
		return
	}
	e.shrinkTimer -= e.cfg.SuddenDeath.WallInterval
	e.shrinkCounter++
	e.placeShrinkRing(e.shrinkCounter)
}

// placeShrinkRing fills ring cells with death walls. Drones overlapped
// by a new wall die, floating walls and projectiles in the cell are
// destroyed, and a resident pickup relocates through its respawn cycle.
func (e *Env) placeShrinkRing(ring int) {
	cols, rows := e.grid.Cols(), e.grid.Rows()
	if ring >= (minInt(cols, rows)+1)/2 {
		return
	}
	e.log.Info("arena shrink", "ring", ring, "step", e.step)

	// Top and bottom rows of the ring, then the two side columns.
	for col := ring; col < cols-ring; col++ {
		e.fillShrinkCell(e.grid.CellIndex(col, ring))
		e.fillShrinkCell(e.grid.CellIndex(col, rows-1-ring))
	}
	for row := ring + 1; row < rows-1-ring; row++ {
		e.fillShrinkCell(e.grid.CellIndex(ring, row))
		e.fillShrinkCell(e.grid.CellIndex(cols-1-ring, row))
	}
	e.rebuildWallIndex()
}

func (e *Env) fillShrinkCell(idx int) {
	if idx < 0 {
		return
	}
	center := e.grid.CellCenter(idx)
	half := e.cfg.Physics.CellSize / 2
	halfExt := physics.V(half, half)

	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		if d.Dead {
			continue
		}
		r := e.cfg.Drone.Radius
		if aabbOverlap(center, halfExt, d.Pos, physics.V(r, r)) {
			e.killDrone(ent)
		}
	}
	for _, ent := range append([]ecs.Entity(nil), e.floatingWalls...) {
		if e.grid.CellForPos(e.wallMap.Get(ent).Pos) == idx {
			e.destroyWall(ent)
		}
	}
	for _, ent := range append([]ecs.Entity(nil), e.projectiles...) {
		if !e.world.Alive(ent) {
			continue
		}
		if e.grid.CellForPos(e.projMap.Get(ent).Pos) == idx {
			e.destroyProjectile(ent, false)
		}
	}

	if ref, occupied := e.grid.Occupant(idx); occupied {
		switch ref.Kind {
		case KindWall:
			return // already walled
		case KindPickup:
			e.disablePickup(ref.Entity)
		}
	}
	e.createWall(center, halfExt, DeathWall, false, true)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
