package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/physics"
)

// posBehindWall reports whether a static wall sits strictly between
// from and to. ignore exempts one wall, used for mines welded flush
// against the wall they would otherwise see as cover.
func (e *Env) posBehindWall(from, to physics.Vec2, ignore ecs.Entity) bool {
	hit, point, ok := e.phys.RayCastClosest(from, to, physics.CategoryWall)
	if !ok {
		return false
	}
	if ref, isRef := hit.(Ref); isRef && ref.Entity == ignore {
		return false
	}
	return point.Distance(from) < to.Distance(from)-1e-9
}

// LineOfSight reports whether two drones can see each other. Static
// and floating walls both occlude. Visibility is symmetric: a single
// ray answers for the pair no matter which index asks.
func (e *Env) LineOfSight(i, j int) bool {
	if i > j {
		i, j = j, i
	}
	a := e.droneMap.Get(e.drones[i])
	b := e.droneMap.Get(e.drones[j])
	if a.Dead || b.Dead {
		return false
	}
	mask := physics.CategoryWall | physics.CategoryFloatingWall
	_, _, blocked := e.phys.RayCastClosest(a.Pos, b.Pos, mask)
	return !blocked
}

// losStep rebuilds every drone's visibility bitset with one ray per
// pair. Dead drones see nothing and are seen by nobody.
func (e *Env) losStep() {
	for _, ent := range e.drones {
		e.droneMap.Get(ent).InSight = 0
	}
	for i := range e.drones {
		for j := i + 1; j < len(e.drones); j++ {
			if !e.LineOfSight(i, j) {
				continue
			}
			e.droneMap.Get(e.drones[i]).InSight |= 1 << uint(j)
			e.droneMap.Get(e.drones[j]).InSight |= 1 << uint(i)
		}
	}
}

// Visible reports drone i's cached visibility of drone j, as of the
// end of the last step.
func (e *Env) Visible(i, j int) bool {
	if i == j {
		return false
	}
	return e.droneMap.Get(e.drones[i]).InSight&(1<<uint(j)) != 0
}
