package game

import (
	"sort"
	"testing"

	"github.com/PufferAI/impulse-wars/physics"
)

func TestNearestWalls_OrderedByDistance(t *testing.T) {
	e := newTestEnv(t, 70)
	from := physics.V(9, 13)

	got := e.NearestWalls(from, 8)
	if len(got) != 8 {
		t.Fatalf("results = %d, want 8", len(got))
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Distance < got[j].Distance }) {
		t.Error("results not sorted nearest first")
	}

	// Cross-check the nearest result against a linear scan.
	best := -1.0
	for _, ent := range e.staticWalls {
		w := e.wallMap.Get(ent)
		if d := from.Distance(w.Pos); best < 0 || d < best {
			best = d
		}
	}
	if got[0].Distance != best {
		t.Errorf("nearest = %f, linear scan says %f", got[0].Distance, best)
	}
}

func TestNearestWalls_Bounds(t *testing.T) {
	e := newTestEnv(t, 71)

	if got := e.NearestWalls(physics.V(9, 13), 0); got != nil {
		t.Errorf("n=0 returned %d results", len(got))
	}
	// Asking for more walls than exist returns what there is.
	got := e.NearestWalls(physics.V(9, 13), len(e.staticWalls)+10)
	if len(got) != len(e.staticWalls) {
		t.Errorf("results = %d, want %d", len(got), len(e.staticWalls))
	}
}

func TestNearestWalls_TracksDestroyedWalls(t *testing.T) {
	e := newTestEnv(t, 72)
	from := physics.V(9, 13)

	nearest := e.NearestWalls(from, 1)[0]
	e.destroyWall(nearest.Entity)
	e.rebuildWallIndex()

	after := e.NearestWalls(from, 1)[0]
	if after.Entity == nearest.Entity {
		t.Error("destroyed wall still returned by the index")
	}
	if after.Distance < nearest.Distance {
		t.Error("new nearest is closer than the destroyed one was")
	}
}

func TestCreateWall_FloatingIsNotResident(t *testing.T) {
	e := newTestEnv(t, 73)

	pos := physics.V(9, 13)
	ent := e.createWall(pos, physics.V(1, 1), StandardWall, true, false)
	w := e.wallMap.Get(ent)
	if w.Cell != -1 {
		t.Errorf("floating wall cell = %d, want -1", w.Cell)
	}
	idx := e.grid.CellForPos(pos)
	if ref, ok := e.grid.Occupant(idx); ok && ref.Entity == ent {
		t.Error("floating wall registered as a cell resident")
	}

	e.destroyWall(ent)
	for _, other := range e.floatingWalls {
		if other == ent {
			t.Error("destroyed floating wall still listed")
		}
	}
	if e.world.Alive(ent) {
		t.Error("destroyed floating wall entity still alive")
	}
}
