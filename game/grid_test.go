package game

import (
	"testing"

	"github.com/PufferAI/impulse-wars/physics"
)

func TestGrid_CellIndex(t *testing.T) {
	g := newGrid(20, 10, 2.0)

	tests := []struct {
		col, row, want int
	}{
		{0, 0, 0},
		{19, 0, 19},
		{0, 1, 20},
		{19, 9, 199},
		{-1, 0, -1},
		{20, 0, -1},
		{0, 10, -1},
	}
	for _, tc := range tests {
		if got := g.CellIndex(tc.col, tc.row); got != tc.want {
			t.Errorf("CellIndex(%d, %d) = %d, want %d", tc.col, tc.row, got, tc.want)
		}
	}
}

func TestGrid_CellForPos(t *testing.T) {
	g := newGrid(20, 10, 2.0)

	if got := g.CellForPos(physics.V(0.5, 0.5)); got != 0 {
		t.Errorf("CellForPos(0.5, 0.5) = %d, want 0", got)
	}
	if got := g.CellForPos(physics.V(3.9, 2.1)); got != g.CellIndex(1, 1) {
		t.Errorf("CellForPos(3.9, 2.1) = %d, want cell (1,1)", got)
	}
	if got := g.CellForPos(physics.V(-0.1, 0)); got != -1 {
		t.Errorf("CellForPos out of bounds = %d, want -1", got)
	}
	if got := g.CellForPos(physics.V(100, 100)); got != -1 {
		t.Errorf("CellForPos far out of bounds = %d, want -1", got)
	}
}

func TestGrid_CellCenterRoundtrip(t *testing.T) {
	g := newGrid(20, 10, 2.0)
	for _, idx := range []int{0, 19, 20, 105, 199} {
		center := g.CellCenter(idx)
		if got := g.CellForPos(center); got != idx {
			t.Errorf("CellForPos(CellCenter(%d)) = %d", idx, got)
		}
	}
}

func TestGrid_Size(t *testing.T) {
	g := newGrid(20, 10, 2.0)
	size := g.Size()
	if size.X != 40 || size.Y != 20 {
		t.Errorf("Size = %v, want (40, 20)", size)
	}
}

func TestGrid_Quadrant(t *testing.T) {
	g := newGrid(20, 10, 2.0)

	tests := []struct {
		col, row, want int
	}{
		{0, 0, 0},
		{19, 0, 1},
		{0, 9, 2},
		{19, 9, 3},
		{9, 4, 0},
		{10, 4, 1},
		{9, 5, 2},
		{10, 5, 3},
	}
	for _, tc := range tests {
		if got := g.Quadrant(g.CellIndex(tc.col, tc.row)); got != tc.want {
			t.Errorf("Quadrant(%d, %d) = %d, want %d", tc.col, tc.row, got, tc.want)
		}
	}
}

func TestGrid_Occupancy(t *testing.T) {
	g := newGrid(4, 4, 1.0)

	if _, ok := g.Occupant(5); ok {
		t.Error("fresh grid cell reported occupied")
	}

	ref := Ref{Kind: KindPickup}
	g.SetOccupant(5, ref)
	// Zero entity still counts as empty; residency requires a live handle.
	if _, ok := g.Occupant(5); ok {
		t.Error("zero-entity ref counted as resident")
	}

	g.ClearOccupant(5)
	if _, ok := g.Occupant(5); ok {
		t.Error("cell occupied after clear")
	}

	// Out-of-range indices are safe no-ops.
	g.SetOccupant(-1, ref)
	g.SetOccupant(1000, ref)
	g.ClearOccupant(-1)
	if _, ok := g.Occupant(-1); ok {
		t.Error("negative index reported occupied")
	}
}

func TestAABBOverlap(t *testing.T) {
	half := physics.V(1, 1)

	if !aabbOverlap(physics.V(0, 0), half, physics.V(1.5, 0), half) {
		t.Error("overlapping boxes reported separate")
	}
	if aabbOverlap(physics.V(0, 0), half, physics.V(3, 0), half) {
		t.Error("separate boxes reported overlapping")
	}
	// Touching edges count as overlap.
	if !aabbOverlap(physics.V(0, 0), half, physics.V(2, 0), half) {
		t.Error("touching boxes reported separate")
	}
}
