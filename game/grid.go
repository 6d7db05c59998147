package game

import (
	"math"

	"github.com/PufferAI/impulse-wars/physics"
)

// Grid is the cell occupancy index over the arena. Cells hold at most
// one resident entity (a wall or a pickup); drones, projectiles and
// moving floating walls are not residents, they only map positions to
// cell indices.
type Grid struct {
	cols, rows int
	cellSize   float64
	occupants  []Ref // zero Entity = empty
}

func newGrid(cols, rows int, cellSize float64) *Grid {
	return &Grid{
		cols:      cols,
		rows:      rows,
		cellSize:  cellSize,
		occupants: make([]Ref, cols*rows),
	}
}

func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Size returns the arena extents in world units.
func (g *Grid) Size() physics.Vec2 {
	return physics.V(float64(g.cols)*g.cellSize, float64(g.rows)*g.cellSize)
}

// CellIndex converts cell coordinates to a flat index, or -1 when the
// coordinates fall outside the grid.
func (g *Grid) CellIndex(col, row int) int {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return -1
	}
	return row*g.cols + col
}

// CellForPos maps a world position to its cell index, or -1 when the
// position is out of bounds.
func (g *Grid) CellForPos(p physics.Vec2) int {
	col := int(math.Floor(p.X / g.cellSize))
	row := int(math.Floor(p.Y / g.cellSize))
	return g.CellIndex(col, row)
}

// CellCenter returns the world position of a cell's center.
func (g *Grid) CellCenter(idx int) physics.Vec2 {
	col := idx % g.cols
	row := idx / g.cols
	return physics.V(
		(float64(col)+0.5)*g.cellSize,
		(float64(row)+0.5)*g.cellSize,
	)
}

// Quadrant returns which quarter of the arena a cell lies in, numbered
// 0..3 row-major from the top left.
func (g *Grid) Quadrant(idx int) int {
	col := idx % g.cols
	row := idx / g.cols
	q := 0
	if col >= g.cols/2 {
		q++
	}
	if row >= g.rows/2 {
		q += 2
	}
	return q
}

// Occupant returns the resident of a cell. ok is false for an empty
// cell or an out-of-range index.
func (g *Grid) Occupant(idx int) (Ref, bool) {
	if idx < 0 || idx >= len(g.occupants) {
		return Ref{}, false
	}
	ref := g.occupants[idx]
	return ref, ref.Entity != zeroEntity
}

// SetOccupant records a cell's resident, replacing any previous one.
func (g *Grid) SetOccupant(idx int, ref Ref) {
	if idx >= 0 && idx < len(g.occupants) {
		g.occupants[idx] = ref
	}
}

// ClearOccupant empties a cell.
func (g *Grid) ClearOccupant(idx int) {
	if idx >= 0 && idx < len(g.occupants) {
		g.occupants[idx] = Ref{}
	}
}

// openPosConstraints narrows where findOpenPos may place something.
type openPosConstraints struct {
	quadrant      int     // -1 = anywhere
	pickupSpacing float64 // min distance to existing pickups
	droneSpacing  float64 // min distance to living drones
}

// findOpenPos picks a random empty cell satisfying the constraints and
// not overlapped by any drone or floating wall. ok is false when every
// cell has been tried and rejected.
func (e *Env) findOpenPos(c openPosConstraints) (physics.Vec2, bool) {
	numCells := len(e.grid.occupants)
	checked := make([]bool, numCells)
	remaining := numCells

	for remaining > 0 {
		idx := e.rng.Intn(numCells)
		if checked[idx] {
			continue
		}
		checked[idx] = true
		remaining--

		if _, occupied := e.grid.Occupant(idx); occupied {
			continue
		}
		if c.quadrant >= 0 && e.grid.Quadrant(idx) != c.quadrant {
			continue
		}
		pos := e.grid.CellCenter(idx)
		if c.pickupSpacing > 0 && !e.clearOfPickups(pos, c.pickupSpacing) {
			continue
		}
		if c.droneSpacing > 0 && !e.clearOfDrones(pos, c.droneSpacing) {
			continue
		}
		if e.cellOverlapsMovingBody(pos) {
			continue
		}
		return pos, true
	}
	return physics.Vec2{}, false
}

func (e *Env) clearOfPickups(pos physics.Vec2, spacing float64) bool {
	for _, ent := range e.pickups {
		p := e.pickupMap.Get(ent)
		if pos.Distance(p.Pos) < spacing {
			return false
		}
	}
	return true
}

func (e *Env) clearOfDrones(pos physics.Vec2, spacing float64) bool {
	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		if d.Dead {
			continue
		}
		if pos.Distance(d.Pos) < spacing {
			return false
		}
	}
	return true
}

// cellOverlapsMovingBody reports whether a cell-sized box at pos
// overlaps a drone or floating wall. Coarse AABB math on cached
// positions; good enough for placement.
func (e *Env) cellOverlapsMovingBody(pos physics.Vec2) bool {
	half := e.grid.cellSize / 2
	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		if d.Dead {
			continue
		}
		r := e.cfg.Drone.Radius
		if aabbOverlap(pos, physics.V(half, half), d.Pos, physics.V(r, r)) {
			return true
		}
	}
	for _, ent := range e.floatingWalls {
		w := e.wallMap.Get(ent)
		if aabbOverlap(pos, physics.V(half, half), w.Pos, w.HalfExt) {
			return true
		}
	}
	return false
}

func aabbOverlap(aPos, aHalf, bPos, bHalf physics.Vec2) bool {
	return math.Abs(aPos.X-bPos.X) <= aHalf.X+bHalf.X &&
		math.Abs(aPos.Y-bPos.Y) <= aHalf.Y+bHalf.Y
}
