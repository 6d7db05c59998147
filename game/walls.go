package game

import (
	"sort"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/PufferAI/impulse-wars/physics"
)

// Wall restitution by type. Bouncy walls return nearly all incoming
// speed; the engine combines restitution by max, so projectiles keep
// their own behavior against standard walls.
const (
	standardWallRestitution = 0.1
	bouncyWallRestitution   = 0.95
	floatingWallDensity     = 2.0
	floatingWallDamping     = 0.8
)

// createWall makes a wall entity and body. Static walls become cell
// residents; floating walls are dynamic bodies that drift when pushed.
func (e *Env) createWall(pos physics.Vec2, halfExt physics.Vec2, wallType WallType, floating, shrink bool) ecs.Entity {
	restitution := standardWallRestitution
	if wallType == BouncyWall {
		restitution = bouncyWallRestitution
	}

	entity := e.wallMap.NewEntity(&Wall{
		Type:     wallType,
		Floating: floating,
		Pos:      pos,
		HalfExt:  halfExt,
		Cell:     -1,
		Shrink:   shrink,
	})
	ref := Ref{Kind: KindWall, Entity: entity}

	def := physics.BodyDef{Kind: physics.StaticBody, Position: pos}
	shape := physics.ShapeDef{
		BoxHalfExtents: halfExt,
		Friction:       0.3,
		Restitution:    restitution,
		Category:       physics.CategoryWall,
		Mask:           physics.CategoryAll,
		UserData:       ref,
	}
	if floating {
		def.Kind = physics.DynamicBody
		def.LinearDamping = floatingWallDamping
		shape.Category = physics.CategoryFloatingWall
		shape.Density = floatingWallDensity
	}

	wall := e.wallMap.Get(entity)
	wall.Body = e.phys.CreateBody(def, shape)

	if floating {
		e.floatingWalls = append(e.floatingWalls, entity)
	} else {
		e.staticWalls = append(e.staticWalls, entity)
		if idx := e.grid.CellForPos(pos); idx >= 0 {
			wall.Cell = idx
			e.grid.SetOccupant(idx, ref)
		}
	}
	return entity
}

// destroyWall removes a wall entity, its body and its cell residency.
// Mines welded to the wall are cut loose first so their joint handles
// never go stale.
func (e *Env) destroyWall(entity ecs.Entity) {
	for _, pent := range e.projectiles {
		p := e.projMap.Get(pent)
		if p.IsMine && p.MineBase == entity {
			if !p.MineJoint.IsZero() {
				e.phys.DestroyJoint(p.MineJoint)
				p.MineJoint = physics.Joint{}
			}
			p.MineBase = zeroEntity
		}
	}
	wall := e.wallMap.Get(entity)
	if !wall.Floating && wall.Cell >= 0 {
		if ref, ok := e.grid.Occupant(wall.Cell); ok && ref.Entity == entity {
			e.grid.ClearOccupant(wall.Cell)
		}
	}
	e.phys.Destroy(wall.Body)
	if wall.Floating {
		e.floatingWalls = removeEntity(e.floatingWalls, entity)
	} else {
		e.staticWalls = removeEntity(e.staticWalls, entity)
	}
	e.world.RemoveEntity(entity)
}

func removeEntity(list []ecs.Entity, entity ecs.Entity) []ecs.Entity {
	for i, ent := range list {
		if ent == entity {
			list[i] = list[len(list)-1]
			return list[:len(list)-1]
		}
	}
	return list
}

// wallIndex is a kd-tree over static wall positions, used to answer
// nearest-wall queries for observations without scanning every wall.
// The tree is rebuilt whenever the static wall set changes; between
// rebuilds it is immutable.
type wallIndex struct {
	tree *kdtree.Tree
}

type wallPoint struct {
	pos    physics.Vec2
	entity ecs.Entity
}

func (p wallPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(wallPoint)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	default:
		return p.pos.Y - q.pos.Y
	}
}

func (p wallPoint) Dims() int { return 2 }

func (p wallPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(wallPoint)
	return p.pos.DistanceSquared(q.pos)
}

type wallPoints []wallPoint

func (p wallPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p wallPoints) Len() int                      { return len(p) }
func (p wallPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p wallPoints) Pivot(d kdtree.Dim) int {
	return wallPlane{points: p, dim: d}.Pivot()
}

// wallPlane sorts wallPoints along one axis for tree construction.
type wallPlane struct {
	points wallPoints
	dim    kdtree.Dim
}

func (p wallPlane) Less(i, j int) bool {
	switch p.dim {
	case 0:
		return p.points[i].pos.X < p.points[j].pos.X
	default:
		return p.points[i].pos.Y < p.points[j].pos.Y
	}
}
func (p wallPlane) Len() int   { return len(p.points) }
func (p wallPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p wallPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p wallPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

// rebuildWallIndex reconstructs the kd-tree from the current static
// wall set.
func (e *Env) rebuildWallIndex() {
	points := make(wallPoints, 0, len(e.staticWalls))
	for _, ent := range e.staticWalls {
		w := e.wallMap.Get(ent)
		points = append(points, wallPoint{pos: w.Pos, entity: ent})
	}
	e.wallIndex = &wallIndex{tree: kdtree.New(points, false)}
}

// NearestWall holds one result of a nearest-walls query.
type NearestWall struct {
	Entity   ecs.Entity
	Pos      physics.Vec2
	Distance float64
}

// NearestWalls returns up to n static walls closest to pos, nearest
// first.
func (e *Env) NearestWalls(pos physics.Vec2, n int) []NearestWall {
	if e.wallIndex == nil || n <= 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(n)
	e.wallIndex.tree.NearestSet(keeper, wallPoint{pos: pos})

	out := make([]NearestWall, 0, n)
	for _, c := range keeper.Heap {
		if c.Comparable == nil {
			continue
		}
		p := c.Comparable.(wallPoint)
		out = append(out, NearestWall{
			Entity:   p.entity,
			Pos:      p.pos,
			Distance: pos.Distance(p.pos),
		})
	}
	// NKeeper yields a max-heap; order nearest first.
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
