// Package physics is a thin adapter over the Box2D port. It owns body
// and fixture construction, collision filtering, queries and the
// buffered event stream; nothing outside this package touches the
// engine directly.
package physics

import (
	"github.com/ByteArena/box2d"
)

// Category is a collision filter bit. Every fixture carries exactly one
// category and a mask of the categories it collides with.
type Category uint16

const (
	CategoryWall Category = 1 << iota
	CategoryFloatingWall
	CategoryProjectile
	CategoryPickup
	CategoryDrone
	CategoryShield
)

// CategoryAll matches every fixture.
const CategoryAll Category = 0xffff

// World wraps the rigid-body engine. Events raised during Step are
// buffered and handed out after the step returns; the engine locks the
// world during stepping, so all mutation in response to events must
// happen on the drained batch.
type World struct {
	b2     box2d.B2World
	buffer *eventBuffer
}

func NewWorld() *World {
	w := &World{
		b2:     box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		buffer: &eventBuffer{},
	}
	w.b2.SetContactListener(w.buffer)
	// The engine's default filter is nil, which collides everything;
	// install the stock filter so category masks and groups apply.
	w.b2.SetContactFilter(&box2d.B2ContactFilter{})
	return w
}

// Step advances the simulation. Bodies must not be created, destroyed
// or teleported from inside the engine's callbacks; use DrainEvents.
func (w *World) Step(dt float64, velocityIters, positionIters int) {
	w.b2.Step(dt, velocityIters, positionIters)
}

// DrainEvents returns the events buffered since the last call and
// resets the buffer. Entity references inside the batch may point at
// bodies destroyed by an earlier event in the same batch; consumers
// validate liveness before acting.
func (w *World) DrainEvents() Events {
	return w.buffer.drain()
}

func b2v(v Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X, v.Y)
}

func fromB2(v box2d.B2Vec2) Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}
