package physics

import (
	"github.com/ByteArena/box2d"
)

// Contact is a begin or end touch between two solid fixtures. A and B
// carry the fixtures' user data. Point and Normal are only meaningful
// on begin events with a populated manifold.
type Contact struct {
	A, B     any
	Point    Vec2
	Normal   Vec2
	HasPoint bool
}

// SensorEvent is a begin or end overlap between a sensor fixture and a
// solid fixture.
type SensorEvent struct {
	Sensor  any
	Visitor any
}

// Events is the batch of everything raised during one Step.
type Events struct {
	ContactBegins []Contact
	ContactEnds   []Contact
	SensorBegins  []SensorEvent
	SensorEnds    []SensorEvent
}

// eventBuffer implements the engine's contact listener by recording
// events for post-step processing. The world is locked while the
// listener runs, so nothing here may mutate bodies.
type eventBuffer struct {
	events Events
}

func (eb *eventBuffer) drain() Events {
	out := eb.events
	eb.events = Events{}
	return out
}

func (eb *eventBuffer) BeginContact(contact box2d.B2ContactInterface) {
	fa, fb := contact.GetFixtureA(), contact.GetFixtureB()
	if fa.IsSensor() || fb.IsSensor() {
		eb.events.SensorBegins = appendSensor(eb.events.SensorBegins, fa, fb)
		return
	}
	c := Contact{A: fa.GetUserData(), B: fb.GetUserData()}
	if contact.GetManifold().PointCount > 0 {
		wm := box2d.MakeB2WorldManifold()
		contact.GetWorldManifold(&wm)
		c.Point = fromB2(wm.Points[0])
		c.Normal = fromB2(wm.Normal)
		c.HasPoint = true
	}
	eb.events.ContactBegins = append(eb.events.ContactBegins, c)
}

func (eb *eventBuffer) EndContact(contact box2d.B2ContactInterface) {
	fa, fb := contact.GetFixtureA(), contact.GetFixtureB()
	if fa.IsSensor() || fb.IsSensor() {
		eb.events.SensorEnds = appendSensor(eb.events.SensorEnds, fa, fb)
		return
	}
	eb.events.ContactEnds = append(eb.events.ContactEnds, Contact{
		A: fa.GetUserData(),
		B: fb.GetUserData(),
	})
}

func (eb *eventBuffer) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {
}

func (eb *eventBuffer) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {
}

// appendSensor orients a sensor pair so the sensor fixture's user data
// lands in Sensor. A pair of two sensors produces an event for each.
func appendSensor(events []SensorEvent, fa, fb *box2d.B2Fixture) []SensorEvent {
	if fa.IsSensor() {
		events = append(events, SensorEvent{Sensor: fa.GetUserData(), Visitor: fb.GetUserData()})
	}
	if fb.IsSensor() {
		events = append(events, SensorEvent{Sensor: fb.GetUserData(), Visitor: fa.GetUserData()})
	}
	return events
}
