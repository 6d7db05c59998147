package physics

import (
	"github.com/ByteArena/box2d"
)

// BodyKind selects the engine body type.
type BodyKind uint8

const (
	StaticBody BodyKind = iota
	KinematicBody
	DynamicBody
)

// BodyDef describes a body to create.
type BodyDef struct {
	Kind          BodyKind
	Position      Vec2
	Angle         float64
	LinearDamping float64
	FixedRotation bool
	Bullet        bool
}

// ShapeDef describes a fixture to attach to a body. Exactly one of
// CircleRadius or BoxHalfExtents must be set.
type ShapeDef struct {
	CircleRadius   float64
	BoxHalfExtents Vec2

	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool

	Category Category
	Mask     Category
	Group    int16

	UserData any
}

// Body wraps an engine body. Fixtures are kept in creation order; the
// first fixture is the body's primary collision shape.
type Body struct {
	b2       *box2d.B2Body
	fixtures []*box2d.B2Fixture
}

// CreateBody creates a body with the given fixtures attached.
func (w *World) CreateBody(def BodyDef, shapes ...ShapeDef) *Body {
	bd := box2d.MakeB2BodyDef()
	switch def.Kind {
	case StaticBody:
		bd.Type = box2d.B2BodyType.B2_staticBody
	case KinematicBody:
		bd.Type = box2d.B2BodyType.B2_kinematicBody
	case DynamicBody:
		bd.Type = box2d.B2BodyType.B2_dynamicBody
	}
	bd.Position = b2v(def.Position)
	bd.Angle = def.Angle
	bd.LinearDamping = def.LinearDamping
	bd.FixedRotation = def.FixedRotation
	bd.Bullet = def.Bullet

	body := &Body{b2: w.b2.CreateBody(&bd)}
	for _, s := range shapes {
		body.AddShape(s)
	}
	return body
}

// AddShape attaches another fixture to the body.
func (b *Body) AddShape(s ShapeDef) {
	fd := box2d.MakeB2FixtureDef()
	if s.CircleRadius > 0 {
		circle := box2d.NewB2CircleShape()
		circle.M_radius = s.CircleRadius
		fd.Shape = circle
	} else {
		poly := box2d.NewB2PolygonShape()
		poly.SetAsBox(s.BoxHalfExtents.X, s.BoxHalfExtents.Y)
		fd.Shape = poly
	}
	fd.Density = s.Density
	fd.Friction = s.Friction
	fd.Restitution = s.Restitution
	fd.IsSensor = s.Sensor
	fd.Filter.CategoryBits = uint16(s.Category)
	fd.Filter.MaskBits = uint16(s.Mask)
	fd.Filter.GroupIndex = s.Group
	fd.UserData = s.UserData
	b.fixtures = append(b.fixtures, b.b2.CreateFixtureFromDef(&fd))
}

// RemoveLastShape detaches the most recently added fixture. The body
// must keep at least its primary shape.
func (b *Body) RemoveLastShape() {
	n := len(b.fixtures)
	if n < 2 {
		return
	}
	b.b2.DestroyFixture(b.fixtures[n-1])
	b.fixtures = b.fixtures[:n-1]
}

// Destroy removes the body and all its fixtures from the world.
func (w *World) Destroy(b *Body) {
	w.b2.DestroyBody(b.b2)
	b.b2 = nil
	b.fixtures = nil
}

func (b *Body) Position() Vec2 {
	return fromB2(b.b2.GetPosition())
}

func (b *Body) Angle() float64 {
	return b.b2.GetAngle()
}

func (b *Body) LinearVelocity() Vec2 {
	return fromB2(b.b2.GetLinearVelocity())
}

func (b *Body) SetLinearVelocity(v Vec2) {
	b.b2.SetLinearVelocity(b2v(v))
}

func (b *Body) AngularVelocity() float64 {
	return b.b2.GetAngularVelocity()
}

func (b *Body) SetTransform(pos Vec2, angle float64) {
	b.b2.SetTransform(b2v(pos), angle)
}

func (b *Body) ApplyForce(f Vec2) {
	b.b2.ApplyForceToCenter(b2v(f), true)
}

// ApplyImpulse applies a linear impulse at the body's center of mass.
func (b *Body) ApplyImpulse(imp Vec2) {
	b.b2.ApplyLinearImpulse(b2v(imp), b.b2.GetWorldCenter(), true)
}

func (b *Body) ApplyAngularImpulse(imp float64) {
	b.b2.ApplyAngularImpulse(imp, true)
}

func (b *Body) Mass() float64 {
	return b.b2.GetMass()
}

func (b *Body) SetLinearDamping(d float64) {
	b.b2.SetLinearDamping(d)
}

// SetEnabled toggles the body's participation in simulation and
// queries. Disabled bodies keep their fixtures but generate no
// contacts and are invisible to ray casts and overlap tests.
func (b *Body) SetEnabled(enabled bool) {
	b.b2.SetActive(enabled)
}

func (b *Body) Enabled() bool {
	return b.b2.IsActive()
}

// Joint is an opaque handle to an engine joint.
type Joint struct {
	b2 box2d.B2JointInterface
}

// IsZero reports whether the handle refers to no joint.
func (j Joint) IsZero() bool {
	return j.b2 == nil
}

// CreateWeld rigidly attaches two bodies at a world-space anchor.
func (w *World) CreateWeld(a, b *Body, anchor Vec2) Joint {
	jd := box2d.MakeB2WeldJointDef()
	jd.Initialize(a.b2, b.b2, b2v(anchor))
	return Joint{b2: w.b2.CreateJoint(&jd)}
}

func (w *World) DestroyJoint(j Joint) {
	w.b2.DestroyJoint(j.b2)
}
