package physics

import (
	"github.com/ByteArena/box2d"
)

// RayCastClosest casts a ray and returns the user data and hit point of
// the closest solid fixture matching mask. ok is false when nothing was
// hit or the ray has zero length.
func (w *World) RayCastClosest(p1, p2 Vec2, mask Category) (userData any, point Vec2, ok bool) {
	if p1.DistanceSquared(p2) < 1e-12 {
		return nil, Vec2{}, false
	}
	w.b2.RayCast(func(fixture *box2d.B2Fixture, hit box2d.B2Vec2, normal box2d.B2Vec2, fraction float64) float64 {
		if fixture.IsSensor() {
			return -1
		}
		if fixture.GetFilterData().CategoryBits&uint16(mask) == 0 {
			return -1
		}
		userData = fixture.GetUserData()
		point = fromB2(hit)
		ok = true
		return fraction
	}, b2v(p1), b2v(p2))
	return userData, point, ok
}

// QueryAABB visits the user data of every solid fixture matching mask
// whose bounding box overlaps the given box. The callback returns false
// to stop early. A fixture may be visited more than once.
func (w *World) QueryAABB(lower, upper Vec2, mask Category, fn func(userData any) bool) {
	aabb := box2d.B2AABB{LowerBound: b2v(lower), UpperBound: b2v(upper)}
	w.b2.QueryAABB(func(fixture *box2d.B2Fixture) bool {
		if fixture.IsSensor() {
			return true
		}
		if fixture.GetFilterData().CategoryBits&uint16(mask) == 0 {
			return true
		}
		return fn(fixture.GetUserData())
	}, aabb)
}

// ClosestPoint returns the point on the body's primary shape closest to
// from, and the distance between them. A point inside the shape reports
// distance zero.
func (w *World) ClosestPoint(b *Body, from Vec2) (Vec2, float64) {
	probe := box2d.NewB2CircleShape()
	probe.M_radius = 0

	var input box2d.B2DistanceInput
	input.ProxyA.Set(b.fixtures[0].GetShape(), 0)
	input.ProxyB.Set(probe, 0)
	input.TransformA = b.b2.GetTransform()
	input.TransformB = box2d.MakeB2TransformByPositionAndRotation(b2v(from), box2d.MakeB2RotFromAngle(0))
	input.UseRadii = true

	var cache box2d.B2SimplexCache
	var output box2d.B2DistanceOutput
	box2d.B2Distance(&output, &cache, &input)
	return fromB2(output.PointA), output.Distance
}
