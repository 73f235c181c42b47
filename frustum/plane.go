package frustum

import "github.com/achilleasa/bhtree/types"

// Plane indices. Planes passed to Set must follow this order.
const (
	Left = iota
	Right
	Top
	Bottom
	Front
	Back

	numPlanes = 6
)

// A Plane stores the equation ax + by + cz + d = 0 as {a, b, c, d}. The
// normal (a, b, c) points towards the inside of the frustum so points with a
// non-negative distance are considered inside.
type Plane types.Vec4

// Create a plane from a normal and a point lying on it.
func PlaneFromPoint(normal, point types.Vec3) Plane {
	n := normal.Normalize()
	return Plane(n.Vec4(-n.Dot(point)))
}

// Normal returns the (a, b, c) plane coefficients.
func (p Plane) Normal() types.Vec3 {
	return types.Vec4(p).Vec3()
}

// Distance returns the signed distance of point from the plane, scaled by the
// normal length.
func (p Plane) Distance(point types.Vec3) float32 {
	return p.Normal().Dot(point) + p[3]
}
