package frustum

import (
	"github.com/achilleasa/bhtree/types"
)

// Determinant threshold (compared against det^2) below which three planes are
// treated as not meeting at a single point.
const degenerateEpsilon = 1.0e-8

// Each frustum corner is the intersection of one left/right, one top/bottom
// and one front/back plane.
var cornerPlanes = [8][3]int{
	{Left, Bottom, Front},
	{Right, Bottom, Front},
	{Left, Top, Front},
	{Right, Top, Front},
	{Left, Bottom, Back},
	{Right, Bottom, Back},
	{Left, Top, Back},
	{Right, Top, Back},
}

// Classification result for a volume tested against a frustum.
type Classification uint8

const (
	Outside Classification = iota
	Intersecting
	Inside
)

// CachedFrustum precomputes the corners, axis-aligned bounds and centroid of
// a view frustum so it can be tested repeatedly against tree hulls.
type CachedFrustum struct {
	planes   [numPlanes]Plane
	vertices [8]types.Vec3
	lower    types.Vec3
	upper    types.Vec3
	center   types.Vec3
}

// Create a cached frustum from 6 planes ordered left, right, top, bottom,
// front, back.
func New(planes []Plane) (*CachedFrustum, error) {
	f := &CachedFrustum{}
	if err := f.Set(planes); err != nil {
		return nil, err
	}
	return f, nil
}

// Set replaces the frustum planes and recomputes all derived data. If the
// plane count is wrong or any corner is degenerate an error is returned and
// the frustum is left untouched.
func (f *CachedFrustum) Set(planes []Plane) error {
	if len(planes) != numPlanes {
		return ErrPlaneCount
	}

	var vertices [8]types.Vec3
	var err error
	for i, triple := range cornerPlanes {
		vertices[i], err = ComputeVertex(planes[triple[0]], planes[triple[1]], planes[triple[2]])
		if err != nil {
			return err
		}
	}

	copy(f.planes[:], planes)
	f.vertices = vertices

	f.lower = vertices[0]
	f.upper = vertices[0]
	var sum types.Vec3
	for _, v := range vertices {
		f.lower = types.MinVec3(f.lower, v)
		f.upper = types.MaxVec3(f.upper, v)
		sum = sum.Add(v)
	}
	f.center = sum.Mul(0.125)

	return nil
}

// Planes returns a copy of the clip planes.
func (f *CachedFrustum) Planes() [6]Plane {
	return f.planes
}

// Vertices returns the 8 frustum corners. Corner i lies on the planes listed
// in the i-th entry of the left/right, bottom/top, front/back enumeration.
func (f *CachedFrustum) Vertices() [8]types.Vec3 {
	return f.vertices
}

func (f *CachedFrustum) Lower() types.Vec3 {
	return f.lower
}

func (f *CachedFrustum) Upper() types.Vec3 {
	return f.upper
}

func (f *CachedFrustum) Center() types.Vec3 {
	return f.center
}

// BBox returns the axis-aligned box enclosing the frustum corners.
func (f *CachedFrustum) BBox() types.BBox {
	return types.BBox{Min: f.lower, Max: f.upper}
}

// Classify a box against the frustum. Boxes that miss the frustum bounds are
// rejected without touching the planes. Otherwise each plane is tested with the
// box corner furthest along the plane normal (p-vertex) and the one opposite to
// it (n-vertex). The test is conservative: some boxes near frustum edges are
// reported as Intersecting although they lie outside.
func (f *CachedFrustum) Classify(box types.BBox) Classification {
	if !f.BBox().Overlaps(box) {
		return Outside
	}

	result := Inside
	for _, p := range f.planes {
		pv, nv := box.Max, box.Min
		for axis := 0; axis < 3; axis++ {
			if p[axis] < 0 {
				pv[axis], nv[axis] = box.Min[axis], box.Max[axis]
			}
		}

		if p.Distance(pv) < 0 {
			return Outside
		}
		if p.Distance(nv) < 0 {
			result = Intersecting
		}
	}
	return result
}

// IntersectsBox returns true unless box lies completely outside the frustum.
func (f *CachedFrustum) IntersectsBox(box types.BBox) bool {
	return f.Classify(box) != Outside
}

// ComputeVertex returns the point shared by three planes using Cramer's rule.
// If the planes do not meet at a single point ErrDegenerate is returned.
func ComputeVertex(a, b, c Plane) (types.Vec3, error) {
	// Solve n_i . p = -d_i in double precision; corners of wide frustums
	// lose too many digits in float32.
	ax, ay, az, aw := float64(a[0]), float64(a[1]), float64(a[2]), float64(a[3])
	bx, by, bz, bw := float64(b[0]), float64(b[1]), float64(b[2]), float64(b[3])
	cx, cy, cz, cw := float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])

	det := ax*(by*cz-bz*cy) - ay*(bx*cz-bz*cx) + az*(bx*cy-by*cx)
	if det*det < degenerateEpsilon {
		return types.Vec3{}, ErrDegenerate
	}
	invDet := 1.0 / det

	// b x c, c x a, a x b
	bcX, bcY, bcZ := by*cz-bz*cy, bz*cx-bx*cz, bx*cy-by*cx
	caX, caY, caZ := cy*az-cz*ay, cz*ax-cx*az, cx*ay-cy*ax
	abX, abY, abZ := ay*bz-az*by, az*bx-ax*bz, ax*by-ay*bx

	return types.Vec3{
		float32(-(aw*bcX + bw*caX + cw*abX) * invDet),
		float32(-(aw*bcY + bw*caY + cw*abY) * invDet),
		float32(-(aw*bcZ + bw*caZ + cw*abZ) * invDet),
	}, nil
}
