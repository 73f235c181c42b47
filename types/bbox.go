package types

import "github.com/chewxy/math32"

// BBox is an axis-aligned bounding box. A box whose Min exceeds its Max along
// any axis is empty; a box with Min == Max is a valid point volume.
type BBox struct {
	Min Vec3
	Max Vec3
}

// EmptyBBox returns a box that contains nothing. Combining any box with an
// empty box yields the other box unchanged.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// NewBBox creates a box spanning the two supplied corners in any order.
func NewBBox(c1, c2 Vec3) BBox {
	return BBox{Min: MinVec3(c1, c2), Max: MaxVec3(c1, c2)}
}

// Set copies other into b.
func (b *BBox) Set(other BBox) {
	b.Min = other.Min
	b.Max = other.Max
}

// Combine grows b in place so that it also encloses other.
func (b *BBox) Combine(other BBox) {
	if other.IsEmpty() {
		return
	}
	if b.IsEmpty() {
		b.Set(other)
		return
	}
	b.Min = MinVec3(b.Min, other.Min)
	b.Max = MaxVec3(b.Max, other.Max)
}

// CombinePoint grows b in place so that it also encloses p.
func (b *BBox) CombinePoint(p Vec3) {
	b.Min = MinVec3(b.Min, p)
	b.Max = MaxVec3(b.Max, p)
}

// IsEmpty returns true if Min exceeds Max along any axis.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Contains returns true if other lies fully inside b. The test is boundary
// inclusive and always fails when either box is empty.
func (b BBox) Contains(other BBox) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return other.Min[0] >= b.Min[0] && other.Max[0] <= b.Max[0] &&
		other.Min[1] >= b.Min[1] && other.Max[1] <= b.Max[1] &&
		other.Min[2] >= b.Min[2] && other.Max[2] <= b.Max[2]
}

// ContainsPoint returns true if p lies inside b (boundary inclusive).
func (b BBox) ContainsPoint(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Overlaps returns true if the two boxes share at least one point.
func (b BBox) Overlaps(other BBox) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1] &&
		b.Min[2] <= other.Max[2] && b.Max[2] >= other.Min[2]
}

// Center returns the box midpoint.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// SurfaceArea returns half the surface area of the box, which is all the SAH
// needs for comparing candidate splits. Empty boxes have zero area.
func (b BBox) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	side := b.Max.Sub(b.Min)
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}
