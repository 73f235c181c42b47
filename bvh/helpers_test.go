package bvh

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/bhtree/types"
)

type boxPayload types.BBox

func (b *boxPayload) Bounds() types.BBox {
	return types.BBox(*b)
}

func boxLeaf(min, max types.Vec3) *Leaf {
	p := boxPayload(types.NewBBox(min, max))
	return NewLeaf(&p)
}

func unitLeaf(x, y, z float32) *Leaf {
	return boxLeaf(types.XYZ(x, y, z), types.XYZ(x+1, y+1, z+1))
}

func randomLeaf(rnd *rand.Rand) *Leaf {
	min := types.XYZ(rnd.Float32()*100, rnd.Float32()*100, rnd.Float32()*100)
	size := types.XYZ(rnd.Float32()*5, rnd.Float32()*5, rnd.Float32()*5)
	return boxLeaf(min, min.Add(size))
}

// Join two nodes under a new internal node with an up to date hull.
func join(left, right Node) *Internal {
	n := NewInternal()
	n.SetLeft(left)
	n.SetRight(right)
	n.CombineHull(left, right)
	return n
}

// Assert that every internal node below n has two children pointing back to
// it and a hull enclosing both of them.
func checkInvariants(t *testing.T, n Node) {
	t.Helper()
	if err := validateNode(n, 0); err != nil {
		t.Fatal(err)
	}
}

func leafSet(n Node) map[*Leaf]bool {
	set := make(map[*Leaf]bool)
	collectLeaves(n, func(l *Leaf) {
		set[l] = true
	})
	return set
}
