package bvh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertStructureCapacity(t *testing.T) {
	type spec struct {
		hint   int
		expCap int
	}
	specs := []spec{
		{100, 50},
		{50, 50},
		{10, 10},
		{0, 0},
		{-3, 0},
	}

	for index, s := range specs {
		if got := NewInsertStructure(s.hint).Capacity(); got != s.expCap {
			t.Errorf("[spec %d] expected capacity %d for hint %d; got %d", index, s.expCap, s.hint, got)
		}
	}
}

func TestInsertStructureGrowsInBlocks(t *testing.T) {
	s := NewInsertStructure(2)
	parents := make([]*Internal, 53)
	for i := range parents {
		parents[i] = NewInternal()
		s.LookupAndInsert(parents[i], unitLeaf(float32(i), 0, 0))
	}

	assert.Equal(t, 53, s.Len())
	assert.Equal(t, 102, s.Capacity())
	for i, parent := range parents {
		require.Len(t, s.Pending(parent), 1, "parent %d", i)
	}
}

func TestInsertStructureNoDuplicateParents(t *testing.T) {
	s := NewInsertStructure(4)
	p := NewInternal()
	q := NewInternal()

	children := make([]*Leaf, 6)
	for i := range children {
		children[i] = unitLeaf(float32(i*2), 0, 0)
	}

	s.LookupAndInsert(p, children[0])
	s.LookupAndInsert(q, children[1])
	s.LookupAndInsert(p, children[2])
	s.LookupAndInsert(p, children[3])
	s.LookupAndInsert(q, children[4])

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Node{children[0], children[2], children[3]}, s.Pending(p))
	assert.Equal(t, []Node{children[1], children[4]}, s.Pending(q))
	assert.Nil(t, s.Pending(NewInternal()))

	// Clear keeps the storage around for the next batch
	capacity := s.Capacity()
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, capacity, s.Capacity())
	assert.Nil(t, s.Pending(p))

	s.LookupAndInsert(q, children[5])
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []Node{children[5]}, s.Pending(q))
}

func TestUpdateBoundingTree(t *testing.T) {
	// P and Q start with two children each
	pOld := []*Leaf{unitLeaf(0, 0, 0), unitLeaf(2, 0, 0)}
	qOld := []*Leaf{unitLeaf(0, 10, 0), unitLeaf(2, 10, 0)}
	P := join(pOld[0], pOld[1])
	Q := join(qOld[0], qOld[1])
	root := join(P, Q)

	pNew := []*Leaf{unitLeaf(4, 0, 0), unitLeaf(6, 0, 0), unitLeaf(8, 0, 0)}
	qNew := []*Leaf{unitLeaf(4, 10, 0), unitLeaf(6, 10, 0)}

	s := NewInsertStructure(10)
	for _, leaf := range pNew {
		s.LookupAndInsert(P, leaf)
	}
	for _, leaf := range qNew {
		s.LookupAndInsert(Q, leaf)
	}
	require.Equal(t, 2, s.Len())

	require.NoError(t, s.UpdateBoundingTree(NewBuilder(SurfaceAreaHeuristic, 16)))
	assert.Equal(t, 0, s.Len(), "expected structure to be emptied by the flush")

	for _, spec := range []struct {
		parent *Internal
		leaves []*Leaf
	}{
		{P, append(pOld, pNew...)},
		{Q, append(qOld, qNew...)},
	} {
		require.NotNil(t, spec.parent.Left())
		require.NotNil(t, spec.parent.Right())
		checkInvariants(t, spec.parent)

		got := leafSet(spec.parent)
		assert.Len(t, got, len(spec.leaves))
		for _, leaf := range spec.leaves {
			assert.True(t, got[leaf])
			assert.True(t, spec.parent.FindNode(leaf) == Node(leaf))
		}
	}

	root.CombineHull(P, Q)
	checkInvariants(t, root)
}

func TestUpdateBoundingTreeWithEmptyAndPartialParents(t *testing.T) {
	builder := NewBuilder(SurfaceAreaHeuristic, 8)

	// A fresh internal node populated for the first time
	fresh := NewInternal()
	a, b := unitLeaf(0, 0, 0), unitLeaf(3, 0, 0)

	// A parent that lost one child
	partial := NewInternal()
	c, d := unitLeaf(10, 0, 0), unitLeaf(13, 0, 0)
	partial.SetRight(c)

	s := NewInsertStructure(1)
	s.LookupAndInsert(fresh, a)
	s.LookupAndInsert(fresh, b)
	s.LookupAndInsert(partial, d)
	require.NoError(t, s.UpdateBoundingTree(builder))

	assert.Len(t, leafSet(fresh), 2)
	checkInvariants(t, fresh)
	assert.Len(t, leafSet(partial), 2)
	checkInvariants(t, partial)
}

func TestUpdateBoundingTreeWithTooFewCandidates(t *testing.T) {
	lonely := NewInternal()
	leaf := unitLeaf(0, 0, 0)

	s := NewInsertStructure(1)
	s.LookupAndInsert(lonely, leaf)
	err := s.UpdateBoundingTree(NewBuilder(nil, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooFewCandidates)
	assert.Nil(t, lonely.Left())
	assert.Nil(t, lonely.Right())
	assert.Equal(t, 0, s.Len())
}
