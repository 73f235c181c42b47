package bvh

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterCoversAllCandidates(t *testing.T) {
	strategies := map[string]ScoreStrategy{
		"sah":    SurfaceAreaHeuristic,
		"median": nil,
	}

	for name, strategy := range strategies {
		for _, count := range []int{2, 3, 7, 64, 257} {
			t.Run(fmt.Sprintf("%s_%d", name, count), func(t *testing.T) {
				rnd := rand.New(rand.NewSource(int64(count)))
				candidates := make([]Node, count)
				for i := range candidates {
					candidates[i] = randomLeaf(rnd)
				}

				parent := NewInternal()
				require.NoError(t, NewBuilder(strategy, 16).Cluster(parent, candidates))
				checkInvariants(t, parent)

				got := leafSet(parent)
				require.Len(t, got, count)
				for _, c := range candidates {
					require.True(t, got[c.(*Leaf)])
				}
				assert.Equal(t, count-1, CountInternals(parent))
			})
		}
	}
}

func TestClusterKeepsSubtreesOpaque(t *testing.T) {
	sub := join(unitLeaf(0, 0, 0), unitLeaf(50, 50, 50))
	candidates := []Node{sub, unitLeaf(10, 10, 10), unitLeaf(20, 20, 20)}

	parent := NewInternal()
	require.NoError(t, NewBuilder(SurfaceAreaHeuristic, 16).Cluster(parent, candidates))
	checkInvariants(t, parent)

	assert.True(t, sub.Parent() != nil)
	// parent, one new internal node and sub itself
	assert.Equal(t, 3, CountInternals(parent))
	assert.Len(t, leafSet(parent), 4)
}

func TestClusterWithCoincidentCenters(t *testing.T) {
	candidates := make([]Node, 9)
	for i := range candidates {
		candidates[i] = unitLeaf(0, 0, 0)
	}

	parent := NewInternal()
	require.NoError(t, NewBuilder(SurfaceAreaHeuristic, 16).Cluster(parent, candidates))
	checkInvariants(t, parent)
	assert.Len(t, leafSet(parent), 9)

	// Median splits keep the hierarchy balanced
	assert.Equal(t, 4, MaxDepth(parent, 0))
}

func TestClusterSeparatesClusters(t *testing.T) {
	var candidates []Node
	var left, right []*Leaf
	for i := 0; i < 4; i++ {
		l := unitLeaf(float32(i), 0, 0)
		r := unitLeaf(100+float32(i), 0, 0)
		left = append(left, l)
		right = append(right, r)
		candidates = append(candidates, l, r)
	}

	parent := NewInternal()
	require.NoError(t, NewBuilder(SurfaceAreaHeuristic, 16).Cluster(parent, candidates))

	leftSet := leafSet(parent.Left())
	rightSet := leafSet(parent.Right())
	require.Len(t, leftSet, 4)
	require.Len(t, rightSet, 4)
	for i := range left {
		assert.True(t, leftSet[left[i]], "expected the low-x group on the left")
		assert.True(t, rightSet[right[i]], "expected the high-x group on the right")
	}
}

func TestClusterErrors(t *testing.T) {
	b := NewBuilder(SurfaceAreaHeuristic, 16)
	assert.Equal(t, ErrNilParent, b.Cluster(nil, []Node{unitLeaf(0, 0, 0), unitLeaf(1, 1, 1)}))

	parent := join(unitLeaf(0, 0, 0), unitLeaf(2, 0, 0))
	assert.Equal(t, ErrTooFewCandidates, b.Cluster(parent, []Node{unitLeaf(5, 5, 5)}))
	assert.NotNil(t, parent.Left(), "a failed cluster must not touch the parent")
	assert.NotNil(t, parent.Right())
}

func TestSurfaceAreaHeuristic(t *testing.T) {
	workList := []Node{
		unitLeaf(0, 0, 0),
		unitLeaf(1, 0, 0),
		unitLeaf(10, 0, 0),
	}

	lCount, rCount, score := SurfaceAreaHeuristic.ScoreSplit(workList, XAxis, 5)
	assert.Equal(t, 2, lCount)
	assert.Equal(t, 1, rCount)
	// left box 2x1x1 (area 5), right box 1x1x1 (area 3)
	assert.Equal(t, float32(2*5+1*3), score)

	_, _, score = SurfaceAreaHeuristic.ScoreSplit(workList, XAxis, 50)
	assert.Equal(t, float32(math.MaxFloat32), score, "empty partitions get the worst score")
}
