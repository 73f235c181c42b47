package bvh

import (
	"math"
	"sort"

	"github.com/achilleasa/bhtree/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The builder will not evaluate split candidates along an axis if the
	// spread of candidate centers along it is less than this threshold.
	minSideLength float32 = 1e-5
)

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic = surfaceAreaHeuristic{}
)

// Builder rebuilds the subtree below an internal node.
type Builder interface {
	// Cluster replaces the children of parent with a balanced binary
	// hierarchy covering exactly the supplied candidates and updates the
	// hulls of parent and all newly created internal nodes. Candidates may
	// be leaves or complete subtrees; subtrees are treated as opaque items.
	Cluster(parent *Internal, candidates []Node) error
}

// A split scoring strategy.
type ScoreStrategy interface {
	// Calculate a score for splitting workList at splitPoint along a
	// particular Axis. Lower scores are better.
	ScoreSplit(workList []Node, splitAxis Axis, splitPoint float32) (leftCount, rightCount int, score float32)
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

type builder struct {
	// The split scoring strategy to use. If nil, candidates are always
	// split at the median of the widest axis.
	scoreStrategy ScoreStrategy

	// Number of split points evaluated per axis.
	splitSteps int
}

// Create a cluster builder. Split candidates along each axis are scored in
// parallel using the given strategy.
func NewBuilder(scoreStrategy ScoreStrategy, splitSteps int) Builder {
	if splitSteps < 2 {
		splitSteps = 2
	}
	return &builder{
		scoreStrategy: scoreStrategy,
		splitSteps:    splitSteps,
	}
}

// Cluster implements Builder.
func (b *builder) Cluster(parent *Internal, candidates []Node) error {
	if parent == nil {
		return ErrNilParent
	}
	if len(candidates) < 2 {
		return ErrTooFewCandidates
	}

	// Work on a copy; partitioning reorders items.
	workList := make([]Node, len(candidates))
	copy(workList, candidates)

	parent.left, parent.right = nil, nil
	b.partition(parent, workList)
	return nil
}

// Split workList in two and attach each half below parent.
func (b *builder) partition(parent *Internal, workList []Node) {
	left, right := b.split(workList)
	parent.SetLeft(b.subtree(left))
	parent.SetRight(b.subtree(right))
	parent.CombineHull(parent.left, parent.right)
}

// Return workList[0] for single item lists or a new internal node with
// workList partitioned below it.
func (b *builder) subtree(workList []Node) Node {
	if len(workList) == 1 {
		return workList[0]
	}
	n := NewInternal()
	b.partition(n, workList)
	return n
}

// Split a work list with at least 2 items into two non-empty lists.
func (b *builder) split(workList []Node) ([]Node, []Node) {
	if len(workList) == 2 {
		return workList[:1], workList[1:]
	}

	centerBox := types.EmptyBBox()
	for _, item := range workList {
		centerBox.CombinePoint(center(item))
	}

	if bestSplit := b.bestSplit(workList, centerBox); bestSplit != nil {
		left := make([]Node, 0, bestSplit.leftCount)
		right := make([]Node, 0, bestSplit.rightCount)
		for _, item := range workList {
			if center(item)[bestSplit.axis] < bestSplit.splitPoint {
				left = append(left, item)
			} else {
				right = append(right, item)
			}
		}
		return left, right
	}

	return medianSplit(workList, centerBox)
}

// Score split points along each axis in parallel and return the best one or
// nil if no split point separates the work list.
func (b *builder) bestSplit(workList []Node, centerBox types.BBox) *splitScore {
	if b.scoreStrategy == nil {
		return nil
	}

	// Run axis split tests in parallel
	scoreChan := make(chan *splitScore)
	pendingScores := 0
	side := centerBox.Max.Sub(centerBox.Min)
	for axis := XAxis; axis <= ZAxis; axis++ {
		// Skip axis if all centers are (nearly) aligned along it
		if side[axis] < minSideLength {
			continue
		}

		pendingScores++
		go func(axis Axis) {
			scoreChan <- b.bestAxisSplit(workList, axis, centerBox.Min[axis], side[axis])
		}(axis)
	}

	var bestSplit *splitScore
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-scoreChan
		if candidate == nil {
			continue
		}
		// Break ties on axis order so results do not depend on goroutine scheduling
		if bestSplit == nil || candidate.score < bestSplit.score ||
			(candidate.score == bestSplit.score && candidate.axis < bestSplit.axis) {
			bestSplit = candidate
		}
	}
	return bestSplit
}

func (b *builder) bestAxisSplit(workList []Node, axis Axis, origin, length float32) *splitScore {
	var best *splitScore
	splitStep := length / float32(b.splitSteps)
	for step := 1; step < b.splitSteps; step++ {
		splitPoint := origin + float32(step)*splitStep
		lCount, rCount, score := b.scoreStrategy.ScoreSplit(workList, axis, splitPoint)
		if lCount == 0 || rCount == 0 || score >= math.MaxFloat32 {
			continue
		}
		if best == nil || score < best.score {
			best = &splitScore{
				axis:       axis,
				splitPoint: splitPoint,
				leftCount:  lCount,
				rightCount: rCount,
				score:      score,
			}
		}
	}
	return best
}

// Sort work list by center along the widest axis and split it in half.
func medianSplit(workList []Node, centerBox types.BBox) ([]Node, []Node) {
	side := centerBox.Max.Sub(centerBox.Min)
	axis := XAxis
	if side[YAxis] > side[axis] {
		axis = YAxis
	}
	if side[ZAxis] > side[axis] {
		axis = ZAxis
	}

	sort.SliceStable(workList, func(i, j int) bool {
		return center(workList[i])[axis] < center(workList[j])[axis]
	})
	mid := len(workList) / 2
	return workList[:mid], workList[mid:]
}

func hullOf(n Node) types.BBox {
	if h := n.Hull(); h != nil {
		return *h
	}
	return types.EmptyBBox()
}

func center(n Node) types.Vec3 {
	return hullOf(n).Center()
}

// A score implementation that uses surface area heuristic for calculating split scores.
type surfaceAreaHeuristic struct{}

// Score a split based on the surface area heuristic. The SAH calculates
// the split score using the formula (lower score is better):
//
// left count * left hull area + right count * right hull area.
//
// SAH avoids splits that generate empty partitions by assigning the worst
// possible score (MaxFloat32) when it enounters such cases.
func (h surfaceAreaHeuristic) ScoreSplit(workList []Node, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	lbox := types.EmptyBBox()
	rbox := types.EmptyBBox()

	for _, item := range workList {
		itemBox := hullOf(item)
		if itemBox.Center()[axis] < splitPoint {
			leftCount++
			lbox.Combine(itemBox)
		} else {
			rightCount++
			rbox.Combine(itemBox)
		}
	}

	// Make sure that we don't generate empty partitions
	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}

	score = float32(leftCount)*lbox.SurfaceArea() + float32(rightCount)*rbox.SurfaceArea()
	return leftCount, rightCount, score
}
