package bvh

import (
	"math"
	"sync"
	"time"

	"github.com/achilleasa/bhtree/frustum"
	"github.com/achilleasa/bhtree/types"
	"github.com/pkg/errors"
)

type opType uint8

const (
	opInsert opType = iota
	opRemove
	opRefit
)

type pendingOp struct {
	op   opType
	leaf *Leaf
}

// UpdateStats describes the work performed by a single Update call.
type UpdateStats struct {
	Inserted int
	Removed  int
	Refitted int
	Skipped  int

	// Number of distinct parents re-clustered for the inserted leaves.
	Parents int

	// Set if the update ended with a full rebuild because the tree grew
	// too deep.
	Rebuilt bool

	Duration time.Duration
}

// Tree is a bounding volume hierarchy that is updated lazily. Insert, Remove
// and Refit only queue work and may be called from multiple goroutines.
// Update applies all queued work in a single maintenance pass; queries always
// observe the tree as it was left by the last completed Update.
type Tree struct {
	// Guards the pending op queue.
	queueMu sync.Mutex
	pending []pendingOp

	// Guards the tree structure.
	mu      sync.RWMutex
	root    Node
	live    map[*Leaf]struct{}
	builder Builder
	insert  *InsertStructure
	opts    Options
}

// Create a new empty tree.
func NewTree(opts Options) *Tree {
	return &Tree{
		live:    make(map[*Leaf]struct{}),
		builder: NewBuilder(opts.ScoreStrategy, opts.SplitSteps),
		insert:  NewInsertStructure(opts.InsertCapacityHint),
		opts:    opts,
	}
}

// Queue leaves for insertion on the next Update.
func (t *Tree) Insert(leaves ...*Leaf) {
	t.enqueue(opInsert, leaves)
}

// Queue leaves for removal on the next Update.
func (t *Tree) Remove(leaves ...*Leaf) {
	t.enqueue(opRemove, leaves)
}

// Queue leaves whose payload bounds changed for a hull refresh on the next
// Update.
func (t *Tree) Refit(leaves ...*Leaf) {
	t.enqueue(opRefit, leaves)
}

func (t *Tree) enqueue(op opType, leaves []*Leaf) {
	t.queueMu.Lock()
	for _, leaf := range leaves {
		t.pending = append(t.pending, pendingOp{op: op, leaf: leaf})
	}
	t.queueMu.Unlock()
}

// Update applies all queued operations. For leaves with multiple queued
// operations the insert/remove op queued last wins. Removals are applied
// first, followed by insertions and hull refreshes.
func (t *Tree) Update() (UpdateStats, error) {
	start := time.Now()

	t.queueMu.Lock()
	ops := t.pending
	t.pending = nil
	t.queueMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	var stats UpdateStats
	inserts, removals, refits := t.resolve(ops, &stats)

	t.applyRemovals(removals)
	stats.Removed = len(removals)

	err := t.applyInsertions(inserts, &stats)
	stats.Inserted = len(inserts)

	t.applyRefits(refits)
	stats.Refitted = len(refits)

	if err == nil && t.tooDeep() {
		logger.Debugf("max depth exceeds limit for %d leaves; rebuilding", len(t.live))
		err = t.rebuild()
		stats.Rebuilt = err == nil
	}

	if err == nil && t.opts.Strict {
		err = t.validate()
	}

	stats.Duration = time.Since(start)
	logger.Debugf(
		"tree update: inserted %d, removed %d, refitted %d, skipped %d, parents %d, rebuilt %t in %s",
		stats.Inserted, stats.Removed, stats.Refitted, stats.Skipped, stats.Parents, stats.Rebuilt, stats.Duration,
	)
	return stats, err
}

type intent struct {
	op    opType
	refit bool

	// Set if an insert was queued for the leaf during this batch.
	inserted bool
}

// Collapse queued ops into per-leaf actions, preserving first-seen order.
func (t *Tree) resolve(ops []pendingOp, stats *UpdateStats) (inserts, removals, refits []*Leaf) {
	intents := make(map[*Leaf]*intent)
	var order []*Leaf
	for _, op := range ops {
		in := intents[op.leaf]
		if in == nil {
			in = &intent{op: opRefit}
			intents[op.leaf] = in
			order = append(order, op.leaf)
		}
		switch op.op {
		case opRefit:
			in.refit = true
		case opInsert:
			in.inserted = true
			in.op = op.op
		default:
			in.op = op.op
		}
	}

	for _, leaf := range order {
		in := intents[leaf]
		_, isLive := t.live[leaf]
		switch {
		case in.op == opInsert && !isLive:
			inserts = append(inserts, leaf)
		case in.op == opRemove && isLive:
			removals = append(removals, leaf)
		case isLive && in.refit:
			refits = append(refits, leaf)
		case in.op == opRemove && in.inserted:
			// Inserted and removed within the same batch
		case in.op == opInsert:
			logger.Warningf("skipping insert of leaf %p: %v", leaf, ErrAlreadyLive)
			stats.Skipped++
		default:
			logger.Warningf("skipping update of leaf %p: %v", leaf, ErrNotLive)
			stats.Skipped++
		}
	}
	return inserts, removals, refits
}

func (t *Tree) applyRemovals(leaves []*Leaf) {
	if len(leaves) == 0 {
		return
	}

	for _, leaf := range leaves {
		MarkParentChain(leaf)
		delete(t.live, leaf)
	}

	t.root = DeleteAndUpdateMarked(t.root)
	if t.root != nil {
		t.root.base().parent = nil
	}
}

func (t *Tree) applyInsertions(leaves []*Leaf, stats *UpdateStats) error {
	if len(leaves) == 0 {
		return nil
	}

	for _, leaf := range leaves {
		leaf.parent = nil
		leaf.mark = false
		leaf.ComputeHull()
		t.live[leaf] = struct{}{}
	}

	switch root := t.root.(type) {
	case nil:
		if len(leaves) == 1 {
			t.root = leaves[0]
			return nil
		}
		return t.rebuildRoot(asNodes(leaves))
	case *Leaf:
		return t.rebuildRoot(append(asNodes(leaves), root))
	case *Internal:
		t.insert.Clear()
		for _, leaf := range leaves {
			t.insert.LookupAndInsert(t.findInsertionParent(root, leaf), leaf)
		}
		stats.Parents = t.insert.Len()

		// Parent hulls may grow; refresh them along with their ancestors
		// once the new subtrees are in place.
		parents := append([]*Internal(nil), t.insert.parents[:t.insert.count]...)
		if err := t.insert.UpdateBoundingTree(t.builder); err != nil {
			return err
		}
		for _, parent := range parents {
			MarkParentChain(parent)
		}
		UpdateMarkedHull(t.root)
	}
	return nil
}

// Replace the root with a new internal node clustered over candidates.
func (t *Tree) rebuildRoot(candidates []Node) error {
	root := NewInternal()
	if err := t.builder.Cluster(root, candidates); err != nil {
		return err
	}
	t.root = root
	return nil
}

// Descend from root towards the deepest internal node whose children do not
// enclose the leaf hull.
func (t *Tree) findInsertionParent(root *Internal, leaf *Leaf) *Internal {
	hull := leaf.Hull()
	n := root
	for {
		if right, ok := n.right.(*Internal); ok && right.IsInside(hull) {
			n = right
			continue
		}
		if left, ok := n.left.(*Internal); ok && left.IsInside(hull) {
			n = left
			continue
		}
		return n
	}
}

func (t *Tree) applyRefits(leaves []*Leaf) {
	if len(leaves) == 0 {
		return
	}
	for _, leaf := range leaves {
		MarkParentChain(leaf)
	}
	UpdateMarkedHull(t.root)
}

// Rebuild discards the current hierarchy and clusters all live leaves into a
// new one. Queued operations are not applied.
func (t *Tree) Rebuild() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rebuild()
}

// Report whether the max depth exceeds opts.RebuildDepthFactor times the
// depth of a balanced tree over the live leaves.
func (t *Tree) tooDeep() bool {
	if t.opts.RebuildDepthFactor <= 0 || len(t.live) < 2 {
		return false
	}
	limit := int(t.opts.RebuildDepthFactor * math.Ceil(math.Log2(float64(len(t.live)))))
	return MaxDepth(t.root, 0) > limit
}

func (t *Tree) rebuild() error {
	leaves := make([]Node, 0, len(t.live))
	collectLeaves(t.root, func(l *Leaf) {
		leaves = append(leaves, l)
	})

	switch len(leaves) {
	case 0:
		t.root = nil
		return nil
	case 1:
		leaves[0].base().parent = nil
		t.root = leaves[0]
		return nil
	}
	return t.rebuildRoot(leaves)
}

// Root returns the tree root. The returned node must not be modified.
func (t *Tree) Root() Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Len returns the number of live leaves.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.live)
}

// Stats returns the current tree statistics.
func (t *Tree) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return CollectStats(t.root)
}

// FindNode searches the tree for target.
func (t *Tree) FindNode(target Node) Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil || target == nil {
		return nil
	}
	return t.root.FindNode(target)
}

// Cull invokes fn for every leaf whose hull is not completely outside f.
// Subtrees fully inside the frustum are reported without further tests.
func (t *Tree) Cull(f *frustum.CachedFrustum, fn func(*Leaf)) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var recurse func(Node)
	recurse = func(n Node) {
		if n == nil {
			return
		}
		switch f.Classify(hullOf(n)) {
		case frustum.Outside:
			return
		case frustum.Inside:
			collectLeaves(n, fn)
			return
		}
		if in, ok := n.(*Internal); ok {
			recurse(in.left)
			recurse(in.right)
			return
		}
		fn(n.(*Leaf))
	}
	recurse(t.root)
}

// Intersect invokes fn for every leaf whose hull overlaps box.
func (t *Tree) Intersect(box types.BBox, fn func(*Leaf)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.visit(func(hull types.BBox) bool { return hull.Overlaps(box) }, fn)
}

// PickPoint invokes fn for every leaf whose hull contains p.
func (t *Tree) PickPoint(p types.Vec3, fn func(*Leaf)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.visit(func(hull types.BBox) bool { return hull.ContainsPoint(p) }, fn)
}

// Walk the tree descending only into nodes accepted by test.
func (t *Tree) visit(test func(types.BBox) bool, fn func(*Leaf)) {
	var recurse func(Node)
	recurse = func(n Node) {
		if n == nil || !test(hullOf(n)) {
			return
		}
		switch v := n.(type) {
		case *Leaf:
			fn(v)
		case *Internal:
			recurse(v.left)
			recurse(v.right)
		}
	}
	recurse(t.root)
}

func collectLeaves(n Node, fn func(*Leaf)) {
	switch v := n.(type) {
	case *Leaf:
		fn(v)
	case *Internal:
		collectLeaves(v.left, fn)
		collectLeaves(v.right, fn)
	}
}

func asNodes(leaves []*Leaf) []Node {
	nodes := make([]Node, len(leaves))
	for i, leaf := range leaves {
		nodes[i] = leaf
	}
	return nodes
}

// Validate checks the structural invariants of the tree: every internal node
// has two children whose parent references point back to it, and every
// internal hull encloses the hulls of its children.
func (t *Tree) Validate() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.validate()
}

func (t *Tree) validate() error {
	if t.root == nil {
		if len(t.live) != 0 {
			return errors.Wrapf(ErrInconsistentTree, "empty tree with %d live leaves", len(t.live))
		}
		return nil
	}
	if t.root.Parent() != nil {
		return errors.Wrap(ErrInconsistentTree, "root has a parent")
	}

	if err := validateNode(t.root, 0); err != nil {
		return err
	}

	if leaves := CountLeaves(t.root); leaves != len(t.live) {
		return errors.Wrapf(ErrInconsistentTree, "tree holds %d leaves; expected %d", leaves, len(t.live))
	}
	return nil
}

func validateNode(n Node, depth int) error {
	in, ok := n.(*Internal)
	if !ok {
		return nil
	}

	for _, child := range [2]Node{in.left, in.right} {
		if child == nil {
			return errors.Wrapf(ErrInconsistentTree, "internal node at depth %d has a nil child", depth)
		}
		if child.Parent() != in {
			return errors.Wrapf(ErrInconsistentTree, "child of internal node at depth %d has a stale parent", depth)
		}
		if hull := child.Hull(); hull != nil && !hull.IsEmpty() && !in.IsInside(hull) {
			return errors.Wrapf(ErrInconsistentTree, "internal node at depth %d does not enclose its child", depth)
		}
		if err := validateNode(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
