package bvh

import (
	"github.com/achilleasa/bhtree/log"
	"github.com/achilleasa/bhtree/types"
)

var logger = log.New("bvh")

// Node is implemented by the two node variants of the hierarchy: *Internal
// and *Leaf. The interface is sealed; use a type switch to tell them apart.
type Node interface {
	// Parent returns the internal node holding this node or nil for a root.
	Parent() *Internal

	// Hull returns the node bounding hull or nil if it has not been computed.
	Hull() *types.BBox

	// IsLeaf returns true for *Leaf nodes.
	IsLeaf() bool

	// IsInside returns true if hull is fully contained in this node's hull.
	IsInside(hull *types.BBox) bool

	// FindNode searches this subtree for target and returns it if found.
	FindNode(target Node) Node

	// Marked returns the deferred update flag.
	Marked() bool

	base() *node
}

// node holds the state shared by all node variants.
type node struct {
	parent *Internal
	hull   *types.BBox
	mark   bool
}

func (n *node) base() *node {
	return n
}

func (n *node) Parent() *Internal {
	return n.parent
}

func (n *node) Hull() *types.BBox {
	return n.hull
}

func (n *node) Marked() bool {
	return n.mark
}

// CombineHull sets the node hull to the union of the hulls of a and b. The
// existing hull is overwritten in place when present.
func (n *node) CombineHull(a, b Node) {
	ha, hb := a.Hull(), b.Hull()
	if n.hull == nil {
		n.hull = &types.BBox{}
	}
	if ha != nil {
		n.hull.Set(*ha)
	} else {
		n.hull.Set(types.EmptyBBox())
	}
	if hb != nil {
		n.hull.Combine(*hb)
	}
}

// IsInside returns true if hull lies fully within the node hull. Containment
// is boundary inclusive and is never reported for missing or empty hulls.
func (n *node) IsInside(hull *types.BBox) bool {
	if n.hull == nil || hull == nil {
		return false
	}
	return n.hull.Contains(*hull)
}

// Payload is the geometry wrapped by a leaf.
type Payload interface {
	Bounds() types.BBox
}

// Leaf wraps a single piece of renderable, pickable or collidable geometry.
type Leaf struct {
	node
	payload Payload
}

// Create a new leaf for payload and compute its hull.
func NewLeaf(payload Payload) *Leaf {
	l := &Leaf{payload: payload}
	l.ComputeHull()
	return l
}

func (l *Leaf) Payload() Payload {
	return l.payload
}

func (l *Leaf) IsLeaf() bool {
	return true
}

// ComputeHull refreshes the leaf hull from its payload bounds.
func (l *Leaf) ComputeHull() {
	bounds := l.payload.Bounds()
	if l.hull == nil {
		l.hull = &bounds
		return
	}
	l.hull.Set(bounds)
}

// FindNode returns l if it is the target.
func (l *Leaf) FindNode(target Node) Node {
	if target == Node(l) {
		return l
	}
	return nil
}

// DeleteFromParent unlinks l from its parent.
func (l *Leaf) DeleteFromParent() error {
	return deleteFromParent(l)
}

// Internal is a binary hierarchy node. A valid internal node has two non-nil
// children; a nil child only appears transiently while the tree is updated.
type Internal struct {
	node
	left  Node
	right Node
}

// Create an internal node without children.
func NewInternal() *Internal {
	return &Internal{}
}

func (n *Internal) IsLeaf() bool {
	return false
}

func (n *Internal) Left() Node {
	return n.left
}

func (n *Internal) Right() Node {
	return n.right
}

// SetLeft installs child in the left slot and updates its parent reference.
func (n *Internal) SetLeft(child Node) {
	n.left = child
	if child != nil {
		child.base().parent = n
	}
}

// SetRight installs child in the right slot and updates its parent reference.
func (n *Internal) SetRight(child Node) {
	n.right = child
	if child != nil {
		child.base().parent = n
	}
}

// FindNode searches the subtree for target. Only children whose hull encloses
// the target hull are visited. The right child is tried first; if it claims
// containment but does not hold the target the left child is tried as well.
func (n *Internal) FindNode(target Node) Node {
	hull := target.Hull()
	if n.right != nil && n.right.IsInside(hull) {
		if found := n.right.FindNode(target); found != nil {
			return found
		}
	}
	if n.left != nil && n.left.IsInside(hull) {
		return n.left.FindNode(target)
	}
	return nil
}

// DeleteFromParent unlinks n from its parent.
func (n *Internal) DeleteFromParent() error {
	return deleteFromParent(n)
}

// deleteFromParent clears the parent slot that holds n and drops the parent
// reference. Roots are left untouched. If the parent holds n in neither slot
// ErrNotChild is returned and nothing is modified.
func deleteFromParent(n Node) error {
	b := n.base()
	p := b.parent
	if p == nil {
		return nil
	}

	switch {
	case p.right == n:
		p.right = nil
	case p.left == n:
		p.left = nil
	default:
		return ErrNotChild
	}
	b.parent = nil
	return nil
}

// unlink detaches a node that is being pruned from the tree.
func unlink(n Node) {
	if err := deleteFromParent(n); err != nil {
		logger.Warningf("unlink: %v", err)
	}
	n.base().mark = false
}

// MarkParentChain flags n and all of its ancestors for the next deferred
// update pass.
func MarkParentChain(n Node) {
	for b := n.base(); b != nil; {
		b.mark = true
		if b.parent == nil {
			break
		}
		b = b.parent.base()
	}
}

// DeleteAndUpdateMarked prunes marked leaves from the subtree rooted at n and
// returns the node that should replace n in its parent slot. The result is n
// itself if it survives, one of its descendants if n collapsed to a single
// child, or nil if the entire subtree was removed. Unmarked nodes are returned
// unchanged, so internal nodes on the path to a marked leaf must be marked
// too (see MarkParentChain).
func DeleteAndUpdateMarked(n Node) Node {
	if n == nil || !n.Marked() {
		return n
	}

	in, isInternal := n.(*Internal)
	if !isInternal {
		unlink(n)
		return nil
	}

	if in.right != nil {
		in.right = DeleteAndUpdateMarked(in.right)
	}
	if in.left != nil {
		in.left = DeleteAndUpdateMarked(in.left)
	}

	switch {
	case in.right == nil && in.left == nil:
		unlink(in)
		return nil
	case in.right == nil:
		return spliceOut(in, in.left)
	case in.left == nil:
		return spliceOut(in, in.right)
	}

	in.CombineHull(in.right, in.left)
	in.right.base().parent = in
	in.left.base().parent = in
	in.mark = false
	return in
}

// spliceOut removes a degree-1 internal node and hands its surviving child
// over to the node's former parent.
func spliceOut(in *Internal, survivor Node) Node {
	survivor.base().parent = in.parent
	in.left, in.right = nil, nil
	unlink(in)
	return survivor
}

// UpdateMarkedHull recomputes the hulls of all marked nodes in the subtree
// rooted at n and clears their marks. Marked leaves refresh their hull from
// the payload.
func UpdateMarkedHull(n Node) {
	if n == nil || !n.Marked() {
		return
	}

	switch v := n.(type) {
	case *Leaf:
		v.ComputeHull()
	case *Internal:
		UpdateMarkedHull(v.right)
		UpdateMarkedHull(v.left)
		if v.right != nil && v.left != nil {
			v.CombineHull(v.right, v.left)
		}
	}
	n.base().mark = false
}
