package bvh

import "github.com/pkg/errors"

// Parent slots are allocated in blocks of this size. It also caps the initial
// capacity.
const insertBlockSize = 50

// InsertStructure batches pending child insertions per parent so that each
// parent is re-clustered once per batch instead of once per insertion.
//
// Parents are looked up with a linear scan, which is fine as long as a batch
// touches few distinct parents compared to the number of inserted children.
// The structure is meant to be reused across batches via Clear.
type InsertStructure struct {
	parents  []*Internal
	children [][]Node
	count    int
}

// Create an insert structure. The initial capacity is capacityHint clamped to
// [0, 50]; it grows in blocks of 50 parents when exceeded.
func NewInsertStructure(capacityHint int) *InsertStructure {
	size := capacityHint
	if size > insertBlockSize {
		size = insertBlockSize
	}
	if size < 0 {
		size = 0
	}

	return &InsertStructure{
		parents:  make([]*Internal, size),
		children: make([][]Node, size),
	}
}

// Capacity returns the number of parent slots currently allocated.
func (s *InsertStructure) Capacity() int {
	return len(s.parents)
}

// Len returns the number of distinct parents with pending children.
func (s *InsertStructure) Len() int {
	return s.count
}

// Clear drops all pending entries while keeping the allocated storage.
func (s *InsertStructure) Clear() {
	for i := 0; i < s.count; i++ {
		s.parents[i] = nil
		for j := range s.children[i] {
			s.children[i][j] = nil
		}
		s.children[i] = s.children[i][:0]
	}
	s.count = 0
}

// Pending returns the children queued for parent in insertion order.
func (s *InsertStructure) Pending(parent *Internal) []Node {
	if i := s.indexOf(parent); i >= 0 {
		return s.children[i]
	}
	return nil
}

// LookupAndInsert queues child for insertion below parent. Each parent is
// stored at most once; further children for it are appended to its list.
func (s *InsertStructure) LookupAndInsert(parent *Internal, child Node) {
	if i := s.indexOf(parent); i >= 0 {
		s.children[i] = append(s.children[i], child)
		return
	}

	if s.count == len(s.parents) {
		s.grow()
	}

	s.parents[s.count] = parent
	s.children[s.count] = append(s.children[s.count][:0], child)
	s.count++
}

func (s *InsertStructure) indexOf(parent *Internal) int {
	for i := 0; i < s.count; i++ {
		if s.parents[i] == parent {
			return i
		}
	}
	return -1
}

func (s *InsertStructure) grow() {
	size := len(s.parents) + insertBlockSize

	parents := make([]*Internal, size)
	copy(parents, s.parents)
	children := make([][]Node, size)
	copy(children, s.children)

	s.parents = parents
	s.children = children
}

// UpdateBoundingTree re-clusters every pending parent. The candidates for a
// parent are its pending children followed by its existing children. Parents
// that would end up with fewer than 2 candidates are left untouched and
// reported via the returned error. The structure is cleared afterwards.
func (s *InsertStructure) UpdateBoundingTree(builder Builder) error {
	defer s.Clear()

	var firstErr error
	for i := 0; i < s.count; i++ {
		parent := s.parents[i]
		pending := s.children[i]

		existing := 0
		if parent.left != nil {
			existing++
		}
		if parent.right != nil {
			existing++
		}
		if existing == 1 {
			logger.Debugf("re-clustering parent %p with a single existing child", parent)
		}

		candidates := make([]Node, 0, len(pending)+existing)
		candidates = append(candidates, pending...)
		if parent.left != nil {
			candidates = append(candidates, parent.left)
		}
		if parent.right != nil {
			candidates = append(candidates, parent.right)
		}

		if len(candidates) < 2 {
			if firstErr == nil {
				firstErr = errors.Wrapf(ErrTooFewCandidates, "parent %p has %d candidate(s)", parent, len(candidates))
			}
			continue
		}

		parent.left, parent.right = nil, nil
		if err := builder.Cluster(parent, candidates); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
