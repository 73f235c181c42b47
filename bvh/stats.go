package bvh

// Stats summarizes the shape of a hierarchy.
type Stats struct {
	Internals        int
	Leaves           int
	MaxDepth         int
	AverageLeafDepth float64
}

// Collect statistics for the subtree rooted at n. The root is at depth 0.
func CollectStats(n Node) Stats {
	return Stats{
		Internals:        CountInternals(n),
		Leaves:           CountLeaves(n),
		MaxDepth:         MaxDepth(n, 0),
		AverageLeafDepth: AverageLeafDepth(n, 0),
	}
}

// CountInternals returns the number of internal nodes in the subtree.
func CountInternals(n Node) int {
	in, ok := n.(*Internal)
	if !ok {
		return 0
	}
	return 1 + CountInternals(in.left) + CountInternals(in.right)
}

// CountLeaves returns the number of leaves in the subtree.
func CountLeaves(n Node) int {
	switch v := n.(type) {
	case *Leaf:
		return 1
	case *Internal:
		return CountLeaves(v.left) + CountLeaves(v.right)
	}
	return 0
}

// MaxDepth returns the depth of the deepest node in the subtree, where n sits
// at depth. A nil subtree reports depth.
func MaxDepth(n Node, depth int) int {
	in, ok := n.(*Internal)
	if !ok {
		return depth
	}

	maxDepth := depth
	for _, child := range [2]Node{in.left, in.right} {
		if child == nil {
			continue
		}
		if d := MaxDepth(child, depth+1); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// SumOfDepths returns the sum of all leaf depths in the subtree.
func SumOfDepths(n Node, depth int) int {
	switch v := n.(type) {
	case *Leaf:
		return depth
	case *Internal:
		return SumOfDepths(v.left, depth+1) + SumOfDepths(v.right, depth+1)
	}
	return 0
}

// AverageLeafDepth returns the mean leaf depth in the subtree. Subtrees
// without leaves report 0.
func AverageLeafDepth(n Node, depth int) float64 {
	leaves := CountLeaves(n)
	if leaves == 0 {
		return 0
	}
	return float64(SumOfDepths(n, depth)) / float64(leaves)
}
