package bvh

type Options struct {
	// Initial parent capacity of the insertion batch (clamped to 50).
	InsertCapacityHint int

	// Split scoring strategy used when re-clustering. A nil strategy
	// always splits at the median.
	ScoreStrategy ScoreStrategy

	// Number of split points evaluated per axis.
	SplitSteps int

	// Rebuild the whole tree at the end of an update once its max depth
	// exceeds this multiple of ceil(log2(leaves)). Zero disables rebuilds.
	RebuildDepthFactor float64

	// Validate the tree after every update and fail the update if it is
	// inconsistent.
	Strict bool
}

// DefaultOptions returns the options used by NewTree when none are given.
func DefaultOptions() Options {
	return Options{
		InsertCapacityHint: insertBlockSize,
		ScoreStrategy:      SurfaceAreaHeuristic,
		SplitSteps:         16,
		RebuildDepthFactor: 4,
	}
}
