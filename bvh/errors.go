package bvh

import "errors"

var (
	ErrNotChild         = errors.New("bvh: node is not a child of its parent")
	ErrTooFewCandidates = errors.New("bvh: clustering requires at least 2 candidates")
	ErrNilParent        = errors.New("bvh: nil parent")
	ErrInconsistentTree = errors.New("bvh: inconsistent tree")
	ErrAlreadyLive      = errors.New("bvh: leaf is already live")
	ErrNotLive          = errors.New("bvh: leaf is not live")
)
