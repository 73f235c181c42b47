package frustum

import "errors"

var (
	ErrPlaneCount = errors.New("frustum: exactly 6 clip planes are required")
	ErrDegenerate = errors.New("frustum: planes do not intersect at a single point")
)
