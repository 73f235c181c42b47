package scene

import (
	"github.com/achilleasa/bhtree/frustum"
	"github.com/achilleasa/bhtree/types"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Pitch and yaw deltas (radians) applied by the next call to Update.
	Pitch float32
	Yaw   float32

	// Vertical field of view in degrees.
	FOV float32

	// Viewport width / height.
	Aspect float32

	// Distances to the front and back clip planes.
	Near float32
	Far  float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Aspect:   1,
		Near:     1,
		Far:      1000,
	}
}

// Apply pending pitch/yaw to the view direction and reset them.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	pitchAxis := dir.Cross(c.Up).Normalize()
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up.Normalize(), c.Yaw)

	orientQuat := pitchQuat.Mul(yawQuat).Normalize()

	// Update direction
	dir = orientQuat.Rotate(dir)
	c.LookAt = c.Position.Add(dir)
	c.Pitch, c.Yaw = 0, 0
}

// Build the 6 inward facing clip planes of the camera view volume ordered
// left, right, top, bottom, front, back.
func (c *Camera) Planes() ([]frustum.Plane, error) {
	dir := c.LookAt.Sub(c.Position).Normalize()
	right := dir.Cross(c.Up).Normalize()
	if dir.Len() == 0 || right.Len() == 0 {
		return nil, errors.Wrap(ErrInvalidCamera, "direction and up vectors must be non-zero and not parallel")
	}
	if c.Near <= 0 || c.Far <= c.Near {
		return nil, errors.Wrapf(ErrInvalidCamera, "clip distances near=%f far=%f", c.Near, c.Far)
	}
	if c.FOV <= 0 || c.FOV >= 180 || c.Aspect <= 0 {
		return nil, errors.Wrapf(ErrInvalidCamera, "fov=%f aspect=%f", c.FOV, c.Aspect)
	}
	up := right.Cross(dir)

	halfV := math32.Tan(c.FOV * math32.Pi / 360)
	halfH := halfV * c.Aspect

	leftEdge := dir.Sub(right.Mul(halfH))
	rightEdge := dir.Add(right.Mul(halfH))
	topEdge := dir.Add(up.Mul(halfV))
	bottomEdge := dir.Sub(up.Mul(halfV))

	return []frustum.Plane{
		frustum.PlaneFromPoint(leftEdge.Cross(up), c.Position),
		frustum.PlaneFromPoint(up.Cross(rightEdge), c.Position),
		frustum.PlaneFromPoint(topEdge.Cross(right), c.Position),
		frustum.PlaneFromPoint(right.Cross(bottomEdge), c.Position),
		frustum.PlaneFromPoint(dir, c.Position.Add(dir.Mul(c.Near))),
		frustum.PlaneFromPoint(dir.Mul(-1), c.Position.Add(dir.Mul(c.Far))),
	}, nil
}

// Frustum returns a cached frustum for the current camera state.
func (c *Camera) Frustum() (*frustum.CachedFrustum, error) {
	planes, err := c.Planes()
	if err != nil {
		return nil, err
	}
	return frustum.New(planes)
}
