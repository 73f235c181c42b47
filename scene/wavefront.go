package scene

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/bhtree/asset"
	"github.com/achilleasa/bhtree/bvh"
	"github.com/achilleasa/bhtree/types"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type wavefrontGroup struct {
	name   string
	bounds types.BBox
}

type wavefrontInstance struct {
	group  *wavefrontGroup
	bounds types.BBox
}

// Extracts object bounds from wavefront obj files. Each group (g) or object
// (o) statement starts a new object whose bounds enclose all of its faces.
// Instance statements place transformed copies of a group; if a file defines
// any instances then only the instances become scene objects.
type wavefrontReader struct {
	camera *Camera

	groups      []*wavefrontGroup
	groupByName map[string]*wavefrontGroup
	curGroup    *wavefrontGroup
	instances   []wavefrontInstance

	vertexList []types.Vec3

	// An error stack that provides additional error information when
	// files include other files.
	errStack []string
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		groupByName: make(map[string]*wavefrontGroup),
	}
}

// Parse a wavefront obj file into a scene.
func ParseWavefront(res *asset.Resource, opts bvh.Options) (*Scene, error) {
	r := newWavefrontReader()
	if err := r.parse(res, 0); err != nil {
		return nil, err
	}
	return buildScene(res, r.camera, r.objects(), opts)
}

func (r *wavefrontReader) objects() []*Object {
	if len(r.instances) == 0 {
		out := make([]*Object, 0, len(r.groups))
		for _, g := range r.groups {
			if g.bounds.IsEmpty() {
				logger.Warningf("dropping object %q as it contains no polygons", g.name)
				continue
			}
			out = append(out, NewObject(g.name, g.bounds))
		}
		return out
	}

	counts := make(map[*wavefrontGroup]int)
	out := make([]*Object, 0, len(r.instances))
	for _, inst := range r.instances {
		id := fmt.Sprintf("%s/%d", inst.group.name, counts[inst.group])
		counts[inst.group]++
		out = append(out, NewObject(id, inst.bounds))
	}
	return out
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return errors.New(strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	))
}

func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontReader) selectGroup(name string) {
	g, exists := r.groupByName[name]
	if !exists {
		g = &wavefrontGroup{name: name, bounds: types.EmptyBBox()}
		r.groupByName[name] = g
		r.groups = append(r.groups, g)
	}
	r.curGroup = g
}

func (r *wavefrontReader) cam() *Camera {
	if r.camera == nil {
		r.camera = NewCamera(45)
	}
	return r.camera
}

func (r *wavefrontReader) parse(res *asset.Resource, depth int) error {
	var lineNum int
	var err error

	if depth > maxIncludeDepth {
		return r.emitError(res.Path(), 0, "calls nested deeper than %d levels", maxIncludeDepth)
	}

	// Positive face indices are relative to the vertices of the file that
	// contains them.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			err = r.parse(incRes, depth+1)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.selectGroup(lineTokens[1])
		case "f":
			if err = r.parseFace(lineTokens, relVertexOffset); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "instance":
			if err = r.parseInstance(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_fov":
			if r.cam().FOV, err = parseFloat32(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_eye":
			if r.cam().Position, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_look":
			if r.cam().LookAt, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_up":
			if r.cam().Up, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}
	return nil
}

// Parse a face definition and grow the bounds of the current group. Each
// face argument has the form v, v/vt, v//vn or v/vt/vn; only the vertex
// index is used. Indices start from 1 and may be negative to select an
// offset from the end of the vertex list.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	// If no object has been defined create a default one
	if r.curGroup == nil {
		r.selectGroup("default")
	}

	for arg := 1; arg < len(lineTokens); arg++ {
		vToken := strings.SplitN(lineTokens[arg], "/", 2)[0]
		if vToken == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg-1)
		}

		vOffset, err := selectFaceCoordIndex(vToken, len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg-1, err.Error())
		}
		r.curGroup.bounds.CombinePoint(r.vertexList[vOffset])
	}
	return nil
}

// Parse an instance definition with the following format:
// instance name tX tY tZ yaw pitch roll sX sY sZ
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees
// - sX, sY, sZ       : scale
//
// The instance bounds enclose the transformed corners of the group bounds.
func (r *wavefrontReader) parseInstance(lineTokens []string) error {
	if len(lineTokens) != 11 {
		return fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(lineTokens)-1)
	}

	g, exists := r.groupByName[lineTokens[1]]
	if !exists || g.bounds.IsEmpty() {
		return fmt.Errorf(`unknown object with name "%s"`, lineTokens[1])
	}

	var values [9]float32
	for index := range values {
		v, err := strconv.ParseFloat(lineTokens[index+2], 32)
		if err != nil {
			return err
		}
		values[index] = float32(v)
	}
	translation := types.XYZ(values[0], values[1], values[2])
	scale := types.XYZ(values[6], values[7], values[8])

	yawQuat := types.QuatFromAxisAngle(types.XYZ(1, 0, 0), values[3]*math32.Pi/180)
	pitchQuat := types.QuatFromAxisAngle(types.XYZ(0, 1, 0), values[4]*math32.Pi/180)
	rollQuat := types.QuatFromAxisAngle(types.XYZ(0, 0, 1), values[5]*math32.Pi/180)
	rot := rollQuat.Mul(pitchQuat.Mul(yawQuat)).Normalize()

	bounds := types.EmptyBBox()
	for corner := 0; corner < 8; corner++ {
		var p types.Vec3
		for axis := 0; axis < 3; axis++ {
			if corner&(1<<uint(axis)) == 0 {
				p[axis] = g.bounds.Min[axis]
			} else {
				p[axis] = g.bounds.Max[axis]
			}
			p[axis] *= scale[axis]
		}
		bounds.CombinePoint(rot.Rotate(p).Add(translation))
	}

	r.instances = append(r.instances, wavefrontInstance{group: g, bounds: bounds})
	return nil
}

// Given a face vertex index calculate the offset into the vertex list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
