package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/bhtree/asset"
	"github.com/achilleasa/bhtree/bvh"
	"github.com/achilleasa/bhtree/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cubeObj = `
# unit cube split over two groups
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1

g front
f 1/1/1 2/2/1 3/3/1 4/4/1

g back
f 5//2 6//2 7//2
f -1 -4 -2
`

func parseObj(t *testing.T, payload string) (*Scene, error) {
	res := asset.NewResourceFromStream("test.obj", strings.NewReader(payload))
	return ParseWavefront(res, bvh.DefaultOptions())
}

func TestWavefrontGroups(t *testing.T) {
	sc, err := parseObj(t, cubeObj)
	require.NoError(t, err)
	require.Equal(t, 2, sc.Len())
	assert.Nil(t, sc.Camera)

	front, err := sc.Object("front")
	require.NoError(t, err)
	assert.Equal(t, types.NewBBox(types.XYZ(0, 0, 0), types.XYZ(1, 1, 0)), front.Bounds())

	back, err := sc.Object("back")
	require.NoError(t, err)
	assert.Equal(t, types.NewBBox(types.XYZ(0, 0, 1), types.XYZ(1, 1, 1)), back.Bounds())
}

func TestWavefrontInstancesAndCamera(t *testing.T) {
	payload := cubeObj + `
camera_eye 0 0 10
camera_look 0 0 0
camera_fov 50
instance front 10 0 0 0 0 0 2 2 2
instance front -10 0 0 0 90 0 1 1 1
`
	sc, err := parseObj(t, payload)
	require.NoError(t, err)
	require.Equal(t, 2, sc.Len())

	require.NotNil(t, sc.Camera)
	assert.Equal(t, types.XYZ(0, 0, 10), sc.Camera.Position)
	assert.Equal(t, float32(50), sc.Camera.FOV)

	scaled, err := sc.Object("front/0")
	require.NoError(t, err)
	exp := types.NewBBox(types.XYZ(10, 0, 0), types.XYZ(12, 2, 0))
	assert.True(t, scaled.Bounds().Min.ApproxEqual(exp.Min, 1e-5), "got %v", scaled.Bounds())
	assert.True(t, scaled.Bounds().Max.ApproxEqual(exp.Max, 1e-5), "got %v", scaled.Bounds())

	// Rotating the front quad 90 degrees around Y maps x in [0, 1] to z in [-1, 0]
	rotated, err := sc.Object("front/1")
	require.NoError(t, err)
	exp = types.NewBBox(types.XYZ(-10, 0, -1), types.XYZ(-10, 1, 0))
	assert.True(t, rotated.Bounds().Min.ApproxEqual(exp.Min, 1e-5), "got %v", rotated.Bounds())
	assert.True(t, rotated.Bounds().Max.ApproxEqual(exp.Max, 1e-5), "got %v", rotated.Bounds())
}

func TestWavefrontCall(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.obj"), []byte(cubeObj), 0o644))
	main := "v 5 5 5\nv 6 5 5\nv 6 6 5\ncall cube.obj\no tri\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.obj"), []byte(main), 0o644))

	sc, err := ReadScene(filepath.Join(dir, "main.obj"), bvh.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Len())

	// Positive indices are relative to the file that defines the face
	tri, err := sc.Object("tri")
	require.NoError(t, err)
	assert.Equal(t, types.NewBBox(types.XYZ(5, 5, 5), types.XYZ(6, 6, 5)), tri.Bounds())
}

func TestYAMLIncludesWavefront(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.obj"), []byte(cubeObj), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.yml"), []byte("include: [cube.obj]\n"), 0o644))

	sc, err := ReadScene(filepath.Join(dir, "scene.yml"), bvh.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, sc.Len())
}

func TestWavefrontErrors(t *testing.T) {
	type spec struct {
		payload string
		expErr  string
	}
	specs := []spec{
		{"v 0 0\n", "expected 3 arguments"},
		{"v 0 0 0\nf 1 2\n", "at least 3 arguments"},
		{"v 0 0 0\nf 1 1 7\n", "index out of bounds"},
		{"v 0 0 0\nf 1 /1 1\n", "does not include a vertex index"},
		{"g\n", "expected 1 argument for object name"},
		{"instance missing 0 0 0 0 0 0 1 1 1\n", `unknown object with name "missing"`},
		{"call\n", `unsupported syntax for "call"`},
		{"call nope.obj\n", "referenced from test.obj:1"},
		{"camera_fov abc\n", "invalid syntax"},
	}

	for index, s := range specs {
		_, err := parseObj(t, s.payload)
		if err == nil || !strings.Contains(err.Error(), s.expErr) {
			t.Errorf("[spec %d] expected error containing %q; got %v", index, s.expErr, err)
		}
	}
}

func TestReadSceneUnsupportedFormat(t *testing.T) {
	_, err := ReadScene("scene.zip", bvh.DefaultOptions())
	assert.Error(t, err)
}

func TestWavefrontCallCycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.obj"), []byte("v 0 0 0\ncall loop.obj\n"), 0o644))

	_, err := ReadScene(filepath.Join(dir, "loop.obj"), bvh.DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calls nested deeper than 8 levels")
	assert.Equal(t, maxIncludeDepth+1, strings.Count(err.Error(), "referenced from"))
}
