package scene

import (
	"net/http"
	"net/http/httptest"
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

const mainScene = `
camera:
  position: [0, 0, 5]
  look_at: [0, 0, 0]
  fov: 60
  far: 100
include:
  - props.yaml
objects:
  - id: floor
    min: [-10, -1, -10]
    max: [10, 0, 10]
`

const propsScene = `
objects:
  - id: crate
    min: [0, 0, 0]
    max: [1, 1, 1]
  - id: barrel
    min: [3, 0, 3]
    max: [4, 2, 4]
`

func TestReadSceneWithIncludes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.yaml"), []byte(mainScene), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "props.yaml"), []byte(propsScene), 0o644))

	sc, err := ReadScene(filepath.Join(dir, "main.yaml"), bvh.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, sc.Len())
	require.NotNil(t, sc.Camera)
	assert.Equal(t, types.XYZ(0, 0, 5), sc.Camera.Position)
	assert.Equal(t, float32(60), sc.Camera.FOV)
	assert.Equal(t, float32(100), sc.Camera.Far)
	assert.Equal(t, float32(1), sc.Camera.Near)

	barrel, err := sc.Object("barrel")
	require.NoError(t, err)
	assert.Equal(t, types.NewBBox(types.XYZ(3, 0, 3), types.XYZ(4, 2, 4)), barrel.Bounds())

	require.NoError(t, sc.Tree().Validate())
	assert.Equal(t, 3, sc.Tree().Stats().Leaves)
}

func TestReadRemoteScene(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scenes/main.yaml":
			w.Write([]byte(mainScene))
		case "/scenes/props.yaml":
			w.Write([]byte(propsScene))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	sc, err := ReadScene(server.URL+"/scenes/main.yaml", bvh.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Len())
}

func TestParseSceneErrors(t *testing.T) {
	type spec struct {
		doc    string
		expErr string
	}
	specs := []spec{
		{"objects: [", "could not parse"},
		{"objects:\n  - min: [0, 0, 0]\n    max: [1, 1, 1]\n", "has no id"},
		{"objects:\n  - id: a\n  - id: a\n", "already attached"},
		{"include:\n  - gopher://nope.yaml\n", "unsupported scheme"},
	}

	for index, s := range specs {
		res := asset.NewResourceFromStream("embedded.yaml", strings.NewReader(s.doc))
		_, err := ParseScene(res, bvh.DefaultOptions())
		if err == nil || !strings.Contains(err.Error(), s.expErr) {
			t.Errorf("[spec %d] expected error containing %q; got %v", index, s.expErr, err)
		}
	}
}
