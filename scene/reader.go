package scene

import (
	"path/filepath"
	"strings"

	"github.com/achilleasa/bhtree/asset"
	"github.com/achilleasa/bhtree/bvh"
	"github.com/achilleasa/bhtree/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Limit for nested include directives.
const maxIncludeDepth = 8

type cameraDesc struct {
	Position *types.Vec3 `yaml:"position"`
	LookAt   *types.Vec3 `yaml:"look_at"`
	Up       *types.Vec3 `yaml:"up"`
	FOV      float32     `yaml:"fov"`
	Aspect   float32     `yaml:"aspect"`
	Near     float32     `yaml:"near"`
	Far      float32     `yaml:"far"`
}

type objectDesc struct {
	ID  string     `yaml:"id"`
	Min types.Vec3 `yaml:"min"`
	Max types.Vec3 `yaml:"max"`
}

type sceneDesc struct {
	Camera  *cameraDesc  `yaml:"camera"`
	Include []string     `yaml:"include"`
	Objects []objectDesc `yaml:"objects"`
}

// Read a scene from a local file or http/https URL, attach all its objects
// and build the bounding hierarchy. Files with an .obj extension are parsed
// as wavefront object files; .yaml and .yml files as scene descriptions.
//
// A scene description may list other description or obj files under include;
// paths are resolved relative to the including file and only their objects
// are used.
func ReadScene(path string, opts bvh.Options) (*Scene, error) {
	var parse func(*asset.Resource, bvh.Options) (*Scene, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		parse = ParseWavefront
	case ".yaml", ".yml":
		parse = ParseScene
	default:
		return nil, errors.Errorf("scene: unsupported file format %q", path)
	}

	res, err := asset.NewResource(path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return parse(res, opts)
}

// Parse a YAML scene description from an open resource.
func ParseScene(res *asset.Resource, opts bvh.Options) (*Scene, error) {
	var objects []*Object
	desc, err := parseDesc(res, &objects, 0)
	if err != nil {
		return nil, err
	}

	var camera *Camera
	if desc.Camera != nil {
		camera = desc.Camera.camera()
	}
	return buildScene(res, camera, objects, opts)
}

func buildScene(res *asset.Resource, camera *Camera, objects []*Object, opts bvh.Options) (*Scene, error) {
	sc := New(opts)
	sc.Camera = camera

	if err := sc.Attach(objects...); err != nil {
		return nil, errors.Wrapf(err, "scene: %s", res.Path())
	}
	if _, err := sc.Sync(); err != nil {
		return nil, err
	}

	logger.Infof("loaded %d objects from %s", len(objects), res.Path())
	return sc, nil
}

func parseDesc(res *asset.Resource, objects *[]*Object, depth int) (*sceneDesc, error) {
	if depth > maxIncludeDepth {
		return nil, errors.Errorf("scene: %s: includes nested deeper than %d levels", res.Path(), maxIncludeDepth)
	}

	var desc sceneDesc
	if err := yaml.NewDecoder(res).Decode(&desc); err != nil {
		return nil, errors.Wrapf(err, "scene: could not parse %s", res.Path())
	}

	for index, od := range desc.Objects {
		if od.ID == "" {
			return nil, errors.Errorf("scene: %s: object %d has no id", res.Path(), index)
		}
		*objects = append(*objects, NewObject(od.ID, types.NewBBox(od.Min, od.Max)))
	}

	for _, include := range desc.Include {
		incRes, err := asset.NewResource(include, res)
		if err != nil {
			return nil, errors.Wrapf(err, "scene: %s", res.Path())
		}
		if strings.EqualFold(filepath.Ext(include), ".obj") {
			r := newWavefrontReader()
			if err = r.parse(incRes, depth+1); err == nil {
				*objects = append(*objects, r.objects()...)
			}
		} else {
			_, err = parseDesc(incRes, objects, depth+1)
		}
		incRes.Close()
		if err != nil {
			return nil, err
		}
	}

	return &desc, nil
}

func (cd *cameraDesc) camera() *Camera {
	fov := cd.FOV
	if fov == 0 {
		fov = 45
	}
	c := NewCamera(fov)
	if cd.Position != nil {
		c.Position = *cd.Position
	}
	if cd.LookAt != nil {
		c.LookAt = *cd.LookAt
	}
	if cd.Up != nil {
		c.Up = *cd.Up
	}
	if cd.Aspect != 0 {
		c.Aspect = cd.Aspect
	}
	if cd.Near != 0 {
		c.Near = cd.Near
	}
	if cd.Far != 0 {
		c.Far = cd.Far
	}
	return c
}
