package scene

import (
	"sort"
	"sync"

	"github.com/achilleasa/bhtree/bvh"
	"github.com/achilleasa/bhtree/frustum"
	"github.com/achilleasa/bhtree/log"
	"github.com/achilleasa/bhtree/types"
	"github.com/pkg/errors"
)

var logger = log.New("scene")

// Scene tracks the live objects of a scene and keeps a bounding hierarchy
// over them. Attach, Detach and Move only queue hierarchy work; it is applied
// by Sync, which should run once per frame before the scene is queried.
type Scene struct {
	Camera *Camera

	mu      sync.Mutex
	objects map[string]*bvh.Leaf

	tree *bvh.Tree
}

// Create an empty scene.
func New(opts bvh.Options) *Scene {
	return &Scene{
		objects: make(map[string]*bvh.Leaf),
		tree:    bvh.NewTree(opts),
	}
}

// Tree returns the scene bounding hierarchy.
func (s *Scene) Tree() *bvh.Tree {
	return s.tree
}

// Len returns the number of attached objects.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Object looks up an attached object.
func (s *Scene) Object(id string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leaf, exists := s.objects[id]
	if !exists {
		return nil, errors.Wrapf(ErrUnknownObject, "id %q", id)
	}
	return leaf.Payload().(*Object), nil
}

// Attach makes objects live.
func (s *Scene) Attach(objects ...*Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(objects))
	for _, obj := range objects {
		if _, exists := s.objects[obj.ID]; exists || seen[obj.ID] {
			return errors.Wrapf(ErrDuplicateObject, "id %q", obj.ID)
		}
		seen[obj.ID] = true
	}

	leaves := make([]*bvh.Leaf, 0, len(objects))
	for _, obj := range objects {
		leaf := bvh.NewLeaf(obj)
		s.objects[obj.ID] = leaf
		leaves = append(leaves, leaf)
	}

	s.tree.Insert(leaves...)
	return nil
}

// Detach removes objects from the scene.
func (s *Scene) Detach(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	leaves := make([]*bvh.Leaf, 0, len(ids))
	for _, id := range ids {
		leaf, exists := s.objects[id]
		if !exists {
			return errors.Wrapf(ErrUnknownObject, "id %q", id)
		}
		leaves = append(leaves, leaf)
	}
	for _, id := range ids {
		delete(s.objects, id)
	}

	s.tree.Remove(leaves...)
	return nil
}

// Move updates the bounds of an attached object.
func (s *Scene) Move(id string, bounds types.BBox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	leaf, exists := s.objects[id]
	if !exists {
		return errors.Wrapf(ErrUnknownObject, "id %q", id)
	}
	leaf.Payload().(*Object).setBounds(bounds)
	s.tree.Refit(leaf)
	return nil
}

// Sync applies all queued changes to the bounding hierarchy.
func (s *Scene) Sync() (bvh.UpdateStats, error) {
	stats, err := s.tree.Update()
	if err != nil {
		return stats, errors.Wrap(err, "scene: hierarchy update failed")
	}
	logger.Debugf("synced %d objects in %s", s.tree.Len(), stats.Duration)
	return stats, nil
}

// Cull returns the objects visible from the scene camera sorted by id.
func (s *Scene) Cull() ([]*Object, error) {
	if s.Camera == nil {
		return nil, ErrNoCamera
	}
	f, err := s.Camera.Frustum()
	if err != nil {
		return nil, err
	}
	return s.CullWith(f), nil
}

// CullWith returns the objects that are not completely outside f.
func (s *Scene) CullWith(f *frustum.CachedFrustum) []*Object {
	var out []*Object
	s.tree.Cull(f, func(l *bvh.Leaf) {
		out = append(out, l.Payload().(*Object))
	})
	return sortObjects(out)
}

// Pick returns the objects whose bounds contain p.
func (s *Scene) Pick(p types.Vec3) []*Object {
	var out []*Object
	s.tree.PickPoint(p, func(l *bvh.Leaf) {
		out = append(out, l.Payload().(*Object))
	})
	return sortObjects(out)
}

// Collide returns the objects whose bounds overlap box.
func (s *Scene) Collide(box types.BBox) []*Object {
	var out []*Object
	s.tree.Intersect(box, func(l *bvh.Leaf) {
		out = append(out, l.Payload().(*Object))
	})
	return sortObjects(out)
}

func sortObjects(objects []*Object) []*Object {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ID < objects[j].ID
	})
	return objects
}
