package scene

import (
	"sync"

	"github.com/achilleasa/bhtree/types"
)

// Object is a named piece of scene geometry represented by its bounds.
type Object struct {
	ID string

	mu     sync.RWMutex
	bounds types.BBox
}

func NewObject(id string, bounds types.BBox) *Object {
	return &Object{ID: id, bounds: bounds}
}

// Bounds implements bvh.Payload.
func (o *Object) Bounds() types.BBox {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.bounds
}

func (o *Object) setBounds(bounds types.BBox) {
	o.mu.Lock()
	o.bounds = bounds
	o.mu.Unlock()
}
