package registry

import (
	"maps"

	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// Settings returns the global configuration record.
func (r *Registry) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// Debug reports whether debug mode is on.
func (r *Registry) Debug() bool {
	return r.Settings().Debug
}

// Object returns a copy of an object record.
func (r *Registry) Object(id objectid.ObjectID) (*model.Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	object, ok := r.objects[id]
	if !ok {
		return nil, false
	}
	return object.Clone(), true
}

// Snapshot returns a deep copy of the live tree.
func (r *Registry) Snapshot() map[objectid.ObjectID]*model.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Frames returns copies of an object's frames keyed by wire id. An unknown
// object yields an empty map.
func (r *Registry) Frames(objectName string) map[string]*model.Frame {
	out := make(map[string]*model.Frame)
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return out
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	object, ok := r.objects[id]
	if !ok {
		return out
	}
	for key, frame := range object.Frames {
		out[key.String()] = frame.Clone()
	}
	return out
}

// Nodes returns copies of a frame's nodes keyed by wire id.
func (r *Registry) Nodes(objectName, frameName string) map[string]*model.Node {
	out := make(map[string]*model.Node)
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.lookupFrameLocked(objectName, frameName)
	if !ok {
		return out
	}
	for key, node := range ref.frame.Nodes {
		out[key.String()] = node.Clone()
	}
	return out
}

// Links returns copies of the links that start in a frame.
func (r *Registry) Links(objectName, frameName string) map[string]model.Link {
	out := make(map[string]model.Link)
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.lookupFrameLocked(objectName, frameName)
	if !ok {
		return out
	}
	for id, link := range ref.frame.Links {
		out[id] = maps.Clone(link)
	}
	return out
}

// MarkerSize returns the marker size of an object, if known.
func (r *Registry) MarkerSize(objectName string) (model.TargetSize, bool) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return model.TargetSize{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	object, ok := r.objects[id]
	if !ok || object.TargetSize == nil {
		return model.TargetSize{}, false
	}
	return *object.TargetSize, true
}

// Map linearly maps x from [inMin, inMax] to [outMin, outMax], clamping x to
// the input range first.
func Map(x, inMin, inMax, outMin, outMax float64) float64 {
	if x > inMax {
		x = inMax
	}
	if x < inMin {
		x = inMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
