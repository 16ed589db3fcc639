package registry

import (
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// frameRef is the outcome of resolving (object, frame) in the live tree.
type frameRef struct {
	object   *model.Object
	frame    *model.Frame
	frameKey objectid.FrameKey
}

// nodeRef is the outcome of resolving (object, frame, node) in the live tree.
type nodeRef struct {
	frameRef
	node *model.Node
	key  objectid.NodeKey
}

// frameByKeyLocked looks a frame up by key. r.mu must be held.
func (r *Registry) frameByKeyLocked(key objectid.FrameKey) (frameRef, bool) {
	object, ok := r.objects[key.Object]
	if !ok {
		return frameRef{}, false
	}
	frame, ok := object.Frames[key]
	if !ok {
		return frameRef{}, false
	}
	return frameRef{object: object, frame: frame, frameKey: key}, true
}

// nodeByKeyLocked looks a node up by key. r.mu must be held.
func (r *Registry) nodeByKeyLocked(key objectid.NodeKey) (nodeRef, bool) {
	fr, ok := r.frameByKeyLocked(key.FrameKey())
	if !ok {
		return nodeRef{}, false
	}
	node, ok := fr.frame.Nodes[key]
	if !ok {
		return nodeRef{}, false
	}
	return nodeRef{frameRef: fr, node: node, key: key}, true
}

// lookupFrameLocked resolves names to a live frame. r.mu must be held.
func (r *Registry) lookupFrameLocked(objectName, frameName string) (frameRef, bool) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return frameRef{}, false
	}
	return r.frameByKeyLocked(objectid.NewFrameKey(id, frameName))
}

// lookupNodeLocked resolves names to a live node. r.mu must be held.
func (r *Registry) lookupNodeLocked(objectName, frameName, nodeName string) (nodeRef, bool) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return nodeRef{}, false
	}
	return r.nodeByKeyLocked(objectid.NewNodeKey(id, frameName, nodeName))
}

// snapshotLocked deep-copies the live tree. r.mu must be held.
func (r *Registry) snapshotLocked() map[objectid.ObjectID]*model.Object {
	out := make(map[objectid.ObjectID]*model.Object, len(r.objects))
	for id, object := range r.objects {
		out[id] = object.Clone()
	}
	return out
}

// declaredNode is a node a driver has declared.
type declaredNode struct {
	name     string
	nodeType string
}

// declaredFrame holds the nodes declared for one frame, keyed by node name.
type declaredFrame struct {
	name  string
	nodes map[string]declaredNode
}

// declaredObject holds the frames declared for one object, keyed by frame name.
type declaredObject struct {
	name   string
	frames map[string]*declaredFrame
}

// declarations is the shadow tree, keyed by object name.
type declarations map[string]*declaredObject

// record mirrors a declaration, creating the path on demand.
func (d declarations) record(objectName, frameName, nodeName, nodeType string) {
	object, ok := d[objectName]
	if !ok {
		object = &declaredObject{name: objectName, frames: make(map[string]*declaredFrame)}
		d[objectName] = object
	}
	frame, ok := object.frames[frameName]
	if !ok {
		frame = &declaredFrame{name: frameName, nodes: make(map[string]declaredNode)}
		object.frames[frameName] = frame
	}
	frame.nodes[nodeName] = declaredNode{name: nodeName, nodeType: nodeType}
}

// frame returns the declarations of a frame, if any.
func (d declarations) frame(objectName, frameName string) (*declaredFrame, bool) {
	object, ok := d[objectName]
	if !ok {
		return nil, false
	}
	frame, ok := object.frames[frameName]
	return frame, ok
}

// forget drops a single node declaration.
func (d declarations) forget(objectName, frameName, nodeName string) {
	if frame, ok := d.frame(objectName, frameName); ok {
		delete(frame.nodes, nodeName)
	}
}

// clear empties the declarations of a frame.
func (d declarations) clear(objectName, frameName string) {
	if frame, ok := d.frame(objectName, frameName); ok {
		frame.nodes = make(map[string]declaredNode)
	}
}

// has reports whether nodeName is declared in the frame.
func (f *declaredFrame) has(nodeName string) bool {
	if f == nil {
		return false
	}
	_, ok := f.nodes[nodeName]
	return ok
}
