package registry

import (
	"context"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// RenameNode sets the display alias of a node and asks editors to reload the
// frame.
func (r *Registry) RenameNode(ctx context.Context, objectName, frameName, oldNodeName, newNodeName string) {
	r.mu.Lock()
	ref, ok := r.lookupNodeLocked(objectName, frameName, oldNodeName)
	if ok {
		ref.node.Text = newNodeName
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	r.emitAction(ctx, model.Action{ReloadObject: &model.ReloadObject{
		Object: string(ref.frameKey.Object),
		Frame:  ref.frameKey.String(),
	}})
}

// MoveNode places a node at (x, y).
func (r *Registry) MoveNode(ctx context.Context, objectName, frameName, nodeName string, x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.lookupNodeLocked(objectName, frameName, nodeName)
	if !ok {
		return
	}
	ref.node.X = x
	ref.node.Y = y
	ctxlog.FromContext(ctx).Debug("Node moved.", "node", nodeName, "x", x, "y", y)
}

// RemoveNode deletes a node and its declaration.
func (r *Registry) RemoveNode(ctx context.Context, objectName, frameName, nodeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.lookupNodeLocked(objectName, frameName, nodeName)
	if !ok {
		return
	}
	delete(ref.frame.Nodes, ref.key)
	r.declared.forget(objectName, frameName, nodeName)
	ctxlog.FromContext(ctx).Debug("Node removed.", "node", ref.key.String())
}

// RemoveAllNodes deletes every node of a frame.
func (r *Registry) RemoveAllNodes(ctx context.Context, objectName, frameName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.lookupFrameLocked(objectName, frameName)
	if !ok {
		return
	}
	for key := range ref.frame.Nodes {
		delete(ref.frame.Nodes, key)
	}
	ctxlog.FromContext(ctx).Debug("All nodes removed.", "frame", ref.frameKey.String())
}

// Activate clears the deactivated flag of an object.
func (r *Registry) Activate(ctx context.Context, objectName string) {
	r.setDeactivated(objectName, false)
}

// Deactivate sets the deactivated flag of an object.
func (r *Registry) Deactivate(ctx context.Context, objectName string) {
	r.setDeactivated(objectName, true)
	ctxlog.FromContext(ctx).Debug("Object deactivated.", "object", objectName)
}

func (r *Registry) setDeactivated(objectName string, deactivated bool) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if object, ok := r.objects[id]; ok {
		object.Deactivated = deactivated
	}
}

// EnableDeveloperUI switches developer mode globally and on every object.
func (r *Registry) EnableDeveloperUI(developer bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Developer = developer
	for _, object := range r.objects {
		object.Developer = developer
	}
}

// SetMarkerSize records the physical size of an object's marker.
func (r *Registry) SetMarkerSize(objectName string, size model.TargetSize) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if object, ok := r.objects[id]; ok {
		object.TargetSize = &size
	}
}

// SetScreenPose stores the screen pose of a frame addressed by wire ids. It
// reports whether the frame exists.
func (r *Registry) SetScreenPose(ctx context.Context, objectID, frameID string, pose model.ScreenPose) bool {
	key := objectid.ParseFrameID(objectid.ObjectID(objectID), frameID)
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.frameByKeyLocked(key)
	if !ok {
		return false
	}
	ref.frame.Screen = pose
	ctxlog.FromContext(ctx).Debug("Screen pose updated.", "frame", key.String(), "x", pose.X, "y", pose.Y, "scale", pose.Scale)
	return true
}

// ReloadNodeUI asks editors to reload an object and the host to persist it.
func (r *Registry) ReloadNodeUI(ctx context.Context, objectName string) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return
	}
	r.emitAction(ctx, model.Action{ReloadObject: &model.ReloadObject{Object: string(id)}})
	if persist := r.callbacks.OnPersist; persist != nil {
		invoke(ctx, "persist", func() error {
			persist(ctx, id)
			return nil
		})
	}
}

// AdvertiseConnection announces that a node wants to be linked.
func (r *Registry) AdvertiseConnection(ctx context.Context, objectName, frameName, nodeName string, logic bool) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return
	}
	r.emitAction(ctx, model.Action{AdvertiseConnection: &model.AdvertiseConnection{
		Object: string(id),
		Frame:  objectid.NewFrameKey(id, frameName).String(),
		Node:   objectid.NewNodeKey(id, frameName, nodeName).String(),
		Logic:  logic,
		Names:  []string{objectName, nodeName},
	}})
}

func (r *Registry) emitAction(ctx context.Context, action model.Action) {
	emit := r.callbacks.OnAction
	if emit == nil {
		return
	}
	invoke(ctx, "action", func() error {
		emit(ctx, action)
		return nil
	})
}
