package app

import (
	"context"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// nodeKey resolves a node addressed from outside the process.
func (a *App) nodeKey(msg nodeMessage) (objectid.NodeKey, bool) {
	id, ok := a.resolver.Lookup(msg.Object)
	if !ok || msg.Frame == "" || msg.Node == "" {
		return objectid.NodeKey{}, false
	}
	return objectid.ParseNodeID(objectid.ParseFrameID(id, msg.Frame), msg.Node), true
}

// objectName accepts an object name or id and returns the name.
func (a *App) objectName(nameOrID string) (objectid.ObjectID, string, bool) {
	id, ok := a.resolver.Lookup(nameOrID)
	if !ok {
		return "", "", false
	}
	name, ok := a.resolver.Name(id)
	return id, name, ok
}

// dispatchScreenObject hands a touch event to the screen driver of an object.
func (a *App) dispatchScreenObject(ctx context.Context, object string, msg model.ScreenObjectMessage) bool {
	id, ok := a.resolver.Lookup(object)
	if !ok {
		ctxlog.FromContext(ctx).Debug("Touch for unknown object dropped.", "object", object)
		return false
	}
	return a.bridge.DispatchToScreenDriver(ctx, id, msg)
}

// notifyFrameAdded tells the subscribers of an object that one of its frames
// was created.
func (a *App) notifyFrameAdded(ctx context.Context, object, frame string) bool {
	id, name, ok := a.objectName(object)
	if !ok {
		return false
	}
	key := objectid.ParseFrameID(id, frame)
	record, ok := a.registry.Frames(name)[key.String()]
	if !ok {
		ctxlog.FromContext(ctx).Debug("Added frame not found.", "object", name, "frame", frame)
		return false
	}
	a.registry.NotifyFrameAdded(ctx, id, record)
	return true
}
