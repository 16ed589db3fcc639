package registry

import (
	"context"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/objectid"
)

// subscriberKey resolves the node a subscription targets. Subscriptions may
// come before the node is declared, so the object id is created if needed.
func (r *Registry) subscriberKey(objectName, frameName, nodeName string) objectid.NodeKey {
	return objectid.NewNodeKey(r.resolver.Ensure(objectName), frameName, nodeName)
}

// SubscribeValue sets the value callback of a node, replacing any previous one.
func (r *Registry) SubscribeValue(ctx context.Context, objectName, frameName, nodeName string, fn ValueFunc) {
	key := r.subscriberKey(objectName, frameName, nodeName)
	r.subs.setValue(key, fn)
	ctxlog.FromContext(ctx).Debug("Value subscriber set.", "node", key.String())
}

// SubscribePublicData adds a callback for one public data field of a node.
// Several subscribers may listen on the same node.
func (r *Registry) SubscribePublicData(ctx context.Context, objectName, frameName, nodeName, key string, fn PublicDataFunc) {
	nodeKey := r.subscriberKey(objectName, frameName, nodeName)
	r.subs.addPublicData(nodeKey, key, fn)
	ctxlog.FromContext(ctx).Debug("Public data subscriber added.", "node", nodeKey.String(), "key", key)
}

// SubscribeConnection sets the connection callback of a node, replacing any
// previous one.
func (r *Registry) SubscribeConnection(ctx context.Context, objectName, frameName, nodeName string, fn ConnectionFunc) {
	key := r.subscriberKey(objectName, frameName, nodeName)
	r.subs.setConnection(key, fn)
	ctxlog.FromContext(ctx).Debug("Connection subscriber set.", "node", key.String())
}

// RemoveReadListeners drops every node subscriber of a frame.
func (r *Registry) RemoveReadListeners(ctx context.Context, objectName, frameName string) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return
	}
	key := objectid.NewFrameKey(id, frameName)
	r.subs.dropFrame(key)
	ctxlog.FromContext(ctx).Debug("Read listeners removed.", "frame", key.String())
}

// SubscribeFrameAdded registers fn for frames added to the object.
func (r *Registry) SubscribeFrameAdded(ctx context.Context, objectName string, fn FrameAddedFunc) {
	r.subs.addFrameAdded(r.resolver.Ensure(objectName), fn)
}

// SubscribeReset registers fn for resets of the object.
func (r *Registry) SubscribeReset(ctx context.Context, objectName string, fn ObjectResetFunc) {
	r.subs.addObjectReset(r.resolver.Ensure(objectName), fn)
}

// AddLifecycleListener appends fn to the global reset or shutdown list.
func (r *Registry) AddLifecycleListener(kind LifecycleKind, fn LifecycleFunc) {
	r.subs.addLifecycle(kind, fn)
}

// SubscribeMatrixStream registers fn for matrix stream broadcasts.
func (r *Registry) SubscribeMatrixStream(fn StreamFunc) {
	r.subs.addStream(&r.subs.matrix, fn)
}

// SubscribeUDPMessages registers fn for UDP message broadcasts.
func (r *Registry) SubscribeUDPMessages(fn StreamFunc) {
	r.subs.addStream(&r.subs.udp, fn)
}
