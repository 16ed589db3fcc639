package registry

import (
	"context"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// DispatchValue hands data to the value subscriber of a node.
func (r *Registry) DispatchValue(ctx context.Context, key objectid.NodeKey, data model.Data) {
	subs, ok := r.subs.node(key)
	if !ok || subs.value == nil {
		ctxlog.FromContext(ctx).Debug("No value subscriber.", "node", key.String())
		return
	}
	dispatchTotal.WithLabelValues("value").Inc()
	invoke(ctx, "value", func() error {
		subs.value(ctx, data)
		return nil
	})
}

// DispatchPublicData calls every public data subscriber of a node whose field
// is present in data, with that field's value.
func (r *Registry) DispatchPublicData(ctx context.Context, key objectid.NodeKey, data map[string]any) {
	subs, ok := r.subs.node(key)
	if !ok {
		ctxlog.FromContext(ctx).Debug("No public data subscribers.", "node", key.String())
		return
	}
	for _, sub := range subs.publicData {
		value, present := data[sub.key]
		if !present {
			continue
		}
		dispatchTotal.WithLabelValues("public_data").Inc()
		invoke(ctx, "public_data", func() error {
			sub.fn(ctx, value)
			return nil
		})
	}
}

// DispatchConnection hands state to the connection subscriber of a node.
func (r *Registry) DispatchConnection(ctx context.Context, key objectid.NodeKey, state any) {
	subs, ok := r.subs.node(key)
	if !ok || subs.connection == nil {
		ctxlog.FromContext(ctx).Debug("No connection subscriber.", "node", key.String())
		return
	}
	dispatchTotal.WithLabelValues("connection").Inc()
	invoke(ctx, "connection", func() error {
		subs.connection(ctx, state)
		return nil
	})
}

// NotifyFrameAdded tells the object's frame-added subscribers about frame, in
// registration order.
func (r *Registry) NotifyFrameAdded(ctx context.Context, object objectid.ObjectID, frame *model.Frame) {
	for _, fn := range r.subs.frameAddedFor(object) {
		dispatchTotal.WithLabelValues("frame_added").Inc()
		invoke(ctx, "frame_added", func() error {
			fn(ctx, frame.Clone())
			return nil
		})
	}
}

// NotifyObjectReset tells the object's reset subscribers that it was reset.
func (r *Registry) NotifyObjectReset(ctx context.Context, object objectid.ObjectID) {
	for _, fn := range r.subs.objectResetFor(object) {
		dispatchTotal.WithLabelValues("object_reset").Inc()
		invoke(ctx, "object_reset", func() error {
			fn(ctx, object)
			return nil
		})
	}
}

// TriggerMatrixStream broadcasts payload to matrix stream subscribers.
func (r *Registry) TriggerMatrixStream(ctx context.Context, payload any) {
	r.broadcast(ctx, "matrix", r.subs.stream(&r.subs.matrix), payload)
}

// TriggerUDPMessages broadcasts payload to UDP message subscribers.
func (r *Registry) TriggerUDPMessages(ctx context.Context, payload any) {
	r.broadcast(ctx, "udp", r.subs.stream(&r.subs.udp), payload)
}

func (r *Registry) broadcast(ctx context.Context, kind string, fns []StreamFunc, payload any) {
	for _, fn := range fns {
		dispatchTotal.WithLabelValues(kind).Inc()
		invoke(ctx, kind, func() error {
			fn(ctx, payload)
			return nil
		})
	}
}
