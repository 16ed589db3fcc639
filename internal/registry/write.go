package registry

import (
	"context"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
)

// ValueOption adjusts the data written by WriteValue.
type ValueOption func(*model.Data)

// WithMode sets the data type tag of the value. The default is "f".
func WithMode(mode string) ValueOption {
	return func(d *model.Data) { d.Mode = mode }
}

// WithUnit sets the unit of the value and its range.
func WithUnit(unit string, unitMin, unitMax float64) ValueOption {
	return func(d *model.Data) {
		d.Unit = unit
		d.UnitMin = unitMin
		d.UnitMax = unitMax
	}
}

// WriteValue stores value on the node and hands the change to the object
// engine. Writing to an undeclared node does nothing.
func (r *Registry) WriteValue(ctx context.Context, objectName, frameName, nodeName string, value float64, opts ...ValueOption) {
	data := model.DefaultData()
	data.Value = value
	for _, opt := range opts {
		opt(&data)
	}

	r.mu.Lock()
	ref, ok := r.lookupNodeLocked(objectName, frameName, nodeName)
	if !ok {
		r.mu.Unlock()
		ctxlog.FromContext(ctx).Debug("Write to unknown node ignored.", "object", objectName, "frame", frameName, "node", nodeName)
		return
	}
	ref.node.Data = data
	var change ValueChange
	notify := r.callbacks.OnValueChanged
	if notify != nil {
		change = ValueChange{
			Node:      ref.key,
			Data:      data,
			Objects:   r.snapshotLocked(),
			NodeTypes: r.nodeTypes,
		}
	}
	r.mu.Unlock()

	writesTotal.WithLabelValues("value").Inc()
	if notify != nil {
		invoke(ctx, "value_changed", func() error {
			notify(ctx, change)
			return nil
		})
	}
}

// WritePublicData stores value under key in the node's public data and tells
// the host which node changed. Subscribers re-read the registry.
func (r *Registry) WritePublicData(ctx context.Context, objectName, frameName, nodeName, key string, value any) {
	r.mu.Lock()
	ref, ok := r.lookupNodeLocked(objectName, frameName, nodeName)
	if !ok {
		r.mu.Unlock()
		ctxlog.FromContext(ctx).Debug("Public data write to unknown node ignored.", "object", objectName, "frame", frameName, "node", nodeName)
		return
	}
	if ref.node.PublicData == nil {
		ref.node.PublicData = make(map[string]any)
	}
	ref.node.PublicData[key] = value
	r.mu.Unlock()

	writesTotal.WithLabelValues("public_data").Inc()
	if notify := r.callbacks.OnPublicDataChanged; notify != nil {
		invoke(ctx, "public_data_changed", func() error {
			notify(ctx, ref.key)
			return nil
		})
	}
}
