// Package screenbridge routes touch events between the editors and the
// drivers of companion screens.
//
// Each object has at most one screen driver. Events flowing back from a
// screen go through a single outbound slot: registering a new outbound
// consumer replaces the previous one, so only one screen page can report
// touches at a time.
package screenbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// ScreenFunc receives a screenObject event for the driver's object.
type ScreenFunc func(ctx context.Context, msg model.ScreenObjectMessage)

// OutboundFunc receives touches forwarded by a screen driver.
type OutboundFunc func(ctx context.Context, touch model.OutboundTouch)

// Bridge is safe for concurrent use.
type Bridge struct {
	resolver *objectid.Resolver

	mu       sync.Mutex
	drivers  map[objectid.ObjectID]ScreenFunc
	outbound OutboundFunc
	ports    map[objectid.ObjectID]int
}

// New creates a Bridge that resolves object names with resolver.
func New(resolver *objectid.Resolver) *Bridge {
	if resolver == nil {
		panic("screenbridge: resolver is required")
	}
	return &Bridge{
		resolver: resolver,
		drivers:  make(map[objectid.ObjectID]ScreenFunc),
		ports:    make(map[objectid.ObjectID]int),
	}
}

// objectID accepts a name or an id. Unknown names get a fresh id so drivers
// may register before their object is declared.
func (b *Bridge) objectID(nameOrID string) objectid.ObjectID {
	if id, ok := b.resolver.Lookup(nameOrID); ok {
		return id
	}
	return b.resolver.Ensure(nameOrID)
}

// RegisterScreenDriver installs fn as the screen driver of an object,
// replacing any previous driver.
func (b *Bridge) RegisterScreenDriver(ctx context.Context, object string, fn ScreenFunc) {
	if object == "" || fn == nil {
		return
	}
	id := b.objectID(object)
	b.mu.Lock()
	b.drivers[id] = fn
	b.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Screen driver registered.", "object", id)
}

// DispatchToScreenDriver hands msg to the driver of the object. It reports
// whether a driver was found.
func (b *Bridge) DispatchToScreenDriver(ctx context.Context, object objectid.ObjectID, msg model.ScreenObjectMessage) bool {
	b.mu.Lock()
	fn, ok := b.drivers[object]
	b.mu.Unlock()
	if !ok {
		ctxlog.FromContext(ctx).Debug("No screen driver for object.", "object", object)
		return false
	}
	guard(ctx, "driver", func() { fn(ctx, msg) })
	return true
}

// SetOutboundCallback replaces the outbound consumer.
func (b *Bridge) SetOutboundCallback(fn OutboundFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outbound = fn
}

// ForwardOutbound normalizes the identifiers of a touch and hands it to the
// outbound consumer. The frame and node may be names or ids already derived
// from the object, so forwarding an already forwarded touch is a no-op
// transformation. The literal "null" counts as no node.
func (b *Bridge) ForwardOutbound(ctx context.Context, object, frame, node string, touchOffsetX, touchOffsetY float64) {
	if node == "null" {
		node = ""
	}
	touch := model.OutboundTouch{
		Object:       object,
		TouchOffsetX: touchOffsetX,
		TouchOffsetY: touchOffsetY,
	}
	id, ok := b.resolver.Lookup(object)
	if ok {
		touch.Object = string(id)
	}
	if frame != "" {
		frameKey := objectid.ParseFrameID(objectid.ObjectID(touch.Object), frame)
		touch.Frame = frameKey.String()
		if node != "" {
			touch.Node = objectid.ParseNodeID(frameKey, node).String()
		}
	} else if node != "" {
		touch.Node = node
	}

	b.mu.Lock()
	fn := b.outbound
	b.mu.Unlock()
	if fn == nil {
		ctxlog.FromContext(ctx).Debug("No outbound screen consumer.", "object", touch.Object)
		return
	}
	guard(ctx, "outbound", func() { fn(ctx, touch) })
}

// guard runs a driver or outbound callback. A panic is logged and counted
// under kind instead of reaching the caller.
func guard(ctx context.Context, kind string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			callbackFailuresTotal.WithLabelValues(kind).Inc()
			err := fmt.Errorf("%s callback panicked: %v", kind, rec)
			ctxlog.FromContext(ctx).Warn("Callback failed.", "kind", kind, "error", err)
		}
	}()
	fn()
}

// RegisterPort records the port a screen page for the object is served on.
func (b *Bridge) RegisterPort(object string, port int) {
	id := b.objectID(object)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ports[id] = port
}

// Port returns the screen port of an object.
func (b *Bridge) Port(object objectid.ObjectID) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	port, ok := b.ports[object]
	return port, ok
}

// Ports returns a copy of every registered screen port.
func (b *Bridge) Ports() map[objectid.ObjectID]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[objectid.ObjectID]int, len(b.ports))
	for id, port := range b.ports {
		out[id] = port
	}
	return out
}
