// Package declarative is a hardware interface whose nodes come from the
// `interface` blocks of the configuration instead of from code.
//
// Every enabled block declares its nodes on one frame of an object. After a
// reload the frame is declared again and nodes that disappeared from the
// block are pruned. Values routed to a node are written straight back, so
// editors see the node follow its input like a virtual actuator.
package declarative

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
	"github.com/vk/realityserver/internal/registry"
)

// Name is the interface name of the module.
const Name = "declarative"

type frameRef struct {
	object string
	frame  string
}

// Module implements hardware.Module.
type Module struct {
	mu         sync.Mutex
	interfaces []*config.Interface
	frames     map[frameRef]struct{}

	resetHooked map[string]struct{}
	listenOnce  sync.Once
}

// New creates the module.
func New() *Module {
	return &Module{
		frames:      make(map[frameRef]struct{}),
		resetHooked: make(map[string]struct{}),
	}
}

func (m *Module) Name() string {
	return Name
}

// Configure declares the nodes of every enabled interface block and prunes
// the frames of blocks that were removed or disabled.
func (m *Module) Configure(ctx context.Context, host hardware.Host, cfg *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	reg := host.Registry

	m.mu.Lock()
	defer m.mu.Unlock()
	m.listenOnce.Do(func() { m.listen(reg) })

	var enabled []*config.Interface
	current := make(map[frameRef]struct{})
	for _, in := range cfg.Interfaces {
		if !in.Enabled {
			logger.Debug("Interface disabled, skipping.", "name", in.Name)
			continue
		}
		enabled = append(enabled, in)
		current[frameRef{object: in.Object, frame: in.Frame}] = struct{}{}
		m.declare(ctx, reg, in)
	}

	for ref := range m.frames {
		if _, ok := current[ref]; ok {
			continue
		}
		logger.Info("Interface frame removed, pruning its nodes.", "object", ref.object, "frame", ref.frame)
		reg.BeginDeclaration(ctx, ref.object, ref.frame)
		reg.Reconcile(ctx, ref.object, ref.frame)
		reg.RemoveReadListeners(ctx, ref.object, ref.frame)
	}

	m.frames = current
	m.interfaces = enabled
	logger.Info("Declarative interfaces configured.", "count", len(enabled))
	return nil
}

// declare runs one declaration pass for a block and writes its initial values.
func (m *Module) declare(ctx context.Context, reg *registry.Registry, in *config.Interface) {
	reg.BeginDeclaration(ctx, in.Object, in.Frame)
	for _, node := range in.Nodes {
		reg.DeclareNode(ctx, in.Object, in.Frame, node.Name, node.Type, position(node))
	}
	reg.Reconcile(ctx, in.Object, in.Frame)

	reg.RemoveReadListeners(ctx, in.Object, in.Frame)
	for _, node := range in.Nodes {
		writeInitial(ctx, reg, in, node)
		m.subscribe(ctx, reg, in, node)
	}
	if _, ok := m.resetHooked[in.Object]; !ok {
		m.resetHooked[in.Object] = struct{}{}
		object := in.Object
		reg.SubscribeReset(ctx, object, func(ctx context.Context, id objectid.ObjectID) {
			ctxlog.FromContext(ctx).Debug("Object reset, restoring initial values.", "object", object, "id", id)
			m.restore(ctx, reg, object)
		})
	}
}

// position is the configured placement of a new node, if any.
func position(node *config.Node) *registry.Position {
	if node.X == nil || node.Y == nil {
		return nil
	}
	return &registry.Position{X: *node.X, Y: *node.Y}
}

func writeInitial(ctx context.Context, reg *registry.Registry, in *config.Interface, node *config.Node) {
	if node.Value != nil {
		reg.WriteValue(ctx, in.Object, in.Frame, node.Name, *node.Value, unitOption(node))
	}
	keys := make([]string, 0, len(node.PublicData))
	for key := range node.PublicData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		reg.WritePublicData(ctx, in.Object, in.Frame, node.Name, key, node.PublicData[key])
	}
}

func unitOption(node *config.Node) registry.ValueOption {
	if node.Unit == "" && node.UnitMin == 0 && node.UnitMax == 0 {
		return registry.WithUnit("", 0, 1)
	}
	return registry.WithUnit(node.Unit, node.UnitMin, node.UnitMax)
}

// subscribe echoes routed values back onto the node and logs the rest.
func (m *Module) subscribe(ctx context.Context, reg *registry.Registry, in *config.Interface, node *config.Node) {
	object, frame, name := in.Object, in.Frame, node.Name

	reg.SubscribeValue(ctx, object, frame, name, func(ctx context.Context, data model.Data) {
		ctxlog.FromContext(ctx).Debug("Value received.", "object", object, "frame", frame, "node", name, "value", data.Value)
		opts := []registry.ValueOption{registry.WithUnit(data.Unit, data.UnitMin, data.UnitMax)}
		if data.Mode != "" {
			opts = append(opts, registry.WithMode(data.Mode))
		}
		reg.WriteValue(ctx, object, frame, name, data.Value, opts...)
	})
	reg.SubscribeConnection(ctx, object, frame, name, func(ctx context.Context, state any) {
		ctxlog.FromContext(ctx).Debug("Connection changed.", "object", object, "frame", frame, "node", name, "state", state)
	})
	for key := range node.PublicData {
		reg.SubscribePublicData(ctx, object, frame, name, key, func(ctx context.Context, value any) {
			ctxlog.FromContext(ctx).Debug("Public data received.", "object", object, "frame", frame, "node", name, "key", key, "value", value)
		})
	}
}

// listen hooks the global lifecycle. A global reset restores the configured
// initial values.
func (m *Module) listen(reg *registry.Registry) {
	reg.AddLifecycleListener(registry.LifecycleReset, func(ctx context.Context) error {
		m.restore(ctx, reg, "")
		return nil
	})
	reg.AddLifecycleListener(registry.LifecycleShutdown, func(ctx context.Context) error {
		ctxlog.FromContext(ctx).Debug("Declarative interfaces stopped.")
		return nil
	})
}

// restore writes the initial values of the enabled blocks of an object, or of
// every enabled block when object is empty.
func (m *Module) restore(ctx context.Context, reg *registry.Registry, object string) {
	m.mu.Lock()
	interfaces := slices.Clone(m.interfaces)
	m.mu.Unlock()
	for _, in := range interfaces {
		if object != "" && in.Object != object {
			continue
		}
		for _, node := range in.Nodes {
			writeInitial(ctx, reg, in, node)
		}
	}
}

// Run idles until ctx is done; the module only reacts to registry events.
func (m *Module) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
