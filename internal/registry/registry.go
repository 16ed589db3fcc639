package registry

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// Settings is the global configuration record shared with drivers.
type Settings struct {
	Developer bool
	Debug     bool
}

// Plugins is a table of node-type or logic-block modules. Its values are
// opaque to the registry and handed through to the object engine.
type Plugins map[string]any

// ValueChange is delivered to the object engine after a node value is written.
type ValueChange struct {
	Node      objectid.NodeKey
	Data      model.Data
	Objects   map[objectid.ObjectID]*model.Object
	NodeTypes Plugins
}

// Callbacks are the host-supplied sinks for registry events.
type Callbacks struct {
	OnValueChanged      func(ctx context.Context, change ValueChange)
	OnPublicDataChanged func(ctx context.Context, node objectid.NodeKey)
	OnAction            func(ctx context.Context, action model.Action)
	OnPersist           func(ctx context.Context, object objectid.ObjectID)
}

// FrameFolders creates the on-disk folder of a frame. Storage layout belongs
// to the host; the registry only tells it when a frame is declared.
type FrameFolders interface {
	CreateFrameFolder(objectName, frameName string, location model.Location) error
}

// Options configure a Registry. Only Resolver is required.
type Options struct {
	Resolver    *objectid.Resolver
	Settings    Settings
	ObjectsPath string
	NodeTypes   Plugins
	LogicBlocks Plugins
	NewNode     func() *model.Node
	Callbacks   Callbacks
	Folders     FrameFolders

	// RandIntN returns a value in [0, n). Used to scatter new nodes.
	RandIntN func(n int) int
}

// Registry is the facade over the live tree, the declaration shadow and the
// callback tree. It is constructed once per host process.
type Registry struct {
	resolver    *objectid.Resolver
	objectsPath string
	nodeTypes   Plugins
	logicBlocks Plugins
	newNode     func() *model.Node
	callbacks   Callbacks
	folders     FrameFolders
	randIntN    func(n int) int

	mu       sync.Mutex
	settings Settings
	objects  map[objectid.ObjectID]*model.Object
	declared declarations

	subs *callbackTree
}

// New creates a Registry.
func New(opts Options) *Registry {
	if opts.Resolver == nil {
		panic("registry: Options.Resolver is required")
	}
	r := &Registry{
		resolver:    opts.Resolver,
		objectsPath: opts.ObjectsPath,
		nodeTypes:   opts.NodeTypes,
		logicBlocks: opts.LogicBlocks,
		newNode:     opts.NewNode,
		callbacks:   opts.Callbacks,
		folders:     opts.Folders,
		randIntN:    opts.RandIntN,
		settings:    opts.Settings,
		objects:     make(map[objectid.ObjectID]*model.Object),
		declared:    make(declarations),
		subs:        newCallbackTree(),
	}
	if r.newNode == nil {
		r.newNode = model.NewNode
	}
	if r.randIntN == nil {
		r.randIntN = rand.IntN
	}
	if r.nodeTypes == nil {
		r.nodeTypes = Plugins{}
	}
	if r.logicBlocks == nil {
		r.logicBlocks = Plugins{}
	}
	return r
}

// Resolver returns the name to id table shared with the host.
func (r *Registry) Resolver() *objectid.Resolver {
	return r.resolver
}

// ObjectsPath is the filesystem root objects are stored under.
func (r *Registry) ObjectsPath() string {
	return r.objectsPath
}

// NodeTypes returns the node-type module table.
func (r *Registry) NodeTypes() Plugins {
	return r.nodeTypes
}

// LogicBlocks returns the logic-block module table.
func (r *Registry) LogicBlocks() Plugins {
	return r.logicBlocks
}

// AddObject installs an object record loaded by the host, replacing any
// record with the same id, and binds its name in the resolver.
func (r *Registry) AddObject(object *model.Object) {
	if object == nil || object.ID == "" {
		return
	}
	clone := object.Clone()
	r.mu.Lock()
	r.objects[clone.ID] = clone
	r.mu.Unlock()
	if clone.Name != "" {
		r.resolver.Register(clone.Name, clone.ID)
	}
}
