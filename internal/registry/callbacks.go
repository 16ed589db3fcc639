package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// ValueFunc receives a node value delivered by the object engine.
type ValueFunc func(ctx context.Context, data model.Data)

// PublicDataFunc receives the value of the public data field it subscribed to.
type PublicDataFunc func(ctx context.Context, value any)

// ConnectionFunc receives the connection state of a node.
type ConnectionFunc func(ctx context.Context, state any)

// FrameAddedFunc is told about frames created for an object.
type FrameAddedFunc func(ctx context.Context, frame *model.Frame)

// ObjectResetFunc is told that an object was reset.
type ObjectResetFunc func(ctx context.Context, object objectid.ObjectID)

// LifecycleFunc runs on a global reset or shutdown.
type LifecycleFunc func(ctx context.Context) error

// StreamFunc receives broadcast stream payloads (matrix or UDP).
type StreamFunc func(ctx context.Context, payload any)

// LifecycleKind names a global lifecycle list.
type LifecycleKind string

const (
	LifecycleReset    LifecycleKind = "reset"
	LifecycleShutdown LifecycleKind = "shutdown"
)

type publicDataSub struct {
	key string
	fn  PublicDataFunc
}

// nodeSubs are the subscribers of a single node.
type nodeSubs struct {
	value      ValueFunc
	connection ConnectionFunc
	publicData []publicDataSub
}

type objectSub[F any] struct {
	object objectid.ObjectID
	fn     F
}

// callbackTree mirrors the live tree but holds subscribers. Entries may exist
// for nodes that were never declared.
type callbackTree struct {
	mu sync.Mutex

	nodes       map[objectid.FrameKey]map[objectid.NodeKey]*nodeSubs
	frameAdded  []objectSub[FrameAddedFunc]
	objectReset []objectSub[ObjectResetFunc]
	lifecycle   map[LifecycleKind][]LifecycleFunc
	matrix      []StreamFunc
	udp         []StreamFunc
}

func newCallbackTree() *callbackTree {
	return &callbackTree{
		nodes:     make(map[objectid.FrameKey]map[objectid.NodeKey]*nodeSubs),
		lifecycle: make(map[LifecycleKind][]LifecycleFunc),
	}
}

// vivifyLocked returns the subscriber entry of a node, creating it. t.mu must
// be held.
func (t *callbackTree) vivifyLocked(key objectid.NodeKey) *nodeSubs {
	frame, ok := t.nodes[key.FrameKey()]
	if !ok {
		frame = make(map[objectid.NodeKey]*nodeSubs)
		t.nodes[key.FrameKey()] = frame
	}
	subs, ok := frame[key]
	if !ok {
		subs = &nodeSubs{}
		frame[key] = subs
	}
	return subs
}

func (t *callbackTree) setValue(key objectid.NodeKey, fn ValueFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vivifyLocked(key).value = fn
}

func (t *callbackTree) setConnection(key objectid.NodeKey, fn ConnectionFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vivifyLocked(key).connection = fn
}

func (t *callbackTree) addPublicData(key objectid.NodeKey, field string, fn PublicDataFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.vivifyLocked(key)
	subs.publicData = append(subs.publicData, publicDataSub{key: field, fn: fn})
}

// node returns a copy of the subscribers of a node.
func (t *callbackTree) node(key objectid.NodeKey) (nodeSubs, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs, ok := t.nodes[key.FrameKey()][key]
	if !ok {
		return nodeSubs{}, false
	}
	return nodeSubs{
		value:      subs.value,
		connection: subs.connection,
		publicData: slices.Clone(subs.publicData),
	}, true
}

func (t *callbackTree) dropFrame(key objectid.FrameKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nodes, key)
}

func (t *callbackTree) addFrameAdded(object objectid.ObjectID, fn FrameAddedFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frameAdded = append(t.frameAdded, objectSub[FrameAddedFunc]{object: object, fn: fn})
}

func (t *callbackTree) addObjectReset(object objectid.ObjectID, fn ObjectResetFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objectReset = append(t.objectReset, objectSub[ObjectResetFunc]{object: object, fn: fn})
}

func (t *callbackTree) frameAddedFor(object objectid.ObjectID) []FrameAddedFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	return matching(t.frameAdded, object)
}

func (t *callbackTree) objectResetFor(object objectid.ObjectID) []ObjectResetFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	return matching(t.objectReset, object)
}

func matching[F any](subs []objectSub[F], object objectid.ObjectID) []F {
	var out []F
	for _, sub := range subs {
		if sub.object == object {
			out = append(out, sub.fn)
		}
	}
	return out
}

func (t *callbackTree) addLifecycle(kind LifecycleKind, fn LifecycleFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lifecycle[kind] = append(t.lifecycle[kind], fn)
}

func (t *callbackTree) lifecycleFor(kind LifecycleKind) []LifecycleFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.lifecycle[kind])
}

func (t *callbackTree) addStream(list *[]StreamFunc, fn StreamFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	*list = append(*list, fn)
}

func (t *callbackTree) stream(list *[]StreamFunc) []StreamFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(*list)
}
