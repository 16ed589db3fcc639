package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

const lampID = objectid.ObjectID("lampAbC123xyz789")

// recorder captures the host callbacks.
type recorder struct {
	mu         sync.Mutex
	values     []ValueChange
	publicData []objectid.NodeKey
	actions    []model.Action
	persisted  []objectid.ObjectID
}

func (rec *recorder) callbacks() Callbacks {
	return Callbacks{
		OnValueChanged: func(_ context.Context, change ValueChange) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.values = append(rec.values, change)
		},
		OnPublicDataChanged: func(_ context.Context, node objectid.NodeKey) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.publicData = append(rec.publicData, node)
		},
		OnAction: func(_ context.Context, action model.Action) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.actions = append(rec.actions, action)
		},
		OnPersist: func(_ context.Context, object objectid.ObjectID) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.persisted = append(rec.persisted, object)
		},
	}
}

// newTestRegistry returns a registry that knows the "lamp" object and places
// new nodes deterministically.
func newTestRegistry(t *testing.T) (*Registry, *recorder) {
	t.Helper()
	rec := &recorder{}
	next := 0
	r := New(Options{
		Resolver:  objectid.NewResolver(map[string]objectid.ObjectID{"lamp": lampID}),
		Settings:  Settings{Developer: true},
		Callbacks: rec.callbacks(),
		RandIntN: func(n int) int {
			next = (next + 37) % n
			return next
		},
	})
	return r, rec
}

func nodeKey(frame, node string) objectid.NodeKey {
	return objectid.NewNodeKey(lampID, frame, node)
}

// mustNode returns a copy of a node in the live tree.
func mustNode(t *testing.T, r *Registry, frame, node string) *model.Node {
	t.Helper()
	nodes := r.Nodes("lamp", frame)
	n, ok := nodes[nodeKey(frame, node).String()]
	if !ok {
		t.Fatalf("node %s/%s not found", frame, node)
	}
	return n
}
