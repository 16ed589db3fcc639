package registry

import (
	"context"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/objectid"
)

// Reconcile removes every node of the frame that the last declaration pass
// did not declare. Logic nodes and nodes owned by another frame are kept. A
// frame that was never declared is left alone.
func (r *Registry) Reconcile(ctx context.Context, objectName, frameName string) {
	id, ok := r.resolver.Resolve(objectName)
	if !ok {
		return
	}
	r.mu.Lock()
	pruned := r.reconcileLocked(objectid.NewFrameKey(id, frameName), objectName, frameName)
	r.mu.Unlock()

	if len(pruned) > 0 {
		prunedNodesTotal.Add(float64(len(pruned)))
		ctxlog.FromContext(ctx).Debug("Undeclared nodes pruned.", "object", objectName, "frame", frameName, "nodes", pruned)
	}
}

// reconcileLocked returns the names of the pruned nodes. r.mu must be held.
func (r *Registry) reconcileLocked(key objectid.FrameKey, objectName, frameName string) []string {
	ref, ok := r.frameByKeyLocked(key)
	if !ok {
		return nil
	}
	declared, ok := r.declared.frame(objectName, frameName)
	if !ok {
		return nil
	}
	var pruned []string
	for nodeKey, node := range ref.frame.Nodes {
		if node.OwnedElsewhere() || declared.has(nodeKey.Node) {
			continue
		}
		delete(ref.frame.Nodes, nodeKey)
		pruned = append(pruned, nodeKey.Node)
	}
	return pruned
}

type liveNode struct {
	object   objectid.ObjectID
	name     string
	frame    string
	node     string
	nodeType string
}

// ResetAll re-declares every live node that belongs to a driver, reconciles
// each frame and then runs the global reset listeners.
func (r *Registry) ResetAll(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	var nodes []liveNode
	frames := make(map[objectid.FrameKey][2]string)
	for id, object := range r.objects {
		for frameKey, frame := range object.Frames {
			frames[frameKey] = [2]string{object.Name, frame.Name}
			for _, node := range frame.Nodes {
				if node.OwnedElsewhere() {
					continue
				}
				nodes = append(nodes, liveNode{
					object:   id,
					name:     object.Name,
					frame:    frame.Name,
					node:     node.Name,
					nodeType: node.Type,
				})
			}
		}
	}
	r.mu.Unlock()

	for _, n := range nodes {
		r.declare(ctx, n.object, n.name, n.frame, n.node, n.nodeType, nil)
	}

	pruned := 0
	r.mu.Lock()
	for key, names := range frames {
		pruned += len(r.reconcileLocked(key, names[0], names[1]))
	}
	r.mu.Unlock()
	prunedNodesTotal.Add(float64(pruned))

	logger.Info("Registry reset.", "redeclared", len(nodes), "pruned", pruned)
	r.RunGlobalReset(ctx)
}
