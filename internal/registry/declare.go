package registry

import (
	"context"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// defaultFrameSize is the width and height given to a new node.
const defaultFrameSize = 100

// Position places a node inside its frame.
type Position struct {
	X float64
	Y float64
}

// DeclareNode makes sure the node exists, creating the object and frame
// records on demand, and records the declaration in the shadow tree.
//
// A new node is placed at position, or at a random point in [-100,100]² when
// position is nil. Declaring an existing node refreshes its type and resets
// its alias, but never moves it.
func (r *Registry) DeclareNode(ctx context.Context, objectName, frameName, nodeName, nodeType string, position *Position) {
	if objectName == "" {
		ctxlog.FromContext(ctx).Debug("Declaration without object name ignored.", "frame", frameName, "node", nodeName)
		return
	}
	id := r.resolver.Ensure(objectName)
	r.declare(ctx, id, objectName, frameName, nodeName, nodeType, position)
}

// declare is DeclareNode with the object id already resolved.
func (r *Registry) declare(ctx context.Context, id objectid.ObjectID, objectName, frameName, nodeName, nodeType string, position *Position) {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	object, ok := r.objects[id]
	if !ok {
		object = model.NewObject(id, objectName)
		r.objects[id] = object
	}
	object.Developer = r.settings.Developer
	object.Name = objectName

	frameKey := objectid.NewFrameKey(id, frameName)
	frame, ok := object.Frames[frameKey]
	if !ok {
		frame = model.NewFrame(id, frameName)
		object.Frames[frameKey] = frame
	}
	if frame.Nodes == nil {
		frame.Nodes = make(map[objectid.NodeKey]*model.Node)
	}
	frame.Name = frameName
	frame.ObjectID = id
	location := frame.Location

	nodeKey := objectid.NewNodeKey(id, frameName, nodeName)
	node, exists := frame.Nodes[nodeKey]
	if !exists {
		node = r.newNode()
		node.X = float64(r.randIntN(201) - 100)
		node.Y = float64(r.randIntN(201) - 100)
		if position != nil {
			node.X = position.X
			node.Y = position.Y
		}
		node.FrameSizeX = defaultFrameSize
		node.FrameSizeY = defaultFrameSize
		if node.PublicData == nil {
			node.PublicData = make(map[string]any)
		}
		frame.Nodes[nodeKey] = node
	}
	node.Name = nodeName
	node.FrameID = frameKey.String()
	node.ObjectID = id
	node.Text = ""
	node.Type = nodeType

	r.declared.record(objectName, frameName, nodeName, nodeType)
	r.mu.Unlock()

	declarationsTotal.Inc()
	logger.Debug("Node declared.", "object", objectName, "frame", frameName, "node", nodeName, "type", nodeType, "new", !exists)

	if r.folders != nil {
		if err := r.folders.CreateFrameFolder(objectName, frameName, location); err != nil {
			logger.Warn("Failed to create frame folder.", "object", objectName, "frame", frameName, "error", err)
		}
	}
}

// BeginDeclaration forgets every declaration of the frame. A driver calls it
// before re-declaring the nodes it still wants, then calls Reconcile.
func (r *Registry) BeginDeclaration(ctx context.Context, objectName, frameName string) {
	r.mu.Lock()
	r.declared.clear(objectName, frameName)
	r.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Declaration pass started.", "object", objectName, "frame", frameName)
}
