package objectid

// ObjectID is the globally unique identifier of an object. It is the object
// name followed by a 12 character random suffix.
type ObjectID string

// FrameKey addresses a frame inside an object.
type FrameKey struct {
	Object ObjectID
	Frame  string
}

// NodeKey addresses a node inside a frame.
type NodeKey struct {
	Object ObjectID
	Frame  string
	Node   string
}

// NewFrameKey derives the key of frameName within object.
func NewFrameKey(object ObjectID, frameName string) FrameKey {
	return FrameKey{Object: object, Frame: frameName}
}

// NewNodeKey derives the key of nodeName within frameName of object.
func NewNodeKey(object ObjectID, frameName, nodeName string) NodeKey {
	return NodeKey{Object: object, Frame: frameName, Node: nodeName}
}

// FrameKey returns the key of the frame that owns the node.
func (k NodeKey) FrameKey() FrameKey {
	return FrameKey{Object: k.Object, Frame: k.Frame}
}
