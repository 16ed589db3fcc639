package objectid

import "strings"

// String renders the wire form of the frame id: objectId + frameName.
func (k FrameKey) String() string {
	return string(k.Object) + k.Frame
}

// String renders the wire form of the node id: objectId + frameName + nodeName.
func (k NodeKey) String() string {
	return string(k.Object) + k.Frame + k.Node
}

// IsZero reports whether the key has no object.
func (k FrameKey) IsZero() bool {
	return k.Object == ""
}

// ParseFrameID turns either a frame name or an already derived frame id into
// a FrameKey. Feeding the result's String() back in yields the same key, which
// keeps repeated normalization idempotent.
//
// A frame whose name itself starts with the object id is ambiguous in the wire
// form; the prefix is always treated as the object id.
func ParseFrameID(object ObjectID, raw string) FrameKey {
	if object != "" && strings.HasPrefix(raw, string(object)) {
		return FrameKey{Object: object, Frame: strings.TrimPrefix(raw, string(object))}
	}
	return FrameKey{Object: object, Frame: raw}
}

// ParseNodeID turns either a node name or an already derived node id into a
// NodeKey within frame.
func ParseNodeID(frame FrameKey, raw string) NodeKey {
	prefix := frame.String()
	if frame.Object != "" && strings.HasPrefix(raw, prefix) {
		return NodeKey{Object: frame.Object, Frame: frame.Frame, Node: strings.TrimPrefix(raw, prefix)}
	}
	return NodeKey{Object: frame.Object, Frame: frame.Frame, Node: raw}
}
