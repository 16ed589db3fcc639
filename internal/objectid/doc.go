/*
Package objectid resolves human-readable object names to globally unique
object identifiers and derives the composite keys used to address frames and
nodes.

Frames and nodes are addressed with structured tuple keys (FrameKey, NodeKey)
rather than concatenated strings, so two different (frame, node) name pairs
can never collide inside a map. The legacy concatenated form
(`objectId + frameName + nodeName`) is still produced by String() because it
is what travels over the wire, and the Parse helpers accept it back.
*/
package objectid
