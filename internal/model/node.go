// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
package model

import (
	"maps"

	"github.com/vk/realityserver/internal/objectid"
)

// TypeLogic marks nodes owned by the logic-block subsystem.
const TypeLogic = "logic"

// Data is the value carried by a node.
type Data struct {
	Value   float64 `json:"value"`
	Mode    string  `json:"mode"`
	Unit    string  `json:"unit"`
	UnitMin float64 `json:"unitMin"`
	UnitMax float64 `json:"unitMax"`
}

// DefaultData is the data of a freshly created node.
func DefaultData() Data {
	return Data{Mode: "f", UnitMin: 0, UnitMax: 1}
}

// Node is the live record of an IO point.
type Node struct {
	ObjectID   objectid.ObjectID `json:"objectId"`
	FrameID    string            `json:"frameId"`
	Name       string            `json:"name"`
	Text       string            `json:"text,omitempty"`
	Type       string            `json:"type"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	FrameSizeX float64           `json:"frameSizeX"`
	FrameSizeY float64           `json:"frameSizeY"`
	Data       Data              `json:"data"`
	PublicData map[string]any    `json:"publicData"`

	// Frame is set when the node mirrors a node of another frame; such nodes
	// belong to that frame and are left alone by resets.
	Frame string `json:"frame,omitempty"`
}

// NewNode creates an empty node record.
func NewNode() *Node {
	return &Node{
		Data:       DefaultData(),
		PublicData: make(map[string]any),
	}
}

// DisplayName is the renamed alias of the node, or its name.
func (n *Node) DisplayName() string {
	if n.Text != "" {
		return n.Text
	}
	return n.Name
}

// OwnedElsewhere reports whether the node belongs to another subsystem.
func (n *Node) OwnedElsewhere() bool {
	return n.Type == TypeLogic || n.Frame != ""
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.PublicData = maps.Clone(n.PublicData)
	if c.PublicData == nil {
		c.PublicData = make(map[string]any)
	}
	return &c
}
