// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
package model

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/vk/realityserver/internal/objectid"
)

// Visualization selects where a frame renders.
type Visualization string

const (
	VisualizationAR     Visualization = "ar"
	VisualizationScreen Visualization = "screen"
)

// Location tells whether node names are exposed to hardware interfaces.
type Location string

const (
	LocationLocal  Location = "local"
	LocationGlobal Location = "global"
)

// ARPose positions a frame relative to its marker in 3D space.
type ARPose struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Scale  float64   `json:"scale"`
	Matrix []float64 `json:"matrix"`
}

// ScreenPose positions a frame on a companion screen.
type ScreenPose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Link is opaque to the registry; the object engine owns its shape.
type Link map[string]any

// Frame is the live record of a frame.
type Frame struct {
	ObjectID       objectid.ObjectID `json:"objectId"`
	Name           string            `json:"name"`
	Visualization  Visualization     `json:"visualization"`
	AR             ARPose            `json:"ar"`
	Screen         ScreenPose        `json:"screen"`
	Width          float64           `json:"width,omitempty"`
	Height         float64           `json:"height,omitempty"`
	Visible        bool              `json:"visible"`
	VisibleText    bool              `json:"visibleText"`
	VisibleEditing bool              `json:"visibleEditing"`
	Location       Location          `json:"location"`
	Src            string            `json:"src"`
	Links          map[string]Link   `json:"links"`

	Nodes map[objectid.NodeKey]*Node `json:"-"`
}

// NewFrame creates a frame in AR visualization with unit scale.
func NewFrame(object objectid.ObjectID, name string) *Frame {
	return &Frame{
		ObjectID:      object,
		Name:          name,
		Visualization: VisualizationAR,
		AR:            ARPose{Scale: 1, Matrix: []float64{}},
		Screen:        ScreenPose{Scale: 1},
		Location:      LocationLocal,
		Src:           "editor",
		Links:         make(map[string]Link),
		Nodes:         make(map[objectid.NodeKey]*Node),
	}
}

// Key returns the structured key of the frame.
func (f *Frame) Key() objectid.FrameKey {
	return objectid.NewFrameKey(f.ObjectID, f.Name)
}

// MarshalJSON renders nodes keyed by their wire id.
func (f *Frame) MarshalJSON() ([]byte, error) {
	type alias Frame
	nodes := make(map[string]*Node, len(f.Nodes))
	for key, node := range f.Nodes {
		nodes[key.String()] = node
	}
	return json.Marshal(struct {
		*alias
		Nodes map[string]*Node `json:"nodes"`
	}{alias: (*alias)(f), Nodes: nodes})
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := *f
	c.AR.Matrix = slices.Clone(f.AR.Matrix)
	c.Links = make(map[string]Link, len(f.Links))
	for id, link := range f.Links {
		c.Links[id] = maps.Clone(link)
	}
	c.Nodes = make(map[objectid.NodeKey]*Node, len(f.Nodes))
	for key, node := range f.Nodes {
		c.Nodes[key] = node.Clone()
	}
	return &c
}
