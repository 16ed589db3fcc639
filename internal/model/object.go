// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
package model

import "github.com/vk/realityserver/internal/objectid"

// TargetSize is the physical size of an object's marker.
type TargetSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Object is the live record of an AR object.
type Object struct {
	ID          objectid.ObjectID `json:"objectId"`
	Name        string            `json:"name"`
	Developer   bool              `json:"developer"`
	Deactivated bool              `json:"deactivated"`
	TargetSize  *TargetSize       `json:"targetSize,omitempty"`

	Frames map[objectid.FrameKey]*Frame `json:"-"`
}

// NewObject creates an empty object record.
func NewObject(id objectid.ObjectID, name string) *Object {
	return &Object{
		ID:     id,
		Name:   name,
		Frames: make(map[objectid.FrameKey]*Frame),
	}
}

// FramesByID returns the frames keyed by their wire id.
func (o *Object) FramesByID() map[string]*Frame {
	out := make(map[string]*Frame, len(o.Frames))
	for key, frame := range o.Frames {
		out[key.String()] = frame
	}
	return out
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	c := *o
	if o.TargetSize != nil {
		ts := *o.TargetSize
		c.TargetSize = &ts
	}
	c.Frames = make(map[objectid.FrameKey]*Frame, len(o.Frames))
	for key, frame := range o.Frames {
		c.Frames[key] = frame.Clone()
	}
	return &c
}
