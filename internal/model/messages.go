// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
package model

// TouchState is the phase of the gesture carried by a screenObject message.
type TouchState string

const (
	TouchNone  TouchState = ""
	TouchStart TouchState = "touchstart"
	TouchMove  TouchState = "touchmove"
	TouchEnd   TouchState = "touchend"
)

// ParseTouchState accepts both the wire names and the short forms.
func ParseTouchState(s string) TouchState {
	switch s {
	case "touchstart", "start":
		return TouchStart
	case "touchmove", "move":
		return TouchMove
	case "touchend", "end":
		return TouchEnd
	default:
		return TouchNone
	}
}

// TargetScreen restricts a message to the screens whose object id contains Object.
type TargetScreen struct {
	Object string `json:"object"`
}

// Touch is one finger of a multi-touch gesture. Coordinates arrive untyped
// and are only usable when both are numbers.
type Touch struct {
	X any `json:"x"`
	Y any `json:"y"`
}

// Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// Point returns the touch coordinates if both are numeric.
func (t Touch) Point() (Point, bool) {
	x, okX := t.X.(float64)
	y, okY := t.Y.(float64)
	if !okX || !okY {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

// ScreenObjectMessage is the projected touch event pushed to a screen.
type ScreenObjectMessage struct {
	Object          string        `json:"object"`
	Frame           string        `json:"frame"`
	X               float64       `json:"x"`
	Y               float64       `json:"y"`
	TouchState      string        `json:"touchState"`
	TouchOffsetX    float64       `json:"touchOffsetX"`
	TouchOffsetY    float64       `json:"touchOffsetY"`
	Scale           float64       `json:"scale"`
	IsScreenVisible bool          `json:"isScreenVisible"`
	Touches         []Touch       `json:"touches"`
	TargetScreen    *TargetScreen `json:"targetScreen,omitempty"`
}

// ObjectNameMessage tells a screen which object it displays.
type ObjectNameMessage struct {
	ObjectName   string        `json:"objectName"`
	TargetScreen *TargetScreen `json:"targetScreen,omitempty"`
}

// TargetSizeMessage tells a screen the marker size of its object.
type TargetSizeMessage struct {
	TargetSize   TargetSize    `json:"targetSize"`
	TargetScreen *TargetScreen `json:"targetScreen,omitempty"`
}

// NewFrameAddedMessage announces a frame created in AR.
type NewFrameAddedMessage struct {
	Frame        *Frame        `json:"frame"`
	TargetScreen *TargetScreen `json:"targetScreen,omitempty"`
}

// OutboundTouch is what a screen driver forwards back toward the editors once
// its identifiers are resolved.
type OutboundTouch struct {
	Object       string  `json:"object"`
	Frame        string  `json:"frame"`
	Node         string  `json:"node"`
	TouchOffsetX float64 `json:"touchOffsetX"`
	TouchOffsetY float64 `json:"touchOffsetY"`
}

// ScreenPoseUpdate is the body of the pose POST a screen sends to
// /object/<objectId>/frame/<frameId>/size/.
type ScreenPoseUpdate struct {
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	Scale              float64 `json:"scale"`
	ScaleARFactor      float64 `json:"scaleARFactor"`
	IgnoreActionSender bool    `json:"ignoreActionSender"`
}
