package visualization

import (
	"context"
	"time"

	"github.com/vk/realityserver/internal/model"
)

// PointerKind is the type of a replayed pointer event.
type PointerKind string

const (
	PointerDown PointerKind = "pointerdown"
	PointerMove PointerKind = "pointermove"
	PointerUp   PointerKind = "pointerup"
)

// Renderer draws the screen. Its methods are called with the machine locked
// and must not call back into the Machine.
type Renderer interface {
	ShowObject(objectName string)
	RenderFrames(frames map[string]*model.Frame)
	BeginEditing(objectID, frameID string, touchOffset model.Point)
	EndEditing()
	Pointer(kind PointerKind, at model.Point)
	ScaleFrame(frameID string, scale float64)
	ResetFrames()
}

// PosePoster sends the screen pose of a frame back to the server.
type PosePoster interface {
	PostPose(ctx context.Context, objectID, frameID string, update model.ScreenPoseUpdate)
}

// Options configure a Machine.
type Options struct {
	// ObjectName is the identity of this screen until an objectName event
	// replaces it.
	ObjectName string

	// ScreenWidth and ScreenHeight, in pixels, scale normalized touch
	// coordinates. When either is zero, coordinates are used as is.
	ScreenWidth  float64
	ScreenHeight float64

	// PhysicalWidth is the width of the display in the units of the marker
	// size. Together with the marker width it gives the ratio between AR
	// scale and screen scale. Zero means a ratio of 1.
	PhysicalWidth float64

	// Project maps a touch to screen pixels. Overrides ScreenWidth and
	// ScreenHeight.
	Project func(x, y float64) model.Point

	Renderer Renderer
	Poster   PosePoster

	// Now is the clock used to detect triple taps.
	Now func() time.Time
}

// nopRenderer is used when no renderer is configured.
type nopRenderer struct{}

func (nopRenderer) ShowObject(string) {}
func (nopRenderer) RenderFrames(map[string]*model.Frame) {}
func (nopRenderer) BeginEditing(string, string, model.Point) {}
func (nopRenderer) EndEditing() {}
func (nopRenderer) Pointer(PointerKind, model.Point) {}
func (nopRenderer) ScaleFrame(string, float64) {}
func (nopRenderer) ResetFrames() {}

type nopPoster struct{}

func (nopPoster) PostPose(context.Context, string, string, model.ScreenPoseUpdate) {}
