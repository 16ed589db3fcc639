package main

import (
	"log/slog"

	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/visualization"
)

// touchSink receives the touches made on frames shown by the screen.
type touchSink interface {
	EmitTouch(touch model.OutboundTouch)
}

// logRenderer stands in for a display: it logs what would be drawn and tells
// the server which frame the user picked up.
type logRenderer struct {
	logger *slog.Logger
	sink   touchSink
}

func newLogRenderer(logger *slog.Logger, sink touchSink) *logRenderer {
	return &logRenderer{logger: logger.With("component", "renderer"), sink: sink}
}

func (r *logRenderer) ShowObject(objectName string) {
	r.logger.Info("Showing object.", "object", objectName)
}

func (r *logRenderer) RenderFrames(frames map[string]*model.Frame) {
	onScreen := 0
	for _, frame := range frames {
		if frame.Visualization == model.VisualizationScreen {
			onScreen++
		}
	}
	r.logger.Info("Frames rendered.", "frames", len(frames), "on_screen", onScreen)
}

func (r *logRenderer) BeginEditing(objectID, frameID string, touchOffset model.Point) {
	r.logger.Debug("Editing frame.", "object", objectID, "frame", frameID)
	r.sink.EmitTouch(model.OutboundTouch{
		Object:       objectID,
		Frame:        frameID,
		TouchOffsetX: touchOffset.X,
		TouchOffsetY: touchOffset.Y,
	})
}

func (r *logRenderer) EndEditing() {
	r.logger.Debug("Editing finished.")
}

func (r *logRenderer) Pointer(kind visualization.PointerKind, at model.Point) {
	r.logger.Debug("Pointer.", "kind", kind, "x", at.X, "y", at.Y)
}

func (r *logRenderer) ScaleFrame(frameID string, scale float64) {
	r.logger.Debug("Frame scaled.", "frame", frameID, "scale", scale)
}

func (r *logRenderer) ResetFrames() {
	r.logger.Info("Frames reset.")
}
