package visualization

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
)

// editing is the frame currently dragged on the screen.
type editing struct {
	objectID    string
	frameID     string
	touchOffset model.Point
}

// pinch tracks a two-finger scale gesture.
type pinch struct {
	distance float64
	scale    float64
}

// Machine is the per-screen visualization state. Events are applied one at a
// time in arrival order.
type Machine struct {
	renderer      Renderer
	poster        PosePoster
	project       func(x, y float64) model.Point
	physicalWidth float64

	mu         sync.Mutex
	objectName string
	targetSize *model.TargetSize
	scaleRatio float64
	frames     map[string]*model.Frame
	editing    *editing
	pinch      *pinch
	pointer    model.Point
	gesture    bool
	taps       *tapDetector
}

// New creates a Machine.
func New(opts Options) *Machine {
	m := &Machine{
		renderer:      opts.Renderer,
		poster:        opts.Poster,
		project:       opts.Project,
		physicalWidth: opts.PhysicalWidth,
		objectName:    opts.ObjectName,
		scaleRatio:    1,
		frames:        make(map[string]*model.Frame),
		taps:          newTapDetector(opts.Now),
	}
	if m.renderer == nil {
		m.renderer = nopRenderer{}
	}
	if m.poster == nil {
		m.poster = nopPoster{}
	}
	if m.project == nil {
		w, h := opts.ScreenWidth, opts.ScreenHeight
		m.project = func(x, y float64) model.Point {
			if w > 0 && h > 0 {
				return model.Point{X: x * w, Y: y * h}
			}
			return model.Point{X: x, Y: y}
		}
	}
	return m
}

// ObjectName is the identity of this screen.
func (m *Machine) ObjectName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objectName
}

// ScaleRatio is the factor between AR scale and screen scale.
func (m *Machine) ScaleRatio() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scaleRatio
}

// Frame returns a copy of a frame known to the screen.
func (m *Machine) Frame(frameID string) (*model.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	frame, ok := m.frames[frameID]
	if !ok {
		return nil, false
	}
	return frame.Clone(), true
}

// Editing returns the frame being dragged and its touch offset.
func (m *Machine) Editing() (frameID string, touchOffset model.Point, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing == nil {
		return "", model.Point{}, false
	}
	return m.editing.frameID, m.editing.touchOffset, true
}

// forMeLocked reports whether a message addressed to target concerns this
// screen. m.mu must be held.
func (m *Machine) forMeLocked(ctx context.Context, target *model.TargetScreen) bool {
	if target == nil {
		return true
	}
	if strings.Contains(target.Object, m.objectName) {
		return true
	}
	droppedTotal.Inc()
	ctxlog.FromContext(ctx).Debug("Message is for another screen.", "screen", m.objectName, "target", target.Object)
	return false
}

// HandleObjectName sets the identity of the screen.
func (m *Machine) HandleObjectName(ctx context.Context, msg model.ObjectNameMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.forMeLocked(ctx, msg.TargetScreen) {
		return
	}
	m.objectName = msg.ObjectName
	m.renderer.ShowObject(msg.ObjectName)
}

// HandleTargetSize records the marker size and recomputes the scale ratio.
func (m *Machine) HandleTargetSize(ctx context.Context, msg model.TargetSizeMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.forMeLocked(ctx, msg.TargetScreen) {
		return
	}
	size := msg.TargetSize
	m.targetSize = &size
	m.scaleRatio = 1
	if m.physicalWidth > 0 && size.Width > 0 {
		m.scaleRatio = m.physicalWidth / size.Width
	}
	ctxlog.FromContext(ctx).Debug("Target size received.", "width", size.Width, "height", size.Height, "ratio", m.scaleRatio)
}

// HandleFramesForScreen replaces the frames known to the screen.
func (m *Machine) HandleFramesForScreen(ctx context.Context, frames map[string]*model.Frame, target *model.TargetScreen) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.forMeLocked(ctx, target) {
		return
	}
	m.frames = make(map[string]*model.Frame, len(frames))
	for id, frame := range frames {
		if frame != nil {
			m.frames[id] = frame
		}
	}
	if m.editing != nil {
		if _, ok := m.frames[m.editing.frameID]; !ok {
			m.editing = nil
		}
	}
	m.renderer.RenderFrames(m.framesLocked())
}

// HandleNewFrameAdded adds a frame created in AR.
func (m *Machine) HandleNewFrameAdded(ctx context.Context, msg model.NewFrameAddedMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.forMeLocked(ctx, msg.TargetScreen) || msg.Frame == nil {
		return
	}
	frame := msg.Frame
	frameID := frame.Key().String()
	frame.Screen.Scale = frame.AR.Scale * m.scaleRatio
	m.frames[frameID] = frame
	ctxlog.FromContext(ctx).Debug("Frame added.", "frame", frameID)
}

// HandleScreenObject applies a projected touch. It first moves the frame
// between AR and the screen when its visibility flag changed, then replays
// the touch as pointer events.
func (m *Machine) HandleScreenObject(ctx context.Context, msg model.ScreenObjectMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.forMeLocked(ctx, msg.TargetScreen) {
		return
	}

	var touches []model.Point
	for _, touch := range msg.Touches {
		if p, ok := touch.Point(); ok {
			touches = append(touches, p)
		}
	}
	at := m.project(msg.X, msg.Y)

	changed := m.updateVisualizationLocked(ctx, msg)
	if changed && m.editing != nil {
		m.pointerLocked(PointerMove, at)
		m.postPoseLocked(ctx, m.editing.objectID, m.editing.frameID)
	}

	switch model.ParseTouchState(msg.TouchState) {
	case model.TouchStart:
		if m.gesture {
			ctxlog.FromContext(ctx).Debug("Previous gesture never ended, releasing it.")
			m.pointerLocked(PointerUp, m.pointer)
		}
		if m.taps.tap() {
			m.resetFramesLocked(ctx)
		}
		m.pointerLocked(PointerDown, at)
		m.gesture = true
	case model.TouchMove:
		m.pointerLocked(PointerMove, at)
		if len(touches) > 1 {
			m.scaleLocked(at, m.project(touches[1].X, touches[1].Y))
		}
	case model.TouchEnd:
		m.pointerLocked(PointerUp, at)
		m.gesture = false
		m.pinch = nil
		if m.editing != nil {
			m.postPoseLocked(ctx, m.editing.objectID, m.editing.frameID)
		}
	}
}

// updateVisualizationLocked applies the visibility flag of msg to its frame
// and reports whether the frame changed mode. m.mu must be held.
func (m *Machine) updateVisualizationLocked(ctx context.Context, msg model.ScreenObjectMessage) bool {
	if msg.Object == "" || msg.Frame == "" {
		return false
	}
	frame, ok := m.frames[msg.Frame]
	if !ok {
		return false
	}
	previous := frame.Visualization
	frame.Visualization = model.VisualizationAR
	if msg.IsScreenVisible {
		frame.Visualization = model.VisualizationScreen
	}

	switch {
	case frame.Visualization == model.VisualizationScreen && previous != model.VisualizationScreen:
		frame.AR.Scale = msg.Scale
		frame.Screen.Scale = msg.Scale * m.scaleRatio
		offset := model.Point{
			X: -msg.TouchOffsetX * frame.Width * frame.Screen.Scale,
			Y: -msg.TouchOffsetY * frame.Height * frame.Screen.Scale,
		}
		m.editing = &editing{objectID: msg.Object, frameID: msg.Frame, touchOffset: offset}
		m.renderer.BeginEditing(msg.Object, msg.Frame, offset)
		m.renderer.ScaleFrame(msg.Frame, frame.Screen.Scale)
		transitionsTotal.WithLabelValues(string(model.VisualizationScreen)).Inc()
		ctxlog.FromContext(ctx).Debug("Frame pushed into screen.", "frame", msg.Frame, "scale", frame.Screen.Scale, "offsetX", offset.X, "offsetY", offset.Y)
		return true
	case frame.Visualization == model.VisualizationAR && previous == model.VisualizationScreen:
		m.editing = nil
		m.pinch = nil
		m.renderer.EndEditing()
		transitionsTotal.WithLabelValues(string(model.VisualizationAR)).Inc()
		ctxlog.FromContext(ctx).Debug("Frame pulled into AR.", "frame", msg.Frame)
		return true
	}
	return false
}

// pointerLocked replays a pointer event and drags the edited frame with it.
// m.mu must be held.
func (m *Machine) pointerLocked(kind PointerKind, at model.Point) {
	m.pointer = at
	if m.editing != nil && kind != PointerUp {
		if frame, ok := m.frames[m.editing.frameID]; ok {
			frame.Screen.X = at.X + m.editing.touchOffset.X
			frame.Screen.Y = at.Y + m.editing.touchOffset.Y
		}
	}
	pointerEventsTotal.WithLabelValues(string(kind)).Inc()
	m.renderer.Pointer(kind, at)
}

// scaleLocked resizes the edited frame by the change in distance between two
// fingers since the pinch started. m.mu must be held.
func (m *Machine) scaleLocked(inner, outer model.Point) {
	if m.editing == nil {
		return
	}
	frame, ok := m.frames[m.editing.frameID]
	if !ok {
		return
	}
	distance := math.Hypot(outer.X-inner.X, outer.Y-inner.Y)
	if distance == 0 {
		return
	}
	if m.pinch == nil {
		m.pinch = &pinch{distance: distance, scale: frame.Screen.Scale}
		return
	}
	frame.Screen.Scale = m.pinch.scale * distance / m.pinch.distance
	m.renderer.ScaleFrame(m.editing.frameID, frame.Screen.Scale)
}

// resetFramesLocked sends every screen frame back to AR. m.mu must be held.
func (m *Machine) resetFramesLocked(ctx context.Context) {
	for _, frame := range m.frames {
		frame.Visualization = model.VisualizationAR
	}
	if m.editing != nil {
		m.editing = nil
		m.renderer.EndEditing()
	}
	m.pinch = nil
	m.renderer.ResetFrames()
	ctxlog.FromContext(ctx).Info("Triple tap, frames reset.")
}

// postPoseLocked sends the screen pose of a frame. m.mu must be held.
func (m *Machine) postPoseLocked(ctx context.Context, objectID, frameID string) {
	frame, ok := m.frames[frameID]
	if !ok {
		return
	}
	m.poster.PostPose(ctx, objectID, frameID, model.ScreenPoseUpdate{
		X:                  frame.Screen.X,
		Y:                  frame.Screen.Y,
		Scale:              frame.Screen.Scale,
		ScaleARFactor:      m.scaleRatio,
		IgnoreActionSender: true,
	})
}

func (m *Machine) framesLocked() map[string]*model.Frame {
	out := make(map[string]*model.Frame, len(m.frames))
	for id, frame := range m.frames {
		out[id] = frame.Clone()
	}
	return out
}

// tapDetector reports a third tap landing within tripleTapWindow of the first.
type tapDetector struct {
	now  func() time.Time
	taps []time.Time
}

const tripleTapWindow = 600 * time.Millisecond

func newTapDetector(now func() time.Time) *tapDetector {
	if now == nil {
		now = time.Now
	}
	return &tapDetector{now: now}
}

func (d *tapDetector) tap() bool {
	t := d.now()
	kept := d.taps[:0]
	for _, prev := range d.taps {
		if t.Sub(prev) <= tripleTapWindow {
			kept = append(kept, prev)
		}
	}
	d.taps = append(kept, t)
	if len(d.taps) >= 3 {
		d.taps = d.taps[:0]
		return true
	}
	return false
}
